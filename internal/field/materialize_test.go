package field_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/zeonica-animator/internal/field"
	"github.com/sarchlab/zeonica-animator/internal/ir"
	"github.com/sarchlab/zeonica-animator/internal/types"
)

type stubValues struct {
	byID map[ir.ExprId][]float64
}

func (s stubValues) EvalValue(id ir.ExprId) ([]float64, error) {
	return s.byID[id], nil
}

func manyFloat(domain string) types.CanonicalType {
	return types.CanonicalType{Payload: types.PayloadFloat, Unit: types.UnitScalar, Extent: types.Extent{Cardinality: types.CardinalityMany, DomainTag: domain}}
}

func manyVec2(domain string) types.CanonicalType {
	return types.CanonicalType{Payload: types.PayloadVec2, Unit: types.UnitScalar, Extent: types.Extent{Cardinality: types.CardinalityMany, DomainTag: domain}}
}

var _ = Describe("Materializer", func() {
	var (
		builder *ir.Builder
		m       *field.Materializer
	)

	BeforeEach(func() {
		builder = ir.NewBuilder()
		m = &field.Materializer{
			IR:     builder,
			Cache:  field.NewCache(),
			Pool:   field.NewBufferPool(),
			Values: stubValues{byID: map[ir.ExprId][]float64{}},
			DomainSize: func(tag string) int {
				if tag == "dots" {
					return 4
				}
				return 0
			},
		}
	})

	It("materializes the index intrinsic as 0..n-1", func() {
		idx := builder.Intrinsic(manyFloat("dots"), "index", "dots")
		buf, stride, err := m.Materialize(idx, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(stride).To(Equal(1))
		Expect(buf).To(Equal([]float64{0, 1, 2, 3}))
	})

	It("caches a buffer for the same frame stamp and misses on the next frame", func() {
		idx := builder.Intrinsic(manyFloat("dots"), "index", "dots")
		buf1, _, _ := m.Materialize(idx, 5)
		buf2, _, _ := m.Materialize(idx, 5)
		Expect(&buf1[0]).To(Equal(&buf2[0]))

		buf3, _, err := m.Materialize(idx, 6)
		Expect(err).NotTo(HaveOccurred())
		Expect(buf3).To(Equal([]float64{0, 1, 2, 3}))
	})

	It("dispatches a KernelMap opcode name through the signal evaluator", func() {
		phase := builder.Intrinsic(manyFloat("dots"), "normalizedIndex", "dots")
		osc := builder.KernelMap(manyFloat("dots"), "oscSin", phase)
		buf, _, err := m.Materialize(osc, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(buf).To(HaveLen(4))
		// normalizedIndex(0) == 0 -> oscSin(0) == sin(0) == 0
		Expect(buf[0]).To(BeNumerically("~", 0, 1e-9))
	})

	It("constructs a vec2 field from two scalar fields and extracts components back", func() {
		xs := builder.Intrinsic(manyFloat("dots"), "index", "dots")
		ys := builder.Intrinsic(manyFloat("dots"), "normalizedIndex", "dots")
		vec := builder.Construct(manyVec2("dots"), xs, ys)
		buf, stride, err := m.Materialize(vec, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(stride).To(Equal(2))
		Expect(buf[0]).To(Equal(0.0))
		Expect(buf[1]).To(Equal(0.0))
		Expect(buf[2]).To(Equal(1.0))

		xBack := builder.Extract(manyFloat("dots"), "x", vec)
		xBuf, _, err := m.Materialize(xBack, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(xBuf).To(Equal([]float64{0, 1, 2, 3}))
	})

	It("broadcasts a signal value across every lane", func() {
		constID := ir.ExprId(999) // stand-in id for a value expr the stub resolves directly
		m.Values = stubValues{byID: map[ir.ExprId][]float64{constID: {7}}}
		bc := builder.Broadcast(manyFloat("dots"), constID)
		buf, _, err := m.Materialize(bc, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(buf).To(Equal([]float64{7, 7, 7, 7}))
	})
})
