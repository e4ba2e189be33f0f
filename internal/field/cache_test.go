package field_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/zeonica-animator/internal/field"
	"github.com/sarchlab/zeonica-animator/internal/ir"
)

var _ = Describe("Cache", func() {
	It("misses on the first lookup and hits once stamped with the current frame", func() {
		c := field.NewCache()
		id := ir.ExprId(7)
		_, ok := c.Get(id, 1)
		Expect(ok).To(BeFalse())

		c.Put(id, []float64{1, 2, 3}, 1, 1, map[ir.ExprId]bool{id: true})
		buf, ok := c.Get(id, 1)
		Expect(ok).To(BeTrue())
		Expect(buf).To(Equal([]float64{1, 2, 3}))
	})

	It("treats a stale frame stamp as a miss", func() {
		c := field.NewCache()
		id := ir.ExprId(3)
		c.Put(id, []float64{5}, 1, 1, nil)

		_, ok := c.Get(id, 2)
		Expect(ok).To(BeFalse())
	})

	It("evicts the oldest quartile once past the bound", func() {
		c := field.NewCache()
		for i := 0; i < field.EvictBound+10; i++ {
			c.Put(ir.ExprId(i), []float64{float64(i)}, 1, int64(i), nil)
		}
		Expect(c.Len()).To(BeNumerically("<=", field.EvictBound+10))
		c.Evict(nil)
		Expect(c.Len()).To(BeNumerically("<", field.EvictBound+10))
	})
})
