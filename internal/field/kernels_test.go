package field_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/zeonica-animator/internal/field"
)

var _ = Describe("Kernel dispatcher", func() {
	lookup := func(name string) field.Kernel {
		k, ok := field.Lookup(name)
		Expect(ok).To(BeTrue(), "kernel %q should be registered", name)
		return k
	}

	It("registers every required kernel from spec.md §4.9", func() {
		for _, name := range []string{
			"makeVec2", "makeVec3", "hsvToRgb", "polarToCartesian", "circleLayout",
			"lineLayout", "gridLayout", "polygonVertex", "jitter2d", "attract2d",
			"fieldGoldenAngle", "applyOpacity",
		} {
			_, ok := field.Lookup(name)
			Expect(ok).To(BeTrue(), "missing required kernel %q", name)
		}
	})

	It("circleLayout always writes an explicit z=0 for every lane", func() {
		k := lookup("circleLayout")
		out := make([]float64, 4*3)
		err := k(out, 3, 4, []field.Arg{{Buf: []float64{1}, Stride: 1}})
		Expect(err).NotTo(HaveOccurred())
		for lane := 0; lane < 4; lane++ {
			Expect(out[lane*3+2]).To(Equal(0.0))
		}
	})

	It("round-trips hsvToRgb and rgbToHsv", func() {
		hsv := lookup("hsvToRgb")
		rgbOut := make([]float64, 4)
		err := hsv(rgbOut, 4, 1, []field.Arg{
			{Buf: []float64{0.6}, Stride: 1},
			{Buf: []float64{0.8}, Stride: 1},
			{Buf: []float64{0.9}, Stride: 1},
			{Buf: []float64{1}, Stride: 1},
		})
		Expect(err).NotTo(HaveOccurred())

		back := lookup("rgbToHsv")
		hsvOut := make([]float64, 4)
		err = back(hsvOut, 4, 1, []field.Arg{
			{Buf: rgbOut[0:1], Stride: 1},
			{Buf: rgbOut[1:2], Stride: 1},
			{Buf: rgbOut[2:3], Stride: 1},
			{Buf: rgbOut[3:4], Stride: 1},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(hsvOut[0]).To(BeNumerically("~", 0.6, 1e-6))
		Expect(hsvOut[1]).To(BeNumerically("~", 0.8, 1e-6))
		Expect(hsvOut[2]).To(BeNumerically("~", 0.9, 1e-6))
	})

	It("applyOpacity multiplies only the alpha component", func() {
		k := lookup("applyOpacity")
		out := make([]float64, 4)
		err := k(out, 4, 1, []field.Arg{
			{Buf: []float64{1, 0.5, 0.25, 1}, Stride: 4},
			{Buf: []float64{0.5}, Stride: 1},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal([]float64{1, 0.5, 0.25, 0.5}))
	})

	It("combine_layer composites back-to-front with standard alpha-over", func() {
		k := lookup("combine_layer")
		out := make([]float64, 4)
		err := k(out, 4, 1, []field.Arg{
			{Buf: []float64{1, 0, 0, 1}, Stride: 4}, // opaque red, drawn first
			{Buf: []float64{0, 1, 0, 0.5}, Stride: 4}, // half-alpha green on top
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(out[0]).To(BeNumerically("~", 0.5, 1e-9))
		Expect(out[1]).To(BeNumerically("~", 0.5, 1e-9))
		Expect(out[3]).To(BeNumerically("~", 1.0, 1e-9))
	})
})
