package field_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/zeonica-animator/internal/field"
)

var _ = Describe("BufferPool", func() {
	It("recycles buffers of the same size class instead of allocating", func() {
		pool := field.NewBufferPool()
		buf := pool.Get(10)
		Expect(buf).To(HaveLen(10))
		pool.Put(buf)

		again := pool.Get(10)
		Expect(again).To(HaveLen(10))
		Expect(cap(again)).To(BeNumerically(">=", 10))
	})

	It("zeroes recycled buffers", func() {
		pool := field.NewBufferPool()
		buf := pool.Get(4)
		for i := range buf {
			buf[i] = 99
		}
		pool.Put(buf)

		again := pool.Get(4)
		for _, v := range again {
			Expect(v).To(Equal(0.0))
		}
	})

	It("tracks a high-water mark of concurrently checked-out buffers", func() {
		pool := field.NewBufferPool()
		a := pool.Get(4)
		b := pool.Get(4)
		Expect(pool.HighWaterMark()).To(Equal(2))
		pool.Put(a)
		pool.Put(b)
		c := pool.Get(4)
		pool.Put(c)
		Expect(pool.HighWaterMark()).To(Equal(2))
	})

	It("stabilizes after a warm-up frame with no further growth", func() {
		pool := field.NewBufferPool()
		for frame := 0; frame < 5; frame++ {
			bufs := make([][]float64, 3)
			for i := range bufs {
				bufs[i] = pool.Get(16)
			}
			for _, b := range bufs {
				pool.Put(b)
			}
		}
		Expect(pool.HighWaterMark()).To(Equal(3))
	})
})
