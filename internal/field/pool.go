// Package field implements the field kernel dispatcher (spec.md §4.9), the
// frame-stamped field materializer and cache (§4.10), and the size-classed
// buffer pool both depend on. Grounded on the teacher's core/emu.go
// RecvBufHead/SendBufHead stride-array handling, generalized from
// fixed-size CGRA port buffers to N-lane field buffers of varying size.
package field

import "math/bits"

// BufferPool is a size-classed []float64 allocator. Buffers are bucketed by
// the next power of two at or above their requested length, so a
// steady-state frame loop that repeatedly needs the same few sizes never
// touches the system allocator after warm-up — the only legal way to avoid
// per-frame allocation in render-hot code (spec.md §4.10).
type BufferPool struct {
	buckets   map[int][][]float64
	live      int
	highWater int
}

func NewBufferPool() *BufferPool {
	return &BufferPool{buckets: make(map[int][][]float64)}
}

func sizeClass(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// Get returns a buffer with length n, reused from the pool when a
// same-size-class buffer was returned in a previous frame.
func (p *BufferPool) Get(n int) []float64 {
	class := sizeClass(n)
	bucket := p.buckets[class]
	var buf []float64
	if len(bucket) == 0 {
		buf = make([]float64, n, class)
	} else {
		last := len(bucket) - 1
		buf = bucket[last]
		p.buckets[class] = bucket[:last]
		buf = buf[:n]
		for i := range buf {
			buf[i] = 0
		}
	}
	p.live++
	if p.live > p.highWater {
		p.highWater = p.live
	}
	return buf
}

// Put returns a buffer to the pool, bucketed by its capacity's size class.
func (p *BufferPool) Put(buf []float64) {
	if cap(buf) == 0 {
		return
	}
	p.live--
	class := sizeClass(cap(buf))
	p.buckets[class] = append(p.buckets[class], buf[:0:cap(buf)])
}

// HighWaterMark reports the largest number of buffers concurrently checked
// out. pool_test.go reads it; nothing publishes it to a monitoring surface.
func (p *BufferPool) HighWaterMark() int {
	return p.highWater
}
