package field

import "github.com/sarchlab/zeonica-animator/internal/ir"

// EvictBound is the cache entry count spec.md §4.10 names as the example
// bound ("e.g., 200") past which the oldest 25% are evicted.
const EvictBound = 200

type entry struct {
	buf        []float64
	stride     int
	frameStamp int64
	deps       map[ir.ExprId]bool
}

// Cache is the FieldCache of spec.md §4.10: keyed purely by ExprId, so
// structurally identical subtrees (which hash-cons to the same ExprId)
// always share one cache entry.
type Cache struct {
	entries map[ir.ExprId]*entry
}

func NewCache() *Cache {
	return &Cache{entries: make(map[ir.ExprId]*entry)}
}

// Get returns the cached buffer for id if it exists and was stamped with
// the current frame. A stale (previous-frame) entry is a miss: the caller
// re-evaluates and re-Puts.
func (c *Cache) Get(id ir.ExprId, frameStamp int64) ([]float64, bool) {
	e, ok := c.entries[id]
	if !ok || e.frameStamp != frameStamp {
		return nil, false
	}
	return e.buf, true
}

// Put stores a freshly evaluated buffer, stamping it with the current frame
// and recording its dependency closure for bookkeeping (selective
// invalidation is in practice subsumed by the per-frame stamp check, since
// every dependency is itself re-evaluated and re-stamped within the same
// frame before any dependent reads it).
func (c *Cache) Put(id ir.ExprId, buf []float64, stride int, frameStamp int64, deps map[ir.ExprId]bool) {
	c.entries[id] = &entry{buf: buf, stride: stride, frameStamp: frameStamp, deps: deps}
}

// Evict drops the oldest 25% of entries by frame stamp once the cache
// exceeds EvictBound, putting their buffers back into pool (when pool is
// non-nil).
func (c *Cache) Evict(pool *BufferPool) {
	if len(c.entries) <= EvictBound {
		return
	}
	type aged struct {
		id    ir.ExprId
		stamp int64
	}
	ordered := make([]aged, 0, len(c.entries))
	for id, e := range c.entries {
		ordered = append(ordered, aged{id, e.frameStamp})
	}
	// Partial selection sort for the oldest quartile; the cache is bounded
	// small enough (hundreds of entries) that this never shows up in a
	// frame budget.
	cut := len(ordered) / 4
	for i := 0; i < cut; i++ {
		min := i
		for j := i + 1; j < len(ordered); j++ {
			if ordered[j].stamp < ordered[min].stamp {
				min = j
			}
		}
		ordered[i], ordered[min] = ordered[min], ordered[i]
		victim := ordered[i].id
		if pool != nil {
			pool.Put(c.entries[victim].buf)
		}
		delete(c.entries, victim)
	}
}

// Len reports the current entry count, for monitoring (spec.md's FieldCache
// hit-rate counter).
func (c *Cache) Len() int {
	return len(c.entries)
}

// ReleaseAll returns every cached buffer to pool and empties the cache. The
// executor calls this once per frame (spec.md §4.10: "after each frame, all
// non-state buffers are returned to the pool") — any field-state-write
// result a later frame needs was already copied out of the cache's buffer
// into RuntimeState.FieldSlots before this runs, so draining here never
// loses state.
func (c *Cache) ReleaseAll(pool *BufferPool) {
	if pool != nil {
		for _, e := range c.entries {
			pool.Put(e.buf)
		}
	}
	c.entries = make(map[ir.ExprId]*entry)
}
