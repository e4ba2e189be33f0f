// Package runtime implements the two-phase frame executor (spec.md §4.7):
// RuntimeState (the f32/i32/u32 banks, the FieldCache, and per-frame
// scratch) and Executor.Tick, which walks a CompiledProgram's Schedule
// twice per frame. Grounded on the teacher's core/emu.go
// instEmulator.RunInstructionGroup (Sync/Async phase split) and
// core/builder.go's fixed-size register/port-array allocation, generalized
// from a per-cycle CGRA tick to a per-frame animation tick.
package runtime

import (
	"fmt"

	"github.com/sarchlab/zeonica-animator/internal/compiler"
	"github.com/sarchlab/zeonica-animator/internal/field"
	"github.com/sarchlab/zeonica-animator/internal/schedule"
)

// Banks holds the flat per-Kind storage a SlotTable plans offsets into.
// Value and state slots share one array per kind — spec.md §4.7's
// ordering guarantee (every Phase 1 step across the whole schedule runs
// before any Phase 2 step) is what makes a single buffer correct without
// double-buffering: a Phase 1 state read always happens-before that
// frame's Phase 2 state write.
type Banks struct {
	F32     []float64
	I32     []int32
	U32     []uint32
	Shape2D []uint32
}

// RuntimeState is everything that persists across frames for one compiled
// program: the value/state banks, field-slot buffers (persisted outside
// the pool because a field-class slot with Class==ClassState must survive
// past the frame that produced it, unlike pooled materializer scratch),
// and the field materializer's cache/pool.
type RuntimeState struct {
	Program *compiler.CompiledProgram
	Banks   Banks

	// FieldSlots holds the current buffer for every declared field-class
	// slot (schedule.ClassField), persisted frame-to-frame so a
	// field-state-write step's output survives into the next frame's
	// reads — unlike FieldCache entries, which are scratch the pool
	// reclaims every frame.
	FieldSlots map[int][]float64

	Cache *field.Cache
	Pool  *field.BufferPool

	FrameStamp int64
	frameSet   bool
}

// NewRuntimeState allocates banks sized from the compiled program's
// SlotTable and zero/initial-fills every declared slot.
func NewRuntimeState(prog *compiler.CompiledProgram) *RuntimeState {
	rs := &RuntimeState{
		Program:    prog,
		FieldSlots: make(map[int][]float64),
		Cache:      field.NewCache(),
		Pool:       field.NewBufferPool(),
	}
	rs.Banks.F32 = make([]float64, prog.Slots.BankSize[schedule.KindF32])
	rs.Banks.I32 = make([]int32, prog.Slots.BankSize[schedule.KindI32])
	rs.Banks.U32 = make([]uint32, prog.Slots.BankSize[schedule.KindU32])
	rs.Banks.Shape2D = make([]uint32, prog.Slots.BankSize[schedule.KindShape2D])

	for _, d := range prog.Slots.Declarations() {
		if d.Initial == nil {
			continue
		}
		rs.initSlot(d)
	}
	return rs
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func (rs *RuntimeState) initSlot(d schedule.Declaration) {
	off, ok := rs.Program.Slots.Offset(d.ID)
	if !ok {
		return
	}
	switch d.Kind {
	case schedule.KindF32:
		if v, ok := d.Initial.(float64); ok {
			for i := 0; i < maxInt(1, d.LaneStride); i++ {
				rs.Banks.F32[off+i] = v
			}
		}
	case schedule.KindI32:
		if v, ok := d.Initial.(int32); ok {
			rs.Banks.I32[off] = v
		}
	case schedule.KindU32:
		if v, ok := d.Initial.(uint32); ok {
			rs.Banks.U32[off] = v
		}
	}
}

// ReadF32 reads a LaneStride-wide f32 slot starting at its planned offset.
func (rs *RuntimeState) ReadF32(slot, stride int) ([]float64, error) {
	off, ok := rs.Program.Slots.Offset(slot)
	if !ok {
		return nil, fmt.Errorf("runtime: slot %d has no planned offset", slot)
	}
	if off+stride > len(rs.Banks.F32) {
		return nil, fmt.Errorf("runtime: slot %d out of bank range", slot)
	}
	return rs.Banks.F32[off : off+stride], nil
}

// WriteF32 writes stride float64s into a planned f32 slot.
func (rs *RuntimeState) WriteF32(slot int, values []float64) error {
	off, ok := rs.Program.Slots.Offset(slot)
	if !ok {
		return fmt.Errorf("runtime: slot %d has no planned offset", slot)
	}
	if off+len(values) > len(rs.Banks.F32) {
		return fmt.Errorf("runtime: slot %d out of bank range", slot)
	}
	copy(rs.Banks.F32[off:off+len(values)], values)
	return nil
}

// NamedSlot resolves a rail-style stable key (e.g. "rail:time.primary") to
// its declared slot id, for the per-frame rail writer.
func (rs *RuntimeState) NamedSlot(stableKey string) (int, bool) {
	for id, key := range rs.Program.Slots.StableKeys {
		if key == stableKey {
			return id, true
		}
	}
	return 0, false
}
