// Package schedule implements the schedule and slot-planning stages of
// spec.md §4.5/§4.6: lowering the interned IR into a flat, stably-ordered
// Step[] and assigning concrete per-storage-kind offsets. Grounded on the
// teacher's core/program.go Program/EntryBlock/InstructionGroup layout
// (flat ordered lists of typed operations) and core/builder.go's
// register/port-array allocation for the slot-bank idea.
package schedule

import "fmt"

// Kind is one of the storage-class banks named in spec.md §3: f32/i32/u32
// scalar banks, a packed shape2d bank, and a rare object heap.
type Kind int

const (
	KindF32 Kind = iota
	KindI32
	KindU32
	KindShape2D
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindF32:
		return "f32"
	case KindI32:
		return "i32"
	case KindU32:
		return "u32"
	case KindShape2D:
		return "shape2d"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Shape2DWords is the fixed word count of a packed shape2d record (§6):
// [topologyId, controlPointsFieldSlot, pointsCount, styleRef, flags,
// reserved, reserved, reserved].
const Shape2DWords = 8

// SlotClass distinguishes value slots (overwritten every Phase 1), state
// slots (written only in Phase 2, read in Phase 1 as "previous frame"), and
// field buffer slots (materialized field lane arrays, pool-backed rather
// than bank-backed, but still given a stable id for step wiring).
type SlotClass int

const (
	ClassValue SlotClass = iota
	ClassState
	ClassField
)

// Declaration is a slot need emitted by block lowering (spec.md §4.4's
// allocValueSlot/allocStateSlot/allocShape2DSlot intrinsics). StableKey, if
// non-empty, is the StateId/TargetId that must survive recompiles (spec.md
// §4.6 "Offsets are stable across recompiles for any slot whose
// StateId/TargetId is stable").
type Declaration struct {
	ID         int
	Kind       Kind
	Class      SlotClass
	StableKey  string
	LaneStride int // 1 for scalar slots; >1 for multi-component (vec2/color) value or field slots
	Initial    any // declared initial value, used on frame 0 / new-target init
}

// SlotTable is the immutable plan of storage produced by the slot planner:
// for every declared slot id, a concrete storage kind and offset within
// that kind's bank.
type SlotTable struct {
	Offsets    map[int]int  // declared slot id -> offset within its kind's bank
	Kinds      map[int]Kind // declared slot id -> storage kind
	BankSize   map[Kind]int // total words/elements per bank
	StableKeys map[int]string
	decls      []Declaration
}

// Offset returns the planned offset for a slot id, and whether it exists.
func (t *SlotTable) Offset(id int) (int, bool) {
	off, ok := t.Offsets[id]
	return off, ok
}

// Declarations exposes the raw declarations this table was planned from, for
// the executor to build and initialize its storage banks.
func (t *SlotTable) Declarations() []Declaration {
	return t.decls
}

// Planner groups declared slots by kind and assigns contiguous offsets, in
// declaration order, so that a slot with a stable StateId/TargetId always
// lands at a deterministic offset as long as the same set of stable-keyed
// slots is declared in the same relative order across recompiles (spec.md
// §4.6).
type Planner struct {
	decls []Declaration
	byID  map[int]Declaration
}

func NewPlanner() *Planner {
	return &Planner{byID: make(map[int]Declaration)}
}

// Declare registers a slot need. IDs must be unique within one planning
// pass.
func (p *Planner) Declare(d Declaration) error {
	if _, exists := p.byID[d.ID]; exists {
		return fmt.Errorf("slot id %d declared twice", d.ID)
	}
	p.byID[d.ID] = d
	p.decls = append(p.decls, d)
	return nil
}

// Plan groups by storage kind and assigns contiguous offsets. Shape2D slots
// always consume Shape2DWords u32-equivalent words each, per §6.
func (p *Planner) Plan() *SlotTable {
	table := &SlotTable{
		Offsets:    make(map[int]int),
		Kinds:      make(map[int]Kind),
		BankSize:   make(map[Kind]int),
		StableKeys: make(map[int]string),
	}

	cursor := make(map[Kind]int)
	for _, d := range p.decls {
		width := 1
		if d.Kind == KindShape2D {
			width = Shape2DWords
		}
		if d.LaneStride > 1 {
			width *= d.LaneStride
		}
		off := cursor[d.Kind]
		table.Offsets[d.ID] = off
		table.Kinds[d.ID] = d.Kind
		if d.StableKey != "" {
			table.StableKeys[d.ID] = d.StableKey
		}
		cursor[d.Kind] = off + width
	}
	for k, n := range cursor {
		table.BankSize[k] = n
	}
	table.decls = p.decls
	return table
}

// Declarations exposes the raw declarations, e.g. for the executor to build
// its initial state banks.
func (p *Planner) Declarations() []Declaration {
	return p.decls
}
