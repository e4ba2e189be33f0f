package schedule

import (
	"sort"

	"github.com/sarchlab/zeonica-animator/internal/ir"
)

// StepKind enumerates the typed schedule operations named in spec.md §3.
type StepKind int

const (
	StepEvaluateSignal StepKind = iota
	StepWriteStridedSlot
	StepMaterializeField
	StepContinuityMapBuild
	StepContinuityApply
	StepEvaluateEvent
	StepRenderPassCollect
	StepScalarStateWrite
	StepFieldStateWrite
)

func (k StepKind) String() string {
	switch k {
	case StepEvaluateSignal:
		return "evaluate-signal"
	case StepWriteStridedSlot:
		return "write-strided-slot"
	case StepMaterializeField:
		return "materialize-field"
	case StepContinuityMapBuild:
		return "continuity-map-build"
	case StepContinuityApply:
		return "continuity-apply"
	case StepEvaluateEvent:
		return "evaluate-event"
	case StepRenderPassCollect:
		return "render-pass-collect"
	case StepScalarStateWrite:
		return "scalar-state-write"
	case StepFieldStateWrite:
		return "field-state-write"
	default:
		return "unknown"
	}
}

// Phase is explicit per step-kind (spec.md §4.5): scalar-state-write and
// field-state-write are tagged for Phase 2, everything else is Phase 1.
type Phase int

const (
	Phase1 Phase = iota
	Phase2
)

func (k StepKind) Phase() Phase {
	switch k {
	case StepScalarStateWrite, StepFieldStateWrite:
		return Phase2
	default:
		return Phase1
	}
}

// Step is one scheduled operation. InputSlots/OutputSlots name the slot ids
// it reads/writes; Expr, if set, is the IR expression it evaluates;
// Continuity/RenderPass carry step-specific parameters.
type Step struct {
	Kind         StepKind
	Expr         ir.ExprId
	HasExpr      bool
	InputSlots   []int
	OutputSlots  []int
	StateSlot    int // for state-write/state-read-adjacent steps
	Continuity   *ContinuityParams
	RenderPass   *RenderPassParams
	DependsOn    []int // indices of other steps in the same schedule this step must follow
	DebugName    string
}

// ContinuityParams carries the parameters named in spec.md §4.12.
type ContinuityParams struct {
	TargetID       string
	Policy         string // none|preserve|slew|project|crossfade
	SlewRate       float64
	CrossfadeWindow float64
	EasingCurve    string
	DomainTag      string
}

// RenderPassParams carries the parameters a render-pass-collect step needs
// to later be resolved by the RenderAssembler (spec.md §4.11).
type RenderPassParams struct {
	ShapeSlot        int
	ControlPointExpr ir.ExprId
	HasControlPoints bool
	Sorted           bool
	InstanceCountSlot int
	PositionSlot     int
	SizeSlot         int
	ColorSlot        int
	RotationSlot     int
	Scale2Slot       int
	StyleKey         string
	DomainTag        string // instance domain name when the pass's slots are field-backed ("many")
}

// Schedule is the ordered Step[] produced by the scheduler.
type Schedule struct {
	Steps []Step
}

// Builder topologically orders declared steps by their DependsOn edges,
// breaking ties by slot-id for determinism (spec.md §4.5 "Ordering is
// stable: ties are broken by slot-id").
type Builder struct {
	pending []Step
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Add appends a step declaration (with dependency indices already resolved
// against previously Add-ed steps) and returns its pending index.
func (b *Builder) Add(s Step) int {
	b.pending = append(b.pending, s)
	return len(b.pending) - 1
}

// Build performs a stable topological sort over the declared steps using
// Kahn's algorithm, with the ready set ordered by (min output slot id, kind,
// original index) for determinism, then stable-partitions Phase 1 steps
// ahead of Phase 2 steps while otherwise preserving topological order
// within a phase — render-pass steps, which are always Phase 1, are placed
// after every step they depend on, per spec.md §4.5.
func (b *Builder) Build() (*Schedule, error) {
	n := len(b.pending)
	indeg := make([]int, n)
	adj := make([][]int, n)
	for i, s := range b.pending {
		for _, dep := range s.DependsOn {
			adj[dep] = append(adj[dep], i)
			indeg[i]++
		}
	}

	minSlot := func(s Step) int {
		m := int(^uint(0) >> 1)
		for _, o := range s.OutputSlots {
			if o < m {
				m = o
			}
		}
		if len(s.OutputSlots) == 0 {
			return -1
		}
		return m
	}

	var ready []int
	for i := 0; i < n; i++ {
		if indeg[i] == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]int, 0, n)
	for len(ready) > 0 {
		sort.Slice(ready, func(a, c int) bool {
			sa, sc := b.pending[ready[a]], b.pending[ready[c]]
			ma, mc := minSlot(sa), minSlot(sc)
			if ma != mc {
				return ma < mc
			}
			if sa.Kind != sc.Kind {
				return sa.Kind < sc.Kind
			}
			return ready[a] < ready[c]
		})
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)
		for _, to := range adj[next] {
			indeg[to]--
			if indeg[to] == 0 {
				ready = append(ready, to)
			}
		}
	}

	if len(order) != n {
		return nil, ErrCycleInSchedule
	}

	steps := make([]Step, 0, n)
	for _, idx := range order {
		if b.pending[idx].Kind.Phase() == Phase1 {
			steps = append(steps, b.pending[idx])
		}
	}
	for _, idx := range order {
		if b.pending[idx].Kind.Phase() == Phase2 {
			steps = append(steps, b.pending[idx])
		}
	}

	return &Schedule{Steps: steps}, nil
}

// ErrCycleInSchedule is returned when the step dependency graph itself has
// a cycle — this should be impossible if dependency+cycle analysis (spec.md
// §4.8) ran correctly, since legal cycles all cross a stateful boundary and
// state reads do not create a Step dependency edge.
var ErrCycleInSchedule = schedError("schedule: dependency graph among steps is cyclic")

type schedError string

func (e schedError) Error() string { return string(e) }
