// Package registry models the block definition registry: spec.md treats it
// as an external collaborator (a metadata store consumed by the compiler),
// but the narrow compiler-facing surface — "call its lower routine with a
// context" (spec.md §4.4) — is in scope since block lowering is part of the
// hard core. Grounded on the teacher's program/isa.go and instr/isa.go
// `ISA` struct (name -> behavior map, `registerNewInst`), generalized from
// a fixed instruction set to an open block-type registry, and on spec.md
// §9 "Sum types over inheritance: blocks expose a static metadata record +
// a pure lower function; there is no block base class."
package registry

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sarchlab/zeonica-animator/internal/graph"
	"github.com/sarchlab/zeonica-animator/internal/ir"
	"github.com/sarchlab/zeonica-animator/internal/schedule"
	"github.com/sarchlab/zeonica-animator/internal/types"
)

// titleCaser backs HumanizeName below, grounded on the teacher's
// core/emu.go toTitleCase helper (it replaces the deprecated
// strings.Title the same way).
var titleCaser = cases.Title(language.English)

// HumanizeName renders a camelCase/PascalCase block-type tag or opcode
// name as spaced Title Case for diagnostic messages, e.g. "oscSin" ->
// "Osc Sin", "HslToRgba" -> "Hsl To Rgba".
func HumanizeName(name string) string {
	var spaced strings.Builder
	for i, r := range name {
		if i > 0 && r >= 'A' && r <= 'Z' {
			spaced.WriteByte(' ')
		}
		spaced.WriteRune(r)
	}
	return titleCaser.String(strings.ToLower(spaced.String()))
}

// TimeRole is declared per block type on its Def (spec.md §2 pass 7); no
// compiler pass infers or changes it.
type TimeRole int

const (
	TimeContinuous TimeRole = iota
	TimeDiscrete
	TimeStatic
)

// InputSpec is a port definition as declared by a block's metadata record.
type InputSpec struct {
	ID                graph.PortID
	Payload           types.Payload // PayloadVariable if payload-generic
	Unit              types.Unit    // UnitVariable if unit-polymorphic
	StaticCardinality types.Cardinality
	DefaultAllowed    bool
	DefaultKind       string // "const" | "rail"
	DefaultValue      any
	DefaultRail       string
}

// OutputSpec is an output port definition.
type OutputSpec struct {
	ID                graph.PortID
	Payload           types.Payload
	Unit              types.Unit
	StaticCardinality types.Cardinality
}

// LowerContext is everything a block's lower routine may read, per spec.md
// §4.4: resolved input expressions/types, resolved output types, an IR
// builder, and step/slot allocation. It intentionally does NOT expose
// neighboring block types, default-source kinds, or any global patch state
// — "must not inspect neighboring block types ... or any global state."
type LowerContext struct {
	Block       *graph.Block
	InputExprs  map[graph.PortID]ir.ExprId
	InputTypes  map[graph.PortID]types.CanonicalType
	OutputTypes map[graph.PortID]types.CanonicalType
	Params      map[string]any

	IR    *ir.Builder
	Steps *schedule.Builder
	Slots *schedule.Planner

	nextSlotID *int
}

// NewLowerContext constructs a LowerContext for one block's lower call. It
// is the only way to obtain one from outside this package, since the slot
// id counter it shares across an entire compile run is a private field.
func NewLowerContext(
	block *graph.Block,
	inputExprs map[graph.PortID]ir.ExprId,
	inputTypes map[graph.PortID]types.CanonicalType,
	outputTypes map[graph.PortID]types.CanonicalType,
	params map[string]any,
	irb *ir.Builder,
	steps *schedule.Builder,
	slots *schedule.Planner,
	nextSlotID *int,
) *LowerContext {
	return &LowerContext{
		Block: block, InputExprs: inputExprs, InputTypes: inputTypes,
		OutputTypes: outputTypes, Params: params,
		IR: irb, Steps: steps, Slots: slots, nextSlotID: nextSlotID,
	}
}

// AllocValueSlot allocates a fresh value slot of the given storage kind.
func (c *LowerContext) AllocValueSlot(kind schedule.Kind, laneStride int) int {
	return c.alloc(kind, schedule.ClassValue, "", laneStride, nil)
}

// AllocStateSlot allocates a stateful-block state slot keyed to a stable
// StateId so it survives recompiles (spec.md §4.6).
func (c *LowerContext) AllocStateSlot(kind schedule.Kind, stateID string, initial any) int {
	return c.alloc(kind, schedule.ClassState, stateID, 1, initial)
}

// AllocNamedValueSlot allocates a value slot tagged with a stable key a
// host (e.g. the runtime's per-frame rail writer) can look up by name,
// rather than by the slot id the compiler happened to assign it.
func (c *LowerContext) AllocNamedValueSlot(kind schedule.Kind, laneStride int, stableKey string) int {
	return c.alloc(kind, schedule.ClassValue, stableKey, laneStride, nil)
}

// AllocFieldSlot allocates a field buffer slot (pool-backed lane array).
func (c *LowerContext) AllocFieldSlot(kind schedule.Kind, laneStride int) int {
	return c.alloc(kind, schedule.ClassField, "", laneStride, nil)
}

// AllocShape2DSlot allocates a packed shape2d record slot (§6, 8 u32 words).
func (c *LowerContext) AllocShape2DSlot() int {
	return c.alloc(schedule.KindShape2D, schedule.ClassValue, "", 1, nil)
}

func (c *LowerContext) alloc(kind schedule.Kind, class schedule.SlotClass, stableKey string, laneStride int, initial any) int {
	id := *c.nextSlotID
	*c.nextSlotID++
	_ = c.Slots.Declare(schedule.Declaration{
		ID: id, Kind: kind, Class: class, StableKey: stableKey,
		LaneStride: laneStride, Initial: initial,
	})
	return id
}

// StepEvalSig, StepMaterialize, etc. wrap schedule.Builder.Add with the
// matching StepKind, per spec.md §4.4's intrinsic list.
func (c *LowerContext) StepEvalSig(expr ir.ExprId, out int, dependsOn ...int) int {
	return c.Steps.Add(schedule.Step{Kind: schedule.StepEvaluateSignal, Expr: expr, HasExpr: true, OutputSlots: []int{out}, DependsOn: dependsOn})
}

func (c *LowerContext) StepMaterialize(expr ir.ExprId, out int, dependsOn ...int) int {
	return c.Steps.Add(schedule.Step{Kind: schedule.StepMaterializeField, Expr: expr, HasExpr: true, OutputSlots: []int{out}, DependsOn: dependsOn})
}

func (c *LowerContext) StepStateWrite(expr ir.ExprId, stateSlot int, dependsOn ...int) int {
	return c.Steps.Add(schedule.Step{Kind: schedule.StepScalarStateWrite, Expr: expr, HasExpr: true, StateSlot: stateSlot, OutputSlots: []int{stateSlot}, DependsOn: dependsOn})
}

func (c *LowerContext) StepFieldStateWrite(expr ir.ExprId, stateSlot int, dependsOn ...int) int {
	return c.Steps.Add(schedule.Step{Kind: schedule.StepFieldStateWrite, Expr: expr, HasExpr: true, StateSlot: stateSlot, OutputSlots: []int{stateSlot}, DependsOn: dependsOn})
}

func (c *LowerContext) StepEvent(expr ir.ExprId, out int, dependsOn ...int) int {
	return c.Steps.Add(schedule.Step{Kind: schedule.StepEvaluateEvent, Expr: expr, HasExpr: true, OutputSlots: []int{out}, DependsOn: dependsOn})
}

func (c *LowerContext) StepRenderPass(p schedule.RenderPassParams, dependsOn ...int) int {
	return c.Steps.Add(schedule.Step{Kind: schedule.StepRenderPassCollect, RenderPass: &p, DependsOn: dependsOn})
}

func (c *LowerContext) StepContinuityApply(p schedule.ContinuityParams, out int, dependsOn ...int) int {
	return c.Steps.Add(schedule.Step{Kind: schedule.StepContinuityApply, Continuity: &p, OutputSlots: []int{out}, DependsOn: dependsOn})
}

// LowerResult is what a block's lower routine returns: the expression (if
// any) each output port now evaluates to.
type LowerResult struct {
	Outputs map[graph.PortID]ir.ExprId
}

// LowerFunc is a pure function over a LowerContext — "a block compiles
// based only on its inputs, outputs, params, and resolved types" (spec.md
// §4.4).
type LowerFunc func(ctx *LowerContext) (LowerResult, error)

// Def is a block's static metadata record, matching spec.md §9 "Sum types
// over inheritance."
//
// Commit is set only for Stateful blocks. Lower for a stateful block must
// produce its output using only a stateRead of its own state slot — never
// its current-frame InputExprs, which may not exist yet (a feedback loop
// is legal exactly because the output doesn't wait on the input). Commit
// runs in a second pass, once every block's output expression exists, and
// is where the stateful block emits the Phase-2 write of its current-frame
// input into that same state slot.
type Def struct {
	TypeTag  string
	Inputs   []InputSpec
	Outputs  []OutputSpec
	TimeRole TimeRole
	Stateful bool
	Lower    LowerFunc
	Commit   func(ctx *LowerContext) error
}

// Registry is a map from type tag to metadata record, grounded on the
// teacher's instr/isa.go `ISA.nameToBehavior` map + `registerNewInst`.
type Registry struct {
	defs map[string]*Def
}

func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Def)}
}

func (r *Registry) Register(d *Def) error {
	if _, exists := r.defs[d.TypeTag]; exists {
		return fmt.Errorf("block type %q already registered", d.TypeTag)
	}
	r.defs[d.TypeTag] = d
	return nil
}

func (r *Registry) Lookup(typeTag string) (*Def, bool) {
	d, ok := r.defs[typeTag]
	return d, ok
}
