package runtime

import (
	"fmt"

	"github.com/sarchlab/zeonica-animator/internal/field"
	"github.com/sarchlab/zeonica-animator/internal/schedule"
)

// RenderPassResult is the resolved, renderer-agnostic data one
// render-pass-collect step produced this frame: either scalar (one
// instance) or field-backed (N instances via DomainTag) buffers, ready for
// internal/render's assembler to turn into a draw operation.
type RenderPassResult struct {
	Params        schedule.RenderPassParams
	InstanceCount int
	Position      []float64 // stride 2
	Color         []float64 // stride 4
	Size          []float64 // stride 1
	Rotation      []float64 // stride 1
}

// Executor drives one CompiledProgram's Schedule through spec.md §4.7's
// two-phase tick: walk the full step array once executing only Phase 1,
// then a second time executing only Phase 2.
type Executor struct {
	rs         *RuntimeState
	domainSize map[string]int
	rails      map[string]float64
}

func NewExecutor(rs *RuntimeState, domainSize map[string]int) *Executor {
	return &Executor{rs: rs, domainSize: domainSize, rails: make(map[string]float64)}
}

// SetRail stages a named rail's value for the next Tick, written into its
// slot before Phase 1 so every Oscillator/etc. defaulting to that rail
// reads this frame's value.
func (e *Executor) SetRail(name string, value float64) {
	e.rails[name] = value
}

// Tick advances the frame stamp to tModelMs (must be strictly increasing)
// and runs one full two-phase step walk, returning the render passes
// collected this frame.
func (e *Executor) Tick(tModelMs int64) ([]RenderPassResult, error) {
	if e.rs.frameSet && tModelMs <= e.rs.FrameStamp {
		return nil, fmt.Errorf("runtime: frame stamp must be monotone (got %d after %d)", tModelMs, e.rs.FrameStamp)
	}
	e.rs.FrameStamp = tModelMs
	e.rs.frameSet = true

	for name, val := range e.rails {
		if slot, ok := e.rs.NamedSlot("rail:" + name); ok {
			if err := e.rs.WriteF32(slot, []float64{val}); err != nil {
				return nil, err
			}
		}
	}

	ve := newValueEvaluator(e.rs)
	mat := &field.Materializer{
		IR:         e.rs.Program.IR,
		Cache:      e.rs.Cache,
		Pool:       e.rs.Pool,
		Values:     ve,
		DomainSize: func(tag string) int { return e.domainSize[tag] },
	}

	var results []RenderPassResult
	steps := e.rs.Program.Schedule.Steps

	for _, step := range steps {
		if step.Kind.Phase() != schedule.Phase1 {
			continue
		}
		if err := e.dispatchPhase1(step, ve, mat, &results); err != nil {
			return nil, err
		}
	}
	for _, step := range steps {
		if step.Kind.Phase() != schedule.Phase2 {
			continue
		}
		if err := e.dispatchPhase2(step, ve, mat); err != nil {
			return nil, err
		}
	}

	// §4.10: after each frame, all non-state buffers return to the pool.
	// Field-state-write steps already took their own persistent copy into
	// RuntimeState.FieldSlots, so draining the cache here never loses a
	// value a later frame needs.
	e.rs.Cache.ReleaseAll(e.rs.Pool)

	return results, nil
}

func (e *Executor) dispatchPhase1(step schedule.Step, ve *valueEvaluator, mat *field.Materializer, results *[]RenderPassResult) error {
	switch step.Kind {
	case schedule.StepEvaluateSignal, schedule.StepEvaluateEvent:
		vals, err := ve.eval(step.Expr)
		if err != nil {
			return err
		}
		return e.rs.WriteF32(step.OutputSlots[0], vals)

	case schedule.StepMaterializeField:
		buf, _, err := mat.Materialize(step.Expr, e.rs.FrameStamp)
		if err != nil {
			return err
		}
		e.rs.FieldSlots[step.OutputSlots[0]] = buf
		return nil

	case schedule.StepWriteStridedSlot:
		// No builtin currently emits this step kind; strided-slot writes
		// go through StepEvaluateSignal/StepMaterializeField instead.
		return nil

	case schedule.StepContinuityMapBuild, schedule.StepContinuityApply:
		// Continuity (spec.md §4.12/§4.13) lives in internal/continuity,
		// which this executor does not call: these steps are no-ops here,
		// and no registered builtin emits them.
		return nil

	case schedule.StepRenderPassCollect:
		res, err := e.collectRenderPass(step, ve)
		if err != nil {
			return err
		}
		*results = append(*results, res)
		return nil

	default:
		return fmt.Errorf("runtime: step kind %v is not valid in Phase 1", step.Kind)
	}
}

func (e *Executor) dispatchPhase2(step schedule.Step, ve *valueEvaluator, mat *field.Materializer) error {
	switch step.Kind {
	case schedule.StepScalarStateWrite:
		vals, err := ve.eval(step.Expr)
		if err != nil {
			return err
		}
		return e.rs.WriteF32(step.StateSlot, vals)

	case schedule.StepFieldStateWrite:
		buf, _, err := mat.Materialize(step.Expr, e.rs.FrameStamp)
		if err != nil {
			return err
		}
		persisted := make([]float64, len(buf))
		copy(persisted, buf)
		e.rs.FieldSlots[step.StateSlot] = persisted
		return nil

	default:
		return fmt.Errorf("runtime: step kind %v is not valid in Phase 2", step.Kind)
	}
}

func (e *Executor) collectRenderPass(step schedule.Step, ve *valueEvaluator) (RenderPassResult, error) {
	p := step.RenderPass
	if p == nil {
		return RenderPassResult{}, fmt.Errorf("runtime: render-pass-collect step missing params")
	}
	if p.DomainTag != "" {
		pos := e.rs.FieldSlots[p.PositionSlot]
		col := e.rs.FieldSlots[p.ColorSlot]
		size := e.rs.FieldSlots[p.SizeSlot]
		rot := e.rs.FieldSlots[p.RotationSlot]
		n := len(size)
		return RenderPassResult{Params: *p, InstanceCount: n, Position: pos, Color: col, Size: size, Rotation: rot}, nil
	}

	pos, err := e.rs.ReadF32(p.PositionSlot, 2)
	if err != nil {
		return RenderPassResult{}, err
	}
	col, err := e.rs.ReadF32(p.ColorSlot, 4)
	if err != nil {
		return RenderPassResult{}, err
	}
	size, err := e.rs.ReadF32(p.SizeSlot, 1)
	if err != nil {
		return RenderPassResult{}, err
	}
	rot, err := e.rs.ReadF32(p.RotationSlot, 1)
	if err != nil {
		return RenderPassResult{}, err
	}
	return RenderPassResult{Params: *p, InstanceCount: 1, Position: pos, Color: col, Size: size, Rotation: rot}, nil
}
