package registry

import (
	"github.com/sarchlab/zeonica-animator/internal/graph"
	"github.com/sarchlab/zeonica-animator/internal/ir"
	"github.com/sarchlab/zeonica-animator/internal/schedule"
	"github.com/sarchlab/zeonica-animator/internal/types"
)

// Builtins registers the small block library exercised by the end-to-end
// scenarios in spec.md §8: Const, Array, Broadcast, Oscillator, HslToRgba,
// RenderInstances2D, Adder, UnitDelay, and Zip. Grounded on the teacher's
// opcode dispatch map (core/emu.go instFuncs) translated from a fixed CGRA
// ISA into this engine's open block registry.
func Builtins() *Registry {
	r := NewRegistry()
	must := func(d *Def) {
		if err := r.Register(d); err != nil {
			panic(err)
		}
	}

	must(constDef())
	must(railDef())
	must(arrayDef())
	must(broadcastDef())
	must(oscillatorDef())
	must(hslToRgbaDef())
	must(adderDef())
	must(unitDelayDef())
	must(zipDef())
	must(renderInstances2DDef())
	must(unitAdapterDef())

	return r
}

func one(port graph.PortID, expr ir.ExprId) LowerResult {
	return LowerResult{Outputs: map[graph.PortID]ir.ExprId{port: expr}}
}

func constDef() *Def {
	return &Def{
		TypeTag:  "Const",
		Outputs:  []OutputSpec{{ID: "value", Payload: types.PayloadVariable, StaticCardinality: types.CardinalityOne}},
		TimeRole: TimeStatic,
		Lower: func(ctx *LowerContext) (LowerResult, error) {
			outType := ctx.OutputTypes["value"]
			expr := ctx.IR.Const(outType, ctx.Params["value"])
			return one("value", expr), nil
		},
	}
}

// railDef is the shared synthetic source the default-source pass wires an
// unconnected "rail" input to (spec.md §2 pass 2). The runtime writes this
// rail's named slot once per frame before Phase 1 begins (spec.md §4.7);
// the block's own Lower call does nothing but point at that slot.
func railDef() *Def {
	return &Def{
		TypeTag:  "Rail",
		Outputs:  []OutputSpec{{ID: "value", Payload: types.PayloadFloat, Unit: types.UnitNorm01, StaticCardinality: types.CardinalityOne}},
		TimeRole: TimeContinuous,
		Lower: func(ctx *LowerContext) (LowerResult, error) {
			outType := ctx.OutputTypes["value"]
			name, _ := ctx.Params["rail"].(string)
			slot := ctx.AllocNamedValueSlot(schedule.KindF32, 1, "rail:"+name)
			expr := ctx.IR.SlotRead(outType, slot)
			return one("value", expr), nil
		},
	}
}

func arrayDef() *Def {
	return &Def{
		TypeTag:  "Array",
		Outputs:  []OutputSpec{{ID: "value", Payload: types.PayloadVariable, StaticCardinality: types.CardinalityMany}},
		TimeRole: TimeStatic,
		Lower: func(ctx *LowerContext) (LowerResult, error) {
			outType := ctx.OutputTypes["value"]
			expr := ctx.IR.Const(outType, ctx.Params["values"])
			return one("value", expr), nil
		},
	}
}

func broadcastDef() *Def {
	return &Def{
		TypeTag:  "Broadcast",
		Inputs:   []InputSpec{{ID: "in", Payload: types.PayloadVariable, StaticCardinality: types.CardinalityVariable}},
		Outputs:  []OutputSpec{{ID: "value", Payload: types.PayloadVariable, StaticCardinality: types.CardinalityVariable}},
		TimeRole: TimeContinuous,
		Lower: func(ctx *LowerContext) (LowerResult, error) {
			outType := ctx.OutputTypes["value"]
			inExpr := ctx.InputExprs["in"]
			inType := ctx.InputTypes["in"]
			expr := inExpr
			if inType.Extent.Cardinality == types.CardinalityOne && outType.Extent.Cardinality == types.CardinalityMany {
				expr = ctx.IR.Broadcast(outType, inExpr)
			}
			return one("value", expr), nil
		},
	}
}

func oscillatorDef() *Def {
	return &Def{
		TypeTag:  "Oscillator",
		Inputs:   []InputSpec{{ID: "phase", Payload: types.PayloadFloat, Unit: types.UnitNorm01, StaticCardinality: types.CardinalityVariable, DefaultAllowed: true, DefaultKind: "rail", DefaultRail: "time.primary"}},
		Outputs:  []OutputSpec{{ID: "value", Payload: types.PayloadFloat, Unit: types.UnitScalar, StaticCardinality: types.CardinalityVariable}},
		TimeRole: TimeContinuous,
		Lower: func(ctx *LowerContext) (LowerResult, error) {
			outType := ctx.OutputTypes["value"]
			waveform, _ := ctx.Params["waveform"].(string)
			if waveform == "" {
				waveform = "oscSin"
			}
			phase := ctx.InputExprs["phase"]
			var expr ir.ExprId
			if outType.Extent.Cardinality == types.CardinalityMany {
				expr = ctx.IR.KernelMap(outType, waveform, phase)
			} else {
				expr = ctx.IR.Opcode(outType, waveform, phase)
			}
			return one("value", expr), nil
		},
	}
}

func hslToRgbaDef() *Def {
	return &Def{
		TypeTag: "HslToRgba",
		Inputs: []InputSpec{
			{ID: "h", Payload: types.PayloadFloat, Unit: types.UnitScalar, StaticCardinality: types.CardinalityVariable},
			{ID: "s", Payload: types.PayloadFloat, Unit: types.UnitScalar, StaticCardinality: types.CardinalityVariable, DefaultAllowed: true, DefaultKind: "const", DefaultValue: float64(1)},
			{ID: "l", Payload: types.PayloadFloat, Unit: types.UnitScalar, StaticCardinality: types.CardinalityVariable, DefaultAllowed: true, DefaultKind: "const", DefaultValue: float64(0.5)},
			{ID: "a", Payload: types.PayloadFloat, Unit: types.UnitScalar, StaticCardinality: types.CardinalityVariable, DefaultAllowed: true, DefaultKind: "const", DefaultValue: float64(1)},
		},
		Outputs:  []OutputSpec{{ID: "color", Payload: types.PayloadColor, Unit: types.UnitRGBA01, StaticCardinality: types.CardinalityVariable}},
		TimeRole: TimeContinuous,
		Lower: func(ctx *LowerContext) (LowerResult, error) {
			outType := ctx.OutputTypes["color"]
			h, s, l, a := ctx.InputExprs["h"], ctx.InputExprs["s"], ctx.InputExprs["l"], ctx.InputExprs["a"]
			var expr ir.ExprId
			if outType.Extent.Cardinality == types.CardinalityMany {
				expr = ctx.IR.KernelZip(outType, "hsvToRgb", h, s, l, a)
			} else {
				expr = ctx.IR.Opcode(outType, "hsvToRgb", h, s, l, a)
			}
			return one("color", expr), nil
		},
	}
}

func adderDef() *Def {
	return &Def{
		TypeTag: "Adder",
		Inputs: []InputSpec{
			{ID: "a", Payload: types.PayloadFloat, Unit: types.UnitScalar, StaticCardinality: types.CardinalityVariable},
			{ID: "b", Payload: types.PayloadFloat, Unit: types.UnitScalar, StaticCardinality: types.CardinalityVariable},
		},
		Outputs:  []OutputSpec{{ID: "sum", Payload: types.PayloadFloat, Unit: types.UnitScalar, StaticCardinality: types.CardinalityVariable}},
		TimeRole: TimeContinuous,
		Lower: func(ctx *LowerContext) (LowerResult, error) {
			outType := ctx.OutputTypes["sum"]
			a, b := ctx.InputExprs["a"], ctx.InputExprs["b"]
			var expr ir.ExprId
			if outType.Extent.Cardinality == types.CardinalityMany {
				expr = ctx.IR.KernelZip(outType, "add", a, b)
			} else {
				expr = ctx.IR.Opcode(outType, "add", a, b)
			}
			return one("sum", expr), nil
		},
	}
}

// unitDelayDef is the stateful primitive that makes feedback legal (spec.md
// Scenario C): output is the state slot's previous-frame value, and a
// Phase-2 step commits the new input value into that same state slot.
func unitDelayDef() *Def {
	return &Def{
		TypeTag:  "UnitDelay",
		Inputs:   []InputSpec{{ID: "in", Payload: types.PayloadFloat, Unit: types.UnitScalar, StaticCardinality: types.CardinalityVariable, DefaultAllowed: true, DefaultKind: "const", DefaultValue: float64(0)}},
		Outputs:  []OutputSpec{{ID: "out", Payload: types.PayloadFloat, Unit: types.UnitScalar, StaticCardinality: types.CardinalityVariable}},
		TimeRole: TimeDiscrete,
		Stateful: true,
		Lower: func(ctx *LowerContext) (LowerResult, error) {
			outType := ctx.OutputTypes["out"]
			stateID := string(ctx.Block.ID) + ".state"
			slot := ctx.AllocStateSlot(schedule.KindF32, stateID, float64(0))
			if ctx.Block.Params == nil {
				ctx.Block.Params = map[string]any{}
			}
			ctx.Block.Params["__stateSlot"] = slot
			readExpr := ctx.IR.StateRead(outType, slot)
			return one("out", readExpr), nil
		},
		Commit: func(ctx *LowerContext) error {
			slot := ctx.Block.Params["__stateSlot"].(int)
			ctx.StepStateWrite(ctx.InputExprs["in"], slot)
			return nil
		},
	}
}

// zipDef models a generic two-input field-cardinality-zipping block used to
// exercise the cardinality solver's "many wins" group resolution (spec.md
// §4.2, Scenario F): both inputs share one zip group and the single output
// mirrors the group's resolved cardinality.
func zipDef() *Def {
	return &Def{
		TypeTag: "Zip",
		Inputs: []InputSpec{
			{ID: "a", Payload: types.PayloadVariable, StaticCardinality: types.CardinalityVariable},
			{ID: "b", Payload: types.PayloadVariable, StaticCardinality: types.CardinalityVariable},
		},
		Outputs:  []OutputSpec{{ID: "out", Payload: types.PayloadVariable, StaticCardinality: types.CardinalityVariable}},
		TimeRole: TimeContinuous,
		Lower: func(ctx *LowerContext) (LowerResult, error) {
			outType := ctx.OutputTypes["out"]
			a, b := ctx.InputExprs["a"], ctx.InputExprs["b"]
			expr := ctx.IR.KernelZip(outType, "add", a, b)
			return one("out", expr), nil
		},
	}
}

// unitAdapterDef is the synthetic block the unit solver inserts on an edge
// whose two concrete units differ but have a known conversion (spec.md
// §4.3 "Concrete-and-different but convertible -> insert an adapter block
// on the offending edge"). Its opcode name is picked at insertion time and
// carried in Params["opcode"], since a single block type covers every
// direction the solver recognizes (turns<->radians, phase<->norm01,
// hsl<->rgba).
func unitAdapterDef() *Def {
	return &Def{
		TypeTag:  "UnitAdapter",
		Inputs:   []InputSpec{{ID: "in", Payload: types.PayloadVariable, StaticCardinality: types.CardinalityVariable}},
		Outputs:  []OutputSpec{{ID: "out", Payload: types.PayloadVariable, StaticCardinality: types.CardinalityVariable}},
		TimeRole: TimeContinuous,
		Lower: func(ctx *LowerContext) (LowerResult, error) {
			outType := ctx.OutputTypes["out"]
			opcode, _ := ctx.Params["opcode"].(string)
			in := ctx.InputExprs["in"]
			many := outType.Extent.Cardinality == types.CardinalityMany

			// Color conversions work on the four packed components rather
			// than the opaque color value the generic scalar opcode table
			// expects a single float64 from; unpack, convert, repack.
			if outType.Payload == types.PayloadColor {
				return one("out", lowerColorAdapter(ctx, outType, opcode, in, many)), nil
			}

			var expr ir.ExprId
			if many {
				expr = ctx.IR.KernelMap(outType, opcode, in)
			} else {
				expr = ctx.IR.Opcode(outType, opcode, in)
			}
			return one("out", expr), nil
		},
	}
}

func lowerColorAdapter(ctx *LowerContext, outType types.CanonicalType, opcode string, in ir.ExprId, many bool) ir.ExprId {
	comp1, comp2, comp3 := "h", "s", "l"
	if opcode == "rgbToHsv" {
		comp1, comp2, comp3 = "r", "g", "b"
	}
	scalarType := types.CanonicalType{Payload: types.PayloadFloat, Unit: types.UnitScalar, Extent: outType.Extent}

	extract := func(name string) ir.ExprId { return ctx.IR.Extract(scalarType, name, in) }
	c1, c2, c3, a := extract(comp1), extract(comp2), extract(comp3), extract("a")

	var out ir.ExprId
	if many {
		out = ctx.IR.KernelZip(outType, opcode, c1, c2, c3, a)
	} else {
		out = ctx.IR.Opcode(outType, opcode, c1, c2, c3, a)
	}
	return out
}

func renderInstances2DDef() *Def {
	return &Def{
		TypeTag: "RenderInstances2D",
		Inputs: []InputSpec{
			{ID: "position", Payload: types.PayloadVec2, StaticCardinality: types.CardinalityVariable, DefaultAllowed: true, DefaultKind: "const", DefaultValue: [2]float64{0, 0}},
			{ID: "color", Payload: types.PayloadColor, StaticCardinality: types.CardinalityVariable, DefaultAllowed: true, DefaultKind: "const", DefaultValue: [4]float64{1, 1, 1, 1}},
			{ID: "size", Payload: types.PayloadFloat, StaticCardinality: types.CardinalityVariable, DefaultAllowed: true, DefaultKind: "const", DefaultValue: float64(0.1)},
			{ID: "rotation", Payload: types.PayloadFloat, StaticCardinality: types.CardinalityVariable, DefaultAllowed: true, DefaultKind: "const", DefaultValue: float64(0)},
		},
		TimeRole: TimeContinuous,
		Lower: func(ctx *LowerContext) (LowerResult, error) {
			// All four inputs were unioned into one cardinality group by
			// the solver (solveCardinality groups a block's
			// variable-cardinality ports together), so checking one port
			// tells us whether this pass renders one static instance or
			// an instance-domain field.
			many := ctx.InputTypes["position"].Extent.Cardinality == types.CardinalityMany
			domainTag := ctx.InputTypes["position"].Extent.DomainTag

			alloc := func(stride int) int {
				if many {
					return ctx.AllocFieldSlot(schedule.KindF32, stride)
				}
				return ctx.AllocValueSlot(schedule.KindF32, stride)
			}
			step := func(expr ir.ExprId, slot int) int {
				if many {
					return ctx.StepMaterialize(expr, slot)
				}
				return ctx.StepEvalSig(expr, slot)
			}

			shapeSlot := ctx.AllocShape2DSlot()
			posSlot := alloc(2)
			colorSlot := alloc(4)
			sizeSlot := alloc(1)
			rotSlot := alloc(1)

			posStep := step(ctx.InputExprs["position"], posSlot)
			colorStep := step(ctx.InputExprs["color"], colorSlot)
			sizeStep := step(ctx.InputExprs["size"], sizeSlot)
			rotStep := step(ctx.InputExprs["rotation"], rotSlot)

			ctx.StepRenderPass(schedule.RenderPassParams{
				ShapeSlot:    shapeSlot,
				PositionSlot: posSlot,
				SizeSlot:     sizeSlot,
				ColorSlot:    colorSlot,
				RotationSlot: rotSlot,
				StyleKey:     string(ctx.Block.ID),
				DomainTag:    domainTag,
				Sorted:       many,
			}, posStep, colorStep, sizeStep, rotStep)

			return LowerResult{}, nil
		},
	}
}
