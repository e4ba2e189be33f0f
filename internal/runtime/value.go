package runtime

import (
	"fmt"

	"github.com/sarchlab/zeonica-animator/internal/field"
	"github.com/sarchlab/zeonica-animator/internal/ir"
	"github.com/sarchlab/zeonica-animator/internal/opcode"
	"github.com/sarchlab/zeonica-animator/internal/types"
)

// valueEvaluator evaluates FamilyValue expressions (per-frame scalars and
// small fixed-size vectors/colors) against one frame's RuntimeState. It
// memoizes per call to Tick so a shared subexpression referenced from
// multiple steps is computed once, mirroring the hash-consing guarantee
// that identical subtrees share one ExprId.
type valueEvaluator struct {
	rs    *RuntimeState
	memo  map[ir.ExprId][]float64
}

func newValueEvaluator(rs *RuntimeState) *valueEvaluator {
	return &valueEvaluator{rs: rs, memo: make(map[ir.ExprId][]float64)}
}

// EvalValue implements field.ValueEvaler, letting the field materializer
// resolve a signal child (e.g. a Broadcast source, or a scalar parameter
// feeding a layout kernel) through the same evaluator the executor uses
// for StepEvaluateSignal.
func (v *valueEvaluator) EvalValue(id ir.ExprId) ([]float64, error) {
	return v.eval(id)
}

func (v *valueEvaluator) eval(id ir.ExprId) ([]float64, error) {
	if buf, ok := v.memo[id]; ok {
		return buf, nil
	}
	node := v.rs.Program.IR.Node(id)
	stride := types.StrideOf(node.Type.Payload)

	var out []float64
	var err error
	switch node.Op {
	case ir.OpConst:
		out, err = constComponents(node.Literal, stride)

	case ir.OpSlotRead:
		out, err = v.rs.ReadF32(node.SlotID, stride)
		if err == nil {
			cp := make([]float64, stride)
			copy(cp, out)
			out = cp
		}

	case ir.OpStateRead:
		out, err = v.rs.ReadF32(node.SlotID, stride)
		if err == nil {
			cp := make([]float64, stride)
			copy(cp, out)
			out = cp
		}

	case ir.OpOpcode:
		out, err = v.evalOpcode(node, stride)

	case ir.OpConstruct:
		out = make([]float64, stride)
		for i, c := range node.Children {
			cv, e := v.eval(c)
			if e != nil {
				return nil, e
			}
			if i < stride {
				out[i] = cv[0]
			}
		}

	case ir.OpExtract:
		src, e := v.eval(node.Children[0])
		if e != nil {
			return nil, e
		}
		childStride := types.StrideOf(v.rs.Program.IR.Node(node.Children[0]).Type.Payload)
		c := componentIndexOf(node.Name)
		if c >= childStride {
			c = childStride - 1
		}
		out = []float64{src[c]}

	case ir.OpShapeRef:
		out = []float64{float64(node.SlotID)}

	default:
		return nil, fmt.Errorf("runtime: op %q is not a value-evaluable node", node.Op)
	}
	if err != nil {
		return nil, err
	}
	v.memo[id] = out
	return out, nil
}

func (v *valueEvaluator) evalOpcode(node ir.Expr, stride int) ([]float64, error) {
	args := make([]float64, len(node.Children))
	for i, c := range node.Children {
		cv, err := v.eval(c)
		if err != nil {
			return nil, err
		}
		args[i] = cv[0]
	}
	if opcode.Known(string(node.Name)) {
		r, err := opcode.Eval(string(node.Name), args...)
		if err != nil {
			return nil, err
		}
		return []float64{r}, nil
	}
	// Multi-component result (e.g. hsvToRgb) not expressible as a single
	// opcode.Fn return; the field package's kernel table owns it.
	kernel, ok := field.Lookup(string(node.Name))
	if !ok {
		return nil, fmt.Errorf("runtime: opcode/kernel %q is registered in neither table", node.Name)
	}
	kernelArgs := make([]field.Arg, len(args))
	for i, a := range args {
		kernelArgs[i] = field.Arg{Buf: []float64{a}, Stride: 1}
	}
	out := make([]float64, stride)
	if err := kernel(out, stride, 1, kernelArgs); err != nil {
		return nil, err
	}
	return out, nil
}

func constComponents(literal any, stride int) ([]float64, error) {
	switch lit := literal.(type) {
	case float64:
		return []float64{lit}, nil
	case int:
		return []float64{float64(lit)}, nil
	case [2]float64:
		return []float64{lit[0], lit[1]}, nil
	case [3]float64:
		return []float64{lit[0], lit[1], lit[2]}, nil
	case [4]float64:
		return []float64{lit[0], lit[1], lit[2], lit[3]}, nil
	default:
		return nil, fmt.Errorf("runtime: unsupported const literal %T", literal)
	}
}

func componentIndexOf(name string) int {
	switch name {
	case "x", "r", "h":
		return 0
	case "y", "g", "s":
		return 1
	case "z", "b", "l":
		return 2
	case "w", "a":
		return 3
	default:
		return 0
	}
}
