package field

import (
	"fmt"

	"github.com/sarchlab/zeonica-animator/internal/ir"
	"github.com/sarchlab/zeonica-animator/internal/opcode"
	"github.com/sarchlab/zeonica-animator/internal/types"
)

// ValueEvaler resolves a FamilyValue (per-frame scalar/vector) expression to
// its current-frame float64 components. It is supplied by whatever drives
// the two-phase executor (internal/runtime), since evaluating a ValueExpr
// may need slot-bank/state-bank access that this package does not own.
type ValueEvaler interface {
	EvalValue(id ir.ExprId) ([]float64, error)
}

// Materializer implements spec.md §4.10: for each materialize step, look up
// the ExprId in the cache; on a miss, evaluate bottom-up (intrinsics first,
// then kernels), pulling buffers from the pool, then stamp and cache the
// result.
type Materializer struct {
	IR         *ir.Builder
	Cache      *Cache
	Pool       *BufferPool
	Values     ValueEvaler
	DomainSize func(domainTag string) int
}

// Materialize returns the buffer and stride for id at frameStamp, computing
// it if not already cached for this frame.
func (m *Materializer) Materialize(id ir.ExprId, frameStamp int64) ([]float64, int, error) {
	node := m.IR.Node(id)
	stride := types.StrideOf(node.Type.Payload)

	if buf, ok := m.Cache.Get(id, frameStamp); ok {
		return buf, stride, nil
	}

	n := m.DomainSize(node.Type.Extent.DomainTag)
	out := m.Pool.Get(n * stride)

	if err := m.eval(node, out, stride, n, frameStamp); err != nil {
		m.Pool.Put(out)
		return nil, 0, err
	}

	deps := m.IR.DependenciesOf(id)
	m.Cache.Put(id, out, stride, frameStamp, deps)
	m.Cache.Evict(m.Pool)
	return out, stride, nil
}

func (m *Materializer) eval(node ir.Expr, out []float64, stride, n int, frameStamp int64) error {
	switch node.Op {
	case ir.OpIntrinsic:
		return m.evalIntrinsic(node, out, n)

	case ir.OpBroadcast:
		vals, err := m.Values.EvalValue(node.Children[0])
		if err != nil {
			return err
		}
		for k := 0; k < n; k++ {
			copy(out[k*stride:(k+1)*stride], vals)
		}
		return nil

	case ir.OpKernelMap, ir.OpKernelZip:
		args, err := m.resolveArgs(node.Children, n, frameStamp)
		if err != nil {
			return err
		}
		// KernelMap/KernelZip apply a scalar opcode per lane when the name
		// names a signal/opcode-table entry (spec.md §4.8's "exactly one
		// opcode definition per behavior" — the same oscSin used by a
		// one-cardinality Oscillator lowers to the same name here). Names
		// that don't fit a single float64 result (hsvToRgb, rgbToHsv,
		// combine_layer) fall back to the field-only kernel table.
		if opcode.Known(string(node.Name)) {
			for k := 0; k < n; k++ {
				scalarArgs := make([]float64, len(args))
				for i, a := range args {
					scalarArgs[i] = a.at(k, 0)
				}
				v, err := opcode.Eval(string(node.Name), scalarArgs...)
				if err != nil {
					return err
				}
				out[k*stride] = v
			}
			return nil
		}
		kernel, ok := Lookup(string(node.Name))
		if !ok {
			return fmt.Errorf("field: opcode/kernel %q is registered in neither the signal evaluator nor the field dispatcher", node.Name)
		}
		return kernel(out, stride, n, args)

	case ir.OpLayoutKernel:
		kernel, ok := Lookup(string(node.Name))
		if !ok {
			return fmt.Errorf("field: unknown layout kernel %q", node.Name)
		}
		args, err := m.resolveArgs(node.Children, n, frameStamp)
		if err != nil {
			return err
		}
		return kernel(out, stride, n, args)

	case ir.OpConstruct:
		args, err := m.resolveArgs(node.Children, n, frameStamp)
		if err != nil {
			return err
		}
		for k := 0; k < n; k++ {
			for c, a := range args {
				out[k*stride+c] = a.at(k, 0)
			}
		}
		return nil

	case ir.OpExtract:
		childStride := types.StrideOf(m.IR.Node(node.Children[0]).Type.Payload)
		buf, _, err := m.Materialize(node.Children[0], frameStamp)
		if err != nil {
			return err
		}
		c := componentIndex(node.Name)
		if c >= childStride {
			c = childStride - 1
		}
		for k := 0; k < n; k++ {
			out[k] = buf[k*childStride+c]
		}
		return nil

	default:
		return fmt.Errorf("field: op %q is not a field-evaluable node", node.Op)
	}
}

func (m *Materializer) evalIntrinsic(node ir.Expr, out []float64, n int) error {
	name, _ := splitIntrinsicName(string(node.Name))
	switch name {
	case "index":
		for k := 0; k < n; k++ {
			out[k] = float64(k)
		}
	case "normalizedIndex":
		for k := 0; k < n; k++ {
			if n > 1 {
				out[k] = float64(k) / float64(n-1)
			} else {
				out[k] = 0
			}
		}
	case "randomId":
		for k := 0; k < n; k++ {
			out[k] = hashFloatField(float64(k) + 0.5)
		}
	default:
		return fmt.Errorf("field: unknown intrinsic %q", name)
	}
	return nil
}

func splitIntrinsicName(tagged string) (name, domain string) {
	for i := 0; i < len(tagged); i++ {
		if tagged[i] == '@' {
			return tagged[:i], tagged[i+1:]
		}
	}
	return tagged, ""
}

// resolveArgs materializes field children recursively and wraps FamilyValue
// children (signal inputs broadcast into a field kernel, e.g. a radius
// parameter) as single-lane Args.
func (m *Materializer) resolveArgs(children []ir.ExprId, n int, frameStamp int64) ([]Arg, error) {
	args := make([]Arg, len(children))
	for i, c := range children {
		childNode := m.IR.Node(c)
		if childNode.Family == ir.FamilyField {
			buf, stride, err := m.Materialize(c, frameStamp)
			if err != nil {
				return nil, err
			}
			args[i] = Arg{Buf: buf, Stride: stride}
			continue
		}
		vals, err := m.Values.EvalValue(c)
		if err != nil {
			return nil, err
		}
		args[i] = Arg{Buf: vals, Stride: len(vals)}
	}
	return args, nil
}

func componentIndex(name string) int {
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
