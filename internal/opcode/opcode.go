// Package opcode implements the scalar math and signal-kernel dispatcher
// from spec.md §4.8: one table-driven evaluator for every opcode name the
// IR can reference, shared verbatim between the signal evaluator and the
// field kernel-map/kernel-zip evaluator so the two can never disagree.
// Grounded on the teacher's core/emu.go `instFuncs` dispatch map (opcode
// name -> func(*Core, Instruction)), generalized from a fixed CGRA ISA to
// an open, arity-checked scalar function table.
package opcode

import (
	"fmt"
	"math"
)

// Fn evaluates one opcode over already-resolved float64 operands.
type Fn func(args ...float64) (float64, error)

// Arity describes how many operands an opcode accepts. Min == Max for
// fixed-arity opcodes; Max == -1 for variadic ones.
type Arity struct {
	Min int
	Max int // -1 means unbounded
}

type entry struct {
	arity Arity
	fn    Fn
}

var table = map[string]entry{}

func register(name string, arity Arity, fn Fn) {
	if _, exists := table[name]; exists {
		panic(fmt.Sprintf("opcode %q already registered", name))
	}
	table[name] = entry{arity: arity, fn: fn}
}

// Eval dispatches by name, enforcing the opcode's declared arity exactly —
// "exact arity enforced" per spec.md §4.8.
func Eval(name string, args ...float64) (float64, error) {
	e, ok := table[name]
	if !ok {
		return 0, fmt.Errorf("opcode: unknown opcode %q", name)
	}
	if len(args) < e.arity.Min || (e.arity.Max >= 0 && len(args) > e.arity.Max) {
		return 0, fmt.Errorf("opcode: %q called with %d args, want [%d,%d]", name, len(args), e.arity.Min, e.arity.Max)
	}
	return e.fn(args...)
}

// Known reports whether an opcode name is registered, for the
// cross-evaluator coverage check in field's kernel dispatcher.
func Known(name string) bool {
	_, ok := table[name]
	return ok
}

// Names returns every registered opcode name, in no defined order.
func Names() []string {
	names := make([]string, 0, len(table))
	for n := range table {
		names = append(names, n)
	}
	return names
}

func unary(name string, f func(float64) float64) {
	register(name, Arity{1, 1}, func(args ...float64) (float64, error) { return f(args[0]), nil })
}

func binary(name string, f func(a, b float64) float64) {
	register(name, Arity{2, 2}, func(args ...float64) (float64, error) { return f(args[0], args[1]), nil })
}

func ternary(name string, f func(a, b, c float64) float64) {
	register(name, Arity{3, 3}, func(args ...float64) (float64, error) { return f(args[0], args[1], args[2]), nil })
}

func variadic(name string, identity float64, f func(acc, next float64) float64) {
	register(name, Arity{1, -1}, func(args ...float64) (float64, error) {
		acc := args[0]
		for _, a := range args[1:] {
			acc = f(acc, a)
		}
		return acc, nil
	})
	_ = identity
}

func init() {
	// Unary (spec.md §4.8).
	unary("neg", func(a float64) float64 { return -a })
	unary("abs", math.Abs)
	unary("sin", math.Sin)
	unary("cos", math.Cos)
	unary("tan", math.Tan)
	unary("wrap01", func(a float64) float64 {
		r := math.Mod(a, 1)
		if r < 0 {
			r += 1
		}
		return r
	})
	unary("floor", math.Floor)
	unary("ceil", math.Ceil)
	unary("round", math.Round)
	unary("fract", func(a float64) float64 { return a - math.Floor(a) })
	unary("sqrt", math.Sqrt)
	unary("exp", math.Exp)
	unary("log", math.Log)
	unary("sign", func(a float64) float64 {
		switch {
		case a > 0:
			return 1
		case a < 0:
			return -1
		default:
			return 0
		}
	})

	// Binary.
	binary("sub", func(a, b float64) float64 { return a - b })
	binary("div", func(a, b float64) float64 {
		if b == 0 {
			return 0
		}
		return a / b
	})
	binary("mod", func(a, b float64) float64 {
		if b == 0 {
			return 0
		}
		return math.Mod(a, b)
	})
	binary("pow", math.Pow)
	binary("hash", func(a, b float64) float64 {
		h := uint32(math.Float64bits(a)) ^ uint32(math.Float64bits(b)<<1)
		h ^= h >> 13
		h *= 0x5bd1e995
		h ^= h >> 15
		return float64(h%1000000) / 1000000
	})

	// Ternary.
	ternary("clamp", func(v, lo, hi float64) float64 {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	})
	ternary("lerp", func(a, b, t float64) float64 { return a + (b-a)*t })

	// Variadic.
	variadic("add", 0, func(acc, next float64) float64 { return acc + next })
	variadic("mul", 1, func(acc, next float64) float64 { return acc * next })
	variadic("min", math.Inf(1), math.Min)
	variadic("max", math.Inf(-1), math.Max)

	registerSignalKernels()
	registerCombineKernels()
	registerUnitAdapters()
}
