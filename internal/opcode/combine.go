package opcode

import "math"

// registerCombineKernels installs the combine_{sum,average,max,min,last}
// family used by multi-writer input ports (spec.md §4.8). Unlike the
// generic variadic opcodes, these accept zero arguments — a port with no
// writers still needs a well-defined value — with the identities spec.md
// names: sum=0, average=0, max=-inf, min=+inf, last=0.
func registerCombineKernels() {
	register("combine_sum", Arity{0, -1}, func(args ...float64) (float64, error) {
		sum := 0.0
		for _, a := range args {
			sum += a
		}
		return sum, nil
	})
	register("combine_average", Arity{0, -1}, func(args ...float64) (float64, error) {
		if len(args) == 0 {
			return 0, nil
		}
		sum := 0.0
		for _, a := range args {
			sum += a
		}
		return sum / float64(len(args)), nil
	})
	register("combine_max", Arity{0, -1}, func(args ...float64) (float64, error) {
		m := math.Inf(-1)
		for _, a := range args {
			m = math.Max(m, a)
		}
		return m, nil
	})
	register("combine_min", Arity{0, -1}, func(args ...float64) (float64, error) {
		m := math.Inf(1)
		for _, a := range args {
			m = math.Min(m, a)
		}
		return m, nil
	})
	register("combine_last", Arity{0, -1}, func(args ...float64) (float64, error) {
		if len(args) == 0 {
			return 0, nil
		}
		return args[len(args)-1], nil
	})

	// combine_or/combine_and operate on bool payloads stored as 0/1
	// float64; combine_layer (color-only alpha compositing) needs
	// multi-component access and lives in internal/field's kernel
	// dispatcher instead, not this scalar table.
	register("combine_or", Arity{0, -1}, func(args ...float64) (float64, error) {
		for _, a := range args {
			if a != 0 {
				return 1, nil
			}
		}
		return 0, nil
	})
	register("combine_and", Arity{0, -1}, func(args ...float64) (float64, error) {
		for _, a := range args {
			if a == 0 {
				return 0, nil
			}
		}
		if len(args) == 0 {
			return 1, nil
		}
		return 1, nil
	})
}
