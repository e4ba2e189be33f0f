package field

import "math"

// Arg is one kernel input: a packed buffer of n*stride float64s. A
// broadcast signal value (cardinality one fed into a field kernel) is
// represented with a single lane — lane reads beyond index 0 wrap back to
// it, so kernels never special-case broadcast inputs.
type Arg struct {
	Buf    []float64
	Stride int
}

func (a Arg) lanes() int {
	if a.Stride == 0 {
		return 0
	}
	return len(a.Buf) / a.Stride
}

// at returns component c of lane k, broadcasting lane 0 if the arg has
// fewer lanes than the output (a signal input to a field kernel).
func (a Arg) at(k, c int) float64 {
	n := a.lanes()
	if n == 0 {
		return 0
	}
	if k >= n {
		k = 0
	}
	if c >= a.Stride {
		c = a.Stride - 1
	}
	return a.Buf[k*a.Stride+c]
}

// Kernel computes n lanes of outStride-wide output into out (already sized
// n*outStride) from the given args. Kernels are coord-space agnostic per
// spec.md §4.9: what a coordinate means is declared by the block, not the
// kernel.
type Kernel func(out []float64, outStride, n int, args []Arg) error

var kernels = map[string]Kernel{}

func registerKernel(name string, k Kernel) {
	kernels[name] = k
}

// Lookup returns the kernel registered under name, for the materializer.
func Lookup(name string) (Kernel, bool) {
	k, ok := kernels[name]
	return k, ok
}

func init() {
	// makeVec2/makeVec3 write stride-N output filling missing components
	// with 0, per spec.md §4.9's position-construction note.
	registerKernel("makeVec2", func(out []float64, outStride, n int, args []Arg) error {
		for k := 0; k < n; k++ {
			out[k*outStride+0] = argAt(args, 0, k, 0)
			out[k*outStride+1] = argAt(args, 1, k, 0)
		}
		return nil
	})
	registerKernel("makeVec3", func(out []float64, outStride, n int, args []Arg) error {
		for k := 0; k < n; k++ {
			out[k*outStride+0] = argAt(args, 0, k, 0)
			out[k*outStride+1] = argAt(args, 1, k, 0)
			out[k*outStride+2] = argAt(args, 2, k, 0)
		}
		return nil
	})

	registerKernel("hsvToRgb", func(out []float64, outStride, n int, args []Arg) error {
		for k := 0; k < n; k++ {
			h := args[0].at(k, 0)
			s := args[1].at(k, 0)
			v := args[2].at(k, 0)
			a := 1.0
			if len(args) > 3 {
				a = args[3].at(k, 0)
			}
			r, g, b := hsvToRgb(h, s, v)
			out[k*outStride+0] = r
			out[k*outStride+1] = g
			out[k*outStride+2] = b
			out[k*outStride+3] = a
		}
		return nil
	})
	registerKernel("rgbToHsv", func(out []float64, outStride, n int, args []Arg) error {
		for k := 0; k < n; k++ {
			r := args[0].at(k, 0)
			g := args[1].at(k, 0)
			b := args[2].at(k, 0)
			a := 1.0
			if len(args) > 3 {
				a = args[3].at(k, 0)
			}
			h, s, v := rgbToHsv(r, g, b)
			out[k*outStride+0] = h
			out[k*outStride+1] = s
			out[k*outStride+2] = v
			out[k*outStride+3] = a
		}
		return nil
	})

	registerKernel("polarToCartesian", func(out []float64, outStride, n int, args []Arg) error {
		for k := 0; k < n; k++ {
			radius := args[0].at(k, 0)
			angle := args[1].at(k, 0)
			out[k*outStride+0] = radius * math.Cos(angle)
			out[k*outStride+1] = radius * math.Sin(angle)
			if outStride > 2 {
				out[k*outStride+2] = 0
			}
		}
		return nil
	})

	// circleLayout produces stride-3 world position with z=0 explicitly
	// written — zero-init of output buffers is never assumed (spec.md
	// §4.9).
	registerKernel("circleLayout", func(out []float64, outStride, n int, args []Arg) error {
		radius := args[0].at(0, 0)
		for k := 0; k < n; k++ {
			theta := 2 * math.Pi * float64(k) / float64(n)
			out[k*outStride+0] = radius * math.Cos(theta)
			out[k*outStride+1] = radius * math.Sin(theta)
			out[k*outStride+2] = 0
		}
		return nil
	})

	registerKernel("lineLayout", func(out []float64, outStride, n int, args []Arg) error {
		start := args[0].at(0, 0)
		end := args[1].at(0, 0)
		for k := 0; k < n; k++ {
			t := 0.0
			if n > 1 {
				t = float64(k) / float64(n-1)
			}
			out[k*outStride+0] = start + (end-start)*t
			out[k*outStride+1] = 0
			out[k*outStride+2] = 0
		}
		return nil
	})

	registerKernel("gridLayout", func(out []float64, outStride, n int, args []Arg) error {
		cols := int(args[0].at(0, 0))
		spacing := args[1].at(0, 0)
		if cols < 1 {
			cols = 1
		}
		for k := 0; k < n; k++ {
			row := k / cols
			col := k % cols
			out[k*outStride+0] = float64(col) * spacing
			out[k*outStride+1] = float64(row) * spacing
			out[k*outStride+2] = 0
		}
		return nil
	})

	registerKernel("polygonVertex", func(out []float64, outStride, n int, args []Arg) error {
		sides := args[0].at(0, 0)
		radius := args[1].at(0, 0)
		if sides < 3 {
			sides = 3
		}
		for k := 0; k < n; k++ {
			theta := 2 * math.Pi * float64(k) / sides
			out[k*outStride+0] = radius * math.Cos(theta)
			out[k*outStride+1] = radius * math.Sin(theta)
			out[k*outStride+2] = 0
		}
		return nil
	})

	registerKernel("jitter2d", func(out []float64, outStride, n int, args []Arg) error {
		amount := args[1].at(0, 0)
		for k := 0; k < n; k++ {
			x := args[0].at(k, 0)
			y := args[0].at(k, 1)
			dx := (hashFloatField(float64(k)*2+0.5) - 0.5) * 2 * amount
			dy := (hashFloatField(float64(k)*2+1.5) - 0.5) * 2 * amount
			out[k*outStride+0] = x + dx
			out[k*outStride+1] = y + dy
			if outStride > 2 {
				out[k*outStride+2] = args[0].at(k, 2)
			}
		}
		return nil
	})

	registerKernel("attract2d", func(out []float64, outStride, n int, args []Arg) error {
		cx := args[1].at(0, 0)
		cy := args[1].at(0, 1)
		strength := args[2].at(0, 0)
		for k := 0; k < n; k++ {
			x := args[0].at(k, 0)
			y := args[0].at(k, 1)
			out[k*outStride+0] = x + (cx-x)*strength
			out[k*outStride+1] = y + (cy-y)*strength
			if outStride > 2 {
				out[k*outStride+2] = args[0].at(k, 2)
			}
		}
		return nil
	})

	// fieldGoldenAngle spaces n lanes by the golden angle, a common
	// even-ish radial distribution for instance fields.
	registerKernel("fieldGoldenAngle", func(out []float64, outStride, n int, args []Arg) error {
		const goldenAngle = 2.39996322972865332 // radians
		scale := 1.0
		if len(args) > 0 {
			scale = args[0].at(0, 0)
		}
		for k := 0; k < n; k++ {
			theta := goldenAngle * float64(k)
			r := scale * math.Sqrt(float64(k)+0.5)
			out[k*outStride+0] = r * math.Cos(theta)
			out[k*outStride+1] = r * math.Sin(theta)
			out[k*outStride+2] = 0
		}
		return nil
	})

	registerKernel("applyOpacity", func(out []float64, outStride, n int, args []Arg) error {
		for k := 0; k < n; k++ {
			out[k*outStride+0] = args[0].at(k, 0)
			out[k*outStride+1] = args[0].at(k, 1)
			out[k*outStride+2] = args[0].at(k, 2)
			out[k*outStride+3] = args[0].at(k, 3) * args[1].at(k, 0)
		}
		return nil
	})

	// combine_layer composites N color-writer inputs back to front via
	// standard alpha-over; it needs all four components at once, which is
	// why it lives here rather than in the scalar opcode table (see
	// internal/opcode's note on combine_or/combine_and).
	registerKernel("combine_layer", func(out []float64, outStride, n int, args []Arg) error {
		for k := 0; k < n; k++ {
			r, g, b, a := 0.0, 0.0, 0.0, 0.0
			for _, arg := range args {
				sr, sg, sb, sa := arg.at(k, 0), arg.at(k, 1), arg.at(k, 2), arg.at(k, 3)
				r = sr*sa + r*(1-sa)
				g = sg*sa + g*(1-sa)
				b = sb*sa + b*(1-sa)
				a = sa + a*(1-sa)
			}
			out[k*outStride+0] = r
			out[k*outStride+1] = g
			out[k*outStride+2] = b
			out[k*outStride+3] = a
		}
		return nil
	})
}

func argAt(args []Arg, idx, k, c int) float64 {
	if idx >= len(args) {
		return 0
	}
	return args[idx].at(k, c)
}

func hsvToRgb(h, s, v float64) (r, g, b float64) {
	h = math.Mod(h, 1)
	if h < 0 {
		h += 1
	}
	i := math.Floor(h * 6)
	f := h*6 - i
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)
	switch int(i) % 6 {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}

func rgbToHsv(r, g, b float64) (h, s, v float64) {
	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	v = max
	d := max - min
	if max == 0 {
		s = 0
	} else {
		s = d / max
	}
	if d == 0 {
		h = 0
		return
	}
	switch max {
	case r:
		h = math.Mod((g-b)/d, 6)
	case g:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}
	h /= 6
	if h < 0 {
		h += 1
	}
	return
}

// hashFloatField uses the same bit-mixing steps as internal/opcode's
// unexported hashFloat (behind noise1d), kept as a private copy here; unlike
// that one, it maps the hash to [0,1] rather than [-1,1]. The coverage
// check in coverage.go keeps the two tables from registering the same name.
func hashFloatField(x float64) float64 {
	h := uint32(math.Float64bits(x))
	h ^= h >> 16
	h *= 0x7feb352d
	h ^= h >> 15
	h *= 0x846ca68b
	h ^= h >> 16
	return float64(h) / float64(^uint32(0))
}
