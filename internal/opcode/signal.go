package opcode

import "math"

// registerSignalKernels installs the domain-specific scalar->scalar
// functions from spec.md §4.8's "signal kernel" table: phase-based
// oscillators, triangle/square/sawtooth, easing, smoothstep/step, and
// deterministic 1-D noise. These are never generic math — oscSin and
// friends take phase in [0,1), not radians.
func registerSignalKernels() {
	unary("oscSin", func(phase float64) float64 { return math.Sin(phase * 2 * math.Pi) })
	unary("oscCos", func(phase float64) float64 { return math.Cos(phase * 2 * math.Pi) })
	unary("oscTan", func(phase float64) float64 { return math.Tan(phase * 2 * math.Pi) })

	unary("triangle", func(phase float64) float64 {
		p := wrapUnit(phase)
		return 1 - math.Abs(4*p-2)
	})
	unary("square", func(phase float64) float64 {
		if wrapUnit(phase) < 0.5 {
			return 1
		}
		return -1
	})
	unary("sawtooth", func(phase float64) float64 { return 2*wrapUnit(phase) - 1 })

	unary("easeInQuad", func(t float64) float64 { t = clamp01(t); return t * t })
	unary("easeOutQuad", func(t float64) float64 { t = clamp01(t); return t * (2 - t) })
	unary("easeInOutQuad", func(t float64) float64 {
		t = clamp01(t)
		if t < 0.5 {
			return 2 * t * t
		}
		return -1 + (4-2*t)*t
	})

	binary("smoothstep", func(edge, x float64) float64 {
		t := clamp01((x - edge) / math.Max(1e-9, 1-edge))
		return t * t * (3 - 2*t)
	})
	binary("step", func(edge, x float64) float64 {
		if x < edge {
			return 0
		}
		return 1
	})

	unary("noise1d", noise1D)
}

func wrapUnit(p float64) float64 {
	r := math.Mod(p, 1)
	if r < 0 {
		r += 1
	}
	return r
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// noise1D is a deterministic hash-based value-noise function: no external
// RNG, no global state, same input always produces the same output,
// matching spec.md §9's determinism requirement for render-hot code.
func noise1D(x float64) float64 {
	i := math.Floor(x)
	f := x - i
	a := hashFloat(i)
	b := hashFloat(i + 1)
	t := f * f * (3 - 2*f)
	return a + (b-a)*t
}

func hashFloat(x float64) float64 {
	h := uint32(math.Float64bits(x))
	h ^= h >> 16
	h *= 0x7feb352d
	h ^= h >> 15
	h *= 0x846ca68b
	h ^= h >> 16
	return float64(h)/float64(^uint32(0)) * 2 - 1
}
