// Package continuity implements the continuity subsystem (spec.md §4.12):
// a per-target state machine that preserves an instance's apparent value
// across graph edits and element-set changes, using internal/lanemap to
// decide which old lane a new lane inherits from. Grounded on the
// teacher's core/builder.go per-device state bookkeeping (stable ids
// surviving a rebuild), generalized from "rebuild preserves device wiring"
// to "recompile/element-count-change preserves apparent animation state."
package continuity

import (
	"fmt"

	"github.com/sarchlab/zeonica-animator/internal/diag"
	"github.com/sarchlab/zeonica-animator/internal/lanemap"
	"github.com/sarchlab/zeonica-animator/internal/opcode"
)

// Policy is one of the five continuity policies named in spec.md §4.12.
type Policy string

const (
	PolicyNone      Policy = "none"
	PolicyPreserve  Policy = "preserve"
	PolicySlew      Policy = "slew"
	PolicyProject   Policy = "project"
	PolicyCrossfade Policy = "crossfade"
)

// Params carries one continuity-apply step's configuration.
type Params struct {
	TargetID        string
	Policy          Policy
	SlewRate        float64 // per-millisecond decay constant for slew/project
	CrossfadeWindow float64 // milliseconds
	EasingCurve     string  // an opcode/signal.go easing name, or "" for linear
	IdentityMode    lanemap.Mode
	DupPolicy       lanemap.DuplicatePolicy
	Stride          int
}

// state is the per-target bookkeeping named in spec.md's "RuntimeState ...
// continuity map keyed by stable TargetId."
type state struct {
	base         []float64
	slew         []float64 // "effective" as of the last committed frame
	gauge        []float64
	prevIdentity []string
	elapsedMs    float64
	hasState     bool
}

// Manager owns every target's continuity state for one RuntimeState.
type Manager struct {
	targets map[string]*state
	hub     *diag.Hub
}

func NewManager(hub *diag.Hub) *Manager {
	return &Manager{targets: make(map[string]*state), hub: hub}
}

// Apply runs the six-step algorithm in spec.md §4.12 for one target this
// frame and returns the new effective buffer (also stored as the target's
// slewBuf for next frame's oldEffective).
func (m *Manager) Apply(p Params, base []float64, identity []string, domainChangeThisFrame bool, frameDeltaMs float64) ([]float64, error) {
	if p.Stride <= 0 {
		return nil, fmt.Errorf("continuity: target %q has non-positive stride %d", p.TargetID, p.Stride)
	}
	newN := len(identity)
	if len(base) != newN*p.Stride {
		return nil, fmt.Errorf("continuity: target %q base buffer length %d does not match newN*stride %d", p.TargetID, len(base), newN*p.Stride)
	}

	st, existed := m.targets[p.TargetID]
	if !existed {
		st = &state{}
		m.targets[p.TargetID] = st
	}

	// Step 1: capture pre-allocation snapshot before the buffers below are
	// resized to the new lane count.
	sizeChanged := !existed || len(st.slew) != len(base)
	var oldEffective []float64
	if sizeChanged && st.hasState {
		oldEffective = append([]float64(nil), st.slew...)
	} else if st.hasState {
		oldEffective = st.slew
	}

	// Step 2: allocate target buffers for the new lane count.
	newBase := append([]float64(nil), base...)
	newSlew := make([]float64, len(base))
	newGauge := make([]float64, len(base))
	if !st.hasState {
		copy(newSlew, newBase)
		// gauge stays zero: a brand new target has no prior apparent value.
	}

	// Step 3: ask the lane-mapping service for a newN mapping.
	mapping := lanemap.Map(st.prevIdentity, identity, p.IdentityMode, p.DupPolicy, diag.TargetRef{BlockID: p.TargetID}, m.hub)

	if mapping.ModeUsed == "resetAll" {
		copy(newSlew, newBase)
		st.base, st.slew, st.gauge = newBase, newSlew, newGauge
		st.prevIdentity = append([]string(nil), identity...)
		st.elapsedMs = 0
		st.hasState = true
		return st.slew, nil
	}

	// Step 4: initialize gauge on domain change, unless crossfade (which
	// computes its own blend instead of an additive gauge).
	if domainChangeThisFrame && p.Policy != PolicyCrossfade && st.hasState {
		for k := 0; k < newN; k++ {
			oldIdx := mapping.NewToOld[k]
			if oldIdx < 0 {
				continue
			}
			for c := 0; c < p.Stride; c++ {
				oe := oldEffective[int(oldIdx)*p.Stride+c]
				newGauge[k*p.Stride+c] = oe - newBase[k*p.Stride+c]
			}
		}
	} else if st.hasState && !sizeChanged {
		// Lane count unchanged: carry the existing gauge forward untouched
		// (it keeps decaying every frame via the policy step below).
		copy(newGauge, st.gauge)
	}
	if domainChangeThisFrame {
		st.elapsedMs = frameDeltaMs
	} else {
		st.elapsedMs += frameDeltaMs
	}

	effective := make([]float64, len(base))

	switch p.Policy {
	case PolicyNone:
		copy(effective, newBase)

	case PolicyPreserve:
		for k := 0; k < newN; k++ {
			oldIdx := mapping.NewToOld[k]
			if oldIdx >= 0 && oldEffective != nil {
				copy(effective[k*p.Stride:(k+1)*p.Stride], oldEffective[int(oldIdx)*p.Stride:(int(oldIdx)+1)*p.Stride])
			} else {
				copy(effective[k*p.Stride:(k+1)*p.Stride], newBase[k*p.Stride:(k+1)*p.Stride])
			}
		}

	case PolicySlew, PolicyProject:
		decay := decayFactor(p.SlewRate, frameDeltaMs)
		for i := range effective {
			effective[i] = newBase[i] + newGauge[i]
			newGauge[i] *= decay
		}

	case PolicyCrossfade:
		t := clamp01(st.elapsedMs / maxFloat(p.CrossfadeWindow, 1))
		blend := ease(p.EasingCurve, t)
		for k := 0; k < newN; k++ {
			oldIdx := mapping.NewToOld[k]
			if oldIdx < 0 || oldEffective == nil {
				copy(effective[k*p.Stride:(k+1)*p.Stride], newBase[k*p.Stride:(k+1)*p.Stride])
				continue
			}
			for c := 0; c < p.Stride; c++ {
				from := oldEffective[int(oldIdx)*p.Stride+c]
				to := newBase[k*p.Stride+c]
				effective[k*p.Stride+c] = from + (to-from)*blend
			}
		}

	default:
		return nil, fmt.Errorf("continuity: unknown policy %q", p.Policy)
	}

	// Step 6: store and advance.
	st.base = newBase
	st.slew = effective
	st.gauge = newGauge
	st.prevIdentity = append([]string(nil), identity...)
	st.hasState = true

	return effective, nil
}

func decayFactor(ratePerMs, deltaMs float64) float64 {
	if ratePerMs <= 0 {
		return 1
	}
	k := 1 - ratePerMs*deltaMs
	if k < 0 {
		return 0
	}
	if k > 1 {
		return 1
	}
	return k
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

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func ease(curve string, t float64) float64 {
	if curve == "" {
		return t
	}
	if opcode.Known(curve) {
		v, err := opcode.Eval(curve, t)
		if err == nil {
			return v
		}
	}
	return t
}
