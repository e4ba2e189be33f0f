// Package lanemap implements the lane-mapping service shared by the
// continuity subsystem and stateful primitives (spec.md §4.13): given an
// old and new per-lane identity vector, decide for each new lane which old
// lane (if any) it corresponds to, so migration can copy, not reset, state
// across an element-set change. Grounded on the teacher's core/builder.go
// id-keyed register lookup (a map from a stable name to an index),
// generalized from a one-time build-time lookup to a per-frame
// previous/current reconciliation.
package lanemap

import "github.com/sarchlab/zeonica-animator/internal/diag"

// Mode is the identity-matching strategy named in spec.md §4.13.
type Mode string

const (
	ModeByID    Mode = "byId"
	ModeByIndex Mode = "byIndex"
	ModeNone    Mode = "none"
)

// DuplicatePolicy controls what happens when the identity vector itself is
// malformed (duplicate or empty ids).
type DuplicatePolicy string

const (
	PolicyStrict  DuplicatePolicy = "strict"
	PolicyLenient DuplicatePolicy = "lenient"
)

// Result is the lane-mapping service's output: newToOld[k] is the old-lane
// index lane k inherits from, or -1 if unmatched.
type Result struct {
	NewToOld         []int32
	ModeUsed         Mode
	Matched          int
	UnmatchedNew     int
	DuplicateDetected bool
}

// Map resolves prev -> next under mode and policy, per spec.md §4.13's
// "stable & deterministic: same inputs -> same output" requirement — the
// byId path never iterates a Go map directly into output order, since map
// iteration order is not stable; it only uses the map for lookup.
func Map(prev, next []string, mode Mode, policy DuplicatePolicy, target diag.TargetRef, hub *diag.Hub) Result {
	switch mode {
	case ModeNone:
		return allUnmatched(len(next))

	case ModeByIndex:
		return byIndex(prev, next)

	case ModeByID:
		return byID(prev, next, policy, target, hub)

	default:
		return allUnmatched(len(next))
	}
}

func allUnmatched(n int) Result {
	r := Result{NewToOld: make([]int32, n), ModeUsed: ModeNone}
	for i := range r.NewToOld {
		r.NewToOld[i] = -1
	}
	r.UnmatchedNew = n
	return r
}

func byIndex(prev, next []string) Result {
	r := Result{NewToOld: make([]int32, len(next)), ModeUsed: ModeByIndex}
	oldN := len(prev)
	for k := range next {
		if k < oldN {
			r.NewToOld[k] = int32(k)
			r.Matched++
		} else {
			r.NewToOld[k] = -1
			r.UnmatchedNew++
		}
	}
	return r
}

func byID(prev, next []string, policy DuplicatePolicy, target diag.TargetRef, hub *diag.Hub) Result {
	index := make(map[string]int, len(prev))
	dup := false
	for i, id := range prev {
		if _, exists := index[id]; exists || id == "" {
			dup = true
			continue
		}
		index[id] = i
	}
	seen := make(map[string]bool, len(next))
	for _, id := range next {
		if seen[id] || id == "" {
			dup = true
			continue
		}
		seen[id] = true
	}

	if dup {
		if hub != nil {
			hub.Append(diag.Diagnostic{
				Kind:     diag.KindDuplicateIdentity,
				Severity: diag.SeverityError,
				Target:   target,
				Message:  "lane-mapping: duplicate or empty identity in old or new instance set",
			})
		}
		if policy == PolicyLenient {
			r := byIndex(prev, next)
			r.DuplicateDetected = true
			return r
		}
		r := allUnmatched(len(next))
		r.ModeUsed = "resetAll"
		r.DuplicateDetected = true
		return r
	}

	r := Result{NewToOld: make([]int32, len(next)), ModeUsed: ModeByID}
	for k, id := range next {
		if oldIdx, ok := index[id]; ok {
			r.NewToOld[k] = int32(oldIdx)
			r.Matched++
		} else {
			r.NewToOld[k] = -1
			r.UnmatchedNew++
		}
	}
	return r
}

// MigrateStrided copies stride-wide lanes from oldBuf to a freshly sized
// newBuf per mapping: newToOld[k] >= 0 copies stride components from the
// old lane, otherwise the lane keeps newBuf's existing (caller-initialized)
// default.
func MigrateStrided(newBuf, oldBuf []float64, newToOld []int32, stride int) {
	for k, oldIdx := range newToOld {
		if oldIdx < 0 {
			continue
		}
		src := int(oldIdx) * stride
		dst := k * stride
		if src+stride > len(oldBuf) || dst+stride > len(newBuf) {
			continue
		}
		copy(newBuf[dst:dst+stride], oldBuf[src:src+stride])
	}
}
