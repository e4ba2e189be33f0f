// Package hotswap implements the hot-swap driver (spec.md §4.14): given a
// live RuntimeState for an old CompiledProgram and a freshly compiled new
// CompiledProgram, build the new program's RuntimeState with every
// surviving stable-keyed slot migrated rather than reset. Grounded on the
// teacher's core/builder.go rebuild path (a new Builder/Core is assembled
// from scratch, but device state keyed by stable names is expected to
// carry forward), generalized from "rebuild a Core" to "swap a compiled
// animation program without visibly resetting running state."
package hotswap

import (
	"github.com/sarchlab/zeonica-animator/internal/compiler"
	"github.com/sarchlab/zeonica-animator/internal/lanemap"
	"github.com/sarchlab/zeonica-animator/internal/runtime"
	"github.com/sarchlab/zeonica-animator/internal/schedule"
)

// Stats reports what the migration did, for the diagnostic/logging surface
// a swap driver would want to report.
type Stats struct {
	DirectCopied int
	LaneRemapped int
	Defaulted    int
	Discarded    int
}

// Migrate builds a new RuntimeState for newProg, copying every slot whose
// declared StableKey also exists in oldProg: an identical Kind+LaneStride
// pair is a direct copy; a same-Kind but differently-strided pair is
// migrated lane-wise via lanemap under a byIndex assumption (hot-swap has
// no live per-lane identity vector of its own — see DESIGN.md); anything
// else starts from newState's already-initialized default. Stable keys
// present only in oldProg are implicitly discarded by never being read.
func Migrate(oldState *runtime.RuntimeState, oldProg, newProg *compiler.CompiledProgram) (*runtime.RuntimeState, Stats) {
	newState := runtime.NewRuntimeState(newProg)
	var stats Stats

	oldByKey := make(map[string]schedule.Declaration, len(oldProg.Slots.Declarations()))
	for _, d := range oldProg.Slots.Declarations() {
		if d.StableKey != "" {
			oldByKey[d.StableKey] = d
		}
	}

	surviving := make(map[string]bool, len(oldByKey))

	for _, nd := range newProg.Slots.Declarations() {
		if nd.StableKey == "" {
			continue
		}
		od, ok := oldByKey[nd.StableKey]
		if !ok {
			stats.Defaulted++
			continue
		}
		surviving[nd.StableKey] = true
		if od.Kind != nd.Kind {
			stats.Defaulted++
			continue
		}

		oldOff, _ := oldProg.Slots.Offset(od.ID)
		newOff, _ := newProg.Slots.Offset(nd.ID)
		oldStride := maxInt(1, od.LaneStride)
		newStride := maxInt(1, nd.LaneStride)

		switch nd.Kind {
		case schedule.KindF32:
			oldBuf := oldState.Banks.F32[oldOff : oldOff+oldStride]
			newBuf := newState.Banks.F32[newOff : newOff+newStride]
			migrateSlot(oldBuf, newBuf, oldStride, newStride, &stats)

		case schedule.KindI32:
			newState.Banks.I32[newOff] = oldState.Banks.I32[oldOff]
			stats.DirectCopied++

		case schedule.KindU32:
			newState.Banks.U32[newOff] = oldState.Banks.U32[oldOff]
			stats.DirectCopied++

		case schedule.KindShape2D:
			copy(newState.Banks.Shape2D[newOff:newOff+schedule.Shape2DWords], oldState.Banks.Shape2D[oldOff:oldOff+schedule.Shape2DWords])
			stats.DirectCopied++

		default:
			stats.Defaulted++
		}
	}

	migrateFieldSlots(oldState, newState, oldProg, newProg, &stats)

	for key := range oldByKey {
		if !surviving[key] {
			stats.Discarded++
		}
	}

	return newState, stats
}

// migrateSlot copies a same-stride slot directly, or remaps a
// differently-strided one component-by-component under a byIndex
// assumption: hot-swap has no live per-lane identity vector to ask
// internal/lanemap's byId path for (that lives in the continuity/instance
// subsystem, not the compiled program), so a stride change degrades to
// "lane k keeps lane k's value, new lanes default."
func migrateSlot(oldBuf, newBuf []float64, oldStride, newStride int, stats *Stats) {
	if oldStride == newStride {
		copy(newBuf, oldBuf)
		stats.DirectCopied++
		return
	}
	lanemap.MigrateStrided(newBuf, oldBuf, byIndexMap(oldStride, newStride), 1)
	stats.LaneRemapped++
}

func byIndexMap(oldN, newN int) []int32 {
	m := make([]int32, newN)
	for k := range m {
		if k < oldN {
			m[k] = int32(k)
		} else {
			m[k] = -1
		}
	}
	return m
}

func migrateFieldSlots(oldState, newState *runtime.RuntimeState, oldProg, newProg *compiler.CompiledProgram, stats *Stats) {
	oldFieldByKey := make(map[string]int)
	for _, d := range oldProg.Slots.Declarations() {
		if d.Class == schedule.ClassField && d.StableKey != "" {
			oldFieldByKey[d.StableKey] = d.ID
		}
	}
	for _, nd := range newProg.Slots.Declarations() {
		if nd.Class != schedule.ClassField || nd.StableKey == "" {
			continue
		}
		oldID, ok := oldFieldByKey[nd.StableKey]
		if !ok {
			stats.Defaulted++
			continue
		}
		oldBuf, ok := oldState.FieldSlots[oldID]
		if !ok {
			stats.Defaulted++
			continue
		}
		cp := make([]float64, len(oldBuf))
		copy(cp, oldBuf)
		newState.FieldSlots[nd.ID] = cp
		stats.DirectCopied++
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
