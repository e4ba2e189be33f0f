package hotswap_test

import (
	"testing"

	"github.com/sarchlab/zeonica-animator/internal/compiler"
	"github.com/sarchlab/zeonica-animator/internal/hotswap"
	"github.com/sarchlab/zeonica-animator/internal/ir"
	"github.com/sarchlab/zeonica-animator/internal/runtime"
	"github.com/sarchlab/zeonica-animator/internal/schedule"
)

func programWithCounter(stableKey string, laneStride int) *compiler.CompiledProgram {
	planner := schedule.NewPlanner()
	_ = planner.Declare(schedule.Declaration{ID: 0, Kind: schedule.KindF32, Class: schedule.ClassState, StableKey: stableKey, LaneStride: laneStride})
	return &compiler.CompiledProgram{
		IR:       ir.NewBuilder(),
		Slots:    planner.Plan(),
		Schedule: &schedule.Schedule{},
	}
}

func TestMigrateDirectCopiesIdenticalShape(t *testing.T) {
	oldProg := programWithCounter("osc1.phase", 1)
	oldState := runtime.NewRuntimeState(oldProg)
	if err := oldState.WriteF32(0, []float64{0.75}); err != nil {
		t.Fatalf("write: %v", err)
	}

	newProg := programWithCounter("osc1.phase", 1)
	newState, stats := hotswap.Migrate(oldState, oldProg, newProg)

	v, err := newState.ReadF32(0, 1)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if v[0] != 0.75 {
		t.Fatalf("expected migrated value 0.75, got %v", v[0])
	}
	if stats.DirectCopied != 1 {
		t.Fatalf("expected 1 direct copy, got %+v", stats)
	}
}

func TestMigrateDefaultsNewStateId(t *testing.T) {
	oldProg := programWithCounter("osc1.phase", 1)
	oldState := runtime.NewRuntimeState(oldProg)

	planner := schedule.NewPlanner()
	_ = planner.Declare(schedule.Declaration{ID: 0, Kind: schedule.KindF32, Class: schedule.ClassState, StableKey: "osc2.phase", Initial: 0.5})
	newProg := &compiler.CompiledProgram{IR: ir.NewBuilder(), Slots: planner.Plan(), Schedule: &schedule.Schedule{}}

	newState, stats := hotswap.Migrate(oldState, oldProg, newProg)
	v, _ := newState.ReadF32(0, 1)
	if v[0] != 0.5 {
		t.Fatalf("expected default-initialized value 0.5, got %v", v[0])
	}
	if stats.Defaulted != 1 || stats.Discarded != 1 {
		t.Fatalf("expected 1 defaulted and 1 discarded, got %+v", stats)
	}
}

func TestMigrateLaneRemapsOnStrideChange(t *testing.T) {
	oldProg := programWithCounter("trail.positions", 2)
	oldState := runtime.NewRuntimeState(oldProg)
	if err := oldState.WriteF32(0, []float64{1, 2}); err != nil {
		t.Fatalf("write: %v", err)
	}

	newProg := programWithCounter("trail.positions", 4)
	newState, stats := hotswap.Migrate(oldState, oldProg, newProg)
	v, err := newState.ReadF32(0, 4)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if v[0] != 1 || v[1] != 2 || v[2] != 0 || v[3] != 0 {
		t.Fatalf("expected [1 2 0 0], got %v", v)
	}
	if stats.LaneRemapped != 1 {
		t.Fatalf("expected 1 lane remap, got %+v", stats)
	}
}
