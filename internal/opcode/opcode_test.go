package opcode

import (
	"math"
	"testing"
)

func TestEvalArity(t *testing.T) {
	cases := []struct {
		name    string
		args    []float64
		want    float64
		wantErr bool
	}{
		{"neg", []float64{3}, -3, false},
		{"add", []float64{1, 2, 3}, 6, false},
		{"clamp", []float64{5, 0, 1}, 1, false},
		{"lerp", []float64{0, 10, 0.5}, 5, false},
		{"combine_sum", nil, 0, false},
		{"combine_average", nil, 0, false},
		{"combine_max", nil, math.Inf(-1), false},
		{"combine_min", nil, math.Inf(1), false},
		{"neg", []float64{1, 2}, 0, true},
		{"nonexistent", []float64{1}, 0, true},
	}
	for _, c := range cases {
		got, err := Eval(c.name, c.args...)
		if c.wantErr {
			if err == nil {
				t.Errorf("Eval(%q, %v): expected error, got %v", c.name, c.args, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Eval(%q, %v): unexpected error %v", c.name, c.args, err)
		}
		if got != c.want {
			t.Errorf("Eval(%q, %v) = %v, want %v", c.name, c.args, got, c.want)
		}
	}
}

func TestCombineMaxMinIdentities(t *testing.T) {
	max, err := Eval("combine_max")
	if err != nil || max != math.Inf(-1) {
		t.Errorf("combine_max() = %v, %v; want -Inf", max, err)
	}
	min, err := Eval("combine_min")
	if err != nil || min != math.Inf(1) {
		t.Errorf("combine_min() = %v, %v; want +Inf", min, err)
	}
}

func TestSignalKernelsRegistered(t *testing.T) {
	for _, name := range []string{"oscSin", "oscCos", "oscTan", "triangle", "square", "sawtooth",
		"easeInQuad", "easeOutQuad", "easeInOutQuad", "smoothstep", "step", "noise1d"} {
		if !Known(name) {
			t.Errorf("signal kernel %q not registered", name)
		}
	}
}

func TestUnitAdapterOpcodesRegistered(t *testing.T) {
	for _, name := range []string{"turnsToRadians", "radiansToTurns", "phaseToNorm01", "norm01ToPhase", "identity"} {
		if !Known(name) {
			t.Errorf("unit adapter opcode %q not registered", name)
		}
	}
}

func TestTurnsRadiansRoundTrip(t *testing.T) {
	rad, err := Eval("turnsToRadians", 0.25)
	if err != nil {
		t.Fatal(err)
	}
	turns, err := Eval("radiansToTurns", rad)
	if err != nil {
		t.Fatal(err)
	}
	if diff := turns - 0.25; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("round trip 0.25 turns -> %v rad -> %v turns", rad, turns)
	}
}
