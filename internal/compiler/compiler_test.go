package compiler_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sarchlab/zeonica-animator/internal/compiler"
	"github.com/sarchlab/zeonica-animator/internal/diag"
	"github.com/sarchlab/zeonica-animator/internal/patchio"
	"github.com/sarchlab/zeonica-animator/internal/registry"
	"github.com/sarchlab/zeonica-animator/internal/schedule"
)

func loadFixture(t *testing.T, yamlText string) (*compiler.CompiledProgram, *diag.Hub, error) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.yaml")
	if err := os.WriteFile(path, []byte(yamlText), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	reg := registry.Builtins()
	p, err := patchio.LoadPatch(path, reg)
	if err != nil {
		t.Fatalf("LoadPatch: %v", err)
	}
	hub := diag.NewHub(1000)
	prog, err := compiler.Compile(p, compiler.NewOptions(reg).WithHub(hub))
	return prog, hub, err
}

// Scenario A (spec.md §8): Const -> HslToRgba -> RenderInstances2D with no
// instance domain, all non-color inputs left to their registry defaults.
func TestCompileScenarioAConstantToColorPassthrough(t *testing.T) {
	prog, hub, err := loadFixture(t, `
patch:
  id: scenario-a
  revision: 1
  blocks:
    - id: hue
      type: Const
      params:
        value: 0.5
    - id: tint
      type: HslToRgba
    - id: out
      type: RenderInstances2D
  edges:
    - from: hue.value
      to: tint.h
    - from: tint.color
      to: out.color
`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	for _, d := range hub.Snapshot() {
		if d.Severity >= diag.SeverityError {
			t.Fatalf("unexpected diagnostic: %+v", d)
		}
	}
	if len(prog.Schedule.Steps) == 0 {
		t.Fatalf("expected a non-empty schedule")
	}

	foundRenderPass := false
	for _, s := range prog.Schedule.Steps {
		if s.Kind == schedule.StepRenderPassCollect {
			foundRenderPass = true
		}
		if s.Kind == schedule.StepScalarStateWrite || s.Kind == schedule.StepFieldStateWrite {
			t.Fatalf("scenario A has no stateful blocks, but found a state-write step: %+v", s)
		}
	}
	if !foundRenderPass {
		t.Fatalf("expected a render-pass-collect step")
	}
}

// Scenario C (spec.md §8): Const -> Adder -> UnitDelay -> Adder
// (self-feedback through a one-frame delay). The cycle is legal because
// UnitDelay's Lower reads only its own state, never this frame's input.
func TestCompileScenarioCFeedbackDelayCycleIsLegal(t *testing.T) {
	prog, hub, err := loadFixture(t, `
patch:
  id: scenario-c
  revision: 1
  blocks:
    - id: one
      type: Const
      params:
        value: 1
    - id: sum
      type: Adder
    - id: delay
      type: UnitDelay
  edges:
    - from: one.value
      to: sum.a
    - from: delay.out
      to: sum.b
    - from: sum.sum
      to: delay.in
`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	for _, d := range hub.Snapshot() {
		if d.Severity >= diag.SeverityError {
			t.Fatalf("unexpected diagnostic: %+v", d)
		}
	}

	foundStateWrite := false
	for _, s := range prog.Schedule.Steps {
		if s.Kind == schedule.StepScalarStateWrite {
			foundStateWrite = true
			if s.Kind.Phase() != schedule.Phase2 {
				t.Fatalf("scalar state write must be phase 2")
			}
		}
	}
	if !foundStateWrite {
		t.Fatalf("expected UnitDelay's commit to emit a scalar state write")
	}
}

// An input with no edge and DefaultAllowed=false is a fatal
// MissingRequiredInput diagnostic (spec.md §2 pass 2 edge case).
func TestCompileMissingRequiredInputIsFatal(t *testing.T) {
	_, hub, err := loadFixture(t, `
patch:
  id: bad
  revision: 1
  blocks:
    - id: sum
      type: Adder
`)
	if err == nil {
		t.Fatalf("expected a fatal compile error")
	}
	found := false
	for _, d := range hub.Snapshot() {
		if d.Kind == diag.KindMissingRequiredInput && d.Severity == diag.SeverityFatal {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a fatal MissingRequiredInput diagnostic, got %+v", hub.Snapshot())
	}
}

// Scenario B (spec.md §8): Array(N=4) -> Broadcast -> Oscillator. The whole
// chain resolves to cardinality "many" and lowers to a field-materialize
// step rather than a scalar signal-evaluate step.
func TestCompileScenarioBFieldBroadcast(t *testing.T) {
	prog, hub, err := loadFixture(t, `
patch:
  id: scenario-b
  revision: 1
  blocks:
    - id: phases
      type: Array
      params:
        values: [0, 0.25, 0.5, 0.75]
    - id: spread
      type: Broadcast
    - id: osc
      type: Oscillator
      params:
        waveform: oscSin
  edges:
    - from: phases.value
      to: spread.in
    - from: spread.value
      to: osc.phase
`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	for _, d := range hub.Snapshot() {
		if d.Severity >= diag.SeverityError {
			t.Fatalf("unexpected diagnostic: %+v", d)
		}
	}

	foundFieldStep := false
	for _, s := range prog.Schedule.Steps {
		if s.Kind == schedule.StepMaterializeField {
			foundFieldStep = true
		}
		if s.Kind == schedule.StepEvaluateSignal {
			t.Fatalf("scenario B resolves to cardinality many, expected no scalar signal-evaluate step: %+v", s)
		}
	}
	if !foundFieldStep {
		t.Fatalf("expected a field-materialize step for the many-cardinality oscillator")
	}
}

// Scenario F (spec.md §8, §4.2): a Zip block unions a concrete-many witness
// (Array) and a concrete-one witness (Const) into the same cardinality
// group through its two inputs. solveCardinality's "many wins" resolution
// (documented in DESIGN.md's Open Question decisions) resolves the whole
// group to many rather than raising ConflictingCardinalities — this test
// pins down that documented behavior so a future change to the solver
// has to touch it deliberately.
func TestCompileScenarioFZipCardinalityGroupResolvesToMany(t *testing.T) {
	prog, hub, err := loadFixture(t, `
patch:
  id: scenario-f
  revision: 1
  blocks:
    - id: many
      type: Array
      params:
        values: [0, 1, 2, 3]
    - id: one
      type: Const
      params:
        value: 1
    - id: z
      type: Zip
    - id: out
      type: RenderInstances2D
  edges:
    - from: many.value
      to: z.a
    - from: one.value
      to: z.b
    - from: z.out
      to: out.size
`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	for _, d := range hub.Snapshot() {
		if d.Kind == diag.KindConflictingCardinalities {
			t.Fatalf("solveCardinality's many-wins resolution should not raise ConflictingCardinalities here: %+v", d)
		}
		if d.Severity >= diag.SeverityError {
			t.Fatalf("unexpected diagnostic: %+v", d)
		}
	}

	foundFieldStep := false
	for _, s := range prog.Schedule.Steps {
		if s.Kind == schedule.StepMaterializeField {
			foundFieldStep = true
		}
	}
	if !foundFieldStep {
		t.Fatalf("expected the zip group's many resolution to force a field-materialize step")
	}
}
