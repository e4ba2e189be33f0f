// Package compiler implements the compile driver from spec.md §4.1: a
// numbered sequence of passes turning a Patch into an immutable
// CompiledProgram. Grounded on the teacher's core/builder.go fluent Builder
// (value-receiver WithX methods, a final Build step) generalized from
// assembling one Core to assembling one compiled program, and on
// core/program.go's "load, validate, lower" pipeline shape.
package compiler

import (
	"fmt"

	"github.com/sarchlab/zeonica-animator/internal/diag"
	"github.com/sarchlab/zeonica-animator/internal/graph"
	"github.com/sarchlab/zeonica-animator/internal/ir"
	"github.com/sarchlab/zeonica-animator/internal/registry"
	"github.com/sarchlab/zeonica-animator/internal/schedule"
)

// CompiledProgram is the compiler's sole output: immutable, owns its
// SlotTable and Step list (spec.md §3 "Lifetime ownership").
type CompiledProgram struct {
	PatchID       string
	PatchRevision int

	IR       *ir.Builder
	Slots    *schedule.SlotTable
	Schedule *schedule.Schedule

	// BlockTypes records the type tag each surviving block (authored or
	// synthetic) lowered from, keyed by block id. The hot-swap driver does
	// not read it; it migrates state from the slot declarations instead.
	BlockTypes map[graph.BlockID]string

	Diagnostics []diag.Diagnostic
}

// Options configures one compile run. Grounded on the teacher's builder
// value-receiver With* chain (core/builder.go).
type Options struct {
	Registry *registry.Registry
	Hub      *diag.Hub
}

func NewOptions(reg *registry.Registry) Options {
	return Options{Registry: reg, Hub: diag.NewHub(1000)}
}

func (o Options) WithHub(h *diag.Hub) Options {
	o.Hub = h
	return o
}

// compileError unwinds the driver on a fatal pass outcome. The Diagnostic
// itself has already been appended to the Hub before this error is
// returned — per spec.md §7, diagnostics are data, never exceptions across
// layers; this type exists purely to stop the Go call stack.
type compileError struct{ diag.Diagnostic }

func (e compileError) Error() string { return e.Message }

func fatal(hub *diag.Hub, kind diag.Kind, target diag.TargetRef, format string, args ...any) error {
	d := diag.Diagnostic{Kind: kind, Severity: diag.SeverityFatal, Target: target, Message: fmt.Sprintf(format, args...)}
	hub.Append(d)
	return compileError{d}
}

func warnf(hub *diag.Hub, kind diag.Kind, target diag.TargetRef, format string, args ...any) {
	hub.Append(diag.Diagnostic{Kind: kind, Severity: diag.SeverityWarn, Target: target, Message: fmt.Sprintf(format, args...)})
}

func infof(hub *diag.Hub, kind diag.Kind, target diag.TargetRef, format string, args ...any) {
	hub.Append(diag.Diagnostic{Kind: kind, Severity: diag.SeverityInfo, Target: target, Message: fmt.Sprintf(format, args...)})
}

// Compile runs the full numbered pass pipeline over patch and returns the
// resulting CompiledProgram. Per spec.md §4.1, a fatal diagnostic from any
// pass stops the driver; non-fatal diagnostics accumulate and are returned
// on the CompiledProgram even on success.
func Compile(patch *graph.Patch, opts Options) (*CompiledProgram, error) {
	hub := opts.Hub
	if hub == nil {
		hub = diag.NewHub(1000)
	}
	reg := opts.Registry

	if err := resolvePayloads(patch, reg, hub); err != nil {
		return nil, err
	}

	// Rule (spec.md §4.1): after default-source materialization, no later
	// pass may add, remove, or re-target edges or blocks, except adapter
	// insertion, which solveUnits performs after cardinality solving; the
	// cardinality pass itself only annotates.
	if err := materializeDefaultSources(patch, reg, hub); err != nil {
		return nil, err
	}

	if err := solveCardinality(patch, reg, hub); err != nil {
		return nil, err
	}

	if err := solveUnits(patch, reg, hub); err != nil {
		return nil, err
	}

	if err := validateTypes(patch, reg, hub); err != nil {
		return nil, err
	}

	if err := assignTimeRoles(patch, reg, hub); err != nil {
		return nil, err
	}

	order, err := topologicalBlockOrder(patch, reg, hub)
	if err != nil {
		return nil, err
	}

	irb := ir.NewBuilder()
	prog, err := lowerBlocks(patch, reg, hub, order, irb)
	if err != nil {
		return nil, err
	}

	sched, err := prog.steps.Build()
	if err != nil {
		return nil, fatal(hub, diag.KindScheduleDependencyMissing, diag.TargetRef{}, "%s", err.Error())
	}

	slots := prog.slots.Plan()

	diag.Trace("compile-end", "patchId", patch.ID, "patchRevision", patch.Revision, "diagnosticsCount", len(hub.Snapshot()))

	return &CompiledProgram{
		PatchID:       patch.ID,
		PatchRevision: patch.Revision,
		IR:            irb,
		Slots:         slots,
		Schedule:      sched,
		BlockTypes:    prog.blockTypes,
		Diagnostics:   hub.Snapshot(),
	}, nil
}
