// Package diag implements the diagnostic stream described in spec.md §7:
// diagnostics are data, never exceptions across layers. Compiler passes and
// the runtime append Diagnostic values to a Hub instead of returning errors
// for anything a user's patch can trigger.
package diag

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Custom slog levels, matching the teacher's core/util.go convention of
// defining extra levels above slog.LevelInfo for fine-grained tracing.
const (
	LevelTrace   slog.Level = slog.LevelInfo + 1
	LevelVerbose slog.Level = slog.LevelInfo + 2
)

// Trace logs at LevelTrace. Mirrors the free-floating Trace helper zeonica
// scatters through core/emu.go.
func Trace(msg string, args ...any) {
	slog.Log(nil, LevelTrace, msg, args...)
}

// Severity ranks a Diagnostic's impact on the compile/runtime pipeline.
type Severity int

const (
	SeverityHint Severity = iota
	SeverityInfo
	SeverityWarn
	SeverityError
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityHint:
		return "hint"
	case SeverityInfo:
		return "info"
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Kind enumerates every diagnostic kind named in spec.md §7.
type Kind string

const (
	KindUnresolvedPayload            Kind = "UnresolvedPayload"
	KindUnresolvedCardinality        Kind = "UnresolvedCardinality"
	KindUnresolvedUnit               Kind = "UnresolvedUnit"
	KindConflictingPayloads          Kind = "ConflictingPayloads"
	KindConflictingCardinalities     Kind = "ConflictingCardinalities"
	KindConflictingUnits             Kind = "ConflictingUnits"
	KindNoConversionPath             Kind = "NoConversionPath"
	KindInvalidCombineMode           Kind = "InvalidCombineMode"
	KindCycleWithoutState            Kind = "CycleWithoutState"
	KindMissingRequiredInput         Kind = "MissingRequiredInput"
	KindPayloadNotAllowed            Kind = "PayloadNotAllowed"
	KindPayloadCombinationNotAllowed Kind = "PayloadCombinationNotAllowed"
	KindDuplicateStateId             Kind = "DuplicateStateId"
	KindDuplicateIdentity            Kind = "DuplicateIdentity"
	KindOpcodeCoverageMismatch       Kind = "OpcodeCoverageMismatch"
	KindNonMonotoneTime              Kind = "NonMonotoneTime"
	KindScheduleDependencyMissing    Kind = "ScheduleDependencyMissing"
	KindAdapterInserted              Kind = "AdapterInserted"
	KindNotImplemented               Kind = "NotImplemented"
)

// TargetRef points at the offending graph element: a block and, optionally,
// one of its ports.
type TargetRef struct {
	BlockID string
	PortID  string
}

func (t TargetRef) String() string {
	if t.PortID == "" {
		return t.BlockID
	}
	return t.BlockID + "." + t.PortID
}

// Diagnostic is the sole unit of error communication across layers.
type Diagnostic struct {
	Kind     Kind
	Severity Severity
	Target   TargetRef
	Message  string
}

func (d Diagnostic) IsFatalOrError() bool {
	return d.Severity == SeverityFatal || d.Severity == SeverityError
}

// Hub is an append-only diagnostic log with a bounded ring, matching the
// spec's §5 "bounded log ring (eviction FIFO at a declared cap)". It is the
// one component shared read-only with consumers outside a frame tick.
type Hub struct {
	mu  sync.Mutex
	cap int
	log []Diagnostic
}

// NewHub creates a Hub bounded to cap entries (FIFO eviction once exceeded).
func NewHub(cap int) *Hub {
	if cap <= 0 {
		cap = 1000
	}
	return &Hub{cap: cap}
}

// Append records a diagnostic and logs it via slog for operator visibility.
func (h *Hub) Append(d Diagnostic) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.log = append(h.log, d)
	if len(h.log) > h.cap {
		evict := len(h.log) - h.cap
		h.log = h.log[evict:]
	}

	switch d.Severity {
	case SeverityFatal, SeverityError:
		slog.Error(string(d.Kind), "target", d.Target.String(), "message", d.Message)
	case SeverityWarn:
		slog.Warn(string(d.Kind), "target", d.Target.String(), "message", d.Message)
	case SeverityInfo:
		slog.Info(string(d.Kind), "target", d.Target.String(), "message", d.Message)
	default:
		slog.Log(nil, LevelVerbose, string(d.Kind), "target", d.Target.String(), "message", d.Message)
	}
}

// Snapshot returns a copy of the current log, newest last.
func (h *Hub) Snapshot() []Diagnostic {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Diagnostic, len(h.log))
	copy(out, h.log)
	return out
}

// HasFatalOrError reports whether any diagnostic appended since the last
// Clear is fatal or error severity.
func (h *Hub) HasFatalOrError() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, d := range h.log {
		if d.IsFatalOrError() {
			return true
		}
	}
	return false
}

// Clear empties the hub. compiler.Compile does not call it; a caller that
// reuses one hub across compilations clears it itself.
func (h *Hub) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.log = nil
}

// DumpTable renders the current log as an operator-facing table, grounded
// on the teacher's use of github.com/jedib0t/go-pretty/v6/table for
// structured console output.
func (h *Hub) DumpTable() string {
	h.mu.Lock()
	defer h.mu.Unlock()

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Severity", "Kind", "Target", "Message"})
	for _, d := range h.log {
		t.AppendRow(table.Row{d.Severity.String(), string(d.Kind), d.Target.String(), d.Message})
	}
	var b strings.Builder
	b.WriteString(t.Render())
	return b.String()
}
