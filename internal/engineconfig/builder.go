// Package engineconfig wires an akita/v4 sim.Engine to the runtime
// executor, mirroring the teacher's config.DeviceBuilder fluent pattern
// (github.com/sarchlab/akita/v4/sim.Engine/sim.Freq, WithEngine/WithFreq,
// a value-receiver Builder, a terminal Build(name)). Where the teacher
// builds a CGRA mesh of tiles driven by one engine, engineconfig builds a
// single Host ticking component that drives one runtime.Executor's frame
// loop, plus a pair of named ports used to notify a hot-swap driver when a
// recompiled program is ready to take over.
package engineconfig

import (
	"log/slog"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/akita/v4/sim/directconnection"

	"github.com/sarchlab/zeonica-animator/internal/compiler"
	"github.com/sarchlab/zeonica-animator/internal/hotswap"
	"github.com/sarchlab/zeonica-animator/internal/runtime"
)

// SwapMsg notifies a Host's ProgramSwap port that a new CompiledProgram is
// ready to replace the one currently driving its Executor.
type SwapMsg struct {
	sim.MsgMeta

	Program *compiler.CompiledProgram
}

func (m *SwapMsg) Meta() *sim.MsgMeta { return &m.MsgMeta }

// Host is the ticking component that drives one compiled program's
// Executor once per cycle, at the engine/frequency the Builder was given.
type Host struct {
	*sim.TickingComponent

	exec        *runtime.Executor
	rs          *runtime.RuntimeState
	prog        *compiler.CompiledProgram
	domainSize  map[string]int
	frameMs     int64
	tickMs      int64
	LastPasses  []runtime.RenderPassResult
	LastErr     error
	compileDone sim.Port
	programSwap sim.Port
	log         *slog.Logger
}

// SetRail forwards to the underlying Executor, letting a host application
// feed continuous-time inputs (spec.md §4.7's Rail concept) before frames
// tick.
func (h *Host) SetRail(name string, value float64) {
	h.exec.SetRail(name, value)
}

// RuntimeState exposes the live state for a hot-swap driver to migrate
// from (internal/hotswap.Migrate).
func (h *Host) RuntimeState() *runtime.RuntimeState { return h.rs }

// CompileDonePort is plugged into a compiler driver's own completion port
// by Wire below.
func (h *Host) CompileDonePort() sim.Port { return h.compileDone }

// ProgramSwapPort receives a *SwapMsg when a peer Host (or compiler
// driver) has a freshly compiled program ready.
func (h *Host) ProgramSwapPort() sim.Port { return h.programSwap }

// Tick advances one frame's worth of model time and collects this frame's
// render passes, logging and swallowing (not panicking on) a frame error
// the way the teacher's Core.Tick absorbs a stalled pipeline stage rather
// than crashing the simulation.
func (h *Host) Tick(now sim.VTimeInSec) (madeProgress bool) {
	if msg := h.programSwap.PeekIncoming(); msg != nil {
		if swap, ok := msg.(*SwapMsg); ok {
			h.programSwap.RetrieveIncoming()
			newRS, stats := hotswap.Migrate(h.rs, h.prog, swap.Program)
			h.rs, h.prog = newRS, swap.Program
			h.exec = runtime.NewExecutor(newRS, h.domainSize)
			h.log.Info("engineconfig: swapped compiled program",
				"patchID", swap.Program.PatchID, "revision", swap.Program.PatchRevision,
				"directCopied", stats.DirectCopied, "laneRemapped", stats.LaneRemapped,
				"defaulted", stats.Defaulted, "discarded", stats.Discarded)
		}
	}

	h.tickMs += h.frameMs
	passes, err := h.exec.Tick(h.tickMs)
	if err != nil {
		h.LastErr = err
		h.log.Error("engineconfig: frame tick failed", "err", err)
		return false
	}
	h.LastPasses = passes
	return true
}

// Builder is the fluent configuration surface, shaped exactly like the
// teacher's config.DeviceBuilder: a value receiver so every With* call
// returns an independent copy, and a terminal Build.
type Builder struct {
	engine      sim.Engine
	freq        sim.Freq
	frameMs     int64
	log         *slog.Logger
}

// NewBuilder seeds a 60Hz frame cadence, matching a typical animation
// host tick rate; every field is still overridable via With*.
func NewBuilder() Builder {
	return Builder{freq: 60 * sim.Hz, frameMs: 16, log: slog.Default()}
}

func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithFrameBudget sets the model-time duration, in milliseconds, advanced
// on every Tick — the frame-stamp step Executor.Tick requires to be
// monotone.
func (b Builder) WithFrameBudget(frameMs int64) Builder {
	b.frameMs = frameMs
	return b
}

func (b Builder) WithLogger(log *slog.Logger) Builder {
	b.log = log
	return b
}

// Build constructs a Host ticking prog's Executor at the configured
// cadence, with its CompileDone/ProgramSwap ports registered under those
// names (GetPortByName-retrievable the way the teacher's Core registers
// "Mem").
func (b Builder) Build(name string, prog *compiler.CompiledProgram, domainSize map[string]int) *Host {
	h := &Host{
		rs:         runtime.NewRuntimeState(prog),
		prog:       prog,
		domainSize: domainSize,
		frameMs:    b.frameMs,
		log:        b.log,
	}
	h.exec = runtime.NewExecutor(h.rs, domainSize)
	h.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, h)
	h.compileDone = sim.NewLimitNumMsgPort(h, 1, name+".CompileDone")
	h.AddPort("CompileDone", h.compileDone)
	h.programSwap = sim.NewLimitNumMsgPort(h, 1, name+".ProgramSwap")
	h.AddPort("ProgramSwap", h.programSwap)
	return h
}

// Wire connects a compiler driver's CompileDone port to a Host's
// ProgramSwap port via a direct connection, mirroring the teacher's
// config.go createSharedMemory pattern of building a
// directconnection.Comp and PlugIn-ing both ends.
func Wire(engine sim.Engine, freq sim.Freq, name string, compileDone sim.Port, host *Host) *directconnection.Comp {
	conn := directconnection.MakeBuilder().
		WithEngine(engine).
		WithFreq(freq).
		Build(name)
	conn.PlugIn(compileDone)
	conn.PlugIn(host.ProgramSwapPort())
	return conn
}
