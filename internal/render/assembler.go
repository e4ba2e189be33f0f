// Package render implements the render-assembler stage named in spec.md
// §4.11: turning one frame's collected render-pass results into a
// renderer-agnostic DrawPathInstances list whose position/color/size/
// rotation views alias the executor's buffers, so nothing is copied per
// instance. Grounded on the draw-command pattern in phanxgames-willow's
// RenderCommand (a renderer-agnostic struct carrying slice-header views
// rather than owned copies). Concrete
// rasterization is a spec Non-goal; this package stops at the assembled
// frame.
package render

import "github.com/sarchlab/zeonica-animator/internal/runtime"

// DrawPathInstances is one render pass's resolved draw data: a shape
// reference plus N instances of position/size/rotation/color, N==1 for a
// CardinalityOne pass. Views alias the executor's own buffers for the
// duration of the frame — copy them if an assembled frame must outlive the
// next Tick.
type DrawPathInstances struct {
	ShapeSlot     int
	StyleKey      string
	InstanceCount int
	Position      []float64 // stride 2
	Size          []float64 // stride 1
	Rotation      []float64 // stride 1
	Color         []float64 // stride 4
	Sorted        bool
}

// RenderFrame is one frame's complete set of draw passes, in schedule order
// (spec.md §4.11: pass order is the order render-pass-collect steps were
// scheduled in).
type RenderFrame struct {
	FrameStamp int64
	Passes     []DrawPathInstances
}

// Assembler turns raw RenderPassResult values into a RenderFrame. It holds
// no state of its own: every view it returns aliases buffers owned by the
// RuntimeState/FieldCache that produced them, so the assembler never copies
// or pools anything itself.
type Assembler struct{}

func NewAssembler() *Assembler {
	return &Assembler{}
}

// Assemble builds one RenderFrame from a tick's collected passes.
func (a *Assembler) Assemble(frameStamp int64, passes []runtime.RenderPassResult) RenderFrame {
	out := RenderFrame{FrameStamp: frameStamp, Passes: make([]DrawPathInstances, 0, len(passes))}
	for _, p := range passes {
		out.Passes = append(out.Passes, DrawPathInstances{
			ShapeSlot:     p.Params.ShapeSlot,
			StyleKey:      p.Params.StyleKey,
			InstanceCount: p.InstanceCount,
			Position:      p.Position,
			Size:          p.Size,
			Rotation:      p.Rotation,
			Color:         p.Color,
			Sorted:        p.Params.Sorted,
		})
	}
	return out
}
