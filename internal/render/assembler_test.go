package render_test

import (
	"testing"

	"github.com/sarchlab/zeonica-animator/internal/render"
	"github.com/sarchlab/zeonica-animator/internal/runtime"
	"github.com/sarchlab/zeonica-animator/internal/schedule"
)

func TestAssembleOrdersPassesAndCarriesDomainData(t *testing.T) {
	results := []runtime.RenderPassResult{
		{
			Params:        schedule.RenderPassParams{StyleKey: "dots", DomainTag: "dots", Sorted: true},
			InstanceCount: 2,
			Position:      []float64{0, 0, 1, 1},
			Size:          []float64{1, 1},
			Rotation:      []float64{0, 0},
			Color:         []float64{1, 0, 0, 1, 0, 1, 0, 1},
		},
		{
			Params:        schedule.RenderPassParams{StyleKey: "cursor"},
			InstanceCount: 1,
			Position:      []float64{5, 5},
			Size:          []float64{2},
			Rotation:      []float64{0},
			Color:         []float64{1, 1, 1, 1},
		},
	}

	frame := render.NewAssembler().Assemble(42, results)
	if frame.FrameStamp != 42 {
		t.Fatalf("expected frame stamp 42, got %d", frame.FrameStamp)
	}
	if len(frame.Passes) != 2 {
		t.Fatalf("expected 2 passes, got %d", len(frame.Passes))
	}
	if frame.Passes[0].StyleKey != "dots" || frame.Passes[0].InstanceCount != 2 {
		t.Fatalf("pass 0 mismatch: %+v", frame.Passes[0])
	}
	if frame.Passes[1].StyleKey != "cursor" || frame.Passes[1].InstanceCount != 1 {
		t.Fatalf("pass 1 mismatch: %+v", frame.Passes[1])
	}
}
