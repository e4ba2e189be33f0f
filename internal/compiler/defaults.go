package compiler

import (
	"github.com/sarchlab/zeonica-animator/internal/diag"
	"github.com/sarchlab/zeonica-animator/internal/graph"
	"github.com/sarchlab/zeonica-animator/internal/registry"
)

// materializeDefaultSources is compiler pass 2 (spec.md §4.1): every input
// port left unconnected by the author gets a synthetic source block wired
// in — a Const block for a "const" default, or a shared Rail block (one
// per distinct rail name, reused across every input that defaults to it)
// for a "rail" default. An input with no edge and no default is a
// MissingRequiredInput failure. Grounded on the teacher's
// easyconf/apis.go helpers that synthesize wiring the author didn't spell
// out by hand.
func materializeDefaultSources(patch *graph.Patch, reg *registry.Registry, hub *diag.Hub) error {
	railBlocks := make(map[string]graph.BlockID)

	for _, id := range patch.OrderedBlockIDs() {
		b := patch.Blocks[id]
		def, ok := reg.Lookup(b.TypeTag)
		if !ok {
			return fatal(hub, diag.KindMissingRequiredInput, diag.TargetRef{BlockID: string(id)}, "unknown block type %q", b.TypeTag)
		}
		for _, in := range b.Inputs {
			target := graph.Endpoint{Block: id, Port: in.ID}
			if len(patch.EdgesInto(target)) > 0 {
				continue
			}
			spec := findInputSpec(def, in.ID)
			if !spec.DefaultAllowed {
				return fatal(hub, diag.KindMissingRequiredInput, diag.TargetRef{BlockID: string(id), PortID: string(in.ID)}, "input port %s has no source and no default", in.ID)
			}

			switch spec.DefaultKind {
			case "rail":
				railID, exists := railBlocks[spec.DefaultRail]
				if !exists {
					railID = graph.NewSyntheticID("rail")
					railBlocks[spec.DefaultRail] = railID
					if err := patch.AddBlock(&graph.Block{
						ID:        railID,
						TypeTag:   "Rail",
						Synthetic: true,
						Params:    map[string]any{"rail": spec.DefaultRail},
						Outputs:   []*graph.OutputPort{{ID: "value"}},
					}); err != nil {
						return fatal(hub, diag.KindMissingRequiredInput, diag.TargetRef{BlockID: string(railID)}, "%s", err.Error())
					}
				}
				if err := patch.AddEdge(graph.Endpoint{Block: railID, Port: "value"}, target); err != nil {
					return fatal(hub, diag.KindMissingRequiredInput, target, "%s", err.Error())
				}
			default: // "const"
				constID := graph.NewSyntheticID("const")
				if err := patch.AddBlock(&graph.Block{
					ID:        constID,
					TypeTag:   "Const",
					Synthetic: true,
					Params:    map[string]any{"value": spec.DefaultValue},
					Outputs:   []*graph.OutputPort{{ID: "value"}},
				}); err != nil {
					return fatal(hub, diag.KindMissingRequiredInput, diag.TargetRef{BlockID: string(constID)}, "%s", err.Error())
				}
				if err := patch.AddEdge(graph.Endpoint{Block: constID, Port: "value"}, target); err != nil {
					return fatal(hub, diag.KindMissingRequiredInput, target, "%s", err.Error())
				}
			}
		}
	}

	return nil
}
