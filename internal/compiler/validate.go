package compiler

import (
	"github.com/sarchlab/zeonica-animator/internal/diag"
	"github.com/sarchlab/zeonica-animator/internal/graph"
	"github.com/sarchlab/zeonica-animator/internal/registry"
	"github.com/sarchlab/zeonica-animator/internal/types"
)

// validateTypes is compiler pass 6 (spec.md §4.1/§3): every port's
// canonical type must be fully resolved, and every input port's
// combine-mode must be legal for its resolved payload (spec.md §9's
// canonical combine-mode rules, centralized here rather than re-checked
// per block — see DESIGN.md's Open Question decisions).
func validateTypes(patch *graph.Patch, reg *registry.Registry, hub *diag.Hub) error {
	for _, id := range patch.OrderedBlockIDs() {
		b := patch.Blocks[id]
		for _, in := range b.Inputs {
			if !in.ResolvedType.IsResolved() {
				return fatal(hub, diag.KindUnresolvedUnit, diag.TargetRef{BlockID: string(id), PortID: string(in.ID)}, "input port %s did not fully resolve: %s", in.ID, in.ResolvedType.String())
			}
			if in.CombineMode != types.CombineNone || len(patch.EdgesInto(graph.Endpoint{Block: id, Port: in.ID})) > 1 {
				mode := in.CombineMode
				if mode == types.CombineNone {
					mode = types.CombineLast
				}
				if err := types.ValidateCombineMode(mode, in.ResolvedType.Payload); err != nil {
					return fatal(hub, diag.KindInvalidCombineMode, diag.TargetRef{BlockID: string(id), PortID: string(in.ID)}, "%s", err.Error())
				}
			}
		}
		for _, out := range b.Outputs {
			if !out.ResolvedType.IsResolved() {
				return fatal(hub, diag.KindUnresolvedUnit, diag.TargetRef{BlockID: string(id), PortID: string(out.ID)}, "output port %s did not fully resolve: %s", out.ID, out.ResolvedType.String())
			}
		}
	}
	return nil
}
