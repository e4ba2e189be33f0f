package compiler

import (
	"github.com/sarchlab/zeonica-animator/internal/diag"
	"github.com/sarchlab/zeonica-animator/internal/graph"
	"github.com/sarchlab/zeonica-animator/internal/registry"
)

// assignTimeRoles is compiler pass 7 (spec.md §4.1): every block's time
// role (continuous / discrete / static) is a property of its registered
// Def, never inferred from its neighbors (spec.md §9) — this pass only
// checks that every block resolves to a known type; it computes and
// records nothing.
func assignTimeRoles(patch *graph.Patch, reg *registry.Registry, hub *diag.Hub) error {
	for _, id := range patch.OrderedBlockIDs() {
		b := patch.Blocks[id]
		if _, ok := reg.Lookup(b.TypeTag); !ok {
			return fatal(hub, diag.KindMissingRequiredInput, diag.TargetRef{BlockID: string(id)}, "unknown block type %q", b.TypeTag)
		}
	}
	return nil
}
