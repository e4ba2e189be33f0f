package compiler

import (
	"sort"

	"github.com/sarchlab/zeonica-animator/internal/diag"
	"github.com/sarchlab/zeonica-animator/internal/graph"
	"github.com/sarchlab/zeonica-animator/internal/registry"
)

// topologicalBlockOrder is compiler pass 8 (spec.md §4.1/§4.7): a
// dependency-ordered block list for lowering. An edge into a stateful
// block's input does not force lowering order — at runtime that read
// always observes the previous frame's committed value (spec.md §4.7) —
// so those edges are excluded from the ordering DAG. A cycle that survives
// this exclusion crosses no stateful boundary and is a genuine
// CycleWithoutState failure.
func topologicalBlockOrder(patch *graph.Patch, reg *registry.Registry, hub *diag.Hub) ([]graph.BlockID, error) {
	ids := patch.OrderedBlockIDs()
	index := make(map[graph.BlockID]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}

	adj := make([][]int, len(ids))
	indeg := make([]int, len(ids))

	for _, e := range patch.Edges {
		toBlock := patch.Blocks[e.To.Block]
		def, ok := reg.Lookup(toBlock.TypeTag)
		if ok && def.Stateful {
			continue
		}
		if e.From.Block == e.To.Block {
			continue
		}
		from, to := index[e.From.Block], index[e.To.Block]
		adj[from] = append(adj[from], to)
		indeg[to]++
	}

	var ready []int
	for i := range ids {
		if indeg[i] == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]int, 0, len(ids))
	for len(ready) > 0 {
		sort.Ints(ready)
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)
		for _, to := range adj[next] {
			indeg[to]--
			if indeg[to] == 0 {
				ready = append(ready, to)
			}
		}
	}

	if len(order) != len(ids) {
		return nil, fatal(hub, diag.KindCycleWithoutState, diag.TargetRef{}, "patch has a dependency cycle that does not cross a stateful block")
	}

	out := make([]graph.BlockID, len(order))
	for i, idx := range order {
		out[i] = ids[idx]
	}
	return out, nil
}
