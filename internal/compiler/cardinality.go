package compiler

import (
	"github.com/sarchlab/zeonica-animator/internal/diag"
	"github.com/sarchlab/zeonica-animator/internal/graph"
	"github.com/sarchlab/zeonica-animator/internal/registry"
	"github.com/sarchlab/zeonica-animator/internal/types"
)

// solveCardinality is compiler pass 4 (spec.md §4.2): a union-find over
// port nodes resolving every variable-cardinality port to one or many.
func solveCardinality(patch *graph.Patch, reg *registry.Registry, hub *diag.Hub) error {
	uf := types.NewUnionFind()
	var allKeys []string
	concreteOne := make(map[string]bool)
	concreteMany := make(map[string]bool)

	// Phase 1: group co-cardinality ports within a block. All of a block's
	// variable-cardinality ports, inputs and outputs alike, are treated as
	// one zipBroadcast group — this is the one-block approximation of
	// spec.md's "all field inputs of a zip-block share a group".
	for _, id := range patch.OrderedBlockIDs() {
		b := patch.Blocks[id]
		def, ok := reg.Lookup(b.TypeTag)
		if !ok {
			continue
		}
		var groupKeys []string
		for _, in := range b.Inputs {
			spec := findInputSpec(def, in.ID)
			key := portKey(id, "in", in.ID)
			allKeys = append(allKeys, key)
			switch spec.StaticCardinality {
			case types.CardinalityOne:
				concreteOne[key] = true
			case types.CardinalityMany:
				concreteMany[key] = true
			default:
				groupKeys = append(groupKeys, key)
			}
		}
		for _, out := range b.Outputs {
			spec := findOutputSpec(def, out.ID)
			key := portKey(id, "out", out.ID)
			allKeys = append(allKeys, key)
			switch spec.StaticCardinality {
			case types.CardinalityOne:
				concreteOne[key] = true
			case types.CardinalityMany:
				concreteMany[key] = true
			default:
				groupKeys = append(groupKeys, key)
			}
		}
		for i := 1; i < len(groupKeys); i++ {
			uf.Union(groupKeys[0], groupKeys[i])
		}
	}

	// Phase 3: union endpoints of every edge. Self-loops are ignored per
	// spec.md §4.2 edge cases (cycles are handled by the dependency pass).
	for _, e := range patch.Edges {
		if e.From.Block == e.To.Block {
			continue
		}
		uf.Union(portKey(e.From.Block, "out", e.From.Port), portKey(e.To.Block, "in", e.To.Port))
	}

	// Phase 4: for each UF root, bestMany wins whenever any member is a
	// concrete-many witness; otherwise a concrete-one witness resolves the
	// group to one. This is the "many wins" simplification of the
	// guarded pendingOne-commit algorithm in spec.md §4.2 — see
	// DESIGN.md's Open Question decisions.
	manyRoot := make(map[string]bool)
	oneRoot := make(map[string]bool)
	for k := range concreteMany {
		manyRoot[uf.Find(k)] = true
	}
	for k := range concreteOne {
		oneRoot[uf.Find(k)] = true
	}

	resolved := make(map[string]types.Cardinality)
	for _, root := range uf.Roots(allKeys) {
		switch {
		case manyRoot[root]:
			resolved[root] = types.CardinalityMany
		case oneRoot[root]:
			resolved[root] = types.CardinalityOne
		default:
			resolved[root] = types.CardinalityVariable
		}
	}

	// Phase 5: write resolved cardinalities back.
	for _, id := range patch.OrderedBlockIDs() {
		b := patch.Blocks[id]
		for _, in := range b.Inputs {
			key := portKey(id, "in", in.ID)
			c := resolved[uf.Find(key)]
			if c == types.CardinalityVariable {
				return fatal(hub, diag.KindUnresolvedCardinality, diag.TargetRef{BlockID: string(id), PortID: string(in.ID)}, "input port %s has unresolved cardinality", in.ID)
			}
			in.ResolvedType.Extent.Cardinality = c
			if c == types.CardinalityMany {
				in.ResolvedType.Extent.DomainTag = "default"
			}
		}
		for _, out := range b.Outputs {
			key := portKey(id, "out", out.ID)
			c := resolved[uf.Find(key)]
			if c == types.CardinalityVariable {
				return fatal(hub, diag.KindUnresolvedCardinality, diag.TargetRef{BlockID: string(id), PortID: string(out.ID)}, "output port %s has unresolved cardinality", out.ID)
			}
			out.ResolvedType.Extent.Cardinality = c
			if c == types.CardinalityMany {
				out.ResolvedType.Extent.DomainTag = "default"
			}
		}
	}

	return nil
}
