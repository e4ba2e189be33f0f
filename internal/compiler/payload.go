package compiler

import (
	"github.com/sarchlab/zeonica-animator/internal/diag"
	"github.com/sarchlab/zeonica-animator/internal/graph"
	"github.com/sarchlab/zeonica-animator/internal/registry"
	"github.com/sarchlab/zeonica-animator/internal/types"
)

func portKey(block graph.BlockID, io string, port graph.PortID) string {
	return string(block) + ":" + io + ":" + string(port)
}

// resolvePayloads is compiler pass 1 (spec.md §2): propagate concrete
// payloads across edges, and between the ports one block declares
// payload-generic (types.PayloadVariable), and fail with UnresolvedPayload
// for anything still unresolved once propagation reaches fixpoint. Built on
// the same types.UnionFind the cardinality solver uses, on a separate map.
func resolvePayloads(patch *graph.Patch, reg *registry.Registry, hub *diag.Hub) error {
	uf := types.NewUnionFind()
	concrete := make(map[string]types.Payload)
	var order []string
	var genericKey string

	note := func(key string, payload types.Payload, target diag.TargetRef) error {
		order = append(order, key)
		if payload == types.PayloadVariable {
			// A block's payload-generic ports carry one payload between
			// them, so they share one group.
			if genericKey != "" {
				uf.Union(genericKey, key)
			} else {
				genericKey = key
			}
			return nil
		}
		root := uf.Find(key)
		if existing, ok := concrete[root]; ok && existing != payload {
			return fatal(hub, diag.KindConflictingPayloads, target, "port %s resolves to both payload %q and %q", key, existing, payload)
		}
		concrete[root] = payload
		return nil
	}

	for _, id := range patch.OrderedBlockIDs() {
		b := patch.Blocks[id]
		def, ok := reg.Lookup(b.TypeTag)
		if !ok {
			return fatal(hub, diag.KindMissingRequiredInput, diag.TargetRef{BlockID: string(id)}, "unknown block type %q", b.TypeTag)
		}
		genericKey = ""
		for _, in := range b.Inputs {
			spec := findInputSpec(def, in.ID)
			payload := spec.Payload
			if seeded, ok := b.Params["payload"].(types.Payload); ok && payload == types.PayloadVariable {
				payload = seeded
			}
			if err := note(portKey(id, "in", in.ID), payload, diag.TargetRef{BlockID: string(id), PortID: string(in.ID)}); err != nil {
				return err
			}
		}
		for _, out := range b.Outputs {
			spec := findOutputSpec(def, out.ID)
			payload := spec.Payload
			if seeded, ok := b.Params["payload"].(types.Payload); ok && payload == types.PayloadVariable {
				payload = seeded
			}
			if err := note(portKey(id, "out", out.ID), payload, diag.TargetRef{BlockID: string(id), PortID: string(out.ID)}); err != nil {
				return err
			}
		}
	}

	for _, e := range patch.Edges {
		uf.Union(portKey(e.From.Block, "out", e.From.Port), portKey(e.To.Block, "in", e.To.Port))
	}

	// Re-derive concrete[] roots after unioning, since ensure()/Union() may
	// have changed which key is each group's representative.
	merged := make(map[string]types.Payload)
	for key := range concrete {
		root := uf.Find(key)
		if v, ok := concrete[key]; ok && v != types.PayloadVariable {
			if existing, exists := merged[root]; exists && existing != v {
				return fatal(hub, diag.KindConflictingPayloads, diag.TargetRef{}, "payload group %s resolves to both %q and %q", root, existing, v)
			}
			merged[root] = v
		}
	}

	resolved := make(map[string]types.Payload, len(order))
	for _, key := range order {
		root := uf.Find(key)
		if v, ok := merged[root]; ok {
			resolved[key] = v
		}
	}

	for _, id := range patch.OrderedBlockIDs() {
		b := patch.Blocks[id]
		for _, in := range b.Inputs {
			if p, ok := resolved[portKey(id, "in", in.ID)]; ok {
				in.ResolvedType.Payload = p
			} else if in.ResolvedType.Payload == types.PayloadVariable {
				return fatal(hub, diag.KindUnresolvedPayload, diag.TargetRef{BlockID: string(id), PortID: string(in.ID)}, "input port %s has no concrete payload", in.ID)
			}
		}
		for _, out := range b.Outputs {
			if p, ok := resolved[portKey(id, "out", out.ID)]; ok {
				out.ResolvedType.Payload = p
			} else if out.ResolvedType.Payload == types.PayloadVariable {
				return fatal(hub, diag.KindUnresolvedPayload, diag.TargetRef{BlockID: string(id), PortID: string(out.ID)}, "output port %s has no concrete payload", out.ID)
			}
		}
	}

	return nil
}

func findInputSpec(def *registry.Def, id graph.PortID) registry.InputSpec {
	for _, s := range def.Inputs {
		if s.ID == id {
			return s
		}
	}
	return registry.InputSpec{ID: id}
}

func findOutputSpec(def *registry.Def, id graph.PortID) registry.OutputSpec {
	for _, s := range def.Outputs {
		if s.ID == id {
			return s
		}
	}
	return registry.OutputSpec{ID: id}
}
