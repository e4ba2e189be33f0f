package compiler

import (
	"github.com/sarchlab/zeonica-animator/internal/diag"
	"github.com/sarchlab/zeonica-animator/internal/graph"
	"github.com/sarchlab/zeonica-animator/internal/registry"
	"github.com/sarchlab/zeonica-animator/internal/types"
)

// solveUnits is compiler pass 5 (spec.md §4.3). Units declared concretely
// by a block's Def propagate across unit-polymorphic (pass-through) ports;
// where an edge ends up joining two different concrete units, a known
// conversion is rewritten in-place as a synthetic UnitAdapter block (the
// one structural rewrite this pass is still allowed to make — spec.md
// §4.1's edge/block lock only forbids edits after default-source
// materialization finishes, and adapter insertion is named as its one
// exception).
func solveUnits(patch *graph.Patch, reg *registry.Registry, hub *diag.Hub) error {
	resolved := make(map[string]types.Unit)

	isVariable := func(id graph.BlockID, io string, port graph.PortID, def *registry.Def) bool {
		if io == "in" {
			return findInputSpec(def, port).Unit == types.UnitVariable
		}
		return findOutputSpec(def, port).Unit == types.UnitVariable
	}

	for _, id := range patch.OrderedBlockIDs() {
		b := patch.Blocks[id]
		def, ok := reg.Lookup(b.TypeTag)
		if !ok {
			continue
		}
		for _, in := range b.Inputs {
			if u := findInputSpec(def, in.ID).Unit; u != types.UnitVariable {
				resolved[portKey(id, "in", in.ID)] = u
			}
		}
		for _, out := range b.Outputs {
			if u := findOutputSpec(def, out.ID).Unit; u != types.UnitVariable {
				resolved[portKey(id, "out", out.ID)] = u
			}
		}
	}

	for iter := 0; iter < 4; iter++ {
		changed := false

		for _, e := range patch.Edges {
			fromKey := portKey(e.From.Block, "out", e.From.Port)
			toKey := portKey(e.To.Block, "in", e.To.Port)
			fromBlock := patch.Blocks[e.From.Block]
			toBlock := patch.Blocks[e.To.Block]
			fromDef, _ := reg.Lookup(fromBlock.TypeTag)
			toDef, _ := reg.Lookup(toBlock.TypeTag)

			if fu, ok := resolved[fromKey]; ok {
				if _, ok2 := resolved[toKey]; !ok2 && isVariable(e.To.Block, "in", e.To.Port, toDef) {
					resolved[toKey] = fu
					changed = true
				}
			}
			if tu, ok := resolved[toKey]; ok {
				if _, ok2 := resolved[fromKey]; !ok2 && isVariable(e.From.Block, "out", e.From.Port, fromDef) {
					resolved[fromKey] = tu
					changed = true
				}
			}
		}

		// Ports of the same pass-through block (every port declared
		// unit-variable, e.g. Broadcast, Zip) share one unit: once any one
		// of them resolves, the rest follow.
		for _, id := range patch.OrderedBlockIDs() {
			b := patch.Blocks[id]
			def, ok := reg.Lookup(b.TypeTag)
			if !ok {
				continue
			}
			var found types.Unit
			var keys []string
			for _, in := range b.Inputs {
				if isVariable(id, "in", in.ID, def) {
					k := portKey(id, "in", in.ID)
					keys = append(keys, k)
					if u, ok := resolved[k]; ok && found == "" {
						found = u
					}
				}
			}
			for _, out := range b.Outputs {
				if isVariable(id, "out", out.ID, def) {
					k := portKey(id, "out", out.ID)
					keys = append(keys, k)
					if u, ok := resolved[k]; ok && found == "" {
						found = u
					}
				}
			}
			if found == "" {
				continue
			}
			for _, k := range keys {
				if _, ok := resolved[k]; !ok {
					resolved[k] = found
					changed = true
				}
			}
		}

		if !changed {
			break
		}
	}

	// Resolve edges whose two concrete units differ: insert an adapter, or
	// fail if there is no known conversion.
	var rewrites []edgeRewrite
	for _, e := range patch.Edges {
		fromKey := portKey(e.From.Block, "out", e.From.Port)
		toKey := portKey(e.To.Block, "in", e.To.Port)
		fu, fok := resolved[fromKey]
		tu, tok := resolved[toKey]
		if !fok || !tok || fu == tu {
			continue
		}
		toBlock := patch.Blocks[e.To.Block]
		toInput, _ := toBlock.Input(e.To.Port)
		payload := toInput.ResolvedType.Payload
		known, needsAdapter := types.KnownUnitConversion(payload, fu, tu)
		if !known {
			return fatal(hub, diag.KindNoConversionPath, diag.TargetRef{BlockID: string(e.To.Block), PortID: string(e.To.Port)}, "no conversion from unit %q to %q for payload %q", fu, tu, payload)
		}
		if needsAdapter {
			rewrites = append(rewrites, edgeRewrite{edge: e, from: fu, to: tu, payload: payload})
		}
	}
	for _, rw := range rewrites {
		id := insertAdapter(patch, hub, rw)
		resolved[portKey(id, "in", "in")] = rw.from
		resolved[portKey(id, "out", "out")] = rw.to
	}

	// Anything still unit-variable (an isolated pass-through port with no
	// concrete neighbor) gets a payload-appropriate default rather than
	// failing the whole compile — spec.md §4.3 only requires
	// UnresolvedUnit for ports that matter to a concrete result; an
	// unreachable pass-through port has no observable unit mismatch.
	defaultUnit := func(payload types.Payload) types.Unit {
		if payload == types.PayloadColor {
			return types.UnitRGBA01
		}
		return types.UnitScalar
	}

	for _, id := range patch.OrderedBlockIDs() {
		b := patch.Blocks[id]
		for _, in := range b.Inputs {
			u, ok := resolved[portKey(id, "in", in.ID)]
			if !ok {
				u = defaultUnit(in.ResolvedType.Payload)
			}
			in.ResolvedType.Unit = u
		}
		for _, out := range b.Outputs {
			u, ok := resolved[portKey(id, "out", out.ID)]
			if !ok {
				u = defaultUnit(out.ResolvedType.Payload)
			}
			out.ResolvedType.Unit = u
		}
	}

	return nil
}

type edgeRewrite struct {
	edge    graph.Edge
	from    types.Unit
	to      types.Unit
	payload types.Payload
}

func adapterOpcode(payload types.Payload, from, to types.Unit) string {
	switch {
	case payload == types.PayloadFloat && from == types.UnitTurns && to == types.UnitRadians:
		return "turnsToRadians"
	case payload == types.PayloadFloat && from == types.UnitRadians && to == types.UnitTurns:
		return "radiansToTurns"
	case payload == types.PayloadFloat && from == types.UnitPhase && to == types.UnitNorm01:
		return "phaseToNorm01"
	case payload == types.PayloadFloat && from == types.UnitNorm01 && to == types.UnitPhase:
		return "norm01ToPhase"
	case payload == types.PayloadColor && from == types.UnitHSL && to == types.UnitRGBA01:
		return "hsvToRgb"
	case payload == types.PayloadColor && from == types.UnitRGBA01 && to == types.UnitHSL:
		return "rgbToHsv"
	default:
		return "identity"
	}
}

// insertAdapter runs after payload and cardinality are already resolved
// (pass 5 runs after pass 4), so the synthetic adapter's ports cannot go
// through those earlier passes again; its resolved types are derived
// directly from the edge it is splicing into, with only the unit swapped.
func insertAdapter(patch *graph.Patch, hub *diag.Hub, rw edgeRewrite) graph.BlockID {
	id := graph.NewSyntheticID("adapter")

	fromBlock := patch.Blocks[rw.edge.From.Block]
	fromOut, _ := fromBlock.Output(rw.edge.From.Port)
	toBlock := patch.Blocks[rw.edge.To.Block]
	toIn, _ := toBlock.Input(rw.edge.To.Port)

	inType := fromOut.ResolvedType
	inType.Unit = rw.from
	outType := toIn.ResolvedType
	outType.Unit = rw.to

	block := &graph.Block{
		ID:        id,
		TypeTag:   "UnitAdapter",
		Synthetic: true,
		Params:    map[string]any{"opcode": adapterOpcode(rw.payload, rw.from, rw.to)},
		Inputs:    []*graph.InputPort{{ID: "in", ResolvedType: inType, StaticCard: inType.Extent.Cardinality}},
		Outputs:   []*graph.OutputPort{{ID: "out", ResolvedType: outType, StaticCard: outType.Extent.Cardinality}},
	}
	_ = patch.AddBlock(block)

	kept := patch.Edges[:0]
	for _, e := range patch.Edges {
		if e.From == rw.edge.From && e.To == rw.edge.To {
			continue
		}
		kept = append(kept, e)
	}
	patch.Edges = kept

	_ = patch.AddEdge(rw.edge.From, graph.Endpoint{Block: id, Port: "in"})
	_ = patch.AddEdge(graph.Endpoint{Block: id, Port: "out"}, rw.edge.To)

	infof(hub, diag.KindAdapterInserted, diag.TargetRef{BlockID: string(id)}, "inserted unit adapter %s on edge %s -> %s (%s -> %s)", id, rw.edge.From, rw.edge.To, rw.from, rw.to)
	return id
}
