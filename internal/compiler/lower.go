package compiler

import (
	"github.com/sarchlab/zeonica-animator/internal/diag"
	"github.com/sarchlab/zeonica-animator/internal/graph"
	"github.com/sarchlab/zeonica-animator/internal/ir"
	"github.com/sarchlab/zeonica-animator/internal/registry"
	"github.com/sarchlab/zeonica-animator/internal/schedule"
	"github.com/sarchlab/zeonica-animator/internal/types"
)

type loweredProgram struct {
	steps      *schedule.Builder
	slots      *schedule.Planner
	blockTypes map[graph.BlockID]string
}

// lowerBlocks is compiler pass 9 (spec.md §4.4). It runs in two rounds: the
// first calls every block's Lower in dependency order (stateful blocks
// produce their output from a stateRead alone, so the round-1 order can —
// and for a feedback loop must — place a stateful block ahead of the
// block that feeds it); the second calls Commit for every stateful block,
// now that every block's output expression exists, to emit its Phase-2
// state-write step with the current-frame input it depends on.
func lowerBlocks(patch *graph.Patch, reg *registry.Registry, hub *diag.Hub, order []graph.BlockID, irb *ir.Builder) (*loweredProgram, error) {
	stepsB := schedule.NewBuilder()
	slotsP := schedule.NewPlanner()
	nextSlot := 0

	outputExprs := make(map[graph.Endpoint]ir.ExprId)
	blockTypes := make(map[graph.BlockID]string, len(order))
	defs := make(map[graph.BlockID]*registry.Def, len(order))

	for _, id := range order {
		b := patch.Blocks[id]
		def, ok := reg.Lookup(b.TypeTag)
		if !ok {
			return nil, fatal(hub, diag.KindMissingRequiredInput, diag.TargetRef{BlockID: string(id)}, "unknown block type %q", b.TypeTag)
		}
		defs[id] = def
		blockTypes[id] = b.TypeTag

		inputExprs, inputTypes, err := gatherInputs(patch, irb, outputExprs, b, hub)
		if err != nil {
			return nil, err
		}
		outputTypes := make(map[graph.PortID]types.CanonicalType, len(b.Outputs))
		for _, o := range b.Outputs {
			outputTypes[o.ID] = o.ResolvedType
		}

		ctx := registry.NewLowerContext(b, inputExprs, inputTypes, outputTypes, b.Params, irb, stepsB, slotsP, &nextSlot)
		result, err := def.Lower(ctx)
		if err != nil {
			return nil, fatal(hub, diag.KindNotImplemented, diag.TargetRef{BlockID: string(id)}, "%s block %s failed to lower: %s", registry.HumanizeName(b.TypeTag), id, err.Error())
		}
		for port, expr := range result.Outputs {
			outputExprs[graph.Endpoint{Block: id, Port: port}] = expr
		}
	}

	for _, id := range order {
		def := defs[id]
		if def.Commit == nil {
			continue
		}
		b := patch.Blocks[id]
		inputExprs, inputTypes, err := gatherInputs(patch, irb, outputExprs, b, hub)
		if err != nil {
			return nil, err
		}
		outputTypes := make(map[graph.PortID]types.CanonicalType, len(b.Outputs))
		for _, o := range b.Outputs {
			outputTypes[o.ID] = o.ResolvedType
		}
		ctx := registry.NewLowerContext(b, inputExprs, inputTypes, outputTypes, b.Params, irb, stepsB, slotsP, &nextSlot)
		if err := def.Commit(ctx); err != nil {
			return nil, fatal(hub, diag.KindNotImplemented, diag.TargetRef{BlockID: string(id)}, "block %s failed to commit: %s", id, err.Error())
		}
	}

	return &loweredProgram{steps: stepsB, slots: slotsP, blockTypes: blockTypes}, nil
}

// gatherInputs resolves one block's input expressions from whatever
// upstream output expressions already exist. A port fed by more than one
// edge is combined via its resolved combine-mode's signal-kernel opcode
// (spec.md §4.8's combine_{sum,average,max,min,last} family); a port fed
// by exactly one edge passes that edge's expression through untouched.
func gatherInputs(patch *graph.Patch, irb *ir.Builder, outputExprs map[graph.Endpoint]ir.ExprId, b *graph.Block, hub *diag.Hub) (map[graph.PortID]ir.ExprId, map[graph.PortID]types.CanonicalType, error) {
	inputExprs := make(map[graph.PortID]ir.ExprId, len(b.Inputs))
	inputTypes := make(map[graph.PortID]types.CanonicalType, len(b.Inputs))

	for _, in := range b.Inputs {
		inputTypes[in.ID] = in.ResolvedType
		edges := patch.EdgesInto(graph.Endpoint{Block: b.ID, Port: in.ID})
		if len(edges) == 0 {
			return nil, nil, fatal(hub, diag.KindMissingRequiredInput, diag.TargetRef{BlockID: string(b.ID), PortID: string(in.ID)}, "input port %s has no source after default-source materialization", in.ID)
		}

		var exprs []ir.ExprId
		for _, e := range edges {
			expr, ok := outputExprs[e.From]
			if !ok {
				continue
			}
			exprs = append(exprs, expr)
		}
		if len(exprs) == 0 {
			continue // not yet available in this round; filled in by a later round
		}
		if len(exprs) == 1 {
			inputExprs[in.ID] = exprs[0]
			continue
		}
		mode := in.CombineMode
		if mode == types.CombineNone {
			mode = types.CombineLast
		}
		inputExprs[in.ID] = irb.Opcode(in.ResolvedType, "combine_"+string(mode), exprs...)
	}

	return inputExprs, inputTypes, nil
}
