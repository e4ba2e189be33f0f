// Package graph implements the Patch data model from spec.md §3: an
// unordered set of Blocks and a sequence of Edges, with first-class,
// block-nested Ports. Structurally grounded on the teacher's
// core/program.go EntryBlock/InstructionGroup/Operation/Operand shapes
// (ordered structs, string-keyed maps), generalized from a fixed CGRA ISA
// to an arbitrary node-graph patch.
package graph

import (
	"fmt"

	"github.com/rs/xid"
	"github.com/sarchlab/zeonica-animator/internal/types"
)

// BlockID and PortID are stable identifiers assigned by the authoring
// layer. The compiler never invents a BlockID for an authored block, but it
// does synthesize ids (via xid, matching the teacher's id-interning
// conventions) for blocks it inserts itself — default sources and adapters.
type BlockID string
type PortID string

// NewSyntheticID mints a stable id for a compiler-inserted block, grounded
// on the teacher's confignew.NameIDBinding id-interning idiom, generalized
// to a globally unique id via rs/xid rather than a monotonic counter (the
// compiler may run many times over a session and ids must not collide
// across compiles that happen to run concurrently).
func NewSyntheticID(prefix string) BlockID {
	return BlockID(prefix + "-" + xid.New().String())
}

// InputPort is a first-class endpoint on a block. It may carry a default
// source override, a combine mode (port property, not edge property), and
// an ordered lens chain of transformation references bound to specific
// incoming connections.
type InputPort struct {
	ID             PortID
	DefaultSource  *DefaultSource
	CombineMode    types.CombineMode
	LensChain      []LensRef
	ResolvedType   types.CanonicalType
	StaticCard     types.Cardinality // declared by the block def before solving
}

// DefaultSource names a constant/rail source to synthesize for an input
// port with no incoming edge (spec.md §2 pass 2).
type DefaultSource struct {
	Kind  string // "const" or "rail"
	Value any    // literal value for "const"; rail name for "rail"
}

// LensRef is an ordered transformation reference bound to one incoming
// connection on an input port's lens chain.
type LensRef struct {
	EdgeIndex int
	Name      string
	Params    map[string]any
}

// OutputPort is a first-class endpoint a block exposes for edges to
// originate from.
type OutputPort struct {
	ID           PortID
	ResolvedType types.CanonicalType
	StaticCard   types.Cardinality
}

// Block is a node in the patch: identity, type tag, ordered ports, and
// optional user params. Ports are nested in their block; deleting a block
// deletes its ports (enforced by RemoveBlock below).
type Block struct {
	ID       BlockID
	TypeTag  string
	Inputs   []*InputPort
	Outputs  []*OutputPort
	Params   map[string]any
	Synthetic bool // true for compiler-inserted default-source/adapter blocks
}

func (b *Block) Input(id PortID) (*InputPort, bool) {
	for _, p := range b.Inputs {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

func (b *Block) Output(id PortID) (*OutputPort, bool) {
	for _, p := range b.Outputs {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// Endpoint names one side of an Edge.
type Endpoint struct {
	Block BlockID
	Port  PortID
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s.%s", e.Block, e.Port)
}

// Edge is a directed connection from an output port to an input port, plus
// a stable sort key used to make multi-writer combine order deterministic.
type Edge struct {
	From    Endpoint
	To      Endpoint
	SortKey int
}

// Patch is the authoring-layer input to the compiler: an unordered set of
// blocks and a sequence of edges.
type Patch struct {
	ID       string
	Revision int
	Blocks   map[BlockID]*Block
	Edges    []Edge

	nextSortKey int
}

// NewPatch creates an empty patch.
func NewPatch(id string, revision int) *Patch {
	return &Patch{
		ID:       id,
		Revision: revision,
		Blocks:   make(map[BlockID]*Block),
	}
}

// AddBlock inserts a block, rejecting a duplicate id.
func (p *Patch) AddBlock(b *Block) error {
	if _, exists := p.Blocks[b.ID]; exists {
		return fmt.Errorf("duplicate block id %q", b.ID)
	}
	p.Blocks[b.ID] = b
	return nil
}

// RemoveBlock deletes a block and, per the "deleting a block deletes its
// ports" invariant, every edge touching it.
func (p *Patch) RemoveBlock(id BlockID) {
	delete(p.Blocks, id)
	kept := p.Edges[:0]
	for _, e := range p.Edges {
		if e.From.Block == id || e.To.Block == id {
			continue
		}
		kept = append(kept, e)
	}
	p.Edges = kept
}

// AddEdge appends an edge with the next stable sort key, rejecting
// duplicate (from, to) pairs and edges referring to nonexistent ports.
func (p *Patch) AddEdge(from, to Endpoint) error {
	fromBlock, ok := p.Blocks[from.Block]
	if !ok {
		return fmt.Errorf("edge references nonexistent block %q", from.Block)
	}
	if _, ok := fromBlock.Output(from.Port); !ok {
		return fmt.Errorf("edge references nonexistent output port %s", from)
	}
	toBlock, ok := p.Blocks[to.Block]
	if !ok {
		return fmt.Errorf("edge references nonexistent block %q", to.Block)
	}
	if _, ok := toBlock.Input(to.Port); !ok {
		return fmt.Errorf("edge references nonexistent input port %s", to)
	}
	for _, e := range p.Edges {
		if e.From == from && e.To == to {
			return fmt.Errorf("duplicate edge %s -> %s", from, to)
		}
	}
	p.Edges = append(p.Edges, Edge{From: from, To: to, SortKey: p.nextSortKey})
	p.nextSortKey++
	return nil
}

// EdgesInto returns every edge targeting the given input port, in stable
// sort-key order (insertion order).
func (p *Patch) EdgesInto(to Endpoint) []Edge {
	var out []Edge
	for _, e := range p.Edges {
		if e.To == to {
			out = append(out, e)
		}
	}
	return out
}

// OrderedBlockIDs returns block ids sorted for deterministic iteration;
// grounded on the scheduler's "ties are broken by slot-id" stability rule
// (spec.md §4.5) — graph-level iteration needs the same determinism so
// later compiler passes produce byte-identical output on reruns (§8
// Testable Property 10).
func (p *Patch) OrderedBlockIDs() []BlockID {
	ids := make([]BlockID, 0, len(p.Blocks))
	for id := range p.Blocks {
		ids = append(ids, id)
	}
	// simple insertion sort keeps this dependency-free and deterministic;
	// block counts per patch are small (tens to low hundreds).
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	return ids
}
