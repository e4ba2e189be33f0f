// Package ir implements the hash-consed expression DAG from spec.md §3/§4.4:
// ValueExpr (scalar-or-vector per frame) and FieldExpr (N lanes per frame)
// nodes, interned so identical subtrees share one ExprId across a whole
// compilation. Grounded in idiom on the teacher's confignew.NameIDBinding
// (string -> small int interning), extended here with a structural-hash key
// so two requests for "the same expression" collapse to one id, per spec.md
// §9 "Hash-consing" design note.
package ir

import (
	"fmt"
	"strings"

	"github.com/sarchlab/zeonica-animator/internal/types"
)

// ExprId is the hash-consed identifier for an expression subtree.
type ExprId int

// Family distinguishes the two expression node families named in spec.md §3.
type Family int

const (
	FamilyValue Family = iota
	FamilyField
)

// Op names the operation an expression node performs. The zero value is
// never valid; every node constructed through Builder carries a concrete Op.
type Op string

const (
	OpConst       Op = "const"
	OpSlotRead    Op = "slotRead"
	OpStateRead   Op = "stateRead"
	OpOpcode      Op = "opcode"      // scalar math / signal kernel application
	OpKernelMap   Op = "kernelMap"   // field: apply scalar fn per lane
	OpKernelZip   Op = "kernelZip"   // field: combine N field/signal inputs per lane
	OpBroadcast   Op = "broadcast"   // signal -> field broadcast
	OpConstruct   Op = "construct"   // build a vector/color from components
	OpExtract     Op = "extract"     // pull a component out of a vector/color
	OpShapeRef    Op = "sigShapeRef" // reference to a packed shape2d slot
	OpIntrinsic   Op = "intrinsic"   // field intrinsic: index, normalizedIndex, randomId
	OpLayoutKernel Op = "layoutKernel"
)

// Expr is one hash-consed node. Two nodes with identical (Family, Op, Type,
// Literal, SlotID, Children, Name) values are always interned to the same
// ExprId.
type Expr struct {
	ID       ExprId
	Family   Family
	Op       Op
	Type     types.CanonicalType
	Name     string // opcode name / kernel name / intrinsic name / slot class
	Literal  any    // constant payload, for OpConst
	SlotID   int    // for OpSlotRead/OpStateRead/OpShapeRef
	Children []ExprId
}

// key returns the structural identity string used for interning. Two exprs
// with the same key are guaranteed semantically identical because every
// field that can vary behavior is included.
func (e Expr) key() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d|%s|%s@%s|%s|%v|%d|", e.Family, e.Op, e.Type.String(), e.Type.Extent.DomainTag, e.Name, e.Literal, e.SlotID)
	for _, c := range e.Children {
		fmt.Fprintf(&b, "%d,", c)
	}
	return b.String()
}

// Builder interns expressions for one compilation. A fresh Builder must be
// created per compile so ExprIds are stable within, but not necessarily
// across, distinct CompiledPrograms (offsets/ids are only required to be
// stable across recompiles for slots tied to a stable StateId/TargetId, per
// spec.md §4.6 — expression ids are an internal compiler artifact, not a
// stability contract).
type Builder struct {
	byKey map[string]ExprId
	nodes []Expr
}

func NewBuilder() *Builder {
	return &Builder{byKey: make(map[string]ExprId)}
}

// intern returns the existing id for an equal node, or allocates and stores
// a new one. This is the single chokepoint that makes hash-consing total:
// every constructor below funnels through it.
func (b *Builder) intern(e Expr) ExprId {
	k := e.key()
	if id, ok := b.byKey[k]; ok {
		return id
	}
	id := ExprId(len(b.nodes))
	e.ID = id
	b.nodes = append(b.nodes, e)
	b.byKey[k] = id
	return id
}

// Node returns the interned Expr for an id.
func (b *Builder) Node(id ExprId) Expr {
	return b.nodes[id]
}

// Len returns the number of distinct interned expressions.
func (b *Builder) Len() int {
	return len(b.nodes)
}

// Const interns a constant ValueExpr.
func (b *Builder) Const(t types.CanonicalType, value any) ExprId {
	return b.intern(Expr{Family: FamilyValue, Op: OpConst, Type: t, Literal: value})
}

// SlotRead interns a read of a value slot.
func (b *Builder) SlotRead(t types.CanonicalType, slot int) ExprId {
	return b.intern(Expr{Family: FamilyValue, Op: OpSlotRead, Type: t, SlotID: slot})
}

// StateRead interns a read of a stateful-block's state slot. Per spec.md
// §4.7, this always observes the previous frame's committed value.
func (b *Builder) StateRead(t types.CanonicalType, stateSlot int) ExprId {
	return b.intern(Expr{Family: FamilyValue, Op: OpStateRead, Type: t, SlotID: stateSlot})
}

// Opcode interns a scalar opcode/signal-kernel application over ValueExpr
// children. outType must come from the solver-resolved output type, never a
// static literal (spec.md §4.4 "Enforced rules on lowering code").
func (b *Builder) Opcode(outType types.CanonicalType, name string, args ...ExprId) ExprId {
	return b.intern(Expr{Family: FamilyValue, Op: OpOpcode, Type: outType, Name: name, Children: args})
}

// KernelMap interns a field kernel that maps a scalar function over one or
// more field lanes.
func (b *Builder) KernelMap(outType types.CanonicalType, name string, args ...ExprId) ExprId {
	return b.intern(Expr{Family: FamilyField, Op: OpKernelMap, Type: outType, Name: name, Children: args})
}

// KernelZip interns a field kernel that zips several field/signal inputs
// lane-wise. A kernel-zip with any "many" input must produce "many" — the
// caller is required to pass the solver-resolved outType, which already
// encodes that.
func (b *Builder) KernelZip(outType types.CanonicalType, name string, args ...ExprId) ExprId {
	return b.intern(Expr{Family: FamilyField, Op: OpKernelZip, Type: outType, Name: name, Children: args})
}

// Broadcast interns a signal -> field broadcast of a single ValueExpr child.
func (b *Builder) Broadcast(outType types.CanonicalType, value ExprId) ExprId {
	return b.intern(Expr{Family: FamilyField, Op: OpBroadcast, Type: outType, Children: []ExprId{value}})
}

// Construct interns building a vector/color from scalar components.
func (b *Builder) Construct(outType types.CanonicalType, components ...ExprId) ExprId {
	fam := FamilyValue
	if outType.Extent.Cardinality == types.CardinalityMany {
		fam = FamilyField
	}
	return b.intern(Expr{Family: fam, Op: OpConstruct, Type: outType, Children: components})
}

// Extract interns pulling one named component out of a vector/color.
func (b *Builder) Extract(outType types.CanonicalType, component string, src ExprId) ExprId {
	fam := FamilyValue
	if outType.Extent.Cardinality == types.CardinalityMany {
		fam = FamilyField
	}
	return b.intern(Expr{Family: fam, Op: OpExtract, Type: outType, Name: component, Children: []ExprId{src}})
}

// ShapeRef interns a reference to a packed shape2d slot (§6 "Packed
// shape2d record").
func (b *Builder) ShapeRef(t types.CanonicalType, slot int) ExprId {
	return b.intern(Expr{Family: FamilyValue, Op: OpShapeRef, Type: t, SlotID: slot})
}

// Intrinsic interns a field intrinsic: index, normalizedIndex, or randomId,
// scoped to a named instance domain.
func (b *Builder) Intrinsic(t types.CanonicalType, name string, domainTag string) ExprId {
	return b.intern(Expr{Family: FamilyField, Op: OpIntrinsic, Type: t, Name: name + "@" + domainTag})
}

// LayoutKernel interns a layout kernel (circleLayout, lineLayout,
// gridLayout, polygonVertex, …) producing a field from its arguments.
func (b *Builder) LayoutKernel(outType types.CanonicalType, name string, args ...ExprId) ExprId {
	return b.intern(Expr{Family: FamilyField, Op: OpLayoutKernel, Type: outType, Name: name, Children: args})
}

// DependenciesOf returns the transitive closure of ExprIds that id depends
// on, including id itself. Used by the FieldCache to record a dependency
// set for selective invalidation (spec.md §4.10).
func (b *Builder) DependenciesOf(id ExprId) map[ExprId]bool {
	out := make(map[ExprId]bool)
	var visit func(ExprId)
	visit = func(x ExprId) {
		if out[x] {
			return
		}
		out[x] = true
		for _, c := range b.nodes[x].Children {
			visit(c)
		}
	}
	visit(id)
	return out
}
