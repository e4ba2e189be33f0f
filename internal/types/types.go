// Package types defines the canonical type system described in spec.md §3:
// a canonical type is the triple (payload, unit, extent), and two types are
// equal only when all three components are equal.
package types

import "fmt"

// Payload enumerates the concrete payload kinds a port can carry, plus a
// Variable placeholder used before payload resolution (spec.md §2 pass 1).
type Payload string

const (
	PayloadVariable          Payload = ""
	PayloadFloat             Payload = "float"
	PayloadInt               Payload = "int"
	PayloadBool              Payload = "bool"
	PayloadVec2              Payload = "vec2"
	PayloadVec3              Payload = "vec3"
	PayloadColor             Payload = "color"
	PayloadShape2D           Payload = "shape2d"
	PayloadCameraProjection  Payload = "cameraProjection"
)

// StrideOf returns the number of float64 lanes one element of a payload
// occupies in a packed field buffer: scalars and ints take one, vectors and
// colors take their component count, shape2d is handled by its own
// word-packed bank (§6) and never appears in a field buffer.
func StrideOf(p Payload) int {
	switch p {
	case PayloadVec2:
		return 2
	case PayloadVec3:
		return 3
	case PayloadColor:
		return 4
	default:
		return 1
	}
}

// Unit enumerates unit tags, keyed by payload (radians vs turns, norm01 vs
// scalar, HSL vs RGBA, …). UnitVariable means "not yet resolved".
type Unit string

const (
	UnitVariable Unit = ""
	UnitScalar   Unit = "scalar"
	UnitNorm01   Unit = "norm01"
	UnitRadians  Unit = "radians"
	UnitTurns    Unit = "turns"
	UnitPhase    Unit = "phase"
	UnitHSL      Unit = "hsl"
	UnitRGBA01   Unit = "rgba01"
)

// Cardinality is the extent component: one value per frame (signal), or N
// values per frame keyed to an instance domain (field).
type Cardinality int

const (
	CardinalityVariable Cardinality = iota
	CardinalityOne
	CardinalityMany
)

func (c Cardinality) String() string {
	switch c {
	case CardinalityOne:
		return "one"
	case CardinalityMany:
		return "many"
	default:
		return "variable"
	}
}

// Extent carries cardinality and, for fields, the name of the instance
// domain the field is keyed to.
type Extent struct {
	Cardinality Cardinality
	DomainTag   string // only meaningful when Cardinality == CardinalityMany
}

func (e Extent) IsResolved() bool {
	return e.Cardinality != CardinalityVariable
}

// Equal compares two extents for canonical-type equality: cardinality must
// match, and for "many" extents the domain tag must also match (fields are
// co-located only if they tag the same domain, per spec.md §3).
func (e Extent) Equal(o Extent) bool {
	if e.Cardinality != o.Cardinality {
		return false
	}
	if e.Cardinality == CardinalityMany {
		return e.DomainTag == o.DomainTag
	}
	return true
}

// CanonicalType is the (payload, unit, extent) triple. Equality requires
// all three components equal.
type CanonicalType struct {
	Payload Payload
	Unit    Unit
	Extent  Extent
}

func (t CanonicalType) Equal(o CanonicalType) bool {
	return t.Payload == o.Payload && t.Unit == o.Unit && t.Extent.Equal(o.Extent)
}

func (t CanonicalType) IsResolved() bool {
	return t.Payload != PayloadVariable && t.Unit != UnitVariable && t.Extent.IsResolved()
}

func (t CanonicalType) String() string {
	return fmt.Sprintf("%s/%s/%s", t.Payload, t.Unit, t.Extent.Cardinality)
}

// CombineMode determines how multiple edges writing the same input port are
// aggregated. It is a property of the port, not of individual edges
// (spec.md §3 invariant).
type CombineMode string

const (
	CombineNone    CombineMode = ""
	CombineSum     CombineMode = "sum"
	CombineAverage CombineMode = "average"
	CombineMax     CombineMode = "max"
	CombineMin     CombineMode = "min"
	CombineLast    CombineMode = "last"
	CombineOr      CombineMode = "or"
	CombineAnd     CombineMode = "and"
	CombineLayer   CombineMode = "layer"
)

// ValidateCombineMode enforces the canonical combine-mode rules from
// spec.md §9 ("the source's combine-mode validation is not uniformly
// enforced ... treat the canonical rules as authoritative"): no sum on
// color; or/and only for bool; layer only for color.
func ValidateCombineMode(mode CombineMode, payload Payload) error {
	switch mode {
	case CombineNone:
		return nil
	case CombineSum, CombineAverage, CombineMax, CombineMin:
		if payload == PayloadColor {
			return fmt.Errorf("combine mode %q is not allowed for payload %q", mode, payload)
		}
		return nil
	case CombineOr, CombineAnd:
		if payload != PayloadBool {
			return fmt.Errorf("combine mode %q is only allowed for payload %q, got %q", mode, PayloadBool, payload)
		}
		return nil
	case CombineLayer:
		if payload != PayloadColor {
			return fmt.Errorf("combine mode %q is only allowed for payload %q, got %q", mode, PayloadColor, payload)
		}
		return nil
	case CombineLast:
		return nil
	default:
		return fmt.Errorf("unknown combine mode %q", mode)
	}
}

// KnownUnitConversion reports whether a conversion is known between two
// units of the same payload (spec.md §4.3), and whether it needs an adapter
// block. Equal units need none; turns<->radians, phase<->norm01 and
// HSL<->RGBA01 are known and need an adapter block; anything else is
// unknown.
func KnownUnitConversion(payload Payload, from, to Unit) (known bool, needsAdapter bool) {
	if from == to {
		return true, false
	}
	switch payload {
	case PayloadFloat:
		switch {
		case (from == UnitTurns && to == UnitRadians) || (from == UnitRadians && to == UnitTurns):
			return true, true
		case (from == UnitPhase && to == UnitNorm01) || (from == UnitNorm01 && to == UnitPhase):
			return true, true
		}
	case PayloadColor:
		if (from == UnitHSL && to == UnitRGBA01) || (from == UnitRGBA01 && to == UnitHSL) {
			return true, true
		}
	}
	return false, false
}
