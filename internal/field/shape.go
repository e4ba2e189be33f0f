package field

import "errors"

// ErrNotImplemented is returned by MaterializeShapeField. The source this
// spec was distilled from carries partially-implemented per-particle shape
// descriptor support; spec.md §9 resolves the ambiguity by requiring a
// loud, explicit failure rather than silently falling back to a default
// shape.
var ErrNotImplemented = errors.New("field: per-particle shape2d materialization is not implemented")

// MaterializeShapeField would resolve a per-instance (cardinality many)
// shape2d field — each lane picking its own topology rather than sharing
// one shape slot across the whole render pass. Until that lands, any block
// or pass requesting it must fail closed.
func MaterializeShapeField(id int) ([]float64, error) {
	return nil, ErrNotImplemented
}
