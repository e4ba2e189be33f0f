package field

import (
	"fmt"
	"sort"

	"github.com/sarchlab/zeonica-animator/internal/opcode"
)

// CheckCoverage enforces spec.md §4.8's rule ("exactly one opcode
// definition per behavior... the field-expression evaluator and the signal
// evaluator must agree on every opcode or fail closed"): a KernelMap/
// KernelZip node dispatches to the opcode table when the name is known
// there, falling back to this package's field-only kernel table otherwise
// (internal/field/materialize.go). That fallback is only safe if the two
// tables never register the same name — a collision would mean the two
// evaluators silently disagree about which definition of a shared name
// wins. Call this once at startup (compiler/runtime wiring) so a collision
// is a fatal, load-time error rather than a silent divergence discovered at
// render time.
func CheckCoverage() error {
	var collisions []string
	for name := range kernels {
		if opcode.Known(name) {
			collisions = append(collisions, name)
		}
	}
	if len(collisions) == 0 {
		return nil
	}
	sort.Strings(collisions)
	return fmt.Errorf("field: opcode and field-kernel tables both define %v — exactly one evaluator must own each name", collisions)
}
