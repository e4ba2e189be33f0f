package opcode

import "math"

// registerUnitAdapters installs the scalar conversions the unit solver's
// inserted UnitAdapter blocks reference by name (spec.md §4.3's known
// conversions: turns<->radians, phase<->norm01). HSL<->RGBA01 is a
// multi-component color conversion; the adapter unpacks it into h/s/l/a (or
// r/g/b/a) before reaching this table and calls the "hsvToRgb"/"rgbToHsv"
// field kernel instead, so no color entry belongs here.
func registerUnitAdapters() {
	unary("turnsToRadians", func(t float64) float64 { return t * 2 * math.Pi })
	unary("radiansToTurns", func(r float64) float64 { return r / (2 * math.Pi) })
	unary("phaseToNorm01", func(p float64) float64 { return wrapUnit(p) })
	unary("norm01ToPhase", func(n float64) float64 { return wrapUnit(n) })
	unary("identity", func(v float64) float64 { return v })
}
