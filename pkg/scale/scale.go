// Package scale maps data values to pixel positions, sizes and colors.
//
// The scales follow the usual charting conventions: a continuous scale
// interpolates a numeric domain onto a numeric range, a band scale divides a
// range into equal slots for ordered categories, and an ordinal scale cycles a
// palette over categories in the order they are first seen. NaN domains and
// inputs are never masked: they map to NaN.
package scale

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Extent returns [min, max] of values. If any value is NaN, or values is
// empty, both bounds are NaN.
func Extent(values []float64) (lo, hi float64) {
	if len(values) == 0 || floats.HasNaN(values) {
		return math.NaN(), math.NaN()
	}
	return floats.Min(values), floats.Max(values)
}

// Max returns the largest value, NaN if any value is NaN or values is empty.
func Max(values []float64) float64 {
	_, hi := Extent(values)
	return hi
}

// interpolate maps t in [0, 1] onto [a, b].
func interpolate(a, b, t float64) float64 {
	return a*(1-t) + b*t
}

// normalize maps x in [a, b] onto [0, 1]. A degenerate domain normalizes to
// 0.5 so every value lands in the middle of the range.
func normalize(a, b, x float64) float64 {
	d := b - a
	if math.IsNaN(d) {
		return math.NaN()
	}
	if d == 0 {
		return 0.5
	}
	return (x - a) / d
}
