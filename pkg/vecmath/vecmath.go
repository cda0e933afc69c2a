// Package vecmath provides the small set of vector primitives used by the
// competitive-learning network.
package vecmath

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Epsilon is the floor applied to squared lengths before taking a root, so
// near-zero vectors normalize to something finite.
const Epsilon = 1e-30

// SquaredLength returns the sum of squares of v.
func SquaredLength(v []float64) float64 {
	return floats.Dot(v, v)
}

// Magnitude returns the Euclidean length of v, floored at sqrt(Epsilon).
func Magnitude(v []float64) float64 {
	return math.Sqrt(max(SquaredLength(v), Epsilon))
}

// Normalize scales v in place to unit length.
func Normalize(v []float64) {
	floats.Scale(1/Magnitude(v), v)
}

// Dot returns the dot product of a and b. It panics if the lengths differ.
func Dot(a, b []float64) float64 {
	return floats.Dot(a, b)
}

// Clamp limits d to [lo, hi].
func Clamp(d, lo, hi float64) float64 {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}

// Bipolar maps d to -1 when it is not positive and +1 otherwise.
func Bipolar(d float64) float64 {
	if d <= 0 {
		return -1
	}
	return 1
}

// UnitInterval maps a bipolar similarity in [-1, 1] onto [0, 1].
func UnitInterval(d float64) float64 {
	return (d + 1) / 2
}
