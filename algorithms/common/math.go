package common

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Small numeric helpers shared by the spectral and visual packages.
// Anything that touches a whole slice goes through gonum.

// RMS calculates root mean square
func RMS(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return math.Sqrt(floats.Dot(data, data) / float64(len(data)))
}

// MinMax returns the smallest and largest element. Empty input yields (+Inf, -Inf).
func MinMax(data []float64) (lo, hi float64) {
	if len(data) == 0 {
		return math.Inf(1), math.Inf(-1)
	}
	return floats.Min(data), floats.Max(data)
}

// Clamp constrains a value to a range
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// ClampInt constrains an int to [min, max]
func ClampInt(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Lerp performs linear interpolation between two values
func Lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// InverseLerp returns t such that Lerp(a, b, t) == v. Returns 0 when a == b.
func InverseLerp(a, b, v float64) float64 {
	if a == b {
		return 0
	}
	return (v - a) / (b - a)
}

// Map rescales value from [fromLo, fromHi] onto [toLo, toHi] without clamping.
func Map(value, fromLo, fromHi, toLo, toHi float64) float64 {
	return Lerp(toLo, toHi, InverseLerp(fromLo, fromHi, value))
}

// IsPowerOfTwo checks if n is a power of 2
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
