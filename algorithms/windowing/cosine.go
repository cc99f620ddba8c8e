package windowing

import "math"

// cosineSum evaluates a0 - a1 cos(x) + a2 cos(2x) - a3 cos(3x) ... over a
// periodic window, which covers hann, hamming, blackman and blackman-harris.
func cosineSum(size int, a ...float64) []float64 {
	coeffs := make([]float64, size)
	denominator := float64(size)

	for i := range size {
		arg := 2 * math.Pi * float64(i) / denominator
		sign := 1.0
		v := 0.0
		for k, ak := range a {
			v += sign * ak * math.Cos(float64(k)*arg)
			sign = -sign
		}
		coeffs[i] = v
	}

	return coeffs
}
