package windowing

import "math"

// bartlett is the periodic triangle window: zero at i=0, peak 1 at size/2
func bartlett(size int) []float64 {
	coeffs := make([]float64, size)
	half := float64(size) / 2

	for i := range size {
		coeffs[i] = 1.0 - math.Abs(float64(i)-half)/half
	}

	return coeffs
}

func rectangular(size int) []float64 {
	coeffs := make([]float64, size)
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	return coeffs
}
