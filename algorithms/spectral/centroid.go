package spectral

import "gonum.org/v1/gonum/floats"

// Centroid returns the magnitude-weighted mean frequency of a spectrum in
// Hz, where bin k sits at k*binWidth. A silent spectrum has centroid 0.
func Centroid(spectrum []float64, binWidth float64) float64 {
	total := floats.Sum(spectrum)
	if total == 0 {
		return 0
	}

	weighted := 0.0
	for k, mag := range spectrum {
		weighted += float64(k) * mag
	}
	return weighted / total * binWidth
}
