package windowing

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// Type names a window function. The set mirrors the choices a real-time
// spectrum front-end usually offers.
type Type string

const (
	Rectangular    Type = "rectangular"
	Triangle       Type = "triangle"
	Hamming        Type = "hamming"
	Hann           Type = "hann"
	Blackman       Type = "blackman"
	BlackmanHarris Type = "blackman_harris"
)

// Types lists every supported window type
func Types() []Type {
	return []Type{Rectangular, Triangle, Hamming, Hann, Blackman, BlackmanHarris}
}

// ParseType accepts the canonical names plus a few common aliases
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rectangular", "rect", "none":
		return Rectangular, nil
	case "triangle", "bartlett":
		return Triangle, nil
	case "hamming":
		return Hamming, nil
	case "hann", "hanning":
		return Hann, nil
	case "blackman":
		return Blackman, nil
	case "", "blackman_harris", "blackmanharris", "blackman-harris":
		return BlackmanHarris, nil
	default:
		return "", fmt.Errorf("unknown window type %q", s)
	}
}

// Window holds precomputed periodic window coefficients
type Window struct {
	kind         Type
	coefficients []float64
	gain         float64
}

// New builds a window of the given type and size
func New(kind Type, size int) (*Window, error) {
	if size < 2 {
		return nil, fmt.Errorf("window size must be at least 2, got %d", size)
	}

	var coeffs []float64
	switch kind {
	case Rectangular:
		coeffs = rectangular(size)
	case Triangle:
		coeffs = bartlett(size)
	case Hamming:
		coeffs = cosineSum(size, 0.54, 0.46)
	case Hann:
		coeffs = cosineSum(size, 0.5, 0.5)
	case Blackman:
		coeffs = cosineSum(size, 0.42, 0.5, 0.08)
	case BlackmanHarris:
		coeffs = cosineSum(size, 0.35875, 0.48829, 0.14128, 0.01168)
	default:
		return nil, fmt.Errorf("unsupported window type %q", kind)
	}

	return &Window{
		kind:         kind,
		coefficients: coeffs,
		gain:         stat.Mean(coeffs, nil),
	}, nil
}

// Apply applies the window to a signal (creates new array)
func (w *Window) Apply(signal []float64) ([]float64, error) {
	windowed := make([]float64, len(signal))
	copy(windowed, signal)
	if err := w.ApplyInPlace(windowed); err != nil {
		return nil, err
	}
	return windowed, nil
}

// ApplyInPlace applies the window to a signal in-place
func (w *Window) ApplyInPlace(signal []float64) error {
	if len(signal) != len(w.coefficients) {
		return fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), len(w.coefficients))
	}

	for i, c := range w.coefficients {
		signal[i] *= c
	}

	return nil
}

// Coefficients returns a copy of the window coefficients
func (w *Window) Coefficients() []float64 {
	coeffs := make([]float64, len(w.coefficients))
	copy(coeffs, w.coefficients)
	return coeffs
}

// CoherentGain is the mean coefficient, used to undo the window's amplitude loss
func (w *Window) CoherentGain() float64 {
	return w.gain
}

// Size returns the window size
func (w *Window) Size() int {
	return len(w.coefficients)
}

// Type returns the window type
func (w *Window) Type() Type {
	return w.kind
}
