package filters

import (
	"fmt"
	"math"
)

// DCBlocker is a one-pole DC blocking high-pass:
//
//	y[n] = x[n] - x[n-1] + R*y[n-1]
//
// with R = 1 - 2*pi*fc/fs. State carries across calls, so a stream must be
// fed in order and Reset between unrelated signals.
type DCBlocker struct {
	pole float64
	x1   float64
	y1   float64
}

// NewDCBlocker creates a blocker with a -3 dB point near cutoffHz
func NewDCBlocker(sampleRate int, cutoffHz float64) (*DCBlocker, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	if !(cutoffHz > 0) || cutoffHz >= float64(sampleRate)/2 {
		return nil, fmt.Errorf("cutoff must be within (0, %g) Hz, got %g", float64(sampleRate)/2, cutoffHz)
	}

	pole := 1 - 2*math.Pi*cutoffHz/float64(sampleRate)
	return &DCBlocker{pole: max(0.001, min(0.999, pole))}, nil
}

// Process filters one sample
func (dc *DCBlocker) Process(x float64) float64 {
	y := x - dc.x1 + dc.pole*dc.y1
	dc.x1 = x
	dc.y1 = y
	return y
}

// ProcessBuffer filters samples into a new slice
func (dc *DCBlocker) ProcessBuffer(samples []float64) []float64 {
	out := make([]float64, len(samples))
	for i, x := range samples {
		out[i] = dc.Process(x)
	}
	return out
}

// Reset clears the filter state
func (dc *DCBlocker) Reset() {
	dc.x1, dc.y1 = 0, 0
}

// Pole returns R
func (dc *DCBlocker) Pole() float64 {
	return dc.pole
}

// CutoffHz returns the approximate -3 dB frequency for the given rate
func (dc *DCBlocker) CutoffHz(sampleRate int) float64 {
	return (1 - dc.pole) * float64(sampleRate) / (2 * math.Pi)
}
