// Package waveform lays a magnitude spectrum out as log-scaled bars for a
// renderer: bar geometry, stroke thickness and pass-band membership, plus
// the x positions of the low and high filter markers.
package waveform

import (
	"math"

	"github.com/RyanBlaney/sonido-ripple/algorithms/common"
	"github.com/RyanBlaney/sonido-ripple/algorithms/spectral"
)

// Config scales the layout
type Config struct {
	AmplitudeScale float64 `json:"amplitude_scale"`
	BaseThickness  float64 `json:"base_thickness"`
}

// DefaultConfig returns unit scale with a 1px base stroke
func DefaultConfig() Config {
	return Config{AmplitudeScale: 1, BaseThickness: 1}
}

// Validate rejects negative or non-finite scales
func (c Config) Validate() error {
	if !(c.AmplitudeScale >= 0) || math.IsInf(c.AmplitudeScale, 0) {
		return &spectral.ConfigurationError{Field: "amplitude_scale", Value: c.AmplitudeScale, Reason: "must be finite and non-negative"}
	}
	if !(c.BaseThickness > 0) || math.IsInf(c.BaseThickness, 0) {
		return &spectral.ConfigurationError{Field: "base_thickness", Value: c.BaseThickness, Reason: "must be positive and finite"}
	}
	return nil
}

// Bar is one spectrum bin. It spans [X, X+Width) horizontally and
// [-HalfHeight, HalfHeight] vertically around the baseline.
type Bar struct {
	Bin        int
	X          float64
	Width      float64
	HalfHeight float64
	Thickness  float64
	InPassBand bool
}

// Layout is the drawable description of one spectrum
type Layout struct {
	Bars []Bar
	// Extent is log10(bin count), the x of the last bin
	Extent float64
	// Origin centres the layout horizontally
	Origin    float64
	LowPassX  float64
	HighPassX float64
}

// Build computes the layout. Bin i sits at x = log10(1+i), so x/Extent is
// the bin's log-index position and lines up with the pass filter. Low bins
// are drawn with thicker strokes: 2^floor(8*(1-x/Extent)) * BaseThickness.
func Build(spectrum []float64, filter spectral.PassFilter, config Config) (*Layout, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	n := len(spectrum)
	if n < 2 {
		return nil, &spectral.ShapeMismatchError{Want: 2, Got: n}
	}

	extent := math.Log10(float64(n))
	layout := &Layout{
		Bars:      make([]Bar, n),
		Extent:    extent,
		Origin:    -extent / 2,
		LowPassX:  common.Map(filter.Low, 0, 1, 0, extent),
		HighPassX: common.Map(filter.High, 0, 1, 0, extent),
	}

	for i, mag := range spectrum {
		x := math.Log10(float64(1 + i))
		position := spectral.LogPosition(i, n)
		layout.Bars[i] = Bar{
			Bin:        i,
			X:          x,
			Width:      math.Log10(float64(2+i)) - x,
			HalfHeight: mag * config.AmplitudeScale,
			Thickness:  math.Pow(2, math.Floor(8*(1-position))) * config.BaseThickness,
			InPassBand: position >= filter.Low && position <= filter.High,
		}
	}

	return layout, nil
}

// PassBandCount returns how many bars fall inside the pass filter
func (l *Layout) PassBandCount() int {
	count := 0
	for _, b := range l.Bars {
		if b.InPassBand {
			count++
		}
	}
	return count
}
