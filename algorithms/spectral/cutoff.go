package spectral

import (
	"math"

	"github.com/RyanBlaney/sonido-ripple/algorithms/common"
)

// MapCutoffToIndex maps a [0,1] slider value onto a bin index in
// [0, channelCount-1] on a logarithmic scale: index+1 = channelCount^percent.
// Low slider values move slowly through the low bins and quickly through
// the high ones, which is how pitch is perceived.
func MapCutoffToIndex(percent float64, channelCount int) int {
	if channelCount <= 1 {
		return 0
	}

	percent = common.Clamp(percent, 0, 1)
	scaled := math.Exp(common.Lerp(math.Log(1), math.Log(float64(channelCount)), percent))

	return common.ClampInt(int(math.Round(scaled))-1, 0, channelCount-1)
}

// LogPosition is the inverse of MapCutoffToIndex: the [0,1] position of a
// bin index in log-index space.
func LogPosition(index, channelCount int) float64 {
	if channelCount <= 1 {
		return 0
	}

	index = common.ClampInt(index, 0, channelCount-1)
	return math.Log(float64(index)+1) / math.Log(float64(channelCount))
}

// PassFilter is a low/high cutoff pair in log-index space. A position passes
// when Low <= position < High.
type PassFilter struct {
	Low  float64 `json:"low_pass"`
	High float64 `json:"high_pass"`
}

// DefaultPassFilter lets everything through
func DefaultPassFilter() PassFilter {
	return PassFilter{Low: 0, High: 1}
}

// Validate checks 0 <= Low <= High <= 1
func (p PassFilter) Validate() error {
	if !(p.Low >= 0 && p.Low <= 1) {
		return configErr("low_pass", p.Low, "must be within [0, 1]")
	}
	if !(p.High >= 0 && p.High <= 1) {
		return configErr("high_pass", p.High, "must be within [0, 1]")
	}
	if p.Low > p.High {
		return configErr("low_pass", p.Low, "must not exceed high_pass")
	}
	return nil
}

// Contains reports whether a log-index position falls inside [Low, High)
func (p PassFilter) Contains(position float64) bool {
	return position >= p.Low && position < p.High
}

// Indices returns the cutoffs as bin indices for a spectrum of channelCount bins
func (p PassFilter) Indices(channelCount int) (low, high int) {
	return MapCutoffToIndex(p.Low, channelCount), MapCutoffToIndex(p.High, channelCount)
}
