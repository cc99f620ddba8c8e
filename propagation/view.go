package propagation

import "image/color"

// WaveView is a read-only copy of a wave resolved for drawing
type WaveView struct {
	ID                uint64
	Amplitude         float64
	Age               float64
	Radius            float64
	RelativeAmplitude float64
	Normalized        bool
	Height            float64
	DominantBand      int
	Color             color.Color
	Spectrum          []float64
}

// Thresholds are the pass filter cutoffs as log-index positions and as bin
// indices into the configured spectrum, for drawing filter markers
type Thresholds struct {
	Low       float64
	High      float64
	LowIndex  int
	HighIndex int
}

// Snapshot resolves every live wave for a renderer. Reading relative
// amplitudes here freezes them exactly as RelativeAmplitude does.
func (t *Tracker) Snapshot() []WaveView {
	views := make([]WaveView, len(t.waves))
	for i, w := range t.waves {
		rel, ok := t.RelativeAmplitude(w)
		views[i] = WaveView{
			ID:                w.id,
			Amplitude:         w.amplitude,
			Age:               w.age,
			Radius:            w.Radius(t.config.PropagationSpeed),
			RelativeAmplitude: rel,
			Normalized:        ok,
			Height:            rel * t.config.AmplitudeMultiplier,
			DominantBand:      w.dominantBand,
			Color:             w.color,
			Spectrum:          w.Spectrum(),
		}
	}
	return views
}

// Thresholds returns the current pass filter for marker drawing
func (t *Tracker) Thresholds() Thresholds {
	low, high := t.config.PassFilter.Indices(t.reducer.SpectrumLength())
	return Thresholds{
		Low:       t.config.PassFilter.Low,
		High:      t.config.PassFilter.High,
		LowIndex:  low,
		HighIndex: high,
	}
}
