package spectral

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/RyanBlaney/sonido-ripple/algorithms/common"
	"github.com/RyanBlaney/sonido-ripple/logging"
)

// minBandWidth is the smallest number of bins a band may cover
const minBandWidth = 2

// BandConfig describes how a spectrum is split into log-spaced bands
type BandConfig struct {
	BandCount      int     `json:"band_count"`
	MinFrequency   float64 `json:"min_frequency"`
	MaxFrequency   float64 `json:"max_frequency"`
	SampleRate     float64 `json:"sample_rate"`
	SpectrumLength int     `json:"spectrum_length"`
}

// DefaultBandConfig returns 8 bands between 10 Hz and 22 kHz over a
// 1024-bin spectrum of 44.1 kHz audio
func DefaultBandConfig() BandConfig {
	return BandConfig{
		BandCount:      8,
		MinFrequency:   10,
		MaxFrequency:   22000,
		SampleRate:     44100,
		SpectrumLength: 1024,
	}
}

// Validate returns a *ConfigurationError for the first rejected field
func (c BandConfig) Validate() error {
	if c.BandCount < 1 {
		return configErr("band_count", c.BandCount, "must be at least 1")
	}
	if !(c.MinFrequency > 0) || math.IsInf(c.MinFrequency, 0) {
		return configErr("min_frequency", c.MinFrequency, "must be positive and finite")
	}
	if !(c.MaxFrequency > c.MinFrequency) || math.IsInf(c.MaxFrequency, 0) {
		return configErr("max_frequency", c.MaxFrequency, "must be finite and greater than min_frequency")
	}
	if !(c.SampleRate > 0) || math.IsInf(c.SampleRate, 0) {
		return configErr("sample_rate", c.SampleRate, "must be positive and finite")
	}
	if !common.IsPowerOfTwo(c.SpectrumLength) {
		return configErr("spectrum_length", c.SpectrumLength, "must be a power of two")
	}
	if minBandWidth*c.BandCount > c.SpectrumLength-1 {
		return configErr("band_count", c.BandCount, "too many bands for spectrum_length at two bins per band")
	}
	return nil
}

// BinWidth is the frequency span of one spectrum bin in Hz
func (c BandConfig) BinWidth() float64 {
	return (c.SampleRate / 2) / float64(c.SpectrumLength)
}

// FrequencyBand is the half-open bin range [Start, End) plus the summed
// magnitude of those bins from the most recent reduction
type FrequencyBand struct {
	Start     int     `json:"start"`
	End       int     `json:"end"`
	Magnitude float64 `json:"magnitude"`
}

// Width returns the number of bins in the band
func (b FrequencyBand) Width() int {
	return b.End - b.Start
}

// BandReducer sums a fixed-length magnitude spectrum into log-spaced bands.
// It is not safe for concurrent use.
type BandReducer struct {
	config BandConfig
	bands  []FrequencyBand
	logger logging.Logger
}

// BandReducerOption configures a BandReducer
type BandReducerOption func(*BandReducer)

// WithBandLogger overrides the component logger
func WithBandLogger(logger logging.Logger) BandReducerOption {
	return func(r *BandReducer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewBandReducer creates a reducer and computes its band table
func NewBandReducer(config BandConfig, opts ...BandReducerOption) (*BandReducer, error) {
	r := &BandReducer{
		logger: logging.WithFields(logging.Fields{
			"component": "band_reducer",
		}),
	}
	for _, opt := range opts {
		opt(r)
	}

	if _, err := r.Configure(config); err != nil {
		return nil, err
	}

	return r, nil
}

// Configure recomputes the band table. On error the previous table and
// config stay in place.
//
// Band i nominally covers [min*r^i, min*r^(i+1)) Hz with
// r = (max/min)^(1/bandCount). Edges are converted to bins, the first band
// is anchored at bin 0 and the last ends at spectrumLength-1, and every
// interior edge is clamped so each band keeps at least two bins and the
// bands that follow still fit.
func (r *BandReducer) Configure(config BandConfig) ([]FrequencyBand, error) {
	if err := config.Validate(); err != nil {
		r.logger.Error(err, "Rejected band configuration")
		return nil, err
	}

	edges := bandEdges(config)
	bands := make([]FrequencyBand, config.BandCount)
	for i := range bands {
		bands[i] = FrequencyBand{Start: edges[i], End: edges[i+1]}
	}

	r.config = config
	r.bands = bands

	r.logger.Debug("Band table configured", logging.Fields{
		"band_count":      config.BandCount,
		"spectrum_length": config.SpectrumLength,
		"bin_width_hz":    config.BinWidth(),
		"edges":           edges,
	})

	return r.Bands(), nil
}

func bandEdges(config BandConfig) []int {
	n := config.BandCount
	last := config.SpectrumLength - 1
	ratio := math.Pow(config.MaxFrequency/config.MinFrequency, 1/float64(n))
	binWidth := config.BinWidth()

	edges := make([]int, n+1)
	edges[0] = 0
	for i := 1; i < n; i++ {
		freq := config.MinFrequency * math.Pow(ratio, float64(i))
		bin := int(math.Floor(freq / binWidth))

		lo := edges[i-1] + minBandWidth
		hi := last - minBandWidth*(n-i)
		edges[i] = common.ClampInt(bin, lo, hi)
	}
	edges[n] = last

	return edges
}

// Reduce sums spectrum bins per band. It is meant to run once per tick.
func (r *BandReducer) Reduce(spectrum []float64) ([]float64, error) {
	if len(spectrum) != r.config.SpectrumLength {
		return nil, &ShapeMismatchError{Want: r.config.SpectrumLength, Got: len(spectrum)}
	}

	magnitudes := make([]float64, len(r.bands))
	for i := range r.bands {
		b := &r.bands[i]
		b.Magnitude = floats.Sum(spectrum[b.Start:b.End])
		magnitudes[i] = b.Magnitude
	}

	return magnitudes, nil
}

// DominantBand returns the index of the largest band magnitude, or -1 when
// magnitudes is empty. Ties resolve to the lowest band.
func DominantBand(magnitudes []float64) int {
	if len(magnitudes) == 0 {
		return -1
	}
	return floats.MaxIdx(magnitudes)
}

// BandLogPosition returns the log-index position of band i's lowest bin
// within the spectrum, comparable against a PassFilter
func (r *BandReducer) BandLogPosition(i int) float64 {
	if i < 0 || i >= len(r.bands) {
		return math.NaN()
	}
	return LogPosition(r.bands[i].Start, r.config.SpectrumLength)
}

// Bands returns a copy of the band table with the last reduced magnitudes
func (r *BandReducer) Bands() []FrequencyBand {
	out := make([]FrequencyBand, len(r.bands))
	copy(out, r.bands)
	return out
}

// Config returns the active configuration
func (r *BandReducer) Config() BandConfig {
	return r.config
}

// BandCount returns the number of bands
func (r *BandReducer) BandCount() int {
	return len(r.bands)
}

// SpectrumLength returns the expected spectrum length
func (r *BandReducer) SpectrumLength() int {
	return r.config.SpectrumLength
}
