// Package processor drives the spectrum pipeline one tick at a time: each
// PCM frame becomes a magnitude spectrum and an RMS amplitude that are fed
// to a wave tracker.
package processor

import (
	"context"
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-ripple/algorithms/common"
	"github.com/RyanBlaney/sonido-ripple/algorithms/spectral"
	"github.com/RyanBlaney/sonido-ripple/algorithms/windowing"
	"github.com/RyanBlaney/sonido-ripple/logging"
	"github.com/RyanBlaney/sonido-ripple/propagation"
	"github.com/RyanBlaney/sonido-ripple/transcode"
)

const (
	MinSampleCountPowerOf2 = 6
	MaxSampleCountPowerOf2 = 10
	MaxAmplitudeGain       = 10
)

// Config holds front-end parameters
type Config struct {
	Window  windowing.Type   `json:"window"`
	Backend spectral.Backend `json:"backend"`

	// SampleCountPowerOf2 sets the spectrum length to 2^n bins
	SampleCountPowerOf2 int     `json:"sample_count_power_of_2"`
	AmplitudeGain       float64 `json:"amplitude_gain"`
}

// DefaultConfig returns a 1024-bin blackman-harris front-end with unit gain
func DefaultConfig() Config {
	return Config{
		Window:              windowing.BlackmanHarris,
		Backend:             spectral.BackendGoDSP,
		SampleCountPowerOf2: 10,
		AmplitudeGain:       1,
	}
}

// Validate checks ranges
func (c Config) Validate() error {
	if _, err := windowing.ParseType(string(c.Window)); err != nil {
		return &spectral.ConfigurationError{Field: "window", Value: c.Window, Reason: err.Error()}
	}
	if c.SampleCountPowerOf2 < MinSampleCountPowerOf2 || c.SampleCountPowerOf2 > MaxSampleCountPowerOf2 {
		return &spectral.ConfigurationError{
			Field:  "sample_count_power_of_2",
			Value:  c.SampleCountPowerOf2,
			Reason: fmt.Sprintf("must be within [%d, %d]", MinSampleCountPowerOf2, MaxSampleCountPowerOf2),
		}
	}
	if !(c.AmplitudeGain >= 0 && c.AmplitudeGain <= MaxAmplitudeGain) {
		return &spectral.ConfigurationError{Field: "amplitude_gain", Value: c.AmplitudeGain, Reason: "must be within [0, 10]"}
	}
	return nil
}

// SpectrumLength is 2^SampleCountPowerOf2
func (c Config) SpectrumLength() int {
	return 1 << c.SampleCountPowerOf2
}

// FrameSize is the number of PCM samples per frame
func (c Config) FrameSize() int {
	return 2 * c.SpectrumLength()
}

// Result is what one Step produced
type Result struct {
	Spectrum   []float64
	Amplitude  float64
	CentroidHz float64
	Wave       *propagation.Wave // nil when gated or dropped
	Evicted    int
}

// Processor owns the analyzer, the band reducer and the tracker. Step and
// Run must not be called concurrently; Run is the single writer when frames
// come from other goroutines.
type Processor struct {
	config   Config
	analyzer *spectral.Analyzer
	reducer  *spectral.BandReducer
	tracker  *propagation.Tracker
	ticks    uint64
	logger   logging.Logger
}

// Option configures a Processor
type Option func(*Processor)

// WithLogger overrides the component logger
func WithLogger(logger logging.Logger) Option {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New builds the pipeline. The band config's spectrum length is taken from
// the processor config.
func New(config Config, bands spectral.BandConfig, waves propagation.Config, trackerOpts []propagation.Option, opts ...Option) (*Processor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	config.Window, _ = windowing.ParseType(string(config.Window))
	analyzer, err := spectral.NewAnalyzer(spectral.AnalyzerConfig{
		SpectrumLength: config.SpectrumLength(),
		Window:         config.Window,
		Backend:        config.Backend,
	})
	if err != nil {
		return nil, fmt.Errorf("create analyzer: %w", err)
	}

	bands.SpectrumLength = config.SpectrumLength()
	reducer, err := spectral.NewBandReducer(bands)
	if err != nil {
		return nil, fmt.Errorf("create band reducer: %w", err)
	}

	tracker, err := propagation.NewTracker(reducer, waves, trackerOpts...)
	if err != nil {
		return nil, fmt.Errorf("create tracker: %w", err)
	}

	p := &Processor{
		config:   config,
		analyzer: analyzer,
		reducer:  reducer,
		tracker:  tracker,
		logger: logging.WithFields(logging.Fields{
			"component": "processor",
		}),
	}
	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// Step ages the live waves by deltaSeconds and then offers the frame as a
// new wave, so a freshly admitted wave reports age zero until the next tick.
// Everything Tick and Admit could reject is checked first, so a failed Step
// leaves the tracker untouched.
func (p *Processor) Step(frame []float64, deltaSeconds float64) (*Result, error) {
	spectrum, err := p.analyzer.Spectrum(frame)
	if err != nil {
		return nil, fmt.Errorf("analyze frame: %w", err)
	}

	amplitude := common.RMS(frame) * p.config.AmplitudeGain
	if math.IsNaN(amplitude) || math.IsInf(amplitude, 0) {
		return nil, fmt.Errorf("frame amplitude: %w", propagation.ErrInvalidAmplitude)
	}

	evicted, err := p.tracker.Tick(deltaSeconds)
	if err != nil {
		return nil, err
	}

	wave, err := p.tracker.Admit(spectrum, amplitude)
	if err != nil {
		return nil, err
	}

	p.ticks++
	return &Result{
		Spectrum:   spectrum,
		Amplitude:  amplitude,
		CentroidHz: spectral.Centroid(spectrum, p.reducer.Config().BinWidth()),
		Wave:       wave,
		Evicted:    evicted,
	}, nil
}

// Run consumes frames until the channel closes or ctx is done. The callback,
// if non-nil, is invoked after every step on the Run goroutine. Run stops
// reading on the first failed step, so a producer feeding frames must be
// released by cancelling its context once Run returns.
func (p *Processor) Run(ctx context.Context, frames <-chan transcode.Frame, onStep func(*Result)) error {
	p.logger.Info("Processor started", logging.Fields{
		"spectrum_length": p.config.SpectrumLength(),
		"bands":           p.reducer.BandCount(),
	})

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f, ok := <-frames:
			if !ok {
				p.logger.Info("Processor finished", logging.Fields{
					"ticks": p.ticks,
					"live":  p.tracker.Len(),
				})
				return nil
			}

			res, err := p.Step(f.Samples, f.DeltaSeconds)
			if err != nil {
				p.logger.Error(err, "Step failed", logging.Fields{"tick": p.ticks})
				return err
			}
			if onStep != nil {
				onStep(res)
			}
		}
	}
}

// SetPassFilter replaces the tracker gate
func (p *Processor) SetPassFilter(filter spectral.PassFilter) error {
	return p.tracker.SetPassFilter(filter)
}

// Tracker exposes the wave tracker for read access
func (p *Processor) Tracker() *propagation.Tracker {
	return p.tracker
}

// Reducer exposes the band reducer for read access
func (p *Processor) Reducer() *spectral.BandReducer {
	return p.reducer
}

// Config returns the front-end configuration
func (p *Processor) Config() Config {
	return p.config
}

// Ticks is the number of completed steps
func (p *Processor) Ticks() uint64 {
	return p.ticks
}
