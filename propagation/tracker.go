package propagation

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/RyanBlaney/sonido-ripple/algorithms/spectral"
	"github.com/RyanBlaney/sonido-ripple/logging"
	"github.com/RyanBlaney/sonido-ripple/visual/gradient"
)

// DegenerateRelativeAmplitude is reported while the active range has zero
// span and no normalization is possible
const DegenerateRelativeAmplitude = 0.5

var (
	// ErrInvalidAmplitude is returned by Admit for NaN or infinite amplitudes
	ErrInvalidAmplitude = errors.New("amplitude must be finite")

	// ErrInvalidDelta is returned by Tick for negative or non-finite deltas
	ErrInvalidDelta = errors.New("tick delta must be finite and non-negative")
)

// ColorFunc maps a [0,1] band percent to a display color
type ColorFunc func(percent float64) color.Color

// Config holds the wave lifecycle parameters
type Config struct {
	LifespanSeconds     float64             `json:"lifespan_seconds"`
	PassFilter          spectral.PassFilter `json:"pass_filter"`
	MaxWaves            int                 `json:"max_waves"` // 0 means unbounded
	RetainSpectrum      bool                `json:"retain_spectrum"`
	PropagationSpeed    float64             `json:"propagation_speed"`    // meters per second
	AmplitudeMultiplier float64             `json:"amplitude_multiplier"` // height scale, [1, 20]
}

// DefaultConfig returns a 15 second lifespan with an open pass filter
func DefaultConfig() Config {
	return Config{
		LifespanSeconds:     15,
		PassFilter:          spectral.DefaultPassFilter(),
		MaxWaves:            4096,
		RetainSpectrum:      false,
		PropagationSpeed:    1,
		AmplitudeMultiplier: 1,
	}
}

// Validate returns a *spectral.ConfigurationError for the first rejected field
func (c Config) Validate() error {
	if !(c.LifespanSeconds > 0) || math.IsInf(c.LifespanSeconds, 0) {
		return &spectral.ConfigurationError{Field: "lifespan_seconds", Value: c.LifespanSeconds, Reason: "must be positive and finite"}
	}
	if err := c.PassFilter.Validate(); err != nil {
		return err
	}
	if c.MaxWaves < 0 {
		return &spectral.ConfigurationError{Field: "max_waves", Value: c.MaxWaves, Reason: "must not be negative"}
	}
	if !(c.PropagationSpeed >= 0) || math.IsInf(c.PropagationSpeed, 0) {
		return &spectral.ConfigurationError{Field: "propagation_speed", Value: c.PropagationSpeed, Reason: "must be finite and non-negative"}
	}
	if !(c.AmplitudeMultiplier >= 1 && c.AmplitudeMultiplier <= 20) {
		return &spectral.ConfigurationError{Field: "amplitude_multiplier", Value: c.AmplitudeMultiplier, Reason: "must be within [1, 20]"}
	}
	return nil
}

// Stats counts lifecycle outcomes since creation or the last Clear
type Stats struct {
	Admitted uint64
	Gated    uint64
	Dropped  uint64
	Evicted  uint64
}

// Tracker owns the live waves: it gates and admits samples, ages and evicts
// waves, and keeps the active amplitude range. It holds no locks; callers
// serialize Admit and Tick.
type Tracker struct {
	config  Config
	reducer *spectral.BandReducer
	colorFn ColorFunc
	waves   []*Wave
	active  ActiveRange
	nextID  uint64
	stats   Stats
	logger  logging.Logger
}

// Option configures a Tracker
type Option func(*Tracker)

// WithLogger overrides the component logger
func WithLogger(logger logging.Logger) Option {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithColorFunc sets the band percent to color lookup
func WithColorFunc(fn ColorFunc) Option {
	return func(t *Tracker) {
		if fn != nil {
			t.colorFn = fn
		}
	}
}

// NewTracker creates a tracker that gates on the reducer's band table
func NewTracker(reducer *spectral.BandReducer, config Config, opts ...Option) (*Tracker, error) {
	if reducer == nil {
		return nil, fmt.Errorf("band reducer cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	t := &Tracker{
		config:  config,
		reducer: reducer,
		colorFn: gradient.Default().Evaluate,
		active:  EmptyRange(),
		logger: logging.WithFields(logging.Fields{
			"component": "wave_tracker",
		}),
	}
	for _, opt := range opts {
		opt(t)
	}

	return t, nil
}

// Admit reduces the spectrum, gates its dominant band against the pass
// filter and, if accepted, creates a wave of age zero and widens the active
// range. It returns nil without error when the sample is gated out or the
// tracker is at capacity. Errors leave the tracker unchanged.
func (t *Tracker) Admit(spectrum []float64, amplitude float64) (*Wave, error) {
	if math.IsNaN(amplitude) || math.IsInf(amplitude, 0) {
		return nil, ErrInvalidAmplitude
	}

	magnitudes, err := t.reducer.Reduce(spectrum)
	if err != nil {
		return nil, fmt.Errorf("admit: %w", err)
	}

	dominant := spectral.DominantBand(magnitudes)
	position := t.reducer.BandLogPosition(dominant)
	if !t.config.PassFilter.Contains(position) {
		t.stats.Gated++
		t.logger.Debug("Sample gated", logging.Fields{
			"band":     dominant,
			"position": position,
		})
		return nil, nil
	}

	if t.config.MaxWaves > 0 && len(t.waves) >= t.config.MaxWaves {
		t.stats.Dropped++
		t.logger.Debug("Wave capacity reached, sample dropped", logging.Fields{
			"max_waves": t.config.MaxWaves,
		})
		return nil, nil
	}

	percent := float64(dominant) / float64(t.reducer.BandCount())
	w := &Wave{
		id:           t.nextID,
		amplitude:    amplitude,
		dominantBand: dominant,
		bandPercent:  percent,
		bands:        magnitudes,
		color:        t.colorFn(percent),
		owner:        t,
	}
	if t.config.RetainSpectrum {
		w.spectrum = make([]float64, len(spectrum))
		copy(w.spectrum, spectrum)
	}

	t.nextID++
	t.waves = append(t.waves, w)
	t.active = t.active.Widen(amplitude)
	t.stats.Admitted++

	return w, nil
}

// Tick ages every wave by deltaSeconds, then evicts every wave whose age has
// reached the lifespan in one pass and rescans the active range once if
// anything was evicted. It returns the number of evicted waves.
func (t *Tracker) Tick(deltaSeconds float64) (int, error) {
	if !(deltaSeconds >= 0) || math.IsInf(deltaSeconds, 0) {
		return 0, ErrInvalidDelta
	}

	for _, w := range t.waves {
		w.age += deltaSeconds
	}

	kept := t.waves[:0]
	for _, w := range t.waves {
		if w.age >= t.config.LifespanSeconds {
			w.evicted = true
			continue
		}
		kept = append(kept, w)
	}
	evicted := len(t.waves) - len(kept)
	clear(t.waves[len(kept):])
	t.waves = kept

	if evicted > 0 {
		t.active = t.rescan()
		t.stats.Evicted += uint64(evicted)
		t.logger.Debug("Waves evicted", logging.Fields{
			"evicted": evicted,
			"live":    len(t.waves),
		})
	}

	return evicted, nil
}

func (t *Tracker) rescan() ActiveRange {
	r := EmptyRange()
	for _, w := range t.waves {
		r = r.Widen(w.amplitude)
	}
	return r
}

// RelativeAmplitude returns the wave's amplitude normalized against the
// active range. The first non-degenerate result is frozen on the wave and
// returned on every later call, even after the range moves. While the range
// has zero span it returns (DegenerateRelativeAmplitude, false) and freezes
// nothing. A nil wave, a wave from another tracker, or an evicted wave that
// was never normalized gets the same fallback.
func (t *Tracker) RelativeAmplitude(w *Wave) (float64, bool) {
	if w == nil {
		return DegenerateRelativeAmplitude, false
	}
	if w.hasRelative {
		return w.relative, true
	}
	if w.owner != t || w.evicted {
		return DegenerateRelativeAmplitude, false
	}

	span := t.active.Span()
	if span == 0 {
		return DegenerateRelativeAmplitude, false
	}

	w.relative = (w.amplitude - t.active.Min) / span
	w.hasRelative = true
	return w.relative, true
}

// Clear drops every wave and resets the active range and stats
func (t *Tracker) Clear() {
	for _, w := range t.waves {
		w.evicted = true
	}
	clear(t.waves)
	t.waves = t.waves[:0]
	t.active = EmptyRange()
	t.stats = Stats{}
}

// Waves returns the live waves in admission order. The slice is a copy;
// the waves themselves must be treated as read-only.
func (t *Tracker) Waves() []*Wave {
	out := make([]*Wave, len(t.waves))
	copy(out, t.waves)
	return out
}

// Len returns the number of live waves
func (t *Tracker) Len() int {
	return len(t.waves)
}

// ActiveRange returns the current amplitude bounds
func (t *Tracker) ActiveRange() ActiveRange {
	return t.active
}

// Stats returns lifecycle counters
func (t *Tracker) Stats() Stats {
	return t.stats
}

// Config returns the active configuration
func (t *Tracker) Config() Config {
	return t.config
}

// SetPassFilter replaces the gate. Live waves are not re-gated.
func (t *Tracker) SetPassFilter(filter spectral.PassFilter) error {
	if err := filter.Validate(); err != nil {
		return err
	}
	t.config.PassFilter = filter
	return nil
}
