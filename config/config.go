// Package config loads the pipeline configuration from JSON.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/RyanBlaney/sonido-ripple/algorithms/spectral"
	"github.com/RyanBlaney/sonido-ripple/logging"
	"github.com/RyanBlaney/sonido-ripple/processor"
	"github.com/RyanBlaney/sonido-ripple/propagation"
	"github.com/RyanBlaney/sonido-ripple/visual/waveform"
)

// Config is the on-disk configuration. Fields missing from a file keep
// their defaults.
type Config struct {
	Processor processor.Config    `json:"processor"`
	Bands     spectral.BandConfig `json:"bands"`
	Waves     WaveConfig          `json:"waves"`
	Waveform  waveform.Config     `json:"waveform"`
	Log       LogConfig           `json:"log"`

	// TickRate is how many frames per second are pulled from the source
	TickRate float64 `json:"tick_rate"`

	// DCBlockHz high-passes the source before framing; 0 disables it
	DCBlockHz float64 `json:"dc_block_hz"`
}

// WaveConfig mirrors propagation.Config with the pass filter flattened into
// the slider values
type WaveConfig struct {
	LifespanSeconds     float64 `json:"lifespan_seconds"`
	LowPass             float64 `json:"low_pass"`
	HighPass            float64 `json:"high_pass"`
	MaxWaves            int     `json:"max_waves"`
	RetainSpectrum      bool    `json:"retain_spectrum"`
	PropagationSpeed    float64 `json:"propagation_speed"`
	AmplitudeMultiplier float64 `json:"amplitude_multiplier"`
}

// LogConfig selects the logger level and colors
type LogConfig struct {
	Level  string `json:"level"`
	Colors bool   `json:"colors"`
}

// Default returns the built-in configuration
func Default() *Config {
	waves := propagation.DefaultConfig()
	return &Config{
		Processor: processor.DefaultConfig(),
		Bands:     spectral.DefaultBandConfig(),
		Waves: WaveConfig{
			LifespanSeconds:     waves.LifespanSeconds,
			LowPass:             waves.PassFilter.Low,
			HighPass:            waves.PassFilter.High,
			MaxWaves:            waves.MaxWaves,
			RetainSpectrum:      waves.RetainSpectrum,
			PropagationSpeed:    waves.PropagationSpeed,
			AmplitudeMultiplier: waves.AmplitudeMultiplier,
		},
		Waveform: waveform.DefaultConfig(),
		Log: LogConfig{
			Level:  "info",
			Colors: true,
		},
		TickRate: 50,
	}
}

// Load reads a JSON file over the defaults and validates the result
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes JSON over the defaults and validates the result
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section. The band spectrum length is derived from
// the processor section before checking.
func (c *Config) Validate() error {
	if err := c.Processor.Validate(); err != nil {
		return err
	}
	if err := c.BandConfig().Validate(); err != nil {
		return err
	}
	if err := c.WaveConfig().Validate(); err != nil {
		return err
	}
	if err := c.Waveform.Validate(); err != nil {
		return err
	}
	if !(c.TickRate > 0) || math.IsInf(c.TickRate, 0) {
		return &spectral.ConfigurationError{Field: "tick_rate", Value: c.TickRate, Reason: "must be positive and finite"}
	}
	if !(c.DCBlockHz >= 0) || math.IsInf(c.DCBlockHz, 0) {
		return &spectral.ConfigurationError{Field: "dc_block_hz", Value: c.DCBlockHz, Reason: "must be finite and non-negative"}
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return &spectral.ConfigurationError{Field: "log.level", Value: c.Log.Level, Reason: err.Error()}
	}
	return nil
}

// BandConfig returns the band section sized to the processor spectrum
func (c *Config) BandConfig() spectral.BandConfig {
	bands := c.Bands
	bands.SpectrumLength = c.Processor.SpectrumLength()
	return bands
}

// WaveConfig converts the wave section for the tracker
func (c *Config) WaveConfig() propagation.Config {
	return propagation.Config{
		LifespanSeconds:     c.Waves.LifespanSeconds,
		PassFilter:          spectral.PassFilter{Low: c.Waves.LowPass, High: c.Waves.HighPass},
		MaxWaves:            c.Waves.MaxWaves,
		RetainSpectrum:      c.Waves.RetainSpectrum,
		PropagationSpeed:    c.Waves.PropagationSpeed,
		AmplitudeMultiplier: c.Waves.AmplitudeMultiplier,
	}
}

// HopSize is the number of source samples between ticks, at least one
func (c *Config) HopSize(sampleRate int) int {
	return max(1, int(math.Round(float64(sampleRate)/c.TickRate)))
}

// Logger builds a DefaultLogger at the configured level
func (c *Config) Logger() (logging.Logger, error) {
	level, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	logger := logging.NewWriterLogger(os.Stdout, os.Stderr, c.Log.Colors)
	logger.SetLevel(level)
	return logger, nil
}
