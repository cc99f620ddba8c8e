package processor

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/RyanBlaney/sonido-ripple/algorithms/spectral"
	"github.com/RyanBlaney/sonido-ripple/internal/testutil"
	"github.com/RyanBlaney/sonido-ripple/propagation"
	"github.com/RyanBlaney/sonido-ripple/transcode"
)

const testRate = 44100

// newTestProcessor builds a 64-bin pipeline whose four bands start at bins
// 0, 2, 4 and 9
func newTestProcessor(t *testing.T, waves propagation.Config) *Processor {
	t.Helper()
	cfg := DefaultConfig()
	cfg.SampleCountPowerOf2 = 6

	bands := spectral.DefaultBandConfig()
	bands.BandCount = 4

	p, err := New(cfg, bands, waves, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p
}

// binSine is a sine centred on bin k of a 128-sample frame
func binSine(k int, amp float64) []float64 {
	return testutil.Sine(float64(k)*testRate/128, testRate, amp, 128)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"window alias", func(c *Config) { c.Window = "hanning" }, false},
		{"unknown window", func(c *Config) { c.Window = "kaiser" }, true},
		{"min power", func(c *Config) { c.SampleCountPowerOf2 = 6 }, false},
		{"power too small", func(c *Config) { c.SampleCountPowerOf2 = 5 }, true},
		{"power too large", func(c *Config) { c.SampleCountPowerOf2 = 11 }, true},
		{"zero gain", func(c *Config) { c.AmplitudeGain = 0 }, false},
		{"negative gain", func(c *Config) { c.AmplitudeGain = -1 }, true},
		{"gain too large", func(c *Config) { c.AmplitudeGain = 10.5 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, spectral.ErrConfiguration) {
				t.Errorf("error %v does not match ErrConfiguration", err)
			}
		})
	}
}

func TestConfigSizes(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.SpectrumLength() != 1024 || cfg.FrameSize() != 2048 {
		t.Errorf("sizes = %d/%d, want 1024/2048", cfg.SpectrumLength(), cfg.FrameSize())
	}
}

func TestNewOverridesSpectrumLength(t *testing.T) {
	p := newTestProcessor(t, propagation.DefaultConfig())
	if got := p.Reducer().SpectrumLength(); got != 64 {
		t.Errorf("reducer spectrum length = %d, want 64", got)
	}
}

func TestStepAdmitsDominantBand(t *testing.T) {
	p := newTestProcessor(t, propagation.DefaultConfig())

	res, err := p.Step(binSine(20, 0.5), 0.02)
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if res.Wave == nil {
		t.Fatal("expected wave to be admitted")
	}
	if got := res.Wave.DominantBand(); got != 3 {
		t.Errorf("dominant band = %d, want 3", got)
	}
	if len(res.Spectrum) != 64 {
		t.Errorf("spectrum length = %d, want 64", len(res.Spectrum))
	}
	testutil.RequireNearlyEqual(t, res.Spectrum[20], 0.5, 1e-6)
	testutil.RequireNearlyEqual(t, res.Amplitude, 0.5/1.4142135623730951, 1e-9)
	// symmetric leakage around bin 20 keeps the centroid on the tone
	testutil.RequireNearlyEqual(t, res.CentroidHz, 20*testRate/128.0, 1)
	if p.Ticks() != 1 {
		t.Errorf("Ticks() = %d, want 1", p.Ticks())
	}
}

func TestStepAmplitudeGain(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SampleCountPowerOf2 = 6
	cfg.AmplitudeGain = 4
	bands := spectral.DefaultBandConfig()
	bands.BandCount = 4

	p, err := New(cfg, bands, propagation.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	res, err := p.Step(testutil.DC(0.25, 128), 0)
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	testutil.RequireNearlyEqual(t, res.Amplitude, 1, 1e-12)
}

func TestStepGated(t *testing.T) {
	p := newTestProcessor(t, propagation.DefaultConfig())
	if err := p.SetPassFilter(spectral.PassFilter{Low: 0, High: 0.5}); err != nil {
		t.Fatalf("SetPassFilter() error = %v", err)
	}

	res, err := p.Step(binSine(20, 0.5), 0.02)
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if res.Wave != nil {
		t.Error("expected band 3 to be gated out")
	}
	if got := p.Tracker().Stats().Gated; got != 1 {
		t.Errorf("Gated = %d, want 1", got)
	}
}

func TestStepAgesBeforeAdmit(t *testing.T) {
	waves := propagation.DefaultConfig()
	waves.LifespanSeconds = 1
	p := newTestProcessor(t, waves)
	frame := binSine(20, 0.5)

	first, _ := p.Step(frame, 0.5)
	second, _ := p.Step(frame, 0.5)
	if first.Wave.Age() != 0.5 || second.Wave.Age() != 0 {
		t.Fatalf("ages = %v/%v, want 0.5/0", first.Wave.Age(), second.Wave.Age())
	}

	third, err := p.Step(frame, 0.5)
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if third.Evicted != 1 {
		t.Errorf("Evicted = %d, want 1", third.Evicted)
	}
	if p.Tracker().Len() != 2 {
		t.Errorf("Len() = %d, want 2", p.Tracker().Len())
	}
}

func TestStepErrors(t *testing.T) {
	p := newTestProcessor(t, propagation.DefaultConfig())

	_, err := p.Step(make([]float64, 64), 0.02)
	var shape *spectral.ShapeMismatchError
	if !errors.As(err, &shape) {
		t.Fatalf("expected ShapeMismatchError, got %v", err)
	}
	if shape.Want != 128 || shape.Got != 64 {
		t.Errorf("shape = %+v", shape)
	}

	if _, err := p.Step(make([]float64, 128), -1); !errors.Is(err, propagation.ErrInvalidDelta) {
		t.Errorf("expected ErrInvalidDelta, got %v", err)
	}
	if p.Ticks() != 0 {
		t.Errorf("failed steps counted: Ticks() = %d", p.Ticks())
	}
}

func TestStepNonFiniteFrameLeavesTrackerUnchanged(t *testing.T) {
	waves := propagation.DefaultConfig()
	waves.LifespanSeconds = 1
	p := newTestProcessor(t, waves)

	first, err := p.Step(binSine(20, 0.5), 0.25)
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if _, err := p.Step(binSine(20, 0.3), 0.25); err != nil {
		t.Fatalf("Step() error = %v", err)
	}

	tracker := p.Tracker()
	before := tracker.Stats()
	ages := map[uint64]float64{}
	for _, w := range tracker.Waves() {
		ages[w.ID()] = w.Age()
	}

	tests := []struct {
		name  string
		value float64
	}{
		{"nan", math.NaN()},
		{"inf", math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := binSine(20, 0.5)
			frame[7] = tt.value

			// a 2 s delta would evict every wave if the tracker were ticked
			_, err := p.Step(frame, 2)
			if !errors.Is(err, propagation.ErrInvalidAmplitude) {
				t.Fatalf("Step() error = %v, want ErrInvalidAmplitude", err)
			}

			if tracker.Len() != len(ages) {
				t.Fatalf("Len() = %d, want %d", tracker.Len(), len(ages))
			}
			for _, w := range tracker.Waves() {
				if w.Age() != ages[w.ID()] {
					t.Errorf("wave %d age = %v, want %v", w.ID(), w.Age(), ages[w.ID()])
				}
			}
			if got := tracker.Stats(); got != before {
				t.Errorf("Stats() = %+v, want %+v", got, before)
			}
			if p.Ticks() != 2 {
				t.Errorf("Ticks() = %d, want 2", p.Ticks())
			}
		})
	}

	if first.Wave.Age() != 0.25 {
		t.Errorf("first wave age = %v, want 0.25", first.Wave.Age())
	}
}

func TestRunErrorReleasesProducerOnCancel(t *testing.T) {
	p := newTestProcessor(t, propagation.DefaultConfig())

	frames := make([]transcode.Frame, 10)
	frames[0] = transcode.Frame{Samples: make([]float64, 3)}
	for i := 1; i < len(frames); i++ {
		frames[i] = transcode.Frame{Samples: binSine(20, 0.5), DeltaSeconds: 0.02}
	}

	ctx, cancel := context.WithCancel(context.Background())
	ch := transcode.StreamFrames(ctx, frames)
	if err := p.Run(ctx, ch, nil); !errors.Is(err, spectral.ErrShapeMismatch) {
		t.Fatalf("Run() error = %v, want shape mismatch", err)
	}

	cancel()
	// the producer observes cancellation and closes the channel
	for range ch {
	}
}

func TestRun(t *testing.T) {
	p := newTestProcessor(t, propagation.DefaultConfig())

	frames := make([]transcode.Frame, 5)
	for i := range frames {
		frames[i] = transcode.Frame{Samples: binSine(20, 0.1*float64(i+1)), DeltaSeconds: 0.02}
	}

	steps := 0
	err := p.Run(context.Background(), transcode.StreamFrames(context.Background(), frames), func(r *Result) {
		steps++
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if steps != 5 || p.Tracker().Len() != 5 {
		t.Errorf("steps = %d, live = %d, want 5/5", steps, p.Tracker().Len())
	}

	active := p.Tracker().ActiveRange()
	testutil.RequireNearlyEqual(t, active.Min, 0.1/1.4142135623730951, 1e-9)
	testutil.RequireNearlyEqual(t, active.Max, 0.5/1.4142135623730951, 1e-9)
}

func TestRunCancelled(t *testing.T) {
	p := newTestProcessor(t, propagation.DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	frames := make(chan transcode.Frame)
	if err := p.Run(ctx, frames, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestRunStopsOnError(t *testing.T) {
	p := newTestProcessor(t, propagation.DefaultConfig())

	frames := make(chan transcode.Frame, 2)
	frames <- transcode.Frame{Samples: make([]float64, 3)}
	frames <- transcode.Frame{Samples: make([]float64, 128)}
	close(frames)

	if err := p.Run(context.Background(), frames, nil); !errors.Is(err, spectral.ErrShapeMismatch) {
		t.Errorf("Run() error = %v, want shape mismatch", err)
	}
	if p.Ticks() != 0 {
		t.Errorf("Ticks() = %d, want 0", p.Ticks())
	}
}
