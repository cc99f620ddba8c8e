package spectral

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/RyanBlaney/sonido-ripple/algorithms/common"
	"github.com/RyanBlaney/sonido-ripple/algorithms/windowing"
	"github.com/RyanBlaney/sonido-ripple/logging"
)

// Backend selects the FFT implementation
type Backend string

const (
	BackendGoDSP Backend = "go-dsp"
	BackendGonum Backend = "gonum"
)

// AnalyzerConfig configures the spectrum front-end
type AnalyzerConfig struct {
	// SpectrumLength is the number of output bins; frames are twice as long
	SpectrumLength int            `json:"spectrum_length"`
	Window         windowing.Type `json:"window"`
	Backend        Backend        `json:"backend"`
}

// DefaultAnalyzerConfig returns a 1024-bin blackman-harris analyzer on go-dsp
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		SpectrumLength: 1024,
		Window:         windowing.BlackmanHarris,
		Backend:        BackendGoDSP,
	}
}

// Analyzer turns PCM frames into single-sided magnitude spectra. It owns
// scratch buffers and is not safe for concurrent use.
type Analyzer struct {
	config   AnalyzerConfig
	window   *windowing.Window
	fourier  *fourier.FFT
	windowed []float64
	logger   logging.Logger
}

// AnalyzerOption configures an Analyzer
type AnalyzerOption func(*Analyzer)

// WithAnalyzerLogger overrides the component logger
func WithAnalyzerLogger(logger logging.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAnalyzer creates a spectrum front-end
func NewAnalyzer(config AnalyzerConfig, opts ...AnalyzerOption) (*Analyzer, error) {
	if !common.IsPowerOfTwo(config.SpectrumLength) || config.SpectrumLength < 2 {
		return nil, configErr("spectrum_length", config.SpectrumLength, "must be a power of two of at least 2")
	}
	if config.Backend == "" {
		config.Backend = BackendGoDSP
	}
	if config.Backend != BackendGoDSP && config.Backend != BackendGonum {
		return nil, configErr("backend", config.Backend, "must be go-dsp or gonum")
	}

	frameSize := 2 * config.SpectrumLength
	window, err := windowing.New(config.Window, frameSize)
	if err != nil {
		return nil, configErr("window", config.Window, err.Error())
	}

	a := &Analyzer{
		config:   config,
		window:   window,
		windowed: make([]float64, frameSize),
		logger: logging.WithFields(logging.Fields{
			"component": "spectrum_analyzer",
		}),
	}
	if config.Backend == BackendGonum {
		a.fourier = fourier.NewFFT(frameSize)
	}
	for _, opt := range opts {
		opt(a)
	}

	a.logger.Debug("Spectrum analyzer ready", logging.Fields{
		"frame_size": frameSize,
		"window":     config.Window,
		"backend":    config.Backend,
	})

	return a, nil
}

// FrameSize is the number of PCM samples Spectrum expects
func (a *Analyzer) FrameSize() int {
	return len(a.windowed)
}

// SpectrumLength is the number of bins Spectrum returns
func (a *Analyzer) SpectrumLength() int {
	return a.config.SpectrumLength
}

// Spectrum windows the frame, transforms it and returns magnitudes of bins
// [0, SpectrumLength). Magnitudes are corrected for window gain so a
// bin-centred sine of amplitude A reads A.
func (a *Analyzer) Spectrum(frame []float64) ([]float64, error) {
	if len(frame) != len(a.windowed) {
		return nil, &ShapeMismatchError{Want: len(a.windowed), Got: len(frame)}
	}

	copy(a.windowed, frame)
	if err := a.window.ApplyInPlace(a.windowed); err != nil {
		return nil, err
	}

	var coeffs []complex128
	switch a.config.Backend {
	case BackendGonum:
		coeffs = a.fourier.Coefficients(nil, a.windowed)
	default:
		coeffs = fft.FFTReal(a.windowed)
	}

	n := float64(len(a.windowed))
	norm := n * a.window.CoherentGain()
	spectrum := make([]float64, a.config.SpectrumLength)
	for k := range spectrum {
		mag := cmplx.Abs(coeffs[k]) / norm
		if k > 0 {
			mag *= 2
		}
		spectrum[k] = mag
	}

	return spectrum, nil
}
