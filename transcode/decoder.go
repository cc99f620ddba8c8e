package transcode

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/youpy/go-riff"
	"github.com/youpy/go-wav"

	"github.com/RyanBlaney/sonido-ripple/algorithms/filters"
	"github.com/RyanBlaney/sonido-ripple/logging"
)

// AudioData represents decoded mono audio
type AudioData struct {
	PCM        []float64     `json:"-"` // mono samples in [-1, 1]
	SampleRate int           `json:"sample_rate"`
	Channels   int           `json:"channels"` // channel count of the source before downmix
	Duration   time.Duration `json:"duration"`
}

// DecodeWAVFile opens and decodes a WAV file
func DecodeWAVFile(path string) (*AudioData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	audio, err := DecodeWAV(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return audio, nil
}

// DecodeWAV reads PCM WAV data and averages all channels down to mono
func DecodeWAV(r riff.RIFFReader) (*AudioData, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "wav_decoder",
	})

	reader := wav.NewReader(r)
	format, err := reader.Format()
	if err != nil {
		return nil, fmt.Errorf("read wav format: %w", err)
	}
	if format.NumChannels == 0 || format.SampleRate == 0 {
		return nil, fmt.Errorf("invalid wav format: %d channels at %d Hz", format.NumChannels, format.SampleRate)
	}

	channels := uint(format.NumChannels)
	var pcm []float64
	for {
		samples, err := reader.ReadSamples()
		for _, s := range samples {
			sum := 0.0
			for ch := uint(0); ch < channels; ch++ {
				sum += reader.FloatValue(s, ch)
			}
			pcm = append(pcm, sum/float64(channels))
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read wav samples: %w", err)
		}
	}

	audio := &AudioData{
		PCM:        pcm,
		SampleRate: int(format.SampleRate),
		Channels:   int(format.NumChannels),
		Duration:   time.Duration(float64(len(pcm)) / float64(format.SampleRate) * float64(time.Second)),
	}

	logger.Debug("Decoded wav", logging.Fields{
		"samples":     len(pcm),
		"sample_rate": audio.SampleRate,
		"channels":    audio.Channels,
		"bits":        format.BitsPerSample,
	})

	return audio, nil
}

// RemoveDC runs the samples through a DC blocker with the given cutoff
func (a *AudioData) RemoveDC(cutoffHz float64) error {
	blocker, err := filters.NewDCBlocker(a.SampleRate, cutoffHz)
	if err != nil {
		return fmt.Errorf("remove dc: %w", err)
	}
	a.PCM = blocker.ProcessBuffer(a.PCM)
	return nil
}

// EncodeWAV writes mono samples in [-1, 1] as 16-bit PCM
func EncodeWAV(w io.Writer, pcm []float64, sampleRate int) error {
	samples := make([]wav.Sample, len(pcm))
	for i, v := range pcm {
		v = max(-1, min(1, v))
		samples[i] = wav.Sample{Values: [2]int{int(v * 32767)}}
	}

	writer := wav.NewWriter(w, uint32(len(samples)), 1, uint32(sampleRate), 16)
	return writer.WriteSamples(samples)
}
