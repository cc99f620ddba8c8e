package transcode

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/RyanBlaney/sonido-ripple/internal/testutil"
)

func encode(t *testing.T, pcm []float64, rate int) *bytes.Reader {
	t.Helper()
	var buf bytes.Buffer
	if err := EncodeWAV(&buf, pcm, rate); err != nil {
		t.Fatalf("EncodeWAV() error = %v", err)
	}
	return bytes.NewReader(buf.Bytes())
}

func TestDecodeWAVRoundTrip(t *testing.T) {
	rate := 8000
	pcm := testutil.Sine(440, float64(rate), 0.5, 800)

	audio, err := DecodeWAV(encode(t, pcm, rate))
	if err != nil {
		t.Fatalf("DecodeWAV() error = %v", err)
	}

	if audio.SampleRate != rate {
		t.Errorf("SampleRate = %d, want %d", audio.SampleRate, rate)
	}
	if audio.Channels != 1 {
		t.Errorf("Channels = %d, want 1", audio.Channels)
	}
	if audio.Duration != 100*time.Millisecond {
		t.Errorf("Duration = %v, want 100ms", audio.Duration)
	}
	testutil.RequireSliceNearlyEqual(t, audio.PCM, pcm, 1e-3)
}

func TestEncodeWAVClips(t *testing.T) {
	audio, err := DecodeWAV(encode(t, []float64{2, -2, 0}, 8000))
	if err != nil {
		t.Fatalf("DecodeWAV() error = %v", err)
	}
	testutil.RequireSliceNearlyEqual(t, audio.PCM, []float64{1, -1, 0}, 1e-3)
}

func TestRemoveDC(t *testing.T) {
	audio := &AudioData{PCM: testutil.DC(0.3, 4000), SampleRate: 8000}
	if err := audio.RemoveDC(20); err != nil {
		t.Fatalf("RemoveDC() error = %v", err)
	}
	testutil.RequireNearlyEqual(t, audio.PCM[len(audio.PCM)-1], 0, 1e-6)

	if err := audio.RemoveDC(5000); err == nil {
		t.Error("expected error for cutoff above nyquist")
	}
}

func TestDecodeWAVInvalid(t *testing.T) {
	if _, err := DecodeWAV(bytes.NewReader([]byte("not a wav file at all"))); err == nil {
		t.Error("expected error for garbage input")
	}
}

func TestDecodeWAVFileMissing(t *testing.T) {
	if _, err := DecodeWAVFile(t.TempDir() + "/missing.wav"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSliceFrames(t *testing.T) {
	audio := &AudioData{PCM: make([]float64, 100), SampleRate: 50}
	for i := range audio.PCM {
		audio.PCM[i] = float64(i)
	}

	tests := []struct {
		name      string
		frameSize int
		hopSize   int
		want      int
	}{
		{"no overlap", 10, 10, 10},
		{"half overlap", 20, 10, 9},
		{"skip", 10, 25, 4},
		{"longer than input", 200, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frames, err := SliceFrames(audio, tt.frameSize, tt.hopSize)
			if err != nil {
				t.Fatalf("SliceFrames() error = %v", err)
			}
			if len(frames) != tt.want {
				t.Fatalf("got %d frames, want %d", len(frames), tt.want)
			}
			for i, f := range frames {
				if len(f.Samples) != tt.frameSize {
					t.Errorf("frame %d has %d samples", i, len(f.Samples))
				}
				if f.Samples[0] != float64(i*tt.hopSize) {
					t.Errorf("frame %d starts at %v, want %d", i, f.Samples[0], i*tt.hopSize)
				}
				testutil.RequireNearlyEqual(t, f.DeltaSeconds, float64(tt.hopSize)/50, 1e-12)
			}
		})
	}
}

func TestSliceFramesInvalid(t *testing.T) {
	if _, err := SliceFrames(nil, 10, 10); err == nil {
		t.Error("expected error for nil audio")
	}
	audio := &AudioData{PCM: make([]float64, 10), SampleRate: 10}
	if _, err := SliceFrames(audio, 0, 10); err == nil {
		t.Error("expected error for zero frame size")
	}
}

func TestStreamFrames(t *testing.T) {
	frames := []Frame{{DeltaSeconds: 1}, {DeltaSeconds: 2}, {DeltaSeconds: 3}}

	var got []float64
	for f := range StreamFrames(context.Background(), frames) {
		got = append(got, f.DeltaSeconds)
	}
	testutil.RequireSliceNearlyEqual(t, got, []float64{1, 2, 3}, 0)
}

func TestStreamFramesCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := StreamFrames(ctx, make([]Frame, 10))
	<-ch
	cancel()
	// drains without blocking once the producer observes cancellation
	for range ch {
	}
}
