package transcode

import (
	"context"
	"fmt"

	"github.com/RyanBlaney/sonido-ripple/algorithms/common"
)

// Frame is one tick's worth of input: a PCM window and the simulated time
// that passed since the previous frame
type Frame struct {
	Samples      []float64
	DeltaSeconds float64
}

// SliceFrames cuts audio into frames of frameSize samples advancing by
// hopSize. Trailing samples that do not fill a frame are dropped.
func SliceFrames(audio *AudioData, frameSize, hopSize int) ([]Frame, error) {
	if audio == nil || audio.SampleRate <= 0 {
		return nil, fmt.Errorf("audio data cannot be nil or have a zero sample rate")
	}

	window, err := common.NewSlidingWindow(frameSize, hopSize)
	if err != nil {
		return nil, err
	}

	delta := float64(hopSize) / float64(audio.SampleRate)
	chunks := window.AddSamples(audio.PCM)
	frames := make([]Frame, len(chunks))
	for i, c := range chunks {
		frames[i] = Frame{Samples: c, DeltaSeconds: delta}
	}

	return frames, nil
}

// StreamFrames sends frames on the returned channel from a goroutine and
// closes it when done or when ctx is cancelled
func StreamFrames(ctx context.Context, frames []Frame) <-chan Frame {
	out := make(chan Frame)
	go func() {
		defer close(out)
		for _, f := range frames {
			select {
			case out <- f:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
