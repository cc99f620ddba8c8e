package common

import "fmt"

// SlidingWindow cuts a sample stream into fixed-size frames that advance by
// hopSize samples. Frames overlap when hopSize < windowSize and skip samples
// when hopSize > windowSize.
type SlidingWindow struct {
	buffer     []float64
	windowSize int
	hopSize    int
	filled     int
	skip       int
}

// NewSlidingWindow creates a new sliding window
func NewSlidingWindow(windowSize, hopSize int) (*SlidingWindow, error) {
	if windowSize <= 0 || hopSize <= 0 {
		return nil, fmt.Errorf("window size (%d) and hop size (%d) must be positive", windowSize, hopSize)
	}

	return &SlidingWindow{
		buffer:     make([]float64, windowSize),
		windowSize: windowSize,
		hopSize:    hopSize,
	}, nil
}

// AddSamples adds samples and returns every frame completed by them.
// Returned frames are fresh copies.
func (sw *SlidingWindow) AddSamples(samples []float64) [][]float64 {
	var frames [][]float64

	for _, sample := range samples {
		if sw.skip > 0 {
			sw.skip--
			continue
		}

		sw.buffer[sw.filled] = sample
		sw.filled++

		if sw.filled < sw.windowSize {
			continue
		}

		frame := make([]float64, sw.windowSize)
		copy(frame, sw.buffer)
		frames = append(frames, frame)

		if sw.hopSize < sw.windowSize {
			copy(sw.buffer, sw.buffer[sw.hopSize:])
			sw.filled = sw.windowSize - sw.hopSize
		} else {
			sw.filled = 0
			sw.skip = sw.hopSize - sw.windowSize
		}
	}

	return frames
}

// Reset clears the sliding window
func (sw *SlidingWindow) Reset() {
	sw.filled = 0
	sw.skip = 0
	clear(sw.buffer)
}

// WindowSize returns the frame length
func (sw *SlidingWindow) WindowSize() int {
	return sw.windowSize
}

// HopSize returns the frame advance
func (sw *SlidingWindow) HopSize() int {
	return sw.hopSize
}
