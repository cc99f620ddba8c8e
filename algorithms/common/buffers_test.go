package common

import (
	"testing"

	"github.com/RyanBlaney/sonido-ripple/internal/testutil"
)

func ramp(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

func TestSlidingWindowOverlap(t *testing.T) {
	sw, err := NewSlidingWindow(4, 2)
	if err != nil {
		t.Fatal(err)
	}

	frames := sw.AddSamples(ramp(8))
	if len(frames) != 3 {
		t.Fatalf("got %d frames, want 3", len(frames))
	}
	testutil.RequireSliceNearlyEqual(t, frames[0], []float64{0, 1, 2, 3}, 0)
	testutil.RequireSliceNearlyEqual(t, frames[1], []float64{2, 3, 4, 5}, 0)
	testutil.RequireSliceNearlyEqual(t, frames[2], []float64{4, 5, 6, 7}, 0)
}

func TestSlidingWindowSkip(t *testing.T) {
	sw, err := NewSlidingWindow(2, 3)
	if err != nil {
		t.Fatal(err)
	}

	frames := sw.AddSamples(ramp(8))
	if len(frames) != 3 {
		t.Fatalf("got %d frames, want 3", len(frames))
	}
	testutil.RequireSliceNearlyEqual(t, frames[0], []float64{0, 1}, 0)
	testutil.RequireSliceNearlyEqual(t, frames[1], []float64{3, 4}, 0)
	testutil.RequireSliceNearlyEqual(t, frames[2], []float64{6, 7}, 0)
}

func TestSlidingWindowAcrossCalls(t *testing.T) {
	sw, _ := NewSlidingWindow(3, 3)

	if frames := sw.AddSamples([]float64{1, 2}); len(frames) != 0 {
		t.Fatalf("partial frame emitted: %v", frames)
	}
	frames := sw.AddSamples([]float64{3, 4})
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	testutil.RequireSliceNearlyEqual(t, frames[0], []float64{1, 2, 3}, 0)

	sw.Reset()
	if frames := sw.AddSamples([]float64{9, 9}); len(frames) != 0 {
		t.Fatalf("reset did not drop buffered samples")
	}
}

func TestNewSlidingWindowRejectsNonPositive(t *testing.T) {
	if _, err := NewSlidingWindow(0, 1); err == nil {
		t.Error("expected error for zero window")
	}
	if _, err := NewSlidingWindow(4, 0); err == nil {
		t.Error("expected error for zero hop")
	}
}
