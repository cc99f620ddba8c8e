package propagation

import (
	"image/color"
	"math"
)

// Wave is one admitted audio event. It is owned by the Tracker that created
// it; callers only read it.
type Wave struct {
	id           uint64
	amplitude    float64
	age          float64
	dominantBand int
	bandPercent  float64
	bands        []float64
	spectrum     []float64
	color        color.Color

	owner   *Tracker
	evicted bool

	relative    float64
	hasRelative bool
}

// ID is unique per Tracker and increases with admission order
func (w *Wave) ID() uint64 { return w.id }

// Amplitude is the scalar amplitude the wave was admitted with
func (w *Wave) Amplitude() float64 { return w.amplitude }

// Age is the time in seconds since admission
func (w *Wave) Age() float64 { return w.age }

// DominantBand is the index of the loudest band at admission
func (w *Wave) DominantBand() int { return w.dominantBand }

// BandPercent is DominantBand / bandCount, the value fed to the color lookup
func (w *Wave) BandPercent() float64 { return w.bandPercent }

// Color was derived from the dominant band at admission
func (w *Wave) Color() color.Color { return w.color }

// BandMagnitudes returns a copy of the reduced band magnitudes at admission
func (w *Wave) BandMagnitudes() []float64 {
	out := make([]float64, len(w.bands))
	copy(out, w.bands)
	return out
}

// Spectrum returns a copy of the admitted spectrum, or nil when the tracker
// does not retain spectra
func (w *Wave) Spectrum() []float64 {
	if w.spectrum == nil {
		return nil
	}
	out := make([]float64, len(w.spectrum))
	copy(out, w.spectrum)
	return out
}

// Radius is how far the wave front has travelled at the given speed
func (w *Wave) Radius(metersPerSecond float64) float64 {
	return w.age * metersPerSecond
}

// ActiveRange is the running (Min, Max) amplitude over live waves. An empty
// range is (+Inf, -Inf).
type ActiveRange struct {
	Min float64
	Max float64
}

// EmptyRange returns the uninitialized sentinel range
func EmptyRange() ActiveRange {
	return ActiveRange{Min: math.Inf(1), Max: math.Inf(-1)}
}

// Empty reports whether no amplitude has been observed
func (r ActiveRange) Empty() bool {
	return r.Min > r.Max
}

// Span is Max - Min, or 0 for an empty range
func (r ActiveRange) Span() float64 {
	if r.Empty() {
		return 0
	}
	return r.Max - r.Min
}

// Widen extends the range to include v. It never narrows.
func (r ActiveRange) Widen(v float64) ActiveRange {
	if v < r.Min {
		r.Min = v
	}
	if v > r.Max {
		r.Max = v
	}
	return r
}
