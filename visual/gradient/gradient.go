// Package gradient maps a [0,1] percent onto a color by interpolating
// between sorted color keys.
package gradient

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"github.com/RyanBlaney/sonido-ripple/algorithms/common"
)

// Key pins a color at a position in [0,1]
type Key struct {
	Position float64
	Color    color.RGBA
}

// Gradient is immutable after construction and safe for concurrent reads
type Gradient struct {
	keys []Key
}

// New sorts the keys by position. At least one key is required.
func New(keys ...Key) (*Gradient, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("gradient needs at least one key")
	}

	sorted := make([]Key, len(keys))
	copy(sorted, keys)
	for _, k := range sorted {
		if !(k.Position >= 0 && k.Position <= 1) {
			return nil, fmt.Errorf("key position %v outside [0, 1]", k.Position)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Position < sorted[j].Position
	})

	return &Gradient{keys: sorted}, nil
}

// Default runs blue at low bands through green to red at high bands
func Default() *Gradient {
	return &Gradient{keys: []Key{
		{Position: 0, Color: color.RGBA{R: 0x20, G: 0x40, B: 0xff, A: 0xff}},
		{Position: 0.5, Color: color.RGBA{R: 0x20, G: 0xe0, B: 0x60, A: 0xff}},
		{Position: 1, Color: color.RGBA{R: 0xff, G: 0x30, B: 0x20, A: 0xff}},
	}}
}

// Evaluate returns the color at percent, clamped to [0,1]. Positions
// outside the first and last key take the end colors.
func (g *Gradient) Evaluate(percent float64) color.Color {
	if math.IsNaN(percent) {
		percent = 0
	}
	percent = common.Clamp(percent, 0, 1)

	first, last := g.keys[0], g.keys[len(g.keys)-1]
	if percent <= first.Position {
		return first.Color
	}
	if percent >= last.Position {
		return last.Color
	}

	// first key strictly after percent
	i := sort.Search(len(g.keys), func(i int) bool {
		return g.keys[i].Position > percent
	})
	lo, hi := g.keys[i-1], g.keys[i]
	t := common.InverseLerp(lo.Position, hi.Position, percent)

	return color.RGBA{
		R: mix(lo.Color.R, hi.Color.R, t),
		G: mix(lo.Color.G, hi.Color.G, t),
		B: mix(lo.Color.B, hi.Color.B, t),
		A: mix(lo.Color.A, hi.Color.A, t),
	}
}

func mix(a, b uint8, t float64) uint8 {
	return uint8(math.Round(common.Lerp(float64(a), float64(b), t)))
}
