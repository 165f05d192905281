package ring

import (
	"math/rand/v2"

	"github.com/spatialhue/lightcontrol/pkg/core"
)

var paletteDegrees = []float64{0, 30, 60, 120, 180, 240, 270, 300}

// Palette returns the preset token colors in ring order.
func Palette() []core.Color {
	colors := make([]core.Color, len(paletteDegrees))
	for i, deg := range paletteDegrees {
		colors[i] = core.ColorFromDegrees(deg)
	}
	return colors
}

// RandomColor picks one preset color.
func RandomColor(r *rand.Rand) core.Color {
	p := Palette()
	if r == nil {
		return p[rand.IntN(len(p))]
	}
	return p[r.IntN(len(p))]
}
