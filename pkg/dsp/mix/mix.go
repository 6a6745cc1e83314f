// Package mix provides per-sample crossfades.
package mix

import (
	"math"
)

// DryWet mixes dry and wet signals; amount 0 is fully dry.
func DryWet(dry, wet, amount float32) float32 {
	return dry*(1-amount) + wet*amount
}

// CrossfadeCosine performs an equal-power cosine crossfade.
// position: 0.0 = 100% a, 1.0 = 100% b
func CrossfadeCosine(a, b, position float32) float32 {
	angle := float64(position) * math.Pi / 2
	return a*float32(math.Cos(angle)) + b*float32(math.Sin(angle))
}
