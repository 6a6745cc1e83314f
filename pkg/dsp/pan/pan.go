// Package pan provides stereo panning laws.
package pan

import (
	"math"
)

// Law represents different panning laws
type Law int

const (
	// Linear uses linear panning (constant power not maintained)
	Linear Law = iota
	// ConstantPower uses sine/cosine panning (maintains constant power)
	ConstantPower
)

// MonoToStereo returns the left and right gains for pan in -1..1
// (-1 = hard left, 0 = center, 1 = hard right).
func MonoToStereo(pan float32, law Law) (left, right float32) {
	pan = max(-1, min(1, pan))
	if law == Linear {
		return (1 - pan) / 2, (1 + pan) / 2
	}
	angle := float64(pan+1) * math.Pi / 4
	return float32(math.Cos(angle)), float32(math.Sin(angle))
}
