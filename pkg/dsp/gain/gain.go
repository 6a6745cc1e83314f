// Package gain provides amplitude conversion and clipping for single samples.
package gain

import (
	"math"
)

// MinDB is the level reported for silence.
const MinDB = -200.0

// LinearToDb converts a linear amplitude value to decibels.
// Returns MinDB for values <= 0.
func LinearToDb(linear float64) float64 {
	if linear <= 0 {
		return MinDB
	}
	return math.Max(MinDB, 20*math.Log10(linear))
}

// DbToLinear converts a decibel value to linear amplitude.
// Values <= MinDB return 0.
func DbToLinear(db float64) float64 {
	if db <= MinDB {
		return 0
	}
	return math.Pow(10, db/20)
}

// SoftClip saturates smoothly above threshold and never exceeds it.
func SoftClip(input, threshold float32) float32 {
	if threshold <= 0 {
		return 0
	}
	if input <= threshold && input >= -threshold {
		return input
	}
	return threshold * fastTanh32(input/threshold)
}

// HardClip limits input to -threshold..threshold.
func HardClip(input, threshold float32) float32 {
	return max(-threshold, min(threshold, input))
}

// fastTanh32 approximates tanh for soft clipping.
func fastTanh32(x float32) float32 {
	if x < -3 {
		return -1
	}
	if x > 3 {
		return 1
	}
	x2 := x * x
	return x * (27 + x2) / (27 + 9*x2)
}
