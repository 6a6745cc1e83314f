// Package dsp provides the voltage conventions shared by the per-sample
// primitives in its subpackages.
package dsp

import "math"

// Voltage standards for cables between modules.
const (
	// AudioVoltage is the peak of a full-scale audio signal.
	AudioVoltage = 5.0
	// GateVoltage is the level of a high gate or trigger.
	GateVoltage = 10.0
	// CVVoltage is the peak of a bipolar modulation signal.
	CVVoltage = 5.0

	// TriggerHigh and TriggerLow are the Schmitt trigger thresholds.
	TriggerHigh = 1.0
	TriggerLow  = 0.1

	// FreqC4 is the pitch of 0 V on a V/OCT input.
	FreqC4 = 261.6256
)

// PitchToFreq converts a V/OCT voltage to Hz.
func PitchToFreq(voct float32) float32 {
	return FreqC4 * float32(math.Exp2(float64(voct)))
}

// FreqToPitch converts Hz to a V/OCT voltage.
func FreqToPitch(freq float32) float32 {
	return float32(math.Log2(float64(freq) / FreqC4))
}

// Clamp limits x to lo..hi.
func Clamp(x, lo, hi float32) float32 {
	return max(lo, min(hi, x))
}

// Trigger is a Schmitt trigger for gate and trigger inputs.
type Trigger struct {
	high bool
}

// Process returns true on the rising edge.
func (t *Trigger) Process(v float32) bool {
	if t.high {
		if v <= TriggerLow {
			t.high = false
		}
		return false
	}
	if v >= TriggerHigh {
		t.high = true
		return true
	}
	return false
}

// High reports whether the input is currently high.
func (t *Trigger) High() bool {
	return t.high
}

// Reset returns the trigger to low.
func (t *Trigger) Reset() {
	t.high = false
}
