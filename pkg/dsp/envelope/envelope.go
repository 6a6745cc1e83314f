// Package envelope provides per-sample envelope generators for synthesis
package envelope

import "math"

// Stage represents the current envelope stage
type Stage int

const (
	// StageIdle represents envelope idle state
	StageIdle Stage = iota
	// StageAttack represents envelope attack phase
	StageAttack
	// StageDecay represents envelope decay phase
	StageDecay
	// StageSustain represents envelope sustain phase
	StageSustain
	// StageRelease represents envelope release phase
	StageRelease
)

func (s Stage) String() string {
	switch s {
	case StageAttack:
		return "attack"
	case StageDecay:
		return "decay"
	case StageSustain:
		return "sustain"
	case StageRelease:
		return "release"
	default:
		return "idle"
	}
}

// minTime keeps stage rates finite.
const minTime = 1e-3

// ADSR is a gated Attack-Decay-Sustain-Release envelope for one channel.
// The attack is linear; decay and release approach their targets
// exponentially. Output is in 0..1.
type ADSR struct {
	Attack  float64 // seconds
	Decay   float64 // seconds
	Sustain float64 // 0..1
	Release float64 // seconds

	stage Stage
	value float64
}

// NewADSR returns an envelope with the given times
func NewADSR(attack, decay, sustain, release float64) *ADSR {
	return &ADSR{Attack: attack, Decay: decay, Sustain: sustain, Release: release}
}

// Process advances the envelope by sampleTime seconds. A rising gate starts
// the attack from the current value; retrigger restarts it while the gate is
// held.
func (e *ADSR) Process(gate, retrigger bool, sampleTime float64) float32 {
	sustain := math.Max(0, math.Min(1, e.Sustain))
	if gate {
		if retrigger || e.stage == StageIdle || e.stage == StageRelease {
			e.stage = StageAttack
		}
	} else if e.stage != StageIdle {
		e.stage = StageRelease
	}

	switch e.stage {
	case StageAttack:
		e.value += sampleTime / math.Max(e.Attack, minTime)
		if e.value >= 1 {
			e.value = 1
			e.stage = StageDecay
		}
	case StageDecay:
		e.value += (sustain - e.value) * rate(e.Decay, sampleTime)
		if math.Abs(e.value-sustain) < 1e-4 {
			e.value = sustain
			e.stage = StageSustain
		}
	case StageSustain:
		e.value = sustain
	case StageRelease:
		e.value -= e.value * rate(e.Release, sampleTime)
		if e.value < 1e-4 {
			e.value = 0
			e.stage = StageIdle
		}
	}
	return float32(e.value)
}

// rate is the per-sample coefficient that covers about 99% of an exponential
// segment in t seconds.
func rate(t, sampleTime float64) float64 {
	return math.Min(1, 4.6*sampleTime/math.Max(t, minTime))
}

// Stage returns the current stage
func (e *ADSR) Stage() Stage {
	return e.stage
}

// Value returns the last output
func (e *ADSR) Value() float32 {
	return float32(e.value)
}

// Reset returns the envelope to idle at 0
func (e *ADSR) Reset() {
	e.stage = StageIdle
	e.value = 0
}
