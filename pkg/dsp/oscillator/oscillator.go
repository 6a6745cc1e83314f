// Package oscillator provides per-sample audio oscillators for synthesis
package oscillator

import "math"

// Oscillator is a phase accumulator with band-limited waveforms. One
// Oscillator serves one polyphony channel.
type Oscillator struct {
	phase float64
	inc   float64
	// wrapped is set when the last Advance crossed the end of a cycle
	wrapped bool
}

// Advance moves the phase by freq*sampleTime cycles and returns true when a
// cycle ended. Negative frequencies run backwards (through-zero FM).
func (o *Oscillator) Advance(freq, sampleTime float64) bool {
	o.inc = freq * sampleTime
	o.phase += o.inc
	o.wrapped = o.phase >= 1 || o.phase < 0
	if o.wrapped {
		o.phase -= math.Floor(o.phase)
	}
	return o.wrapped
}

// Phase returns the current phase in 0..1
func (o *Oscillator) Phase() float64 {
	return o.phase
}

// SetPhase sets the phase, wrapped to 0..1
func (o *Oscillator) SetPhase(phase float64) {
	o.phase = phase - math.Floor(phase)
}

// Reset restarts the cycle (hard sync)
func (o *Oscillator) Reset() {
	o.phase = 0
}

// Sine returns the sine at the current phase
func (o *Oscillator) Sine() float32 {
	return float32(math.Sin(2 * math.Pi * o.phase))
}

// Triangle returns the triangle at the current phase
func (o *Oscillator) Triangle() float32 {
	p := o.phase
	if p < 0.25 {
		return float32(4 * p)
	}
	if p < 0.75 {
		return float32(2 - 4*p)
	}
	return float32(4*p - 4)
}

// Saw returns a rising saw with polyBLEP correction at the reset
func (o *Oscillator) Saw() float32 {
	p := o.phase + 0.5
	p -= math.Floor(p)
	return float32(2*p - 1 - polyBLEP(p, math.Abs(o.inc)))
}

// Square returns a pulse of the given width (0..1) with polyBLEP correction
// on both edges
func (o *Oscillator) Square(width float64) float32 {
	width = math.Max(0.01, math.Min(0.99, width))
	dt := math.Abs(o.inc)
	v := -1.0
	if o.phase < width {
		v = 1
	}
	v += polyBLEP(o.phase, dt)
	fall := o.phase - width
	fall -= math.Floor(fall)
	v -= polyBLEP(fall, dt)
	return float32(v)
}

// polyBLEP is the two-sample polynomial step residual at phase t for a phase
// increment dt
func polyBLEP(t, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	if t < dt {
		t /= dt
		return t + t - t*t - 1
	}
	if t > 1-dt {
		t = (t - 1) / dt
		return t*t + t + t + 1
	}
	return 0
}
