// Package modulation provides low frequency modulation sources
package modulation

import (
	"math"
	"math/rand/v2"
)

// Waveform represents the LFO waveform shape
type Waveform int

const (
	// WaveformSine produces a sine wave
	WaveformSine Waveform = iota
	// WaveformTriangle produces a triangle wave
	WaveformTriangle
	// WaveformSawtooth produces a sawtooth wave (ramp up)
	WaveformSawtooth
	// WaveformSquare produces a square wave
	WaveformSquare
	// WaveformRandom produces random values (sample & hold noise)
	WaveformRandom
)

// Outputs holds every waveform for the current phase, in -1..1
type Outputs struct {
	Sine     float32
	Triangle float32
	Saw      float32
	Square   float32
	Random   float32
}

// Pick returns one waveform
func (o Outputs) Pick(w Waveform) float32 {
	switch w {
	case WaveformTriangle:
		return o.Triangle
	case WaveformSawtooth:
		return o.Saw
	case WaveformSquare:
		return o.Square
	case WaveformRandom:
		return o.Random
	default:
		return o.Sine
	}
}

// LFO is a free-running low frequency oscillator for one channel. The
// random output holds a new value for each cycle.
type LFO struct {
	// Offset shifts the phase, in cycles
	Offset float64
	// Unipolar maps every output to 0..1
	Unipolar bool

	phase  float64
	random float32
	rng    *rand.Rand
}

// NewLFO returns an LFO whose random output is seeded with seed
func NewLFO(seed uint64) *LFO {
	l := &LFO{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
	l.random = l.next()
	return l
}

func (l *LFO) next() float32 {
	if l.rng == nil {
		l.rng = rand.New(rand.NewPCG(1, 2))
	}
	return float32(2*l.rng.Float64() - 1)
}

// Process advances freq*sampleTime cycles and returns every waveform
func (l *LFO) Process(freq, sampleTime float64) Outputs {
	l.phase += freq * sampleTime
	if l.phase >= 1 || l.phase < 0 {
		l.phase -= math.Floor(l.phase)
		l.random = l.next()
	}

	p := l.phase + l.Offset
	p -= math.Floor(p)
	out := Outputs{
		Sine:   float32(math.Sin(2 * math.Pi * p)),
		Saw:    float32(2*p - 1),
		Random: l.random,
	}
	switch {
	case p < 0.25:
		out.Triangle = float32(4 * p)
	case p < 0.75:
		out.Triangle = float32(2 - 4*p)
	default:
		out.Triangle = float32(4*p - 4)
	}
	out.Square = -1
	if p < 0.5 {
		out.Square = 1
	}

	if l.Unipolar {
		out.Sine = (out.Sine + 1) / 2
		out.Triangle = (out.Triangle + 1) / 2
		out.Saw = (out.Saw + 1) / 2
		out.Square = (out.Square + 1) / 2
		out.Random = (out.Random + 1) / 2
	}
	return out
}

// Phase returns the current phase (0-1)
func (l *LFO) Phase() float64 {
	return l.phase
}

// Reset restarts the cycle
func (l *LFO) Reset() {
	l.phase = 0
}
