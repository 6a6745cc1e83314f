// Package utility provides per-sample noise sources and signal conditioning.
package utility

import (
	"math/rand/v2"
)

// NoiseOutputs holds one sample of every colour, each roughly in -1..1.
type NoiseOutputs struct {
	White  float32
	Pink   float32 // -3 dB/oct
	Brown  float32 // -6 dB/oct
	Blue   float32 // +3 dB/oct
	Violet float32 // +6 dB/oct
}

// Noise generates all colours from one white source so they stay
// correlated. It is deterministic for a given seed.
type Noise struct {
	rng *rand.Rand

	// Paul Kellet's refined pink filter
	b0, b1, b2, b3, b4, b5, b6 float32

	brown     float32
	lastWhite float32
	lastPink  float32
}

// NewNoise creates a generator seeded with seed.
func NewNoise(seed uint64) *Noise {
	return &Noise{rng: rand.New(rand.NewPCG(seed, ^seed))}
}

// Next generates one sample of every colour.
func (n *Noise) Next() NoiseOutputs {
	white := float32(2*n.rng.Float64() - 1)

	n.b0 = 0.99886*n.b0 + white*0.0555179
	n.b1 = 0.99332*n.b1 + white*0.0750759
	n.b2 = 0.96900*n.b2 + white*0.1538520
	n.b3 = 0.86650*n.b3 + white*0.3104856
	n.b4 = 0.55000*n.b4 + white*0.5329522
	n.b5 = -0.7616*n.b5 - white*0.0168980
	pink := (n.b0 + n.b1 + n.b2 + n.b3 + n.b4 + n.b5 + n.b6 + white*0.5362) * 0.11
	n.b6 = white * 0.115926

	// leaky integrator keeps brown noise centred
	n.brown = 0.998*n.brown + white*0.05
	out := NoiseOutputs{
		White:  white,
		Pink:   pink,
		Brown:  clamp1(n.brown * 3),
		Blue:   clamp1((pink - n.lastPink) * 2),
		Violet: (white - n.lastWhite) * 0.5,
	}
	n.lastWhite = white
	n.lastPink = pink
	return out
}

func clamp1(x float32) float32 {
	return max(-1, min(1, x))
}

// DCBlocker is a first-order highpass with a very low cutoff, for one
// channel: y[n] = x[n] - x[n-1] + R*y[n-1].
type DCBlocker struct {
	R      float32
	x1, y1 float32
}

// NewDCBlocker returns a blocker with a cutoff of about 10 Hz at sampleRate.
func NewDCBlocker(sampleRate float64) *DCBlocker {
	r := float32(1 - 2*3.14159265359*10/sampleRate)
	return &DCBlocker{R: max(0.9, min(0.9999, r))}
}

// Process filters one sample.
func (dc *DCBlocker) Process(x float32) float32 {
	y := x - dc.x1 + dc.R*dc.y1
	dc.x1, dc.y1 = x, y
	return y
}

// Reset clears the filter state.
func (dc *DCBlocker) Reset() {
	dc.x1, dc.y1 = 0, 0
}
