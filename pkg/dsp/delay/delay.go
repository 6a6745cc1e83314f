// Package delay provides per-sample delay lines
package delay

import (
	"math"

	"github.com/justyntemme/rackgo/pkg/dsp/interpolation"
)

// Line is a circular delay line with fractional, Hermite-interpolated reads.
// Its length is a power of two so wrapping is a mask.
type Line struct {
	buffer []float32
	mask   int
	write  int
}

// New creates a delay line holding at least maxSamples samples
func New(maxSamples int) *Line {
	size := 4
	for size < maxSamples+4 {
		size <<= 1
	}
	return &Line{buffer: make([]float32, size), mask: size - 1}
}

// NewSeconds creates a delay line holding maxSeconds at sampleRate
func NewSeconds(maxSeconds, sampleRate float64) *Line {
	return New(int(math.Ceil(maxSeconds * sampleRate)))
}

// MaxDelay returns the longest readable delay in samples
func (d *Line) MaxDelay() float64 {
	return float64(len(d.buffer) - 3)
}

// Write pushes one sample
func (d *Line) Write(sample float32) {
	d.buffer[d.write] = sample
	d.write = (d.write + 1) & d.mask
}

// Read returns the sample written delay samples ago. delay is clamped to
// 1..MaxDelay.
func (d *Line) Read(delay float64) float32 {
	delay = math.Max(1, math.Min(delay, d.MaxDelay()))
	whole := int(delay)
	frac := float32(delay - float64(whole))

	// y1 is written whole samples ago, y2 one sample earlier
	i := d.write - whole
	y1 := d.buffer[i&d.mask]
	y0 := y1
	if whole > 1 {
		y0 = d.buffer[(i+1)&d.mask]
	}
	y2 := d.buffer[(i-1)&d.mask]
	y3 := d.buffer[(i-2)&d.mask]
	return interpolation.Hermite(y0, y1, y2, y3, frac)
}

// Process reads the delayed sample and then writes input
func (d *Line) Process(input float32, delay float64) float32 {
	out := d.Read(delay)
	d.Write(input)
	return out
}

// Reset clears the buffer
func (d *Line) Reset() {
	clear(d.buffer)
	d.write = 0
}
