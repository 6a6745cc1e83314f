// Package filter provides per-sample digital filters
package filter

import "math"

// SVF is a zero-delay-feedback state variable filter for one channel.
// All four responses are computed on every sample.
type SVF struct {
	g, k float64
	a1   float64
	a2   float64
	a3   float64

	ic1eq float64
	ic2eq float64
}

// SVFOutputs holds all filter outputs
type SVFOutputs struct {
	Lowpass  float32
	Highpass float32
	Bandpass float32
	Notch    float32
}

// SetCutoff sets the cutoff in Hz and the resonance as Q. The cutoff is
// limited to just below Nyquist.
func (s *SVF) SetCutoff(sampleRate, cutoff, q float64) {
	cutoff = math.Max(1, math.Min(cutoff, 0.49*sampleRate))
	q = math.Max(0.1, q)
	s.g = math.Tan(math.Pi * cutoff / sampleRate)
	s.k = 1 / q
	s.a1 = 1 / (1 + s.g*(s.g+s.k))
	s.a2 = s.g * s.a1
	s.a3 = s.g * s.a2
}

// Process filters one sample
func (s *SVF) Process(in float32) SVFOutputs {
	x := float64(in)
	v3 := x - s.ic2eq
	v1 := s.a1*s.ic1eq + s.a2*v3
	v2 := s.ic2eq + s.a2*s.ic1eq + s.a3*v3
	s.ic1eq = 2*v1 - s.ic1eq
	s.ic2eq = 2*v2 - s.ic2eq

	return SVFOutputs{
		Lowpass:  float32(v2),
		Bandpass: float32(v1),
		Highpass: float32(x - s.k*v1 - v2),
		Notch:    float32(x - s.k*v1),
	}
}

// Reset clears the filter state
func (s *SVF) Reset() {
	s.ic1eq, s.ic2eq = 0, 0
}

// OnePole is a one-pole lowpass with a matching highpass output
type OnePole struct {
	b  float64
	y1 float64
}

// SetCutoff sets the -3 dB point in Hz
func (f *OnePole) SetCutoff(sampleRate, cutoff float64) {
	f.b = math.Exp(-2 * math.Pi * math.Min(cutoff, 0.49*sampleRate) / sampleRate)
}

// Lowpass filters one sample
func (f *OnePole) Lowpass(in float32) float32 {
	f.y1 = (1-f.b)*float64(in) + f.b*f.y1
	return float32(f.y1)
}

// Highpass filters one sample; it shares state with Lowpass
func (f *OnePole) Highpass(in float32) float32 {
	return in - f.Lowpass(in)
}

// Reset clears the filter state
func (f *OnePole) Reset() {
	f.y1 = 0
}
