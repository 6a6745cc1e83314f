package param

import "math"

// DefaultLambda is the approach rate, in 1/s, used for knob and remote writes.
const DefaultLambda = 60.0

// Coefficient converts an approach rate and a sample time into the per-step
// one-pole coefficient, capped at 1.
func Coefficient(lambda, sampleTime float64) float64 {
	return math.Min(1, math.Max(0, lambda*sampleTime))
}

// Smoother moves a value toward a target with a one-pole filter:
// y += (target - y) * coef.
//
// The current value is supplied by the caller on every step so the same
// smoother can drive a Param in place or keep its own state.
type Smoother struct {
	target      float64
	threshold   float64
	isSmoothing bool
}

// NewSmoother creates an idle smoother.
func NewSmoother() *Smoother {
	return &Smoother{threshold: 1e-6}
}

// SetTarget starts approaching target.
func (s *Smoother) SetTarget(target float64) {
	s.target = target
	s.isSmoothing = true
}

// Target returns the value being approached.
func (s *Smoother) Target() float64 {
	return s.target
}

// IsSmoothing returns true until the target has been reached.
func (s *Smoother) IsSmoothing() bool {
	return s.isSmoothing
}

// SetThreshold sets the distance at which the target is considered reached.
func (s *Smoother) SetThreshold(threshold float64) {
	s.threshold = threshold
}

// Stop abandons the current target.
func (s *Smoother) Stop() {
	s.isSmoothing = false
}

// Next advances current one step and returns the new value. Once the value
// stops moving or is within the threshold it snaps to the target exactly.
func (s *Smoother) Next(current, coef float64) float64 {
	if !s.isSmoothing {
		return current
	}
	next := current + (s.target-current)*coef
	if next == current || math.Abs(s.target-next) <= s.threshold {
		s.isSmoothing = false
		return s.target
	}
	return next
}

// Filter is a self-contained one-pole filter for signals that are not
// Params, such as controller values and light brightness.
type Filter struct {
	Lambda float64
	out    float64
	primed bool
}

// Process advances the filter by deltaTime seconds toward in.
func (f *Filter) Process(deltaTime, in float64) float64 {
	if !f.primed {
		f.out, f.primed = in, true
		return in
	}
	f.out += (in - f.out) * Coefficient(f.Lambda, deltaTime)
	return f.out
}

// Out returns the last output.
func (f *Filter) Out() float64 {
	return f.out
}

// Reset forgets the filter state; the next input passes straight through.
func (f *Filter) Reset() {
	f.out, f.primed = 0, false
}
