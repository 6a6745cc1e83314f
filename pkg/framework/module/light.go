package module

import (
	"math"
	"sync/atomic"
)

// LightLambda is the decay rate of SetSmoothBrightness, in 1/s.
const LightLambda = 30

// Light is a brightness value written by the audio thread and read by anyone.
type Light struct {
	Name  string
	value atomic.Uint32
}

// Brightness returns the current value in [0, 1] for most lights.
func (l *Light) Brightness() float32 {
	return math.Float32frombits(l.value.Load())
}

// SetBrightness sets the value immediately.
func (l *Light) SetBrightness(b float32) {
	l.value.Store(math.Float32bits(b))
}

// SetSmoothBrightness rises immediately and decays exponentially toward b.
func (l *Light) SetSmoothBrightness(b, deltaTime float32) {
	v := l.Brightness()
	if b < v {
		v += (b - v) * LightLambda * deltaTime
		if v < b {
			v = b
		}
	} else {
		v = b
	}
	l.SetBrightness(v)
}
