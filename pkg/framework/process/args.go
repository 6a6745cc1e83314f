// Package process provides the per-frame context passed to module hooks.
package process

// Args describes the frame a module is asked to process.
type Args struct {
	SampleRate float64
	SampleTime float64 // 1 / SampleRate
	Frame      int64   // frames since the engine started
}

// NewArgs returns Args for sampleRate at the given frame.
func NewArgs(sampleRate float64, frame int64) Args {
	return Args{
		SampleRate: sampleRate,
		SampleTime: 1 / sampleRate,
		Frame:      frame,
	}
}

// Time returns the frame's position in seconds.
func (a Args) Time() float64 {
	return float64(a.Frame) * a.SampleTime
}
