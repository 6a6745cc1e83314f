package core

import (
	"fmt"
	"sync"

	"github.com/justyntemme/rackgo/pkg/framework/module"
	"github.com/justyntemme/rackgo/pkg/framework/param"
	"github.com/justyntemme/rackgo/pkg/framework/process"
)

// AudioChannels is the number of device channels in each direction.
const AudioChannels = 2

// FullScale is the voltage that maps to a sample value of 1.
const FullScale = 10.0

const (
	// Audio params
	AudioLevel = iota
	audioNumParams
)

const (
	// Audio lights
	AudioLightClip = iota
	audioNumLights
)

// Audio bridges the patch and an audio device. Each frame it appends its
// inputs to an interleaved buffer the driver collects with Drain, and plays
// frames queued with Feed on its outputs. Polyphonic inputs are summed.
type Audio struct {
	m *module.Module

	mu      sync.Mutex
	out     []float32
	in      []float32
	inFrame int
	clipped bool
}

// AudioModel builds Audio modules.
var AudioModel = &module.Model{
	Slug:        "Audio",
	Name:        "Audio",
	Description: "Sends and receives audio from the host device",
	Tags:        []string{"external"},
	New:         newAudio,
}

func newAudio(m *module.Module) module.Processor {
	m.Config(audioNumParams, AudioChannels, AudioChannels, audioNumLights)
	m.ConfigParam(param.New(AudioLevel, "Level").Range(0, 2).Default(1).Display(0, 100, 0).Formatter(param.PercentFormatter, param.PercentParser))
	for c := 0; c < AudioChannels; c++ {
		m.ConfigInput(c, fmt.Sprintf("To device %d", c+1))
		m.ConfigOutput(c, fmt.Sprintf("From device %d", c+1))
	}
	m.ConfigLight(AudioLightClip, "Clip")
	return &Audio{m: m}
}

// Process implements module.Processor.
func (a *Audio) Process(args process.Args) {
	level := float32(a.m.Params[AudioLevel].Value())

	a.mu.Lock()
	defer a.mu.Unlock()
	for c := 0; c < AudioChannels; c++ {
		s := level * a.m.Inputs[c].VoltageSum() / FullScale
		if s > 1 || s < -1 {
			a.clipped = true
			s = max(-1, min(1, s))
		}
		a.out = append(a.out, s)
	}

	if a.inFrame < len(a.in)/AudioChannels {
		for c := 0; c < AudioChannels; c++ {
			a.m.Outputs[c].SetVoltage(FullScale*a.in[a.inFrame*AudioChannels+c], 0)
		}
		a.inFrame++
	} else {
		for c := 0; c < AudioChannels; c++ {
			a.m.Outputs[c].SetVoltage(0, 0)
		}
	}

	var b float32
	if a.clipped {
		b = 1
	}
	a.m.Lights[AudioLightClip].SetSmoothBrightness(b, float32(args.SampleTime))
}

// Reserve grows the output buffer to hold frames frames without allocating
// during processing.
func (a *Audio) Reserve(frames int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if need := frames * AudioChannels; cap(a.out) < need {
		buf := make([]float32, len(a.out), need)
		copy(buf, a.out)
		a.out = buf
	}
}

// Drain moves up to len(dst)/AudioChannels buffered frames into dst and
// returns the number of samples written.
func (a *Audio) Drain(dst []float32) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := copy(dst[:len(dst)-len(dst)%AudioChannels], a.out)
	rest := copy(a.out, a.out[n:])
	a.out = a.out[:rest]
	a.clipped = false
	return n
}

// Buffered returns the number of frames waiting to be drained.
func (a *Audio) Buffered() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.out) / AudioChannels
}

// Feed queues interleaved device input. Frames are played one per processed
// frame; silence follows once they run out.
func (a *Audio) Feed(samples []float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.inFrame > 0 {
		rest := copy(a.in, a.in[a.inFrame*AudioChannels:])
		a.in = a.in[:rest]
		a.inFrame = 0
	}
	a.in = append(a.in, samples[:len(samples)-len(samples)%AudioChannels]...)
}

// OnReset drops everything buffered in both directions.
func (a *Audio) OnReset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.out = a.out[:0]
	a.in = a.in[:0]
	a.inFrame = 0
	a.clipped = false
}

// FindAudio returns the first Audio module in modules, or nil.
func FindAudio(modules []*module.Module) *Audio {
	for _, m := range modules {
		if a, ok := m.Processor().(*Audio); ok {
			return a
		}
	}
	return nil
}
