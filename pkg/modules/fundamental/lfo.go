package fundamental

import (
	"math"

	"github.com/justyntemme/rackgo/pkg/dsp"
	"github.com/justyntemme/rackgo/pkg/dsp/modulation"
	"github.com/justyntemme/rackgo/pkg/framework/module"
	"github.com/justyntemme/rackgo/pkg/framework/param"
	"github.com/justyntemme/rackgo/pkg/framework/port"
	"github.com/justyntemme/rackgo/pkg/framework/process"
)

const (
	// LFO params
	LFOFreq = iota
	LFOFM
	LFOOffset
	LFOPhase
	lfoNumParams
)

const (
	// LFO inputs
	LFOInputFM = iota
	LFOInputReset
	lfoNumInputs
)

const (
	// LFO outputs
	LFOOutputSine = iota
	LFOOutputTriangle
	LFOOutputSaw
	LFOOutputSquare
	LFOOutputRandom
	lfoNumOutputs
)

const (
	// LFO lights
	LFOLightPhase = iota
	lfoNumLights
)

// LFO is a polyphonic low frequency oscillator. Its channel count follows the
// FM input. Outputs are ±5 V, or 0..10 V in unipolar mode.
type LFO struct {
	m     *module.Module
	lfos  [port.MaxChannels]*modulation.LFO
	reset [port.MaxChannels]dsp.Trigger
}

// LFOModel builds LFO modules.
var LFOModel = &module.Model{
	Slug:        "LFO",
	Name:        "LFO",
	Description: "Low frequency oscillator",
	Tags:        []string{"lfo", "polyphonic"},
	New:         newLFO,
}

func newLFO(m *module.Module) module.Processor {
	m.Config(lfoNumParams, lfoNumInputs, lfoNumOutputs, lfoNumLights)
	m.ConfigParam(param.New(LFOFreq, "Frequency").
		Range(-8, 10).
		Default(1).
		Unit(" Hz").
		Display(2, 1, 0).
		Formatter(param.FrequencyFormatter, param.FrequencyParser))
	m.ConfigParam(param.New(LFOFM, "FM amount").Range(-1, 1).Display(0, 100, 0).Formatter(param.PercentFormatter, param.PercentParser))
	m.ConfigParam(param.Switch(LFOOffset, "Offset", "Bipolar", "Unipolar"))
	m.ConfigParam(param.New(LFOPhase, "Phase").Unit("°").Display(0, 360, 0))
	m.ConfigInput(LFOInputFM, "Frequency modulation")
	m.ConfigInput(LFOInputReset, "Reset")
	m.ConfigOutput(LFOOutputSine, "Sine")
	m.ConfigOutput(LFOOutputTriangle, "Triangle")
	m.ConfigOutput(LFOOutputSaw, "Sawtooth")
	m.ConfigOutput(LFOOutputSquare, "Square")
	m.ConfigOutput(LFOOutputRandom, "Random")
	m.ConfigLight(LFOLightPhase, "Phase")

	l := &LFO{m: m}
	for c := range l.lfos {
		l.lfos[c] = modulation.NewLFO(uint64(c) + 1)
	}
	return l
}

// Process implements module.Processor.
func (l *LFO) Process(args process.Args) {
	fm := l.m.Inputs[LFOInputFM]
	reset := l.m.Inputs[LFOInputReset]

	pitch := l.m.Params[LFOFreq].Value()
	fmAmount := l.m.Params[LFOFM].Value()
	unipolar := l.m.Params[LFOOffset].Value() > 0
	offset := l.m.Params[LFOPhase].Value()
	scale := float32(dsp.CVVoltage)
	if unipolar {
		scale = 2 * dsp.CVVoltage
	}

	channels := max(1, fm.Channels())
	for c := 0; c < channels; c++ {
		lfo := l.lfos[c]
		lfo.Unipolar = unipolar
		lfo.Offset = offset
		if l.reset[c].Process(reset.PolyVoltage(c)) {
			lfo.Reset()
		}
		freq := math.Exp2(pitch + fmAmount*float64(fm.PolyVoltage(c)))
		out := lfo.Process(freq, args.SampleTime)

		l.m.Outputs[LFOOutputSine].SetVoltage(scale*out.Sine, c)
		l.m.Outputs[LFOOutputTriangle].SetVoltage(scale*out.Triangle, c)
		l.m.Outputs[LFOOutputSaw].SetVoltage(scale*out.Saw, c)
		l.m.Outputs[LFOOutputSquare].SetVoltage(scale*out.Square, c)
		l.m.Outputs[LFOOutputRandom].SetVoltage(scale*out.Random, c)
	}
	for _, out := range l.m.Outputs {
		out.SetChannels(channels)
	}

	b := l.m.Outputs[LFOOutputSine].Voltage(0) / (2 * dsp.CVVoltage)
	if !unipolar {
		b += 0.5
	}
	l.m.Lights[LFOLightPhase].SetSmoothBrightness(b, float32(args.SampleTime))
}

// OnReset restarts every channel.
func (l *LFO) OnReset() {
	for c := range l.lfos {
		l.lfos[c].Reset()
		l.reset[c].Reset()
	}
}
