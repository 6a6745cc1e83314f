package fundamental

import (
	"math"

	"github.com/justyntemme/rackgo/pkg/dsp"
	"github.com/justyntemme/rackgo/pkg/dsp/oscillator"
	"github.com/justyntemme/rackgo/pkg/framework/module"
	"github.com/justyntemme/rackgo/pkg/framework/param"
	"github.com/justyntemme/rackgo/pkg/framework/port"
	"github.com/justyntemme/rackgo/pkg/framework/process"
)

const (
	// VCO params
	VCOFreq = iota
	VCOFM
	VCOPW
	VCOPWM
	vcoNumParams
)

const (
	// VCO inputs
	VCOInputVOct = iota
	VCOInputFM
	VCOInputSync
	VCOInputPW
	vcoNumInputs
)

const (
	// VCO outputs
	VCOOutputSine = iota
	VCOOutputTriangle
	VCOOutputSaw
	VCOOutputSquare
	vcoNumOutputs
)

// VCO is a polyphonic oscillator. Its channel count follows the V/OCT input.
type VCO struct {
	m    *module.Module
	osc  [port.MaxChannels]oscillator.Oscillator
	sync [port.MaxChannels]dsp.Trigger
}

// VCOModel builds VCO modules.
var VCOModel = &module.Model{
	Slug:        "VCO",
	Name:        "VCO",
	Description: "Voltage-controlled oscillator",
	Tags:        []string{"oscillator", "polyphonic"},
	New:         newVCO,
}

func newVCO(m *module.Module) module.Processor {
	m.Config(vcoNumParams, vcoNumInputs, vcoNumOutputs, 0)
	m.ConfigParam(param.New(VCOFreq, "Frequency").
		Range(-4, 4).
		Unit(" Hz").
		Display(2, dsp.FreqC4, 0).
		Formatter(param.FrequencyFormatter, param.FrequencyParser))
	m.ConfigParam(param.New(VCOFM, "FM amount").Range(-1, 1).Display(0, 100, 0).Formatter(param.PercentFormatter, param.PercentParser))
	m.ConfigParam(param.New(VCOPW, "Pulse width").Range(0.01, 0.99).Default(0.5).Display(0, 100, 0).Formatter(param.PercentFormatter, param.PercentParser))
	m.ConfigParam(param.New(VCOPWM, "PWM amount").Range(-1, 1).Display(0, 100, 0).Formatter(param.PercentFormatter, param.PercentParser))
	m.ConfigInput(VCOInputVOct, "1V/octave pitch")
	m.ConfigInput(VCOInputFM, "Frequency modulation")
	m.ConfigInput(VCOInputSync, "Hard sync")
	m.ConfigInput(VCOInputPW, "Pulse width modulation")
	m.ConfigOutput(VCOOutputSine, "Sine")
	m.ConfigOutput(VCOOutputTriangle, "Triangle")
	m.ConfigOutput(VCOOutputSaw, "Sawtooth")
	m.ConfigOutput(VCOOutputSquare, "Square")
	return &VCO{m: m}
}

// Process implements module.Processor.
func (v *VCO) Process(args process.Args) {
	voct := v.m.Inputs[VCOInputVOct]
	fm := v.m.Inputs[VCOInputFM]
	sync := v.m.Inputs[VCOInputSync]
	pwIn := v.m.Inputs[VCOInputPW]

	pitch := float32(v.m.Params[VCOFreq].Value())
	fmAmount := float32(v.m.Params[VCOFM].Value())
	pw := float32(v.m.Params[VCOPW].Value())
	pwm := float32(v.m.Params[VCOPWM].Value())
	nyquist := float32(args.SampleRate / 2)

	channels := max(1, voct.Channels())
	for c := 0; c < channels; c++ {
		p := pitch + voct.PolyVoltage(c) + fmAmount*fm.PolyVoltage(c)
		freq := dsp.Clamp(dsp.PitchToFreq(p), 0, nyquist)
		width := dsp.Clamp(pw+pwm*pwIn.PolyVoltage(c)/dsp.GateVoltage, 0.01, 0.99)

		if sync.Active() && v.sync[c].Process(sync.PolyVoltage(c)) {
			v.osc[c].Reset()
		}
		v.osc[c].Advance(float64(freq), args.SampleTime)

		v.m.Outputs[VCOOutputSine].SetVoltage(dsp.AudioVoltage*v.osc[c].Sine(), c)
		v.m.Outputs[VCOOutputTriangle].SetVoltage(dsp.AudioVoltage*v.osc[c].Triangle(), c)
		v.m.Outputs[VCOOutputSaw].SetVoltage(dsp.AudioVoltage*v.osc[c].Saw(), c)
		v.m.Outputs[VCOOutputSquare].SetVoltage(dsp.AudioVoltage*v.osc[c].Square(float64(width)), c)
	}
	for _, out := range v.m.Outputs {
		out.SetChannels(channels)
	}
}

// OnReset restarts every channel at phase 0.
func (v *VCO) OnReset() {
	for c := range v.osc {
		v.osc[c].Reset()
		v.sync[c].Reset()
	}
}

// Frequency returns the frequency of channel c at the current settings,
// ignoring FM.
func (v *VCO) Frequency(c int) float64 {
	pitch := v.m.Params[VCOFreq].Value() + float64(v.m.Inputs[VCOInputVOct].PolyVoltage(c))
	return dsp.FreqC4 * math.Exp2(pitch)
}
