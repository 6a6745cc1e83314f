package fundamental

import (
	"github.com/justyntemme/rackgo/pkg/dsp"
	"github.com/justyntemme/rackgo/pkg/dsp/envelope"
	"github.com/justyntemme/rackgo/pkg/framework/module"
	"github.com/justyntemme/rackgo/pkg/framework/param"
	"github.com/justyntemme/rackgo/pkg/framework/port"
	"github.com/justyntemme/rackgo/pkg/framework/process"
)

const (
	// ADSR params
	ADSRAttack = iota
	ADSRDecay
	ADSRSustain
	ADSRRelease
	adsrNumParams
)

const (
	// ADSR inputs
	ADSRInputGate = iota
	ADSRInputRetrig
	adsrNumInputs
)

const (
	// ADSR outputs
	ADSROutputEnvelope = iota
	adsrNumOutputs
)

const (
	// ADSR lights
	ADSRLightEnvelope = iota
	adsrNumLights
)

// ADSR is a polyphonic envelope generator. Its channel count follows the
// gate input. The output is 0..10 V.
type ADSR struct {
	m      *module.Module
	env    [port.MaxChannels]envelope.ADSR
	gate   [port.MaxChannels]dsp.Trigger
	retrig [port.MaxChannels]dsp.Trigger
}

// ADSRModel builds ADSR modules.
var ADSRModel = &module.Model{
	Slug:        "ADSR",
	Name:        "ADSR",
	Description: "Attack decay sustain release envelope generator",
	Tags:        []string{"envelope", "polyphonic"},
	New:         newADSR,
}

func newADSR(m *module.Module) module.Processor {
	m.Config(adsrNumParams, adsrNumInputs, adsrNumOutputs, adsrNumLights)
	m.ConfigParam(param.New(ADSRAttack, "Attack").Range(0.001, 10).Default(0.01).Unit(" s").Formatter(param.SecondsFormatter, param.SecondsParser))
	m.ConfigParam(param.New(ADSRDecay, "Decay").Range(0.001, 10).Default(0.1).Unit(" s").Formatter(param.SecondsFormatter, param.SecondsParser))
	m.ConfigParam(param.New(ADSRSustain, "Sustain").Default(0.5).Display(0, 100, 0).Formatter(param.PercentFormatter, param.PercentParser))
	m.ConfigParam(param.New(ADSRRelease, "Release").Range(0.001, 10).Default(0.3).Unit(" s").Formatter(param.SecondsFormatter, param.SecondsParser))
	m.ConfigInput(ADSRInputGate, "Gate")
	m.ConfigInput(ADSRInputRetrig, "Retrigger")
	m.ConfigOutput(ADSROutputEnvelope, "Envelope")
	m.ConfigLight(ADSRLightEnvelope, "Envelope")
	return &ADSR{m: m}
}

// Process implements module.Processor.
func (a *ADSR) Process(args process.Args) {
	gate := a.m.Inputs[ADSRInputGate]
	retrig := a.m.Inputs[ADSRInputRetrig]
	out := a.m.Outputs[ADSROutputEnvelope]

	attack := a.m.Params[ADSRAttack].Value()
	decay := a.m.Params[ADSRDecay].Value()
	sustain := a.m.Params[ADSRSustain].Value()
	release := a.m.Params[ADSRRelease].Value()

	channels := max(1, gate.Channels())
	for c := 0; c < channels; c++ {
		env := &a.env[c]
		env.Attack, env.Decay, env.Sustain, env.Release = attack, decay, sustain, release

		a.gate[c].Process(gate.Voltage(c))
		r := a.retrig[c].Process(retrig.PolyVoltage(c))
		v := env.Process(a.gate[c].High(), r, args.SampleTime)
		out.SetVoltage(dsp.GateVoltage*v, c)
	}
	out.SetChannels(channels)

	a.m.Lights[ADSRLightEnvelope].SetBrightness(out.Voltage(0) / dsp.GateVoltage)
}

// Stage returns the envelope stage of channel c.
func (a *ADSR) Stage(c int) envelope.Stage {
	return a.env[c].Stage()
}

// OnReset returns every channel to idle.
func (a *ADSR) OnReset() {
	for c := range a.env {
		a.env[c].Reset()
		a.gate[c].Reset()
		a.retrig[c].Reset()
	}
}
