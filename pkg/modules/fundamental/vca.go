package fundamental

import (
	"github.com/justyntemme/rackgo/pkg/dsp"
	"github.com/justyntemme/rackgo/pkg/dsp/gain"
	"github.com/justyntemme/rackgo/pkg/framework/module"
	"github.com/justyntemme/rackgo/pkg/framework/param"
	"github.com/justyntemme/rackgo/pkg/framework/process"
)

const (
	// VCA params
	VCALevel = iota
	vcaNumParams
)

const (
	// VCA inputs
	VCAInputCV = iota
	VCAInputAudio
	vcaNumInputs
)

const (
	// VCA outputs
	VCAOutputAudio = iota
	vcaNumOutputs
)

// vcaLimit keeps runaway patches inside a sane voltage range.
const vcaLimit = 12

// VCA scales its input by the level param and a 0..10 V CV. An unpatched CV
// input leaves the gain at the level param.
type VCA struct {
	m *module.Module
}

// VCAModel builds VCA modules.
var VCAModel = &module.Model{
	Slug:        "VCA",
	Name:        "VCA",
	Description: "Voltage-controlled amplifier",
	Tags:        []string{"amplifier", "polyphonic"},
	New:         newVCA,
}

func newVCA(m *module.Module) module.Processor {
	m.Config(vcaNumParams, vcaNumInputs, vcaNumOutputs, 0)
	m.ConfigParam(param.New(VCALevel, "Level").Default(1).Display(0, 100, 0).Formatter(param.PercentFormatter, param.PercentParser))
	m.ConfigInput(VCAInputCV, "CV")
	m.ConfigInput(VCAInputAudio, "Audio")
	m.ConfigOutput(VCAOutputAudio, "Audio")
	m.ConfigBypass(VCAInputAudio, VCAOutputAudio)
	return &VCA{m: m}
}

// Process implements module.Processor.
func (v *VCA) Process(process.Args) {
	in := v.m.Inputs[VCAInputAudio]
	cv := v.m.Inputs[VCAInputCV]
	out := v.m.Outputs[VCAOutputAudio]
	level := float32(v.m.Params[VCALevel].Value())

	channels := in.Channels()
	for c := 0; c < channels; c++ {
		g := level
		if cv.Active() {
			g *= dsp.Clamp(cv.PolyVoltage(c)/dsp.GateVoltage, 0, 1)
		}
		out.SetVoltage(gain.HardClip(in.Voltage(c)*g, vcaLimit), c)
	}
	out.SetChannels(channels)
}
