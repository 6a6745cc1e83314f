package fundamental

import (
	"github.com/justyntemme/rackgo/pkg/dsp"
	"github.com/justyntemme/rackgo/pkg/dsp/utility"
	"github.com/justyntemme/rackgo/pkg/framework/module"
	"github.com/justyntemme/rackgo/pkg/framework/process"
)

const (
	// Noise outputs
	NoiseOutputWhite = iota
	NoiseOutputPink
	NoiseOutputBrown
	NoiseOutputBlue
	NoiseOutputViolet
	noiseNumOutputs
)

// noiseSeed makes renders reproducible.
const noiseSeed = 0x5eed

// Noise outputs five colours of ±5 V noise.
type Noise struct {
	m   *module.Module
	gen *utility.Noise
}

// NoiseModel builds Noise modules.
var NoiseModel = &module.Model{
	Slug:        "Noise",
	Name:        "Noise",
	Description: "Coloured noise source",
	Tags:        []string{"noise"},
	New:         newNoise,
}

func newNoise(m *module.Module) module.Processor {
	m.Config(0, 0, noiseNumOutputs, 0)
	m.ConfigOutput(NoiseOutputWhite, "White noise")
	m.ConfigOutput(NoiseOutputPink, "Pink noise")
	m.ConfigOutput(NoiseOutputBrown, "Brown noise")
	m.ConfigOutput(NoiseOutputBlue, "Blue noise")
	m.ConfigOutput(NoiseOutputViolet, "Violet noise")
	return &Noise{m: m, gen: utility.NewNoise(noiseSeed)}
}

// Process implements module.Processor.
func (n *Noise) Process(process.Args) {
	s := n.gen.Next()
	n.m.Outputs[NoiseOutputWhite].SetVoltage(dsp.AudioVoltage*s.White, 0)
	n.m.Outputs[NoiseOutputPink].SetVoltage(dsp.AudioVoltage*s.Pink, 0)
	n.m.Outputs[NoiseOutputBrown].SetVoltage(dsp.AudioVoltage*s.Brown, 0)
	n.m.Outputs[NoiseOutputBlue].SetVoltage(dsp.AudioVoltage*s.Blue, 0)
	n.m.Outputs[NoiseOutputViolet].SetVoltage(dsp.AudioVoltage*s.Violet, 0)
}

// OnReset restarts the generator so the sequence repeats.
func (n *Noise) OnReset() {
	n.gen = utility.NewNoise(noiseSeed)
}
