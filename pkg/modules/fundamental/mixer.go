package fundamental

import (
	"fmt"

	"github.com/justyntemme/rackgo/pkg/dsp/gain"
	"github.com/justyntemme/rackgo/pkg/dsp/pan"
	"github.com/justyntemme/rackgo/pkg/framework/module"
	"github.com/justyntemme/rackgo/pkg/framework/param"
	"github.com/justyntemme/rackgo/pkg/framework/port"
	"github.com/justyntemme/rackgo/pkg/framework/process"
)

// MixerChannels is the number of mixer strips.
const MixerChannels = 4

// Mixer params: one level per strip, one pan per strip, then master.
const (
	MixerLevel     = 0
	MixerPan       = MixerLevel + MixerChannels
	MixerMaster    = MixerPan + MixerChannels
	mixerNumParams = MixerMaster + 1
)

const (
	// Mixer outputs
	MixerOutputMix = iota
	MixerOutputLeft
	MixerOutputRight
	mixerNumOutputs
)

// Mixer sums four inputs. MIX keeps polyphony channel by channel; LEFT and
// RIGHT fold every input to mono and pan it.
type Mixer struct {
	m *module.Module
}

// MixerModel builds Mixer modules.
var MixerModel = &module.Model{
	Slug:        "Mixer",
	Name:        "Mixer",
	Description: "Four channel mixer with panning",
	Tags:        []string{"mixer", "polyphonic"},
	New:         newMixer,
}

func levelFormatter(v float64) string {
	return param.DecibelFormatter(gain.LinearToDb(v))
}

func levelParser(s string) (float64, error) {
	db, err := param.DecibelParser(s)
	if err != nil {
		return 0, err
	}
	return gain.DbToLinear(db), nil
}

func newMixer(m *module.Module) module.Processor {
	m.Config(mixerNumParams, MixerChannels, mixerNumOutputs, MixerChannels)
	for i := 0; i < MixerChannels; i++ {
		m.ConfigParam(param.New(MixerLevel+i, fmt.Sprintf("Channel %d level", i+1)).Default(1).Formatter(levelFormatter, levelParser))
		m.ConfigParam(param.New(MixerPan+i, fmt.Sprintf("Channel %d pan", i+1)).Range(-1, 1).Display(0, 100, 0).Formatter(param.PercentFormatter, param.PercentParser))
		m.ConfigInput(i, fmt.Sprintf("Channel %d", i+1))
		m.ConfigLight(i, fmt.Sprintf("Channel %d level", i+1))
	}
	m.ConfigParam(param.New(MixerMaster, "Master level").Default(1).Formatter(levelFormatter, levelParser))
	m.ConfigOutput(MixerOutputMix, "Mix")
	m.ConfigOutput(MixerOutputLeft, "Left")
	m.ConfigOutput(MixerOutputRight, "Right")
	return &Mixer{m: m}
}

// Process implements module.Processor.
func (x *Mixer) Process(args process.Args) {
	master := float32(x.m.Params[MixerMaster].Value())

	var sum [port.MaxChannels]float32
	var left, right float32
	channels := 0
	for i := 0; i < MixerChannels; i++ {
		in := x.m.Inputs[i]
		level := float32(x.m.Params[MixerLevel+i].Value())
		n := in.Channels()
		channels = max(channels, n)
		for c := 0; c < n; c++ {
			sum[c] += level * in.Voltage(c)
		}

		mono := level * in.VoltageSum()
		l, r := pan.MonoToStereo(float32(x.m.Params[MixerPan+i].Value()), pan.ConstantPower)
		left += l * mono
		right += r * mono
		x.m.Lights[i].SetSmoothBrightness(min(1, abs32(mono)/10), float32(args.SampleTime))
	}

	out := x.m.Outputs[MixerOutputMix]
	for c := 0; c < channels; c++ {
		out.SetVoltage(master*sum[c], c)
	}
	out.SetChannels(channels)
	x.m.Outputs[MixerOutputLeft].SetVoltage(master*left, 0)
	x.m.Outputs[MixerOutputRight].SetVoltage(master*right, 0)
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
