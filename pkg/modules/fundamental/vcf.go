package fundamental

import (
	"math"

	"github.com/justyntemme/rackgo/pkg/dsp"
	"github.com/justyntemme/rackgo/pkg/dsp/filter"
	"github.com/justyntemme/rackgo/pkg/framework/module"
	"github.com/justyntemme/rackgo/pkg/framework/param"
	"github.com/justyntemme/rackgo/pkg/framework/port"
	"github.com/justyntemme/rackgo/pkg/framework/process"
)

const (
	// VCF params
	VCFFreq = iota
	VCFRes
	VCFFreqCV
	vcfNumParams
)

const (
	// VCF inputs
	VCFInputFreq = iota
	VCFInputRes
	VCFInputAudio
	vcfNumInputs
)

const (
	// VCF outputs
	VCFOutputLowpass = iota
	VCFOutputHighpass
	VCFOutputBandpass
	vcfNumOutputs
)

const (
	minQ = 0.5
	maxQ = 20.0
)

// VCF is a polyphonic state variable filter. Its channel count follows the
// audio input.
type VCF struct {
	m       *module.Module
	filters [port.MaxChannels]filter.SVF
}

// VCFModel builds VCF modules.
var VCFModel = &module.Model{
	Slug:        "VCF",
	Name:        "VCF",
	Description: "Voltage-controlled filter",
	Tags:        []string{"filter", "polyphonic"},
	New:         newVCF,
}

func newVCF(m *module.Module) module.Processor {
	m.Config(vcfNumParams, vcfNumInputs, vcfNumOutputs, 0)
	m.ConfigParam(param.New(VCFFreq, "Cutoff frequency").
		Range(-4, 6).
		Default(2).
		Unit(" Hz").
		Display(2, dsp.FreqC4, 0).
		Formatter(param.FrequencyFormatter, param.FrequencyParser))
	m.ConfigParam(param.New(VCFRes, "Resonance").Display(0, 100, 0).Formatter(param.PercentFormatter, param.PercentParser))
	m.ConfigParam(param.New(VCFFreqCV, "Cutoff modulation").Range(-1, 1).Display(0, 100, 0).Formatter(param.PercentFormatter, param.PercentParser))
	m.ConfigInput(VCFInputFreq, "Frequency")
	m.ConfigInput(VCFInputRes, "Resonance")
	m.ConfigInput(VCFInputAudio, "Audio")
	m.ConfigOutput(VCFOutputLowpass, "Lowpass")
	m.ConfigOutput(VCFOutputHighpass, "Highpass")
	m.ConfigOutput(VCFOutputBandpass, "Bandpass")
	m.ConfigBypass(VCFInputAudio, VCFOutputLowpass)
	m.ConfigBypass(VCFInputAudio, VCFOutputHighpass)
	return &VCF{m: m}
}

// Process implements module.Processor.
func (f *VCF) Process(args process.Args) {
	in := f.m.Inputs[VCFInputAudio]
	freqIn := f.m.Inputs[VCFInputFreq]
	resIn := f.m.Inputs[VCFInputRes]

	pitch := f.m.Params[VCFFreq].Value()
	cv := f.m.Params[VCFFreqCV].Value()
	res := f.m.Params[VCFRes].Value()

	channels := in.Channels()
	for c := 0; c < channels; c++ {
		p := pitch + cv*float64(freqIn.PolyVoltage(c))
		r := math.Max(0, math.Min(1, res+float64(resIn.PolyVoltage(c))/dsp.GateVoltage))
		f.filters[c].SetCutoff(args.SampleRate, dsp.FreqC4*math.Exp2(p), minQ+r*(maxQ-minQ))

		out := f.filters[c].Process(in.Voltage(c))
		f.m.Outputs[VCFOutputLowpass].SetVoltage(out.Lowpass, c)
		f.m.Outputs[VCFOutputHighpass].SetVoltage(out.Highpass, c)
		f.m.Outputs[VCFOutputBandpass].SetVoltage(out.Bandpass, c)
	}
	for _, out := range f.m.Outputs {
		out.SetChannels(channels)
	}
}

// OnReset clears the filter state.
func (f *VCF) OnReset() {
	for c := range f.filters {
		f.filters[c].Reset()
	}
}

// OnSampleRateChange clears the filter state; coefficients are recomputed
// every frame.
func (f *VCF) OnSampleRateChange(float64) {
	f.OnReset()
}
