package fundamental

import (
	"math"

	"github.com/justyntemme/rackgo/pkg/dsp"
	"github.com/justyntemme/rackgo/pkg/dsp/delay"
	"github.com/justyntemme/rackgo/pkg/dsp/filter"
	"github.com/justyntemme/rackgo/pkg/dsp/gain"
	"github.com/justyntemme/rackgo/pkg/dsp/mix"
	"github.com/justyntemme/rackgo/pkg/dsp/utility"
	"github.com/justyntemme/rackgo/pkg/framework/module"
	"github.com/justyntemme/rackgo/pkg/framework/param"
	"github.com/justyntemme/rackgo/pkg/framework/port"
	"github.com/justyntemme/rackgo/pkg/framework/process"
)

const (
	// Delay params
	DelayTime = iota
	DelayFeedback
	DelayTone
	DelayMix
	delayNumParams
)

const (
	// Delay inputs
	DelayInputTime = iota
	DelayInputFeedback
	DelayInputAudio
	delayNumInputs
)

const (
	// Delay outputs
	DelayOutputMix = iota
	DelayOutputWet
	delayNumOutputs
)

const (
	// MaxDelayTime is the longest delay in seconds.
	MaxDelayTime = 10.0
	// maxFeedback keeps the internal loop stable.
	maxFeedback = 0.95
	// feedbackLimit soft-clips the signal written back into the line.
	feedbackLimit = 10
)

// Delay is a polyphonic feedback delay with a tone control in the loop. Its
// channel count follows the audio input. Lines are allocated on first use of
// a channel and dropped on sample rate changes.
type Delay struct {
	m          *module.Module
	sampleRate float64
	lines      [port.MaxChannels]*delay.Line
	tone       [port.MaxChannels]filter.OnePole
	dc         [port.MaxChannels]utility.DCBlocker
}

// DelayModel builds Delay modules.
var DelayModel = &module.Model{
	Slug:        "Delay",
	Name:        "Delay",
	Description: "Digital delay with feedback",
	Tags:        []string{"delay", "polyphonic"},
	New:         newDelay,
}

func newDelay(m *module.Module) module.Processor {
	m.Config(delayNumParams, delayNumInputs, delayNumOutputs, 0)
	m.ConfigParam(param.New(DelayTime, "Time").Range(0.001, MaxDelayTime).Default(0.5).Unit(" s").Formatter(param.SecondsFormatter, param.SecondsParser))
	m.ConfigParam(param.New(DelayFeedback, "Feedback").Default(0.5).Display(0, 100, 0).Formatter(param.PercentFormatter, param.PercentParser))
	m.ConfigParam(param.New(DelayTone, "Tone").Default(0.5).Display(0, 100, 0).Formatter(param.PercentFormatter, param.PercentParser))
	m.ConfigParam(param.New(DelayMix, "Mix").Default(0.5).Display(0, 100, 0).Formatter(param.PercentFormatter, param.PercentParser))
	m.ConfigInput(DelayInputTime, "Time")
	m.ConfigInput(DelayInputFeedback, "Feedback")
	m.ConfigInput(DelayInputAudio, "Audio")
	m.ConfigOutput(DelayOutputMix, "Mix")
	m.ConfigOutput(DelayOutputWet, "Wet")
	m.ConfigBypass(DelayInputAudio, DelayOutputMix)
	return &Delay{m: m}
}

// OnSampleRateChange drops every line; they are rebuilt at the new rate.
func (d *Delay) OnSampleRateChange(sampleRate float64) {
	d.sampleRate = sampleRate
	for c := range d.lines {
		d.lines[c] = nil
		d.tone[c].Reset()
		d.dc[c] = *utility.NewDCBlocker(sampleRate)
	}
}

// OnReset clears the delay memory.
func (d *Delay) OnReset() {
	for c := range d.lines {
		if d.lines[c] != nil {
			d.lines[c].Reset()
		}
		d.tone[c].Reset()
		d.dc[c].Reset()
	}
}

// Process implements module.Processor.
func (d *Delay) Process(args process.Args) {
	if d.sampleRate != args.SampleRate {
		d.OnSampleRateChange(args.SampleRate)
	}
	in := d.m.Inputs[DelayInputAudio]
	timeIn := d.m.Inputs[DelayInputTime]
	fbIn := d.m.Inputs[DelayInputFeedback]

	seconds := d.m.Params[DelayTime].Value()
	feedback := float32(d.m.Params[DelayFeedback].Value())
	amount := float32(d.m.Params[DelayMix].Value())
	// 200 Hz .. 20 kHz
	cutoff := 200 * math.Pow(100, d.m.Params[DelayTone].Value())

	channels := in.Channels()
	for c := 0; c < channels; c++ {
		if d.lines[c] == nil {
			d.lines[c] = delay.NewSeconds(MaxDelayTime, args.SampleRate)
		}
		line := d.lines[c]

		// 1 V on the time input halves the delay
		t := seconds * math.Exp2(-float64(timeIn.PolyVoltage(c)))
		samples := math.Max(1, math.Min(t*args.SampleRate, line.MaxDelay()))
		fb := dsp.Clamp(feedback+fbIn.PolyVoltage(c)/dsp.GateVoltage, 0, maxFeedback)

		x := in.Voltage(c)
		wet := line.Read(samples)
		d.tone[c].SetCutoff(args.SampleRate, cutoff)
		loop := d.dc[c].Process(d.tone[c].Lowpass(wet))
		line.Write(gain.SoftClip(x+fb*loop, feedbackLimit))

		d.m.Outputs[DelayOutputMix].SetVoltage(mix.DryWet(x, wet, amount), c)
		d.m.Outputs[DelayOutputWet].SetVoltage(wet, c)
	}
	for _, out := range d.m.Outputs {
		out.SetChannels(channels)
	}
}
