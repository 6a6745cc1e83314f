package fundamental

import (
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/rackgo/pkg/dsp/envelope"
	"github.com/justyntemme/rackgo/pkg/engine"
	"github.com/justyntemme/rackgo/pkg/framework/debug"
	"github.com/justyntemme/rackgo/pkg/framework/module"
	"github.com/justyntemme/rackgo/pkg/framework/plugin"
	"github.com/justyntemme/rackgo/pkg/framework/port"
	"github.com/justyntemme/rackgo/pkg/framework/process"
)

const sampleRate = 48000

// patch feeds constant voltages into in, one per channel.
func patch(in *port.Input, volts ...float32) {
	src := port.NewOutput(0, "src")
	src.SetChannels(len(volts))
	for c, v := range volts {
		src.SetVoltage(v, c)
	}
	in.Connect(true)
	in.Accumulate([]*port.Output{src})
}

// run processes m for frames frames and calls fn after each one.
func run(m *module.Module, frames int, fn func(frame int)) {
	for i := 0; i < frames; i++ {
		m.Process(process.NewArgs(sampleRate, int64(i)))
		if fn != nil {
			fn(i)
		}
	}
}

func risingCrossings(m *module.Module, output, channel, frames int) int {
	n := 0
	prev := m.Outputs[output].Voltage(channel)
	run(m, frames, func(int) {
		v := m.Outputs[output].Voltage(channel)
		if prev < 0 && v >= 0 {
			n++
		}
		prev = v
	})
	return n
}

func TestPluginModels(t *testing.T) {
	p := Plugin()
	assert.Equal(t, Slug, p.Slug)
	require.Len(t, p.Models(), len(Models))

	r := plugin.NewRegistry(p)
	for _, mdl := range Models {
		t.Run(mdl.Slug, func(t *testing.T) {
			got, err := r.Model(Slug, mdl.Slug)
			require.NoError(t, err)
			assert.Same(t, mdl, got)
			assert.Equal(t, Version, mdl.Version)

			m := mdl.Create()
			if s, ok := m.Processor().(module.SampleRateChanger); ok {
				s.OnSampleRateChange(sampleRate)
			}
			assert.NotPanics(t, func() { run(m, 16, nil) })
			for _, prm := range m.Params {
				assert.NotNil(t, prm, "every param slot is configured")
			}
		})
	}
}

func TestVCOPitch(t *testing.T) {
	m := VCOModel.Create()
	patch(m.Inputs[VCOInputVOct], 1)

	n := risingCrossings(m, VCOOutputSine, 0, sampleRate)
	assert.InDelta(t, 523, n, 2, "1 V is one octave above C4")
	assert.InDelta(t, 523.25, m.Processor().(*VCO).Frequency(0), 0.01)
}

func TestVCOPolyphony(t *testing.T) {
	m := VCOModel.Create()
	run(m, 1, nil)
	assert.Equal(t, 1, m.Outputs[VCOOutputSaw].Channels(), "mono without a pitch cable")

	patch(m.Inputs[VCOInputVOct], 0, 1, 2)
	run(m, 1, nil)
	for _, out := range m.Outputs {
		assert.Equal(t, 3, out.Channels())
	}

	lo := risingCrossings(m, VCOOutputSine, 0, sampleRate)
	hi := risingCrossings(m, VCOOutputSine, 2, sampleRate)
	assert.InDelta(t, 4*lo, hi, 5, "2 V is two octaves up")
}

func TestVCOPulseWidth(t *testing.T) {
	m := VCOModel.Create()
	m.Params[VCOPW].SetValue(0.25)

	var sum float64
	run(m, sampleRate, func(int) { sum += float64(m.Outputs[VCOOutputSquare].Voltage(0)) })
	assert.InDelta(t, -2.5, sum/sampleRate, 0.1)
}

func TestVCOSync(t *testing.T) {
	m := VCOModel.Create()
	v := m.Processor().(*VCO)
	run(m, 40, nil)
	require.Greater(t, v.osc[0].Phase(), 0.1)

	patch(m.Inputs[VCOInputSync], 10)
	run(m, 1, nil)
	assert.Less(t, v.osc[0].Phase(), 0.01, "a rising sync edge restarts the cycle")
}

func TestVCF(t *testing.T) {
	m := VCFModel.Create()
	patch(m.Inputs[VCFInputAudio], 1, -2)
	run(m, sampleRate/10, nil)

	lp := m.Outputs[VCFOutputLowpass]
	hp := m.Outputs[VCFOutputHighpass]
	assert.Equal(t, 2, lp.Channels())
	assert.InDelta(t, 1, lp.Voltage(0), 1e-3, "lowpass passes DC")
	assert.InDelta(t, -2, lp.Voltage(1), 1e-3)
	assert.InDelta(t, 0, hp.Voltage(0), 1e-3, "highpass blocks DC")

	assert.Len(t, m.BypassRoutes, 2)
	m.ProcessBypass()
	assert.Equal(t, []float32{1, -2}, hp.Voltages())
}

func TestVCA(t *testing.T) {
	m := VCAModel.Create()
	out := m.Outputs[VCAOutputAudio]

	patch(m.Inputs[VCAInputAudio], 4, -4)
	run(m, 1, nil)
	assert.Equal(t, []float32{4, -4}, out.Voltages(), "unpatched CV is unity")

	patch(m.Inputs[VCAInputCV], 5)
	run(m, 1, nil)
	assert.Equal(t, []float32{2, -2}, out.Voltages(), "mono CV applies to every channel")

	patch(m.Inputs[VCAInputCV], 10, 20)
	patch(m.Inputs[VCAInputAudio], 20, 3)
	m.Params[VCALevel].SetValue(0.5)
	run(m, 1, nil)
	assert.Equal(t, []float32{10, 1.5}, out.Voltages())

	m.Params[VCALevel].SetValue(1)
	run(m, 1, nil)
	assert.Equal(t, float32(vcaLimit), out.Voltage(0))
}

func TestLFO(t *testing.T) {
	m := LFOModel.Create()
	// 1 V is 2 Hz
	n := risingCrossings(m, LFOOutputSine, 0, sampleRate*2)
	assert.InDelta(t, 4, n, 1)

	m.Params[LFOOffset].SetValue(1)
	lo, hi := float32(math.Inf(1)), float32(math.Inf(-1))
	run(m, sampleRate, func(int) {
		v := m.Outputs[LFOOutputTriangle].Voltage(0)
		lo, hi = min(lo, v), max(hi, v)
	})
	assert.InDelta(t, 0, lo, 0.01)
	assert.InDelta(t, 10, hi, 0.01)
	assert.Greater(t, m.Lights[LFOLightPhase].Brightness(), float32(0))

	patch(m.Inputs[LFOInputFM], 0, 0, 0, 0)
	run(m, 1, nil)
	assert.Equal(t, 4, m.Outputs[LFOOutputRandom].Channels())
}

func TestLFOReset(t *testing.T) {
	m := LFOModel.Create()
	l := m.Processor().(*LFO)
	run(m, 1000, nil)
	require.Greater(t, l.lfos[0].Phase(), 0.01)

	patch(m.Inputs[LFOInputReset], 10)
	run(m, 1, nil)
	assert.Less(t, l.lfos[0].Phase(), 0.001)
}

func TestADSR(t *testing.T) {
	m := ADSRModel.Create()
	a := m.Processor().(*ADSR)
	out := m.Outputs[ADSROutputEnvelope]
	m.Params[ADSRAttack].SetValue(0.01)
	m.Params[ADSRDecay].SetValue(0.01)
	m.Params[ADSRSustain].SetValue(0.5)
	m.Params[ADSRRelease].SetValue(0.01)

	patch(m.Inputs[ADSRInputGate], 10, 0)
	run(m, 1, nil)
	assert.Equal(t, 2, out.Channels())
	assert.Equal(t, envelope.StageAttack, a.Stage(0))
	assert.Equal(t, envelope.StageIdle, a.Stage(1))

	peak := float32(0)
	run(m, sampleRate/100+10, func(int) { peak = max(peak, out.Voltage(0)) })
	assert.InDelta(t, 10, peak, 0.05)

	run(m, sampleRate/2, nil)
	assert.InDelta(t, 5, out.Voltage(0), 0.05, "settles at the sustain level")
	assert.InDelta(t, 0.5, m.Lights[ADSRLightEnvelope].Brightness(), 0.01)

	patch(m.Inputs[ADSRInputGate], 0, 0)
	run(m, sampleRate/2, nil)
	assert.InDelta(t, 0, out.Voltage(0), 0.05)
}

func TestNoise(t *testing.T) {
	m := NoiseModel.Create()
	var first []float32
	run(m, 64, func(int) {
		v := m.Outputs[NoiseOutputWhite].Voltage(0)
		assert.LessOrEqual(t, math.Abs(float64(v)), 5.0)
		first = append(first, v)
	})
	assert.NotEqual(t, first[0], first[1])

	m.ResetParams()
	var again []float32
	run(m, 64, func(int) { again = append(again, m.Outputs[NoiseOutputWhite].Voltage(0)) })
	assert.Equal(t, first, again, "reset restarts the sequence")
}

func TestDelayImpulse(t *testing.T) {
	m := DelayModel.Create()
	m.Params[DelayTime].SetValue(0.001) // 48 samples
	m.Params[DelayFeedback].SetValue(0)
	m.Params[DelayMix].SetValue(1)
	m.Processor().(module.SampleRateChanger).OnSampleRateChange(sampleRate)

	in := m.Inputs[DelayInputAudio]
	wet := m.Outputs[DelayOutputWet]
	var got []float32
	run(m, 100, func(frame int) {
		got = append(got, wet.Voltage(0))
		if frame == 0 {
			patch(in, 5)
			return
		}
		patch(in, 0)
	})
	// the impulse enters on frame 1
	for i, v := range got {
		if i == 49 {
			assert.InDelta(t, 5, v, 1e-4)
			continue
		}
		assert.InDelta(t, 0, v, 1e-4, "frame %d", i)
	}
}

func TestDelayFeedback(t *testing.T) {
	m := DelayModel.Create()
	m.Params[DelayTime].SetValue(0.001)
	m.Params[DelayFeedback].SetValue(0.5)
	m.Params[DelayTone].SetValue(1)

	in := m.Inputs[DelayInputAudio]
	wet := m.Outputs[DelayOutputWet]
	var echoes []float32
	patch(in, 5)
	run(m, 48*4+1, func(frame int) {
		if frame == 0 {
			patch(in, 0)
		}
		if v := wet.Voltage(0); math.Abs(float64(v)) > 0.1 {
			echoes = append(echoes, v)
		}
	})
	require.NotEmpty(t, echoes)
	assert.Greater(t, len(echoes), 2, "feedback repeats the impulse")
	assert.Less(t, echoes[len(echoes)-1], echoes[0], "repeats decay")

	d := m.Processor().(*Delay)
	require.NotNil(t, d.lines[0])
	d.OnSampleRateChange(44100)
	assert.Nil(t, d.lines[0], "lines are rebuilt at the new rate")
}

func TestMixer(t *testing.T) {
	m := MixerModel.Create()
	patch(m.Inputs[0], 1, 2, 3)
	patch(m.Inputs[1], 1)
	m.Params[MixerLevel+1].SetValue(0.5)
	m.Params[MixerPan+0].SetValue(-1)
	m.Params[MixerPan+1].SetValue(1)
	run(m, 1, nil)

	mixOut := m.Outputs[MixerOutputMix]
	assert.Equal(t, []float32{1.5, 2, 3}, mixOut.Voltages())
	assert.InDelta(t, 6, m.Outputs[MixerOutputLeft].Voltage(0), 1e-5)
	assert.InDelta(t, 0.5, m.Outputs[MixerOutputRight].Voltage(0), 1e-5)

	m.Params[MixerMaster].SetValue(0)
	run(m, 1, nil)
	assert.Equal(t, []float32{0, 0, 0}, mixOut.Voltages())

	assert.Equal(t, "0.0 dB", m.Params[MixerLevel].String())
	require.NoError(t, m.Params[MixerLevel].SetString("-6 dB"))
	assert.InDelta(t, 0.501, m.Params[MixerLevel].Value(), 1e-3)
}

func TestSplitMerge(t *testing.T) {
	s := SplitModel.Create()
	patch(s.Inputs[0], 1, 2, 3)
	run(s, 1, nil)
	assert.Equal(t, []float32{1}, s.Outputs[0].Voltages())
	assert.Equal(t, []float32{3}, s.Outputs[2].Voltages())
	assert.Equal(t, 0, s.Outputs[3].Channels())

	g := MergeModel.Create()
	run(g, 1, nil)
	assert.Equal(t, 0, g.Outputs[0].Channels(), "nothing patched")

	patch(g.Inputs[0], 7)
	patch(g.Inputs[4], 9)
	run(g, 1, nil)
	assert.Equal(t, []float32{7, 0, 0, 0, 9}, g.Outputs[0].Voltages())

	g.Params[MergeChannels].SetValue(2)
	run(g, 1, nil)
	assert.Equal(t, []float32{7, 0}, g.Outputs[0].Voltages())
	assert.Equal(t, "2", g.Params[MergeChannels].String())
	g.Params[MergeChannels].SetValue(0)
	assert.Equal(t, "Auto", g.Params[MergeChannels].String())
}

// TestPolyPatch runs Merge -> VCO -> Split through an engine: the channel
// count set on Merge reaches Split three cable hops later.
func TestPolyPatch(t *testing.T) {
	e := engine.New(engine.Config{SampleRate: sampleRate, Threads: 2},
		engine.WithLogger(debug.New(io.Discard, "", 0)),
		engine.WithRegistry(plugin.NewRegistry(Plugin())),
	)
	defer e.Close()

	add := func(mdl *module.Model) *module.Module {
		m := mdl.Create()
		_, err := e.AddModule(m)
		require.NoError(t, err)
		return m
	}
	merge := add(MergeModel)
	vco := add(VCOModel)
	split := add(SplitModel)
	e.SetParamValue(merge.ID, MergeChannels, 3)

	_, err := e.AddCable(engine.Cable{OutputModuleID: merge.ID, InputModuleID: vco.ID, InputID: VCOInputVOct})
	require.NoError(t, err)
	_, err = e.AddCable(engine.Cable{OutputModuleID: vco.ID, OutputID: VCOOutputSaw, InputModuleID: split.ID})
	require.NoError(t, err)

	require.NoError(t, e.Step(4))
	for c := 0; c < 3; c++ {
		assert.Equal(t, 1, split.Outputs[c].Channels(), "channel %d", c)
	}
	assert.Equal(t, 0, split.Outputs[3].Channels())
}
