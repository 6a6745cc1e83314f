package script

import (
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/rackgo/pkg/engine"
	"github.com/justyntemme/rackgo/pkg/framework/debug"
	"github.com/justyntemme/rackgo/pkg/framework/module"
	"github.com/justyntemme/rackgo/pkg/framework/plugin"
	"github.com/justyntemme/rackgo/pkg/framework/port"
	"github.com/justyntemme/rackgo/pkg/framework/process"
	"github.com/justyntemme/rackgo/pkg/framework/state"
)

func patch(in *port.Input, v float32) {
	src := port.NewOutput(0, "src")
	src.SetVoltage(v, 0)
	in.Connect(true)
	in.Accumulate([]*port.Output{src})
}

func newScriptModule(t *testing.T, src string) (*module.Module, *Script) {
	t.Helper()
	m := Model.Create()
	s := m.Processor().(*Script)
	t.Cleanup(s.OnRemove)
	if src != "" {
		require.NoError(t, s.SetSource(src))
	}
	return m, s
}

func TestDefaultPassesThrough(t *testing.T) {
	m, s := newScriptModule(t, "")
	assert.Equal(t, DefaultSource, s.Source())

	patch(m.Inputs[0], 3)
	patch(m.Inputs[3], -1.5)
	m.Process(process.NewArgs(48000, 0))
	assert.Equal(t, float32(3), m.Outputs[0].Voltage(0))
	assert.Equal(t, float32(0), m.Outputs[1].Voltage(0))
	assert.Equal(t, float32(-1.5), m.Outputs[3].Voltage(0))
}

func TestGlobals(t *testing.T) {
	m, _ := newScriptModule(t, `
function process()
  outputs[1] = knobs[1] * 10
  outputs[2] = frame
  outputs[3] = sampleRate
  outputs[4] = "not a number"
end`)
	m.Params[0].SetValue(0.25)
	m.Process(process.NewArgs(44100, 7))

	assert.Equal(t, float32(2.5), m.Outputs[0].Voltage(0))
	assert.Equal(t, float32(7), m.Outputs[1].Voltage(0))
	assert.Equal(t, float32(44100), m.Outputs[2].Voltage(0))
	assert.Zero(t, m.Outputs[3].Voltage(0), "non-numbers read as 0 V")
}

func TestStateSurvivesFrames(t *testing.T) {
	m, _ := newScriptModule(t, `
local n = 0
function process()
  n = n + 1
  outputs[1] = n
end`)
	for f := int64(0); f < 3; f++ {
		m.Process(process.NewArgs(48000, f))
	}
	assert.Equal(t, float32(3), m.Outputs[0].Voltage(0))
}

func TestSetSourceErrors(t *testing.T) {
	_, s := newScriptModule(t, "")

	err := s.SetSource("function process(")
	require.Error(t, err)
	assert.Equal(t, DefaultSource, s.Source(), "the old program keeps running")

	assert.ErrorIs(t, s.SetSource("x = 1"), ErrNoProcess)

	err = s.SetSource(`dofile("/etc/passwd") function process() end`)
	assert.Error(t, err, "file access is not available")
}

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e := engine.New(engine.Config{SampleRate: 48000, Threads: 2},
		engine.WithLogger(debug.New(io.Discard, "", 0)),
		engine.WithRegistry(plugin.NewRegistry(Plugin())),
	)
	t.Cleanup(e.Close)
	return e
}

func TestRuntimeErrorIsContained(t *testing.T) {
	e := newEngine(t)
	src := Model.Create()
	require.NoError(t, src.Processor().(*Script).SetSource(`function process() outputs[1] = frame end`))
	bad := Model.Create()
	require.NoError(t, bad.Processor().(*Script).SetSource(`
function process()
  if inputs[1] > 2 then error("too hot") end
  outputs[1] = 1
end`))
	for _, m := range []*module.Module{src, bad} {
		_, err := e.AddModule(m)
		require.NoError(t, err)
	}
	_, err := e.AddCable(engine.Cable{OutputModuleID: src.ID, InputModuleID: bad.ID})
	require.NoError(t, err)

	err = e.Step(8)
	require.Error(t, err)
	var fault *engine.PluginFault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, bad.ID, fault.ModuleID)
	assert.Contains(t, fault.Error(), "too hot")

	assert.True(t, e.Faulted(bad.ID))
	assert.False(t, e.Faulted(src.ID))
	require.NoError(t, e.Step(8), "the faulted module stays bypassed")
	assert.Equal(t, float32(15), src.Outputs[0].Voltage(0))
}

func TestPatchRoundTrip(t *testing.T) {
	e := newEngine(t)
	m := Model.Create()
	_, err := e.AddModule(m)
	require.NoError(t, err)
	code := "function process() outputs[2] = 4 end"
	_, err = e.ModuleFromJSON(m.ID, state.ModuleJSON{
		Plugin: Slug,
		Model:  Model.Slug,
		Data:   mustJSON(t, scriptData{Source: code}),
	})
	require.NoError(t, err)
	assert.Equal(t, code, m.Processor().(*Script).Source())

	saved, err := e.ToJSON()
	require.NoError(t, err)
	e2 := newEngine(t)
	report, err := e2.FromJSON(saved)
	require.NoError(t, err)
	assert.True(t, report.Empty(), report.String())
	require.NoError(t, e2.Step(1))
	assert.Equal(t, float32(4), e2.GetModule(m.ID).Outputs[1].Voltage(0))

	report, err = e2.ModuleFromJSON(m.ID, state.ModuleJSON{
		Plugin: Slug,
		Model:  Model.Slug,
		Data:   mustJSON(t, scriptData{Source: "function process("}),
	})
	require.NoError(t, err)
	assert.True(t, report.Has(state.DataError))
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}
