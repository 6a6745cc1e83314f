package engine

import (
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/justyntemme/rackgo/pkg/framework/debug"
	"github.com/justyntemme/rackgo/pkg/framework/module"
	"github.com/justyntemme/rackgo/pkg/framework/param"
	"github.com/justyntemme/rackgo/pkg/framework/plugin"
	"github.com/justyntemme/rackgo/pkg/framework/process"
)

// constant writes its Voltage param to every one of Channels output channels.
type constant struct {
	m *module.Module
}

func (c *constant) Process(process.Args) {
	n := int(c.m.Params[1].Value())
	v := float32(c.m.Params[0].Value())
	out := c.m.Outputs[0]
	out.SetChannels(n)
	for ch := 0; ch < n; ch++ {
		out.SetVoltage(v, ch)
	}
}

// gain multiplies its input, channel by channel.
type gain struct {
	m *module.Module
}

func (g *gain) Process(process.Args) {
	in := g.m.Inputs[0]
	out := g.m.Outputs[0]
	k := float32(g.m.Params[0].Value())
	n := in.Channels()
	out.SetChannels(n)
	for c := 0; c < n; c++ {
		out.SetVoltage(in.Voltage(c)*k, c)
	}
}

// panicky panics once its input goes high.
type panicky struct {
	m *module.Module
}

func (p *panicky) Process(process.Args) {
	if p.m.Inputs[0].Voltage(0) > 1 {
		panic("input too hot")
	}
	p.m.Outputs[0].SetVoltage(1, 0)
}

// recorder counts hook calls and saves a string as custom data.
type recorder struct {
	m        *module.Module
	host     module.Host
	Label    string
	adds     int
	removes  int
	bypasses int
	unbypass int
	rate     float64
	changes  []module.Side
	frames   int
}

func (r *recorder) Process(process.Args)              { r.frames++ }
func (r *recorder) OnAdd(h module.Host)               { r.host = h; r.adds++ }
func (r *recorder) OnRemove()                         { r.removes++ }
func (r *recorder) OnBypass()                         { r.bypasses++ }
func (r *recorder) OnUnBypass()                       { r.unbypass++ }
func (r *recorder) OnSampleRateChange(sr float64)     { r.rate = sr }
func (r *recorder) OnExpanderChange(side module.Side) { r.changes = append(r.changes, side) }

func (r *recorder) DataToJSON() (json.RawMessage, error) {
	return json.Marshal(map[string]string{"label": r.Label})
}

func (r *recorder) DataFromJSON(data json.RawMessage) error {
	var v struct {
		Label string `json:"label"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v.Label == "" {
		return errors.New("empty label")
	}
	r.Label = v.Label
	return nil
}

// talker sends its frame number to its right neighbour and reads what its
// left neighbour sent.
type talker struct {
	m    *module.Module
	got  []any
	sent int64
}

func (t *talker) Process(args process.Args) {
	if right := t.m.RightExpander.Module; right != nil {
		right.LeftExpander.ProducerMessage = args.Frame
		right.LeftExpander.RequestMessageFlip()
		t.sent++
	}
	if t.m.LeftExpander.Module != nil {
		t.got = append(t.got, t.m.LeftExpander.ConsumerMessage)
	}
}

// mapper owns one param handle and saves its target as data.
type mapper struct {
	m      *module.Module
	handle *module.ParamHandle
}

func (mp *mapper) Process(process.Args) {}

func (mp *mapper) ParamHandles() []*module.ParamHandle {
	return []*module.ParamHandle{mp.handle}
}

func (mp *mapper) DataToJSON() (json.RawMessage, error) {
	return json.Marshal(mp.handle.Target())
}

func (mp *mapper) DataFromJSON(data json.RawMessage) error {
	var t module.HandleTarget
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	mp.handle.SetTarget(t.ModuleID, t.ParamID)
	return nil
}

var (
	constModel = &module.Model{
		Slug: "Const",
		Name: "Constant",
		New: func(m *module.Module) module.Processor {
			m.Config(2, 0, 1, 0)
			m.ConfigParam(param.New(0, "Voltage").Range(-10, 10))
			m.ConfigParam(param.New(1, "Channels").Range(1, 16).Default(1).Snap())
			m.ConfigOutput(0, "Out")
			return &constant{m: m}
		},
	}
	gainModel = &module.Model{
		Slug: "Gain",
		Name: "Gain",
		New: func(m *module.Module) module.Processor {
			m.Config(2, 1, 1, 1)
			m.ConfigParam(param.New(0, "Gain").Range(0, 2).Default(1))
			m.ConfigParam(param.New(1, "Phase").Unbounded())
			m.ConfigInput(0, "In")
			m.ConfigOutput(0, "Out")
			m.ConfigLight(0, "Active")
			m.ConfigBypass(0, 0)
			return &gain{m: m}
		},
	}
	panicModel = &module.Model{
		Slug: "Panic",
		New: func(m *module.Module) module.Processor {
			m.Config(0, 1, 1, 1)
			m.ConfigInput(0, "In")
			m.ConfigOutput(0, "Out")
			return &panicky{m: m}
		},
	}
	fragileModel = &module.Model{
		Slug: "Fragile",
		New: func(m *module.Module) module.Processor {
			m.Config(0, 1, 1, 0)
			m.ConfigInput(0, "In")
			m.ConfigOutput(0, "Out")
			m.ConfigBypass(0, 0)
			return &panicky{m: m}
		},
	}
	recorderModel = &module.Model{
		Slug: "Recorder",
		New: func(m *module.Module) module.Processor {
			m.Config(1, 0, 0, 0)
			m.ConfigParam(param.New(0, "Level"))
			return &recorder{m: m, Label: "init"}
		},
	}
	talkerModel = &module.Model{
		Slug: "Talker",
		New: func(m *module.Module) module.Processor {
			return &talker{m: m}
		},
	}
	mapperModel = &module.Model{
		Slug: "Mapper",
		New: func(m *module.Module) module.Processor {
			return &mapper{m: m, handle: module.NewParamHandle()}
		},
	}
)

func testPlugin(t testing.TB) *plugin.Plugin {
	t.Helper()
	p := plugin.New(plugin.Info{Slug: "Test", Name: "Test", Version: "1.0.0"})
	p.MustAddModel(constModel, gainModel, panicModel, fragileModel, recorderModel, talkerModel, mapperModel)
	return p
}

func newTestEngine(t testing.TB, threads int) *Engine {
	t.Helper()
	e := New(Config{SampleRate: 48000, Threads: threads},
		WithLogger(debug.New(io.Discard, "engine", 0)),
		WithRegistry(plugin.NewRegistry(testPlugin(t))),
	)
	t.Cleanup(e.Close)
	return e
}

func add(t testing.TB, e *Engine, model *module.Model) *module.Module {
	t.Helper()
	m := model.Create()
	_, err := e.AddModule(m)
	require.NoError(t, err)
	return m
}

func connect(t testing.TB, e *Engine, out *module.Module, outID int, in *module.Module, inID int) int64 {
	t.Helper()
	id, err := e.AddCable(Cable{OutputModuleID: out.ID, OutputID: outID, InputModuleID: in.ID, InputID: inID})
	require.NoError(t, err)
	return id
}
