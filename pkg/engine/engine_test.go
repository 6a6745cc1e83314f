package engine

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/rackgo/pkg/framework/module"
	"github.com/justyntemme/rackgo/pkg/framework/process"
)

func TestModuleIDs(t *testing.T) {
	e := newTestEngine(t, 1)

	a := add(t, e, constModel)
	assert.Equal(t, int64(1), a.ID)

	b := constModel.Create()
	b.ID = 10
	id, err := e.AddModule(b)
	require.NoError(t, err)
	assert.Equal(t, int64(10), id)

	c := add(t, e, constModel)
	assert.Equal(t, int64(11), c.ID)
	assert.Equal(t, []int64{1, 10, 11}, e.ModuleIDs())
	assert.Same(t, b, e.GetModule(10))

	_, err = e.AddModule(a)
	assert.ErrorIs(t, err, ErrDuplicateID)

	d := constModel.Create()
	d.ID = 10
	_, err = e.AddModule(d)
	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.Len(t, e.Modules(), 3)
}

func TestAddCableValidation(t *testing.T) {
	e := newTestEngine(t, 1)
	c := add(t, e, constModel)
	g := add(t, e, gainModel)
	connect(t, e, c, 0, g, 0)

	tests := []struct {
		name   string
		cable  Cable
		reason error
		portID int
	}{
		{"missing output module", Cable{OutputModuleID: 99, InputModuleID: g.ID}, ErrModuleNotFound, -1},
		{"missing input module", Cable{OutputModuleID: c.ID, InputModuleID: 99}, ErrModuleNotFound, -1},
		{"output out of range", Cable{OutputModuleID: c.ID, OutputID: 5, InputModuleID: g.ID}, ErrPortOutOfRange, 5},
		{"input out of range", Cable{OutputModuleID: c.ID, InputModuleID: g.ID, InputID: -1}, ErrPortOutOfRange, -1},
		{"duplicate endpoints", Cable{OutputModuleID: c.ID, InputModuleID: g.ID}, ErrDuplicateCable, 0},
		{"duplicate id", Cable{ID: 1, OutputModuleID: g.ID, InputModuleID: g.ID}, ErrDuplicateID, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.AddCable(tt.cable)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.reason)

			var ge *InvalidGraphError
			require.ErrorAs(t, err, &ge)
			assert.Equal(t, "addCable", ge.Op)
			assert.Equal(t, tt.portID, ge.PortID)
			assert.Len(t, e.Cables(), 1, "graph unchanged")
		})
	}
}

func TestCableDelayOneFramePerHop(t *testing.T) {
	for _, threads := range []int{1, 3} {
		e := newTestEngine(t, threads)
		c := add(t, e, constModel)
		g1 := add(t, e, gainModel)
		g2 := add(t, e, gainModel)
		e.SetParamValue(c.ID, 0, 5)
		connect(t, e, c, 0, g1, 0)
		connect(t, e, g1, 0, g2, 0)

		require.NoError(t, e.Step(1))
		assert.Equal(t, float32(5), g1.Inputs[0].Voltage(0))
		assert.Equal(t, 0, g1.Outputs[0].Channels())
		assert.Equal(t, 0, g2.Inputs[0].Channels())

		require.NoError(t, e.Step(1))
		assert.Equal(t, float32(5), g1.Outputs[0].Voltage(0))
		assert.Equal(t, float32(5), g2.Inputs[0].Voltage(0))
		assert.Equal(t, 0, g2.Outputs[0].Channels())

		require.NoError(t, e.Step(1))
		assert.Equal(t, float32(5), g2.Outputs[0].Voltage(0))
	}
}

func TestFeedbackLoopConverges(t *testing.T) {
	for _, threads := range []int{1, 2, 4} {
		e := newTestEngine(t, threads)
		c := add(t, e, constModel)
		g1 := add(t, e, gainModel)
		g2 := add(t, e, gainModel)
		e.SetParamValue(c.ID, 0, 5)
		e.SetParamValue(g1.ID, 0, 0.5)
		e.SetParamValue(g2.ID, 0, 0.5)
		connect(t, e, c, 0, g1, 0)
		connect(t, e, g1, 0, g2, 0)
		connect(t, e, g2, 0, g1, 0)

		require.NoError(t, e.Step(500))
		// in = 5 + 0.25 * in
		assert.InDelta(t, 20.0/3, g1.Inputs[0].Voltage(0), 1e-4, "threads=%d", threads)
		assert.InDelta(t, 10.0/3, g2.Inputs[0].Voltage(0), 1e-4, "threads=%d", threads)
	}
}

func TestSummation(t *testing.T) {
	voltages := []float32{1, 2, 3}
	want := [][]float32{
		{},
		{1},
		{3, 2},
		{6, 5, 3},
	}
	for n := 0; n <= 3; n++ {
		e := newTestEngine(t, 2)
		g := add(t, e, gainModel)
		for i := 0; i < n; i++ {
			src := add(t, e, constModel)
			e.SetParamValue(src.ID, 0, float64(voltages[i]))
			e.SetParamValue(src.ID, 1, float64(i+1))
			connect(t, e, src, 0, g, 0)
		}

		require.NoError(t, e.Step(1))
		in := g.Inputs[0]
		assert.Equal(t, n > 0, in.Active(), "n=%d", n)
		assert.Equal(t, n, in.Channels(), "n=%d", n)
		assert.Equal(t, want[n], append([]float32{}, in.Voltages()...), "n=%d", n)
	}
}

func TestPolyInputThenDisconnect(t *testing.T) {
	e := newTestEngine(t, 1)
	c := add(t, e, constModel)
	g := add(t, e, gainModel)
	e.SetParamValue(c.ID, 0, 1.5)
	e.SetParamValue(c.ID, 1, 2)
	id := connect(t, e, c, 0, g, 0)

	require.NoError(t, e.Step(2))
	assert.True(t, g.Inputs[0].Active())
	assert.Equal(t, 2, g.Inputs[0].Channels())
	assert.Equal(t, float32(1.5), g.Outputs[0].Voltage(1))

	e.RemoveCable(id)
	assert.False(t, g.Inputs[0].Active())
	assert.Equal(t, 0, g.Inputs[0].Channels())
	assert.Equal(t, float32(0), g.Inputs[0].Voltage(0))

	require.NoError(t, e.Step(1))
	assert.Equal(t, 0, g.Outputs[0].Channels())

	e.RemoveCable(id)
	assert.Empty(t, e.Cables())
}

func TestBypass(t *testing.T) {
	e := newTestEngine(t, 1)
	c := add(t, e, constModel)
	g := add(t, e, gainModel)
	e.SetParamValue(c.ID, 0, 2)
	e.SetParamValue(c.ID, 1, 3)
	e.SetParamValue(g.ID, 0, 0.5)
	connect(t, e, c, 0, g, 0)

	require.NoError(t, e.Step(2))
	assert.Equal(t, []float32{1, 1, 1}, g.Outputs[0].Voltages())

	g.Lights[0].SetBrightness(1)
	require.NoError(t, e.BypassModule(g.ID, true))
	assert.True(t, g.Bypassed())
	assert.Equal(t, 0, g.Outputs[0].Channels(), "outputs cleared on bypass")
	assert.Equal(t, float32(0), g.Lights[0].Brightness())

	require.NoError(t, e.Step(1))
	assert.Equal(t, []float32{2, 2, 2}, g.Outputs[0].Voltages(), "routes copy input")

	require.NoError(t, e.BypassModule(g.ID, false))
	assert.Equal(t, 1, g.Outputs[0].Channels(), "outputs cleared on un-bypass")
	assert.Equal(t, float32(0), g.Outputs[0].Voltage(0))

	require.NoError(t, e.Step(1))
	assert.Equal(t, []float32{1, 1, 1}, g.Outputs[0].Voltages())

	assert.ErrorIs(t, e.BypassModule(99, true), ErrModuleNotFound)
}

func TestBypassWithoutRoutes(t *testing.T) {
	e := newTestEngine(t, 1)
	c := add(t, e, constModel)
	p := add(t, e, panicModel)
	connect(t, e, c, 0, p, 0)

	require.NoError(t, e.BypassModule(p.ID, true))
	require.NoError(t, e.Step(4))
	assert.Equal(t, 0, p.Outputs[0].Channels())
}

func TestBypassHooks(t *testing.T) {
	e := newTestEngine(t, 1)
	m := add(t, e, recorderModel)
	r := m.Processor().(*recorder)

	require.NoError(t, e.BypassModule(m.ID, true))
	require.NoError(t, e.BypassModule(m.ID, true))
	assert.Equal(t, 1, r.bypasses, "unchanged bypass is a no-op")

	require.NoError(t, e.Step(3))
	assert.Equal(t, 0, r.frames, "bypassed modules are not processed")

	require.NoError(t, e.BypassModule(m.ID, false))
	assert.Equal(t, 1, r.unbypass)
	require.NoError(t, e.Step(3))
	assert.Equal(t, 3, r.frames)
}

func TestLifecycleHooks(t *testing.T) {
	e := newTestEngine(t, 1)
	m := add(t, e, recorderModel)
	r := m.Processor().(*recorder)

	assert.Equal(t, 1, r.adds)
	assert.Same(t, e, r.host)
	assert.Equal(t, 48000.0, r.rate)

	e.SetSampleRate(44100)
	assert.Equal(t, 44100.0, r.rate)
	assert.Equal(t, 44100.0, e.SampleRate())
	assert.InDelta(t, 1.0/44100, e.SampleTime(), 1e-12)

	e.SetSampleRate(0)
	assert.Equal(t, 44100.0, e.SampleRate(), "invalid rates are ignored")

	e.RemoveModule(m.ID)
	e.RemoveModule(m.ID)
	assert.Equal(t, 1, r.removes)
}

func TestPluginFaultIsContained(t *testing.T) {
	e := newTestEngine(t, 2)
	c := add(t, e, constModel)
	p := add(t, e, panicModel)
	other := add(t, e, constModel)
	g := add(t, e, gainModel)
	e.SetParamValue(c.ID, 0, 5)
	e.SetParamValue(other.ID, 0, 3)
	connect(t, e, c, 0, p, 0)
	connect(t, e, other, 0, g, 0)
	p.Lights[0].SetBrightness(1)

	require.NoError(t, e.Step(1), "input is still cold on the first frame")

	err := e.Step(4)
	require.Error(t, err)
	var fault *PluginFault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, p.ID, fault.ModuleID)
	assert.Equal(t, "Test/Panic", fault.Model)
	assert.Equal(t, "Process", fault.Hook)
	assert.Equal(t, "input too hot", fault.Value)
	assert.NotEmpty(t, fault.Stack)
	assert.Contains(t, err.Error(), "panicked in Process")

	assert.True(t, e.Faulted(p.ID))
	assert.True(t, p.Bypassed())
	assert.Equal(t, 0, p.Outputs[0].Channels())
	assert.Equal(t, float32(0), p.Lights[0].Brightness())
	assert.Equal(t, float32(3), g.Outputs[0].Voltage(0), "other modules keep running")

	assert.ErrorIs(t, e.BypassModule(p.ID, false), ErrModuleFaulted)
	assert.NoError(t, e.Step(4), "a fault is reported once")
	assert.False(t, e.Faulted(g.ID))
}

func TestFaultedModuleKeepsBypassRoute(t *testing.T) {
	e := newTestEngine(t, 1)
	c := add(t, e, constModel)
	f := add(t, e, fragileModel)
	e.SetParamValue(c.ID, 0, 5)
	connect(t, e, c, 0, f, 0)

	require.NoError(t, e.Step(1))
	require.Error(t, e.Step(1))
	assert.True(t, e.Faulted(f.ID))
	assert.True(t, f.Bypassed())
	assert.Equal(t, []float32{5}, f.Outputs[0].Voltages(), "routed in the faulting frame")

	e.SetParamValue(c.ID, 0, -2)
	require.NoError(t, e.Step(3))
	assert.Equal(t, []float32{-2}, f.Outputs[0].Voltages())
}

func TestHookPanicFaultsModule(t *testing.T) {
	e := newTestEngine(t, 1)
	boom := &module.Model{
		Plugin: "Test",
		Slug:   "Boom",
		New: func(m *module.Module) module.Processor {
			return &panicOnAdd{}
		},
	}
	m := boom.Create()
	id, err := e.AddModule(m)
	require.NoError(t, err)
	assert.True(t, e.Faulted(id))
	assert.NoError(t, e.Step(1))
}

type panicOnAdd struct{}

func (panicOnAdd) Process(process.Args) {}
func (panicOnAdd) OnAdd(module.Host)    { panic("no") }

func TestSetParamValue(t *testing.T) {
	e := newTestEngine(t, 1)
	c := add(t, e, constModel)

	e.SetParamValue(c.ID, 0, 100)
	v, ok := e.ParamValue(c.ID, 0)
	require.True(t, ok)
	assert.Equal(t, 10.0, v)

	e.SetParamValue(c.ID, 0, -100)
	v, _ = e.ParamValue(c.ID, 0)
	assert.Equal(t, -10.0, v)

	e.SetParamValue(c.ID, 1, 2.6)
	v, _ = e.ParamValue(c.ID, 1)
	assert.Equal(t, 3.0, v, "snapped")

	e.SetParamValue(99, 0, 1)
	e.SetParamValue(c.ID, 7, 1)
	_, ok = e.ParamValue(99, 0)
	assert.False(t, ok)
	_, ok = e.ParamValue(c.ID, 7)
	assert.False(t, ok)
}

func TestSmoothParamValue(t *testing.T) {
	e := newTestEngine(t, 2)
	c := add(t, e, constModel)

	e.SetParamSmoothValue(c.ID, 0, 50)
	e.SetParamSmoothValue(c.ID, 1, 3.4)
	e.SetParamSmoothValue(99, 0, 1)
	v, _ := e.ParamValue(c.ID, 0)
	assert.Equal(t, 0.0, v, "nothing moves before the next block")

	require.NoError(t, e.Step(1))
	v, _ = e.ParamValue(c.ID, 0)
	assert.InDelta(t, 10*60.0/48000, v, 1e-9, "one step toward the clamped target")
	v, _ = e.ParamValue(c.ID, 1)
	assert.Equal(t, 3.0, v, "snapped params jump")

	require.NoError(t, e.Step(48000))
	v, _ = e.ParamValue(c.ID, 0)
	assert.Equal(t, 10.0, v, "reaches the target exactly")
	assert.Equal(t, float32(10), c.Outputs[0].Voltage(2))
}

func TestSetParamValueStopsSmoothing(t *testing.T) {
	t.Run("in flight", func(t *testing.T) {
		e := newTestEngine(t, 2)
		c := add(t, e, constModel)

		e.SetParamSmoothValue(c.ID, 0, 10)
		require.NoError(t, e.Step(1))
		e.SetParamValue(c.ID, 0, -5)
		require.NoError(t, e.Step(64))
		v, _ := e.ParamValue(c.ID, 0)
		assert.Equal(t, -5.0, v)
		assert.Equal(t, float32(-5), c.Outputs[0].Voltage(0))
	})

	t.Run("pending", func(t *testing.T) {
		e := newTestEngine(t, 1)
		c := add(t, e, constModel)

		e.SetParamSmoothValue(c.ID, 0, 10)
		e.SetParamValue(c.ID, 0, -5)
		require.NoError(t, e.Step(4800))
		v, _ := e.ParamValue(c.ID, 0)
		assert.Equal(t, -5.0, v)
	})

	t.Run("later smooth write wins", func(t *testing.T) {
		e := newTestEngine(t, 1)
		c := add(t, e, constModel)

		e.SetParamValue(c.ID, 0, -5)
		e.SetParamSmoothValue(c.ID, 0, 10)
		require.NoError(t, e.Step(48000))
		v, _ := e.ParamValue(c.ID, 0)
		assert.Equal(t, 10.0, v)
	})
}

func TestAlternatingBlockSizes(t *testing.T) {
	e := newTestEngine(t, 4)
	var recs []*recorder
	for i := 0; i < 6; i++ {
		recs = append(recs, add(t, e, recorderModel).Processor().(*recorder))
		c := add(t, e, constModel)
		g := add(t, e, gainModel)
		connect(t, e, c, 0, g, 0)
	}

	total := 0
	for i := 0; i < 200; i++ {
		n := 1
		if i%2 == 1 {
			n = 3
		}
		require.NoError(t, e.Step(n))
		total += n
	}
	assert.Equal(t, int64(total), e.Frame())
	for _, r := range recs {
		assert.Equal(t, total, r.frames)
	}
}

func TestResetAndRandomize(t *testing.T) {
	e := newTestEngine(t, 1)
	g := add(t, e, gainModel)

	e.SetParamValue(g.ID, 0, 1.7)
	e.SetParamSmoothValue(g.ID, 0, 0)
	require.NoError(t, e.Step(1))
	require.NoError(t, e.ResetModule(g.ID))
	require.NoError(t, e.Step(10))
	v, _ := e.ParamValue(g.ID, 0)
	assert.Equal(t, 1.0, v, "reset cancels pending smoothing")

	require.NoError(t, e.RandomizeModule(g.ID))
	v, _ = e.ParamValue(g.ID, 0)
	assert.GreaterOrEqual(t, v, 0.0)
	assert.LessOrEqual(t, v, 2.0)

	assert.ErrorIs(t, e.ResetModule(99), ErrModuleNotFound)
	assert.ErrorIs(t, e.RandomizeModule(99), ErrModuleNotFound)
}

func TestRemoveModule(t *testing.T) {
	e := newTestEngine(t, 2)
	c := add(t, e, constModel)
	g := add(t, e, gainModel)
	g2 := add(t, e, gainModel)
	connect(t, e, c, 0, g, 0)
	connect(t, e, g, 0, g2, 0)
	connect(t, e, c, 0, g2, 0)

	h := module.NewParamHandle()
	e.AddParamHandle(h)
	require.NoError(t, e.UpdateParamHandle(h, g.ID, 0, false))
	require.NoError(t, e.Step(2))

	e.RemoveModule(g.ID)
	assert.Nil(t, e.GetModule(g.ID))
	assert.Equal(t, []int64{c.ID, g2.ID}, e.ModuleIDs())
	require.Len(t, e.Cables(), 1)
	assert.Equal(t, c.ID, e.Cables()[0].OutputModuleID)
	assert.True(t, g2.Inputs[0].Active(), "other cables into the input survive")
	assert.False(t, h.IsMapped())
	assert.Nil(t, e.GetParamHandle(g.ID, 0))

	e.RemoveModule(g.ID)
	assert.Equal(t, []int64{c.ID, g2.ID}, e.ModuleIDs())
	require.NoError(t, e.Step(2))

	e.Clear()
	assert.Empty(t, e.ModuleIDs())
	assert.Empty(t, e.Cables())
	require.NoError(t, e.Step(2))
}

func TestExpanderMessages(t *testing.T) {
	for _, threads := range []int{1, 2} {
		e := newTestEngine(t, threads)
		a := add(t, e, talkerModel)
		b := add(t, e, talkerModel)
		require.NoError(t, e.SetExpander(a.ID, module.Right, b.ID))
		require.NoError(t, e.SetExpander(b.ID, module.Left, a.ID))

		require.NoError(t, e.Step(3))
		tb := b.Processor().(*talker)
		assert.Equal(t, []any{nil, int64(0), int64(1)}, tb.got, "threads=%d", threads)

		e.RemoveModule(a.ID)
		assert.Equal(t, int64(-1), b.LeftExpander.ModuleID)
		require.NoError(t, e.Step(2))
		assert.Nil(t, b.LeftExpander.Module, "dangling link resolves to nothing")
		assert.Len(t, tb.got, 3)
	}
}

func TestSetExpander(t *testing.T) {
	e := newTestEngine(t, 1)
	a := add(t, e, recorderModel)
	b := add(t, e, recorderModel)
	ra := a.Processor().(*recorder)

	assert.ErrorIs(t, e.SetExpander(a.ID, module.Right, a.ID), ErrSelfExpander)
	assert.ErrorIs(t, e.SetExpander(a.ID, module.Right, 99), ErrModuleNotFound)
	assert.ErrorIs(t, e.SetExpander(99, module.Right, a.ID), ErrModuleNotFound)

	require.NoError(t, e.SetExpander(a.ID, module.Right, b.ID))
	require.NoError(t, e.Step(1))
	assert.Same(t, b, a.RightExpander.Module)
	assert.Equal(t, []module.Side{module.Right}, ra.changes)

	require.NoError(t, e.Step(1))
	assert.Len(t, ra.changes, 1, "notified on change only")

	e.RemoveModule(b.ID)
	require.NoError(t, e.Step(1))
	assert.Nil(t, a.RightExpander.Module)
	assert.Equal(t, []module.Side{module.Right, module.Right}, ra.changes)

	require.NoError(t, e.SetExpander(a.ID, module.Left, -5))
	assert.Equal(t, int64(-1), a.LeftExpander.ModuleID)
}

// render runs a small feedback patch and returns every output voltage after
// every block.
func render(t *testing.T, threads int) []float32 {
	e := newTestEngine(t, threads)
	c1 := add(t, e, constModel)
	c2 := add(t, e, constModel)
	var gains []*module.Module
	for i := 0; i < 6; i++ {
		gains = append(gains, add(t, e, gainModel))
	}
	e.SetParamValue(c1.ID, 0, 1)
	e.SetParamValue(c2.ID, 0, 0.5)
	e.SetParamValue(c2.ID, 1, 4)
	for _, g := range gains {
		e.SetParamValue(g.ID, 0, 0.3)
	}
	connect(t, e, c1, 0, gains[0], 0)
	for i := 1; i < len(gains); i++ {
		connect(t, e, gains[i-1], 0, gains[i], 0)
	}
	connect(t, e, gains[5], 0, gains[0], 0)
	connect(t, e, c2, 0, gains[3], 0)

	var out []float32
	for block := 0; block < 20; block++ {
		if block == 5 {
			e.SetParamSmoothValue(gains[2].ID, 0, 1.8)
		}
		if block == 10 {
			require.NoError(t, e.BypassModule(gains[4].ID, true))
		}
		require.NoError(t, e.Step(7))
		for _, g := range gains {
			out = append(out, float32(g.Outputs[0].Channels()))
			out = append(out, g.Outputs[0].Voltages()...)
		}
	}
	return out
}

func TestThreadCountDoesNotChangeOutput(t *testing.T) {
	want := render(t, 1)
	for _, threads := range []int{2, 3, 4, 8} {
		assert.Equal(t, want, render(t, threads), "threads=%d", threads)
	}
}

func TestSetThreads(t *testing.T) {
	e := newTestEngine(t, 1)
	c := add(t, e, constModel)
	g := add(t, e, gainModel)
	e.SetParamValue(c.ID, 0, 2)
	connect(t, e, c, 0, g, 0)

	require.NoError(t, e.Step(4))
	e.SetThreads(3)
	assert.Equal(t, 3, e.Threads())
	require.NoError(t, e.Step(4))
	assert.Equal(t, float32(2), g.Outputs[0].Voltage(0))
	e.SetThreads(0)
	assert.GreaterOrEqual(t, e.Threads(), 1)
	require.NoError(t, e.Step(4))
}

func TestConcurrentMutationDuringStep(t *testing.T) {
	e := newTestEngine(t, 3)
	src := add(t, e, constModel)

	var stop atomic.Bool
	var steps atomic.Int64
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for !stop.Load() {
			if err := e.Step(32); err != nil {
				t.Error(err)
				return
			}
			steps.Add(1)
		}
	}()

	for i := 0; i < 200; i++ {
		g := gainModel.Create()
		_, err := e.AddModule(g)
		require.NoError(t, err)
		id, err := e.AddCable(Cable{OutputModuleID: src.ID, InputModuleID: g.ID})
		require.NoError(t, err)

		e.SetParamValue(g.ID, 0, 0.5)
		e.SetParamSmoothValue(src.ID, 0, float64(i%10))
		_ = e.GetModule(g.ID)
		_, _ = e.ParamValue(src.ID, 0)
		if i%3 == 0 {
			e.RemoveCable(id)
		}
		if i%2 == 0 {
			e.RemoveModule(g.ID)
		}
		if i%50 == 0 {
			_, err := e.ToJSON()
			require.NoError(t, err)
		}
	}
	stop.Store(true)
	wg.Wait()

	assert.Len(t, e.ModuleIDs(), 101)
	assert.Positive(t, steps.Load())
}

func TestFrameCounters(t *testing.T) {
	e := newTestEngine(t, 1)
	add(t, e, constModel)

	require.NoError(t, e.Step(0))
	assert.Zero(t, e.Frame())
	assert.True(t, e.BlockTime().IsZero())

	require.NoError(t, e.Step(10))
	require.NoError(t, e.Step(5))
	assert.Equal(t, int64(15), e.Frame())
	assert.Equal(t, int64(10), e.BlockFrame())
	assert.InDelta(t, 15.0/48000, e.ElapsedTime(), 1e-12)
	assert.False(t, e.BlockTime().IsZero())
	assert.Equal(t, uint64(2), e.Profile().Block.Count)

	e.Close()
	e.Close()
	assert.True(t, errors.Is(e.Step(1), ErrClosed))
}

func TestCPUMeter(t *testing.T) {
	e := New(Config{SampleRate: 48000, Threads: 1, CPUMeter: true})
	defer e.Close()
	m := recorderModel.Create()
	_, err := e.AddModule(m)
	require.NoError(t, err)

	require.NoError(t, e.Step(256))
	assert.GreaterOrEqual(t, m.CPUTime(), 0.0)
	assert.GreaterOrEqual(t, e.Profile().Load, 0.0)

	e.SetCPUMeter(false)
	before := m.CPUTime()
	require.NoError(t, e.Step(256))
	assert.Equal(t, before, m.CPUTime())
}
