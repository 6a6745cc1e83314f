package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/rackgo/pkg/framework/module"
	"github.com/justyntemme/rackgo/pkg/framework/state"
)

func TestParamHandleOverwrite(t *testing.T) {
	e := newTestEngine(t, 1)
	g := add(t, e, gainModel)
	h1 := module.NewParamHandle()
	h2 := module.NewParamHandle()
	e.AddParamHandle(h1)
	e.AddParamHandle(h2)

	require.NoError(t, e.UpdateParamHandle(h1, g.ID, 0, false))
	assert.Same(t, h1, e.GetParamHandle(g.ID, 0))

	require.NoError(t, e.UpdateParamHandle(h2, g.ID, 0, false))
	assert.False(t, h2.IsMapped(), "existing mapping wins without overwrite")
	assert.True(t, h1.IsMapped())
	assert.Same(t, h1, e.GetParamHandle(g.ID, 0))

	require.NoError(t, e.UpdateParamHandle(h2, g.ID, 0, true))
	assert.True(t, h2.IsMapped())
	assert.False(t, h1.IsMapped(), "overwrite unmaps the old handle")
	assert.Same(t, h2, e.GetParamHandle(g.ID, 0))

	require.NoError(t, e.UpdateParamHandle(h2, -1, 0, false))
	assert.False(t, h2.IsMapped())
	assert.Nil(t, e.GetParamHandle(g.ID, 0))

	require.NoError(t, e.UpdateParamHandle(h1, g.ID, 1, false))
	assert.Same(t, h1, e.GetParamHandle(g.ID, 1))

	e.RemoveParamHandle(h1)
	assert.False(t, h1.IsMapped())
	assert.Nil(t, e.GetParamHandle(g.ID, 1))
	assert.ErrorIs(t, e.UpdateParamHandle(h1, g.ID, 0, false), ErrUnknownHandle)
}

func TestUpdateParamHandleRejectsMissingTargets(t *testing.T) {
	e := newTestEngine(t, 1)
	g := add(t, e, gainModel)
	h := module.NewParamHandle()
	e.AddParamHandle(h)

	tests := []struct {
		name     string
		moduleID int64
		paramID  int
		reason   error
	}{
		{"missing module", 42, 0, ErrModuleNotFound},
		{"param too high", g.ID, 2, ErrParamOutOfRange},
		{"negative param", g.ID, -1, ErrParamOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, e.UpdateParamHandle(h, g.ID, 0, false))
			require.True(t, h.IsMapped())

			err := e.UpdateParamHandle(h, tt.moduleID, tt.paramID, true)
			require.ErrorIs(t, err, tt.reason)
			var ge *InvalidGraphError
			require.ErrorAs(t, err, &ge)
			assert.Equal(t, "updateParamHandle", ge.Op)
			assert.False(t, h.IsMapped(), "a rejected target leaves the handle unmapped")
			assert.Nil(t, e.GetParamHandle(g.ID, 0))
			assert.Nil(t, e.GetParamHandle(tt.moduleID, tt.paramID))
		})
	}
}

func TestAddMappedHandleConflicts(t *testing.T) {
	e := newTestEngine(t, 1)
	h1 := module.NewParamHandle()
	h1.SetTarget(7, 1)
	e.AddParamHandle(h1)
	e.AddParamHandle(h1)

	h2 := module.NewParamHandle()
	h2.SetTarget(7, 1)
	e.AddParamHandle(h2)

	assert.True(t, h1.IsMapped())
	assert.False(t, h2.IsMapped())
	assert.Same(t, h1, e.GetParamHandle(7, 1))
}

func TestHandleOwnerLifecycle(t *testing.T) {
	e := newTestEngine(t, 1)
	g := add(t, e, gainModel)
	mm := add(t, e, mapperModel)
	h := mm.Processor().(*mapper).handle

	require.NoError(t, e.UpdateParamHandle(h, g.ID, 0, false))
	assert.Same(t, h, e.GetParamHandle(g.ID, 0))

	e.RemoveModule(mm.ID)
	assert.False(t, h.IsMapped())
	assert.Nil(t, e.GetParamHandle(g.ID, 0))
	assert.ErrorIs(t, e.UpdateParamHandle(h, g.ID, 0, false), ErrUnknownHandle)
}

func TestHandleOwnerRestoresTargets(t *testing.T) {
	e := newTestEngine(t, 1)
	g := add(t, e, gainModel)
	mm := add(t, e, mapperModel)
	h := mm.Processor().(*mapper).handle

	data, err := json.Marshal(module.HandleTarget{ModuleID: g.ID, ParamID: 0})
	require.NoError(t, err)
	report, err := e.ModuleFromJSON(mm.ID, state.ModuleJSON{
		Plugin: "Test",
		Model:  "Mapper",
		Data:   data,
	})
	require.NoError(t, err)
	assert.True(t, report.Empty(), report.String())
	assert.Same(t, h, e.GetParamHandle(g.ID, 0))

	// a second owner restoring the same target loses to the first
	other := add(t, e, mapperModel)
	_, err = e.ModuleFromJSON(other.ID, state.ModuleJSON{Plugin: "Test", Model: "Mapper", Data: data})
	require.NoError(t, err)
	assert.False(t, other.Processor().(*mapper).handle.IsMapped())
	assert.Same(t, h, e.GetParamHandle(g.ID, 0))
}

func TestRemovingTargetUnmapsHandles(t *testing.T) {
	e := newTestEngine(t, 1)
	a := add(t, e, gainModel)
	b := add(t, e, gainModel)
	ha := module.NewParamHandle()
	hb := module.NewParamHandle()
	e.AddParamHandle(ha)
	e.AddParamHandle(hb)
	require.NoError(t, e.UpdateParamHandle(ha, a.ID, 0, false))
	require.NoError(t, e.UpdateParamHandle(hb, b.ID, 0, false))

	e.RemoveModule(a.ID)
	assert.False(t, ha.IsMapped())
	assert.True(t, hb.IsMapped())

	require.NoError(t, e.UpdateParamHandle(ha, b.ID, 0, false), "handle stays registered")
}
