package engine

import (
	"slices"

	"github.com/justyntemme/rackgo/pkg/framework/module"
)

// AddModule inserts m. A negative m.ID is replaced with a fresh id; a given
// id must not be in use.
func (e *Engine) AddModule(m *module.Module) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.addModule(m); err != nil {
		return -1, err
	}
	return m.ID, nil
}

func (e *Engine) addModule(m *module.Module) error {
	for _, s := range e.slots {
		if s.m == m {
			return graphError("addModule", ErrDuplicateID, m.ID, -1)
		}
	}
	if m.ID < 0 {
		m.ID = e.nextModuleID
	} else if _, ok := e.byID[m.ID]; ok {
		return graphError("addModule", ErrDuplicateID, m.ID, -1)
	}
	e.nextModuleID = max(e.nextModuleID, m.ID+1)

	s := &slot{m: m}
	e.slots = append(e.slots, s)
	e.byID[m.ID] = s
	e.publishModules()
	e.dirty.Store(true)

	if ho, ok := m.Processor().(module.HandleOwner); ok {
		handles := ho.ParamHandles()
		e.handlesByOwner[m.ID] = handles
		for _, h := range handles {
			e.addParamHandle(h)
		}
		e.publishHandles()
	}
	if a, ok := m.Processor().(module.Adder); ok {
		e.callHook(s, "OnAdd", func() { a.OnAdd(e) })
	}
	e.notifySampleRate(s, e.SampleRate())

	e.log.Debug("added %v", m)
	return nil
}

// RemoveModule disconnects every cable touching the module, unmaps every
// handle pointing at it, unlinks its expander neighbours and releases it.
// Removing an unknown id does nothing.
func (e *Engine) RemoveModule(id int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.removeModule(id)
}

func (e *Engine) removeModule(id int64) {
	s := e.byID[id]
	if s == nil {
		return
	}

	for _, c := range slices.Clone(e.cables) {
		if c.OutputModuleID == id || c.InputModuleID == id {
			e.removeCable(c.ID)
		}
	}

	for _, h := range e.handlesByOwner[id] {
		delete(e.handles, h)
		h.Unmap()
	}
	delete(e.handlesByOwner, id)
	for h := range e.handles {
		if h.Target().ModuleID == id {
			h.Unmap()
		}
	}
	e.publishHandles()

	for _, o := range e.slots {
		if o.m.LeftExpander.ModuleID == id {
			o.m.LeftExpander.ModuleID = -1
		}
		if o.m.RightExpander.ModuleID == id {
			o.m.RightExpander.ModuleID = -1
		}
	}

	if r, ok := s.m.Processor().(module.Remover); ok {
		e.callHook(s, "OnRemove", r.OnRemove)
	}
	s.m.LeftExpander.Unlink()
	s.m.RightExpander.Unlink()

	e.slots = slices.DeleteFunc(e.slots, func(o *slot) bool { return o == s })
	delete(e.byID, id)
	e.publishModules()
	e.dirty.Store(true)
	e.log.Debug("removed %v", s.m)
}

// Clear removes every module and cable and restarts id allocation.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clear()
}

func (e *Engine) clear() {
	for len(e.slots) > 0 {
		e.removeModule(e.slots[len(e.slots)-1].m.ID)
	}
	e.nextModuleID = 1
	e.nextCableID = 1
}

// GetModule returns the module with the given id, or nil. It never blocks.
func (e *Engine) GetModule(id int64) *module.Module {
	return (*e.moduleView.Load())[id]
}

// Module implements module.Host.
func (e *Engine) Module(id int64) *module.Module {
	return e.GetModule(id)
}

// Modules returns every module in insertion order.
func (e *Engine) Modules() []*module.Module {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*module.Module, len(e.slots))
	for i, s := range e.slots {
		out[i] = s.m
	}
	return out
}

// ModuleIDs returns every module id in insertion order.
func (e *Engine) ModuleIDs() []int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]int64, len(e.slots))
	for i, s := range e.slots {
		out[i] = s.m.ID
	}
	return out
}

// SetParamValue stores value, clamped to the param's range, immediately.
// Smoothing toward an earlier SetParamSmoothValue target stops at the next
// block. Unknown modules and params are ignored.
func (e *Engine) SetParamValue(moduleID int64, paramID int, value float64) {
	m := e.GetModule(moduleID)
	if m == nil || paramID < 0 || paramID >= len(m.Params) {
		return
	}
	m.Params[paramID].SetValue(value)
	e.pendMu.Lock()
	e.pending = append(e.pending, smoothRequest{moduleID: moduleID, paramID: paramID, value: value, settled: true})
	e.pendMu.Unlock()
}

// ParamValue returns a param's settled value.
func (e *Engine) ParamValue(moduleID int64, paramID int) (float64, bool) {
	m := e.GetModule(moduleID)
	if m == nil || paramID < 0 || paramID >= len(m.Params) {
		return 0, false
	}
	return m.Params[paramID].Value(), true
}

// SetParamSmoothValue approaches value from the next block on, one frame at
// a time. Snapped params jump at the next block.
func (e *Engine) SetParamSmoothValue(moduleID int64, paramID int, value float64) {
	e.pendMu.Lock()
	e.pending = append(e.pending, smoothRequest{moduleID: moduleID, paramID: paramID, value: value})
	e.pendMu.Unlock()
}

// BypassModule enables or disables bypass. Outputs are cleared on every
// change. A module that faulted cannot be re-enabled.
func (e *Engine) BypassModule(id int64, bypass bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.byID[id]
	if s == nil {
		return graphError("bypassModule", ErrModuleNotFound, id, -1)
	}
	return e.bypass(s, bypass)
}

func (e *Engine) bypass(s *slot, bypass bool) error {
	if !bypass && s.faulted.Load() {
		return graphError("bypassModule", ErrModuleFaulted, s.m.ID, -1)
	}
	if s.m.Bypassed() == bypass {
		return nil
	}
	s.m.SetBypassed(bypass)

	channels := 1
	if bypass {
		channels = 0
		for _, l := range s.m.Lights {
			l.SetBrightness(0)
		}
	}
	for _, o := range s.m.Outputs {
		o.Clear(channels)
	}

	if b, ok := s.m.Processor().(module.Bypasser); ok {
		if bypass {
			e.callHook(s, "OnBypass", b.OnBypass)
		} else {
			e.callHook(s, "OnUnBypass", b.OnUnBypass)
		}
	}
	e.log.Debug("%v bypass=%t", s.m, bypass)
	return nil
}

// Faulted reports whether module code panicked and the module was bypassed.
func (e *Engine) Faulted(id int64) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s := e.byID[id]
	return s != nil && s.faulted.Load()
}

// ResetModule restores every param's default and calls the reset hook.
func (e *Engine) ResetModule(id int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.byID[id]
	if s == nil {
		return graphError("resetModule", ErrModuleNotFound, id, -1)
	}
	s.smoothing = s.smoothing[:0]
	e.callHook(s, "OnReset", s.m.ResetParams)
	e.syncHandles(id)
	return nil
}

// RandomizeModule randomizes every param and calls the randomize hook.
func (e *Engine) RandomizeModule(id int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.byID[id]
	if s == nil {
		return graphError("randomizeModule", ErrModuleNotFound, id, -1)
	}
	s.smoothing = s.smoothing[:0]
	e.callHook(s, "OnRandomize", s.m.RandomizeParams)
	return nil
}

// SetExpander links side of a module to neighbourID, or unlinks it when
// neighbourID is negative. The link is resolved at the next block.
func (e *Engine) SetExpander(id int64, side module.Side, neighbourID int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.byID[id]
	if s == nil {
		return graphError("setExpander", ErrModuleNotFound, id, -1)
	}
	if neighbourID == id {
		return graphError("setExpander", ErrSelfExpander, id, -1)
	}
	if neighbourID >= 0 && e.byID[neighbourID] == nil {
		return graphError("setExpander", ErrModuleNotFound, neighbourID, -1)
	}
	if neighbourID < 0 {
		neighbourID = -1
	}
	s.m.Expander(side).ModuleID = neighbourID
	return nil
}
