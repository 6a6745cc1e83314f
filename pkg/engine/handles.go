package engine

import (
	"github.com/justyntemme/rackgo/pkg/framework/module"
)

// AddParamHandle registers h. If another handle already maps h's target, h
// is unmapped.
func (e *Engine) AddParamHandle(h *module.ParamHandle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.addParamHandle(h)
	e.publishHandles()
}

func (e *Engine) addParamHandle(h *module.ParamHandle) {
	if _, ok := e.handles[h]; ok {
		return
	}
	e.handles[h] = struct{}{}
	t := h.Target()
	e.retarget(h, t.ModuleID, t.ParamID, false)
}

// RemoveParamHandle unregisters and unmaps h.
func (e *Engine) RemoveParamHandle(h *module.ParamHandle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.handles[h]; !ok {
		return
	}
	delete(e.handles, h)
	h.Unmap()
	e.publishHandles()
}

// GetParamHandle returns the handle mapped to a param, or nil. It never
// blocks.
func (e *Engine) GetParamHandle(moduleID int64, paramID int) *module.ParamHandle {
	return (*e.handleView.Load())[module.HandleTarget{ModuleID: moduleID, ParamID: paramID}]
}

// UpdateParamHandle atomically retargets h. A negative moduleID unmaps it.
// When another handle already maps the target, overwrite unmaps that handle;
// otherwise h itself is left unmapped. A target that names no module or
// param unmaps h and is reported as an error.
func (e *Engine) UpdateParamHandle(h *module.ParamHandle, moduleID int64, paramID int, overwrite bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.handles[h]; !ok {
		return graphError("updateParamHandle", ErrUnknownHandle, moduleID, -1)
	}
	if moduleID >= 0 {
		var reason error
		if s := e.byID[moduleID]; s == nil {
			reason = ErrModuleNotFound
		} else if paramID < 0 || paramID >= len(s.m.Params) {
			reason = ErrParamOutOfRange
		}
		if reason != nil {
			h.Unmap()
			e.publishHandles()
			return graphError("updateParamHandle", reason, moduleID, paramID)
		}
	}
	e.retarget(h, moduleID, paramID, overwrite)
	e.publishHandles()
	return nil
}

// syncHandles re-applies the targets a handle owner set on its own handles,
// for example while restoring its data.
func (e *Engine) syncHandles(ownerID int64) {
	handles := e.handlesByOwner[ownerID]
	if len(handles) == 0 {
		return
	}
	for _, h := range handles {
		t := h.Target()
		e.retarget(h, t.ModuleID, t.ParamID, false)
	}
	e.publishHandles()
}

func (e *Engine) retarget(h *module.ParamHandle, moduleID int64, paramID int, overwrite bool) {
	if moduleID < 0 {
		h.Unmap()
		return
	}
	target := module.HandleTarget{ModuleID: moduleID, ParamID: paramID}
	for o := range e.handles {
		if o == h || o.Target() != target {
			continue
		}
		if !overwrite {
			h.Unmap()
			return
		}
		o.Unmap()
	}
	h.SetTarget(moduleID, paramID)
}

func (e *Engine) publishHandles() {
	view := make(map[module.HandleTarget]*module.ParamHandle, len(e.handles))
	for h := range e.handles {
		if t := h.Target(); t.ModuleID >= 0 {
			view[t] = h
		}
	}
	e.handleView.Store(&view)
}
