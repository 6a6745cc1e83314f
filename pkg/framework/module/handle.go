package module

import (
	"sync/atomic"

	"github.com/justyntemme/rackgo/pkg/framework/param"
)

// HandleTarget is the param a ParamHandle points at.
type HandleTarget struct {
	ModuleID int64
	ParamID  int
}

var unmapped = &HandleTarget{ModuleID: -1}

// ParamHandle is a mapping from an external controller to a module param.
// The engine keeps at most one handle per target and retargets handles
// under its own lock; readers see the target change atomically.
type ParamHandle struct {
	Text  string
	Color string
	// Filter smooths controller values before they reach the param.
	Filter param.Filter

	target atomic.Pointer[HandleTarget]
}

// NewParamHandle returns an unmapped handle.
func NewParamHandle() *ParamHandle {
	h := &ParamHandle{Filter: param.Filter{Lambda: param.DefaultLambda}}
	h.target.Store(unmapped)
	return h
}

// Target returns the current target. ModuleID is -1 when unmapped.
func (h *ParamHandle) Target() HandleTarget {
	t := h.target.Load()
	if t == nil {
		return *unmapped
	}
	return *t
}

// IsMapped reports whether the handle points at a module.
func (h *ParamHandle) IsMapped() bool {
	return h.Target().ModuleID >= 0
}

// SetTarget is called by the engine; use Engine.UpdateParamHandle instead.
func (h *ParamHandle) SetTarget(moduleID int64, paramID int) {
	if moduleID < 0 {
		h.target.Store(unmapped)
		return
	}
	h.target.Store(&HandleTarget{ModuleID: moduleID, ParamID: paramID})
}

// Unmap clears the target.
func (h *ParamHandle) Unmap() {
	h.target.Store(unmapped)
}
