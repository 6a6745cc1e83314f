package engine

import (
	"errors"
	"fmt"
)

var (
	ErrModuleNotFound  = errors.New("module not found")
	ErrPortOutOfRange  = errors.New("port out of range")
	ErrParamOutOfRange = errors.New("param out of range")
	ErrDuplicateID     = errors.New("duplicate id")
	ErrDuplicateCable  = errors.New("duplicate cable")
	ErrSelfExpander    = errors.New("module cannot be its own expander")
	ErrUnknownHandle   = errors.New("param handle not registered")
	ErrModuleFaulted   = errors.New("module faulted")
	ErrClosed          = errors.New("engine closed")
)

// InvalidGraphError rejects a mutation that would corrupt the graph. The
// graph is unchanged when it is returned.
type InvalidGraphError struct {
	Op       string
	Reason   error
	ModuleID int64
	PortID   int // -1 when no port is involved
}

func (e *InvalidGraphError) Error() string {
	if e.PortID < 0 {
		return fmt.Sprintf("engine: %s: module %d: %v", e.Op, e.ModuleID, e.Reason)
	}
	return fmt.Sprintf("engine: %s: module %d port %d: %v", e.Op, e.ModuleID, e.PortID, e.Reason)
}

func (e *InvalidGraphError) Unwrap() error {
	return e.Reason
}

func graphError(op string, reason error, moduleID int64, portID int) error {
	return &InvalidGraphError{Op: op, Reason: reason, ModuleID: moduleID, PortID: portID}
}

// PluginFault records a panic raised by module code. The module is bypassed
// for the rest of the session.
type PluginFault struct {
	ModuleID int64
	Model    string
	Hook     string
	Value    any
	Stack    []byte
}

func (f *PluginFault) Error() string {
	return fmt.Sprintf("engine: module %d (%s) panicked in %s and was bypassed: %v", f.ModuleID, f.Model, f.Hook, f.Value)
}
