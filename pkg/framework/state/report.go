package state

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrIdentityMismatch = errors.New("plugin or model mismatch")
)

// WarningKind classifies a load problem.
type WarningKind int

const (
	MissingModel WarningKind = iota
	IdentityMismatch
	VersionSkew
	InvalidParam
	InvalidCable
	InvalidModule
	DataError
)

func (k WarningKind) String() string {
	switch k {
	case MissingModel:
		return "missing model"
	case IdentityMismatch:
		return "identity mismatch"
	case VersionSkew:
		return "version skew"
	case InvalidParam:
		return "invalid param"
	case InvalidCable:
		return "invalid cable"
	case InvalidModule:
		return "invalid module"
	case DataError:
		return "data error"
	default:
		return "unknown"
	}
}

// Warning is a problem that did not stop a load.
type Warning struct {
	ModuleID int64 // -1 when not tied to a module
	Kind     WarningKind
	Message  string
}

func (w Warning) String() string {
	if w.ModuleID < 0 {
		return fmt.Sprintf("%s: %s", w.Kind, w.Message)
	}
	return fmt.Sprintf("module %d: %s: %s", w.ModuleID, w.Kind, w.Message)
}

// Report collects warnings during a load so they can be shown once at the
// end. A nil *Report discards warnings.
type Report struct {
	Warnings []Warning
	Skipped  []int64 // module ids that were not loaded
}

// Warnf records a warning.
func (r *Report) Warnf(moduleID int64, kind WarningKind, format string, args ...any) {
	if r == nil {
		return
	}
	r.Warnings = append(r.Warnings, Warning{ModuleID: moduleID, Kind: kind, Message: fmt.Sprintf(format, args...)})
}

// Skip records a module that was not loaded.
func (r *Report) Skip(moduleID int64, kind WarningKind, format string, args ...any) {
	if r == nil {
		return
	}
	r.Skipped = append(r.Skipped, moduleID)
	r.Warnf(moduleID, kind, format, args...)
}

// Empty reports whether nothing went wrong.
func (r *Report) Empty() bool {
	return r == nil || len(r.Warnings) == 0
}

// Has reports whether any warning is of kind.
func (r *Report) Has(kind WarningKind) bool {
	if r == nil {
		return false
	}
	for _, w := range r.Warnings {
		if w.Kind == kind {
			return true
		}
	}
	return false
}

// String renders every warning on its own line.
func (r *Report) String() string {
	if r.Empty() {
		return ""
	}
	lines := make([]string, len(r.Warnings))
	for i, w := range r.Warnings {
		lines[i] = w.String()
	}
	return strings.Join(lines, "\n")
}

// Err returns a single error describing every warning, or nil.
func (r *Report) Err() error {
	if r.Empty() {
		return nil
	}
	return &LoadError{Warnings: r.Warnings}
}

// LoadError is the aggregated form of a Report.
type LoadError struct {
	Warnings []Warning
}

func (e *LoadError) Error() string {
	parts := make([]string, len(e.Warnings))
	for i, w := range e.Warnings {
		parts[i] = w.String()
	}
	noun := "warnings"
	if len(parts) == 1 {
		noun = "warning"
	}
	return fmt.Sprintf("patch loaded with %d %s: %s", len(parts), noun, strings.Join(parts, "; "))
}
