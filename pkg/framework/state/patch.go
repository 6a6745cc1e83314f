package state

import (
	"encoding/json"
	"fmt"
	"io"
)

// Version is written into every patch document.
const Version = "0.1.0"

// CableJSON is one saved cable.
type CableJSON struct {
	ID             int64  `json:"id"`
	OutputModuleID int64  `json:"outputModuleId"`
	OutputID       int    `json:"outputId"`
	InputModuleID  int64  `json:"inputModuleId"`
	InputID        int    `json:"inputId"`
	Color          string `json:"color,omitempty"`
}

// Patch is a whole saved graph. Modules and cables are listed in insertion
// order.
type Patch struct {
	Version string       `json:"version"`
	Modules []ModuleJSON `json:"modules"`
	Cables  []CableJSON  `json:"cables"`
}

// ReadPatch decodes a patch document.
func ReadPatch(r io.Reader) (*Patch, error) {
	var p Patch
	dec := json.NewDecoder(r)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decode patch: %w", err)
	}
	return &p, nil
}

// ParsePatch decodes a patch document from data.
func ParsePatch(data []byte) (*Patch, error) {
	var p Patch
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode patch: %w", err)
	}
	return &p, nil
}

// Write encodes the patch with two-space indentation.
func (p *Patch) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}

// Marshal is Write into a byte slice.
func (p *Patch) Marshal() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// CheckVersion warns when the patch was written by another version.
func (p *Patch) CheckVersion(report *Report) {
	if p.Version != "" && p.Version != Version {
		report.Warnf(-1, VersionSkew, "patch saved with version %s, running %s", p.Version, Version)
	}
}
