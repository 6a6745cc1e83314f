// Package state saves and restores modules and patches as JSON.
package state

import (
	"encoding/json"
	"fmt"

	"github.com/justyntemme/rackgo/pkg/framework/module"
)

// ParamJSON is one saved param value.
type ParamJSON struct {
	ID    int     `json:"id"`
	Value float64 `json:"value"`
}

// ModuleJSON is the saved state of one module.
type ModuleJSON struct {
	ID            int64           `json:"id"`
	Plugin        string          `json:"plugin"`
	Version       string          `json:"version,omitempty"`
	Model         string          `json:"model"`
	Params        []ParamJSON     `json:"params"`
	Bypass        bool            `json:"bypass,omitempty"`
	LeftModuleID  *int64          `json:"leftModuleId,omitempty"`
	RightModuleID *int64          `json:"rightModuleId,omitempty"`
	Data          json.RawMessage `json:"data,omitempty"`
}

// EncodeModule saves m. Only bounded params are written; unbounded params
// hold runtime state that is not part of a patch.
func EncodeModule(m *module.Module) (ModuleJSON, error) {
	doc := ModuleJSON{ID: m.ID, Params: []ParamJSON{}, Bypass: m.Bypassed()}
	if m.Model != nil {
		doc.Plugin = m.Model.Plugin
		doc.Version = m.Model.Version
		doc.Model = m.Model.Slug
	}
	for _, p := range m.Params {
		if !p.IsBounded() {
			continue
		}
		doc.Params = append(doc.Params, ParamJSON{ID: p.ID, Value: p.Value()})
	}
	if id := m.LeftExpander.ModuleID; id >= 0 {
		doc.LeftModuleID = &id
	}
	if id := m.RightExpander.ModuleID; id >= 0 {
		doc.RightModuleID = &id
	}
	if ds, ok := m.Processor().(module.DataSerializer); ok {
		data, err := ds.DataToJSON()
		if err != nil {
			return doc, fmt.Errorf("module %d: data: %w", m.ID, err)
		}
		doc.Data = data
	}
	return doc, nil
}

// DecodeModule restores params, expander links and custom data into m.
// Bypass is left to the caller because toggling it runs engine hooks.
//
// A document naming a different plugin or model is rejected so its values
// are never applied to the wrong module. Problems that still allow loading
// are added to report, which may be nil.
func DecodeModule(m *module.Module, doc ModuleJSON, report *Report) error {
	if m.Model != nil && (doc.Plugin != m.Model.Plugin || doc.Model != m.Model.Slug) {
		return fmt.Errorf("%w: document is %s/%s, module is %s/%s",
			ErrIdentityMismatch, doc.Plugin, doc.Model, m.Model.Plugin, m.Model.Slug)
	}
	if m.Model != nil && doc.Version != "" && doc.Version != m.Model.Version {
		report.Warnf(doc.ID, VersionSkew, "%s/%s saved with version %s, running %s",
			doc.Plugin, doc.Model, doc.Version, m.Model.Version)
	}

	for _, pj := range doc.Params {
		if pj.ID < 0 || pj.ID >= len(m.Params) {
			report.Warnf(doc.ID, InvalidParam, "param %d does not exist", pj.ID)
			continue
		}
		p := m.Params[pj.ID]
		if !p.IsBounded() {
			continue
		}
		p.SetValue(pj.Value)
	}

	m.LeftExpander.ModuleID = -1
	if doc.LeftModuleID != nil {
		m.LeftExpander.ModuleID = *doc.LeftModuleID
	}
	m.RightExpander.ModuleID = -1
	if doc.RightModuleID != nil {
		m.RightExpander.ModuleID = *doc.RightModuleID
	}

	if len(doc.Data) > 0 {
		if ds, ok := m.Processor().(module.DataSerializer); ok {
			if err := ds.DataFromJSON(doc.Data); err != nil {
				report.Warnf(doc.ID, DataError, "data: %v", err)
			}
		}
	}
	return nil
}
