package engine

import (
	"errors"
	"fmt"

	"github.com/justyntemme/rackgo/pkg/framework/state"
)

// ModuleToJSON saves one module. It waits for the current block so the
// module's data hook never runs concurrently with its Process.
func (e *Engine) ModuleToJSON(id int64) (state.ModuleJSON, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.byID[id]
	if s == nil {
		return state.ModuleJSON{}, graphError("moduleToJSON", ErrModuleNotFound, id, -1)
	}
	return state.EncodeModule(s.m)
}

// ModuleFromJSON restores params, bypass, expander links and custom data
// into an existing module. A document for another plugin or model is
// rejected without touching the module.
func (e *Engine) ModuleFromJSON(id int64, doc state.ModuleJSON) (*state.Report, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.byID[id]
	if s == nil {
		return nil, graphError("moduleFromJSON", ErrModuleNotFound, id, -1)
	}

	report := &state.Report{}
	doc.ID = id
	if err := e.decodeModule(s, doc, report); err != nil {
		return report, err
	}
	e.checkExpanders(s, report)
	if err := e.bypass(s, doc.Bypass); err != nil {
		report.Warnf(id, state.InvalidModule, "%v", err)
	}
	e.syncHandles(id)
	e.dirty.Store(true)
	e.logReport(report)
	return report, nil
}

func (e *Engine) decodeModule(s *slot, doc state.ModuleJSON, report *state.Report) (err error) {
	fault := e.callHook(s, "DataFromJSON", func() {
		err = state.DecodeModule(s.m, doc, report)
	})
	if fault != nil {
		report.Warnf(s.m.ID, state.DataError, "%v", fault)
	}
	return err
}

// checkExpanders drops links to the module itself or to modules that do not
// exist.
func (e *Engine) checkExpanders(s *slot, report *state.Report) {
	for _, side := range sides {
		x := s.m.Expander(side)
		switch {
		case x.ModuleID == s.m.ID:
			report.Warnf(s.m.ID, state.InvalidModule, "%s expander points at itself", side)
		case x.ModuleID >= 0 && e.byID[x.ModuleID] == nil:
			report.Warnf(s.m.ID, state.InvalidModule, "%s expander %d does not exist", side, x.ModuleID)
		default:
			continue
		}
		x.ModuleID = -1
	}
}

// Patch saves the whole graph.
func (e *Engine) Patch() (*state.Patch, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := &state.Patch{
		Version: state.Version,
		Modules: make([]state.ModuleJSON, 0, len(e.slots)),
		Cables:  make([]state.CableJSON, 0, len(e.cables)),
	}
	for _, s := range e.slots {
		doc, err := state.EncodeModule(s.m)
		if err != nil {
			return nil, err
		}
		p.Modules = append(p.Modules, doc)
	}
	for _, c := range e.cables {
		p.Cables = append(p.Cables, state.CableJSON{
			ID:             c.ID,
			OutputModuleID: c.OutputModuleID,
			OutputID:       c.OutputID,
			InputModuleID:  c.InputModuleID,
			InputID:        c.InputID,
			Color:          c.Color,
		})
	}
	return p, nil
}

// ToJSON saves the whole graph as an indented patch document.
func (e *Engine) ToJSON() ([]byte, error) {
	p, err := e.Patch()
	if err != nil {
		return nil, err
	}
	return p.Marshal()
}

// FromJSON replaces the graph with a patch document. Malformed JSON is an
// error and leaves the graph untouched; every other problem is collected in
// the report and the rest of the patch is loaded.
func (e *Engine) FromJSON(data []byte) (*state.Report, error) {
	p, err := state.ParsePatch(data)
	if err != nil {
		return nil, err
	}
	return e.LoadPatch(p)
}

// LoadPatch replaces the graph with p. See FromJSON.
func (e *Engine) LoadPatch(p *state.Patch) (*state.Report, error) {
	if e.registry == nil {
		return nil, errors.New("engine: no plugin registry to load modules from")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	report := &state.Report{}
	p.CheckVersion(report)
	e.clear()

	var loaded []*slot
	for _, doc := range p.Modules {
		s, err := e.loadModule(doc, report)
		if err != nil {
			report.Skip(doc.ID, state.InvalidModule, "%v", err)
			continue
		}
		if s != nil {
			loaded = append(loaded, s)
		}
	}

	for _, s := range loaded {
		e.checkExpanders(s, report)
	}

	for _, cj := range p.Cables {
		_, err := e.addCable(Cable{
			ID:             cj.ID,
			OutputModuleID: cj.OutputModuleID,
			OutputID:       cj.OutputID,
			InputModuleID:  cj.InputModuleID,
			InputID:        cj.InputID,
			Color:          cj.Color,
		})
		if err != nil {
			report.Warnf(-1, state.InvalidCable, "cable %d: %v", cj.ID, err)
		}
	}

	e.logReport(report)
	return report, nil
}

// loadModule instantiates and restores one module. It returns nil and no
// error when the module was skipped with a warning.
func (e *Engine) loadModule(doc state.ModuleJSON, report *state.Report) (*slot, error) {
	if doc.ID < 0 {
		return nil, fmt.Errorf("invalid id %d", doc.ID)
	}
	model, err := e.registry.Model(doc.Plugin, doc.Model)
	if err != nil {
		report.Skip(doc.ID, state.MissingModel, "%v", err)
		return nil, nil
	}

	m := model.Create()
	m.ID = doc.ID
	if err := e.addModule(m); err != nil {
		return nil, err
	}
	s := e.byID[m.ID]

	if err := e.decodeModule(s, doc, report); err != nil {
		e.removeModule(m.ID)
		return nil, err
	}
	if doc.Bypass {
		e.bypass(s, true)
	}
	e.syncHandles(m.ID)
	return s, nil
}

func (e *Engine) logReport(report *state.Report) {
	if err := report.Err(); err != nil {
		e.log.Warn("%v", err)
	}
}
