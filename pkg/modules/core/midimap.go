package core

import (
	"encoding/json"
	"fmt"

	"github.com/justyntemme/rackgo/pkg/framework/module"
	"github.com/justyntemme/rackgo/pkg/framework/process"
	"github.com/justyntemme/rackgo/pkg/midi"
)

// MIDIMapSlots is the number of CC mappings per module.
const MIDIMapSlots = 8

// handleColor marks params mapped by a MIDI-Map.
const handleColor = "#ffcd00"

// MIDIMap drives params of other modules from MIDI CC messages. Each slot
// pairs a controller number with a ParamHandle; the engine keeps the handle
// pointing at its target.
type MIDIMap struct {
	m     *module.Module
	host  module.Host
	queue *midi.EventQueue

	handles [MIDIMapSlots]*module.ParamHandle
	ccs     [MIDIMapSlots]int     // -1 when the slot has no controller
	values  [MIDIMapSlots]int     // last CC value, -1 before the first message
	written [MIDIMapSlots]float64 // last normalized value set on the param

	// learning is the slot the next CC is assigned to, or -1.
	learning int
	// Smooth filters values through each handle's filter.
	Smooth bool
}

// MIDIMapModel builds MIDI-Map modules.
var MIDIMapModel = &module.Model{
	Slug:        "MIDIMap",
	Name:        "MIDI-Map",
	Description: "Maps MIDI CC messages to module parameters",
	Tags:        []string{"external", "midi"},
	New:         newMIDIMap,
}

func newMIDIMap(m *module.Module) module.Processor {
	mm := &MIDIMap{m: m, queue: midi.NewEventQueue(), learning: -1, Smooth: true}
	for i := range mm.handles {
		h := module.NewParamHandle()
		h.Color = handleColor
		h.Text = fmt.Sprintf("MIDI-Map %d", i+1)
		mm.handles[i] = h
		mm.ccs[i] = -1
		mm.values[i] = -1
		mm.written[i] = -1
	}
	return mm
}

// OnAdd implements module.Adder.
func (mm *MIDIMap) OnAdd(host module.Host) {
	mm.host = host
}

// ParamHandles implements module.HandleOwner.
func (mm *MIDIMap) ParamHandles() []*module.ParamHandle {
	return mm.handles[:]
}

// Handle returns the handle of slot i.
func (mm *MIDIMap) Handle(i int) *module.ParamHandle {
	return mm.handles[i]
}

// Push queues an event. Safe to call from any goroutine.
func (mm *MIDIMap) Push(e midi.Event) {
	mm.queue.Push(e)
}

// Learn assigns the next incoming controller to slot i. Call it while the
// module is not processing.
func (mm *MIDIMap) Learn(i int) {
	mm.learning = i
}

// SetCC assigns controller cc (0..127, or -1 to clear) to slot i.
func (mm *MIDIMap) SetCC(i, cc int) {
	mm.ccs[i] = cc
	mm.values[i] = -1
	mm.written[i] = -1
	mm.handles[i].Filter.Reset()
}

// CC returns the controller of slot i, or -1.
func (mm *MIDIMap) CC(i int) int {
	return mm.ccs[i]
}

func (mm *MIDIMap) handle(e midi.Event) {
	cc, ok := e.(midi.ControlChangeEvent)
	if !ok {
		return
	}
	if mm.learning >= 0 {
		// a controller maps to one slot only
		for i := range mm.ccs {
			if mm.ccs[i] == int(cc.Controller) {
				mm.SetCC(i, -1)
			}
		}
		mm.SetCC(mm.learning, int(cc.Controller))
		mm.learning = -1
	}
	for i, c := range mm.ccs {
		if c == int(cc.Controller) {
			mm.values[i] = int(cc.Value)
		}
	}
}

// Process implements module.Processor.
func (mm *MIDIMap) Process(args process.Args) {
	mm.queue.PopUntil(args.Frame, mm.handle)
	if mm.host == nil {
		return
	}

	for i, h := range mm.handles {
		if mm.values[i] < 0 || !h.IsMapped() {
			continue
		}
		target := h.Target()
		m := mm.host.Module(target.ModuleID)
		if m == nil || target.ParamID < 0 || target.ParamID >= len(m.Params) || !m.Params[target.ParamID].IsBounded() {
			continue
		}
		v := float64(mm.values[i]) / 127
		if mm.Smooth {
			v = h.Filter.Process(args.SampleTime, v)
		}
		if v == mm.written[i] {
			continue
		}
		// through the host so a pending smooth write cannot undo it
		mm.host.SetParamValue(target.ModuleID, target.ParamID, m.Params[target.ParamID].Denormalize(v))
		mm.written[i] = v
	}
}

// OnReset clears every mapping.
func (mm *MIDIMap) OnReset() {
	mm.queue.Clear()
	mm.learning = -1
	for i, h := range mm.handles {
		mm.SetCC(i, -1)
		h.Unmap()
	}
}

type midiMapJSON struct {
	CC       int   `json:"cc"`
	ModuleID int64 `json:"moduleId"`
	ParamID  int   `json:"paramId"`
}

type midiMapData struct {
	Maps   []midiMapJSON `json:"maps"`
	Smooth bool          `json:"smooth"`
}

// DataToJSON implements module.DataSerializer. Only slots with a controller
// or a target are saved.
func (mm *MIDIMap) DataToJSON() (json.RawMessage, error) {
	d := midiMapData{Maps: []midiMapJSON{}, Smooth: mm.Smooth}
	for i, h := range mm.handles {
		t := h.Target()
		if mm.ccs[i] < 0 && t.ModuleID < 0 {
			continue
		}
		d.Maps = append(d.Maps, midiMapJSON{CC: mm.ccs[i], ModuleID: t.ModuleID, ParamID: t.ParamID})
	}
	return json.Marshal(d)
}

// DataFromJSON implements module.DataSerializer. Targets are set on the
// handles directly; the engine resolves conflicts with other handles once
// this returns.
func (mm *MIDIMap) DataFromJSON(data json.RawMessage) error {
	var d midiMapData
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	if len(d.Maps) > MIDIMapSlots {
		return fmt.Errorf("midi-map: %d maps, at most %d", len(d.Maps), MIDIMapSlots)
	}
	mm.Smooth = d.Smooth
	for i, h := range mm.handles {
		if i >= len(d.Maps) {
			mm.SetCC(i, -1)
			h.Unmap()
			continue
		}
		mm.SetCC(i, d.Maps[i].CC)
		h.SetTarget(d.Maps[i].ModuleID, d.Maps[i].ParamID)
	}
	return nil
}
