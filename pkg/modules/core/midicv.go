package core

import (
	"encoding/json"
	"fmt"

	"github.com/justyntemme/rackgo/pkg/dsp"
	"github.com/justyntemme/rackgo/pkg/framework/module"
	"github.com/justyntemme/rackgo/pkg/framework/port"
	"github.com/justyntemme/rackgo/pkg/framework/process"
	"github.com/justyntemme/rackgo/pkg/framework/voice"
	"github.com/justyntemme/rackgo/pkg/midi"
)

const (
	// MIDI-CV outputs
	MIDICVOutputVOct = iota
	MIDICVOutputGate
	MIDICVOutputVelocity
	MIDICVOutputAftertouch
	MIDICVOutputPitchWheel
	MIDICVOutputModWheel
	MIDICVOutputRetrigger
	midiCVNumOutputs
)

// retriggerTime is the length of a retrigger pulse in seconds.
const retriggerTime = 1e-3

// MIDICV converts MIDI notes into polyphonic pitch, gate and velocity
// voltages. Drivers push events stamped with the engine frame they apply at;
// events are consumed in frame order.
type MIDICV struct {
	m     *module.Module
	queue *midi.EventQueue
	alloc *voice.Allocator

	// Channel filters incoming events; -1 accepts every MIDI channel.
	channel    int
	bendRange  float32 // semitones
	bend       float32 // -1..1
	mod        float32 // 0..1
	pressure   float32 // 0..1
	polyPress  [port.MaxChannels]float32
	retrigLeft [port.MaxChannels]float64
}

// MIDICVModel builds MIDI-CV modules.
var MIDICVModel = &module.Model{
	Slug:        "MIDICV",
	Name:        "MIDI-CV",
	Description: "Converts MIDI notes into voltages",
	Tags:        []string{"external", "midi", "polyphonic"},
	New:         newMIDICV,
}

func newMIDICV(m *module.Module) module.Processor {
	m.Config(0, 0, midiCVNumOutputs, 0)
	m.ConfigOutput(MIDICVOutputVOct, "1V/octave pitch")
	m.ConfigOutput(MIDICVOutputGate, "Gate")
	m.ConfigOutput(MIDICVOutputVelocity, "Velocity")
	m.ConfigOutput(MIDICVOutputAftertouch, "Aftertouch")
	m.ConfigOutput(MIDICVOutputPitchWheel, "Pitch wheel")
	m.ConfigOutput(MIDICVOutputModWheel, "Mod wheel")
	m.ConfigOutput(MIDICVOutputRetrigger, "Retrigger")
	return &MIDICV{
		m:         m,
		queue:     midi.NewEventQueue(),
		alloc:     voice.NewAllocator(1),
		channel:   -1,
		bendRange: 2,
	}
}

// Push queues an event. Safe to call from any goroutine.
func (v *MIDICV) Push(e midi.Event) {
	v.queue.Push(e)
}

// Queue returns the event queue drivers write to.
func (v *MIDICV) Queue() *midi.EventQueue {
	return v.queue
}

// Allocator returns the voice allocator. Change its settings only while the
// module is not processing.
func (v *MIDICV) Allocator() *voice.Allocator {
	return v.alloc
}

func (v *MIDICV) handle(e midi.Event) {
	if v.channel >= 0 && int(e.Channel()) != v.channel {
		return
	}
	switch e := e.(type) {
	case midi.PitchBendEvent:
		v.bend = float32(e.NormalizedValue())
	case midi.ChannelPressureEvent:
		v.pressure = float32(e.Pressure) / 127
	case midi.PolyPressureEvent:
		for c := 0; c < v.alloc.Channels(); c++ {
			if v.alloc.Channel(c).Note == e.NoteNumber {
				v.polyPress[c] = float32(e.Pressure) / 127
			}
		}
	case midi.ControlChangeEvent:
		if e.Controller == midi.CCModWheel {
			v.mod = float32(e.Value) / 127
		}
		v.alloc.ProcessEvent(e)
	default:
		v.alloc.ProcessEvent(e)
	}
}

// Process implements module.Processor.
func (v *MIDICV) Process(args process.Args) {
	v.queue.PopUntil(args.Frame, v.handle)

	channels := v.alloc.Channels()
	bend := v.bend * v.bendRange / 12
	out := v.m.Outputs
	for c := 0; c < channels; c++ {
		ch := v.alloc.Channel(c)
		if v.alloc.TakeRetrigger(c) {
			v.retrigLeft[c] = retriggerTime
		}

		gate := float32(0)
		if ch.Gate {
			gate = dsp.GateVoltage
		}
		retrig := float32(0)
		if v.retrigLeft[c] > 0 {
			v.retrigLeft[c] -= args.SampleTime
			retrig = dsp.GateVoltage
		}
		out[MIDICVOutputVOct].SetVoltage(midi.NoteToVoltage(ch.Note)+bend, c)
		out[MIDICVOutputGate].SetVoltage(gate, c)
		out[MIDICVOutputVelocity].SetVoltage(float32(ch.Velocity)/127*dsp.GateVoltage, c)
		out[MIDICVOutputAftertouch].SetVoltage(max(v.pressure, v.polyPress[c])*dsp.GateVoltage, c)
		out[MIDICVOutputRetrigger].SetVoltage(retrig, c)
	}
	for _, id := range []int{MIDICVOutputVOct, MIDICVOutputGate, MIDICVOutputVelocity, MIDICVOutputAftertouch, MIDICVOutputRetrigger} {
		out[id].SetChannels(channels)
	}
	out[MIDICVOutputPitchWheel].SetVoltage(v.bend*dsp.CVVoltage, 0)
	out[MIDICVOutputModWheel].SetVoltage(v.mod*dsp.GateVoltage, 0)
}

// OnReset releases every note and centres the controllers.
func (v *MIDICV) OnReset() {
	v.queue.Clear()
	v.alloc.Reset()
	v.bend, v.mod, v.pressure = 0, 0, 0
	clear(v.polyPress[:])
	clear(v.retrigLeft[:])
}

type midiCVData struct {
	Channels       int     `json:"channels"`
	PolyMode       int     `json:"polyMode"`
	MIDIChannel    int     `json:"midiChannel"`
	PitchBendRange float32 `json:"pitchBendRange"`
}

// DataToJSON implements module.DataSerializer.
func (v *MIDICV) DataToJSON() (json.RawMessage, error) {
	return json.Marshal(midiCVData{
		Channels:       v.alloc.Channels(),
		PolyMode:       int(v.alloc.Mode()),
		MIDIChannel:    v.channel,
		PitchBendRange: v.bendRange,
	})
}

// DataFromJSON implements module.DataSerializer.
func (v *MIDICV) DataFromJSON(data json.RawMessage) error {
	d := midiCVData{Channels: 1, MIDIChannel: -1, PitchBendRange: 2}
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	if d.PolyMode < int(voice.ModeRotate) || d.PolyMode > int(voice.ModeUnison) {
		return fmt.Errorf("midi-cv: unknown poly mode %d", d.PolyMode)
	}
	if d.MIDIChannel < -1 || d.MIDIChannel > 15 {
		return fmt.Errorf("midi-cv: midi channel %d out of range", d.MIDIChannel)
	}
	v.alloc.SetMode(voice.AllocationMode(d.PolyMode))
	v.alloc.SetChannels(d.Channels)
	v.channel = d.MIDIChannel
	v.bendRange = d.PitchBendRange
	return nil
}

// SetChannels sets the polyphony; see voice.Allocator.SetChannels.
func (v *MIDICV) SetChannels(n int) {
	v.alloc.SetChannels(n)
}
