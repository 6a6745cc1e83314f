// Package midi holds MIDI messages stamped with the engine frame they
// apply at, and the queue that hands them from a driver to MIDI modules.
package midi

import (
	"fmt"
	"math"
)

type EventType uint8

const (
	EventTypeNoteOff EventType = iota
	EventTypeNoteOn
	EventTypePolyPressure
	EventTypeControlChange
	EventTypeProgramChange
	EventTypeChannelPressure
	EventTypePitchBend
	EventTypeClock
	EventTypeStart
	EventTypeStop
	EventTypeContinue
)

// Event is a decoded MIDI message.
type Event interface {
	Type() EventType
	Channel() uint8
	// Frame is the engine frame at which the event takes effect.
	Frame() int64
	String() string
	withFrame(frame int64) Event
}

type BaseEvent struct {
	EventChannel uint8
	At           int64
}

func (e BaseEvent) Channel() uint8 {
	return e.EventChannel
}

func (e BaseEvent) Frame() int64 {
	return e.At
}

type NoteOnEvent struct {
	BaseEvent
	NoteNumber uint8
	Velocity   uint8
}

func (e NoteOnEvent) Type() EventType {
	return EventTypeNoteOn
}

func (e NoteOnEvent) String() string {
	return fmt.Sprintf("NoteOn{ch:%d, note:%d, vel:%d, frame:%d}",
		e.EventChannel, e.NoteNumber, e.Velocity, e.At)
}

func (e NoteOnEvent) withFrame(f int64) Event {
	e.At = f
	return e
}

type NoteOffEvent struct {
	BaseEvent
	NoteNumber uint8
	Velocity   uint8
}

func (e NoteOffEvent) Type() EventType {
	return EventTypeNoteOff
}

func (e NoteOffEvent) String() string {
	return fmt.Sprintf("NoteOff{ch:%d, note:%d, vel:%d, frame:%d}",
		e.EventChannel, e.NoteNumber, e.Velocity, e.At)
}

func (e NoteOffEvent) withFrame(f int64) Event {
	e.At = f
	return e
}

type ControlChangeEvent struct {
	BaseEvent
	Controller uint8
	Value      uint8
}

func (e ControlChangeEvent) Type() EventType {
	return EventTypeControlChange
}

func (e ControlChangeEvent) String() string {
	return fmt.Sprintf("CC{ch:%d, ctrl:%d, val:%d, frame:%d}",
		e.EventChannel, e.Controller, e.Value, e.At)
}

func (e ControlChangeEvent) withFrame(f int64) Event {
	e.At = f
	return e
}

const (
	CCModWheel    uint8 = 1
	CCBreath      uint8 = 2
	CCVolume      uint8 = 7
	CCPan         uint8 = 10
	CCExpression  uint8 = 11
	CCSustain     uint8 = 64
	CCAllSoundOff uint8 = 120
	CCResetAll    uint8 = 121
	CCAllNotesOff uint8 = 123
)

type PitchBendEvent struct {
	BaseEvent
	Value int16 // -8192 to 8191, 0 is center
}

func (e PitchBendEvent) Type() EventType {
	return EventTypePitchBend
}

func (e PitchBendEvent) String() string {
	return fmt.Sprintf("PitchBend{ch:%d, val:%d, frame:%d}", e.EventChannel, e.Value, e.At)
}

func (e PitchBendEvent) withFrame(f int64) Event {
	e.At = f
	return e
}

// NormalizedValue maps the bend to [-1, 1).
func (e PitchBendEvent) NormalizedValue() float64 {
	return float64(e.Value) / 8192.0
}

type PolyPressureEvent struct {
	BaseEvent
	NoteNumber uint8
	Pressure   uint8
}

func (e PolyPressureEvent) Type() EventType {
	return EventTypePolyPressure
}

func (e PolyPressureEvent) String() string {
	return fmt.Sprintf("PolyPressure{ch:%d, note:%d, pressure:%d, frame:%d}",
		e.EventChannel, e.NoteNumber, e.Pressure, e.At)
}

func (e PolyPressureEvent) withFrame(f int64) Event {
	e.At = f
	return e
}

type ChannelPressureEvent struct {
	BaseEvent
	Pressure uint8
}

func (e ChannelPressureEvent) Type() EventType {
	return EventTypeChannelPressure
}

func (e ChannelPressureEvent) String() string {
	return fmt.Sprintf("ChannelPressure{ch:%d, pressure:%d, frame:%d}", e.EventChannel, e.Pressure, e.At)
}

func (e ChannelPressureEvent) withFrame(f int64) Event {
	e.At = f
	return e
}

type ProgramChangeEvent struct {
	BaseEvent
	Program uint8
}

func (e ProgramChangeEvent) Type() EventType {
	return EventTypeProgramChange
}

func (e ProgramChangeEvent) String() string {
	return fmt.Sprintf("ProgramChange{ch:%d, prog:%d, frame:%d}", e.EventChannel, e.Program, e.At)
}

func (e ProgramChangeEvent) withFrame(f int64) Event {
	e.At = f
	return e
}

// TransportEvent is a system real-time message: clock, start, stop or
// continue.
type TransportEvent struct {
	BaseEvent
	Kind EventType
}

func (e TransportEvent) Type() EventType {
	return e.Kind
}

func (e TransportEvent) String() string {
	names := map[EventType]string{
		EventTypeClock:    "Clock",
		EventTypeStart:    "Start",
		EventTypeStop:     "Stop",
		EventTypeContinue: "Continue",
	}
	return fmt.Sprintf("%s{frame:%d}", names[e.Kind], e.At)
}

func (e TransportEvent) withFrame(f int64) Event {
	e.At = f
	return e
}

// At returns e restamped to frame.
func At(e Event, frame int64) Event {
	return e.withFrame(frame)
}

// Decode builds an event from a raw channel or real-time message.
func Decode(msg []byte, frame int64) (Event, error) {
	if len(msg) == 0 {
		return nil, fmt.Errorf("midi: empty message")
	}
	status := msg[0]
	switch status {
	case 0xF8:
		return TransportEvent{BaseEvent{At: frame}, EventTypeClock}, nil
	case 0xFA:
		return TransportEvent{BaseEvent{At: frame}, EventTypeStart}, nil
	case 0xFB:
		return TransportEvent{BaseEvent{At: frame}, EventTypeContinue}, nil
	case 0xFC:
		return TransportEvent{BaseEvent{At: frame}, EventTypeStop}, nil
	}
	if status < 0x80 || status >= 0xF0 {
		return nil, fmt.Errorf("midi: unsupported status 0x%02X", status)
	}

	base := BaseEvent{EventChannel: status & 0x0F, At: frame}
	kind := status & 0xF0
	need := 3
	if kind == 0xC0 || kind == 0xD0 {
		need = 2
	}
	if len(msg) < need {
		return nil, fmt.Errorf("midi: short message 0x%02X (%d bytes)", status, len(msg))
	}

	d1 := msg[1] & 0x7F
	var d2 uint8
	if need == 3 {
		d2 = msg[2] & 0x7F
	}
	switch kind {
	case 0x80:
		return NoteOffEvent{base, d1, d2}, nil
	case 0x90:
		if d2 == 0 {
			return NoteOffEvent{base, d1, 0}, nil
		}
		return NoteOnEvent{base, d1, d2}, nil
	case 0xA0:
		return PolyPressureEvent{base, d1, d2}, nil
	case 0xB0:
		return ControlChangeEvent{base, d1, d2}, nil
	case 0xC0:
		return ProgramChangeEvent{base, d1}, nil
	case 0xD0:
		return ChannelPressureEvent{base, d1}, nil
	default: // 0xE0
		return PitchBendEvent{base, int16(int(d2)<<7|int(d1)) - 8192}, nil
	}
}

// NoteToVoltage converts a note number to 1 V/oct, with C4 (60) at 0 V.
func NoteToVoltage(note uint8) float32 {
	return float32(int(note)-60) / 12
}

// NoteToFrequency returns the equal-tempered frequency of note.
func NoteToFrequency(note uint8, tuningA4 float64) float64 {
	if tuningA4 == 0 {
		tuningA4 = 440.0
	}
	return tuningA4 * math.Exp2((float64(note)-69.0)/12.0)
}

// FrequencyToNote returns the nearest note number, clamped to 0..127.
func FrequencyToNote(freq, tuningA4 float64) uint8 {
	if tuningA4 == 0 {
		tuningA4 = 440.0
	}
	if freq <= 0 {
		return 0
	}
	note := 69.0 + 12.0*math.Log2(freq/tuningA4)
	if note < 0 {
		return 0
	}
	if note > 127 {
		return 127
	}
	return uint8(note + 0.5)
}

func NoteNumberToName(note uint8) string {
	noteNames := []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
	octave := int(note/12) - 1
	return fmt.Sprintf("%s%d", noteNames[note%12], octave)
}
