package midi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteOnEvent(t *testing.T) {
	event := NoteOnEvent{
		BaseEvent:  BaseEvent{EventChannel: 0, At: 100},
		NoteNumber: 60,
		Velocity:   64,
	}

	assert.Equal(t, EventTypeNoteOn, event.Type())
	assert.Equal(t, uint8(0), event.Channel())
	assert.Equal(t, int64(100), event.Frame())
	assert.Equal(t, "NoteOn{ch:0, note:60, vel:64, frame:100}", event.String())
}

func TestAtRestamps(t *testing.T) {
	var e Event = ControlChangeEvent{BaseEvent: BaseEvent{At: 5}, Controller: CCModWheel, Value: 10}

	moved := At(e, 42)
	assert.Equal(t, int64(42), moved.Frame())
	assert.Equal(t, int64(5), e.Frame(), "original is unchanged")
	assert.Equal(t, uint8(10), moved.(ControlChangeEvent).Value)
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		msg  []byte
		want Event
	}{
		{"note on", []byte{0x91, 60, 100}, NoteOnEvent{BaseEvent{1, 7}, 60, 100}},
		{"note on zero velocity", []byte{0x90, 60, 0}, NoteOffEvent{BaseEvent{0, 7}, 60, 0}},
		{"note off", []byte{0x80, 61, 30}, NoteOffEvent{BaseEvent{0, 7}, 61, 30}},
		{"poly pressure", []byte{0xA2, 60, 90}, PolyPressureEvent{BaseEvent{2, 7}, 60, 90}},
		{"cc", []byte{0xB0, CCSustain, 127}, ControlChangeEvent{BaseEvent{0, 7}, CCSustain, 127}},
		{"program", []byte{0xC3, 5}, ProgramChangeEvent{BaseEvent{3, 7}, 5}},
		{"channel pressure", []byte{0xD0, 77}, ChannelPressureEvent{BaseEvent{0, 7}, 77}},
		{"bend center", []byte{0xE0, 0x00, 0x40}, PitchBendEvent{BaseEvent{0, 7}, 0}},
		{"bend min", []byte{0xE0, 0x00, 0x00}, PitchBendEvent{BaseEvent{0, 7}, -8192}},
		{"bend max", []byte{0xE0, 0x7F, 0x7F}, PitchBendEvent{BaseEvent{0, 7}, 8191}},
		{"clock", []byte{0xF8}, TransportEvent{BaseEvent{0, 7}, EventTypeClock}},
		{"start", []byte{0xFA}, TransportEvent{BaseEvent{0, 7}, EventTypeStart}},
		{"stop", []byte{0xFC}, TransportEvent{BaseEvent{0, 7}, EventTypeStop}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.msg, 7)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	for _, msg := range [][]byte{nil, {0x40}, {0x90, 60}, {0xC0}, {0xF0, 1, 2}} {
		_, err := Decode(msg, 0)
		assert.Error(t, err, "% X", msg)
	}
}

func TestNoteConversions(t *testing.T) {
	assert.Equal(t, float32(0), NoteToVoltage(60))
	assert.Equal(t, float32(1), NoteToVoltage(72))
	assert.InDelta(t, -0.25, NoteToVoltage(57), 1e-6)

	assert.InDelta(t, 440.0, NoteToFrequency(69, 0), 1e-9)
	assert.InDelta(t, 261.6256, NoteToFrequency(60, 440), 1e-3)
	assert.Equal(t, uint8(69), FrequencyToNote(440, 0))
	assert.Equal(t, uint8(60), FrequencyToNote(261.63, 440))
	assert.Equal(t, uint8(0), FrequencyToNote(-1, 440))
	assert.Equal(t, uint8(127), FrequencyToNote(1e6, 440))

	assert.Equal(t, "C4", NoteNumberToName(60))
	assert.Equal(t, "A#-1", NoteNumberToName(10))
}

func TestPitchBendNormalized(t *testing.T) {
	assert.Equal(t, -1.0, PitchBendEvent{Value: -8192}.NormalizedValue())
	assert.Equal(t, 0.0, PitchBendEvent{}.NormalizedValue())
}
