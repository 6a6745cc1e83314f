// Package voice assigns MIDI notes to polyphonic cable channels.
package voice

import (
	"github.com/justyntemme/rackgo/pkg/framework/port"
	"github.com/justyntemme/rackgo/pkg/midi"
)

// AllocationMode defines how notes are assigned to channels
type AllocationMode int

const (
	// ModeRotate assigns each new note to the next free channel after the last one used
	ModeRotate AllocationMode = iota
	// ModeReuse prefers the channel that last played the same note
	ModeReuse
	// ModeReset always picks the lowest free channel
	ModeReset
	// ModeMono plays one note on channel 0, last note priority
	ModeMono
	// ModeLegato is mono without retriggering on overlapping notes
	ModeLegato
	// ModeUnison plays the same note on every channel
	ModeUnison
)

// StealingMode defines which channel is taken when all are in use
type StealingMode int

const (
	// StealOldest steals the channel holding the oldest note
	StealOldest StealingMode = iota
	// StealHighest steals the highest note
	StealHighest
	// StealLowest steals the lowest note
	StealLowest
	// StealNone ignores new notes when full
	StealNone
)

// Channel is the state of one output channel.
type Channel struct {
	Note     uint8
	Velocity uint8
	// Gate is high while the key, or the sustain pedal, holds the note.
	Gate bool
	// Retrigger is set when a note starts on an already high gate; the
	// consumer clears it with TakeRetrigger.
	Retrigger bool

	age       uint64
	sustained bool
	used      bool
}

// Allocator manages up to port.MaxChannels note channels.
type Allocator struct {
	channels     [port.MaxChannels]Channel
	count        int
	mode         AllocationMode
	stealingMode StealingMode
	rotate       int
	serial       uint64
	sustainPedal bool
	held         []uint8 // mono note stack, most recent last
}

// NewAllocator creates an allocator with n channels.
func NewAllocator(n int) *Allocator {
	a := &Allocator{held: make([]uint8, 0, 128)}
	a.SetChannels(n)
	return a
}

// SetChannels sets the polyphony, clamped to 1..port.MaxChannels, and
// resets all notes.
func (a *Allocator) SetChannels(n int) {
	a.count = max(1, min(n, port.MaxChannels))
	a.Reset()
}

// Channels returns the number of channels a consumer should output; 1 in
// the mono modes.
func (a *Allocator) Channels() int {
	if a.mode == ModeMono || a.mode == ModeLegato {
		return 1
	}
	return a.count
}

// SetMode sets the allocation mode and resets all notes.
func (a *Allocator) SetMode(mode AllocationMode) {
	a.mode = mode
	a.Reset()
}

// Mode returns the allocation mode.
func (a *Allocator) Mode() AllocationMode {
	return a.mode
}

// SetStealingMode sets the channel stealing mode
func (a *Allocator) SetStealingMode(mode StealingMode) {
	a.stealingMode = mode
}

// Channel returns channel c.
func (a *Allocator) Channel(c int) *Channel {
	return &a.channels[c]
}

// TakeRetrigger reports and clears the retrigger flag of channel c.
func (a *Allocator) TakeRetrigger(c int) bool {
	r := a.channels[c].Retrigger
	a.channels[c].Retrigger = false
	return r
}

// ProcessEvent handles a MIDI event
func (a *Allocator) ProcessEvent(event midi.Event) {
	switch e := event.(type) {
	case midi.NoteOnEvent:
		if e.Velocity > 0 {
			a.NoteOn(e.NoteNumber, e.Velocity)
		} else {
			a.NoteOff(e.NoteNumber)
		}
	case midi.NoteOffEvent:
		a.NoteOff(e.NoteNumber)
	case midi.ControlChangeEvent:
		switch e.Controller {
		case midi.CCSustain:
			a.SetSustainPedal(e.Value >= 64)
		case midi.CCAllNotesOff, midi.CCAllSoundOff:
			a.Reset()
		}
	}
}

// NoteOn handles a note on event
func (a *Allocator) NoteOn(note, velocity uint8) {
	switch a.mode {
	case ModeMono, ModeLegato:
		a.noteOnMono(note, velocity)
	case ModeUnison:
		for c := 0; c < a.count; c++ {
			a.trigger(c, note, velocity)
		}
	default:
		c := a.findChannel(note)
		if c < 0 {
			return
		}
		a.trigger(c, note, velocity)
	}
}

// NoteOff handles a note off event
func (a *Allocator) NoteOff(note uint8) {
	if a.mode == ModeMono || a.mode == ModeLegato {
		a.noteOffMono(note)
		return
	}
	for c := 0; c < a.count; c++ {
		ch := &a.channels[c]
		if !ch.Gate || ch.Note != note || ch.sustained {
			continue
		}
		if a.sustainPedal {
			ch.sustained = true
			continue
		}
		ch.Gate = false
	}
}

// SetSustainPedal sets the sustain pedal state. Releasing it closes every
// gate whose key is already up.
func (a *Allocator) SetSustainPedal(on bool) {
	a.sustainPedal = on
	if on {
		return
	}
	for c := range a.channels {
		if a.channels[c].sustained {
			a.channels[c].sustained = false
			a.channels[c].Gate = false
		}
	}
}

// Reset closes every gate and forgets held notes.
func (a *Allocator) Reset() {
	for c := range a.channels {
		a.channels[c] = Channel{Note: 60}
	}
	a.held = a.held[:0]
	a.sustainPedal = false
	a.rotate = a.count - 1
}

// ActiveCount returns the number of open gates.
func (a *Allocator) ActiveCount() int {
	n := 0
	for c := 0; c < a.count; c++ {
		if a.channels[c].Gate {
			n++
		}
	}
	return n
}

func (a *Allocator) trigger(c int, note, velocity uint8) {
	ch := &a.channels[c]
	if ch.Gate {
		ch.Retrigger = true
	}
	a.serial++
	ch.Note = note
	ch.Velocity = velocity
	ch.Gate = true
	ch.sustained = false
	ch.used = true
	ch.age = a.serial
}

func (a *Allocator) findChannel(note uint8) int {
	// a held note retriggers its own channel
	for c := 0; c < a.count; c++ {
		if a.channels[c].Gate && a.channels[c].Note == note {
			return c
		}
	}

	switch a.mode {
	case ModeReuse:
		for c := 0; c < a.count; c++ {
			if !a.channels[c].Gate && a.channels[c].used && a.channels[c].Note == note {
				return c
			}
		}
		fallthrough
	case ModeRotate:
		for i := 1; i <= a.count; i++ {
			c := (a.rotate + i) % a.count
			if !a.channels[c].Gate {
				a.rotate = c
				return c
			}
		}
	case ModeReset:
		for c := 0; c < a.count; c++ {
			if !a.channels[c].Gate {
				return c
			}
		}
	}
	return a.steal()
}

func (a *Allocator) steal() int {
	if a.stealingMode == StealNone {
		return -1
	}
	best := -1
	for c := 0; c < a.count; c++ {
		ch := &a.channels[c]
		if best < 0 {
			best = c
			continue
		}
		b := &a.channels[best]
		switch a.stealingMode {
		case StealOldest:
			if ch.age < b.age {
				best = c
			}
		case StealHighest:
			if ch.Note > b.Note {
				best = c
			}
		case StealLowest:
			if ch.Note < b.Note {
				best = c
			}
		}
	}
	return best
}

func (a *Allocator) noteOnMono(note, velocity uint8) {
	a.removeHeld(note)
	a.held = append(a.held, note)

	ch := &a.channels[0]
	if a.mode == ModeLegato && ch.Gate {
		ch.Note = note
		ch.sustained = false
		return
	}
	a.trigger(0, note, velocity)
}

func (a *Allocator) noteOffMono(note uint8) {
	wasCurrent := len(a.held) > 0 && a.held[len(a.held)-1] == note
	a.removeHeld(note)
	if !wasCurrent {
		return
	}

	ch := &a.channels[0]
	if len(a.held) > 0 {
		// fall back to the previous held note without retriggering
		ch.Note = a.held[len(a.held)-1]
		return
	}
	if a.sustainPedal {
		ch.sustained = true
		return
	}
	ch.Gate = false
}

func (a *Allocator) removeHeld(note uint8) {
	for i, n := range a.held {
		if n == note {
			a.held = append(a.held[:i], a.held[i+1:]...)
			return
		}
	}
}
