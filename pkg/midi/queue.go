package midi

import (
	"slices"
	"sync"
)

// EventQueue hands events from a driver goroutine to the module that reads
// them on the audio thread. Events are delivered in frame order; events with
// equal frames keep their push order.
type EventQueue struct {
	mu     sync.Mutex
	events []Event
	sorted bool
}

func NewEventQueue() *EventQueue {
	return &EventQueue{
		events: make([]Event, 0, 128),
		sorted: true,
	}
}

// Push adds an event.
func (q *EventQueue) Push(event Event) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if n := len(q.events); n > 0 && q.events[n-1].Frame() > event.Frame() {
		q.sorted = false
	}
	q.events = append(q.events, event)
}

// PushAll adds several events.
func (q *EventQueue) PushAll(events []Event) {
	for _, e := range events {
		q.Push(e)
	}
}

// PopUntil removes every event due at or before frame and passes each to
// fn in order. fn runs with the queue locked and must not push.
func (q *EventQueue) PopUntil(frame int64, fn func(Event)) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return 0
	}
	q.sort()

	n := 0
	for n < len(q.events) && q.events[n].Frame() <= frame {
		fn(q.events[n])
		n++
	}
	if n > 0 {
		rest := copy(q.events, q.events[n:])
		clear(q.events[rest:])
		q.events = q.events[:rest]
	}
	return n
}

// Peek returns a copy of the pending events in delivery order.
func (q *EventQueue) Peek() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.sort()
	return slices.Clone(q.events)
}

// Clear drops every pending event.
func (q *EventQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	clear(q.events)
	q.events = q.events[:0]
	q.sorted = true
}

// Shift moves every pending event by delta frames.
func (q *EventQueue) Shift(delta int64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, e := range q.events {
		q.events[i] = e.withFrame(e.Frame() + delta)
	}
}

func (q *EventQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

func (q *EventQueue) IsEmpty() bool {
	return q.Size() == 0
}

func (q *EventQueue) sort() {
	if q.sorted {
		return
	}
	slices.SortStableFunc(q.events, func(a, b Event) int {
		switch {
		case a.Frame() < b.Frame():
			return -1
		case a.Frame() > b.Frame():
			return 1
		}
		return 0
	})
	q.sorted = true
}

// EventProcessor consumes events.
type EventProcessor interface {
	ProcessEvent(event Event)
}

// Drain delivers every event due at or before frame to p.
func (q *EventQueue) Drain(p EventProcessor, frame int64) int {
	return q.PopUntil(frame, p.ProcessEvent)
}
