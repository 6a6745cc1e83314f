package module

// Side selects an expander slot.
type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

// Expander links a module to the module physically adjacent on one side.
//
// A producer writes ProducerMessage on the neighbour's facing expander and
// calls RequestMessageFlip on it; after the current frame the engine swaps
// ProducerMessage and ConsumerMessage, so the consumer reads a complete
// message one frame later.
type Expander struct {
	// ModuleID is the linked module, or -1.
	ModuleID int64
	// Module is resolved by the engine from ModuleID at block boundaries and
	// is only valid inside Process.
	Module *Module

	ProducerMessage any
	ConsumerMessage any

	flipRequested bool
}

// RequestMessageFlip asks the engine to swap the message buffers after the
// current frame.
func (e *Expander) RequestMessageFlip() {
	e.flipRequested = true
}

// FlipMessages swaps the buffers if a flip was requested. Called by the
// engine between frames.
func (e *Expander) FlipMessages() {
	if !e.flipRequested {
		return
	}
	e.ProducerMessage, e.ConsumerMessage = e.ConsumerMessage, e.ProducerMessage
	e.flipRequested = false
}

// Unlink clears the link and any requested flip.
func (e *Expander) Unlink() {
	e.ModuleID = -1
	e.Module = nil
	e.flipRequested = false
}
