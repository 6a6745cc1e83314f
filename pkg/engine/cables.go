package engine

import (
	"slices"
)

// Cable connects one output to one input. Its endpoints never change; to move
// a cable, remove it and add a new one.
type Cable struct {
	ID             int64
	OutputModuleID int64
	OutputID       int
	InputModuleID  int64
	InputID        int
	Color          string
}

// AddCable validates c and inserts it. A negative or zero c.ID is replaced
// with a fresh id, which is returned. An invalid cable is rejected with an
// *InvalidGraphError and the graph is unchanged.
func (e *Engine) AddCable(c Cable) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.addCable(c)
}

func (e *Engine) addCable(c Cable) (int64, error) {
	out := e.byID[c.OutputModuleID]
	if out == nil {
		return -1, graphError("addCable", ErrModuleNotFound, c.OutputModuleID, -1)
	}
	in := e.byID[c.InputModuleID]
	if in == nil {
		return -1, graphError("addCable", ErrModuleNotFound, c.InputModuleID, -1)
	}
	if c.OutputID < 0 || c.OutputID >= len(out.m.Outputs) {
		return -1, graphError("addCable", ErrPortOutOfRange, c.OutputModuleID, c.OutputID)
	}
	if c.InputID < 0 || c.InputID >= len(in.m.Inputs) {
		return -1, graphError("addCable", ErrPortOutOfRange, c.InputModuleID, c.InputID)
	}
	if c.ID <= 0 {
		c.ID = e.nextCableID
	} else if _, ok := e.cablesByID[c.ID]; ok {
		return -1, graphError("addCable", ErrDuplicateID, c.InputModuleID, c.InputID)
	}
	key := portKey{c.InputModuleID, c.InputID}
	for _, o := range e.inputCables[key] {
		if o.OutputModuleID == c.OutputModuleID && o.OutputID == c.OutputID {
			return -1, graphError("addCable", ErrDuplicateCable, c.InputModuleID, c.InputID)
		}
	}
	e.nextCableID = max(e.nextCableID, c.ID+1)

	cable := c
	e.cables = append(e.cables, &cable)
	e.cablesByID[cable.ID] = &cable
	e.inputCables[key] = append(e.inputCables[key], &cable)
	in.m.Inputs[c.InputID].Connect(true)
	e.dirty.Store(true)

	e.log.Debug("added cable %d: %d:%d -> %d:%d", cable.ID, c.OutputModuleID, c.OutputID, c.InputModuleID, c.InputID)
	return cable.ID, nil
}

// RemoveCable disconnects a cable. The input goes inactive when its last
// cable is removed. Removing an unknown id does nothing.
func (e *Engine) RemoveCable(id int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.removeCable(id)
}

func (e *Engine) removeCable(id int64) {
	c := e.cablesByID[id]
	if c == nil {
		return
	}
	delete(e.cablesByID, id)
	e.cables = slices.DeleteFunc(e.cables, func(o *Cable) bool { return o == c })

	key := portKey{c.InputModuleID, c.InputID}
	rest := slices.DeleteFunc(e.inputCables[key], func(o *Cable) bool { return o == c })
	if len(rest) == 0 {
		delete(e.inputCables, key)
		if in := e.byID[c.InputModuleID]; in != nil {
			in.m.Inputs[c.InputID].Connect(false)
		}
	} else {
		e.inputCables[key] = rest
	}
	e.dirty.Store(true)
	e.log.Debug("removed cable %d", id)
}

// GetCable returns a copy of the cable with the given id.
func (e *Engine) GetCable(id int64) (Cable, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c := e.cablesByID[id]
	if c == nil {
		return Cable{}, false
	}
	return *c, true
}

// Cables returns copies of every cable in insertion order.
func (e *Engine) Cables() []Cable {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Cable, len(e.cables))
	for i, c := range e.cables {
		out[i] = *c
	}
	return out
}
