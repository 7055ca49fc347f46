package memory

// DefaultCapacity is the number of turns a Window keeps.
const DefaultCapacity = 8

// Window holds the most recent turns of one conversation. Once full, every
// Append evicts from the oldest end.
//
// A Window belongs to a single orchestrator and is not safe for concurrent
// use.
type Window struct {
	capacity int
	turns    []Turn
}

// NewWindow returns an empty window. A capacity below 1 selects
// DefaultCapacity.
func NewWindow(capacity int) *Window {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Window{
		capacity: capacity,
		turns:    make([]Turn, 0, capacity+1),
	}
}

// Append adds a turn and trims the window back to capacity.
func (w *Window) Append(t Turn) {
	w.turns = append(w.turns, t.clone())
	if over := len(w.turns) - w.capacity; over > 0 {
		// shift down rather than reslice so the backing array does not grow
		copy(w.turns, w.turns[over:])
		for i := len(w.turns) - over; i < len(w.turns); i++ {
			w.turns[i] = Turn{}
		}
		w.turns = w.turns[:w.capacity]
	}
}

// View returns a snapshot of the window, oldest first.
func (w *Window) View() []Turn {
	out := make([]Turn, len(w.turns))
	for i, t := range w.turns {
		out[i] = t.clone()
	}
	return out
}

// Len returns the number of turns held.
func (w *Window) Len() int {
	return len(w.turns)
}

// Capacity returns the maximum number of turns held.
func (w *Window) Capacity() int {
	return w.capacity
}

// Reset drops every turn.
func (w *Window) Reset() {
	clear(w.turns)
	w.turns = w.turns[:0]
}
