package statekit

// Listener is an opaque handle for a notification callback.
//
// Handles are compared by identity: two handles are the same listener only
// if they are the same *Listener value. Wrapping one function in two
// handles produces two unrelated listeners, and structural equality of the
// wrapped functions is never consulted.
type Listener struct {
	id uint64
	fn func()
}

// NewListener wraps fn in a fresh handle with a unique identity.
func NewListener(fn func()) *Listener {
	return &Listener{id: nextID(), fn: fn}
}

// ID returns the unique identifier for this handle.
func (l *Listener) ID() uint64 {
	return l.id
}
