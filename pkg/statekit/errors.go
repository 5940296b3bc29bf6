package statekit

import (
	"errors"
	"fmt"
)

// ErrDisposed is returned when a notifier is used after Dispose, or when
// Dispose is called twice. This is a programming error, not a runtime
// condition: a disposed notifier has released its subscriber list and no
// operation on it can succeed. Callers should treat it the way they treat
// a failed assertion.
var ErrDisposed = errors.New("statekit: notifier used after dispose")

// ErrLoopClosed is returned when dispatching to a Loop that has been
// closed.
var ErrLoopClosed = errors.New("statekit: loop closed")

// ListenerError carries a panic recovered during a notification pass or a
// batch flush, together with where it happened. Values of this type are
// handed to the configured ErrorSink; they never propagate to the caller
// of NotifyListeners.
type ListenerError struct {
	// Recovered is the value recovered from the panic.
	Recovered any

	// Label describes the call site, e.g. "notify listener" or
	// "batched mutation".
	Label string

	// Notifier is the label of the originating notifier.
	Notifier string

	// Stack is the goroutine stack captured at the recovery point.
	Stack []byte
}

// Error implements the error interface.
func (e *ListenerError) Error() string {
	return fmt.Sprintf("statekit: %s panicked in notifier %q: %v", e.Label, e.Notifier, e.Recovered)
}

// Unwrap exposes a wrapped error when the panic value was itself an error.
func (e *ListenerError) Unwrap() error {
	if err, ok := e.Recovered.(error); ok {
		return err
	}
	return nil
}
