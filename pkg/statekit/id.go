package statekit

import "sync/atomic"

// globalIDCounter is the source of unique IDs for listener handles.
// Atomic so handles can be created from any goroutine.
var globalIDCounter uint64

// nextID returns the next unique handle ID.
// IDs are monotonically increasing and never reused.
func nextID() uint64 {
	return atomic.AddUint64(&globalIDCounter, 1)
}
