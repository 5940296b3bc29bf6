package statekit

// indexThreshold is the backing length at which Contains switches from a
// linear scan to the lazily rebuilt set index. Small lists dominate real
// usage and a scan over one or two elements beats any map maintenance.
const indexThreshold = 3

// ObserverList is an ordered collection of observer handles optimized for
// the workload "many membership checks, few inserts and removals".
//
// Insertion order is preserved and duplicates are allowed. Membership is
// identity-based (==). Every structural mutation marks the set index
// dirty; the index is rebuilt at most once per post-mutation query burst,
// not once per query.
//
// The zero value is ready to use.
type ObserverList[T comparable] struct {
	items []T
	index map[T]struct{}
	dirty bool
}

// NewObserverList returns an empty list.
func NewObserverList[T comparable]() *ObserverList[T] {
	return &ObserverList[T]{}
}

// Add appends item unconditionally, keeping duplicates.
func (l *ObserverList[T]) Add(item T) {
	l.items = append(l.items, item)
	l.dirty = true
}

// Remove removes the first element identity-equal to item and reports
// whether anything was removed. The index is marked dirty either way.
func (l *ObserverList[T]) Remove(item T) bool {
	l.dirty = true
	for i, it := range l.items {
		if it == item {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether item is currently in the list.
//
// Below indexThreshold it scans the backing slice directly. At or above
// the threshold it answers from the set index, rebuilding it first when a
// mutation has happened since the last query.
func (l *ObserverList[T]) Contains(item T) bool {
	if len(l.items) < indexThreshold {
		for _, it := range l.items {
			if it == item {
				return true
			}
		}
		return false
	}

	if l.dirty {
		if l.index == nil {
			l.index = make(map[T]struct{}, len(l.items))
		} else {
			clear(l.index)
		}
		for _, it := range l.items {
			l.index[it] = struct{}{}
		}
		l.dirty = false
	}

	_, ok := l.index[item]
	return ok
}

// Len returns the number of entries, counting duplicates.
func (l *ObserverList[T]) Len() int {
	return len(l.items)
}

// Snapshot returns a copy of the backing slice in insertion order.
// Iterating the list directly is not safe against structural mutation;
// callers that may be reentered must iterate a snapshot instead.
func (l *ObserverList[T]) Snapshot() []T {
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

// Clear drops every entry and releases the index.
func (l *ObserverList[T]) Clear() {
	l.items = nil
	l.index = nil
	l.dirty = false
}
