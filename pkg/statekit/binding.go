package statekit

import "reflect"

// Observable is the subscription surface shared by Notifier and
// BatchedNotifier. The binding layer depends on this interface rather
// than on a concrete notifier.
type Observable interface {
	Subscribe(l *Listener) error
	Unsubscribe(l *Listener) error
}

// Watcher binds a derived value to an Observable: on every notification
// it re-reads the accessor and invokes its callback only when the value
// changed under the configured equality check.
type Watcher[T any] struct {
	src      Observable
	listener *Listener
	accessor func() T
	onChange func(T)
	equals   func(T, T) bool
	last     T
	closed   bool
}

// WatchOption configures a Watcher.
type WatchOption[T any] func(*Watcher[T])

// WatchEquals overrides the change check. The default uses == for
// comparable values and reflect.DeepEqual otherwise.
func WatchEquals[T any](fn func(T, T) bool) WatchOption[T] {
	return func(w *Watcher[T]) {
		if fn != nil {
			w.equals = fn
		}
	}
}

// Watch subscribes a listener to src that re-evaluates accessor on every
// notification and calls onChange when the result differs from the
// previous one. The accessor runs once immediately to seed the baseline;
// that initial read does not fire onChange.
func Watch[T any](src Observable, accessor func() T, onChange func(T), opts ...WatchOption[T]) (*Watcher[T], error) {
	w := &Watcher[T]{
		src:      src,
		accessor: accessor,
		onChange: onChange,
		equals:   defaultEquals[T],
	}
	for _, opt := range opts {
		opt(w)
	}

	w.last = accessor()
	w.listener = NewListener(w.check)
	if err := src.Subscribe(w.listener); err != nil {
		return nil, err
	}
	return w, nil
}

// Value returns the most recently accessed value.
func (w *Watcher[T]) Value() T {
	return w.last
}

// Close unsubscribes the watcher. Closing twice is a no-op.
func (w *Watcher[T]) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.src.Unsubscribe(w.listener)
}

func (w *Watcher[T]) check() {
	next := w.accessor()
	if w.equals(w.last, next) {
		return
	}
	w.last = next
	w.onChange(next)
}

// defaultEquals compares with == when the dynamic type allows it and
// falls back to reflect.DeepEqual for slices, maps, and structs that
// contain them.
func defaultEquals[T any](a, b T) bool {
	if t := reflect.TypeOf(a); t != nil && t.Comparable() {
		return any(a) == any(b)
	}
	return reflect.DeepEqual(a, b)
}
