package statekit

import (
	"runtime/debug"
	"time"
)

// Notifier is the change-notification core: it owns a listener list and
// the state-mutation entry point, and delivers notifications safely even
// when listeners subscribe, unsubscribe, or mutate again from inside a
// callback.
//
// A Notifier is created active and becomes permanently disposed through
// Dispose. Every operation on a disposed notifier fails with ErrDisposed.
//
// Notifier is typically embedded in the type that owns the state:
//
//	type Cart struct {
//	    *statekit.Notifier
//	    items []Item
//	}
//
//	func (c *Cart) AddItem(it Item) error {
//	    return c.Mutate(func() { c.items = append(c.items, it) })
//	}
type Notifier struct {
	cfg       config
	observers *ObserverList[*Listener]
	disposed  bool
}

// NewNotifier creates an active notifier.
func NewNotifier(opts ...Option) *Notifier {
	cfg := config{
		label: "notifier",
		sink:  NewLogSink(nil),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Notifier{
		cfg:       cfg,
		observers: NewObserverList[*Listener](),
	}
}

// Label returns the notifier's configured label.
func (n *Notifier) Label() string {
	return n.cfg.label
}

// IsDisposed reports whether Dispose has been called.
func (n *Notifier) IsDisposed() bool {
	return n.disposed
}

// HasListeners reports whether at least one listener is registered.
func (n *Notifier) HasListeners() bool {
	return !n.disposed && n.observers.Len() > 0
}

// Subscribe registers l. Subscribing the same handle twice creates two
// independent registrations, and l is then invoked once per registration
// each pass.
//
// When the registration takes the listener count from zero to one, the
// OnActivated hook runs synchronously after the append.
func (n *Notifier) Subscribe(l *Listener) error {
	if n.disposed {
		return ErrDisposed
	}
	if l == nil {
		return nil
	}

	n.observers.Add(l)
	if n.observers.Len() == 1 && n.cfg.onActivated != nil {
		n.cfg.onActivated()
	}
	return nil
}

// Unsubscribe removes the first registration of l, if any. Removing a
// listener that is not registered is a no-op, not an error.
//
// When a removal takes the listener count to zero, the OnDeactivated hook
// runs synchronously.
func (n *Notifier) Unsubscribe(l *Listener) error {
	if n.disposed {
		return ErrDisposed
	}
	if l == nil {
		return nil
	}

	if n.observers.Remove(l) && n.observers.Len() == 0 && n.cfg.onDeactivated != nil {
		n.cfg.onDeactivated()
	}
	return nil
}

// NotifyListeners delivers one notification pass.
//
// The pass iterates a snapshot of the listener list taken at call time,
// in registration order. Before each handle is invoked, its current
// membership is re-checked: handles unsubscribed before their turn are
// skipped, and handles subscribed after the snapshot wait for the next
// pass. A handle registered several times is invoked once per occurrence
// that is still live when its turn arrives; removal of one occurrence
// cannot be attributed to a specific registration, so the remaining
// occurrences conservatively still fire.
//
// A panic inside a listener does not interrupt the pass. It is recovered,
// forwarded to the error sink, and delivery continues with the next
// listener.
func (n *Notifier) NotifyListeners() error {
	if n.disposed {
		return ErrDisposed
	}
	if n.observers.Len() == 0 {
		return nil
	}

	start := time.Now()
	snapshot := n.observers.Snapshot()
	delivered, skipped := 0, 0
	for _, l := range snapshot {
		if !n.observers.Contains(l) {
			skipped++
			continue
		}
		n.call(l)
		delivered++
	}

	if n.cfg.notifyHook != nil {
		n.cfg.notifyHook(delivered, skipped, time.Since(start))
	}
	return nil
}

// Mutate runs action synchronously against the owning type's state, then
// calls NotifyListeners. From the caller's perspective the change and its
// announcement are one operation.
func (n *Notifier) Mutate(action func()) error {
	if n.disposed {
		return ErrDisposed
	}
	if action != nil {
		action()
	}
	return n.NotifyListeners()
}

// Dispose permanently deactivates the notifier and releases its listener
// list. Disposing twice returns ErrDisposed.
func (n *Notifier) Dispose() error {
	if n.disposed {
		return ErrDisposed
	}
	n.disposed = true
	n.observers.Clear()
	return nil
}

// call invokes one listener with panic isolation.
func (n *Notifier) call(l *Listener) {
	defer func() {
		if r := recover(); r != nil {
			n.report(r, "notify listener")
		}
	}()
	l.fn()
}

// report forwards a recovered failure to the configured sink.
func (n *Notifier) report(recovered any, label string) {
	n.cfg.sink.Report(&ListenerError{
		Recovered: recovered,
		Label:     label,
		Notifier:  n.cfg.label,
		Stack:     debug.Stack(),
	}, n)
}
