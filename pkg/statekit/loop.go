package statekit

import (
	"log/slog"
	"runtime/debug"
	"sync/atomic"
)

// defaultEventQueueSize is the buffer of the external event channel.
const defaultEventQueueSize = 64

// loopEvent is one externally dispatched callback, with an optional
// completion signal for DispatchSync.
type loopEvent struct {
	fn   func()
	done chan struct{}
}

// Loop is a single-goroutine event loop that provides the cooperative
// scheduling model the core relies on: external events dispatched from
// any goroutine run one at a time, and callbacks deferred with
// ScheduleOnce during an event run after it returns, in FIFO order,
// strictly before the next external event is taken.
//
// Loop implements Scheduler, so it plugs directly into a
// BatchedNotifier. All notifier access should happen inside dispatched
// callbacks; the loop goroutine is the notifier's single logical thread
// of control.
type Loop struct {
	log      *slog.Logger
	events   chan loopEvent
	deferred []func() // loop-confined; only the loop goroutine touches it
	done     chan struct{}
	closed   atomic.Bool
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithLogger sets the logger used for recovered dispatch panics
// (default: slog.Default).
func WithLogger(log *slog.Logger) LoopOption {
	return func(l *Loop) {
		if log != nil {
			l.log = log
		}
	}
}

// WithEventQueueSize sets the external event channel buffer.
func WithEventQueueSize(n int) LoopOption {
	return func(l *Loop) {
		if n > 0 {
			l.events = make(chan loopEvent, n)
		}
	}
}

// NewLoop creates a stopped loop. Call Start to begin processing.
func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{
		log:    slog.Default(),
		events: make(chan loopEvent, defaultEventQueueSize),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start launches the loop goroutine.
func (l *Loop) Start() {
	go l.run()
}

// Close stops the loop. Events already dispatched but not yet executed
// are discarded; a pending deferred drain is abandoned with them.
func (l *Loop) Close() error {
	if l.closed.Swap(true) {
		return ErrLoopClosed
	}
	close(l.done)
	return nil
}

// Done returns a channel that is closed when the loop stops.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Dispatch queues fn to run on the loop goroutine. Safe to call from any
// goroutine; blocks while the event queue is full.
func (l *Loop) Dispatch(fn func()) error {
	return l.dispatch(loopEvent{fn: fn})
}

// DispatchSync queues fn and waits until fn and every callback it
// deferred (including chained deferrals) have run.
func (l *Loop) DispatchSync(fn func()) error {
	done := make(chan struct{})
	if err := l.dispatch(loopEvent{fn: fn, done: done}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-l.done:
		return ErrLoopClosed
	}
}

// ScheduleOnce implements Scheduler. It must be called from the loop
// goroutine, i.e. from inside a dispatched callback or a deferred one.
func (l *Loop) ScheduleOnce(fn func()) {
	l.deferred = append(l.deferred, fn)
}

func (l *Loop) dispatch(ev loopEvent) error {
	if l.closed.Load() {
		return ErrLoopClosed
	}
	select {
	case l.events <- ev:
		return nil
	case <-l.done:
		return ErrLoopClosed
	}
}

func (l *Loop) run() {
	for {
		select {
		case ev := <-l.events:
			l.execute(ev)
		case <-l.done:
			return
		}
	}
}

// execute runs one external event, then drains the deferred queue to
// empty. Deferred callbacks may defer further callbacks; those chain onto
// the same drain, still ahead of the next external event.
func (l *Loop) execute(ev loopEvent) {
	l.invoke(ev.fn)
	for len(l.deferred) > 0 {
		next := l.deferred[0]
		l.deferred = l.deferred[1:]
		l.invoke(next)
	}
	if ev.done != nil {
		close(ev.done)
	}
}

// invoke runs fn with panic recovery so one bad callback cannot take the
// loop down.
func (l *Loop) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("dispatch panic",
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	fn()
}
