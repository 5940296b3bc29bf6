package statekit

import "time"

// config holds construction options shared by Notifier and
// BatchedNotifier.
type config struct {
	label           string
	sink            ErrorSink
	onActivated     func()
	onDeactivated   func()
	onBatchFinished func()
	notifyHook      func(delivered, skipped int, d time.Duration)
	flushHook       func(actions int)
}

// Option configures a Notifier or BatchedNotifier at construction.
type Option func(*config)

// WithLabel sets the label used when reporting failures and in
// instrumentation (default: "notifier").
func WithLabel(label string) Option {
	return func(c *config) {
		c.label = label
	}
}

// WithErrorSink sets the sink that receives recovered listener failures.
// The default sink logs through slog.Default.
func WithErrorSink(sink ErrorSink) Option {
	return func(c *config) {
		if sink != nil {
			c.sink = sink
		}
	}
}

// OnActivated sets the hook invoked synchronously each time the listener
// count transitions from zero to one. Intended for acquiring resources
// that are only needed while someone is observing.
func OnActivated(fn func()) Option {
	return func(c *config) {
		c.onActivated = fn
	}
}

// OnDeactivated sets the hook invoked synchronously each time the
// listener count transitions from one to zero.
func OnDeactivated(fn func()) Option {
	return func(c *config) {
		c.onDeactivated = fn
	}
}

// OnBatchFinished sets the hook invoked once per flush, after the batched
// actions run and before the notification pass. Ignored by the plain
// Notifier.
func OnBatchFinished(fn func()) Option {
	return func(c *config) {
		c.onBatchFinished = fn
	}
}

// WithNotifyHook sets an observation hook called once per notification
// pass with the number of listeners invoked, the number skipped because
// they unsubscribed mid-pass, and the pass duration. Used by the
// statemetrics package.
func WithNotifyHook(fn func(delivered, skipped int, d time.Duration)) Option {
	return func(c *config) {
		c.notifyHook = fn
	}
}

// WithFlushHook sets an observation hook called once per batch flush with
// the number of actions executed. Ignored by the plain Notifier. Used by
// the statemetrics package.
func WithFlushHook(fn func(actions int)) Option {
	return func(c *config) {
		c.flushHook = fn
	}
}
