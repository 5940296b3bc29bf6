// Package statekit provides a reentrancy-safe change-notification core.
//
// A Notifier owns a piece of application state and a list of listeners.
// Mutating the state through the notifier delivers one notification pass
// to every listener that is still registered when its turn arrives, even
// when listeners subscribe, unsubscribe, or mutate again from inside a
// callback.
//
// # Core Types
//
// Notifier couples a state change with its announcement:
//
//	var count int
//	n := statekit.NewNotifier()
//	l := statekit.NewListener(func() { fmt.Println("count is", count) })
//	n.Subscribe(l)
//	n.Mutate(func() { count++ })  // runs the mutation, then notifies
//
// BatchedNotifier coalesces every Mutate call made within one synchronous
// execution window into a single notification pass, deferred through a
// Scheduler:
//
//	loop := statekit.NewLoop()
//	loop.Start()
//	b := statekit.NewBatchedNotifier(loop)
//	loop.Dispatch(func() {
//	    b.Mutate(func() { count++ })
//	    b.Mutate(func() { count++ })
//	})  // one flush, one notification pass
//
// Watch binds a derived value to a notifier and fires only when the value
// actually changes:
//
//	statekit.Watch(n, func() int { return count }, func(v int) {
//	    render(v)
//	})
//
// # Listener Identity
//
// Listeners are compared by handle identity, never by the wrapped
// function. Wrapping the same function in two handles produces two
// independent listeners; subscribing one handle twice produces two
// independent registrations.
//
// # Concurrency
//
// Notifier, BatchedNotifier, ObserverList, Watcher, and Scope are
// confined to a single logical thread of control. They use no locks:
// their safety story is careful ordering under reentrancy, and a lock
// would self-deadlock the moment a listener called back into the
// notifier. To share a notifier across goroutines, serialize every
// access through Loop.Dispatch.
package statekit
