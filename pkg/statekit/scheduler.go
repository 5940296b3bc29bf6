package statekit

// Scheduler is the cooperative deferral primitive the BatchedNotifier
// flushes through.
type Scheduler interface {
	// ScheduleOnce runs fn exactly once, after the current synchronous
	// execution completes and before the next externally queued event.
	// Multiple calls preserve FIFO relative order.
	//
	// A timer or a thread-pool task does not satisfy this contract: both
	// break the guarantee that callbacks scheduled within one synchronous
	// window run before the next external event.
	ScheduleOnce(fn func())
}
