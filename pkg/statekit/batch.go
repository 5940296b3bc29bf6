package statekit

// BatchedNotifier coalesces every Mutate call made within one synchronous
// execution window into a single flush: the queued actions run in FIFO
// order, then the OnBatchFinished hook fires, then one notification pass
// is delivered for the whole batch.
//
// The flush is deferred through the Scheduler supplied at construction,
// which must run it after the current synchronous execution completes and
// before the next external event (see Loop).
type BatchedNotifier struct {
	Notifier

	sched     Scheduler
	queue     []func()
	scheduled bool
}

// NewBatchedNotifier creates an active batched notifier that defers its
// flushes through sched.
func NewBatchedNotifier(sched Scheduler, opts ...Option) *BatchedNotifier {
	return &BatchedNotifier{
		Notifier: *NewNotifier(opts...),
		sched:    sched,
	}
}

// Mutate appends action to the batch queue and, when no flush is pending,
// schedules one. The action does not run until the flush; callers that
// need the state change applied immediately should use the plain
// Notifier.
func (b *BatchedNotifier) Mutate(action func()) error {
	if b.disposed {
		return ErrDisposed
	}

	b.queue = append(b.queue, action)
	if !b.scheduled {
		b.scheduled = true
		b.sched.ScheduleOnce(b.flush)
	}
	return nil
}

// Pending returns the number of queued, not yet flushed actions.
func (b *BatchedNotifier) Pending() int {
	return len(b.queue)
}

// flush runs one scheduled batch.
//
// The scheduled flag drops before the actions run: a reentrant Mutate
// inside one of them observes scheduled=false and chains a new flush on
// the next scheduling turn instead of merging into this one. The batch
// boundary is the queue length captured here, so actions enqueued during
// execution stay queued for that next flush.
func (b *BatchedNotifier) flush() {
	b.scheduled = false

	if b.disposed {
		// Dispose does not retract a pending flush. Running one against a
		// disposed core is the documented precondition violation: report
		// it loudly and drop the queue.
		b.report(ErrDisposed, "batch flush")
		b.queue = nil
		return
	}

	n := len(b.queue)
	for i := 0; i < n; i++ {
		b.runAction(b.queue[i])
	}
	b.queue = b.queue[n:]

	if b.cfg.flushHook != nil {
		b.cfg.flushHook(n)
	}
	if b.cfg.onBatchFinished != nil {
		b.cfg.onBatchFinished()
	}
	if err := b.NotifyListeners(); err != nil {
		// An action disposed the core mid-batch.
		b.report(err, "batch notify")
	}
}

// runAction executes one queued mutation with the same panic isolation as
// a listener callback: the failure is reported through the error sink and
// the remaining batch continues.
func (b *BatchedNotifier) runAction(action func()) {
	defer func() {
		if r := recover(); r != nil {
			b.report(r, "batched mutation")
		}
	}()
	if action != nil {
		action()
	}
}
