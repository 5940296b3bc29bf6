package statekit

import "log/slog"

// ErrorSink receives failures recovered during dispatch: a listener that
// panicked during a notification pass, a batched mutation action that
// panicked during a flush, or a flush that found its notifier disposed.
//
// Reports are fire-and-forget; the notifier never consults a return value
// and delivery to the remaining listeners continues regardless.
type ErrorSink interface {
	// Report receives one recovered failure. source is the notifier whose
	// dispatch recovered it.
	Report(err *ListenerError, source *Notifier)
}

// NewLogSink returns an ErrorSink that writes failures to log.
// A nil log uses slog.Default.
func NewLogSink(log *slog.Logger) ErrorSink {
	return &logSink{log: log}
}

type logSink struct {
	log *slog.Logger
}

func (s *logSink) Report(err *ListenerError, source *Notifier) {
	log := s.log
	if log == nil {
		log = slog.Default()
	}
	log.Error("listener panic",
		"notifier", err.Notifier,
		"label", err.Label,
		"panic", err.Recovered,
		"stack", string(err.Stack))
}
