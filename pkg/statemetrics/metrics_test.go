package statemetrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/vango-dev/statekit/pkg/statekit"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	return m.GetGauge().GetValue()
}

func histogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

// discardSink drops reports so panic tests stay quiet.
type discardSink struct{}

func (discardSink) Report(*statekit.ListenerError, *statekit.Notifier) {}

func TestMetricsNotifierWiring(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(WithRegistry(reg), WithNamespace("test"))

	n := statekit.NewNotifier(m.Options("cart", discardSink{})...)

	l1 := statekit.NewListener(func() {})
	l2 := statekit.NewListener(func() { panic("boom") })
	n.Subscribe(l1)
	if got := gaugeValue(t, m.activeNotifiers); got != 1 {
		t.Errorf("expected active gauge 1 after first subscribe, got %v", got)
	}
	n.Subscribe(l2)

	n.NotifyListeners()

	if got := counterValue(t, m.notifyTotal.WithLabelValues("cart")); got != 1 {
		t.Errorf("expected 1 notify pass, got %v", got)
	}
	if got := counterValue(t, m.listenersInvoked.WithLabelValues("cart")); got != 2 {
		t.Errorf("expected 2 listeners invoked, got %v", got)
	}
	if got := counterValue(t, m.listenerPanics.WithLabelValues("cart")); got != 1 {
		t.Errorf("expected 1 recovered panic, got %v", got)
	}
	if got := histogramCount(t, m.notifyDuration.WithLabelValues("cart")); got != 1 {
		t.Errorf("expected 1 duration sample, got %v", got)
	}

	n.Unsubscribe(l1)
	n.Unsubscribe(l2)
	if got := gaugeValue(t, m.activeNotifiers); got != 0 {
		t.Errorf("expected active gauge back to 0, got %v", got)
	}
}

func TestMetricsSkippedListeners(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(WithRegistry(reg))

	n := statekit.NewNotifier(m.Options("feed", nil)...)
	var l2 *statekit.Listener
	l1 := statekit.NewListener(func() { n.Unsubscribe(l2) })
	l2 = statekit.NewListener(func() {})
	n.Subscribe(l1)
	n.Subscribe(l2)

	n.NotifyListeners()

	if got := counterValue(t, m.listenersSkipped.WithLabelValues("feed")); got != 1 {
		t.Errorf("expected 1 skipped listener, got %v", got)
	}
}

func TestMetricsBatchWiring(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(WithRegistry(reg))

	sched := &recordingScheduler{}
	b := statekit.NewBatchedNotifier(sched, m.Options("batched", nil)...)

	b.Mutate(func() {})
	b.Mutate(func() {})
	b.Mutate(func() {})
	sched.run()

	if got := counterValue(t, m.flushesTotal.WithLabelValues("batched")); got != 1 {
		t.Errorf("expected 1 flush, got %v", got)
	}
	if got := histogramCount(t, m.batchSize.WithLabelValues("batched")); got != 1 {
		t.Errorf("expected 1 batch size sample, got %v", got)
	}
}

type recordingScheduler struct {
	fns []func()
}

func (s *recordingScheduler) ScheduleOnce(fn func()) {
	s.fns = append(s.fns, fn)
}

func (s *recordingScheduler) run() {
	fns := s.fns
	s.fns = nil
	for _, fn := range fns {
		fn()
	}
}
