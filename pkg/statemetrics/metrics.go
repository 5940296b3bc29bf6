// Package statemetrics instruments statekit notifiers with Prometheus
// metrics. A notifier is wired in purely through construction options:
//
//	m := statemetrics.New()
//	n := statekit.NewBatchedNotifier(loop, m.Options("cart", nil)...)
//	http.Handle("/metrics", promhttp.Handler())
package statemetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/statekit/pkg/statekit"
)

// Config configures the metrics set.
type Config struct {
	// Namespace is the metrics namespace (default: "statekit").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for notify pass duration.
	// Default: prometheus.DefBuckets.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// Option configures the metrics set.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the notify duration histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "statekit",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus metrics for a set of notifiers,
// partitioned by notifier label.
type Metrics struct {
	notifyTotal      *prometheus.CounterVec
	notifyDuration   *prometheus.HistogramVec
	listenersInvoked *prometheus.CounterVec
	listenersSkipped *prometheus.CounterVec
	listenerPanics   *prometheus.CounterVec
	flushesTotal     *prometheus.CounterVec
	batchSize        *prometheus.HistogramVec
	activeNotifiers  prometheus.Gauge
}

// New creates and registers the metrics set.
func New(opts ...Option) *Metrics {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		notifyTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "notify_passes_total",
			Help:        "Total number of notification passes delivered",
			ConstLabels: config.ConstLabels,
		}, []string{"notifier"}),

		notifyDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "notify_duration_seconds",
			Help:        "Notification pass duration in seconds",
			Buckets:     config.Buckets,
			ConstLabels: config.ConstLabels,
		}, []string{"notifier"}),

		listenersInvoked: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "listeners_invoked_total",
			Help:        "Total listener callbacks invoked across notification passes",
			ConstLabels: config.ConstLabels,
		}, []string{"notifier"}),

		listenersSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "listeners_skipped_total",
			Help:        "Snapshot entries skipped because the listener unsubscribed mid-pass",
			ConstLabels: config.ConstLabels,
		}, []string{"notifier"}),

		listenerPanics: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "listener_panics_total",
			Help:        "Panics recovered from listener callbacks and batched mutations",
			ConstLabels: config.ConstLabels,
		}, []string{"notifier"}),

		flushesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "batch_flushes_total",
			Help:        "Total batch flushes executed",
			ConstLabels: config.ConstLabels,
		}, []string{"notifier"}),

		batchSize: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "batch_size_actions",
			Help:        "Number of mutation actions coalesced per flush",
			Buckets:     []float64{1, 2, 5, 10, 25, 50, 100},
			ConstLabels: config.ConstLabels,
		}, []string{"notifier"}),

		activeNotifiers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_notifiers",
			Help:        "Notifiers that currently have at least one listener",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// Options returns the statekit construction options that wire a notifier
// labeled label into m. Recovered failures are forwarded to next after
// counting; a nil next falls back to the slog sink.
func (m *Metrics) Options(label string, next statekit.ErrorSink) []statekit.Option {
	if next == nil {
		next = statekit.NewLogSink(nil)
	}
	return []statekit.Option{
		statekit.WithLabel(label),
		statekit.WithErrorSink(&countingSink{metrics: m, next: next}),
		statekit.OnActivated(func() { m.activeNotifiers.Inc() }),
		statekit.OnDeactivated(func() { m.activeNotifiers.Dec() }),
		statekit.WithNotifyHook(func(delivered, skipped int, d time.Duration) {
			m.notifyTotal.WithLabelValues(label).Inc()
			m.notifyDuration.WithLabelValues(label).Observe(d.Seconds())
			m.listenersInvoked.WithLabelValues(label).Add(float64(delivered))
			m.listenersSkipped.WithLabelValues(label).Add(float64(skipped))
		}),
		statekit.WithFlushHook(func(actions int) {
			m.flushesTotal.WithLabelValues(label).Inc()
			m.batchSize.WithLabelValues(label).Observe(float64(actions))
		}),
	}
}

// countingSink counts recovered failures, then forwards them.
type countingSink struct {
	metrics *Metrics
	next    statekit.ErrorSink
}

func (s *countingSink) Report(err *statekit.ListenerError, source *statekit.Notifier) {
	s.metrics.listenerPanics.WithLabelValues(err.Notifier).Inc()
	s.next.Report(err, source)
}
