// Package metrics provides Prometheus metrics for the temperature monitor.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns every collector exported by the service.
type Manager struct {
	namespace string
	registry  *prometheus.Registry

	samplesAccepted prometheus.Counter
	samplesDropped  *prometheus.CounterVec
	sourceFailures  prometheus.Counter
	daysRecorded    prometheus.Gauge

	persistDuration prometheus.Histogram
	persistFailures *prometheus.CounterVec
	backupFailures  prometheus.Counter

	syncRequests *prometheus.CounterVec
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithRegistry sets the registry the collectors are registered with.
func WithRegistry(r *prometheus.Registry) Option {
	return func(m *Manager) {
		if r != nil {
			m.registry = r
		}
	}
}

// NewManager creates and registers all collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "tempmon",
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.samplesAccepted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "aggregator",
		Name: "samples_accepted_total", Help: "Samples folded into the index.",
	})
	m.samplesDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "aggregator",
		Name: "samples_dropped_total", Help: "Samples rejected before aggregation.",
	}, []string{"reason"})
	m.sourceFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "source",
		Name: "failures_total", Help: "Sample source read failures.",
	})
	m.daysRecorded = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "aggregator",
		Name: "days_recorded", Help: "Distinct calendar days in the index.",
	})
	m.persistDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: "store",
		Name: "persist_duration_seconds", Help: "Duration of successful persist cycles.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	})
	m.persistFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "store",
		Name: "persist_failures_total", Help: "Aborted persist cycles by failing step.",
	}, []string{"step"})
	m.backupFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "store",
		Name: "backup_failures_total", Help: "Best-effort backup copies that failed.",
	})
	m.syncRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "channel",
		Name: "requests_total", Help: "Data requests answered by outcome.",
	}, []string{"channel", "success"})

	m.registry.MustRegister(
		m.samplesAccepted, m.samplesDropped, m.sourceFailures, m.daysRecorded,
		m.persistDuration, m.persistFailures, m.backupFailures, m.syncRequests,
	)
	return m
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

// Handler returns the HTTP exposition handler for this manager's registry.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// All recording methods are nil-safe so components can run without metrics.

func (m *Manager) SampleAccepted(days int) {
	if m == nil {
		return
	}
	m.samplesAccepted.Inc()
	m.daysRecorded.Set(float64(days))
}

func (m *Manager) SampleDropped(reason string) {
	if m == nil {
		return
	}
	m.samplesDropped.WithLabelValues(reason).Inc()
}

func (m *Manager) SourceFailed() {
	if m == nil {
		return
	}
	m.sourceFailures.Inc()
}

func (m *Manager) DaysRecorded(days int) {
	if m == nil {
		return
	}
	m.daysRecorded.Set(float64(days))
}

func (m *Manager) PersistSucceeded(seconds float64) {
	if m == nil {
		return
	}
	m.persistDuration.Observe(seconds)
}

func (m *Manager) PersistFailed(step string) {
	if m == nil {
		return
	}
	m.persistFailures.WithLabelValues(step).Inc()
}

func (m *Manager) BackupFailed() {
	if m == nil {
		return
	}
	m.backupFailures.Inc()
}

func (m *Manager) SyncRequest(channel string, success bool) {
	if m == nil {
		return
	}
	s := "false"
	if success {
		s = "true"
	}
	m.syncRequests.WithLabelValues(channel, s).Inc()
}
