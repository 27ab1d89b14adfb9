package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application.
// A nil *Collector is valid and records nothing.
type Collector struct {
	// Registry for this collector instance
	registry  *prometheus.Registry
	namespace string

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Persistence metrics
	Saves              *prometheus.CounterVec
	SaveDuration       *prometheus.HistogramVec
	CoalescedSchedules prometheus.Counter
	PendingChanges     prometheus.Gauge

	// Topic metrics
	TopicOperations *prometheus.CounterVec

	// Storage backend metrics
	StorageOperations *prometheus.CounterVec
	StorageDuration   *prometheus.HistogramVec
	BreakerState      *prometheus.GaugeVec
}

// NewCollector creates a new metrics collector with its own registry
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry:  registry,
		namespace: namespace,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		Saves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "document_saves_total",
				Help:      "Document saves by persistence policy and outcome",
			},
			[]string{"policy", "status"},
		),
		SaveDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "document_save_duration_seconds",
				Help:      "Document save latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"policy"},
		),
		CoalescedSchedules: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "debounce_coalesced_total",
				Help:      "Debounced saves replaced by a later mutation inside the window",
			},
		),
		PendingChanges: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pending_changes",
				Help:      "Mutations not yet covered by a successful save, across documents",
			},
		),
		TopicOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "topic_operations_total",
				Help:      "Topic extractions and dissolutions by outcome",
			},
			[]string{"kind", "status"},
		),
		StorageOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "storage_operations_total",
				Help:      "Calls to the storage backend",
			},
			[]string{"operation", "status"},
		),
		StorageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "storage_operation_duration_seconds",
				Help:      "Storage backend call latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		BreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open)",
			},
			[]string{"name"},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.Saves,
		c.SaveDuration,
		c.CoalescedSchedules,
		c.PendingChanges,
		c.TopicOperations,
		c.StorageOperations,
		c.StorageDuration,
		c.BreakerState,
	)

	return c
}

// Registry returns the collector's registry
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the collector's metrics in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one served request
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordSave records the outcome of one document save
func (c *Collector) RecordSave(policy string, err error, duration time.Duration) {
	if c == nil {
		return
	}
	c.Saves.WithLabelValues(policy, statusLabel(err)).Inc()
	c.SaveDuration.WithLabelValues(policy).Observe(duration.Seconds())
}

// RecordCoalesced counts a debounced save replaced inside its window
func (c *Collector) RecordCoalesced() {
	if c == nil {
		return
	}
	c.CoalescedSchedules.Inc()
}

// AddPendingChanges moves the pending changes gauge by delta
func (c *Collector) AddPendingChanges(delta int) {
	if c == nil {
		return
	}
	c.PendingChanges.Add(float64(delta))
}

// RecordTopicOperation records an extraction or dissolution
func (c *Collector) RecordTopicOperation(kind string, err error) {
	if c == nil {
		return
	}
	c.TopicOperations.WithLabelValues(kind, statusLabel(err)).Inc()
}

// RecordStorageOperation records one call to the storage backend
func (c *Collector) RecordStorageOperation(operation string, err error, duration time.Duration) {
	if c == nil {
		return
	}
	c.StorageOperations.WithLabelValues(operation, statusLabel(err)).Inc()
	c.StorageDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetBreakerState publishes a circuit breaker state
func (c *Collector) SetBreakerState(name string, state float64) {
	if c == nil {
		return
	}
	c.BreakerState.WithLabelValues(name).Set(state)
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
