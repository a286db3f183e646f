// Package metrics provides Prometheus metrics for the grade adjustment service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	DefaultNamespace       = "gradeadjust"
	defaultRefreshInterval = 10 * time.Second

	subsystem = "predictor"
)

// latencyBucketsMs covers in-process and HTTP latencies in milliseconds.
var latencyBucketsMs = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 1000} //nolint:gochecknoglobals // histogram layout

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace       string
	enabled         bool
	refreshInterval time.Duration
	registry        prometheus.Registerer

	// Grading Metrics
	predictions      *prometheus.CounterVec
	rejections       *prometheus.CounterVec
	adjustments      prometheus.Histogram
	timeTaken        prometheus.Histogram
	predictLatencyMs prometheus.Histogram

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpPanics          prometheus.Counter

	// Error Metrics
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec
	errorLatency        *prometheus.HistogramVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:       DefaultNamespace,
		enabled:         true,
		refreshInterval: defaultRefreshInterval,
		registry:        prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.predictions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   subsystem,
		Name:        "predictions_total",
		Help:        "Total number of successful predictions by the rule that fired",
	}, []string{"rule"})

	m.rejections = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   subsystem,
		Name:        "rejections_total",
		Help:        "Total number of rejected prediction requests by error kind",
	}, []string{"kind"})

	m.adjustments = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   subsystem,
		Name:        "adjustment",
		Help:        "Distribution of signed grade adjustments",
		Buckets:     []float64{-1, 0, 1},
	})

	m.timeTaken = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   subsystem,
		Name:        "time_taken_seconds",
		Help:        "Distribution of reported task completion times",
		Buckets:     []float64{15, 30, 45, 60, 75, 90, 120, 180, 300},
	})

	m.predictLatencyMs = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   subsystem,
		Name:        "predict_latency_milliseconds",
		Help:        "Histogram of in-process predict latency in milliseconds",
		Buckets:     latencyBucketsMs,
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   subsystem,
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   subsystem,
			Name:        "http_request_duration_milliseconds",
			Help:        "HTTP request duration in milliseconds",
			Buckets:     latencyBucketsMs,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpPanics = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   subsystem,
		Name:        "http_panics_total",
		Help:        "Total number of handler panics recovered",
	})

	m.errorRateByType = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   subsystem,
			Name:        "errors_by_type_total",
			Help:        "Total number of errors by type and severity",
		},
		[]string{"error_type", "severity"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   subsystem,
			Name:        "errors_by_endpoint_total",
			Help:        "Total number of errors by endpoint, method and type",
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.errorLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   subsystem,
			Name:        "error_latency_milliseconds",
			Help:        "Latency of operations that ended in an error",
			Buckets:     latencyBucketsMs,
		},
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   subsystem,
		Name:        "system_memory_usage_bytes",
		Help:        "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   subsystem,
		Name:        "system_goroutine_count",
		Help:        "Number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   subsystem,
		Name:        "system_gc_pause_time_milliseconds",
		Help:        "GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// RefreshInterval is how often gauges fed by pollers should be updated.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

// RecordPrediction counts a successful prediction.
func (m *Manager) RecordPrediction(rule string, adjustment int, timeTaken, latencyMs float64) {
	if !m.enabled {
		return
	}
	m.predictions.WithLabelValues(rule).Inc()
	m.adjustments.Observe(float64(adjustment))
	m.timeTaken.Observe(timeTaken)
	m.predictLatencyMs.Observe(latencyMs)
}

// RecordRejection counts a rejected prediction request.
func (m *Manager) RecordRejection(kind string) {
	if !m.enabled {
		return
	}
	m.rejections.WithLabelValues(kind).Inc()
}

// RecordHTTPRequest records an HTTP request and its duration.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordHTTPPanic counts a recovered handler panic.
func (m *Manager) RecordHTTPPanic() {
	if !m.enabled {
		return
	}
	m.httpPanics.Inc()
}

// RecordError records an error by type, endpoint and latency.
func (m *Manager) RecordError(endpoint, method, errorType, severity string, latencyMs float64) {
	if !m.enabled {
		return
	}
	m.errorRateByType.WithLabelValues(errorType, severity).Inc()
	m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	m.errorLatency.WithLabelValues("http", errorType).Observe(latencyMs)
}

// UpdateSystem sets the system gauges.
func (m *Manager) UpdateSystem(memBytes uint64, goroutines int) {
	if !m.enabled {
		return
	}
	m.systemMemoryUsage.Set(float64(memBytes))
	m.systemGoroutineCount.Set(float64(goroutines))
}

// RecordGCPause records an average GC pause in milliseconds.
func (m *Manager) RecordGCPause(pauseMs float64) {
	if !m.enabled {
		return
	}
	m.systemGCPauseTime.Observe(pauseMs)
}

// Default returns the process-wide manager registered on GetRegistry().
func Default() *Manager { return globalManager }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
