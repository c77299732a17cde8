// Package metrics provides Prometheus metrics for the tumor classification service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns the service's Prometheus collectors.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         *prometheus.Registry
	runtimeMetrics   bool

	predictions          *prometheus.CounterVec
	predictionConfidence prometheus.Histogram
	predictionErrors     *prometheus.CounterVec
	preprocessDuration   prometheus.Histogram
	inferenceDuration    prometheus.Histogram
	decodeFailures       *prometheus.CounterVec

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewManager creates a Manager on its own registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "braintumor",
		subsystem:        "classifier",
		histogramBuckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		registry:         prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	if m.runtimeMetrics {
		m.registry.MustRegister(collectors.NewGoCollector())
		m.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	m.predictions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "predictions_total",
		Help:      "Total number of predictions by label",
	}, []string{"label"})

	m.predictionConfidence = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "prediction_confidence",
		Help:      "Confidence of the selected label",
		Buckets:   []float64{0.25, 0.5, 0.7, 0.8, 0.9, 0.95, 0.99},
	})

	m.predictionErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "prediction_errors_total",
		Help:      "Total number of failed predictions by stage",
	}, []string{"stage"})

	m.preprocessDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "preprocess_duration_seconds",
		Help:      "Time spent normalizing an image into a tensor",
		Buckets:   m.histogramBuckets,
	})

	m.inferenceDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "inference_duration_seconds",
		Help:      "Time spent in one model forward pass",
		Buckets:   m.histogramBuckets,
	})

	m.decodeFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "decode_failures_total",
		Help:      "Total number of rejected uploads by reason",
	}, []string{"reason"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
}

func (m *Manager) ObservePrediction(label string, confidence float32) {
	m.predictions.WithLabelValues(label).Inc()
	m.predictionConfidence.Observe(float64(confidence))
}

func (m *Manager) RecordPredictionError(stage string) {
	m.predictionErrors.WithLabelValues(stage).Inc()
}

func (m *Manager) ObservePreprocess(d time.Duration) {
	m.preprocessDuration.Observe(d.Seconds())
}

func (m *Manager) ObserveInference(d time.Duration) {
	m.inferenceDuration.Observe(d.Seconds())
}

func (m *Manager) RecordDecodeFailure(reason string) {
	m.decodeFailures.WithLabelValues(reason).Inc()
}

func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, d time.Duration) {
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(d.Seconds())
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
