package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the custom Prometheus metrics for AI orchestration.
type Metrics struct {
	AIRequests       prometheus.Counter
	AIRequestLatency prometheus.Histogram
	AIErrors         *prometheus.CounterVec
	AIRetries        prometheus.Counter
	SpecDocuments    prometheus.Counter
}

var globalMetrics *Metrics

// InitMetrics initializes the Prometheus metrics
func InitMetrics() *Metrics {
	metrics := &Metrics{
		// Orchestration requests (one per chat/generate call, not per attempt)
		AIRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "planai_ai_requests_total",
			Help: "Total number of AI orchestration requests processed",
		}),

		AIRequestLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "planai_ai_request_duration_seconds",
			Help:    "AI orchestration latency in seconds, including retries",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120}, // backoff alone can reach 14s
		}),

		AIErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "planai_ai_errors_total",
			Help: "Total number of AI orchestration errors by type",
		}, []string{"error_type"}), // "completion" or "parse"

		AIRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "planai_ai_retries_total",
			Help: "Total number of completion attempts beyond the first",
		}),

		SpecDocuments: promauto.NewCounter(prometheus.CounterOpts{
			Name: "planai_spec_documents_generated_total",
			Help: "Total number of specification documents generated",
		}),
	}

	globalMetrics = metrics
	return metrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	return globalMetrics
}

// RecordAIRequest records an AI orchestration request
func (m *Metrics) RecordAIRequest() {
	if m == nil {
		return
	}
	m.AIRequests.Inc()
}

// RecordAILatency records end-to-end AI orchestration latency
func (m *Metrics) RecordAILatency(seconds float64) {
	if m == nil {
		return
	}
	m.AIRequestLatency.Observe(seconds)
}

// RecordAIError records an AI orchestration error
func (m *Metrics) RecordAIError(errorType string) {
	if m == nil {
		return
	}
	m.AIErrors.WithLabelValues(errorType).Inc()
}

// RecordAIRetry records a completion retry
func (m *Metrics) RecordAIRetry() {
	if m == nil {
		return
	}
	m.AIRetries.Inc()
}

// RecordSpecDocument records a generated specification document
func (m *Metrics) RecordSpecDocument() {
	if m == nil {
		return
	}
	m.SpecDocuments.Inc()
}
