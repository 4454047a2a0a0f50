// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// ConsensusRunsTotal tracks consensus state-machine runs by outcome.
	ConsensusRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consensus_runs_total",
			Help: "Total consensus processing runs by final status",
		},
		[]string{"status"},
	)

	// ConsensusIterations tracks how many rounds trips take to converge.
	ConsensusIterations = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "consensus_iterations_at_finalize",
			Help:    "Iteration count at the moment a consensus is finalized",
			Buckets: []float64{1, 2, 3, 4, 5},
		},
	)

	// LLMFallbacksTotal tracks heuristic fallbacks per pipeline component.
	LLMFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_fallbacks_total",
			Help: "Generative calls that fell back to the deterministic heuristic",
		},
		[]string{"component"},
	)

	// LLMCallDuration tracks structured-generation call duration.
	LLMCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_call_duration_seconds",
			Help:    "Structured LLM call duration",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30},
		},
		[]string{"component", "status"},
	)

	// PhotoLookupsTotal tracks place-photo lookups by result.
	PhotoLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "place_photo_lookups_total",
			Help: "Place photo lookups by result (hit, fallback, cached)",
		},
		[]string{"result"},
	)

	// MessagesTotal tracks total trip messages posted.
	MessagesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trip_messages_total",
			Help: "Total trip messages posted",
		},
	)

	// TripsTotal tracks total trips created.
	TripsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trips_total",
			Help: "Total trips created",
		},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordConsensusRun records the outcome of one consensus run.
func RecordConsensusRun(status string, iterations int, finalized bool) {
	ConsensusRunsTotal.WithLabelValues(status).Inc()
	if finalized {
		ConsensusIterations.Observe(float64(iterations))
	}
}

// RecordLLMCall records one structured-generation attempt.
func RecordLLMCall(component, status string, duration float64) {
	LLMCallDuration.WithLabelValues(component, status).Observe(duration)
}

// RecordFallback records a heuristic fallback for a component.
func RecordFallback(component string) {
	LLMFallbacksTotal.WithLabelValues(component).Inc()
}
