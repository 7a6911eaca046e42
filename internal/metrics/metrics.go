package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "advisor_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint", "status"},
	)

	// Evaluation metrics
	EvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_evaluations_total",
			Help: "Total number of advisory evaluations",
		},
		[]string{"profile", "outcome"}, // outcome: issues, positive
	)

	EvaluationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "advisor_evaluation_duration_seconds",
			Help:    "Time taken to evaluate one observation",
			Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
		},
	)

	IssuesPerEvaluation = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "advisor_issues_per_evaluation",
			Help:    "Number of issues in one advisory",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 7, 10},
		},
	)

	IssuesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_issues_total",
			Help: "Total number of advisory issues raised",
		},
		[]string{"category"},
	)

	TopSeverity = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "advisor_top_severity",
			Help:    "Highest severity per non-positive advisory",
			Buckets: []float64{1, 2, 3, 4, 5},
		},
	)

	// Reading ingest metrics
	ReadingsStoredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_readings_stored_total",
			Help: "Total number of sensor readings stored",
		},
		[]string{"source"}, // source: http, mqtt
	)

	ReadingValidationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_reading_validation_errors_total",
			Help: "Total number of rejected sensor payloads",
		},
		[]string{"error_type"},
	)

	// Advisory publisher metrics
	PublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_publish_total",
			Help: "Total number of advisory events published to Kafka",
		},
		[]string{"status"}, // status: success, failed, dropped
	)

	PublishDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "advisor_publish_duration_seconds",
			Help:    "Time taken to publish an advisory event",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	PublishQueueSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "advisor_publish_queue_size",
			Help: "Advisory events waiting in the publish buffer",
		},
	)

	// Monitor metrics
	MonitorRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_monitor_runs_total",
			Help: "Total number of scheduled monitor assessments",
		},
		[]string{"outcome"}, // outcome: assessed, stale, empty, error
	)

	// Panic recovery
	PanicsRecovered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_panics_recovered_total",
			Help: "Total number of panics recovered",
		},
		[]string{"component"},
	)
)
