// Package metrics holds the Prometheus instruments for the pipeline and
// the HTTP middleware recording query API traffic.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Model gateway Prometheus metrics.
var (
	ModelRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docindex",
			Name:      "model_requests_total",
			Help:      "Total number of model invocations",
		},
		[]string{"model", "status"},
	)

	ModelRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docindex",
			Name:      "model_retries_total",
			Help:      "Total number of retried model invocations",
		},
		[]string{"model"},
	)

	ModelRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docindex",
			Name:      "model_request_duration_seconds",
			Help:      "Model invocation duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"model"},
	)
)

// Ingest pipeline Prometheus metrics.
var (
	IngestRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docindex",
			Name:      "ingest_records_total",
			Help:      "Total ingest records by outcome",
		},
		[]string{"outcome"}, // "processed" / "failed"
	)

	IngestStageFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docindex",
			Name:      "ingest_stage_failures_total",
			Help:      "Ingest record failures by pipeline stage",
		},
		[]string{"stage"},
	)
)

var registered bool

// Register registers pipeline metrics. Must be called once from main.
func Register() {
	if registered {
		return
	}
	prometheus.MustRegister(ModelRequestsTotal)
	prometheus.MustRegister(ModelRetriesTotal)
	prometheus.MustRegister(ModelRequestDuration)
	prometheus.MustRegister(IngestRecordsTotal)
	prometheus.MustRegister(IngestStageFailuresTotal)
	registered = true
}
