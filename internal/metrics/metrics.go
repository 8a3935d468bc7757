// Package metrics defines Prometheus metrics for the crawler and its status API.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Fetch attempt outcomes.
const (
	OutcomeFetched   = "fetched"
	OutcomePresent   = "already_present"
	OutcomeSkipped   = "skipped"
	OutcomeBad       = "bad"
	OutcomeTransient = "transient"
)

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vchain_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vchain_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vchain_errors_total",
			Help: "Total errors by type",
		},
		[]string{"type"},
	)

	FetchAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vchain_fetch_attempts_total",
			Help: "Report fetch attempts by outcome",
		},
		[]string{"outcome"},
	)

	EdgesIngested = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vchain_edges_ingested_total",
			Help: "Edges written to the store",
		},
	)

	BadIdentifiers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vchain_bad_identifiers_total",
			Help: "Identifiers recorded as bad, by reason",
		},
		[]string{"reason"},
	)

	FrontierSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vchain_frontier_size",
			Help: "Identifiers in the most recently computed frontier",
		},
	)

	PlanSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vchain_plan_size",
			Help: "Identifiers in the most recently computed fetch plan",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, ErrorsTotal,
		FetchAttempts, EdgesIngested, BadIdentifiers,
		FrontierSize, PlanSize,
	)
}
