package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coachmem_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coachmem_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	CandidatesExtractedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coachmem_candidates_extracted_total",
			Help: "Memory candidates produced by the extractor.",
		},
		[]string{"tier"},
	)

	RecordsSavedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coachmem_records_saved_total",
			Help: "Memory records committed to the store.",
		},
		[]string{"kind"},
	)

	CandidatesRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coachmem_candidates_rejected_total",
			Help: "Candidates rejected by the persistence gate.",
		},
		[]string{"reason"},
	)

	ContextRetrievalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coachmem_context_retrievals_total",
			Help: "Memory context retrievals served.",
		},
		[]string{"mode"},
	)

	DailySummariesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "coachmem_daily_summaries_total",
			Help: "Daily summary records generated.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		CandidatesExtractedTotal,
		RecordsSavedTotal,
		CandidatesRejectedTotal,
		ContextRetrievalsTotal,
		DailySummariesTotal,
	)
}
