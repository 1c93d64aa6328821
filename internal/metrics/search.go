package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Search engine Prometheus metrics.
var (
	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "appsearch",
			Name:      "search_duration_seconds",
			Help:      "Search request wall-clock duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"index", "doc_type"},
	)

	SearchTook = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "appsearch",
			Name:      "search_took_seconds",
			Help:      "Search duration reported by the engine in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"index", "doc_type"},
	)

	SearchErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "appsearch",
			Name:      "search_errors_total",
			Help:      "Total failed search requests",
		},
		[]string{"index", "kind"},
	)

	SearchStaleHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "appsearch",
			Name:      "search_stale_hits_total",
			Help:      "Hits dropped because the entity is gone from the system of record",
		},
		[]string{"doc_type"},
	)

	IndexDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "appsearch",
			Name:      "index_documents_total",
			Help:      "Documents sent to the search index",
		},
		[]string{"index", "status"}, // "indexed" / "failed"
	)

	DegradedResponsesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "appsearch",
			Name:      "degraded_responses_total",
			Help:      "Listing responses served empty because search was unavailable",
		},
		[]string{"listing"},
	)
)

var registerSearch sync.Once

// RegisterSearchMetrics registers the search metrics with the default registry.
// Safe to call more than once.
func RegisterSearchMetrics() {
	registerSearch.Do(func() {
		prometheus.MustRegister(
			SearchDuration,
			SearchTook,
			SearchErrorsTotal,
			SearchStaleHitsTotal,
			IndexDocumentsTotal,
			DegradedResponsesTotal,
		)
	})
}
