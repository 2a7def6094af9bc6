// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "facetdex"

// Operation status label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Search and indexing Prometheus metrics.
var (
	SearchOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_operations_total",
			Help:      "Total number of search operations",
		},
		[]string{"operation", "status"},
	)

	SearchOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_operation_duration_seconds",
			Help:      "Search operation duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	FacetExpansionQueriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "facet_expansion_queries_total",
			Help:      "Total number of facet-expansion sub-queries",
		},
	)

	IndexedDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "indexed_documents_total",
			Help:      "Documents written to the search index",
		},
		[]string{"index"},
	)

	IndexingFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "indexing_failures_total",
			Help:      "Documents rejected by the search index",
		},
		[]string{"index"},
	)

	DeletedDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deleted_documents_total",
			Help:      "Documents removed from the search index",
		},
		[]string{"index"},
	)
)

var registerOnce sync.Once

// Register registers every collector with the default registry. Must be called from main.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequestDuration,
			httpRequestsTotal,
			SearchOperationsTotal,
			SearchOperationDuration,
			FacetExpansionQueriesTotal,
			IndexedDocumentsTotal,
			IndexingFailuresTotal,
			DeletedDocumentsTotal,
		)
	})
}

// Status maps an error to the status label.
func Status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusOK
}
