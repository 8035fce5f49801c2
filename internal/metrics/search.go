package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search Prometheus metrics.
var (
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "corpusgate",
			Name:      "searches_total",
			Help:      "Total number of executed searches",
		},
		[]string{"type", "reason"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "corpusgate",
			Name:      "search_duration_seconds",
			Help:      "End-to-end search duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"type"},
	)

	SearchResults = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "corpusgate",
			Name:      "search_results",
			Help:      "Merged result count per search",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
		},
		[]string{"type"},
	)

	CollectionFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "corpusgate",
			Name:      "collection_failures_total",
			Help:      "Collection queries that errored or timed out",
		},
		[]string{"corpus"},
	)

	CorpusConnectedGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "corpusgate",
			Name:      "corpora_connected",
			Help:      "Number of corpora currently connected",
		},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchesTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(SearchResults)
	prometheus.MustRegister(CollectionFailuresTotal)
	prometheus.MustRegister(CorpusConnectedGauge)
	searchMetricsRegistered = true
}
