package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tabisearch",
			Name:      "search_requests_total",
			Help:      "Total number of retrieval requests",
		},
		[]string{"mode", "status"}, // mode: "single" / "expand_seq" / "expand_par"
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tabisearch",
			Name:      "search_duration_seconds",
			Help:      "Retrieval duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"mode"},
	)

	ResultCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tabisearch",
			Name:      "result_cache_total",
			Help:      "Result cache hits and misses by namespace",
		},
		[]string{"namespace", "result"}, // result: "hit" / "miss"
	)

	ExpansionVariantsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tabisearch",
			Name:      "expansion_variants_total",
			Help:      "Per-variant search outcomes during query expansion",
		},
		[]string{"result"}, // "success" / "failure"
	)
)

// Embedding Prometheus metrics.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tabisearch",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"provider", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tabisearch",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	EmbeddingErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tabisearch",
			Name:      "embedding_errors_total",
			Help:      "Total embedding errors",
		},
		[]string{"provider", "model", "error_type"},
	)

	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tabisearch",
			Name:      "embedding_tokens_total",
			Help:      "Total embedding tokens consumed",
		},
		[]string{"provider", "model", "type"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tabisearch",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

// RegisterRetrievalMetrics registers all retrieval and embedding collectors.
// Called explicitly from the composition root (no init()).
func RegisterRetrievalMetrics() {
	prometheus.MustRegister(
		SearchRequestsTotal,
		SearchDuration,
		ResultCacheTotal,
		ExpansionVariantsTotal,
		EmbeddingRequestsTotal,
		EmbeddingRequestDuration,
		EmbeddingErrorsTotal,
		EmbeddingTokensTotal,
		EmbeddingCacheTotal,
	)
}
