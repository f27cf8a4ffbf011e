// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsRouted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "support_requests_routed_total",
			Help: "Total number of requests routed, by bucket and action",
		},
		[]string{"bucket", "action"},
	)

	RequestsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "support_requests_failed_total",
			Help: "Total number of requests that failed at an upstream capability",
		},
		[]string{"step"},
	)

	SentimentEscalations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "support_sentiment_escalations_total",
			Help: "Total number of bucket overrides triggered by negative sentiment",
		},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "support_request_duration_seconds",
			Help: "End-to-end request processing duration in seconds",
		},
		[]string{"bucket"},
	)

	RetrievalDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "support_retrieval_duration_seconds",
			Help:    "Duration of embed plus similarity search in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		},
	)

	EmbeddingCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "support_embedding_cache_hits_total",
			Help: "Query embedding cache hits",
		},
	)

	EmbeddingCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "support_embedding_cache_misses_total",
			Help: "Query embedding cache misses",
		},
	)

	LLMTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "support_llm_tokens_total",
			Help: "LLM tokens consumed, by direction",
		},
		[]string{"direction"},
	)

	LLMCostUSD = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "support_llm_cost_usd_total",
			Help: "Estimated LLM spend in USD",
		},
	)
)
