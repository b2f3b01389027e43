package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueriesResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "query_resolutions_total",
			Help: "Total number of resolved queries by category and strategy",
		},
		[]string{"category", "strategy"},
	)

	QueriesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "query_resolutions_failed_total",
			Help: "Total number of queries that fell through every strategy",
		},
		[]string{"error_code"},
	)

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "query_cache_hits_total",
			Help: "Total number of cache hits by tenant",
		},
		[]string{"tenant"},
	)

	StrategyFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "query_strategy_fallbacks_total",
			Help: "Times a strategy was skipped and the next one tried",
		},
		[]string{"strategy"},
	)

	ResolveDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "query_resolve_duration_seconds",
			Help: "Duration of query resolution in seconds",
		},
		[]string{"category"},
	)

	ContextsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "conversation_contexts_active",
			Help: "Number of live conversation contexts",
		},
	)
)
