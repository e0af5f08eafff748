// Package metrics declares the prometheus collectors of the feed service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP surface
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vaultfeed",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests by route and status code",
	}, []string{"route", "code"})

	HTTPRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "vaultfeed",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request handling duration",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"route"})

	// Indexer
	IndexerQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "vaultfeed",
		Subsystem: "indexer",
		Name:      "query_duration_seconds",
		Help:      "Indexer query duration per chain",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"scope", "chain"})

	IndexerQueryErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vaultfeed",
		Subsystem: "indexer",
		Name:      "query_errors_total",
		Help:      "Indexer queries that failed after retries",
	}, []string{"scope", "chain"})

	IndexerCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vaultfeed",
		Subsystem: "indexer",
		Name:      "cache_hits_total",
		Help:      "Indexer queries answered from the memoization cache",
	})

	// Enrichment
	StrategyLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vaultfeed",
		Subsystem: "strategy",
		Name:      "lookups_total",
		Help:      "Strategy name lookups by outcome (cached, resolved, empty, failed, unsupported)",
	}, []string{"chain", "outcome"})

	StrategyPrefetchTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vaultfeed",
		Subsystem: "strategy",
		Name:      "prefetch_timeouts_total",
		Help:      "Strategy name prefetches abandoned at the deadline",
	})

	RPCCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vaultfeed",
		Subsystem: "rpc",
		Name:      "calls_total",
		Help:      "Contract calls by chain, method and status",
	}, []string{"chain", "method", "status"})

	RPCRateLimitWaits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vaultfeed",
		Subsystem: "rpc",
		Name:      "rate_limit_waits_total",
		Help:      "Contract calls delayed by the per-chain rate limiter",
	}, []string{"chain"})

	// Session
	RefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vaultfeed",
		Subsystem: "session",
		Name:      "background_refresh_total",
		Help:      "Background refresh outcomes (applied, empty, failed, cancelled, superseded)",
	}, []string{"outcome"})
)
