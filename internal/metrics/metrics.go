package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Price cache metrics
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pricecache_hits_total",
			Help: "Total number of cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pricecache_misses_total",
			Help: "Total number of cache misses",
		},
	)

	CacheRefreshes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pricecache_refreshes_total",
			Help: "Total number of successful background quote refreshes",
		},
	)

	CacheRefreshErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pricecache_refresh_errors_total",
			Help: "Total number of failed quote refreshes",
		},
	)

	CacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pricecache_evictions_total",
			Help: "Total number of symbols evicted after TTL expiry",
		},
	)

	CacheSymbols = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pricecache_symbols",
			Help: "Number of symbols currently cached",
		},
	)

	// Upstream quote source metrics
	UpstreamHTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_http_requests_total",
			Help: "Total number of HTTP requests made to the quote source",
		},
		[]string{"status"}, // status: success, retry, error
	)

	UpstreamHTTPRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "upstream_http_retries_total",
			Help: "Total number of HTTP request retries against the quote source",
		},
	)

	UpstreamRateLimitWaits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "upstream_rate_limit_waits_total",
			Help: "Total number of times a fetch waited on the upstream rate limiter",
		},
	)

	UpstreamRetryAfterWaits = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "upstream_retry_after_wait_seconds",
			Help:    "Duration of Retry-After waits in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	// Circuit breaker state: 0 = closed, 1 = open, 2 = half-open
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"name"},
	)
)
