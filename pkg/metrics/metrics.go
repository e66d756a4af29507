package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request counters, labeled by endpoint classification rather than raw
// path to keep cardinality bounded.
var (
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "store_http_requests_total",
		Help: "HTTP requests handled, by endpoint type and status code.",
	}, []string{"endpoint_type", "status"})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "store_http_request_duration_seconds",
		Help:    "HTTP request latency by endpoint type.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint_type"})

	RateLimitRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "store_rate_limit_rejections_total",
		Help: "Requests rejected by the rate limiter, by policy bucket.",
	}, []string{"policy"})

	// AuditDrops counts audit records that could not be persisted. The
	// audit pipeline never fails the request; this counter is its only
	// failure channel.
	AuditDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "store_audit_log_drops_total",
		Help: "Audit records dropped after exhausting retries or overflowing the queue.",
	})

	AuditWrites = promauto.NewCounter(prometheus.CounterOpts{
		Name: "store_audit_log_writes_total",
		Help: "Audit records successfully persisted.",
	})

	AuthCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "store_auth_cache_hits_total",
		Help: "Auth cache lookups that returned a live entry, by cache kind.",
	}, []string{"kind"})

	AuthCacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "store_auth_cache_misses_total",
		Help: "Auth cache lookups that missed or hit an expired entry, by cache kind.",
	}, []string{"kind"})

	OrdersPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "store_orders_placed_total",
		Help: "Orders accepted at checkout.",
	})
)
