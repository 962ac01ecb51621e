package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthRejections counts rejected signed requests by reason
	// (signature, skew, replay).
	AuthRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parley_auth_rejections_total",
		Help: "Total number of rejected signed requests by reason",
	}, []string{"reason"})

	// RateLimitHits counts comment writes refused by the per-author limit.
	RateLimitHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parley_rate_limit_hits_total",
		Help: "Total number of comment writes refused by the rate limiter",
	})

	// IdempotentReplays counts writes answered from an idempotency record.
	IdempotentReplays = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parley_idempotent_replays_total",
		Help: "Total number of writes answered from a stored idempotency record",
	}, []string{"operation"})

	// TempKeysIssued counts issued temp keys by key type.
	TempKeysIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parley_temp_keys_issued_total",
		Help: "Total number of temp keys issued by key type",
	}, []string{"key_type"})

	// TempKeysConsumed counts successful single-use key validations.
	TempKeysConsumed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parley_temp_keys_consumed_total",
		Help: "Total number of temp keys consumed",
	})

	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parley_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// WebSocketConnectionsTotal is the gauge of active event-stream connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "parley_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// EventsPublished counts domain events published to the stream by type.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parley_events_published_total",
		Help: "Total number of domain events published by type",
	}, []string{"event_type"})
)
