package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "linkboard_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// VotesTotal counts vote ledger writes by subject and action (cast, clear).
	VotesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkboard_votes_total",
		Help: "Total number of vote ledger writes",
	}, []string{"subject", "action"})

	// VoteUpsertRetries counts upserts that lost the insert race and were retried as updates.
	VoteUpsertRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkboard_vote_upsert_retries_total",
		Help: "Total number of vote upserts retried after a unique-key conflict",
	}, []string{"subject"})

	// IdempotentReplays counts create requests answered from a stored Idempotency-Key.
	IdempotentReplays = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkboard_idempotent_replays_total",
		Help: "Total number of create requests replayed from an idempotency key",
	})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
