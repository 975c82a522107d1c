// Package observability holds the Prometheus metrics exported on /metrics.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Ledger Metrics ─────────────────────────────────────────────────────────

// LedgerAggregations counts aggregation passes by outcome.
var LedgerAggregations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "votecast",
	Subsystem: "ledger",
	Name:      "aggregations_total",
	Help:      "Ledger aggregation passes by outcome (ok, error)",
}, []string{"outcome"})

// LedgerPaymentsAggregated counts payment records by inclusion decision.
var LedgerPaymentsAggregated = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "votecast",
	Subsystem: "ledger",
	Name:      "payments_total",
	Help:      "Payment records seen by the aggregator (included, excluded)",
}, []string{"decision"})

// ─── Scheme Metrics ─────────────────────────────────────────────────────────

// SchemeResolutions counts scheme lookups by source.
var SchemeResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "votecast",
	Subsystem: "scheme",
	Name:      "resolutions_total",
	Help:      "Scheme resolutions by source (event, default, fallback, none)",
}, []string{"source"})

// ─── Withdrawal Metrics ─────────────────────────────────────────────────────

// WithdrawalTransitions counts accepted state transitions.
var WithdrawalTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "votecast",
	Subsystem: "withdrawal",
	Name:      "transitions_total",
	Help:      "Accepted withdrawal state transitions",
}, []string{"from", "to"})

// WithdrawalRejections counts refused operations by reason.
var WithdrawalRejections = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "votecast",
	Subsystem: "withdrawal",
	Name:      "rejections_total",
	Help:      "Refused withdrawal operations (insufficient_balance, invalid_state, validation, payout_failed)",
}, []string{"reason"})

// WithdrawalPayoutSeconds observes payout gateway latency.
var WithdrawalPayoutSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "votecast",
	Subsystem: "withdrawal",
	Name:      "payout_seconds",
	Help:      "Payout gateway call latency",
	Buckets:   prometheus.DefBuckets,
})

// LockWaitSeconds observes time spent waiting for a per-organizer lock.
var LockWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "votecast",
	Subsystem: "withdrawal",
	Name:      "lock_wait_seconds",
	Help:      "Time spent acquiring the per-organizer withdrawal lock",
	Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
})
