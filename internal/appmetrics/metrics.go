package appmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebhookRequestsTotal counts Stripe webhook requests by event type and status.
	WebhookRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "courtside",
		Subsystem: "billing",
		Name:      "webhook_requests_total",
		Help:      "Total Stripe webhook requests by event type and HTTP status.",
	}, []string{"event_type", "status"})

	// WebhookDuration tracks Stripe webhook processing latency.
	WebhookDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "courtside",
		Subsystem: "billing",
		Name:      "webhook_duration_seconds",
		Help:      "Stripe webhook processing duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"event_type"})

	// ReconcileTotal counts membership reconciliation operations by outcome.
	ReconcileTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "courtside",
		Subsystem: "billing",
		Name:      "reconcile_total",
		Help:      "Membership reconciliation operations by operation and outcome.",
	}, []string{"operation", "outcome"})

	// ModelPicksServed counts model pick slates served to pro members.
	ModelPicksServed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "courtside",
		Subsystem: "picks",
		Name:      "model_picks_served_total",
		Help:      "Total model pick slates served to pro members.",
	})

	// LeaderboardQueries counts leaderboard aggregation queries.
	LeaderboardQueries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "courtside",
		Subsystem: "picks",
		Name:      "leaderboard_queries_total",
		Help:      "Total leaderboard aggregation queries served.",
	})
)
