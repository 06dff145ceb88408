// Package metrics defines the Prometheus collectors shared across the API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Webhook metrics
var (
	// WebhookEventsTotal tracks webhook events by platform and outcome
	// (processed, duplicate, ignored, invalid_signature, error).
	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Webhook events received by platform and outcome",
		},
		[]string{"platform", "outcome"},
	)

	// WebhookProcessingDuration tracks webhook processing latency in seconds.
	WebhookProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webhook_processing_duration_seconds",
			Help:    "Webhook processing duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"platform"},
	)
)

// Discord REST metrics
var (
	// DiscordAPICallsTotal tracks outgoing Discord REST calls by operation and status.
	DiscordAPICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discord_api_calls_total",
			Help: "Outgoing Discord REST calls by operation and status",
		},
		[]string{"operation", "status"},
	)

	// AnnouncementsPosted tracks streaming announcements posted by platform.
	AnnouncementsPosted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streaming_announcements_posted_total",
			Help: "Streaming announcements posted to Discord by platform",
		},
		[]string{"platform"},
	)
)

// Auth metrics
var (
	// AuthLoginsTotal tracks OAuth logins by outcome (success, failure).
	AuthLoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Discord OAuth logins by outcome",
		},
		[]string{"outcome"},
	)

	// AdminActionsTotal tracks admin actions written to the audit log.
	AdminActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_actions_total",
			Help: "Admin actions by action type",
		},
		[]string{"action"},
	)
)

// Billing metrics
var (
	// StripeEventsTotal tracks Stripe webhook events by event type.
	StripeEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stripe_events_total",
			Help: "Stripe webhook events by event type",
		},
		[]string{"event_type"},
	)
)

// Circuit breaker metrics
var (
	// CircuitBreakerState reports the current breaker state per component
	// (0 closed, 1 half-open, 2 open).
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"component"},
	)

	// CircuitBreakerStateChanges counts breaker transitions per component.
	CircuitBreakerStateChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_changes_total",
			Help: "Circuit breaker state transitions by component and new state",
		},
		[]string{"component", "state"},
	)
)

// Database metrics
var (
	// DBQueryDuration tracks query latency by repository method.
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"query"},
	)

	// DBErrorsTotal counts failed queries by statement kind.
	DBErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_errors_total",
			Help: "Total number of database errors",
		},
		[]string{"query"},
	)
)
