package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ResponseTimeHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_time_seconds",
			Help:    "Histogram of response times",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// LedgerCredits counts balance credits by transaction category.
	LedgerCredits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_credits_total",
			Help: "Balance credits applied, by category",
		},
		[]string{"category"},
	)

	LedgerDebits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_debits_total",
			Help: "Balance debits applied, by category",
		},
		[]string{"category"},
	)

	AdWatchesRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ad_watches_cooldown_rejected_total",
			Help: "Ad watches rejected by the cooldown window",
		},
	)

	WithdrawalTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "withdrawal_transitions_total",
			Help: "Withdrawal state transitions, by resulting status",
		},
		[]string{"status"},
	)

	// ReferralPayouts counts secondary payouts by kind and outcome status.
	ReferralPayouts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "referral_payouts_total",
			Help: "Referral verification and commission payouts, by kind and outcome",
		},
		[]string{"kind", "status"},
	)

	EventsPublishFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_publish_failed_total",
			Help: "Events that failed to publish, by sink",
		},
		[]string{"sink"},
	)
)
