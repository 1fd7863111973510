// Package metrics defines the Prometheus collectors of the BookNet API.
// All collectors register with the default registry through promauto and are
// exposed by the /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "booknet"

// HTTPRequestsTotal counts handled requests.
// Labels:
//   - method: HTTP method
//   - route: matched gin route pattern, or "unmatched"
//   - status: response status code
var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests handled.",
	},
	[]string{"method", "route", "status"},
)

// HTTPRequestDuration measures request latency per route.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)

// AuthEventsTotal counts authentication flow outcomes.
// Labels:
//   - event: register, login, logout, forgot_password, reset_password
//   - outcome: success or a short failure reason (e.g. "duplicate", "bad_password")
var AuthEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_events_total",
		Help:      "Total number of authentication flow outcomes.",
	},
	[]string{"event", "outcome"},
)

// CartMergesTotal counts guest cart merges by outcome (merged, empty, failed).
var CartMergesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_merges_total",
		Help:      "Total number of guest cart merges attempted.",
	},
	[]string{"outcome"},
)

// UploadsTotal counts upload requests per category and outcome (stored or rejection code).
var UploadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "uploads_total",
		Help:      "Total number of upload requests.",
	},
	[]string{"category", "outcome"},
)

// MailDeliveriesTotal counts mail delivery outcomes (sent, failed, dropped).
var MailDeliveriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mail_deliveries_total",
		Help:      "Total number of outgoing mail delivery outcomes.",
	},
	[]string{"outcome"},
)

// MailQueueDepth tracks messages waiting in the dispatcher.
var MailQueueDepth = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "mail_queue_depth",
		Help:      "Current number of messages waiting for a mail worker.",
	},
)

// ResetTokensPurgedTotal counts expired reset tokens cleared by the sweeper.
var ResetTokensPurgedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reset_tokens_purged_total",
		Help:      "Total number of expired password reset tokens cleared.",
	},
)
