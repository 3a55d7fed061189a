// Package metrics defines and registers all custom Prometheus metrics for
// the assessment API. It is the single source of truth for metric names,
// labels, and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "assessment"

// LoginsTotal counts login attempts by outcome.
// Label:
//   - result: "accepted", "rejected" or "throttled"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// TokenRenewalsTotal counts tokens minted through the renewal path.
var TokenRenewalsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_renewals_total",
		Help:      "Total number of session tokens issued via renewal.",
	},
)

// AuthzDenialsTotal counts policy and access denials.
// Label:
//   - operation: short name of the denied operation (e.g. "user_update")
var AuthzDenialsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authz_denials_total",
		Help:      "Total number of authorization denials, by operation.",
	},
	[]string{"operation"},
)

// NotificationsTotal counts coach notification attempts by outcome.
// Label:
//   - result: "sent", "throttled", "denied" or "unconfigured"
var NotificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Total number of coach notification attempts, by result.",
	},
	[]string{"result"},
)

// LoginDuration measures wall time of the login path, artificial delay
// included.
var LoginDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "login_duration_seconds",
		Help:      "Duration of login requests end-to-end.",
		Buckets:   prometheus.DefBuckets,
	},
)
