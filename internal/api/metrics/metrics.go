// Package metrics defines the custom Prometheus collectors of the accounts
// API. Collectors register with the default registry on package init, which
// is also what the echoprometheus handler serves.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "accounts"

// Registration outcomes.
const (
	OutcomeCreated      = "created"
	OutcomeInvalidInput = "invalid_input"
	OutcomeUnavailable  = "unavailable"
	OutcomeRejected     = "rejected"
	OutcomeFailed       = "failed"
	OutcomeError        = "error"
)

// RegistrationsTotal counts registration attempts by outcome.
// Labels:
//   - outcome: created, invalid_input, unavailable, rejected, failed, error
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by outcome.",
	},
	[]string{"outcome"},
)

// AccountsCreatedTotal counts accounts actually created.
// Label:
//   - user_type: "seeker" or "provider"
var AccountsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "accounts_created_total",
		Help:      "Total number of accounts created, by user type.",
	},
	[]string{"user_type"},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)
