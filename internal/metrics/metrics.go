// Package metrics exposes Prometheus counters for console authentication.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all console metrics.
	Namespace = "console"

	// Label names
	LabelOperation = "operation"
	LabelStatus    = "status"
	LabelReason    = "reason"
	LabelMethod    = "method"
	LabelCode      = "code"

	// Status values
	StatusSuccess = "success"
	StatusFailure = "failure"

	// Operation names
	OpPINLogin             = "pin_login"
	OpBootstrap            = "bootstrap"
	OpBeginRegistration    = "begin_registration"
	OpFinishRegistration   = "finish_registration"
	OpBeginAuthentication  = "begin_authentication"
	OpFinishAuthentication = "finish_authentication"
	OpDeleteCredential     = "delete_credential"
	OpListCredentials      = "list_credentials"
	OpSessionStatus        = "session_status"
)

var (
	// AuthOperationsTotal counts authentication operations by outcome.
	AuthOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "auth_operations_total",
			Help:      "Total number of authentication operations by type and status",
		},
		[]string{LabelOperation, LabelStatus},
	)

	// AuthFailuresTotal counts failed operations by reason.
	AuthFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "auth_failures_total",
			Help:      "Total number of failed authentication operations by reason",
		},
		[]string{LabelOperation, LabelReason},
	)

	// RateLimitedTotal counts requests rejected by the login limiter.
	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "login_rate_limited_total",
			Help:      "Total number of PIN login attempts rejected by the rate limiter",
		},
	)

	// HTTPRequestsTotal counts HTTP requests by method and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by method and status code",
		},
		[]string{LabelMethod, LabelCode},
	)
)

// RecordSuccess increments the success counter for op.
func RecordSuccess(op string) {
	AuthOperationsTotal.WithLabelValues(op, StatusSuccess).Inc()
}

// RecordFailure increments the failure counters for op with reason.
func RecordFailure(op, reason string) {
	AuthOperationsTotal.WithLabelValues(op, StatusFailure).Inc()
	AuthFailuresTotal.WithLabelValues(op, reason).Inc()
}
