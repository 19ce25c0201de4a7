package metrics

import (
	"errors"
	"net/http"

	"github.com/Ryan-Har/gymsync/pkg/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Backend Request Metrics
var (
	// BackendRequestsTotal tracks REST calls to the workout backend by outcome
	BackendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymsync_backend_requests_total",
			Help: "Total backend requests by method, route and outcome",
		},
		[]string{"method", "route", "outcome"},
	)

	// BackendRequestDuration tracks backend latency in seconds
	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gymsync_backend_request_duration_seconds",
			Help:    "Backend request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)
)

// Session Metrics
var (
	// SessionTransitionsTotal tracks session state changes by reason
	SessionTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymsync_session_transitions_total",
			Help: "Session state transitions by reason (login/restored/logout/rejected)",
		},
		[]string{"reason"},
	)

	// SessionAuthenticated is 1 while a session is held
	SessionAuthenticated = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gymsync_session_authenticated",
			Help: "Whether the client currently holds an authenticated session",
		},
	)

	// GuardDecisionsTotal tracks access guard outcomes
	GuardDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymsync_guard_decisions_total",
			Help: "Access guard decisions by outcome",
		},
		[]string{"decision"},
	)
)

// Sync Metrics
var (
	// SyncOperationsTotal tracks controller operations by result
	SyncOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymsync_sync_operations_total",
			Help: "Sync controller operations by operation and status",
		},
		[]string{"operation", "status"},
	)

	// CachedEntities tracks how many records the entity cache holds
	CachedEntities = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gymsync_cached_entities",
			Help: "Records held in the entity cache by kind",
		},
		[]string{"kind"},
	)
)

// Outcome labels for BackendRequestsTotal.
const (
	OutcomeOK          = "ok"
	OutcomeRejected    = "rejected"
	OutcomeClientError = "client_error"
	OutcomeServerError = "server_error"
	OutcomeNetwork     = "network"
)

// RequestOutcome buckets a response status (0 for transport failures).
func RequestOutcome(status int) string {
	switch {
	case status == 0:
		return OutcomeNetwork
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return OutcomeRejected
	case status >= 500:
		return OutcomeServerError
	case status >= 400:
		return OutcomeClientError
	default:
		return OutcomeOK
	}
}

// Status labels for SyncOperationsTotal.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusBusy    = "busy"
)

// Decision labels for GuardDecisionsTotal.
const (
	DecisionAllowed      = "allowed"
	DecisionRedirected   = "redirected"
	DecisionUnauthorized = "unauthorized"
	DecisionForbidden    = "forbidden"
)

// ObserveSync records the result of a controller operation.
func ObserveSync(op string, err error) {
	status := StatusSuccess
	switch {
	case err == nil:
	case errors.Is(err, models.ErrBusy):
		status = StatusBusy
	default:
		status = StatusError
	}
	SyncOperationsTotal.WithLabelValues(op, status).Inc()
}

// ObserveSession records a session transition.
func ObserveSession(reason string, authenticated bool) {
	SessionTransitionsTotal.WithLabelValues(reason).Inc()
	SessionAuthenticated.Set(boolToFloat(authenticated))
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
