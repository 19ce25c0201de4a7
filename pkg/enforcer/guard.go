package enforcer

import (
	"context"

	"github.com/Ryan-Har/gymsync/internal/metrics"
	"github.com/Ryan-Har/gymsync/pkg/models"
)

// Protected is a view that may only run for an authenticated identity.
type Protected[T any] func(ctx context.Context, identity models.Identity) (T, error)

// Guard wraps view so that it only runs while sess holds a session.
// Otherwise the returned func yields models.ErrNotAuthenticated without
// calling view. The session is consulted on every call.
func Guard[T any](sess SessionSource, view Protected[T]) func(ctx context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		identity, ok := sess.Identity()
		if !ok {
			metrics.GuardDecisionsTotal.WithLabelValues(metrics.DecisionUnauthorized).Inc()
			var zero T
			return zero, &models.NotAuthenticatedError{}
		}
		metrics.GuardDecisionsTotal.WithLabelValues(metrics.DecisionAllowed).Inc()
		return view(ctx, identity)
	}
}
