package enforcer

import (
	"context"
	"net/http"
	"strings"

	"github.com/Ryan-Har/gymsync/api"
	"github.com/Ryan-Har/gymsync/internal/metrics"
	"github.com/Ryan-Har/gymsync/pkg/models"
)

type contextKey string

const IdentityContextKey contextKey = "identity"

// IdentityFromContext returns the identity AuthenticationMiddleware stored.
// The zero Identity (a guest) is returned when nobody is logged in.
func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(IdentityContextKey).(models.Identity)
	if !ok || id.Username == "" {
		return models.Identity{}, false
	}
	return id, true
}

// AuthenticationMiddleware reads the current session and attaches the
// identity to the request context. A missing session attaches the zero
// Identity; it never rejects a request on its own.
func (e *Enforcer) AuthenticationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var identity models.Identity
		if e.session != nil {
			if id, ok := e.session.Identity(); ok {
				identity = id
			}
		}

		ctx := context.WithValue(r.Context(), IdentityContextKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AuthorizationMiddleware returns an HTTP middleware that ensures the caller has
// the required role for accessing a specific path.
//
// It expects AuthenticationMiddleware to have run first. A guest that needs
// to log in is redirected to RedirectOnAuthErrorPath (303 See Other), or
// receives a JSON 401 for API requests. The wrapped handler is not invoked
// in either case.
func (e *Enforcer) AuthorizationMiddleware(path string, required models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, _ := r.Context().Value(IdentityContextKey).(models.Identity)

			if identity.Role().AtLeast(required) {
				metrics.GuardDecisionsTotal.WithLabelValues(metrics.DecisionAllowed).Inc()
				next.ServeHTTP(w, r)
				return
			}

			if identity.Role() == models.RoleGuest {
				e.log.Debug("guest denied protected route", "path", path, "method", r.Method, "required", required)
				e.respondUnauthenticated(w, r)
				return
			}

			e.log.Info("access denied", "path", path, "username", identity.Username, "required", required)
			e.respondForbidden(w, r)
		})
	}
}

// WrapHandler applies authentication and, if a policy exists, authorization middleware
// to the given handler. It returns the fully wrapped http.Handler.
//
// If a policy is found and the role is not RoleGuest, authorization is added.
// Authentication is always applied.
func (e *Enforcer) WrapHandler(path, method string, h http.Handler) http.Handler {
	requiredRole, _ := e.FindMatchingPolicy(path, method)

	// Guest by default, so no need to authorize
	if requiredRole != models.RoleGuest {
		h = e.AuthorizationMiddleware(path, requiredRole)(h)
	}

	return e.AuthenticationMiddleware(h)
}

// isAPIRequest checks if a request is an API request by checking that both an accept header exists with json
// and the path contains "api" somewhere
func isAPIRequest(r *http.Request) bool {
	acceptsJSON := strings.Contains(r.Header.Get("Accept"), "json")
	pathContainsAPI := strings.Contains(r.URL.Path, "api")
	return acceptsJSON && pathContainsAPI
}

func (e *Enforcer) respondUnauthenticated(w http.ResponseWriter, r *http.Request) {
	if isAPIRequest(r) {
		metrics.GuardDecisionsTotal.WithLabelValues(metrics.DecisionUnauthorized).Inc()
		api.ReturnError(w, e.log, api.UnauthorizedNotAuthenticated)
		return
	}
	metrics.GuardDecisionsTotal.WithLabelValues(metrics.DecisionRedirected).Inc()
	http.Redirect(w, r, e.RedirectOnAuthErrorPath, http.StatusSeeOther)
}

func (e *Enforcer) respondForbidden(w http.ResponseWriter, r *http.Request) {
	metrics.GuardDecisionsTotal.WithLabelValues(metrics.DecisionForbidden).Inc()
	if isAPIRequest(r) {
		api.ReturnError(w, e.log, api.ForbiddenAccessDenied)
	} else {
		http.Error(w, "Forbidden", http.StatusForbidden)
	}
}

func (e *Enforcer) respondMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	if isAPIRequest(r) {
		api.ReturnError(w, e.log, api.MethodNotAllowed)
	} else {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
