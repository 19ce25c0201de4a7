// Package enforcer gates what an unauthenticated caller can reach.
//
// Every route registered through an Enforcer is wrapped with middleware that
// reads the live session on each request, so a logout takes effect on the
// very next render. Non-HTTP callers use Guard.
package enforcer

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/Ryan-Har/gymsync/internal/logutil"
	"github.com/Ryan-Har/gymsync/pkg/models"
)

// Enforcer manages access control policies and wraps route handlers with
// authentication and authorization logic. It is typically used to guard routes
// based on roles defined in the Policies map.
type Enforcer struct {
	log      *slog.Logger
	Policies map[string]map[string]models.Role  // e.g route: {GET: RoleGuest, POST: RoleUser}
	handlers map[string]map[string]http.Handler // path -> method -> handler internal mapping
	router   Router                             // used for middlewares and creating routes
	session  SessionSource
	Config
	mu sync.RWMutex // mutex to protect policies and handlers maps
}

type Config struct {
	RedirectOnAuthErrorPath string // path of the redirection location when authentication fails
}

// SessionSource is the part of the session store the enforcer consults.
// Identity reports false while nobody is logged in.
type SessionSource interface {
	Identity() (models.Identity, bool)
}

// NewEnforcer initializes and returns a new Enforcer instance.
//
// Params:
//   - logger: structured logger, nil discards
//   - router: an implementation of the Router interface used to register routes
//   - sess: the session consulted on every request
//   - config: nil uses the defaults (redirect to /login)
//
// Example:
//
//	enforcer := NewEnforcer(logger, chiRouter, sessionStore, nil)
func NewEnforcer(logger *slog.Logger, router Router, sess SessionSource, config *Config) *Enforcer {
	if config == nil {
		config = newDefaultConfig()
	}
	if logger == nil {
		logger = logutil.Discard()
	}

	return &Enforcer{
		log:      logger.With("component", "enforcer"),
		Policies: make(map[string]map[string]models.Role),
		handlers: make(map[string]map[string]http.Handler),
		router:   router,
		session:  sess,
		Config:   *config,
	}
}

// new default config returns a pointer to Config with the default options
func newDefaultConfig() *Config {
	return &Config{
		RedirectOnAuthErrorPath: "/login",
	}
}

// SetPolicy allows defining the minimum required role for a given resource path and HTTP method.
// Use "*" as the method to apply the policy to all methods for that path.
func (e *Enforcer) SetPolicy(resourcePath string, method string, requiredRole models.Role) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !strings.HasPrefix(resourcePath, "/") {
		resourcePath = "/" + resourcePath
	}
	if _, ok := e.Policies[resourcePath]; !ok {
		e.Policies[resourcePath] = make(map[string]models.Role)
	}
	e.Policies[resourcePath][strings.ToUpper(method)] = requiredRole
}

// FindMatchingPolicy finds the most specific policy for a given resource path and method.
// It prioritizes exact method matches over wildcard method matches.
func (e *Enforcer) FindMatchingPolicy(resourcePath, method string) (models.Role, bool) {
	method = strings.ToUpper(method)

	pathsToCheck := buildPrefixes(resourcePath)

	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, p := range pathsToCheck {
		methodPolicies, ok := e.Policies[p]
		if !ok {
			continue
		}
		if requiredRole, ok := methodPolicies[method]; ok {
			return requiredRole, true
		}
		if requiredRole, ok := methodPolicies["*"]; ok {
			return requiredRole, true
		}
	}

	return models.RoleGuest, false
}

// buildPrefixes returns a list of paths to check from most specific to least specific.
// For "/a/b/c" it returns ["/a/b/c", "/a/b", "/a", "/"].
func buildPrefixes(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return []string{"/"}
	}

	segments := strings.Split(trimmed, "/")
	prefixes := make([]string, 0, len(segments)+1)
	for i := len(segments); i > 0; i-- {
		prefixes = append(prefixes, "/"+strings.Join(segments[:i], "/"))
	}
	return append(prefixes, "/")
}
