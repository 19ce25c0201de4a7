package enforcer

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Ryan-Har/gymsync/internal/logutil"
)

// Router defines an abstraction for registering routes.
// It allows Enforcer to remain decoupled from specific HTTP frameworks;
// chi.Router and *http.ServeMux both satisfy it.
type Router interface {
	Handle(pattern string, handler http.Handler)
}

// Handle registers an HTTP handler with the router for the given route pattern.
// The route string can be either:
//
//	"/path"          // matches all HTTP methods for /path
//	"METHOD /path"   // matches only HTTP requests with METHOD (GET, POST, etc.)
//
// Registering the same method and path twice returns a DuplicatePathAndMethodError.
// The handler is wrapped with authentication and authorization middlewares
// based on the policies in effect when the request arrives.
func (e *Enforcer) Handle(route string, handler http.Handler) error {
	if handler == nil {
		return logutil.LogAndWrapErr(e.log, "cannot register handler", fmt.Errorf("nil handler for route %q", route))
	}

	method, path := parseRoute(route)

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.handlers[path]; !exists {
		e.handlers[path] = make(map[string]http.Handler)
		e.router.Handle(path, e.dispatch(path))
	}

	if _, exists := e.handlers[path][method]; exists {
		return logutil.LogAndWrapErr(e.log, "attempted to add duplicate path to enforcer",
			NewDuplicatePathAndMethodError(path, method))
	}

	e.log.Debug("enforcer handling route", "method", method, "path", path)
	e.handlers[path][method] = handler
	return nil
}

// HandleFunc is a convenience wrapper around Handle that accepts
// an http.HandlerFunc instead of a full http.Handler.
func (e *Enforcer) HandleFunc(route string, handlerFunc http.HandlerFunc) error {
	return e.Handle(route, handlerFunc)
}

// dispatch returns the single handler registered with the router for path.
// It picks the method specific handler, falling back to the any-method one.
func (e *Enforcer) dispatch(path string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer logutil.NewTimingLogger(e.log, time.Now(), "access handled", "method", r.Method, "path", r.URL.Path, "remote_ip", r.RemoteAddr)()

		e.mu.RLock()
		h, ok := e.handlers[path][r.Method]
		if !ok {
			h, ok = e.handlers[path][""]
		}
		e.mu.RUnlock()

		if !ok {
			e.respondMethodNotAllowed(w, r)
			return
		}
		e.WrapHandler(path, r.Method, h).ServeHTTP(w, r)
	})
}

// parseRoute parses a route string into method and path components.
// Valid formats are:
//
//	"METHOD /path"   e.g. "POST /workouts"
//	"/path"          e.g. "/workouts"
//
// If the method is omitted, the returned method string is empty,
// meaning the route applies to all HTTP methods.
func parseRoute(route string) (method, path string) {
	parts := strings.Fields(route)
	switch len(parts) {
	case 0:
		return "", "/"
	case 1:
		if strings.HasPrefix(parts[0], "/") {
			return "", parts[0]
		}
		// method but no path
		return strings.ToUpper(parts[0]), "/"
	default:
		return strings.ToUpper(parts[0]), strings.ToLower(parts[1])
	}
}

var ErrDuplicatePathAndMethod = &DuplicatePathAndMethodError{}

type DuplicatePathAndMethodError struct {
	Method string
	Path   string
}

func NewDuplicatePathAndMethodError(path, method string) *DuplicatePathAndMethodError {
	return &DuplicatePathAndMethodError{
		Method: method,
		Path:   path,
	}
}

func (e *DuplicatePathAndMethodError) Error() string {
	return fmt.Sprintf("enforcer: duplicate path: %s and method: %s attempted", e.Path, e.Method)
}

func (e *DuplicatePathAndMethodError) Is(target error) bool {
	_, ok := target.(*DuplicatePathAndMethodError)
	return ok
}
