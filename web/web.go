// Package web serves the local UI: login and register pages for guests and
// a dashboard of workouts and routines behind the access guard.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Ryan-Har/gymsync/internal/logutil"
	"github.com/Ryan-Har/gymsync/internal/metrics"
	"github.com/Ryan-Har/gymsync/pkg/apiclient"
	"github.com/Ryan-Har/gymsync/pkg/controller"
	"github.com/Ryan-Har/gymsync/pkg/enforcer"
	"github.com/Ryan-Har/gymsync/pkg/models"
)

// SessionStore is the part of the session the UI drives.
type SessionStore interface {
	Login(ctx context.Context, username, password string) error
	Register(ctx context.Context, username, password, confirm string) (apiclient.RegisteredUser, error)
	Logout(ctx context.Context)
	Identity() (models.Identity, bool)
}

// Controller is the part of the sync controller the UI drives.
type Controller interface {
	Snapshot() controller.Snapshot
	Refresh(ctx context.Context) error
	CreateWorkout(ctx context.Context, name, description string) (models.Workout, error)
	DeleteWorkout(ctx context.Context, id int64) error
	CreateRoutine(ctx context.Context, name, description string, workoutIDs []int64) (models.Routine, error)
	ComposeRoutine(ctx context.Context, name, description string) (models.Routine, error)
	DeleteRoutine(ctx context.Context, id int64) error
	ToggleSelection(id int64) (bool, error)
}

type Site struct {
	enforcer *enforcer.Enforcer
	handler  *Handler
}

type Handler struct {
	log     *slog.Logger
	sess    SessionStore
	ctrl    Controller
	render  *renderer
	metrics http.Handler
}

// New parses the embedded templates and returns a Site ready to register
// its routes on e.
func New(logger *slog.Logger, e *enforcer.Enforcer, sess SessionStore, ctrl Controller) (*Site, error) {
	if logger == nil {
		logger = logutil.Discard()
	}
	r, err := newRenderer()
	if err != nil {
		return nil, err
	}
	return &Site{
		enforcer: e,
		handler: &Handler{
			log:     logger.With("component", "web"),
			sess:    sess,
			ctrl:    ctrl,
			render:  r,
			metrics: metrics.Handler(),
		},
	}, nil
}

// LoadAllRoutes registers every page on the enforcer.
// Registration failures are combined with errors.Join.
func (s *Site) LoadAllRoutes() error {
	return errors.Join(
		s.LoadAuthRoutes(),
		s.LoadDashboardRoutes(),
		s.LoadAPIRoutes(),
	)
}

// LoadAuthRoutes registers the login, register and logout handlers.
func (s *Site) LoadAuthRoutes() error {
	return s.registerRoutes(map[string]http.HandlerFunc{
		"GET /login":     s.handler.handleLoginGet(),
		"POST /login":    s.handler.handleLoginPost(),
		"GET /register":  s.handler.handleRegisterGet(),
		"POST /register": s.handler.handleRegisterPost(),
		"POST /logout":   s.handler.handleLogoutPost(),
	})
}

// LoadDashboardRoutes registers the dashboard and the forms it posts.
func (s *Site) LoadDashboardRoutes() error {
	return s.registerRoutes(map[string]http.HandlerFunc{
		"GET /":                 s.handler.handleDashboardGet(),
		"POST /refresh":         s.handler.handleRefreshPost(),
		"POST /workouts":        s.handler.handleWorkoutCreate(),
		"POST /workouts/delete": s.handler.handleWorkoutDelete(),
		"POST /routines":        s.handler.handleRoutineCreate(),
		"POST /routines/delete": s.handler.handleRoutineDelete(),
		"POST /routines/select": s.handler.handleRoutineSelect(),
	})
}

func (s *Site) LoadAPIRoutes() error {
	return s.registerRoutes(map[string]http.HandlerFunc{
		"GET /api/state":     s.handler.handleAPIState(),
		"POST /api/workouts": s.handler.handleAPIWorkoutCreate(),
		"POST /api/routines": s.handler.handleAPIRoutineCreate(),
		"GET /metrics":       s.handler.metrics.ServeHTTP,
	})
}

// registerRoutes registers a set of HTTP routes with their corresponding handlers.
// If any calls to enforcer.Handle fail, all resulting errors are collected
// and returned as a single error using errors.Join.
func (s *Site) registerRoutes(routes map[string]http.HandlerFunc) error {
	var errs []error
	for pattern, handler := range routes {
		if err := s.enforcer.Handle(pattern, handler); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
