// Package fakeapi is an in-process implementation of the workout backend's
// REST contract. It backs the package tests and `gymsync mock-backend`.
package fakeapi

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Ryan-Har/gymsync/internal/logutil"
	"github.com/Ryan-Har/gymsync/pkg/models"
	"github.com/Ryan-Har/gymsync/pkg/models/passwd"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jonboulle/clockwork"
)

const (
	DefaultTokenTTL = 20 * time.Minute
	DefaultSecret   = "fallback-secret-key-change-in-production"
)

type user struct {
	id           int64
	username     string
	passwordHash string
}

// routineRecord keeps workout ids so that deleting a workout prunes it
// from every routine, like the backend's association table.
type routineRecord struct {
	routine    models.Routine
	workoutIDs []int64
}

type Server struct {
	log        *slog.Logger
	clock      clockwork.Clock
	secret     []byte
	tokenTTL   time.Duration
	bcryptCost int

	mu            sync.Mutex
	users         map[string]*user
	workouts      []models.Workout
	routines      []routineRecord
	nextUserID    int64
	nextWorkoutID int64
	nextRoutineID int64
	faults        map[faultKey]fault
	hits          map[faultKey]int
}

type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.log = l
	}
}

// WithClock sets the clock used to stamp and verify tokens.
func WithClock(c clockwork.Clock) Option {
	return func(s *Server) {
		s.clock = c
	}
}

func WithSecret(secret string) Option {
	return func(s *Server) {
		s.secret = []byte(secret)
	}
}

func WithTokenTTL(d time.Duration) Option {
	return func(s *Server) {
		s.tokenTTL = d
	}
}

// WithBcryptCost lowers the hashing cost; tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Server) {
		s.bcryptCost = cost
	}
}

func New(opts ...Option) *Server {
	s := &Server{
		log:           logutil.Discard(),
		clock:         clockwork.NewRealClock(),
		secret:        []byte(DefaultSecret),
		tokenTTL:      DefaultTokenTTL,
		bcryptCost:    passwd.DefaultCost,
		users:         make(map[string]*user),
		nextUserID:    1,
		nextWorkoutID: 1,
		nextRoutineID: 1,
		faults:        make(map[faultKey]fault),
		hits:          make(map[faultKey]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("component", "fakeapi")
	return s
}

// Handler returns the backend's routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(s.injectFaults)

	r.Get("/", s.health)

	r.Route("/auth", func(ar chi.Router) {
		ar.Post("/register", s.register)
		ar.Post("/login", s.login)
		ar.Post("/token", s.loginForm)
	})

	r.Route("/workouts", func(wr chi.Router) {
		wr.Use(s.requireBearer)
		wr.Get("/all", s.listWorkouts)
		wr.Get("/", s.getWorkout)
		wr.Post("/", s.createWorkout)
		wr.Delete("/", s.deleteWorkout)
	})

	r.Route("/routines", func(rr chi.Router) {
		rr.Use(s.requireBearer)
		rr.Get("/", s.listRoutines)
		rr.Post("/", s.createRoutine)
		rr.Delete("/", s.deleteRoutine)
	})

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "API is running successfully",
	})
}
