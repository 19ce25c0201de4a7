// Package gymsync wires the session, the backend client, the sync
// controller and the access guard into one client application.
package gymsync

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Ryan-Har/gymsync/database"
	"github.com/Ryan-Har/gymsync/internal/logutil"
	"github.com/Ryan-Har/gymsync/internal/tokenstore"
	"github.com/Ryan-Har/gymsync/pkg/apiclient"
	"github.com/Ryan-Har/gymsync/pkg/controller"
	"github.com/Ryan-Har/gymsync/pkg/enforcer"
	"github.com/Ryan-Har/gymsync/pkg/session"
	"github.com/Ryan-Har/gymsync/web"
	"github.com/go-logr/logr"
	"github.com/jonboulle/clockwork"
)

const DefaultBackendURL = "http://localhost:8000"

type App struct {
	logger     *slog.Logger
	Client     *apiclient.Client // unauthenticated calls: login, register, health
	Backend    *apiclient.Client // carries the session's bearer token
	Session    *session.Store
	Controller *controller.Controller
	Enforcer   *enforcer.Enforcer
	Site       *web.Site

	// Hold information to initialize services after configuration
	backendURL string
	httpClient *http.Client
	timeout    time.Duration
	db         *sql.DB
	dbPath     string
	ownsDB     bool
	router     enforcer.Router
	clock      clockwork.Clock
}

type Option func(*App)

// WithLogger bridges a logr.Logger onto the slog loggers used internally.
func WithLogger(l logr.Logger) Option {
	return func(a *App) {
		// Only set the logger if it's not a no-op logger
		if l.GetSink() != nil {
			a.logger = slog.New(logr.ToSlogHandler(l))
		}
	}
}

func WithSlogLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

func WithBackendURL(u string) Option {
	return func(a *App) {
		a.backendURL = u
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(a *App) {
		a.httpClient = c
	}
}

// WithRequestTimeout bounds every backend request. Zero disables the bound.
func WithRequestTimeout(d time.Duration) Option {
	return func(a *App) {
		a.timeout = d
	}
}

// WithSqliteDB persists the session token in an already open database.
// The caller keeps ownership of db.
func WithSqliteDB(db *sql.DB) Option {
	return func(a *App) {
		a.db = db
		a.dbPath = ""
	}
}

// WithTokenDB opens (creating if needed) the SQLite file at path for the
// session token. An empty path keeps the token in memory only.
func WithTokenDB(path string) Option {
	return func(a *App) {
		a.dbPath = path
		a.db = nil
	}
}

// WithRouter mounts the local web UI on r behind the access guard.
func WithRouter(r enforcer.Router) Option {
	return func(a *App) {
		a.router = r
	}
}

func WithClock(c clockwork.Clock) Option {
	return func(a *App) {
		a.clock = c
	}
}

func New(opts ...Option) (*App, error) {
	app := &App{
		logger:     logutil.Discard(),
		backendURL: DefaultBackendURL,
		timeout:    apiclient.DefaultTimeout,
		clock:      clockwork.NewRealClock(),
	}

	for _, opt := range opts {
		opt(app)
	}

	app.logger.Info("starting gymsync", "backend", app.backendURL)

	tokens := app.openTokenStore()

	clientOpts := []apiclient.Option{
		apiclient.WithLogger(app.logger),
		apiclient.WithTimeout(app.timeout),
	}
	if app.httpClient != nil {
		clientOpts = append(clientOpts, apiclient.WithHTTPClient(app.httpClient))
	}
	var err error
	app.Client, err = apiclient.New(app.backendURL, clientOpts...)
	if err != nil {
		app.closeDB()
		return nil, err
	}

	app.Session = session.New(app.Client,
		session.WithLogger(app.logger),
		session.WithTokenStore(tokens),
		session.WithClock(app.clock),
	)
	app.Backend = app.Client.WithCredentials(app.Session)
	app.Controller = controller.New(app.Session, app.Backend, app.logger)
	app.logger.Debug("gymsync services loaded")

	if app.router != nil {
		app.Enforcer = enforcer.NewEnforcer(app.logger, app.router, app.Session, nil)
		app.Enforcer.LoadDefaultPolicies()

		app.Site, err = web.New(app.logger, app.Enforcer, app.Session, app.Controller)
		if err == nil {
			err = app.Site.LoadAllRoutes()
		}
		if err != nil {
			app.closeDB()
			return nil, fmt.Errorf("unable to load web routes: %w", err)
		}
		app.logger.Info("gymsync web routes loaded")
	}

	return app, nil
}

// openTokenStore picks the durable store. Without a database the session
// lives in memory and a restart requires logging in again. A database that
// cannot be opened or migrated is treated the same way.
func (a *App) openTokenStore() tokenstore.Store {
	if a.db == nil && a.dbPath != "" {
		db, err := database.OpenSqlite(a.dbPath)
		if err != nil {
			return a.inMemoryFallback("unable to open token database", err)
		}
		a.db = db
		a.ownsDB = true
	}

	if a.db == nil {
		a.logger.Debug("no token database configured, session kept in memory")
		return tokenstore.NewInMemory(a.logger)
	}

	// check if database is pingable
	if err := a.db.Ping(); err != nil {
		return a.inMemoryFallback("unable to ping token database", err)
	}
	if err := database.RunSqliteMigrations(a.db); err != nil {
		return a.inMemoryFallback("unable to run migrations", err)
	}
	a.logger.Debug("successfully run migrations")
	return tokenstore.NewSqlite(a.logger, a.db)
}

func (a *App) inMemoryFallback(msg string, err error) tokenstore.Store {
	a.logger.Warn(msg+", session will not survive a restart", "path", a.dbPath, "err", err)
	_ = a.closeDB()
	a.db = nil
	return tokenstore.NewInMemory(a.logger)
}

// Start restores a persisted session and starts following the session with
// the controller. It reports whether a session was restored.
func (a *App) Start(ctx context.Context) bool {
	restored := a.Session.Init(ctx)
	a.Controller.Start(ctx)
	return restored
}

// Close stops the controller, waits for background fetches and closes the
// token database if the app opened it.
func (a *App) Close() error {
	a.Controller.Close()
	a.Controller.Wait()
	return a.closeDB()
}

func (a *App) closeDB() error {
	if !a.ownsDB || a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	a.ownsDB = false
	if err != nil {
		return errors.Join(errors.New("closing token database"), err)
	}
	return nil
}
