// Package session holds the client's authentication state.
//
// A Store is the single source of truth for "is someone logged in": it owns
// the bearer token, the identity decoded from it, and the durable copy that
// lets a restart skip the login form.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Ryan-Har/gymsync/internal/logutil"
	"github.com/Ryan-Har/gymsync/internal/metrics"
	"github.com/Ryan-Har/gymsync/internal/tokenstore"
	"github.com/Ryan-Har/gymsync/pkg/apiclient"
	"github.com/Ryan-Har/gymsync/pkg/models"
	"github.com/jonboulle/clockwork"
)

// Authenticator is the part of the backend client the store needs.
type Authenticator interface {
	Login(ctx context.Context, creds models.Credentials) (string, error)
	Register(ctx context.Context, creds models.Credentials) (apiclient.RegisteredUser, error)
}

type Store struct {
	log    *slog.Logger
	auth   Authenticator
	tokens tokenstore.Store
	clock  clockwork.Clock

	mu       sync.RWMutex
	token    string
	identity models.Identity
	expires  time.Time

	obsMu     sync.Mutex
	observers []subscription
	nextSubID int
}

type subscription struct {
	id int
	fn Observer
}

type Option func(*Store)

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.log = l
	}
}

// WithTokenStore sets the durable storage. Without it nothing survives a restart.
func WithTokenStore(ts tokenstore.Store) Option {
	return func(s *Store) {
		s.tokens = ts
	}
}

// WithClock sets the clock used to reject expired persisted tokens.
func WithClock(c clockwork.Clock) Option {
	return func(s *Store) {
		s.clock = c
	}
}

func New(auth Authenticator, opts ...Option) *Store {
	s := &Store{
		log:   logutil.Discard(),
		auth:  auth,
		clock: clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("component", "session")
	return s
}

// Init restores a persisted token. Anything that prevents a clean restore
// (no storage, a read error, an unreadable or expired token) leaves the
// store unauthenticated and is never returned as an error.
// It reports whether a session was restored.
func (s *Store) Init(ctx context.Context) bool {
	if s.tokens == nil {
		s.log.Debug("no durable token storage configured")
		return false
	}
	if s.Authenticated() {
		return true
	}

	token, err := s.tokens.Load(ctx)
	if err != nil {
		if !errors.Is(err, tokenstore.ErrNoToken) {
			s.log.Warn("durable token storage unavailable", "err", err)
		}
		return false
	}

	identity, expires, err := decodeToken(token)
	if err != nil {
		s.log.Info("discarding unreadable persisted token", "err", err)
		s.clearDurable(ctx)
		return false
	}
	if !expires.IsZero() && !s.clock.Now().Before(expires) {
		s.log.Info("discarding expired persisted token", "username", identity.Username, "expired_at", expires)
		s.clearDurable(ctx)
		return false
	}

	s.mu.Lock()
	if s.token != "" {
		s.mu.Unlock()
		return true
	}
	s.token, s.identity, s.expires = token, identity, expires
	s.mu.Unlock()

	s.log.Info("restored session", "username", identity.Username)
	s.notify(Transition{From: Unauthenticated, To: Authenticated, Reason: ReasonRestored, Identity: identity})
	return true
}

// Login validates the credentials locally, exchanges them for a token and
// stores it. On failure the current state is left untouched.
func (s *Store) Login(ctx context.Context, username, password string) error {
	if err := models.ValidateCredentials(username, password); err != nil {
		return err
	}
	creds := models.Credentials{Username: username, Password: password}

	token, err := s.auth.Login(ctx, creds)
	if err != nil {
		return logutil.DebugAndWrapErr(s.log, "login failed", err, "username", username)
	}

	identity, expires, err := decodeToken(token)
	if err != nil {
		s.log.Debug("token claims unreadable, using submitted username", "err", err)
		identity = models.Identity{Username: username}
		expires = time.Time{}
	}

	if s.tokens != nil {
		if err := s.tokens.Save(context.WithoutCancel(ctx), token); err != nil {
			s.log.Warn("could not persist token, session will not survive a restart", "err", err)
		}
	}

	s.mu.Lock()
	prevToken, prevIdentity := s.token, s.identity
	s.token, s.identity, s.expires = token, identity, expires
	s.mu.Unlock()

	if prevToken != "" {
		s.notify(Transition{From: Authenticated, To: Unauthenticated, Reason: ReasonLogout, Identity: prevIdentity})
	}
	s.log.Info("logged in", "username", identity.Username)
	s.notify(Transition{From: Unauthenticated, To: Authenticated, Reason: ReasonLogin, Identity: identity})
	return nil
}

// Register creates an account. It does not log in.
func (s *Store) Register(ctx context.Context, username, password, confirm string) (apiclient.RegisteredUser, error) {
	if err := models.ValidateRegistration(username, password, confirm); err != nil {
		return apiclient.RegisteredUser{}, err
	}
	user, err := s.auth.Register(ctx, models.Credentials{Username: username, Password: password})
	if err != nil {
		return apiclient.RegisteredUser{}, logutil.DebugAndWrapErr(s.log, "registration failed", err, "username", username)
	}
	s.log.Info("registered", "username", user.Username)
	return user, nil
}

// Logout ends the session. Calling it while logged out is a no-op.
func (s *Store) Logout(ctx context.Context) {
	s.end(ctx, ReasonLogout)
}

// Invalidate ends the session because the backend refused token. A refusal
// of a token that is no longer current, e.g. a late reply to a request sent
// before the last login, leaves the session alone.
func (s *Store) Invalidate(ctx context.Context, token string, cause error) {
	s.mu.Lock()
	if token == "" || token != s.token {
		s.mu.Unlock()
		s.log.Debug("ignoring rejection of a stale token", "cause", cause)
		return
	}
	prevIdentity := s.identity
	s.token, s.identity, s.expires = "", models.Identity{}, time.Time{}
	s.mu.Unlock()

	s.log.Info("session invalidated", "cause", cause)
	s.clearDurable(ctx)
	s.notify(Transition{From: Authenticated, To: Unauthenticated, Reason: ReasonRejected, Identity: prevIdentity})
}

func (s *Store) end(ctx context.Context, reason Reason) {
	s.clearDurable(ctx)

	s.mu.Lock()
	prevToken, prevIdentity := s.token, s.identity
	s.token, s.identity, s.expires = "", models.Identity{}, time.Time{}
	s.mu.Unlock()

	if prevToken == "" {
		return
	}
	s.notify(Transition{From: Authenticated, To: Unauthenticated, Reason: reason, Identity: prevIdentity})
}

// clearDurable removes the persisted token even if ctx is already cancelled.
func (s *Store) clearDurable(ctx context.Context) {
	if s.tokens == nil {
		return
	}
	if err := s.tokens.Clear(context.WithoutCancel(ctx)); err != nil {
		s.log.Warn("could not clear persisted token", "err", err)
	}
}

// CurrentToken returns the bearer token, if any.
func (s *Store) CurrentToken() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// Identity returns who is logged in, if anyone.
func (s *Store) Identity() (models.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity, s.token != ""
}

// ExpiresAt returns the token's expiry, zero when unknown or logged out.
func (s *Store) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expires
}

func (s *Store) State() State {
	if s.Authenticated() {
		return Authenticated
	}
	return Unauthenticated
}

func (s *Store) Authenticated() bool {
	_, ok := s.CurrentToken()
	return ok
}

// Subscribe registers fn for every future transition and returns a function
// that removes it. Observers run on the goroutine that caused the transition,
// after the store's lock is released; they must not block.
func (s *Store) Subscribe(fn Observer) (unsubscribe func()) {
	s.obsMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.observers = append(s.observers, subscription{id: id, fn: fn})
	s.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.obsMu.Lock()
			defer s.obsMu.Unlock()
			for i, sub := range s.observers {
				if sub.id == id {
					s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *Store) notify(t Transition) {
	metrics.ObserveSession(string(t.Reason), t.To == Authenticated)
	s.log.Debug("session transition", "from", t.From, "to", t.To, "reason", t.Reason)

	s.obsMu.Lock()
	subs := make([]subscription, len(s.observers))
	copy(subs, s.observers)
	s.obsMu.Unlock()

	for _, sub := range subs {
		sub.fn(t)
	}
}
