package gymsync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/Ryan-Har/gymsync/api"
	"github.com/Ryan-Har/gymsync/internal/fakeapi"
	"github.com/Ryan-Har/gymsync/pkg/controller"
	"github.com/Ryan-Har/gymsync/pkg/enforcer"
	"github.com/Ryan-Har/gymsync/pkg/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-logr/logr"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type backend struct {
	srv *fakeapi.Server
	url string
}

func newBackend(t *testing.T, opts ...fakeapi.Option) *backend {
	t.Helper()
	srv := fakeapi.New(append([]fakeapi.Option{fakeapi.WithBcryptCost(bcrypt.MinCost)}, opts...)...)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &backend{srv: srv, url: ts.URL}
}

func newApp(t *testing.T, b *backend, opts ...Option) (*App, chi.Router) {
	t.Helper()
	r := chi.NewRouter()
	app, err := New(append([]Option{
		WithBackendURL(b.url),
		WithRouter(r),
		WithLogger(logr.Discard()),
	}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app, r
}

func form(h http.Handler, path string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func state(t *testing.T, h http.Handler) api.StateResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var s api.StateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	return s
}

func TestEndToEnd_RegisterLoginCreateLogout(t *testing.T) {
	b := newBackend(t)
	app, h := newApp(t, b)
	assert.False(t, app.Start(context.Background()), "nothing to restore")

	// register then log in through the web UI
	rec := form(h, "/register", url.Values{"username": {"demo"}, "password": {"demo123"}, "confirm": {"demo123"}})
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())

	rec = form(h, "/login", url.Values{"username": {"demo"}, "password": {"demo123"}})
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	require.Equal(t, "/", rec.Header().Get("Location"))
	app.Controller.Wait()

	assert.Equal(t, 1, b.srv.Hits(http.MethodGet, "/workouts/all"), "exactly one initial fetch")
	assert.Equal(t, 1, b.srv.Hits(http.MethodGet, "/routines/"))

	s := state(t, h)
	assert.True(t, s.Authenticated)
	assert.True(t, s.Populated)
	assert.Equal(t, "demo", s.User.Username)

	// create a workout, select it and compose a routine from the selection
	require.Equal(t, http.StatusSeeOther, form(h, "/workouts", url.Values{"name": {"Leg Day"}, "description": {"squats"}}).Code)
	s = state(t, h)
	require.Len(t, s.Workouts, 1)
	legDay := s.Workouts[0]
	assert.Equal(t, "Leg Day", legDay.Name)
	assert.NotZero(t, legDay.ID)

	require.Equal(t, http.StatusSeeOther, form(h, "/routines/select", url.Values{"id": {strconv.FormatInt(legDay.ID, 10)}}).Code)
	assert.Equal(t, []int64{legDay.ID}, state(t, h).Selected)

	require.Equal(t, http.StatusSeeOther, form(h, "/routines", url.Values{"name": {"Week 1"}}).Code)
	s = state(t, h)
	require.Len(t, s.Routines, 1)
	assert.Equal(t, "Week 1", s.Routines[0].Name)
	require.Len(t, s.Routines[0].Workouts, 1)
	assert.Equal(t, legDay.ID, s.Routines[0].Workouts[0].ID)
	assert.Empty(t, s.Selected, "selection cleared after the routine is created")
	assert.Empty(t, s.LastError)

	// a blank name never reaches the backend
	creates := b.srv.Hits(http.MethodPost, "/workouts/")
	form(h, "/workouts", url.Values{"name": {"   "}})
	assert.Equal(t, creates, b.srv.Hits(http.MethodPost, "/workouts/"))
	assert.Equal(t, "Workout name is required", state(t, h).LastError)

	// logout, then a protected render redirects without fetching
	require.Equal(t, http.StatusSeeOther, form(h, "/logout", nil).Code)
	hits := b.srv.TotalHits()

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.NotContains(t, rec.Body.String(), "Leg Day")
	assert.Equal(t, hits, b.srv.TotalHits(), "no request after logout")

	snap := app.Controller.Snapshot()
	assert.False(t, snap.Authenticated)
	assert.Empty(t, snap.Workouts)
}

func TestEndToEnd_SessionSurvivesRestart(t *testing.T) {
	b := newBackend(t)
	_, err := b.srv.AddUser("demo", "demo123")
	require.NoError(t, err)
	dbPath := filepath.Join(t.TempDir(), "gymsync", "session.db")

	first, _ := newApp(t, b, WithTokenDB(dbPath))
	first.Start(context.Background())
	require.NoError(t, first.Session.Login(context.Background(), "demo", "demo123"))
	first.Controller.Wait()
	_, err = first.Controller.CreateWorkout(context.Background(), "Leg Day", "")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, h := newApp(t, b, WithTokenDB(dbPath))
	assert.True(t, second.Start(context.Background()), "token restored from disk")
	second.Controller.Wait()

	s := state(t, h)
	assert.Equal(t, "demo", s.User.Username)
	require.Len(t, s.Workouts, 1)
	assert.Equal(t, "Leg Day", s.Workouts[0].Name)

	second.Session.Logout(context.Background())
	require.NoError(t, second.Close())

	third, _ := newApp(t, b, WithTokenDB(dbPath))
	assert.False(t, third.Start(context.Background()), "logout clears the durable token")
}

func TestEndToEnd_ExpiredTokenEndsSession(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Now())
	b := newBackend(t, fakeapi.WithClock(clock))
	_, err := b.srv.AddUser("demo", "demo123")
	require.NoError(t, err)

	app, h := newApp(t, b)
	app.Start(context.Background())
	require.NoError(t, app.Session.Login(context.Background(), "demo", "demo123"))
	app.Controller.Wait()

	clock.Advance(fakeapi.DefaultTokenTTL + time.Minute)

	_, err = app.Controller.CreateWorkout(context.Background(), "Leg Day", "")
	require.ErrorIs(t, err, models.ErrTokenRejected)
	assert.False(t, app.Session.Authenticated())
	assert.Equal(t, controller.MsgSessionEnded, app.Controller.LastError())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestGuardedView_RequiresSession(t *testing.T) {
	b := newBackend(t)
	_, err := b.srv.AddUser("demo", "demo123")
	require.NoError(t, err)
	app, _ := newApp(t, b)
	app.Start(context.Background())

	view := enforcer.Guard(app.Session, func(ctx context.Context, id models.Identity) ([]models.Workout, error) {
		return app.Backend.ListWorkouts(ctx)
	})

	_, err = view(context.Background())
	require.ErrorIs(t, err, models.ErrNotAuthenticated)
	assert.Zero(t, b.srv.Hits(http.MethodGet, "/workouts/all"))

	require.NoError(t, app.Session.Login(context.Background(), "demo", "demo123"))
	app.Controller.Wait()
	workouts, err := view(context.Background())
	require.NoError(t, err)
	assert.Empty(t, workouts)
}

func TestNew_UnusableTokenDBFallsBackToMemory(t *testing.T) {
	b := newBackend(t)
	_, err := b.srv.AddUser("demo", "demo123")
	require.NoError(t, err)

	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	app, _ := newApp(t, b, WithTokenDB(filepath.Join(blocker, "session.db")))
	assert.False(t, app.Start(context.Background()))

	require.NoError(t, app.Session.Login(context.Background(), "demo", "demo123"))
	assert.True(t, app.Session.Authenticated())
}

func TestNew_RejectsBadBackendURL(t *testing.T) {
	_, err := New(WithBackendURL("localhost:8000"))
	assert.Error(t, err)
}
