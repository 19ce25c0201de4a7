package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/Ryan-Har/gymsync/api"
	"github.com/Ryan-Har/gymsync/internal/logutil"
	"github.com/Ryan-Har/gymsync/pkg/apiclient"
	"github.com/Ryan-Har/gymsync/pkg/controller"
	"github.com/Ryan-Har/gymsync/pkg/enforcer"
	"github.com/Ryan-Har/gymsync/pkg/models"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//
// ---------- fakes ----------
//

type fakeSession struct {
	mu         sync.Mutex
	identity   models.Identity
	ok         bool
	loginFn    func(username, password string) error
	registerFn func(username, password, confirm string) (apiclient.RegisteredUser, error)
	logouts    int
}

func (f *fakeSession) Login(_ context.Context, username, password string) error {
	if err := f.loginFn(username, password); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.identity, f.ok = models.Identity{Username: username, UserID: 1}, true
	return nil
}

func (f *fakeSession) Register(_ context.Context, username, password, confirm string) (apiclient.RegisteredUser, error) {
	return f.registerFn(username, password, confirm)
}

func (f *fakeSession) Logout(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logouts++
	f.identity, f.ok = models.Identity{}, false
}

func (f *fakeSession) Identity() (models.Identity, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.identity, f.ok
}

type fakeController struct {
	snapshot        controller.Snapshot
	snapshots       int
	refreshFn       func() error
	createWorkoutFn func(name, description string) (models.Workout, error)
	deleteWorkoutFn func(id int64) error
	createRoutineFn func(name, description string, ids []int64) (models.Routine, error)
	composeFn       func(name, description string) (models.Routine, error)
	deleteRoutineFn func(id int64) error
	toggleFn        func(id int64) (bool, error)
}

func (f *fakeController) Snapshot() controller.Snapshot {
	f.snapshots++
	return f.snapshot
}
func (f *fakeController) Refresh(context.Context) error { return f.refreshFn() }
func (f *fakeController) CreateWorkout(_ context.Context, name, description string) (models.Workout, error) {
	return f.createWorkoutFn(name, description)
}
func (f *fakeController) DeleteWorkout(_ context.Context, id int64) error { return f.deleteWorkoutFn(id) }
func (f *fakeController) CreateRoutine(_ context.Context, name, description string, ids []int64) (models.Routine, error) {
	return f.createRoutineFn(name, description, ids)
}
func (f *fakeController) ComposeRoutine(_ context.Context, name, description string) (models.Routine, error) {
	return f.composeFn(name, description)
}
func (f *fakeController) DeleteRoutine(_ context.Context, id int64) error { return f.deleteRoutineFn(id) }
func (f *fakeController) ToggleSelection(id int64) (bool, error)        { return f.toggleFn(id) }

//
// ---------- helpers ----------
//

func newSite(t *testing.T, sess *fakeSession, ctrl *fakeController) http.Handler {
	t.Helper()
	r := chi.NewRouter()
	e := enforcer.NewEnforcer(logutil.Discard(), r, sess, nil)
	e.LoadDefaultPolicies()

	site, err := New(logutil.Discard(), e, sess, ctrl)
	require.NoError(t, err)
	require.NoError(t, site.LoadAllRoutes())
	return r
}

func loggedIn() *fakeSession {
	return &fakeSession{identity: models.Identity{Username: "demo", UserID: 1}, ok: true}
}

func postForm(h http.Handler, target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

//
// ---------- tests ----------
//

func TestDashboard_GuestRedirectedWithoutRendering(t *testing.T) {
	ctrl := &fakeController{}
	h := newSite(t, &fakeSession{}, ctrl)

	rec := get(h, "/")

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Zero(t, ctrl.snapshots, "protected content must not be read for a guest")
}

func TestLogin_Success(t *testing.T) {
	sess := &fakeSession{loginFn: func(username, password string) error {
		assert.Equal(t, "demo", username)
		assert.Equal(t, "demo123", password)
		return nil
	}}
	h := newSite(t, sess, &fakeController{})

	rec := postForm(h, "/login", url.Values{"username": {"demo"}, "password": {"demo123"}})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	_, ok := sess.Identity()
	assert.True(t, ok)
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantText   string
	}{
		{"rejected", models.NewAuthRejectedError(401, "Incorrect username or password"), http.StatusUnauthorized, "Incorrect username or password"},
		{"validation", models.NewValidationError("username", "Username must be at least 3 characters"), http.StatusUnprocessableEntity, "Username must be at least 3 characters"},
		{"backend down", models.NewServerError(500, ""), http.StatusBadGateway, controller.MsgLoginFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := &fakeSession{loginFn: func(string, string) error { return tt.err }}
			h := newSite(t, sess, &fakeController{})

			rec := postForm(h, "/login", url.Values{"username": {"demo"}, "password": {"wrong"}})

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantText)
			assert.Contains(t, rec.Body.String(), `value="demo"`, "username is kept in the form")
			_, ok := sess.Identity()
			assert.False(t, ok)
		})
	}
}

func TestLoginPage_AuthenticatedGoesToDashboard(t *testing.T) {
	h := newSite(t, loggedIn(), &fakeController{})
	rec := get(h, "/login")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestRegister(t *testing.T) {
	sess := &fakeSession{registerFn: func(username, password, confirm string) (apiclient.RegisteredUser, error) {
		if password != confirm {
			return apiclient.RegisteredUser{}, models.NewValidationError("confirm", "Passwords do not match")
		}
		return apiclient.RegisteredUser{ID: 1, Username: username}, nil
	}}
	h := newSite(t, sess, &fakeController{})

	rec := postForm(h, "/register", url.Values{"username": {"demo"}, "password": {"demo123"}, "confirm": {"demo124"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Passwords do not match")

	rec = postForm(h, "/register", url.Values{"username": {"demo"}, "password": {"demo123"}, "confirm": {"demo123"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?registered=1", rec.Header().Get("Location"))

	rec = get(h, "/login?registered=1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), controller.MsgRegistered)
}

func TestLogout(t *testing.T) {
	sess := loggedIn()
	ctrl := &fakeController{}
	h := newSite(t, sess, ctrl)

	rec := postForm(h, "/logout", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Equal(t, 1, sess.logouts)

	rec = get(h, "/")
	assert.Equal(t, http.StatusSeeOther, rec.Code, "logout takes effect on the next render")
	assert.Zero(t, ctrl.snapshots)
}

func TestDashboard_RendersState(t *testing.T) {
	ctrl := &fakeController{snapshot: controller.Snapshot{
		Identity:      models.Identity{Username: "demo", UserID: 1},
		Authenticated: true,
		LastError:     "Failed to create workout",
		Workouts: []models.Workout{
			{ID: 1, Name: "Leg Day"},
			{ID: 2, Name: "<script>alert(1)</script>"},
		},
		Routines:  []models.Routine{{ID: 5, Name: "Week 1", Workouts: []models.Workout{{ID: 1, Name: "Leg Day"}}}},
		Selection: []int64{1},
		Populated: true,
	}}
	h := newSite(t, loggedIn(), ctrl)

	rec := get(h, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, "Leg Day")
	assert.Contains(t, body, "Week 1")
	assert.Contains(t, body, "Failed to create workout")
	assert.Contains(t, body, "Unselect")
	assert.Contains(t, body, "1 workout(s) selected")
	assert.NotContains(t, body, "<script>alert(1)</script>")
	assert.Contains(t, body, `id="username">demo<`)
}

func TestDashboardForms(t *testing.T) {
	var (
		created  []string
		deleted  []int64
		composed []string
		removed  []int64
		toggled  []int64
	)
	ctrl := &fakeController{
		createWorkoutFn: func(name, description string) (models.Workout, error) {
			created = append(created, name+"|"+description)
			return models.Workout{ID: 1, Name: name}, nil
		},
		deleteWorkoutFn: func(id int64) error { deleted = append(deleted, id); return nil },
		composeFn: func(name, description string) (models.Routine, error) {
			composed = append(composed, name)
			return models.Routine{ID: 1, Name: name}, nil
		},
		deleteRoutineFn: func(id int64) error { removed = append(removed, id); return nil },
		toggleFn:        func(id int64) (bool, error) { toggled = append(toggled, id); return true, nil },
	}
	h := newSite(t, loggedIn(), ctrl)

	for _, tc := range []struct {
		path string
		form url.Values
	}{
		{"/workouts", url.Values{"name": {"Leg Day"}, "description": {"squats"}}},
		{"/workouts/delete", url.Values{"id": {"3"}}},
		{"/routines/select", url.Values{"id": {"1"}}},
		{"/routines", url.Values{"name": {"Week 1"}}},
		{"/routines/delete", url.Values{"id": {"9"}}},
	} {
		rec := postForm(h, tc.path, tc.form)
		assert.Equal(t, http.StatusSeeOther, rec.Code, tc.path)
		assert.Equal(t, "/", rec.Header().Get("Location"), tc.path)
	}

	assert.Equal(t, []string{"Leg Day|squats"}, created)
	assert.Equal(t, []int64{3}, deleted)
	assert.Equal(t, []int64{1}, toggled)
	assert.Equal(t, []string{"Week 1"}, composed)
	assert.Equal(t, []int64{9}, removed)
}

func TestDashboardForms_BadID(t *testing.T) {
	h := newSite(t, loggedIn(), &fakeController{})
	for _, path := range []string{"/workouts/delete", "/routines/delete", "/routines/select"} {
		rec := postForm(h, path, url.Values{"id": {"abc"}})
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestDashboardForms_FailureStillRedirects(t *testing.T) {
	ctrl := &fakeController{
		createWorkoutFn: func(string, string) (models.Workout, error) {
			return models.Workout{}, models.NewValidationError("name", "Workout name is required")
		},
	}
	h := newSite(t, loggedIn(), ctrl)

	rec := postForm(h, "/workouts", url.Values{"name": {"  "}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestAPIState(t *testing.T) {
	ctrl := &fakeController{snapshot: controller.Snapshot{
		Identity:      models.Identity{Username: "demo", UserID: 1},
		Authenticated: true,
		InFlight:      true,
	}}
	h := newSite(t, loggedIn(), ctrl)

	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["authenticated"])
	assert.Equal(t, true, body["inFlight"])
	assert.Equal(t, []any{}, body["workouts"])
	assert.Equal(t, map[string]any{"username": "demo", "userId": float64(1)}, body["user"])
}

func TestAPIState_GuestGets401(t *testing.T) {
	h := newSite(t, &fakeSession{}, &fakeController{})

	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPIWorkoutCreate(t *testing.T) {
	ctrl := &fakeController{
		createWorkoutFn: func(name, description string) (models.Workout, error) {
			if strings.TrimSpace(name) == "" {
				return models.Workout{}, models.NewValidationError("name", "Workout name is required")
			}
			return models.Workout{ID: 7, Name: name, Description: description}, nil
		},
	}
	h := newSite(t, loggedIn(), ctrl)

	send := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/workouts", strings.NewReader(body))
		req.Header.Set("Accept", "application/json")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := send(`{"name":"Leg Day","description":"squats"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var w models.Workout
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &w))
	assert.Equal(t, int64(7), w.ID)

	rec = send(`{"name":" "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var e api.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	assert.Equal(t, "Workout name is required", e.Details)

	rec = send(`not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPIRoutineCreate_PassesIDs(t *testing.T) {
	var got []int64
	ctrl := &fakeController{
		createRoutineFn: func(name, description string, ids []int64) (models.Routine, error) {
			got = ids
			return models.Routine{ID: 1, Name: name}, nil
		},
	}
	h := newSite(t, loggedIn(), ctrl)

	req := httptest.NewRequest(http.MethodPost, "/api/routines", strings.NewReader(`{"name":"Week 1","workouts":[1,2]}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []int64{1, 2}, got)
}

func TestMetricsOpenToGuests(t *testing.T) {
	h := newSite(t, &fakeSession{}, &fakeController{})
	rec := get(h, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "gymsync_")
}
