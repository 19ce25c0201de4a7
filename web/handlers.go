package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Ryan-Har/gymsync/api"
	"github.com/Ryan-Har/gymsync/pkg/controller"
	"github.com/Ryan-Har/gymsync/pkg/enforcer"
	"github.com/Ryan-Har/gymsync/pkg/models"
)

func (h *Handler) page(w http.ResponseWriter, r *http.Request, status int, name string, data pageData) {
	data.Identity, data.Authenticated = enforcer.IdentityFromContext(r.Context())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.render.render(w, name, data); err != nil {
		h.log.Error("unable to render page", "page", name, "err", err)
	}
}

// statusFor picks the status a re-rendered form is sent with.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrAuthRejected):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrBackend):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// backToDashboard ends every dashboard form post. The outcome is read from
// the controller's last error on the next render.
func backToDashboard(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func formID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.FormValue("id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *Handler) handleLoginGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := h.sess.Identity(); ok {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		data := pageData{Title: "Log in"}
		if r.URL.Query().Get("registered") != "" {
			data.Notice = controller.MsgRegistered
		}
		h.page(w, r, http.StatusOK, "login", data)
	}
}

func (h *Handler) handleLoginPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			h.log.Debug("parsing form from POST /login", "err", err)
			http.Error(w, "Invalid form", http.StatusBadRequest)
			return
		}

		username := r.FormValue("username")
		if err := h.sess.Login(r.Context(), username, r.FormValue("password")); err != nil {
			h.page(w, r, statusFor(err), "login", pageData{
				Title:    "Log in",
				Error:    controller.Describe(err, controller.MsgLoginFailed),
				Username: username,
			})
			return
		}

		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func (h *Handler) handleRegisterGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.page(w, r, http.StatusOK, "register", pageData{Title: "Register"})
	}
}

func (h *Handler) handleRegisterPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			h.log.Debug("parsing form from POST /register", "err", err)
			http.Error(w, "Invalid form", http.StatusBadRequest)
			return
		}

		username := r.FormValue("username")
		_, err := h.sess.Register(r.Context(), username, r.FormValue("password"), r.FormValue("confirm"))
		if err != nil {
			h.page(w, r, statusFor(err), "register", pageData{
				Title:    "Register",
				Error:    controller.Describe(err, controller.MsgRegisterFailed),
				Username: username,
			})
			return
		}

		http.Redirect(w, r, "/login?registered=1", http.StatusSeeOther)
	}
}

func (h *Handler) handleLogoutPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.sess.Logout(r.Context())
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}

func (h *Handler) handleDashboardGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := h.ctrl.Snapshot()
		selected := make(map[int64]bool, len(snap.Selection))
		for _, id := range snap.Selection {
			selected[id] = true
		}
		h.page(w, r, http.StatusOK, "dashboard", pageData{
			Title:    "Dashboard",
			Error:    snap.LastError,
			State:    snap,
			Selected: selected,
		})
	}
}

func (h *Handler) handleRefreshPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.ctrl.Refresh(r.Context()); err != nil {
			h.log.Debug("refresh failed", "err", err)
		}
		backToDashboard(w, r)
	}
}

func (h *Handler) handleWorkoutCreate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form", http.StatusBadRequest)
			return
		}
		if _, err := h.ctrl.CreateWorkout(r.Context(), r.FormValue("name"), r.FormValue("description")); err != nil {
			h.log.Debug("create workout failed", "err", err)
		}
		backToDashboard(w, r)
	}
}

func (h *Handler) handleWorkoutDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := formID(r)
		if !ok {
			http.Error(w, "invalid workout id", http.StatusBadRequest)
			return
		}
		if err := h.ctrl.DeleteWorkout(r.Context(), id); err != nil {
			h.log.Debug("delete workout failed", "id", id, "err", err)
		}
		backToDashboard(w, r)
	}
}

func (h *Handler) handleRoutineCreate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form", http.StatusBadRequest)
			return
		}
		if _, err := h.ctrl.ComposeRoutine(r.Context(), r.FormValue("name"), r.FormValue("description")); err != nil {
			h.log.Debug("create routine failed", "err", err)
		}
		backToDashboard(w, r)
	}
}

func (h *Handler) handleRoutineDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := formID(r)
		if !ok {
			http.Error(w, "invalid routine id", http.StatusBadRequest)
			return
		}
		if err := h.ctrl.DeleteRoutine(r.Context(), id); err != nil {
			h.log.Debug("delete routine failed", "id", id, "err", err)
		}
		backToDashboard(w, r)
	}
}

func (h *Handler) handleRoutineSelect() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := formID(r)
		if !ok {
			http.Error(w, "invalid workout id", http.StatusBadRequest)
			return
		}
		if _, err := h.ctrl.ToggleSelection(id); err != nil {
			h.log.Debug("toggle selection failed", "id", id, "err", err)
		}
		backToDashboard(w, r)
	}
}

func (h *Handler) handleAPIState() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := h.ctrl.Snapshot()
		resp := api.StateResponse{
			Authenticated: snap.Authenticated,
			User:          api.NewIdentityResponse(snap.Identity),
			InFlight:      snap.InFlight,
			Populated:     snap.Populated,
			LastError:     snap.LastError,
			Workouts:      snap.Workouts,
			Routines:      snap.Routines,
			Selected:      snap.Selection,
		}
		if resp.Workouts == nil {
			resp.Workouts = []models.Workout{}
		}
		if resp.Routines == nil {
			resp.Routines = []models.Routine{}
		}
		if resp.Selected == nil {
			resp.Selected = []int64{}
		}
		api.RespondJSONAndLog(w, h.log, http.StatusOK, resp)
	}
}

func (h *Handler) handleAPIWorkoutCreate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params models.CreateWorkoutParams
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			api.ReturnError(w, h.log, api.BadRequestInvalidJSON)
			return
		}
		workout, err := h.ctrl.CreateWorkout(r.Context(), params.Name, params.Description)
		if err != nil {
			api.ReturnError(w, h.log, api.ForError(err, controller.Describe(err, controller.MsgCreateWorkoutFailed)))
			return
		}
		api.RespondJSONAndLog(w, h.log, http.StatusCreated, workout)
	}
}

func (h *Handler) handleAPIRoutineCreate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params models.CreateRoutineParams
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			api.ReturnError(w, h.log, api.BadRequestInvalidJSON)
			return
		}
		routine, err := h.ctrl.CreateRoutine(r.Context(), params.Name, params.Description, params.Workouts)
		if err != nil {
			api.ReturnError(w, h.log, api.ForError(err, controller.Describe(err, controller.MsgCreateRoutineFailed)))
			return
		}
		api.RespondJSONAndLog(w, h.log, http.StatusCreated, routine)
	}
}
