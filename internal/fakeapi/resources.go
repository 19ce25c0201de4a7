package fakeapi

import (
	"fmt"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/Ryan-Har/gymsync/pkg/models"
)

func queryID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string][]validationIssue{
			"detail": {{Loc: []string{"query", name}, Msg: "value is not a valid integer", Type: "int_parsing"}},
		})
		return 0, false
	}
	return id, true
}

// checkEntity applies the backend's field constraints.
func checkEntity(w http.ResponseWriter, name, description string) bool {
	if utf8.RuneCountInString(name) < 1 {
		writeValidation(w, "name", "String should have at least 1 character")
		return false
	}
	if utf8.RuneCountInString(name) > models.MaxNameLen {
		writeValidation(w, "name", fmt.Sprintf("String should have at most %d characters", models.MaxNameLen))
		return false
	}
	if utf8.RuneCountInString(description) > models.MaxDescriptionLen {
		writeValidation(w, "description", fmt.Sprintf("String should have at most %d characters", models.MaxDescriptionLen))
		return false
	}
	return true
}

func (s *Server) listWorkouts(w http.ResponseWriter, r *http.Request) {
	caller := callerFromContext(r.Context())

	s.mu.Lock()
	out := make([]models.Workout, 0, len(s.workouts))
	for _, wk := range s.workouts {
		if wk.UserID == caller.UserID {
			out = append(out, wk)
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getWorkout(w http.ResponseWriter, r *http.Request) {
	caller := callerFromContext(r.Context())
	id, ok := queryID(w, r, "workout_id")
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, wk := range s.workouts {
		if wk.ID == id && wk.UserID == caller.UserID {
			writeJSON(w, http.StatusOK, wk)
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Workout not found")
}

func (s *Server) createWorkout(w http.ResponseWriter, r *http.Request) {
	caller := callerFromContext(r.Context())

	var req models.CreateWorkoutParams
	if err := decodeBody(w, r, &req); err != nil {
		writeValidation(w, "body", "invalid JSON body")
		return
	}
	if !checkEntity(w, req.Name, req.Description) {
		return
	}

	s.mu.Lock()
	wk := models.Workout{
		ID:          s.nextWorkoutID,
		UserID:      caller.UserID,
		Name:        req.Name,
		Description: req.Description,
	}
	s.nextWorkoutID++
	s.workouts = append(s.workouts, wk)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, wk)
}

func (s *Server) deleteWorkout(w http.ResponseWriter, r *http.Request) {
	caller := callerFromContext(r.Context())
	id, ok := queryID(w, r, "workout_id")
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, wk := range s.workouts {
		if wk.ID == id && wk.UserID == caller.UserID {
			idx = i
			break
		}
	}
	if idx < 0 {
		writeDetail(w, http.StatusNotFound, "Workout not found or you don't have permission to delete it")
		return
	}
	s.workouts = append(s.workouts[:idx], s.workouts[idx+1:]...)

	// drop the association rows that referenced the workout
	for i := range s.routines {
		s.routines[i].workoutIDs = removeID(s.routines[i].workoutIDs, id)
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Workout deleted successfully"})
}

func removeID(ids []int64, id int64) []int64 {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// routineView resolves a record's workout ids into summaries. Callers hold s.mu.
func (s *Server) routineView(rec routineRecord) models.Routine {
	rt := rec.routine
	rt.Workouts = make([]models.Workout, 0, len(rec.workoutIDs))
	for _, id := range rec.workoutIDs {
		for _, wk := range s.workouts {
			if wk.ID == id {
				rt.Workouts = append(rt.Workouts, models.Workout{ID: wk.ID, Name: wk.Name})
				break
			}
		}
	}
	return rt
}

func (s *Server) listRoutines(w http.ResponseWriter, r *http.Request) {
	caller := callerFromContext(r.Context())

	s.mu.Lock()
	out := make([]models.Routine, 0, len(s.routines))
	for _, rec := range s.routines {
		if rec.routine.UserID == caller.UserID {
			out = append(out, s.routineView(rec))
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createRoutine(w http.ResponseWriter, r *http.Request) {
	caller := callerFromContext(r.Context())

	var req models.CreateRoutineParams
	if err := decodeBody(w, r, &req); err != nil {
		writeValidation(w, "body", "invalid JSON body")
		return
	}
	if !checkEntity(w, req.Name, req.Description) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int64, 0, len(req.Workouts))
	seen := make(map[int64]bool, len(req.Workouts))
	for _, id := range req.Workouts {
		if seen[id] {
			continue
		}
		if !s.ownsWorkout(caller.UserID, id) {
			writeDetail(w, http.StatusNotFound,
				fmt.Sprintf("Workout with ID %d not found or you don't have access to it", id))
			return
		}
		seen[id] = true
		ids = append(ids, id)
	}

	rec := routineRecord{
		routine: models.Routine{
			ID:          s.nextRoutineID,
			UserID:      caller.UserID,
			Name:        req.Name,
			Description: req.Description,
		},
		workoutIDs: ids,
	}
	s.nextRoutineID++
	s.routines = append(s.routines, rec)

	writeJSON(w, http.StatusCreated, s.routineView(rec))
}

func (s *Server) ownsWorkout(userID, id int64) bool {
	for _, wk := range s.workouts {
		if wk.ID == id && wk.UserID == userID {
			return true
		}
	}
	return false
}

func (s *Server) deleteRoutine(w http.ResponseWriter, r *http.Request) {
	caller := callerFromContext(r.Context())
	id, ok := queryID(w, r, "routine_id")
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, rec := range s.routines {
		if rec.routine.ID == id && rec.routine.UserID == caller.UserID {
			s.routines = append(s.routines[:i], s.routines[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "Routine deleted successfully"})
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Routine not found or you don't have permission to delete it")
}
