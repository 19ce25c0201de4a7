package models

// Workout is a single workout as returned by the backend.
// The ID is assigned by the server; records are immutable once created.
type Workout struct {
	ID          int64  `json:"id"`
	UserID      int64  `json:"user_id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Routine groups workouts that were chosen when the routine was created.
// Workouts holds the backend's summaries in the order the backend returned them.
type Routine struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Workouts    []Workout `json:"workouts"`
}

// HasWorkout reports whether the routine references the workout id.
func (r Routine) HasWorkout(id int64) bool {
	for _, w := range r.Workouts {
		if w.ID == id {
			return true
		}
	}
	return false
}

// CreateWorkoutParams is the body of POST /workouts/.
type CreateWorkoutParams struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CreateRoutineParams is the body of POST /routines/.
type CreateRoutineParams struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Workouts    []int64 `json:"workouts"`
}

// Credentials is the body of both /auth/register and /auth/login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Identity is who the current token was issued to.
type Identity struct {
	Username string
	UserID   int64
}

// Role returns the role granted to the identity. Any identity is a user;
// the zero Identity is a guest.
func (i Identity) Role() Role {
	if i.Username == "" {
		return RoleGuest
	}
	return RoleUser
}
