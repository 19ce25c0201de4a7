package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Ryan-Har/gymsync/pkg/models"
)

// RespondJSONAndLog is a convenience wrapper around RespondJSON that also logs any encoding errors.
// It writes the JSON response and logs at debug level if encoding fails.
func RespondJSONAndLog(w http.ResponseWriter, logger *slog.Logger, status int, payload any) {
	if err := RespondJSON(w, status, payload); err != nil {
		logger.Debug("failed to respond with JSON", "err", err)
	}
}

// RespondJSON sets the Content-Type header and status code, then encodes
// payload into the response body.
//
// Returns an error only if JSON encoding fails. In most cases, this happens
// if the response writer is closed or the payload is not serializable.
func RespondJSON(w http.ResponseWriter, status int, payload any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(payload)
}

// IdentityResponse describes who is logged in to the local client.
type IdentityResponse struct {
	Username string `json:"username"`
	UserID   int64  `json:"userId"`
}

// StateResponse is the body of GET /api/state.
type StateResponse struct {
	Authenticated bool              `json:"authenticated"`
	User          *IdentityResponse `json:"user,omitempty"`
	InFlight      bool              `json:"inFlight"`
	Populated     bool              `json:"populated"`
	LastError     string            `json:"lastError,omitempty"`
	Workouts      []models.Workout  `json:"workouts"`
	Routines      []models.Routine  `json:"routines"`
	Selected      []int64           `json:"selected"`
}

// NewIdentityResponse returns nil for the zero identity.
func NewIdentityResponse(id models.Identity) *IdentityResponse {
	if id.Username == "" {
		return nil
	}
	return &IdentityResponse{Username: id.Username, UserID: id.UserID}
}
