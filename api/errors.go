package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Ryan-Har/gymsync/pkg/models"
)

// ErrorKey names one of the short messages the local JSON API can return
// in the "error" field.
type ErrorKey string

// Request problems.
const (
	ErrInvalidJSON      ErrorKey = "invalid_json"
	ErrValidation       ErrorKey = "validation_failed"
	ErrMethodNotAllowed ErrorKey = "not_allowed"
	ErrInternal         ErrorKey = "internal_error"
)

// Session problems.
const (
	ErrAuthRequired ErrorKey = "auth_required"
	ErrCredentials  ErrorKey = "invalid_credentials"
	ErrInvalidToken ErrorKey = "invalid_token"
	ErrAccessDenied ErrorKey = "access_denied"
)

// Sync problems.
const (
	ErrBackend ErrorKey = "backend_error"
	ErrBusy    ErrorKey = "busy"
)

var errorMessages = map[ErrorKey]string{
	ErrInvalidJSON:      "invalid JSON format",
	ErrValidation:       "validation failed",
	ErrMethodNotAllowed: "method not allowed",
	ErrInternal:         "internal server error",

	ErrAuthRequired: "authentication required",
	ErrCredentials:  "invalid credentials",
	ErrInvalidToken: "invalid token",
	ErrAccessDenied: "access denied",

	ErrBackend: "backend unavailable",
	ErrBusy:    "operation in progress",
}

// ErrorResponse is the JSON error body. Details is the user-facing text and
// is omitted when empty.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// NewError builds the body for key. Unknown keys read "unknown error".
func NewError(status int, key ErrorKey, details string) (int, ErrorResponse) {
	msg, ok := errorMessages[key]
	if !ok {
		msg = "unknown error"
	}
	return status, ErrorResponse{Error: msg, Details: details}
}

func BadRequestInvalidJSON() (int, ErrorResponse) {
	return NewError(http.StatusBadRequest, ErrInvalidJSON, "expected valid JSON object")
}

func BadRequestValidation(details string) (int, ErrorResponse) {
	return NewError(http.StatusBadRequest, ErrValidation, details)
}

func InternalServerError() (int, ErrorResponse) {
	return NewError(http.StatusInternalServerError, ErrInternal, "an unexpected error occurred")
}

func MethodNotAllowed() (int, ErrorResponse) {
	return NewError(http.StatusMethodNotAllowed, ErrMethodNotAllowed, "")
}

// UnauthorizedNotAuthenticated is returned to API requests made without a session.
func UnauthorizedNotAuthenticated() (int, ErrorResponse) {
	return NewError(http.StatusUnauthorized, ErrAuthRequired, "log in to continue")
}

// UnauthorizedSessionEnded is returned after the backend rejected the stored token.
func UnauthorizedSessionEnded() (int, ErrorResponse) {
	return NewError(http.StatusUnauthorized, ErrInvalidToken, "session expired, log in again")
}

func ForbiddenAccessDenied() (int, ErrorResponse) {
	return NewError(http.StatusForbidden, ErrAccessDenied, "insufficient permissions for this operation")
}

// BadGateway reports a backend that failed or could not be reached.
func BadGateway(details string) (int, ErrorResponse) {
	return NewError(http.StatusBadGateway, ErrBackend, details)
}

// ServiceBusy reports that another create, delete or fetch is still running.
func ServiceBusy() (int, ErrorResponse) {
	return NewError(http.StatusConflict, ErrBusy, "another operation is in progress")
}

// ReturnError writes the response produced by errorFunc.
//
//	api.ReturnError(w, h.log, api.BadRequestInvalidJSON)
func ReturnError(w http.ResponseWriter, logger *slog.Logger, errorFunc func() (int, ErrorResponse)) {
	status, errResp := errorFunc()
	RespondJSONAndLog(w, logger, status, errResp)
}

// ForError maps err onto the response for its kind in the models error
// taxonomy. details should already be user-facing.
func ForError(err error, details string) func() (int, ErrorResponse) {
	switch {
	case errors.Is(err, models.ErrValidation):
		return func() (int, ErrorResponse) { return BadRequestValidation(details) }
	case errors.Is(err, models.ErrAuthRejected):
		return func() (int, ErrorResponse) {
			return NewError(http.StatusUnauthorized, ErrCredentials, details)
		}
	case errors.Is(err, models.ErrNotAuthenticated):
		return UnauthorizedNotAuthenticated
	case errors.Is(err, models.ErrTokenRejected):
		return UnauthorizedSessionEnded
	case errors.Is(err, models.ErrBusy):
		return ServiceBusy
	case errors.Is(err, models.ErrBackend):
		return func() (int, ErrorResponse) { return BadGateway(details) }
	default:
		return InternalServerError
	}
}
