package models

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrors_IsSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"validation", NewValidationError("name", "Workout name is required"), ErrValidation},
		{"auth rejected", NewAuthRejectedError(401, "Incorrect username or password"), ErrAuthRejected},
		{"network", NewNetworkError(errors.New("connection refused")), ErrBackend},
		{"server", NewServerError(500, ""), ErrBackend},
		{"not authenticated", &NotAuthenticatedError{}, ErrNotAuthenticated},
		{"token rejected", NewTokenRejectedError(401, ""), ErrTokenRejected},
		{"busy", &BusyError{Op: "create workout"}, ErrBusy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("outer: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)
		})
	}
}

func TestErrors_DoNotCrossMatch(t *testing.T) {
	err := NewValidationError("name", "x")
	assert.NotErrorIs(t, err, ErrBackend)
	assert.NotErrorIs(t, err, ErrTokenRejected)

	err = NewTokenRejectedError(401, "")
	assert.NotErrorIs(t, err, ErrAuthRejected)
}

func TestBackendError_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := NewNetworkError(cause)
	assert.ErrorIs(t, err, cause)
	assert.True(t, strings.HasPrefix(err.Error(), "backend unreachable"))

	var be *BackendError
	require.ErrorAs(t, NewServerError(502, "bad gateway"), &be)
	assert.Equal(t, 502, be.StatusCode)
}

func TestAuthRejectedError_Message(t *testing.T) {
	assert.Equal(t, "Username already registered", NewAuthRejectedError(400, "Username already registered").Error())
	assert.Contains(t, NewAuthRejectedError(401, "").Error(), "401")
}

func TestValidateCredentials(t *testing.T) {
	tests := []struct {
		name      string
		username  string
		password  string
		wantField string
	}{
		{"valid", "demo", "demo123", ""},
		{"short username", "ab", "demo123", "username"},
		{"whitespace padded username", "  ab  ", "demo123", "username"},
		{"short password", "demo", "12345", "password"},
		{"exact minimums", "abc", "123456", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCredentials(tt.username, tt.password)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantField, ve.Field)
		})
	}
}

func TestValidateRegistration_Confirm(t *testing.T) {
	assert.NoError(t, ValidateRegistration("demo", "demo123", "demo123"))

	var ve *ValidationError
	require.ErrorAs(t, ValidateRegistration("demo", "demo123", "demo124"), &ve)
	assert.Equal(t, "confirm", ve.Field)
	assert.Equal(t, "Passwords do not match", ve.Error())
}

func TestValidateEntity(t *testing.T) {
	name, err := ValidateEntity("Workout", "  Leg Day  ", "")
	require.NoError(t, err)
	assert.Equal(t, "Leg Day", name)

	for _, blank := range []string{"", " ", "\t\n"} {
		_, err := ValidateEntity("Workout", blank, "")
		assert.ErrorIs(t, err, ErrValidation, "name %q", blank)
	}

	_, err = ValidateEntity("Routine", strings.Repeat("x", MaxNameLen+1), "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = ValidateEntity("Routine", "Week 1", strings.Repeat("x", MaxDescriptionLen+1))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "description", ve.Field)
}
