package models

import (
	"fmt"
	"net/http"
)

// ValidationError – for input rejected before any request is sent.
// Supports errors.As and errors.Is against ErrValidation.
type ValidationError struct {
	Field string
	msg   string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.msg
}

func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

// NewValidationError creates a new ValidationError for the named field.
func NewValidationError(field, msg string) error {
	return &ValidationError{Field: field, msg: msg}
}

// AuthRejectedError – the backend refused a login or registration.
// Detail is the server-provided reason, empty when the server gave none.
type AuthRejectedError struct {
	StatusCode int
	Detail     string
}

func (e *AuthRejectedError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("authentication rejected (status %d)", e.StatusCode)
}

func (e *AuthRejectedError) Is(target error) bool {
	_, ok := target.(*AuthRejectedError)
	return ok
}

// NewAuthRejectedError creates a new AuthRejectedError.
func NewAuthRejectedError(status int, detail string) error {
	return &AuthRejectedError{StatusCode: status, Detail: detail}
}

// BackendError – the request could not be completed: a transport failure
// (StatusCode is 0) or a non-2xx reply that is not an authorization problem.
// Supports errors.As and errors.Unwrap.
type BackendError struct {
	StatusCode int
	Detail     string
	err        error
}

func (e *BackendError) Error() string {
	switch {
	case e.StatusCode == 0 && e.err != nil:
		return fmt.Sprintf("backend unreachable: %v", e.err)
	case e.Detail != "":
		return fmt.Sprintf("backend error: %s %s", http.StatusText(e.StatusCode), e.Detail)
	default:
		return fmt.Sprintf("backend error: status %d", e.StatusCode)
	}
}

func (e *BackendError) Unwrap() error {
	return e.err
}

func (e *BackendError) Is(target error) bool {
	_, ok := target.(*BackendError)
	return ok
}

// NewNetworkError wraps a transport failure.
func NewNetworkError(err error) error {
	return &BackendError{err: err}
}

// NewServerError describes an unexpected reply from the backend.
func NewServerError(status int, detail string) error {
	return &BackendError{StatusCode: status, Detail: detail}
}

// NotAuthenticatedError – an authenticated operation was attempted without a token.
// The request is never sent.
type NotAuthenticatedError struct{}

func (e *NotAuthenticatedError) Error() string {
	return "not authenticated"
}

func (e *NotAuthenticatedError) Is(target error) bool {
	_, ok := target.(*NotAuthenticatedError)
	return ok
}

// TokenRejectedError – the backend refused the bearer token of an authenticated request.
// Receiving it ends the session.
type TokenRejectedError struct {
	StatusCode int
	Detail     string
}

func (e *TokenRejectedError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("token rejected: %s", e.Detail)
	}
	return fmt.Sprintf("token rejected (status %d)", e.StatusCode)
}

func (e *TokenRejectedError) Is(target error) bool {
	_, ok := target.(*TokenRejectedError)
	return ok
}

// NewTokenRejectedError creates a new TokenRejectedError.
func NewTokenRejectedError(status int, detail string) error {
	return &TokenRejectedError{StatusCode: status, Detail: detail}
}

// BusyError – another operation is already in flight.
type BusyError struct {
	Op string
}

func (e *BusyError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("cannot %s: another request is in progress", e.Op)
	}
	return "another request is in progress"
}

func (e *BusyError) Is(target error) bool {
	_, ok := target.(*BusyError)
	return ok
}

// Sentinels for errors.Is. Each matches any error of the same type.
var (
	ErrValidation       = &ValidationError{}
	ErrAuthRejected     = &AuthRejectedError{}
	ErrBackend          = &BackendError{}
	ErrNotAuthenticated = &NotAuthenticatedError{}
	ErrTokenRejected    = &TokenRejectedError{}
	ErrBusy             = &BusyError{}
)
