package controller

import (
	"errors"

	"github.com/Ryan-Har/gymsync/pkg/cache"
	"github.com/Ryan-Har/gymsync/pkg/models"
)

// Messages shown for failures that carry no user-facing text of their own.
const (
	MsgLoadFailed          = "Failed to load your workouts and routines"
	MsgCreateWorkoutFailed = "Failed to create workout"
	MsgDeleteWorkoutFailed = "Failed to delete workout"
	MsgCreateRoutineFailed = "Failed to create routine"
	MsgDeleteRoutineFailed = "Failed to delete routine"
	MsgSelectFailed        = "Could not select workout"
	MsgSessionEnded        = "Your session has expired. Please log in again."
	MsgNotAuthenticated    = "Please log in first."
	MsgBusy                = "Another request is in progress."
	MsgLoginFailed         = "Login failed. Please try again."
	MsgRegisterFailed      = "Registration failed. Please try again."
	MsgRegistered          = "Registration successful. Please log in."
)

// Describe turns err into a message for the last-error slot. Errors whose
// text is meant for the user (validation, a server-provided auth reason)
// keep it; everything else gets fallback.
func Describe(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var (
		validation *models.ValidationError
		rejected   *models.AuthRejectedError
		unknown    *cache.UnknownWorkoutError
	)
	switch {
	case errors.As(err, &validation):
		return validation.Error()
	case errors.As(err, &rejected) && rejected.Detail != "":
		return rejected.Detail
	case errors.As(err, &unknown):
		return unknown.Error()
	case errors.Is(err, models.ErrTokenRejected):
		return MsgSessionEnded
	case errors.Is(err, models.ErrNotAuthenticated):
		return MsgNotAuthenticated
	case errors.Is(err, models.ErrBusy):
		return MsgBusy
	default:
		return fallback
	}
}
