package models

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Client-side limits. Name and description limits mirror what the backend accepts.
const (
	MinUsernameLen    = 3
	MinPasswordLen    = 6
	MaxNameLen        = 100
	MaxDescriptionLen = 500
)

// ValidateCredentials checks the login form before anything is sent.
func ValidateCredentials(username, password string) error {
	if utf8.RuneCountInString(strings.TrimSpace(username)) < MinUsernameLen {
		return NewValidationError("username", fmt.Sprintf("Username must be at least %d characters", MinUsernameLen))
	}
	if utf8.RuneCountInString(password) < MinPasswordLen {
		return NewValidationError("password", fmt.Sprintf("Password must be at least %d characters", MinPasswordLen))
	}
	return nil
}

// ValidateRegistration checks the signup form, including the confirmation field.
func ValidateRegistration(username, password, confirm string) error {
	if err := ValidateCredentials(username, password); err != nil {
		return err
	}
	if password != confirm {
		return NewValidationError("confirm", "Passwords do not match")
	}
	return nil
}

// ValidateEntity checks the name and description of a workout or routine.
// kind is used in the message, e.g. "Workout".
// It returns the trimmed name.
func ValidateEntity(kind, name, description string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", NewValidationError("name", kind+" name is required")
	}
	if utf8.RuneCountInString(name) > MaxNameLen {
		return "", NewValidationError("name", fmt.Sprintf("%s name must be at most %d characters", kind, MaxNameLen))
	}
	if utf8.RuneCountInString(description) > MaxDescriptionLen {
		return "", NewValidationError("description", fmt.Sprintf("Description must be at most %d characters", MaxDescriptionLen))
	}
	return name, nil
}
