package db

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// UnavailableError represents a database that cannot be used at all:
// the file cannot be opened, is read-only, or is corrupt.
// Callers treat it as "no durable storage" rather than a hard failure.
type UnavailableError struct {
	Code sqlite3.ErrNo
	err  error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("database unavailable: %v", e.err)
}

// Unwrap returns the underlying error for error chain support
func (e *UnavailableError) Unwrap() error {
	return e.err
}

func (e *UnavailableError) Is(target error) bool {
	_, ok := target.(*UnavailableError)
	return ok
}

// NewUnavailableError creates a new UnavailableError
func NewUnavailableError(err error) error {
	return &UnavailableError{err: err}
}

var ErrUnavailable = &UnavailableError{}

// ClassifySqliteErr wraps err in an UnavailableError when the sqlite error
// code says the database file itself is unusable. Other errors are returned unchanged.
func ClassifySqliteErr(err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}
	switch sqliteErr.Code {
	case sqlite3.ErrCantOpen, sqlite3.ErrReadonly, sqlite3.ErrCorrupt, sqlite3.ErrNotADB, sqlite3.ErrPerm:
		return &UnavailableError{Code: sqliteErr.Code, err: err}
	default:
		return err
	}
}
