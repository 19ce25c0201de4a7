// Package tokenstore keeps the bearer token across process restarts.
//
// Exactly one token is stored at a time. Save replaces it, Clear removes it.
package tokenstore

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"

	"github.com/Ryan-Har/gymsync/internal/db/sqliteDB"
)

// Store defines the interface for durable token storage.
type Store interface {
	// Load returns the stored token, or ErrNoToken when nothing is stored.
	Load(ctx context.Context) (string, error)

	// Save replaces the stored token.
	Save(ctx context.Context, token string) error

	// Clear removes the stored token. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

func NewInMemory(logger *slog.Logger) *inMemoryTokenStore {
	return &inMemoryTokenStore{
		baseTokenStore: newBase(logger, "memory"),
		mutex:          new(sync.Mutex),
	}
}

// NewSqlite returns a store backed by the persisted_session table.
// The database must already be migrated (see database.RunSqliteMigrations).
func NewSqlite(logger *slog.Logger, db *sql.DB) *sqliteTokenStore {
	return &sqliteTokenStore{
		baseTokenStore: newBase(logger, "sqlite"),
		db:             db,
		queries:        sqliteDB.New(db),
	}
}

var ErrNoToken = &NoTokenError{}

// NoTokenError is returned by Load when no token has been saved.
type NoTokenError struct{}

func (e *NoTokenError) Error() string {
	return "no token stored"
}

func (e *NoTokenError) Is(target error) bool {
	_, ok := target.(*NoTokenError)
	return ok
}
