// Package sqliteDB holds the queries against the token database.
// It follows the layout sqlc produces so the store code reads the same way.
package sqliteDB

import (
	"context"
	"database/sql"
	"time"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

type PersistedSession struct {
	ID      int64
	Token   string
	SavedAt int64
}

// SavedTime converts the stored unix seconds.
func (p PersistedSession) SavedTime() time.Time {
	return time.Unix(p.SavedAt, 0)
}

const getPersistedSession = `-- name: GetPersistedSession :one
SELECT id, token, saved_at FROM persisted_session WHERE id = 1
`

func (q *Queries) GetPersistedSession(ctx context.Context) (PersistedSession, error) {
	row := q.db.QueryRowContext(ctx, getPersistedSession)
	var i PersistedSession
	err := row.Scan(&i.ID, &i.Token, &i.SavedAt)
	return i, err
}

const upsertPersistedSession = `-- name: UpsertPersistedSession :exec
INSERT INTO persisted_session (id, token, saved_at) VALUES (1, ?, ?)
ON CONFLICT (id) DO UPDATE SET token = excluded.token, saved_at = excluded.saved_at
`

type UpsertPersistedSessionParams struct {
	Token   string
	SavedAt int64
}

func (q *Queries) UpsertPersistedSession(ctx context.Context, arg UpsertPersistedSessionParams) error {
	_, err := q.db.ExecContext(ctx, upsertPersistedSession, arg.Token, arg.SavedAt)
	return err
}

const deletePersistedSession = `-- name: DeletePersistedSession :exec
DELETE FROM persisted_session
`

func (q *Queries) DeletePersistedSession(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deletePersistedSession)
	return err
}
