package tokenstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Ryan-Har/gymsync/internal/db"
	"github.com/Ryan-Har/gymsync/internal/db/sqliteDB"
	"github.com/Ryan-Har/gymsync/internal/logutil"
)

type sqliteTokenStore struct {
	*baseTokenStore
	db      *sql.DB
	queries *sqliteDB.Queries
}

func (s *sqliteTokenStore) Load(ctx context.Context) (string, error) {
	defer logutil.NewTimingLogger(s.log, time.Now(), "executed sql query", "method", "load token")()

	if err := s.checkCtx(ctx, "load"); err != nil {
		return "", err
	}

	row, err := s.queries.GetPersistedSession(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNoToken
		}
		return "", logutil.LogAndWrapErr(s.log, "failed to load token", db.ClassifySqliteErr(err))
	}
	s.log.Debug("loaded token", "saved_at", row.SavedTime())
	return row.Token, nil
}

func (s *sqliteTokenStore) Save(ctx context.Context, token string) error {
	defer logutil.NewTimingLogger(s.log, time.Now(), "executed sql query", "method", "save token")()

	if err := s.checkCtx(ctx, "save"); err != nil {
		return err
	}

	err := s.queries.UpsertPersistedSession(ctx, sqliteDB.UpsertPersistedSessionParams{
		Token:   token,
		SavedAt: s.nowFunc().Unix(),
	})
	if err != nil {
		return logutil.LogAndWrapErr(s.log, "failed to save token", db.ClassifySqliteErr(err))
	}
	return nil
}

func (s *sqliteTokenStore) Clear(ctx context.Context) error {
	defer logutil.NewTimingLogger(s.log, time.Now(), "executed sql query", "method", "clear token")()

	if err := s.checkCtx(ctx, "clear"); err != nil {
		return err
	}

	if err := s.queries.DeletePersistedSession(ctx); err != nil {
		return logutil.LogAndWrapErr(s.log, "failed to clear token", db.ClassifySqliteErr(err))
	}
	return nil
}
