package tokenstore

import (
	"context"
	"log/slog"
	"time"
)

type baseTokenStore struct {
	log     *slog.Logger
	kind    string
	nowFunc func() time.Time
}

func newBase(logger *slog.Logger, kind string) *baseTokenStore {
	return &baseTokenStore{
		log:     logger.With("store", kind),
		kind:    kind,
		nowFunc: time.Now,
	}
}

// checkCtx reports a cancelled context before any work is done.
func (b *baseTokenStore) checkCtx(ctx context.Context, op string) error {
	select {
	case <-ctx.Done():
		b.log.Info("context cancelled during token "+op, "error", ctx.Err())
		return ctx.Err()
	default:
		return nil
	}
}
