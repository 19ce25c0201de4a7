package tokenstore

import (
	"context"
	"sync"
)

// inMemoryTokenStore is used when no token database is configured.
// Its contents die with the process.
type inMemoryTokenStore struct {
	*baseTokenStore
	token string
	mutex *sync.Mutex
}

func (s *inMemoryTokenStore) Load(ctx context.Context) (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.checkCtx(ctx, "load"); err != nil {
		return "", err
	}
	if s.token == "" {
		return "", ErrNoToken
	}
	return s.token, nil
}

func (s *inMemoryTokenStore) Save(ctx context.Context, token string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.checkCtx(ctx, "save"); err != nil {
		return err
	}
	s.token = token
	s.log.Debug("saved token")
	return nil
}

func (s *inMemoryTokenStore) Clear(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.checkCtx(ctx, "clear"); err != nil {
		return err
	}
	s.token = ""
	s.log.Debug("cleared token")
	return nil
}
