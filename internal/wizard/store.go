// internal/wizard/store.go
package wizard

import (
	"context"
	"fmt"
	"time"

	"equireal-workers/internal/common/database"
	"equireal-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

// Store persists wizard sessions.
type Store interface {
	Load(ctx context.Context, id string) (*models.WizardSession, bool, error)
	Save(ctx context.Context, s *models.WizardSession) error
}

// RedisStore keeps each session as a JSON value that expires ttl after
// its last save.
type RedisStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisStore(rdb redis.Cmdable, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) Load(ctx context.Context, id string) (*models.WizardSession, bool, error) {
	var session models.WizardSession
	found, err := database.GetJSON(ctx, s.rdb, database.WizardKey(id), &session)
	if err != nil {
		return nil, false, fmt.Errorf("load wizard session %s: %w", id, err)
	}
	if !found {
		return nil, false, nil
	}
	return &session, true, nil
}

func (s *RedisStore) Save(ctx context.Context, session *models.WizardSession) error {
	if err := database.SetJSON(ctx, s.rdb, database.WizardKey(session.ID), session, s.ttl); err != nil {
		return fmt.Errorf("save wizard session %s: %w", session.ID, err)
	}
	return nil
}
