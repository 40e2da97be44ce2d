package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"mathtutor-backend/internal/model"
	"mathtutor-backend/pkg/logger"
)

// RedisStore keeps the serialized session collection under a single
// key, optionally with a TTL so abandoned deployments age out.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, key string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		key:    key,
		ttl:    ttl,
	}
}

func (r *RedisStore) Load(ctx context.Context) ([]model.Session, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return []model.Session{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisOperation, err)
	}

	var sessions []model.Session
	if err := json.Unmarshal(data, &sessions); err != nil {
		logger.Warnf("Discarding malformed session slot %s: %v", r.key, err)
		return []model.Session{}, nil
	}

	return sessions, nil
}

func (r *RedisStore) Save(ctx context.Context, sessions []model.Session) error {
	data, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisOperation, err)
	}

	if err := r.client.Set(ctx, r.key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisOperation, err)
	}

	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
