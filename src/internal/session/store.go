package session

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"wellmind-session-svc/src/internal/models"
)

// Store is the persisted string key-value storage backing the session state
// machine and the activity tracker. An absent key is reported as an empty
// value, not an error.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

type redisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Store backed by Redis. Values are stored without
// expiration; session lifetime is governed by the state machine, not by TTL.
func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func (s *redisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil // Absent key is a valid state
		}
		logrus.WithError(err).WithField("key", key).Error("Failed to read session key")
		return "", models.ErrRedisGet
	}
	return value, nil
}

func (s *redisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		logrus.WithError(err).WithField("key", key).Error("Failed to write session key")
		return models.ErrRedisSet
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		logrus.WithError(err).WithField("keys", keys).Error("Failed to delete session keys")
		return models.ErrRedisDelete
	}
	return nil
}
