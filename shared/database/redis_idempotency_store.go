package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"content-pipeline/shared/interfaces"
)

var _ interfaces.IdempotencyStore = (*redisIdempotencyStore)(nil)

type redisIdempotencyStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisIdempotencyStore creates a Redis-backed enqueue deduplication store.
func NewRedisIdempotencyStore(client *redis.Client, logger *zap.Logger) interfaces.IdempotencyStore {
	return &redisIdempotencyStore{
		client: client,
		logger: logger.Named("RedisIdempotencyStore"),
	}
}

func idempotencyKey(key string) string {
	return fmt.Sprintf("jobs:enqueue:%s", key)
}

// Reserve claims key for jobID. When the key is already held, the holder's
// job id is returned with reserved=false.
func (s *redisIdempotencyStore) Reserve(ctx context.Context, key, jobID string, window time.Duration) (string, bool, error) {
	redisKey := idempotencyKey(key)
	ok, err := s.client.SetNX(ctx, redisKey, jobID, window).Result()
	if err != nil {
		s.logger.Error("Failed to reserve idempotency key", zap.String("key", redisKey), zap.Error(err))
		return "", false, fmt.Errorf("failed to reserve idempotency key: %w", err)
	}
	if ok {
		return jobID, true, nil
	}
	existing, err := s.client.Get(ctx, redisKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// Expired between SETNX and GET; the caller may proceed.
			return s.Reserve(ctx, key, jobID, window)
		}
		return "", false, fmt.Errorf("failed to read idempotency key: %w", err)
	}
	return existing, false, nil
}

func (s *redisIdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, idempotencyKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}
