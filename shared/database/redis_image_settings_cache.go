package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"content-pipeline/shared/interfaces"
	"content-pipeline/shared/models"
)

var _ interfaces.ImageSettingsCache = (*redisImageSettingsCache)(nil)

type redisImageSettingsCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisImageSettingsCache creates a read-through cache for image settings.
func NewRedisImageSettingsCache(client *redis.Client, logger *zap.Logger) interfaces.ImageSettingsCache {
	return &redisImageSettingsCache{
		client: client,
		logger: logger.Named("RedisImageSettingsCache"),
	}
}

func imageSettingsKey(accountID string) string {
	return fmt.Sprintf("image_settings:%s", accountID)
}

func (c *redisImageSettingsCache) Get(ctx context.Context, accountID string) (*models.ImageSettings, bool, error) {
	raw, err := c.client.Get(ctx, imageSettingsKey(accountID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cached image settings: %w", err)
	}
	var settings models.ImageSettings
	if err := json.Unmarshal(raw, &settings); err != nil {
		c.logger.Warn("Dropping unreadable cached image settings", zap.String("account_id", accountID), zap.Error(err))
		_ = c.Invalidate(ctx, accountID)
		return nil, false, nil
	}
	return &settings, true, nil
}

func (c *redisImageSettingsCache) Set(ctx context.Context, settings *models.ImageSettings, ttl time.Duration) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode image settings: %w", err)
	}
	if err := c.client.Set(ctx, imageSettingsKey(settings.AccountID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache image settings: %w", err)
	}
	return nil
}

func (c *redisImageSettingsCache) Invalidate(ctx context.Context, accountID string) error {
	if err := c.client.Del(ctx, imageSettingsKey(accountID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate image settings: %w", err)
	}
	return nil
}
