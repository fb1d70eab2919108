// Package platform opens the external connections both binaries depend on.
package platform

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"content-pipeline/internal/config"
)

const (
	defaultMaxRetries     = 50
	defaultRetryDelay     = 3 * time.Second
	rabbitRetryDelay      = 5 * time.Second
	defaultConnectTimeout = 5 * time.Second
	defaultPingTimeout    = 2 * time.Second
	defaultHealthCheck    = time.Minute
)

// Retry bounds the connection attempts.
type Retry struct {
	MaxAttempts int
	Delay       time.Duration
}

func (r Retry) withDefaults(delay time.Duration) Retry {
	if r.MaxAttempts <= 0 {
		r.MaxAttempts = defaultMaxRetries
	}
	if r.Delay <= 0 {
		r.Delay = delay
	}
	return r
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Postgres opens the pgx pool, retrying until the database answers a ping.
func Postgres(ctx context.Context, cfg *config.Config, retry Retry, logger *zap.Logger) (*pgxpool.Pool, error) {
	retry = retry.withDefaults(defaultRetryDelay)
	poolConfig, err := pgxpool.ParseConfig(cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("unable to parse postgres config: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.DBMaxConns)
	poolConfig.MaxConnIdleTime = cfg.DBIdleTimeout
	poolConfig.HealthCheckPeriod = defaultHealthCheck

	logger.Info("Attempting to connect to PostgreSQL",
		zap.String("dsn", cfg.MaskedDSN()),
		zap.Int("max_retries", retry.MaxAttempts),
		zap.Duration("retry_delay", retry.Delay),
	)

	var lastErr error
	for attempt := 1; attempt <= retry.MaxAttempts; attempt++ {
		connectCtx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
		pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
		cancel()
		if err == nil {
			pingCtx, pingCancel := context.WithTimeout(ctx, defaultPingTimeout)
			err = pool.Ping(pingCtx)
			pingCancel()
			if err == nil {
				logger.Info("Connected to PostgreSQL", zap.Int("attempt", attempt))
				return pool, nil
			}
			pool.Close()
		}
		lastErr = err
		logger.Warn("PostgreSQL connection failed, retrying...",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", retry.MaxAttempts),
			zap.Error(err),
		)
		if attempt < retry.MaxAttempts {
			if err := sleep(ctx, retry.Delay); err != nil {
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("failed to connect to postgres after %d attempts: %w", retry.MaxAttempts, lastErr)
}

// Redis creates the client, retrying until it answers a ping.
func Redis(ctx context.Context, cfg *config.Config, retry Retry, logger *zap.Logger) (*redis.Client, error) {
	retry = retry.withDefaults(defaultRetryDelay)
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	logger.Info("Attempting to connect to Redis", zap.String("address", opts.Addr), zap.Int("db", opts.DB))

	var lastErr error
	for attempt := 1; attempt <= retry.MaxAttempts; attempt++ {
		client := redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			logger.Info("Connected to Redis", zap.Int("attempt", attempt))
			return client, nil
		}
		_ = client.Close()
		lastErr = err
		logger.Warn("Redis ping failed, retrying...",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", retry.MaxAttempts),
			zap.Error(err),
		)
		if attempt < retry.MaxAttempts {
			if err := sleep(ctx, retry.Delay); err != nil {
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("failed to connect to redis after %d attempts: %w", retry.MaxAttempts, lastErr)
}

// RabbitMQ dials the broker and logs when the connection drops.
func RabbitMQ(ctx context.Context, rawURL string, retry Retry, logger *zap.Logger) (*amqp091.Connection, error) {
	retry = retry.withDefaults(rabbitRetryDelay)
	logger.Info("Attempting to connect to RabbitMQ",
		zap.String("url", MaskURL(rawURL)),
		zap.Int("max_retries", retry.MaxAttempts),
		zap.Duration("retry_delay", retry.Delay),
	)

	var lastErr error
	for attempt := 1; attempt <= retry.MaxAttempts; attempt++ {
		conn, err := amqp091.Dial(rawURL)
		if err == nil {
			logger.Info("Connected to RabbitMQ", zap.Int("attempt", attempt))
			notifyClose := conn.NotifyClose(make(chan *amqp091.Error, 1))
			go func() {
				if err := <-notifyClose; err != nil {
					logger.Error("RabbitMQ connection closed unexpectedly", zap.Error(err))
				} else {
					logger.Info("RabbitMQ connection closed")
				}
			}()
			return conn, nil
		}
		lastErr = err
		logger.Warn("RabbitMQ connection failed, retrying...",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", retry.MaxAttempts),
			zap.Error(err),
		)
		if attempt < retry.MaxAttempts {
			if err := sleep(ctx, retry.Delay); err != nil {
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", retry.MaxAttempts, lastErr)
}

// MaskURL hides the password of a connection URL for logging.
func MaskURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "[invalid url]"
	}
	return u.Redacted()
}
