package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/mwkdckd93-sudo/maz/internal/config"

	"github.com/redis/go-redis/v9"
)

const (
	defaultPoolSize    = 10
	defaultMaxRetries  = 3
	defaultDialTimeout = 5 * time.Second
	defaultIOTimeout   = 3 * time.Second
	pingTimeout        = 5 * time.Second
)

// NewClient creates a Redis client from the Redis section of the configuration.
// Zero pool and timeout settings fall back to the package defaults.
func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(clientOptions(cfg))
}

func clientOptions(cfg config.RedisConfig) *redis.Options {
	opts := &redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.IOTimeout,
		WriteTimeout: cfg.IOTimeout,
	}
	if opts.PoolSize <= 0 {
		opts.PoolSize = defaultPoolSize
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = defaultDialTimeout
	}
	if cfg.IOTimeout <= 0 {
		opts.ReadTimeout = defaultIOTimeout
		opts.WriteTimeout = defaultIOTimeout
	}
	return opts
}

// PingRedis checks that the server behind client answers within the ping timeout
func PingRedis(ctx context.Context, client *redis.Client) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis at %s: %w", client.Options().Addr, err)
	}
	return nil
}
