package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const dedupKeyPrefix = "dedup:"

// Deduplicator claims keys with SET NX so a side effect runs once across instances
type Deduplicator struct {
	client *redis.Client
}

// NewDeduplicator creates a Redis deduplicator
func NewDeduplicator(client *redis.Client) *Deduplicator {
	return &Deduplicator{client: client}
}

// Claim returns true the first time key is seen within ttl
func (d *Deduplicator) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := d.client.SetNX(ctx, dedupKeyPrefix+key, time.Now().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim %s: %w", key, err)
	}
	return ok, nil
}
