package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const leaseKeyPrefix = "lease:"

// releaseScript deletes the lease only while it still carries our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lease is a cross-instance lease stored as a Redis key with a TTL
type Lease struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewLease creates a Redis lease
func NewLease(client *redis.Client, logger zerolog.Logger) *Lease {
	return &Lease{
		client: client,
		logger: logger.With().Str("component", "redis_lease").Logger(),
	}
}

// Acquire takes the named lease for ttl. It returns a nil release func when another
// holder owns the lease.
func (l *Lease) Acquire(ctx context.Context, name string, ttl time.Duration) (func(), error) {
	key := leaseKeyPrefix + name
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lease %s: %w", name, err)
	}
	if !ok {
		return nil, nil
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
			l.logger.Error().Err(err).Str("lease", name).Msg("Failed to release lease")
		}
	}, nil
}
