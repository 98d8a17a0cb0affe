package redis

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ViewerCounter counts auction room viewers across every service instance
type ViewerCounter struct {
	client *redis.Client
}

// NewViewerCounter creates a Redis viewer counter
func NewViewerCounter(client *redis.Client) *ViewerCounter {
	return &ViewerCounter{client: client}
}

func viewersKey(auctionID uuid.UUID) string {
	return fmt.Sprintf("auction:%s:viewers", auctionID.String())
}

// Join increments the room's viewer count
func (v *ViewerCounter) Join(ctx context.Context, auctionID uuid.UUID) (int64, error) {
	count, err := v.client.Incr(ctx, viewersKey(auctionID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment viewers: %w", err)
	}
	return count, nil
}

// Leave decrements the room's viewer count, never below zero
func (v *ViewerCounter) Leave(ctx context.Context, auctionID uuid.UUID) (int64, error) {
	key := viewersKey(auctionID)
	count, err := v.client.Decr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to decrement viewers: %w", err)
	}
	if count < 0 {
		if err := v.client.Set(ctx, key, 0, 0).Err(); err != nil {
			return 0, fmt.Errorf("failed to reset viewers: %w", err)
		}
		count = 0
	}
	return count, nil
}
