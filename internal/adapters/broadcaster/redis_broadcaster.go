package broadcaster

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mwkdckd93-sudo/maz/internal/ports/outbound"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const channelPrefix = "events:"

// RedisBroadcaster implements the broadcaster interface using Redis pub/sub. Every
// instance publishes to Redis and runs one pattern subscription that feeds its local hub,
// so a bid accepted on one instance reaches viewers connected to any instance.
type RedisBroadcaster struct {
	client *redis.Client
	hub    *Hub
	pubsub *redis.PubSub
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger zerolog.Logger
}

type RedisBroadcasterParams struct {
	RedisClient *redis.Client
	Hub         *Hub
	Logger      zerolog.Logger
}

func NewBroadcaster(params RedisBroadcasterParams) *RedisBroadcaster {
	ctx, cancel := context.WithCancel(context.Background())

	return &RedisBroadcaster{
		client: params.RedisClient,
		hub:    params.Hub,
		ctx:    ctx,
		cancel: cancel,
		logger: params.Logger.With().Str("component", "redis_broadcaster").Logger(),
	}
}

// Start subscribes to every event channel and forwards messages to the hub
func (r *RedisBroadcaster) Start(ctx context.Context) error {
	r.pubsub = r.client.PSubscribe(ctx, channelPrefix+"*")
	if _, err := r.pubsub.Receive(ctx); err != nil {
		r.pubsub.Close()
		return fmt.Errorf("failed to subscribe to event channels: %w", err)
	}

	r.wg.Add(1)
	go r.listenForRedisMessages(r.pubsub.Channel())

	r.logger.Info().Msg("Redis broadcaster subscribed")
	return nil
}

// Publish publishes an event to all subscribers of an audience via Redis
func (r *RedisBroadcaster) Publish(ctx context.Context, audience outbound.Audience, event outbound.Event) error {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	result := r.client.Publish(ctx, channelPrefix+string(audience), eventJSON)
	if err := result.Err(); err != nil {
		r.logger.Error().Err(err).Str("audience", string(audience)).Msg("Failed to publish to Redis")
		return fmt.Errorf("failed to publish to Redis: %w", err)
	}

	r.logger.Debug().
		Str("event_type", string(event.Type)).
		Str("audience", string(audience)).
		Int64("instance_count", result.Val()).
		Msg("Published event")

	return nil
}

// Subscribe attaches a subscriber channel to an audience on this instance
func (r *RedisBroadcaster) Subscribe(ctx context.Context, audience outbound.Audience, subscriberID string, events chan<- outbound.Event) error {
	if !r.hub.Join(audience, subscriberID, events) {
		r.logger.Debug().
			Str("subscriber_id", subscriberID).
			Str("audience", string(audience)).
			Msg("Subscriber already joined audience")
	}
	return nil
}

// Unsubscribe detaches a subscriber from an audience
func (r *RedisBroadcaster) Unsubscribe(ctx context.Context, audience outbound.Audience, subscriberID string) error {
	r.hub.Leave(audience, subscriberID)
	return nil
}

// UnsubscribeAll detaches a subscriber from every audience
func (r *RedisBroadcaster) UnsubscribeAll(ctx context.Context, subscriberID string) error {
	r.hub.LeaveAll(subscriberID)
	return nil
}

// listenForRedisMessages forwards Redis messages to the local hub
func (r *RedisBroadcaster) listenForRedisMessages(ch <-chan *redis.Message) {
	defer r.wg.Done()
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error().Interface("panic", err).Msg("Redis message listener panic")
		}
	}()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				r.logger.Info().Msg("Redis channel closed")
				return
			}

			var event outbound.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				r.logger.Error().Err(err).Str("channel", msg.Channel).Msg("Failed to unmarshal Redis message")
				continue
			}

			audience := outbound.Audience(strings.TrimPrefix(msg.Channel, channelPrefix))
			r.hub.Deliver(audience, event)

		case <-r.ctx.Done():
			return
		}
	}
}

// Close stops the listener and closes the subscription
func (r *RedisBroadcaster) Close() error {
	r.cancel()

	var err error
	if r.pubsub != nil {
		err = r.pubsub.Close()
	}
	r.wg.Wait()
	return err
}
