package broadcaster

import (
	"context"
	"time"

	"github.com/mwkdckd93-sudo/maz/internal/ports/outbound"

	"github.com/rs/zerolog"
)

// LocalBroadcaster delivers events straight into the hub. It serves a single instance.
type LocalBroadcaster struct {
	hub    *Hub
	logger zerolog.Logger
}

// NewLocalBroadcaster creates a broadcaster without a cross-instance transport
func NewLocalBroadcaster(hub *Hub, logger zerolog.Logger) *LocalBroadcaster {
	return &LocalBroadcaster{
		hub:    hub,
		logger: logger.With().Str("component", "local_broadcaster").Logger(),
	}
}

// Publish publishes an event to the local members of the audience
func (b *LocalBroadcaster) Publish(ctx context.Context, audience outbound.Audience, event outbound.Event) error {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}
	delivered := b.hub.Deliver(audience, event)
	b.logger.Debug().
		Str("audience", string(audience)).
		Str("event_type", string(event.Type)).
		Int("delivered", delivered).
		Msg("Published event")
	return nil
}

// Subscribe attaches a subscriber channel to an audience
func (b *LocalBroadcaster) Subscribe(ctx context.Context, audience outbound.Audience, subscriberID string, events chan<- outbound.Event) error {
	b.hub.Join(audience, subscriberID, events)
	return nil
}

// Unsubscribe detaches a subscriber from an audience
func (b *LocalBroadcaster) Unsubscribe(ctx context.Context, audience outbound.Audience, subscriberID string) error {
	b.hub.Leave(audience, subscriberID)
	return nil
}

// UnsubscribeAll detaches a subscriber from every audience
func (b *LocalBroadcaster) UnsubscribeAll(ctx context.Context, subscriberID string) error {
	b.hub.LeaveAll(subscriberID)
	return nil
}
