package outbound

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// EventType represents the type of event being broadcasted
type EventType string

const (
	EventTypeNewBid        EventType = "new_bid"
	EventTypeOutbid        EventType = "outbid"
	EventTypeTimerExtended EventType = "timer_extended"
	EventTypeAuctionEnded  EventType = "auction_ended"
	EventTypeAuctionWon    EventType = "auction_won"
	EventTypeViewerCount   EventType = "viewer_count"
)

// Audience addresses a set of subscribers
type Audience string

// GlobalAudience reaches every connected client
const GlobalAudience Audience = "global"

// AuctionAudience reaches the viewers of one auction
func AuctionAudience(auctionID uuid.UUID) Audience {
	return Audience("auction:" + auctionID.String())
}

// UserAudience reaches the personal channel of one user
func UserAudience(userID uuid.UUID) Audience {
	return Audience("user:" + userID.String())
}

// IsAuction reports whether the audience is an auction room
func (a Audience) IsAuction() bool {
	return strings.HasPrefix(string(a), "auction:")
}

// Event represents a broadcast event
type Event struct {
	Type      EventType      `json:"type"`
	AuctionID uuid.UUID      `json:"auction_id"`
	Data      map[string]any `json:"data"`
	Timestamp int64          `json:"timestamp"`
}

// Broadcaster delivers events to audiences. Delivery is at-most-once and must never block
// on a slow or disconnected subscriber.
type Broadcaster interface {
	// Publish publishes an event to every subscriber of the audience
	Publish(ctx context.Context, audience Audience, event Event) error

	// Subscribe attaches a subscriber channel to an audience
	Subscribe(ctx context.Context, audience Audience, subscriberID string, events chan<- Event) error

	// Unsubscribe detaches a subscriber from an audience
	Unsubscribe(ctx context.Context, audience Audience, subscriberID string) error

	// UnsubscribeAll detaches a subscriber from every audience it joined
	UnsubscribeAll(ctx context.Context, subscriberID string) error
}

// ViewerCounter keeps the number of viewers per auction room
type ViewerCounter interface {
	Join(ctx context.Context, auctionID uuid.UUID) (int64, error)
	Leave(ctx context.Context, auctionID uuid.UUID) (int64, error)
}
