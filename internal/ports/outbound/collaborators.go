package outbound

//go:generate mockgen -source=collaborators.go -destination=mocks/collaborators.go -package=mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// NotificationSink delivers a notification to one user. Fire-and-forget from the core's
// point of view; failures never roll back a bid or a closing.
type NotificationSink interface {
	Notify(ctx context.Context, userID uuid.UUID, notificationType, title, body string, data map[string]any) error
}

// ConversationService creates the buyer-seller conversation of a sold auction
type ConversationService interface {
	// CreateConversationIfAbsent returns the existing conversation when one exists;
	// created reports whether this call inserted it.
	CreateConversationIfAbsent(ctx context.Context, auctionID, sellerID, buyerID uuid.UUID) (conversationID uuid.UUID, created bool, err error)

	// PostSystemMessage appends a system message to a conversation
	PostSystemMessage(ctx context.Context, conversationID uuid.UUID, body string) error
}

// MediaCleaner removes ephemeral media attached to an auction
type MediaCleaner interface {
	DeleteMediaForAuction(ctx context.Context, auctionID uuid.UUID) error
}

// Deduplicator remembers keys for a while; Claim returns false for a key seen before
type Deduplicator interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Lease is a named, expiring mutual-exclusion token shared by service instances
type Lease interface {
	// Acquire returns a release func when the lease was obtained, nil when it is held elsewhere
	Acquire(ctx context.Context, name string, ttl time.Duration) (release func(), err error)
}
