package shared

import (
	"time"

	"github.com/google/uuid"
)

// User represents an authenticated user in the system
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	TotalBids int       `json:"total_bids"`
}

// Conversation links the seller and the winning bidder of a sold auction
type Conversation struct {
	ID        uuid.UUID `json:"id"`
	AuctionID uuid.UUID `json:"auction_id"`
	SellerID  uuid.UUID `json:"seller_id"`
	BuyerID   uuid.UUID `json:"buyer_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Notification is a fire-and-forget record addressed to one user
type Notification struct {
	ID        uuid.UUID      `json:"id"`
	UserID    uuid.UUID      `json:"user_id"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Notification types
const (
	NotificationOutbid     = "outbid"
	NotificationAuctionWon = "auction_won"
	NotificationSold       = "auction_sold"
	NotificationUnsold     = "auction_unsold"
)
