package bid

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bid represents an accepted bid on an auction
type Bid struct {
	ID         uuid.UUID       `json:"id"`
	AuctionID  uuid.UUID       `json:"auction_id"`
	BidderID   uuid.UUID       `json:"bidder_id"`
	BidderName string          `json:"bidder_name,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	IsWinning  bool            `json:"is_winning"`
	IsAutoBid  bool            `json:"is_auto_bid"`
	CreatedAt  time.Time       `json:"created_at"`
}

// New creates a bid that is winning at creation time
func New(auctionID, bidderID uuid.UUID, amount decimal.Decimal, now time.Time) *Bid {
	return &Bid{
		ID:        uuid.New(),
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    amount,
		IsWinning: true,
		CreatedAt: now,
	}
}
