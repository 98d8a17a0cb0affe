package auction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the current status of an auction
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusEnded     Status = "ended"
	StatusSold      Status = "sold"
	StatusCancelled Status = "cancelled"
)

// IsTerminal reports whether no further transitions are possible
func (s Status) IsTerminal() bool {
	return s == StatusEnded || s == StatusSold || s == StatusCancelled
}

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusActive, StatusEnded, StatusSold, StatusCancelled:
		return true
	}
	return false
}

// Auction represents a time-boxed ascending-price listing
type Auction struct {
	ID              uuid.UUID        `json:"id"`
	SellerID        uuid.UUID        `json:"seller_id"`
	CategoryID      *uuid.UUID       `json:"category_id,omitempty"`
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	StartingPrice   decimal.Decimal  `json:"starting_price"`
	CurrentPrice    decimal.Decimal  `json:"current_price"`
	MinBidIncrement decimal.Decimal  `json:"min_bid_increment"`
	BuyNowPrice     *decimal.Decimal `json:"buy_now_price,omitempty"`
	StartTime       time.Time        `json:"start_time"`
	EndTime         time.Time        `json:"end_time"`
	Status          Status           `json:"status"`
	BidCount        int              `json:"bid_count"`
	WinnerID        *uuid.UUID       `json:"winner_id,omitempty"`
	// LeadingBidderID is derived from the bid flagged as winning; it is never written back.
	LeadingBidderID *uuid.UUID `json:"leading_bidder_id,omitempty"`
	SettledAt       *time.Time `json:"settled_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// IsActive returns true if the auction is currently active
func (a *Auction) IsActive() bool {
	return a.Status == StatusActive
}

// HasEnded reports whether the wall clock has passed the end time.
// This, not the status, decides whether bidding is over.
func (a *Auction) HasEnded(now time.Time) bool {
	return !a.EndTime.After(now)
}

// MinimumNextBid returns the smallest amount the next bid may carry
func (a *Auction) MinimumNextBid() decimal.Decimal {
	return a.CurrentPrice.Add(a.MinBidIncrement)
}

// IsDue reports whether the closer should finalize the auction
func (a *Auction) IsDue(now time.Time) bool {
	return a.IsActive() && a.HasEnded(now)
}

// NeedsSettlement reports whether post-close side effects are still outstanding
func (a *Auction) NeedsSettlement() bool {
	return (a.Status == StatusSold || a.Status == StatusEnded) && a.SettledAt == nil
}

// ExtendForLateBid applies the anti-sniping rule for a bid accepted at now.
// When less than threshold remains the end time becomes now+extension; the remaining
// time is replaced, not added to.
func (a *Auction) ExtendForLateBid(now time.Time, threshold, extension time.Duration) bool {
	remaining := a.EndTime.Sub(now)
	if remaining <= 0 || remaining >= threshold {
		return false
	}
	a.EndTime = now.Add(extension)
	return true
}

// ApplyBid records an accepted bid on the auction counters
func (a *Auction) ApplyBid(bidderID uuid.UUID, amount decimal.Decimal, now time.Time) {
	a.CurrentPrice = amount
	a.BidCount++
	a.LeadingBidderID = &bidderID
	a.UpdatedAt = now
}

// Close marks the auction sold to the leading bidder, or ended when nobody bid
func (a *Auction) Close(now time.Time) {
	if a.LeadingBidderID != nil {
		winner := *a.LeadingBidderID
		a.WinnerID = &winner
		a.Status = StatusSold
	} else {
		a.WinnerID = nil
		a.Status = StatusEnded
	}
	a.UpdatedAt = now
}

// CanTransition reports whether an explicit lifecycle action may move the auction to next.
// Closing (active -> ended/sold) is reserved for the closer and is not an explicit action.
func (a *Auction) CanTransition(next Status) bool {
	switch next {
	case StatusPending:
		return a.Status == StatusDraft
	case StatusActive:
		return a.Status == StatusPending
	case StatusCancelled:
		switch a.Status {
		case StatusDraft, StatusPending:
			return true
		case StatusActive:
			return a.BidCount == 0
		}
	}
	return false
}
