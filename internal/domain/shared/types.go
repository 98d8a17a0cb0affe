package shared

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AuctionCloseResult represents the result of closing an auction
type AuctionCloseResult struct {
	AuctionID  uuid.UUID
	Title      string
	SellerID   uuid.UUID
	WinnerID   *uuid.UUID
	FinalPrice decimal.Decimal
	Status     string
	ClosedAt   time.Time
	// Closed is false when the auction was already closed, extended or not due
	Closed bool
}

// MoneyPlaces is the precision of every stored amount (NUMERIC(18,2))
const MoneyPlaces = 2

// IsMoney reports whether d is representable without rounding at MoneyPlaces
func IsMoney(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MoneyPlaces))
}
