package bid

import (
	"time"

	"github.com/mwkdckd93-sudo/maz/internal/domain/auction"
	"github.com/mwkdckd93-sudo/maz/internal/domain/shared"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Validate decides whether bidderID may bid amount on the auction snapshot at now.
// The first failing check wins. It has no side effects and is run twice per bid:
// speculatively before the lock and authoritatively under it.
func Validate(a *auction.Auction, amount decimal.Decimal, bidderID uuid.UUID, now time.Time) error {
	if a.Status != auction.StatusActive {
		return shared.ErrAuctionNotActive
	}
	if a.HasEnded(now) {
		return shared.ErrAuctionEnded
	}
	if bidderID == a.SellerID {
		return shared.ErrSelfBid
	}
	if a.LeadingBidderID != nil && *a.LeadingBidderID == bidderID {
		return shared.ErrAlreadyHighestBidder
	}
	if minimum := a.MinimumNextBid(); amount.LessThan(minimum) {
		return shared.BidTooLow(minimum)
	}
	return nil
}
