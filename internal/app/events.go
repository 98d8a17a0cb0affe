package app

import (
	"time"

	"github.com/mwkdckd93-sudo/maz/internal/domain/auction"
	"github.com/mwkdckd93-sudo/maz/internal/domain/bid"
	"github.com/mwkdckd93-sudo/maz/internal/domain/shared"
	"github.com/mwkdckd93-sudo/maz/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newBidEvent(a *auction.Auction, b *bid.Bid) outbound.Event {
	return outbound.Event{
		Type:      outbound.EventTypeNewBid,
		AuctionID: a.ID,
		Data: map[string]any{
			"auctionId": a.ID.String(),
			"bid": map[string]any{
				"id":         b.ID.String(),
				"amount":     b.Amount.String(),
				"bidderId":   b.BidderID.String(),
				"bidderName": b.BidderName,
				"createdAt":  b.CreatedAt.Format(time.RFC3339Nano),
			},
			"newPrice":    a.CurrentPrice.String(),
			"newBidCount": a.BidCount,
		},
		Timestamp: b.CreatedAt.Unix(),
	}
}

func timerExtendedEvent(auctionID uuid.UUID, endTime time.Time) outbound.Event {
	return outbound.Event{
		Type:      outbound.EventTypeTimerExtended,
		AuctionID: auctionID,
		Data: map[string]any{
			"auctionId":  auctionID.String(),
			"newEndTime": endTime.Format(time.RFC3339Nano),
		},
	}
}

func outbidEvent(auctionID uuid.UUID, title string, newPrice decimal.Decimal) outbound.Event {
	return outbound.Event{
		Type:      outbound.EventTypeOutbid,
		AuctionID: auctionID,
		Data: map[string]any{
			"auctionId":    auctionID.String(),
			"auctionTitle": title,
			"newPrice":     newPrice.String(),
		},
	}
}

func auctionEndedEvent(result *shared.AuctionCloseResult) outbound.Event {
	data := map[string]any{
		"auctionId":  result.AuctionID.String(),
		"status":     result.Status,
		"finalPrice": result.FinalPrice.String(),
	}
	if result.WinnerID != nil {
		data["winnerId"] = result.WinnerID.String()
	}
	return outbound.Event{
		Type:      outbound.EventTypeAuctionEnded,
		AuctionID: result.AuctionID,
		Data:      data,
		Timestamp: result.ClosedAt.Unix(),
	}
}

func auctionWonEvent(result *shared.AuctionCloseResult) outbound.Event {
	return outbound.Event{
		Type:      outbound.EventTypeAuctionWon,
		AuctionID: result.AuctionID,
		Data: map[string]any{
			"auctionId":    result.AuctionID.String(),
			"auctionTitle": result.Title,
			"finalPrice":   result.FinalPrice.String(),
		},
		Timestamp: result.ClosedAt.Unix(),
	}
}

// ViewerCountEvent reports the number of viewers in an auction room
func ViewerCountEvent(auctionID uuid.UUID, count int64) outbound.Event {
	return outbound.Event{
		Type:      outbound.EventTypeViewerCount,
		AuctionID: auctionID,
		Data: map[string]any{
			"auctionId": auctionID.String(),
			"count":     count,
		},
		Timestamp: time.Now().Unix(),
	}
}
