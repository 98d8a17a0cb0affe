package app

import (
	"context"
	"fmt"
	"time"

	"github.com/mwkdckd93-sudo/maz/internal/domain/auction"
	"github.com/mwkdckd93-sudo/maz/internal/domain/bid"
	"github.com/mwkdckd93-sudo/maz/internal/domain/shared"
	"github.com/mwkdckd93-sudo/maz/internal/ports/inbound"
	"github.com/mwkdckd93-sudo/maz/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BidService implements the bid use cases
type BidService struct {
	store              outbound.AuctionStore
	userRepo           outbound.UserRepository
	fanout             *Fanout
	antiSnipeThreshold time.Duration
	antiSnipeExtension time.Duration
	now                func() time.Time
	logger             zerolog.Logger
}

type BidServiceParams struct {
	Store              outbound.AuctionStore
	UserRepo           outbound.UserRepository
	Fanout             *Fanout
	AntiSnipeThreshold time.Duration
	AntiSnipeExtension time.Duration
	Clock              func() time.Time
	Logger             zerolog.Logger
}

// NewBidService creates a new bid service
func NewBidService(params BidServiceParams) *BidService {
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}

	return &BidService{
		store:              params.Store,
		userRepo:           params.UserRepo,
		fanout:             params.Fanout,
		antiSnipeThreshold: params.AntiSnipeThreshold,
		antiSnipeExtension: params.AntiSnipeExtension,
		now:                clock,
		logger:             params.Logger.With().Str("component", "bid_service").Logger(),
	}
}

// PlaceBid validates a bid against a snapshot, then commits it under the auction lock
// after validating again. Events and notifications are queued only after commit.
func (client *BidService) PlaceBid(ctx context.Context, req inbound.PlaceBidRequest) (*inbound.PlaceBidResult, error) {
	logger := client.logger.With().
		Str("auction_id", req.AuctionID.String()).
		Str("bidder_id", req.BidderID.String()).
		Str("amount", req.Amount.String()).
		Logger()

	if req.Amount.Sign() <= 0 || !shared.IsMoney(req.Amount) {
		return nil, shared.ErrInvalidAmount
	}

	// Speculative check without the lock
	snapshot, err := client.store.GetByID(ctx, req.AuctionID)
	if err != nil {
		if _, coded := shared.CodeOf(err); !coded {
			err = shared.PersistenceFailure(err)
		}
		logger.Warn().Err(err).Msg("Auction lookup failed")
		return nil, err
	}
	if err := bid.Validate(snapshot, req.Amount, req.BidderID, client.now()); err != nil {
		logger.Info().Err(err).Msg("Bid rejected before lock")
		return nil, err
	}

	var result inbound.PlaceBidResult
	committed := make(chan bool, 1)
	err = client.store.WithAuctionLock(ctx, req.AuctionID, func(tx outbound.AuctionTx) error {
		a := tx.Auction()
		now := client.now()

		if err := bid.Validate(a, req.Amount, req.BidderID, now); err != nil {
			return err
		}

		// Only bidders committed before this bid are outbid by it
		prior, err := tx.PriorBidders(ctx, req.BidderID)
		if err != nil {
			return err
		}

		newBid := bid.New(a.ID, req.BidderID, req.Amount, now)

		// Demote before insert: at most one winning row may exist at any moment
		demoted, err := tx.DemoteWinningBids(ctx, a.ID, newBid.ID)
		if err != nil {
			return err
		}
		if demoted > 1 {
			logger.Warn().Int64("demoted", demoted).Msg("More than one winning bid was demoted")
		}

		if err := tx.InsertBid(ctx, newBid); err != nil {
			return err
		}

		extended := a.ExtendForLateBid(now, client.antiSnipeThreshold, client.antiSnipeExtension)
		a.ApplyBid(req.BidderID, req.Amount, now)

		if err := tx.SaveAuction(ctx, a); err != nil {
			return err
		}
		if err := tx.IncrementUserBids(ctx, req.BidderID); err != nil {
			return err
		}

		result = inbound.PlaceBidResult{
			Bid:             newBid,
			NewPrice:        a.CurrentPrice,
			NewBidCount:     a.BidCount,
			EndTime:         a.EndTime,
			EndTimeExtended: extended,
		}

		// Queued under the lock so each auction's lane follows commit order
		client.publishBidPlaced(a, result, prior, committed)
		return nil
	})
	committed <- err == nil
	if err != nil {
		if _, coded := shared.CodeOf(err); !coded {
			err = shared.PersistenceFailure(err)
		}
		logger.Info().Err(err).Msg("Bid not committed")
		return nil, err
	}

	logger.Info().
		Str("bid_id", result.Bid.ID.String()).
		Int("bid_count", result.NewBidCount).
		Bool("end_time_extended", result.EndTimeExtended).
		Msg("Bid placed")

	return &result, nil
}

// publishBidPlaced queues the events of one commit as a single ordered task of the auction.
// The task delivers nothing until committed reports whether the transaction went through.
func (client *BidService) publishBidPlaced(a *auction.Auction, result inbound.PlaceBidResult, outbid []uuid.UUID, committed <-chan bool) {
	if client.fanout == nil {
		return
	}

	placed := *result.Bid
	client.fanout.GoOrdered(a.ID, "bid_placed", func(ctx context.Context) {
		select {
		case ok := <-committed:
			if !ok {
				return
			}
		case <-ctx.Done():
			client.logger.Warn().Str("auction_id", a.ID.String()).Msg("Gave up waiting for bid commit")
			return
		}

		if client.userRepo != nil {
			if user, err := client.userRepo.GetByID(ctx, placed.BidderID); err == nil {
				placed.BidderName = user.Name
			}
		}

		event := newBidEvent(a, &placed)
		client.fanout.Deliver(ctx, outbound.AuctionAudience(a.ID), event)
		client.fanout.Deliver(ctx, outbound.GlobalAudience, event)

		if result.EndTimeExtended {
			client.fanout.Deliver(ctx, outbound.AuctionAudience(a.ID), timerExtendedEvent(a.ID, result.EndTime))
		}

		for _, bidderID := range outbid {
			client.fanout.Deliver(ctx, outbound.UserAudience(bidderID), outbidEvent(a.ID, a.Title, result.NewPrice))
			client.fanout.Notify(bidderID, shared.NotificationOutbid,
				"You have been outbid",
				fmt.Sprintf("A higher bid of %s was placed on %q", result.NewPrice.StringFixed(2), a.Title),
				map[string]any{
					"auctionId": a.ID.String(),
					"newPrice":  result.NewPrice.String(),
				})
		}
	})
}

// GetBids retrieves the bid history of an auction, newest first
func (client *BidService) GetBids(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error) {
	if _, err := client.store.GetByID(ctx, auctionID); err != nil {
		return nil, err
	}
	return client.store.GetBids(ctx, auctionID)
}

// GetWinningBid retrieves the bid currently flagged as winning
func (client *BidService) GetWinningBid(ctx context.Context, auctionID uuid.UUID) (*bid.Bid, error) {
	return client.store.GetWinningBid(ctx, auctionID)
}
