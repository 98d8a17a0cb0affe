package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mwkdckd93-sudo/maz/internal/domain/auction"
	"github.com/mwkdckd93-sudo/maz/internal/domain/shared"
	"github.com/mwkdckd93-sudo/maz/internal/ports/inbound"
	"github.com/mwkdckd93-sudo/maz/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// notifications for one auction and user are sent at most once within this window
const notificationDedupTTL = 30 * 24 * time.Hour

// AuctionService implements the auction lifecycle use cases
type AuctionService struct {
	store         outbound.AuctionStore
	conversations outbound.ConversationService
	notifier      outbound.NotificationSink
	dedup         outbound.Deduplicator
	media         outbound.MediaCleaner
	fanout        *Fanout
	now           func() time.Time
	logger        zerolog.Logger
}

type AuctionServiceParams struct {
	Store         outbound.AuctionStore
	Conversations outbound.ConversationService
	Notifier      outbound.NotificationSink
	Dedup         outbound.Deduplicator
	Media         outbound.MediaCleaner
	Fanout        *Fanout
	Clock         func() time.Time
	Logger        zerolog.Logger
}

// NewAuctionService creates a new auction service
func NewAuctionService(params AuctionServiceParams) *AuctionService {
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}

	return &AuctionService{
		store:         params.Store,
		conversations: params.Conversations,
		notifier:      params.Notifier,
		dedup:         params.Dedup,
		media:         params.Media,
		fanout:        params.Fanout,
		now:           clock,
		logger:        params.Logger.With().Str("component", "auction_service").Logger(),
	}
}

// CreateAuction creates a new auction
func (service *AuctionService) CreateAuction(ctx context.Context, req inbound.CreateAuctionRequest) (*auction.Auction, error) {
	service.logger.Info().
		Str("seller_id", req.SellerID.String()).
		Str("title", req.Title).
		Bool("draft", req.Draft).
		Msg("Creating auction")

	now := service.now()
	if req.StartTime.IsZero() {
		req.StartTime = now
	}

	if strings.TrimSpace(req.Title) == "" {
		return nil, shared.ErrTitleRequired
	}
	if req.StartingPrice.Sign() <= 0 || !shared.IsMoney(req.StartingPrice) {
		return nil, shared.ErrInvalidStartingPrice
	}
	if req.MinBidIncrement.Sign() <= 0 || !shared.IsMoney(req.MinBidIncrement) {
		return nil, shared.ErrInvalidIncrement
	}
	if req.BuyNowPrice != nil && (req.BuyNowPrice.Sign() <= 0 || !shared.IsMoney(*req.BuyNowPrice)) {
		return nil, shared.ErrInvalidAmount
	}
	if !req.EndTime.After(req.StartTime) || !req.EndTime.After(now) {
		service.logger.Warn().
			Time("start_time", req.StartTime).
			Time("end_time", req.EndTime).
			Msg("End time must be after start time and in the future")
		return nil, shared.ErrInvalidEndTime
	}

	status := auction.StatusActive
	if req.Draft {
		status = auction.StatusDraft
	}

	a := &auction.Auction{
		ID:              uuid.New(),
		SellerID:        req.SellerID,
		CategoryID:      req.CategoryID,
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		StartingPrice:   req.StartingPrice,
		CurrentPrice:    req.StartingPrice,
		MinBidIncrement: req.MinBidIncrement,
		BuyNowPrice:     req.BuyNowPrice,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		Status:          status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := service.store.Create(ctx, a); err != nil {
		service.logger.Error().Err(err).Str("auction_id", a.ID.String()).Msg("Failed to save auction to database")
		return nil, shared.PersistenceFailure(err)
	}

	service.logger.Info().
		Str("auction_id", a.ID.String()).
		Str("status", string(a.Status)).
		Time("end_time", a.EndTime).
		Msg("Auction created")

	return a, nil
}

// GetAuction retrieves an auction by ID
func (service *AuctionService) GetAuction(ctx context.Context, auctionID uuid.UUID) (*auction.Auction, error) {
	a, err := service.store.GetByID(ctx, auctionID)
	if err != nil {
		service.logger.Debug().Err(err).Str("auction_id", auctionID.String()).Msg("Failed to retrieve auction")
		return nil, err
	}
	return a, nil
}

// ListAuctions retrieves a page of auctions
func (service *AuctionService) ListAuctions(ctx context.Context, req inbound.ListAuctionsRequest) ([]*auction.Auction, error) {
	if req.Status != nil && !req.Status.Valid() {
		return nil, &shared.AppError{Code: shared.CodeInvalidRequest, Message: fmt.Sprintf("unknown status %q", *req.Status)}
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	return service.store.List(ctx, outbound.AuctionFilter{
		Status:   req.Status,
		SellerID: req.SellerID,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
}

// SubmitAuction moves a draft to pending approval
func (service *AuctionService) SubmitAuction(ctx context.Context, auctionID, sellerID uuid.UUID) (*auction.Auction, error) {
	return service.transition(ctx, auctionID, &sellerID, auction.StatusPending)
}

// ApproveAuction moves a pending auction to active
func (service *AuctionService) ApproveAuction(ctx context.Context, auctionID uuid.UUID) (*auction.Auction, error) {
	return service.transition(ctx, auctionID, nil, auction.StatusActive)
}

// CancelAuction cancels an auction that has not received bids
func (service *AuctionService) CancelAuction(ctx context.Context, auctionID, sellerID uuid.UUID) (*auction.Auction, error) {
	return service.transition(ctx, auctionID, &sellerID, auction.StatusCancelled)
}

// transition applies an explicit lifecycle action under the auction lock
func (service *AuctionService) transition(ctx context.Context, auctionID uuid.UUID, sellerID *uuid.UUID, next auction.Status) (*auction.Auction, error) {
	var updated *auction.Auction
	err := service.store.WithAuctionLock(ctx, auctionID, func(tx outbound.AuctionTx) error {
		a := tx.Auction()
		now := service.now()

		if sellerID != nil && a.SellerID != *sellerID {
			return shared.ErrNotSeller
		}
		if !a.CanTransition(next) {
			return shared.InvalidTransition(string(a.Status), string(next))
		}
		if next == auction.StatusActive && a.HasEnded(now) {
			return shared.ErrInvalidEndTime
		}

		a.Status = next
		a.UpdatedAt = now
		if err := tx.SaveAuction(ctx, a); err != nil {
			return err
		}
		updated = a
		return nil
	})
	if err != nil {
		if _, coded := shared.CodeOf(err); !coded {
			err = shared.PersistenceFailure(err)
		}
		service.logger.Warn().Err(err).
			Str("auction_id", auctionID.String()).
			Str("target_status", string(next)).
			Msg("Auction transition rejected")
		return nil, err
	}

	service.logger.Info().
		Str("auction_id", auctionID.String()).
		Str("status", string(updated.Status)).
		Msg("Auction transitioned")

	return updated, nil
}

// CloseAuction finalizes the auction when it is active and its end time has passed.
// It re-reads under the lock, so a bid that extended the end time wins the race and the
// auction stays open. Closing an auction twice is a no-op.
func (service *AuctionService) CloseAuction(ctx context.Context, auctionID uuid.UUID) (*shared.AuctionCloseResult, error) {
	var result shared.AuctionCloseResult
	err := service.store.WithAuctionLock(ctx, auctionID, func(tx outbound.AuctionTx) error {
		a := tx.Auction()
		now := service.now()

		result = shared.AuctionCloseResult{
			AuctionID:  a.ID,
			Title:      a.Title,
			SellerID:   a.SellerID,
			WinnerID:   a.WinnerID,
			FinalPrice: a.CurrentPrice,
			Status:     string(a.Status),
			ClosedAt:   a.UpdatedAt,
		}

		if !a.IsDue(now) {
			return nil
		}

		a.Close(now)
		if err := tx.SaveAuction(ctx, a); err != nil {
			return err
		}

		result.WinnerID = a.WinnerID
		result.Status = string(a.Status)
		result.ClosedAt = now
		result.Closed = true
		return nil
	})
	if err != nil {
		if _, coded := shared.CodeOf(err); !coded {
			err = shared.PersistenceFailure(err)
		}
		service.logger.Error().Err(err).Str("auction_id", auctionID.String()).Msg("Failed to close auction")
		return nil, err
	}

	if !result.Closed {
		service.logger.Debug().
			Str("auction_id", auctionID.String()).
			Str("status", result.Status).
			Msg("Auction not due, skipping close")
		return &result, nil
	}

	logEvent := service.logger.Info().
		Str("auction_id", auctionID.String()).
		Str("status", result.Status).
		Str("final_price", result.FinalPrice.String())
	if result.WinnerID != nil {
		logEvent = logEvent.Str("winner_id", result.WinnerID.String())
	}
	logEvent.Msg("Auction closed")

	service.publishClosed(&result)

	return &result, nil
}

func (service *AuctionService) publishClosed(result *shared.AuctionCloseResult) {
	if service.fanout == nil {
		return
	}

	closed := *result
	service.fanout.GoOrdered(closed.AuctionID, "auction_closed", func(ctx context.Context) {
		ended := auctionEndedEvent(&closed)
		service.fanout.Deliver(ctx, outbound.AuctionAudience(closed.AuctionID), ended)
		service.fanout.Deliver(ctx, outbound.UserAudience(closed.SellerID), ended)
		service.fanout.Deliver(ctx, outbound.GlobalAudience, ended)

		if closed.WinnerID != nil {
			service.fanout.Deliver(ctx, outbound.UserAudience(*closed.WinnerID), ended)
			service.fanout.Deliver(ctx, outbound.UserAudience(*closed.WinnerID), auctionWonEvent(&closed))
		}
	})
}

// SettleAuction runs the post-close side effects of a terminal auction. It is safe to
// call repeatedly: the conversation is created at most once, notifications are
// deduplicated and settled_at is only written after every required step succeeded.
func (service *AuctionService) SettleAuction(ctx context.Context, auctionID uuid.UUID) error {
	a, err := service.store.GetByID(ctx, auctionID)
	if err != nil {
		return err
	}
	if !a.NeedsSettlement() {
		return nil
	}

	logger := service.logger.With().Str("auction_id", a.ID.String()).Logger()
	price := a.CurrentPrice.StringFixed(2)
	data := map[string]any{
		"auctionId":  a.ID.String(),
		"finalPrice": a.CurrentPrice.String(),
	}

	if a.Status == auction.StatusSold && a.WinnerID != nil {
		winnerID := *a.WinnerID

		if service.conversations != nil {
			conversationID, created, err := service.conversations.CreateConversationIfAbsent(ctx, a.ID, a.SellerID, winnerID)
			if err != nil {
				logger.Error().Err(err).Msg("Failed to create conversation")
				return fmt.Errorf("failed to create conversation: %w", err)
			}
			if created {
				body := fmt.Sprintf("Auction %q was won for %s. Use this conversation to arrange the handover.", a.Title, price)
				if err := service.conversations.PostSystemMessage(ctx, conversationID, body); err != nil {
					logger.Error().Err(err).Str("conversation_id", conversationID.String()).Msg("Failed to post system message")
				}
			}
			data["conversationId"] = conversationID.String()
		}

		service.notifyOnce(ctx, a.ID, winnerID, shared.NotificationAuctionWon,
			"You won the auction",
			fmt.Sprintf("You won %q for %s", a.Title, price), data)
		service.notifyOnce(ctx, a.ID, a.SellerID, shared.NotificationSold,
			"Your auction sold",
			fmt.Sprintf("%q sold for %s", a.Title, price), data)
	} else {
		service.notifyOnce(ctx, a.ID, a.SellerID, shared.NotificationUnsold,
			"Your auction ended",
			fmt.Sprintf("%q ended without bids", a.Title), data)
	}

	if service.media != nil {
		if err := service.media.DeleteMediaForAuction(ctx, a.ID); err != nil {
			logger.Warn().Err(err).Msg("Failed to delete auction media")
		}
	}

	if err := service.store.MarkSettled(ctx, a.ID, service.now()); err != nil {
		logger.Error().Err(err).Msg("Failed to mark auction settled")
		return fmt.Errorf("failed to mark auction settled: %w", err)
	}

	logger.Info().Str("status", string(a.Status)).Msg("Auction settled")
	return nil
}

// notifyOnce sends a notification unless the same (auction, user, type) was already sent
func (service *AuctionService) notifyOnce(ctx context.Context, auctionID, userID uuid.UUID, notificationType, title, body string, data map[string]any) {
	if service.notifier == nil {
		return
	}

	if service.dedup != nil {
		key := fmt.Sprintf("%s:%s:%s", notificationType, auctionID, userID)
		first, err := service.dedup.Claim(ctx, key, notificationDedupTTL)
		if err != nil {
			service.logger.Warn().Err(err).Str("key", key).Msg("Notification dedup unavailable, sending anyway")
		} else if !first {
			return
		}
	}

	if err := service.notifier.Notify(ctx, userID, notificationType, title, body, data); err != nil {
		service.logger.Error().Err(err).
			Str("auction_id", auctionID.String()).
			Str("user_id", userID.String()).
			Str("notification_type", notificationType).
			Msg("Failed to send notification")
	}
}
