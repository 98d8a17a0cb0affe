package inbound

//go:generate mockgen -source=auction_service.go -destination=mocks/auction_service.go -package=mocks

import (
	"context"
	"time"

	"github.com/mwkdckd93-sudo/maz/internal/domain/auction"
	"github.com/mwkdckd93-sudo/maz/internal/domain/bid"
	"github.com/mwkdckd93-sudo/maz/internal/domain/shared"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AuctionService defines the interface for auction operations
type AuctionService interface {
	// CreateAuction creates a new auction, active immediately or as a draft
	CreateAuction(ctx context.Context, req CreateAuctionRequest) (*auction.Auction, error)

	// GetAuction retrieves an auction by ID
	GetAuction(ctx context.Context, auctionID uuid.UUID) (*auction.Auction, error)

	// ListAuctions retrieves a page of auctions
	ListAuctions(ctx context.Context, req ListAuctionsRequest) ([]*auction.Auction, error)

	// SubmitAuction moves a draft to pending approval
	SubmitAuction(ctx context.Context, auctionID, sellerID uuid.UUID) (*auction.Auction, error)

	// ApproveAuction moves a pending auction to active
	ApproveAuction(ctx context.Context, auctionID uuid.UUID) (*auction.Auction, error)

	// CancelAuction cancels an auction that has not received bids
	CancelAuction(ctx context.Context, auctionID, sellerID uuid.UUID) (*auction.Auction, error)

	// CloseAuction finalizes an auction whose end time has passed
	CloseAuction(ctx context.Context, auctionID uuid.UUID) (*shared.AuctionCloseResult, error)

	// SettleAuction runs the post-close side effects; safe to repeat
	SettleAuction(ctx context.Context, auctionID uuid.UUID) error
}

// BidService defines the interface for bid operations
type BidService interface {
	// PlaceBid validates and commits a bid
	PlaceBid(ctx context.Context, req PlaceBidRequest) (*PlaceBidResult, error)

	// GetBids retrieves the bid history of an auction, newest first
	GetBids(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error)

	// GetWinningBid retrieves the bid currently flagged as winning
	GetWinningBid(ctx context.Context, auctionID uuid.UUID) (*bid.Bid, error)
}

// request to create an auction
type CreateAuctionRequest struct {
	SellerID        uuid.UUID        `json:"seller_id"`
	CategoryID      *uuid.UUID       `json:"category_id,omitempty"`
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	StartingPrice   decimal.Decimal  `json:"starting_price"`
	MinBidIncrement decimal.Decimal  `json:"min_bid_increment"`
	BuyNowPrice     *decimal.Decimal `json:"buy_now_price,omitempty"`
	StartTime       time.Time        `json:"start_time"`
	EndTime         time.Time        `json:"end_time"`
	Draft           bool             `json:"draft"`
}

// request to list auctions
type ListAuctionsRequest struct {
	Status   *auction.Status `json:"status,omitempty"`
	SellerID *uuid.UUID      `json:"seller_id,omitempty"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

// request to place a bid
type PlaceBidRequest struct {
	AuctionID uuid.UUID       `json:"auction_id"`
	BidderID  uuid.UUID       `json:"bidder_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// PlaceBidResult describes a committed bid
type PlaceBidResult struct {
	Bid             *bid.Bid        `json:"bid"`
	NewPrice        decimal.Decimal `json:"new_price"`
	NewBidCount     int             `json:"new_bid_count"`
	EndTime         time.Time       `json:"end_time"`
	EndTimeExtended bool            `json:"end_time_extended"`
}
