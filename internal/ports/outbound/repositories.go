package outbound

import (
	"context"
	"time"

	"github.com/mwkdckd93-sudo/maz/internal/domain/auction"
	"github.com/mwkdckd93-sudo/maz/internal/domain/bid"
	"github.com/mwkdckd93-sudo/maz/internal/domain/shared"

	"github.com/google/uuid"
)

// AuctionFilter narrows auction listings
type AuctionFilter struct {
	Status   *auction.Status
	SellerID *uuid.UUID
	Page     int
	PageSize int
}

// AuctionStore is the durable record of auctions and bids.
// Every mutation of an existing auction goes through WithAuctionLock.
type AuctionStore interface {
	// Create creates a new auction
	Create(ctx context.Context, a *auction.Auction) error

	// GetByID retrieves an auction snapshot, including the leading bidder, without locking
	GetByID(ctx context.Context, id uuid.UUID) (*auction.Auction, error)

	// List retrieves auctions ordered by creation time, newest first
	List(ctx context.Context, filter AuctionFilter) ([]*auction.Auction, error)

	// ListDue returns active auctions with end_time <= now and terminal auctions
	// that still need settlement, oldest end time first
	ListDue(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)

	// GetBids retrieves all bids of an auction, newest first
	GetBids(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error)

	// GetWinningBid retrieves the bid flagged as winning
	GetWinningBid(ctx context.Context, auctionID uuid.UUID) (*bid.Bid, error)

	// MarkSettled records that post-close side effects completed
	MarkSettled(ctx context.Context, auctionID uuid.UUID, at time.Time) error

	// WithAuctionLock runs fn in one transaction holding the exclusive lock of the auction.
	// The lock and transaction are released on every exit path; fn's error rolls back all
	// writes. Lock acquisition that exceeds the store's timeout yields shared.ErrLockTimeout.
	WithAuctionLock(ctx context.Context, auctionID uuid.UUID, fn func(tx AuctionTx) error) error
}

// AuctionTx is the view of the store inside WithAuctionLock
type AuctionTx interface {
	// Auction returns the snapshot read under the lock
	Auction() *auction.Auction

	// PriorBidders returns the distinct bidders committed so far on the locked auction, except exclude
	PriorBidders(ctx context.Context, exclude uuid.UUID) ([]uuid.UUID, error)

	// InsertBid persists a new bid
	InsertBid(ctx context.Context, b *bid.Bid) error

	// DemoteWinningBids clears is_winning on every bid of the auction except keep
	DemoteWinningBids(ctx context.Context, auctionID, keep uuid.UUID) (int64, error)

	// SaveAuction writes current_price, bid_count, end_time, status and winner_id
	SaveAuction(ctx context.Context, a *auction.Auction) error

	// IncrementUserBids bumps the bidder's aggregate counter
	IncrementUserBids(ctx context.Context, userID uuid.UUID) error
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*shared.User, error)

	// Create creates a new user
	Create(ctx context.Context, user *shared.User) error
}
