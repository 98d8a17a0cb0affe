package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mwkdckd93-sudo/maz/internal/domain/auction"
	"github.com/mwkdckd93-sudo/maz/internal/domain/bid"
	"github.com/mwkdckd93-sudo/maz/internal/domain/shared"
	"github.com/mwkdckd93-sudo/maz/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const defaultPageSize = 20

// Store is an in-process AuctionStore. Writes inside WithAuctionLock are staged and only
// become visible when fn returns nil.
type Store struct {
	mu       sync.RWMutex
	auctions map[uuid.UUID]*auction.Auction
	bids     map[uuid.UUID][]*bid.Bid
	users    map[uuid.UUID]*shared.User

	locks       *LockRegistry
	lockTimeout time.Duration
	logger      zerolog.Logger
}

// StoreParams holds the dependencies of the in-memory store
type StoreParams struct {
	LockTimeout time.Duration
	Logger      zerolog.Logger
}

// NewStore creates an empty in-memory store
func NewStore(params StoreParams) *Store {
	timeout := params.LockTimeout
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	return &Store{
		auctions:    make(map[uuid.UUID]*auction.Auction),
		bids:        make(map[uuid.UUID][]*bid.Bid),
		users:       make(map[uuid.UUID]*shared.User),
		locks:       NewLockRegistry(),
		lockTimeout: timeout,
		logger:      params.Logger.With().Str("component", "memory_store").Logger(),
	}
}

// Create creates a new auction
func (s *Store) Create(ctx context.Context, a *auction.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.auctions[a.ID]; exists {
		return fmt.Errorf("failed to create auction: duplicate id %s", a.ID)
	}
	stored := *a
	stored.LeadingBidderID = nil
	s.auctions[a.ID] = &stored
	return nil
}

// GetByID retrieves an auction snapshot
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*auction.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshotLocked(id)
}

func (s *Store) snapshotLocked(id uuid.UUID) (*auction.Auction, error) {
	a, ok := s.auctions[id]
	if !ok {
		return nil, shared.ErrAuctionNotFound
	}
	snapshot := *a
	snapshot.LeadingBidderID = nil
	for _, b := range s.bids[id] {
		if b.IsWinning {
			leader := b.BidderID
			snapshot.LeadingBidderID = &leader
			break
		}
	}
	return &snapshot, nil
}

// List retrieves auctions ordered by creation time, newest first
func (s *Store) List(ctx context.Context, filter outbound.AuctionFilter) ([]*auction.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*auction.Auction
	for id, a := range s.auctions {
		if filter.Status != nil && a.Status != *filter.Status {
			continue
		}
		if filter.SellerID != nil && a.SellerID != *filter.SellerID {
			continue
		}
		snapshot, _ := s.snapshotLocked(id)
		result = append(result, snapshot)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	page, pageSize := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	start := (page - 1) * pageSize
	if start >= len(result) {
		return []*auction.Auction{}, nil
	}
	end := start + pageSize
	if end > len(result) {
		end = len(result)
	}
	return result[start:end], nil
}

// ListDue returns auctions the closer has to look at
func (s *Store) ListDue(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var due []*auction.Auction
	for _, a := range s.auctions {
		if a.IsDue(now) || a.NeedsSettlement() {
			due = append(due, a)
		}
	}

	sort.Slice(due, func(i, j int) bool {
		return due[i].EndTime.Before(due[j].EndTime)
	})

	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	ids := make([]uuid.UUID, 0, len(due))
	for _, a := range due {
		ids = append(ids, a.ID)
	}
	return ids, nil
}

// GetBids retrieves all bids of an auction, newest first
func (s *Store) GetBids(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.bids[auctionID]
	result := make([]*bid.Bid, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		b := *stored[i]
		if u, ok := s.users[b.BidderID]; ok {
			b.BidderName = u.Name
		}
		result = append(result, &b)
	}
	return result, nil
}

// GetWinningBid retrieves the bid flagged as winning
func (s *Store) GetWinningBid(ctx context.Context, auctionID uuid.UUID) (*bid.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, b := range s.bids[auctionID] {
		if b.IsWinning {
			winning := *b
			return &winning, nil
		}
	}
	return nil, nil
}

// MarkSettled records that post-close side effects completed
func (s *Store) MarkSettled(ctx context.Context, auctionID uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.auctions[auctionID]
	if !ok {
		return shared.ErrAuctionNotFound
	}
	if a.SettledAt == nil {
		settled := at
		a.SettledAt = &settled
	}
	return nil
}

// WithAuctionLock runs fn holding the auction's exclusive lock
func (s *Store) WithAuctionLock(ctx context.Context, auctionID uuid.UUID, fn func(tx outbound.AuctionTx) error) error {
	release, err := s.locks.Acquire(ctx, auctionID, s.lockTimeout)
	if err != nil {
		return err
	}
	defer release()

	s.mu.RLock()
	snapshot, err := s.snapshotLocked(auctionID)
	s.mu.RUnlock()
	if err != nil {
		return err
	}

	tx := &stagedTx{store: s, snapshot: snapshot}
	if err := fn(tx); err != nil {
		return err
	}

	s.commit(tx)
	return nil
}

func (s *Store) commit(tx *stagedTx) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range tx.demotions {
		for _, b := range s.bids[d.auctionID] {
			if b.IsWinning && b.ID != d.keep {
				b.IsWinning = false
			}
		}
	}
	for _, b := range tx.inserted {
		stored := *b
		s.bids[b.AuctionID] = append(s.bids[b.AuctionID], &stored)
	}
	if tx.saved != nil {
		if current, ok := s.auctions[tx.saved.ID]; ok {
			current.CurrentPrice = tx.saved.CurrentPrice
			current.BidCount = tx.saved.BidCount
			current.EndTime = tx.saved.EndTime
			current.Status = tx.saved.Status
			current.WinnerID = tx.saved.WinnerID
			current.UpdatedAt = tx.saved.UpdatedAt
		}
	}
	for _, userID := range tx.userBids {
		if u, ok := s.users[userID]; ok {
			u.TotalBids++
		}
	}
}

type demotion struct {
	auctionID uuid.UUID
	keep      uuid.UUID
}

// stagedTx buffers writes until WithAuctionLock commits them
type stagedTx struct {
	store     *Store
	snapshot  *auction.Auction
	inserted  []*bid.Bid
	demotions []demotion
	saved     *auction.Auction
	userBids  []uuid.UUID
}

func (t *stagedTx) Auction() *auction.Auction {
	return t.snapshot
}

func (t *stagedTx) PriorBidders(ctx context.Context, exclude uuid.UUID) ([]uuid.UUID, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	seen := make(map[uuid.UUID]struct{})
	var bidders []uuid.UUID
	for _, b := range t.store.bids[t.snapshot.ID] {
		if b.BidderID == exclude {
			continue
		}
		if _, ok := seen[b.BidderID]; ok {
			continue
		}
		seen[b.BidderID] = struct{}{}
		bidders = append(bidders, b.BidderID)
	}
	return bidders, nil
}

func (t *stagedTx) InsertBid(ctx context.Context, b *bid.Bid) error {
	staged := *b
	t.inserted = append(t.inserted, &staged)
	return nil
}

func (t *stagedTx) DemoteWinningBids(ctx context.Context, auctionID, keep uuid.UUID) (int64, error) {
	t.store.mu.RLock()
	var demoted int64
	for _, b := range t.store.bids[auctionID] {
		if b.IsWinning && b.ID != keep {
			demoted++
		}
	}
	t.store.mu.RUnlock()

	for _, b := range t.inserted {
		if b.AuctionID == auctionID && b.IsWinning && b.ID != keep {
			b.IsWinning = false
			demoted++
		}
	}
	t.demotions = append(t.demotions, demotion{auctionID: auctionID, keep: keep})
	return demoted, nil
}

func (t *stagedTx) SaveAuction(ctx context.Context, a *auction.Auction) error {
	if a.ID != t.snapshot.ID {
		return fmt.Errorf("failed to save auction: %s is not locked", a.ID)
	}
	saved := *a
	t.saved = &saved
	return nil
}

func (t *stagedTx) IncrementUserBids(ctx context.Context, userID uuid.UUID) error {
	t.userBids = append(t.userBids, userID)
	return nil
}

// Users returns the user repository backed by this store
func (s *Store) Users() *UserRepository {
	return &UserRepository{store: s}
}

// UserRepository is the in-memory user repository
type UserRepository struct {
	store *Store
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*shared.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	u, ok := r.store.users[id]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	user := *u
	return &user, nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *shared.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored := *user
	r.store.users[user.ID] = &stored
	return nil
}
