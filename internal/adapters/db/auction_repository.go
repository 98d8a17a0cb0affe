package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mwkdckd93-sudo/maz/internal/domain/auction"
	"github.com/mwkdckd93-sudo/maz/internal/domain/bid"
	"github.com/mwkdckd93-sudo/maz/internal/domain/shared"
	"github.com/mwkdckd93-sudo/maz/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const auctionColumns = `
	a.id, a.seller_id, a.category_id, a.title, a.description,
	a.starting_price, a.current_price, a.min_bid_increment, a.buy_now_price,
	a.start_time, a.end_time, a.status, a.bid_count, a.winner_id, a.settled_at,
	a.created_at, a.updated_at,
	(SELECT b.bidder_id FROM bids b WHERE b.auction_id = a.id AND b.is_winning LIMIT 1)
`

// AuctionRepository implements outbound.AuctionStore on PostgreSQL
type AuctionRepository struct {
	conn        *Connection
	bids        *BidRepository
	lockTimeout time.Duration
}

// NewAuctionRepository creates a new auction repository
func NewAuctionRepository(conn *Connection, lockTimeout time.Duration) *AuctionRepository {
	if lockTimeout <= 0 {
		lockTimeout = 500 * time.Millisecond
	}
	return &AuctionRepository{
		conn:        conn,
		bids:        NewBidRepository(conn),
		lockTimeout: lockTimeout,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAuction(row rowScanner) (*auction.Auction, error) {
	var (
		a          auction.Auction
		categoryID uuid.NullUUID
		buyNow     decimal.NullDecimal
		winnerID   uuid.NullUUID
		settledAt  sql.NullTime
		leaderID   uuid.NullUUID
	)
	err := row.Scan(
		&a.ID,
		&a.SellerID,
		&categoryID,
		&a.Title,
		&a.Description,
		&a.StartingPrice,
		&a.CurrentPrice,
		&a.MinBidIncrement,
		&buyNow,
		&a.StartTime,
		&a.EndTime,
		&a.Status,
		&a.BidCount,
		&winnerID,
		&settledAt,
		&a.CreatedAt,
		&a.UpdatedAt,
		&leaderID,
	)
	if err != nil {
		return nil, err
	}

	if categoryID.Valid {
		a.CategoryID = &categoryID.UUID
	}
	if buyNow.Valid {
		a.BuyNowPrice = &buyNow.Decimal
	}
	if winnerID.Valid {
		a.WinnerID = &winnerID.UUID
	}
	if settledAt.Valid {
		a.SettledAt = &settledAt.Time
	}
	if leaderID.Valid {
		a.LeadingBidderID = &leaderID.UUID
	}
	return &a, nil
}

func nullableUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func nullableDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

// Create creates a new auction
func (r *AuctionRepository) Create(ctx context.Context, a *auction.Auction) error {
	query := `
		INSERT INTO auctions (id, seller_id, category_id, title, description, starting_price, current_price,
		                      min_bid_increment, buy_now_price, start_time, end_time, status, bid_count,
		                      created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.conn.GetDB().ExecContext(ctx, query,
		a.ID,
		a.SellerID,
		nullableUUID(a.CategoryID),
		a.Title,
		a.Description,
		a.StartingPrice,
		a.CurrentPrice,
		a.MinBidIncrement,
		nullableDecimal(a.BuyNowPrice),
		a.StartTime,
		a.EndTime,
		a.Status,
		a.BidCount,
		a.CreatedAt,
		a.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create auction: %w", err)
	}

	return nil
}

// GetByID retrieves an auction by ID
func (r *AuctionRepository) GetByID(ctx context.Context, id uuid.UUID) (*auction.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions a WHERE a.id = $1`

	a, err := scanAuction(r.conn.GetDB().QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.ErrAuctionNotFound
		}
		return nil, fmt.Errorf("failed to get auction: %w", err)
	}

	return a, nil
}

// List retrieves a list of auctions with optional filters
func (r *AuctionRepository) List(ctx context.Context, filter outbound.AuctionFilter) ([]*auction.Auction, error) {
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("a.status = $%d", len(args)))
	}
	if filter.SellerID != nil {
		args = append(args, *filter.SellerID)
		conditions = append(conditions, fmt.Sprintf("a.seller_id = $%d", len(args)))
	}

	var whereClause string
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page, pageSize := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	args = append(args, pageSize, (page-1)*pageSize)
	limitClause := fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	query := `SELECT ` + auctionColumns + ` FROM auctions a` + whereClause + " ORDER BY a.created_at DESC" + limitClause

	rows, err := r.conn.GetDB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list auctions: %w", err)
	}
	defer rows.Close()

	auctions := []*auction.Auction{}
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan auction: %w", err)
		}
		auctions = append(auctions, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating auctions: %w", err)
	}

	return auctions, nil
}

// ListDue returns active auctions past their end time and terminal auctions awaiting settlement
func (r *AuctionRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	query := `
		SELECT id
		FROM auctions
		WHERE (status = 'active' AND end_time <= $1)
		   OR (status IN ('sold', 'ended') AND settled_at IS NULL)
		ORDER BY end_time ASC
		LIMIT $2
	`

	rows, err := r.conn.GetDB().QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list due auctions: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan auction id: %w", err)
		}
		ids = append(ids, id)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating due auctions: %w", err)
	}

	return ids, nil
}

// GetBids retrieves all bids of an auction, newest first
func (r *AuctionRepository) GetBids(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error) {
	return r.bids.GetByAuctionID(ctx, auctionID)
}

// GetWinningBid retrieves the bid flagged as winning
func (r *AuctionRepository) GetWinningBid(ctx context.Context, auctionID uuid.UUID) (*bid.Bid, error) {
	return r.bids.GetWinning(ctx, auctionID)
}

// MarkSettled sets settled_at once; later calls keep the first timestamp
func (r *AuctionRepository) MarkSettled(ctx context.Context, auctionID uuid.UUID, at time.Time) error {
	query := `
		UPDATE auctions
		SET settled_at = COALESCE(settled_at, $2)
		WHERE id = $1
	`

	result, err := r.conn.GetDB().ExecContext(ctx, query, auctionID, at)
	if err != nil {
		return fmt.Errorf("failed to mark auction settled: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return shared.ErrAuctionNotFound
	}

	return nil
}

// WithAuctionLock runs fn in a transaction holding the row lock of the auction.
// lock_timeout is scoped to the transaction so a busy auction fails fast.
func (r *AuctionRepository) WithAuctionLock(ctx context.Context, auctionID uuid.UUID, fn func(tx outbound.AuctionTx) error) error {
	return r.conn.ExecuteTransaction(ctx, func(tx *sql.Tx) error {
		timeout := fmt.Sprintf("%dms", r.lockTimeout.Milliseconds())
		if _, err := tx.ExecContext(ctx, `SELECT set_config('lock_timeout', $1, true)`, timeout); err != nil {
			return fmt.Errorf("failed to set lock timeout: %w", err)
		}

		query := `SELECT ` + auctionColumns + ` FROM auctions a WHERE a.id = $1 FOR UPDATE`
		snapshot, err := scanAuction(tx.QueryRowContext(ctx, query, auctionID))
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				return shared.ErrAuctionNotFound
			case isLockNotAvailable(err):
				return shared.LockTimeout(err)
			}
			return fmt.Errorf("failed to lock auction: %w", err)
		}

		return fn(&auctionTx{tx: tx, snapshot: snapshot})
	})
}

// auctionTx is the AuctionTx of one locked auction row
type auctionTx struct {
	tx       *sql.Tx
	snapshot *auction.Auction
}

func (t *auctionTx) Auction() *auction.Auction {
	return t.snapshot
}

func (t *auctionTx) PriorBidders(ctx context.Context, exclude uuid.UUID) ([]uuid.UUID, error) {
	return distinctBidders(ctx, t.tx, t.snapshot.ID, exclude)
}

func (t *auctionTx) InsertBid(ctx context.Context, b *bid.Bid) error {
	return insertBid(ctx, t.tx, b)
}

func (t *auctionTx) DemoteWinningBids(ctx context.Context, auctionID, keep uuid.UUID) (int64, error) {
	return demoteWinningBids(ctx, t.tx, auctionID, keep)
}

func (t *auctionTx) SaveAuction(ctx context.Context, a *auction.Auction) error {
	query := `
		UPDATE auctions
		SET current_price = $2, bid_count = $3, end_time = $4, status = $5, winner_id = $6, updated_at = $7
		WHERE id = $1
	`

	result, err := t.tx.ExecContext(ctx, query,
		a.ID,
		a.CurrentPrice,
		a.BidCount,
		a.EndTime,
		a.Status,
		nullableUUID(a.WinnerID),
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update auction: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return shared.ErrAuctionNotFound
	}

	return nil
}

func (t *auctionTx) IncrementUserBids(ctx context.Context, userID uuid.UUID) error {
	if _, err := t.tx.ExecContext(ctx, `UPDATE users SET total_bids = total_bids + 1 WHERE id = $1`, userID); err != nil {
		return fmt.Errorf("failed to increment user bids: %w", err)
	}
	return nil
}
