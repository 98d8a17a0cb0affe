package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mwkdckd93-sudo/maz/internal/domain/bid"

	"github.com/google/uuid"
)

// BidRepository reads bid history; bid writes only happen inside an auction lock
type BidRepository struct {
	conn *Connection
}

// NewBidRepository creates a new bid repository
func NewBidRepository(conn *Connection) *BidRepository {
	return &BidRepository{conn: conn}
}

func scanBid(row rowScanner) (*bid.Bid, error) {
	var b bid.Bid
	var bidderName sql.NullString
	err := row.Scan(
		&b.ID,
		&b.AuctionID,
		&b.BidderID,
		&bidderName,
		&b.Amount,
		&b.IsWinning,
		&b.IsAutoBid,
		&b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.BidderName = bidderName.String
	return &b, nil
}

// GetByAuctionID retrieves all bids for an auction, newest first
func (r *BidRepository) GetByAuctionID(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error) {
	query := `
		SELECT b.id, b.auction_id, b.bidder_id, u.name, b.amount, b.is_winning, b.is_auto_bid, b.created_at
		FROM bids b
		LEFT JOIN users u ON u.id = b.bidder_id
		WHERE b.auction_id = $1
		ORDER BY b.created_at DESC, b.amount DESC
	`

	rows, err := r.conn.GetDB().QueryContext(ctx, query, auctionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bids: %w", err)
	}
	defer rows.Close()

	bids := []*bid.Bid{}
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bid: %w", err)
		}
		bids = append(bids, b)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bids: %w", err)
	}

	return bids, nil
}

// GetWinning retrieves the bid flagged as winning, nil when the auction has no bids
func (r *BidRepository) GetWinning(ctx context.Context, auctionID uuid.UUID) (*bid.Bid, error) {
	query := `
		SELECT b.id, b.auction_id, b.bidder_id, u.name, b.amount, b.is_winning, b.is_auto_bid, b.created_at
		FROM bids b
		LEFT JOIN users u ON u.id = b.bidder_id
		WHERE b.auction_id = $1 AND b.is_winning
		LIMIT 1
	`

	b, err := scanBid(r.conn.GetDB().QueryRowContext(ctx, query, auctionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get winning bid: %w", err)
	}

	return b, nil
}

// distinctBidders returns every bidder of an auction except exclude, as seen by tx
func distinctBidders(ctx context.Context, tx *sql.Tx, auctionID, exclude uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT DISTINCT bidder_id
		FROM bids
		WHERE auction_id = $1 AND bidder_id <> $2
	`

	rows, err := tx.QueryContext(ctx, query, auctionID, exclude)
	if err != nil {
		return nil, fmt.Errorf("failed to get prior bidders: %w", err)
	}
	defer rows.Close()

	var bidders []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan bidder: %w", err)
		}
		bidders = append(bidders, id)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bidders: %w", err)
	}

	return bidders, nil
}

func insertBid(ctx context.Context, tx *sql.Tx, b *bid.Bid) error {
	query := `
		INSERT INTO bids (id, auction_id, bidder_id, amount, is_winning, is_auto_bid, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := tx.ExecContext(ctx, query,
		b.ID,
		b.AuctionID,
		b.BidderID,
		b.Amount,
		b.IsWinning,
		b.IsAutoBid,
		b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bid: %w", err)
	}

	return nil
}

func demoteWinningBids(ctx context.Context, tx *sql.Tx, auctionID, keep uuid.UUID) (int64, error) {
	query := `
		UPDATE bids
		SET is_winning = FALSE
		WHERE auction_id = $1 AND is_winning AND id <> $2
	`

	result, err := tx.ExecContext(ctx, query, auctionID, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to demote winning bids: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
