package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ConversationRepository opens buyer-seller conversations for sold auctions
type ConversationRepository struct {
	conn *Connection
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(conn *Connection) *ConversationRepository {
	return &ConversationRepository{conn: conn}
}

// CreateConversationIfAbsent inserts the conversation unless the (auction, seller, buyer)
// triple already has one, and returns the id of whichever row exists afterwards.
func (r *ConversationRepository) CreateConversationIfAbsent(ctx context.Context, auctionID, sellerID, buyerID uuid.UUID) (uuid.UUID, bool, error) {
	insert := `
		INSERT INTO conversations (id, auction_id, seller_id, buyer_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (auction_id, seller_id, buyer_id) DO NOTHING
	`

	id := uuid.New()
	result, err := r.conn.GetDB().ExecContext(ctx, insert, id, auctionID, sellerID, buyerID, time.Now())
	if err != nil && !isUniqueViolation(err) {
		return uuid.Nil, false, fmt.Errorf("failed to create conversation: %w", err)
	}

	if err == nil {
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return uuid.Nil, false, fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 1 {
			return id, true, nil
		}
	}

	var existing uuid.UUID
	err = r.conn.GetDB().QueryRowContext(ctx, `
		SELECT id FROM conversations
		WHERE auction_id = $1 AND seller_id = $2 AND buyer_id = $3
	`, auctionID, sellerID, buyerID).Scan(&existing)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to get conversation: %w", err)
	}

	return existing, false, nil
}

// PostSystemMessage appends a system message to a conversation
func (r *ConversationRepository) PostSystemMessage(ctx context.Context, conversationID uuid.UUID, body string) error {
	query := `
		INSERT INTO messages (id, conversation_id, body, is_system, created_at)
		VALUES ($1, $2, $3, TRUE, $4)
	`

	if _, err := r.conn.GetDB().ExecContext(ctx, query, uuid.New(), conversationID, body, time.Now()); err != nil {
		return fmt.Errorf("failed to post system message: %w", err)
	}

	return nil
}
