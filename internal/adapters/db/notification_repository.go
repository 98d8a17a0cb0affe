package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NotificationRepository stores in-app notifications
type NotificationRepository struct {
	conn *Connection
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(conn *Connection) *NotificationRepository {
	return &NotificationRepository{conn: conn}
}

// Notify inserts a notification row for the user
func (r *NotificationRepository) Notify(ctx context.Context, userID uuid.UUID, notificationType, title, body string, data map[string]any) error {
	if data == nil {
		data = map[string]any{}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode notification data: %w", err)
	}

	query := `
		INSERT INTO notifications (id, user_id, type, title, body, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if _, err := r.conn.GetDB().ExecContext(ctx, query, uuid.New(), userID, notificationType, title, body, payload, time.Now()); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}
