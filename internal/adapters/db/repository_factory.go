package db

import (
	"time"

	"github.com/mwkdckd93-sudo/maz/internal/ports/outbound"
)

// RepositoryFactory creates and manages all database repositories
type RepositoryFactory struct {
	conn        *Connection
	lockTimeout time.Duration
}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory(conn *Connection, lockTimeout time.Duration) *RepositoryFactory {
	return &RepositoryFactory{conn: conn, lockTimeout: lockTimeout}
}

// GetAuctionStore returns the auction store
func (f *RepositoryFactory) GetAuctionStore() outbound.AuctionStore {
	return NewAuctionRepository(f.conn, f.lockTimeout)
}

// GetUserRepository returns the user repository
func (f *RepositoryFactory) GetUserRepository() outbound.UserRepository {
	return NewUserRepository(f.conn)
}

// GetConversationService returns the conversation repository
func (f *RepositoryFactory) GetConversationService() outbound.ConversationService {
	return NewConversationRepository(f.conn)
}

// GetNotificationSink returns the notification repository
func (f *RepositoryFactory) GetNotificationSink() outbound.NotificationSink {
	return NewNotificationRepository(f.conn)
}
