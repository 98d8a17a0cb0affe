package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mwkdckd93-sudo/maz/internal/domain/shared"

	"github.com/google/uuid"
)

// NotificationRecorder keeps delivered notifications in memory
type NotificationRecorder struct {
	mu            sync.Mutex
	notifications []shared.Notification
}

// NewNotificationRecorder creates an empty recorder
func NewNotificationRecorder() *NotificationRecorder {
	return &NotificationRecorder{}
}

func (r *NotificationRecorder) Notify(ctx context.Context, userID uuid.UUID, notificationType, title, body string, data map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.notifications = append(r.notifications, shared.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      notificationType,
		Title:     title,
		Body:      body,
		Data:      data,
		CreatedAt: time.Now(),
	})
	return nil
}

// ForUser returns the notifications delivered to userID, oldest first
func (r *NotificationRecorder) ForUser(userID uuid.UUID) []shared.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []shared.Notification
	for _, n := range r.notifications {
		if n.UserID == userID {
			result = append(result, n)
		}
	}
	return result
}

// All returns every recorded notification
func (r *NotificationRecorder) All() []shared.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]shared.Notification(nil), r.notifications...)
}

type conversationKey struct {
	auctionID, sellerID, buyerID uuid.UUID
}

// ConversationStore is the in-memory buyer-seller conversation service
type ConversationStore struct {
	mu            sync.Mutex
	conversations map[conversationKey]shared.Conversation
	messages      map[uuid.UUID][]string
}

// NewConversationStore creates an empty conversation store
func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		conversations: make(map[conversationKey]shared.Conversation),
		messages:      make(map[uuid.UUID][]string),
	}
}

func (c *ConversationStore) CreateConversationIfAbsent(ctx context.Context, auctionID, sellerID, buyerID uuid.UUID) (uuid.UUID, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := conversationKey{auctionID: auctionID, sellerID: sellerID, buyerID: buyerID}
	if existing, ok := c.conversations[key]; ok {
		return existing.ID, false, nil
	}
	conv := shared.Conversation{
		ID:        uuid.New(),
		AuctionID: auctionID,
		SellerID:  sellerID,
		BuyerID:   buyerID,
		CreatedAt: time.Now(),
	}
	c.conversations[key] = conv
	return conv.ID, true, nil
}

func (c *ConversationStore) PostSystemMessage(ctx context.Context, conversationID uuid.UUID, body string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages[conversationID] = append(c.messages[conversationID], body)
	return nil
}

// ForAuction returns the conversations opened for an auction
func (c *ConversationStore) ForAuction(auctionID uuid.UUID) []shared.Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()

	var result []shared.Conversation
	for key, conv := range c.conversations {
		if key.auctionID == auctionID {
			result = append(result, conv)
		}
	}
	return result
}

// Messages returns the system messages of a conversation
func (c *ConversationStore) Messages(conversationID uuid.UUID) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]string(nil), c.messages[conversationID]...)
}

// Deduplicator remembers claimed keys until they expire
type Deduplicator struct {
	mu   sync.Mutex
	keys map[string]time.Time
	now  func() time.Time
}

// NewDeduplicator creates an empty deduplicator
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{keys: make(map[string]time.Time), now: time.Now}
}

func (d *Deduplicator) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if expires, ok := d.keys[key]; ok && now.Before(expires) {
		return false, nil
	}
	d.keys[key] = now.Add(ttl)
	return true, nil
}

// Lease is a process-local lease used when Redis is not configured
type Lease struct {
	mu     sync.Mutex
	leases map[string]leaseEntry
	now    func() time.Time
}

type leaseEntry struct {
	token   uuid.UUID
	expires time.Time
}

// NewLease creates an empty lease table
func NewLease() *Lease {
	return &Lease{leases: make(map[string]leaseEntry), now: time.Now}
}

func (l *Lease) Acquire(ctx context.Context, name string, ttl time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if current, ok := l.leases[name]; ok && now.Before(current.expires) {
		return nil, nil
	}
	token := uuid.New()
	l.leases[name] = leaseEntry{token: token, expires: now.Add(ttl)}

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if current, ok := l.leases[name]; ok && current.token == token {
			delete(l.leases, name)
		}
	}, nil
}

// ViewerCounter counts auction room viewers inside this process
type ViewerCounter struct {
	mu     sync.Mutex
	counts map[uuid.UUID]int64
}

// NewViewerCounter creates an empty viewer counter
func NewViewerCounter() *ViewerCounter {
	return &ViewerCounter{counts: make(map[uuid.UUID]int64)}
}

func (v *ViewerCounter) Join(ctx context.Context, auctionID uuid.UUID) (int64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.counts[auctionID]++
	return v.counts[auctionID], nil
}

func (v *ViewerCounter) Leave(ctx context.Context, auctionID uuid.UUID) (int64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.counts[auctionID] <= 1 {
		delete(v.counts, auctionID)
		return 0, nil
	}
	v.counts[auctionID]--
	return v.counts[auctionID], nil
}
