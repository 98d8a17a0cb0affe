package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mwkdckd93-sudo/maz/internal/adapters/broadcaster"
	"github.com/mwkdckd93-sudo/maz/internal/adapters/memory"
	"github.com/mwkdckd93-sudo/maz/internal/domain/auction"
	"github.com/mwkdckd93-sudo/maz/internal/domain/shared"
	"github.com/mwkdckd93-sudo/maz/internal/ports/inbound"
	"github.com/mwkdckd93-sudo/maz/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	clock         *testClock
	store         *memory.Store
	users         *memory.UserRepository
	notifications *memory.NotificationRecorder
	conversations *memory.ConversationStore
	broadcaster   *broadcaster.LocalBroadcaster
	fanout        *Fanout
	bids          *BidService
	auctions      *AuctionService
}

type envOption func(params *AuctionServiceParams)

func withConversations(c outbound.ConversationService) envOption {
	return func(params *AuctionServiceParams) { params.Conversations = c }
}

func withMedia(m outbound.MediaCleaner) envOption {
	return func(params *AuctionServiceParams) { params.Media = m }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	logger := zerolog.Nop()
	clock := newTestClock()
	store := memory.NewStore(memory.StoreParams{LockTimeout: 5 * time.Second, Logger: logger})
	notifications := memory.NewNotificationRecorder()
	conversations := memory.NewConversationStore()
	local := broadcaster.NewLocalBroadcaster(broadcaster.NewHub(logger), logger)

	fanout := NewFanout(FanoutParams{
		Broadcaster: local,
		Notifier:    notifications,
		Workers:     4,
		Queue:       1024,
		Logger:      logger,
	})
	t.Cleanup(fanout.Stop)

	params := AuctionServiceParams{
		Store:         store,
		Conversations: conversations,
		Notifier:      notifications,
		Dedup:         memory.NewDeduplicator(),
		Fanout:        fanout,
		Clock:         clock.Now,
		Logger:        logger,
	}
	for _, opt := range opts {
		opt(&params)
	}

	return &testEnv{
		clock:         clock,
		store:         store,
		users:         store.Users(),
		notifications: notifications,
		conversations: conversations,
		broadcaster:   local,
		fanout:        fanout,
		bids: NewBidService(BidServiceParams{
			Store:              store,
			UserRepo:           store.Users(),
			Fanout:             fanout,
			AntiSnipeThreshold: 10 * time.Minute,
			AntiSnipeExtension: 10 * time.Minute,
			Clock:              clock.Now,
			Logger:             logger,
		}),
		auctions: NewAuctionService(params),
	}
}

func (env *testEnv) newUser(t *testing.T, name string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, env.users.Create(context.Background(), &shared.User{ID: id, Name: name}))
	return id
}

// newAuction creates an active auction priced 100000 with a 5000 increment
func (env *testEnv) newAuction(t *testing.T, sellerID uuid.UUID, duration time.Duration) *auction.Auction {
	t.Helper()
	a, err := env.auctions.CreateAuction(context.Background(), inbound.CreateAuctionRequest{
		SellerID:        sellerID,
		Title:           "Vintage camera",
		StartingPrice:   decimal.NewFromInt(100000),
		MinBidIncrement: decimal.NewFromInt(5000),
		EndTime:         env.clock.Now().Add(duration),
	})
	require.NoError(t, err)
	return a
}

func (env *testEnv) subscribe(t *testing.T, audience outbound.Audience) <-chan outbound.Event {
	t.Helper()
	events := make(chan outbound.Event, 64)
	subscriberID := uuid.NewString()
	require.NoError(t, env.broadcaster.Subscribe(context.Background(), audience, subscriberID, events))
	t.Cleanup(func() {
		_ = env.broadcaster.UnsubscribeAll(context.Background(), subscriberID)
	})
	return events
}

func (env *testEnv) placeBid(bidderID, auctionID uuid.UUID, amount int64) (*inbound.PlaceBidResult, error) {
	return env.bids.PlaceBid(context.Background(), inbound.PlaceBidRequest{
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    decimal.NewFromInt(amount),
	})
}

// awaitEvent returns the next event of the given type, skipping others
func awaitEvent(t *testing.T, events <-chan outbound.Event, eventType outbound.EventType) outbound.Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case e := <-events:
			if e.Type == eventType {
				return e
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", eventType)
			return outbound.Event{}
		}
	}
}

func requireCode(t *testing.T, err error, code shared.Code) {
	t.Helper()
	require.Error(t, err)
	got, ok := shared.CodeOf(err)
	require.True(t, ok, "expected coded error, got %v", err)
	require.Equal(t, code, got)
}

func countNotifications(notifications []shared.Notification, notificationType string) int {
	count := 0
	for _, n := range notifications {
		if n.Type == notificationType {
			count++
		}
	}
	return count
}
