package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestConversationStore_CreateIfAbsent(t *testing.T) {
	ctx := context.Background()
	c := NewConversationStore()
	auctionID, seller, buyer := uuid.New(), uuid.New(), uuid.New()

	first, created, err := c.CreateConversationIfAbsent(ctx, auctionID, seller, buyer)
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := c.CreateConversationIfAbsent(ctx, auctionID, seller, buyer)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first, second)
	require.Len(t, c.ForAuction(auctionID), 1)
}

func TestDeduplicator_Claim(t *testing.T) {
	ctx := context.Background()
	d := NewDeduplicator()
	now := time.Now()
	d.now = func() time.Time { return now }

	ok, err := d.Claim(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = d.Claim(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.False(t, ok)

	now = now.Add(2 * time.Minute)
	ok, err = d.Claim(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestLease_Acquire(t *testing.T) {
	ctx := context.Background()
	l := NewLease()

	release, err := l.Acquire(ctx, "closer", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, release)

	again, err := l.Acquire(ctx, "closer", time.Minute)
	require.NoError(t, err)
	require.Nil(t, again)

	release()

	again, err = l.Acquire(ctx, "closer", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, again)
}
