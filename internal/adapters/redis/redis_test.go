package redis

import (
	"context"
	"testing"
	"time"

	"github.com/mwkdckd93-sudo/maz/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestNewClient_AppliesPoolAndTimeouts(t *testing.T) {
	mr := miniredis.RunT(t)
	client := NewClient(config.RedisConfig{
		Addr:        mr.Addr(),
		DB:          0,
		PoolSize:    32,
		MaxRetries:  1,
		DialTimeout: time.Second,
		IOTimeout:   750 * time.Millisecond,
	})
	t.Cleanup(func() { client.Close() })

	opts := client.Options()
	require.Equal(t, 32, opts.PoolSize)
	require.Equal(t, 1, opts.MaxRetries)
	require.Equal(t, time.Second, opts.DialTimeout)
	require.Equal(t, 750*time.Millisecond, opts.ReadTimeout)
	require.Equal(t, 750*time.Millisecond, opts.WriteTimeout)

	require.NoError(t, PingRedis(context.Background(), client))
}

func TestNewClient_FallsBackToDefaults(t *testing.T) {
	opts := clientOptions(config.RedisConfig{Addr: "localhost:6379"})

	require.Equal(t, defaultPoolSize, opts.PoolSize)
	require.Equal(t, defaultMaxRetries, opts.MaxRetries)
	require.Equal(t, defaultDialTimeout, opts.DialTimeout)
	require.Equal(t, defaultIOTimeout, opts.ReadTimeout)
	require.Equal(t, defaultIOTimeout, opts.WriteTimeout)
}

func TestPingRedis_ReportsAddress(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	client := NewClient(config.RedisConfig{Addr: addr, MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	t.Cleanup(func() { client.Close() })
	mr.Close()

	err := PingRedis(context.Background(), client)
	require.Error(t, err)
	require.ErrorContains(t, err, addr)
}

func TestLease_AcquireRelease(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestClient(t)
	lease := NewLease(client, zerolog.Nop())

	release, err := lease.Acquire(ctx, "closer", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, release)

	other, err := lease.Acquire(ctx, "closer", time.Minute)
	require.NoError(t, err)
	require.Nil(t, other)

	release()
	require.False(t, mr.Exists(leaseKeyPrefix+"closer"))

	again, err := lease.Acquire(ctx, "closer", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, again)
}

func TestLease_ReleaseKeepsForeignToken(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestClient(t)
	lease := NewLease(client, zerolog.Nop())

	release, err := lease.Acquire(ctx, "closer", time.Second)
	require.NoError(t, err)

	// lease expired and another instance took it over
	mr.FastForward(2 * time.Second)
	require.NoError(t, mr.Set(leaseKeyPrefix+"closer", "someone-else"))

	release()
	got, err := mr.Get(leaseKeyPrefix + "closer")
	require.NoError(t, err)
	require.Equal(t, "someone-else", got)
}

func TestDeduplicator_Claim(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestClient(t)
	dedup := NewDeduplicator(client)

	ok, err := dedup.Claim(ctx, "auction_won:a:u", time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = dedup.Claim(ctx, "auction_won:a:u", time.Hour)
	require.NoError(t, err)
	require.False(t, ok)

	mr.FastForward(2 * time.Hour)
	ok, err = dedup.Claim(ctx, "auction_won:a:u", time.Hour)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestViewerCounter(t *testing.T) {
	ctx := context.Background()
	_, client := newTestClient(t)
	viewers := NewViewerCounter(client)
	auctionID := uuid.New()

	count, err := viewers.Join(ctx, auctionID)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	count, err = viewers.Join(ctx, auctionID)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	count, err = viewers.Leave(ctx, auctionID)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	_, err = viewers.Leave(ctx, auctionID)
	require.NoError(t, err)
	count, err = viewers.Leave(ctx, auctionID)
	require.NoError(t, err)
	require.EqualValues(t, 0, count)
}
