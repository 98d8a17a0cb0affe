package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mwkdckd93-sudo/maz/internal/adapters/broadcaster"
	"github.com/mwkdckd93-sudo/maz/internal/ports/outbound"
	"github.com/mwkdckd93-sudo/maz/internal/ports/outbound/mocks"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestFanout_DropsWhenQueueIsFull(t *testing.T) {
	fanout := NewFanout(FanoutParams{Workers: 1, Queue: 1, Logger: zerolog.Nop()})

	release := make(chan struct{})
	accepted, dropped := 0, 0
	for i := 0; i < 10; i++ {
		if fanout.Go("blocking", func(ctx context.Context) { <-release }) {
			accepted++
		} else {
			dropped++
		}
	}

	require.Positive(t, dropped)
	require.LessOrEqual(t, accepted, 2)

	close(release)
	fanout.Stop()
}

func TestFanout_RecoversFromPanickingTask(t *testing.T) {
	fanout := NewFanout(FanoutParams{Workers: 1, Queue: 4, Logger: zerolog.Nop()})

	done := make(chan struct{})
	require.True(t, fanout.Go("panics", func(ctx context.Context) { panic("boom") }))
	require.True(t, fanout.Go("after", func(ctx context.Context) { close(done) }))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive a panicking task")
	}
	fanout.Stop()
}

func TestFanout_GoOrderedKeepsSubmissionOrderPerKey(t *testing.T) {
	fanout := NewFanout(FanoutParams{Workers: 4, Queue: 256, Logger: zerolog.Nop()})

	key := uuid.New()
	var (
		mu  sync.Mutex
		got []int
	)
	for i := 0; i < 200; i++ {
		require.True(t, fanout.GoOrdered(key, "ordered", func(ctx context.Context) {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, i)
		}))
	}
	fanout.Stop()

	require.Len(t, got, 200)
	for i, v := range got {
		require.Equal(t, i, v)
	}
}

func TestFanout_PublishAndNotify(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockNotificationSink(ctrl)

	hub := broadcaster.NewHub(zerolog.Nop())
	local := broadcaster.NewLocalBroadcaster(hub, zerolog.Nop())
	fanout := NewFanout(FanoutParams{Broadcaster: local, Notifier: notifier, Logger: zerolog.Nop()})

	userID := uuid.New()
	inbox := make(chan outbound.Event, 1)
	hub.Join(outbound.UserAudience(userID), "client", inbox)

	delivered := make(chan struct{})
	notifier.EXPECT().
		Notify(gomock.Any(), userID, "outbid", "title", "body", gomock.Any()).
		DoAndReturn(func(ctx context.Context, userID uuid.UUID, notificationType, title, body string, data map[string]any) error {
			close(delivered)
			return errors.New("sink unavailable")
		})

	fanout.Publish(outbound.UserAudience(userID), outbound.Event{Type: outbound.EventTypeOutbid})
	fanout.Notify(userID, "outbid", "title", "body", nil)

	event := awaitEvent(t, inbox, outbound.EventTypeOutbid)
	require.NotZero(t, event.Timestamp)

	select {
	case <-delivered:
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not delivered")
	}
	fanout.Stop()
}
