package app

import (
	"context"
	"time"

	"github.com/mwkdckd93-sudo/maz/internal/ports/outbound"

	"github.com/alitto/pond"
	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const fanoutTaskTimeout = 5 * time.Second

// Fanout runs post-commit side effects on bounded worker pools. Nothing it does is
// awaited by the caller; when a queue is full the work is dropped and logged.
//
// Events of one auction go through the same single-worker lane, so observers see them
// in commit order. Notifications use a shared pool and are unordered.
type Fanout struct {
	broadcaster outbound.Broadcaster
	notifier    outbound.NotificationSink
	pool        *pond.WorkerPool
	lanes       []*pond.WorkerPool
	logger      zerolog.Logger
}

type FanoutParams struct {
	Broadcaster outbound.Broadcaster
	Notifier    outbound.NotificationSink
	// Workers sizes the notification pool and the number of ordered lanes
	Workers int
	// Queue bounds the pending tasks of the pool and of each lane
	Queue  int
	Logger zerolog.Logger
}

// NewFanout creates a fanout with its own worker pools
func NewFanout(params FanoutParams) *Fanout {
	workers, queue := params.Workers, params.Queue
	if workers <= 0 {
		workers = 8
	}
	if queue <= 0 {
		queue = 256
	}

	lanes := make([]*pond.WorkerPool, workers)
	for i := range lanes {
		// one resident worker keeps the lane FIFO
		lanes[i] = pond.New(1, queue, pond.MinWorkers(1))
	}

	return &Fanout{
		broadcaster: params.Broadcaster,
		notifier:    params.Notifier,
		pool:        pond.New(workers, queue, pond.Strategy(pond.Balanced())),
		lanes:       lanes,
		logger:      params.Logger.With().Str("component", "fanout").Logger(),
	}
}

// Go enqueues an unordered task. It reports false when the task was dropped.
func (f *Fanout) Go(name string, task func(ctx context.Context)) bool {
	return f.submit(f.pool, name, task)
}

// GoOrdered enqueues task behind every earlier task with the same key
func (f *Fanout) GoOrdered(key uuid.UUID, name string, task func(ctx context.Context)) bool {
	return f.submit(f.laneFor(key), name, task)
}

func (f *Fanout) laneFor(key uuid.UUID) *pond.WorkerPool {
	return f.lanes[xxhash.Sum64(key[:])%uint64(len(f.lanes))]
}

func (f *Fanout) submit(pool *pond.WorkerPool, name string, task func(ctx context.Context)) bool {
	submitted := pool.TrySubmit(func() {
		defer func() {
			if p := recover(); p != nil {
				f.logger.Error().Interface("panic", p).Str("task", name).Msg("Fanout task panic")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), fanoutTaskTimeout)
		defer cancel()
		task(ctx)
	})
	if !submitted {
		f.logger.Warn().Str("task", name).Msg("Fanout queue full, dropping task")
	}
	return submitted
}

// Publish enqueues an event on the lane of its auction
func (f *Fanout) Publish(audience outbound.Audience, event outbound.Event) {
	f.GoOrdered(event.AuctionID, string(event.Type), func(ctx context.Context) {
		f.Deliver(ctx, audience, event)
	})
}

// Deliver publishes an event synchronously. Ordered tasks call it to keep their events in sequence.
func (f *Fanout) Deliver(ctx context.Context, audience outbound.Audience, event outbound.Event) {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}
	if err := f.broadcaster.Publish(ctx, audience, event); err != nil {
		f.logger.Error().Err(err).
			Str("audience", string(audience)).
			Str("event_type", string(event.Type)).
			Msg("Failed to publish event")
	}
}

// Notify enqueues a notification for a user
func (f *Fanout) Notify(userID uuid.UUID, notificationType, title, body string, data map[string]any) {
	if f.notifier == nil {
		return
	}
	f.Go("notify:"+notificationType, func(ctx context.Context) {
		f.deliverNotification(ctx, userID, notificationType, title, body, data)
	})
}

func (f *Fanout) deliverNotification(ctx context.Context, userID uuid.UUID, notificationType, title, body string, data map[string]any) {
	if err := f.notifier.Notify(ctx, userID, notificationType, title, body, data); err != nil {
		f.logger.Error().Err(err).
			Str("user_id", userID.String()).
			Str("notification_type", notificationType).
			Msg("Failed to deliver notification")
	}
}

// Stop drains the lanes first, since lane tasks may still queue notifications
func (f *Fanout) Stop() {
	for _, lane := range f.lanes {
		lane.StopAndWait()
	}
	f.pool.StopAndWait()
}
