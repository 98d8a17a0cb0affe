package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mwkdckd93-sudo/maz/internal/domain/shared"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

const lockShards = 64

var errLockWait = errors.New("lock wait timeout")

// LockRegistry hands out one exclusive lock per auction. The registry is sharded so that
// looking up a lock for one auction never contends with another auction's hot path.
type LockRegistry struct {
	shards [lockShards]lockShard
}

type lockShard struct {
	mu    sync.Mutex
	locks map[uuid.UUID]chan struct{}
}

// NewLockRegistry creates an empty registry
func NewLockRegistry() *LockRegistry {
	r := &LockRegistry{}
	for i := range r.shards {
		r.shards[i].locks = make(map[uuid.UUID]chan struct{})
	}
	return r
}

func (r *LockRegistry) lockFor(id uuid.UUID) chan struct{} {
	shard := &r.shards[xxhash.Sum64(id[:])%lockShards]
	shard.mu.Lock()
	defer shard.mu.Unlock()

	l, ok := shard.locks[id]
	if !ok {
		l = make(chan struct{}, 1)
		shard.locks[id] = l
	}
	return l
}

// Acquire takes the auction's lock, waiting at most timeout. The returned release func
// must be called exactly once.
func (r *LockRegistry) Acquire(ctx context.Context, id uuid.UUID, timeout time.Duration) (func(), error) {
	l := r.lockFor(id)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case l <- struct{}{}:
		return func() { <-l }, nil
	case <-timer.C:
		return nil, shared.LockTimeout(errLockWait)
	case <-ctx.Done():
		return nil, shared.LockTimeout(ctx.Err())
	}
}
