package broadcaster

import (
	"sync"

	"github.com/mwkdckd93-sudo/maz/internal/ports/outbound"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"
)

const hubShards = 32

// Hub keeps the local room membership of connected subscribers and delivers events to
// them without ever blocking: a subscriber whose buffer is full misses the event.
type Hub struct {
	shards [hubShards]hubShard

	mu          sync.Mutex
	memberships map[string]map[outbound.Audience]struct{}

	logger zerolog.Logger
}

type hubShard struct {
	mu    sync.RWMutex
	rooms map[outbound.Audience]map[string]chan<- outbound.Event
}

// NewHub creates an empty hub
func NewHub(logger zerolog.Logger) *Hub {
	h := &Hub{
		memberships: make(map[string]map[outbound.Audience]struct{}),
		logger:      logger.With().Str("component", "hub").Logger(),
	}
	for i := range h.shards {
		h.shards[i].rooms = make(map[outbound.Audience]map[string]chan<- outbound.Event)
	}
	return h
}

func (h *Hub) shardFor(audience outbound.Audience) *hubShard {
	return &h.shards[xxhash.Sum64String(string(audience))%hubShards]
}

// Join adds the subscriber to the room. It reports false when it was already a member.
func (h *Hub) Join(audience outbound.Audience, subscriberID string, events chan<- outbound.Event) bool {
	shard := h.shardFor(audience)
	shard.mu.Lock()
	room, ok := shard.rooms[audience]
	if !ok {
		room = make(map[string]chan<- outbound.Event)
		shard.rooms[audience] = room
	}
	_, member := room[subscriberID]
	room[subscriberID] = events
	shard.mu.Unlock()

	h.mu.Lock()
	if h.memberships[subscriberID] == nil {
		h.memberships[subscriberID] = make(map[outbound.Audience]struct{})
	}
	h.memberships[subscriberID][audience] = struct{}{}
	h.mu.Unlock()

	return !member
}

// Leave removes the subscriber from the room. It reports false when it was not a member.
func (h *Hub) Leave(audience outbound.Audience, subscriberID string) bool {
	shard := h.shardFor(audience)
	shard.mu.Lock()
	room := shard.rooms[audience]
	_, member := room[subscriberID]
	delete(room, subscriberID)
	if len(room) == 0 {
		delete(shard.rooms, audience)
	}
	shard.mu.Unlock()

	h.mu.Lock()
	if joined, ok := h.memberships[subscriberID]; ok {
		delete(joined, audience)
		if len(joined) == 0 {
			delete(h.memberships, subscriberID)
		}
	}
	h.mu.Unlock()

	return member
}

// LeaveAll removes the subscriber from every room and returns the rooms it left
func (h *Hub) LeaveAll(subscriberID string) []outbound.Audience {
	h.mu.Lock()
	joined := h.memberships[subscriberID]
	delete(h.memberships, subscriberID)
	h.mu.Unlock()

	left := make([]outbound.Audience, 0, len(joined))
	for audience := range joined {
		shard := h.shardFor(audience)
		shard.mu.Lock()
		if room, ok := shard.rooms[audience]; ok {
			delete(room, subscriberID)
			if len(room) == 0 {
				delete(shard.rooms, audience)
			}
		}
		shard.mu.Unlock()
		left = append(left, audience)
	}
	return left
}

// Deliver hands the event to every local member of the room and returns how many got it
func (h *Hub) Deliver(audience outbound.Audience, event outbound.Event) int {
	shard := h.shardFor(audience)
	shard.mu.RLock()
	defer shard.mu.RUnlock()

	delivered := 0
	for subscriberID, events := range shard.rooms[audience] {
		select {
		case events <- event:
			delivered++
		default:
			h.logger.Warn().
				Str("subscriber_id", subscriberID).
				Str("audience", string(audience)).
				Str("event_type", string(event.Type)).
				Msg("Subscriber buffer full, dropping event")
		}
	}
	return delivered
}

// Members returns the number of local members of the room
func (h *Hub) Members(audience outbound.Audience) int {
	shard := h.shardFor(audience)
	shard.mu.RLock()
	defer shard.mu.RUnlock()

	return len(shard.rooms[audience])
}
