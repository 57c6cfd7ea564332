package memory

import (
	"context"
	"sync"

	"fiefdom/internal/domain/event"
	"fiefdom/internal/domain/player"
	"fiefdom/internal/domain/queue"
)

type Store struct {
	mu          sync.RWMutex
	state       map[string]player.State
	queues      map[int64]queue.Queue
	nextQueueID int64
	events      map[string][]event.DomainEvent
}

func NewStore() *Store {
	return &Store{
		state:  make(map[string]player.State),
		queues: make(map[int64]queue.Queue),
		events: make(map[string][]event.DomainEvent),
	}
}

func (s *Store) SeedState(state player.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state[state.PlayerID] = state.Clone()
}

type txKeyType struct{}

var txKey = txKeyType{}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey).(bool)
	return v
}

// read runs fn under the read lock unless the caller already holds the store lock
// through TxManager.
func (s *Store) read(ctx context.Context, fn func()) {
	if inTx(ctx) {
		fn()
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn()
}

func (s *Store) write(ctx context.Context, fn func()) {
	if inTx(ctx) {
		fn()
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

type storeSnapshot struct {
	state       map[string]player.State
	queues      map[int64]queue.Queue
	nextQueueID int64
	events      map[string][]event.DomainEvent
}

// snapshot copies the maps only; stored values are replaced on write, never mutated.
func (s *Store) snapshot() storeSnapshot {
	snap := storeSnapshot{
		state:       make(map[string]player.State, len(s.state)),
		queues:      make(map[int64]queue.Queue, len(s.queues)),
		nextQueueID: s.nextQueueID,
		events:      make(map[string][]event.DomainEvent, len(s.events)),
	}
	for k, v := range s.state {
		snap.state[k] = v
	}
	for k, v := range s.queues {
		snap.queues[k] = v
	}
	for k, v := range s.events {
		snap.events[k] = v
	}
	return snap
}

func (s *Store) restore(snap storeSnapshot) {
	s.state = snap.state
	s.queues = snap.queues
	s.nextQueueID = snap.nextQueueID
	s.events = snap.events
}
