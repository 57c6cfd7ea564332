package lock

import (
	"context"
	"sync"
)

// MutexMap hands out one mutex per player id. Entries are dropped once no caller holds or
// waits on them, so the map stays bounded by concurrent players.
type MutexMap struct {
	mu      sync.Mutex
	mutexes map[string]*entry
}

type entry struct {
	ch   chan struct{}
	refs int
}

func NewMutexMap() *MutexMap {
	return &MutexMap{
		mutexes: make(map[string]*entry),
	}
}

// Lock blocks until key is free or ctx is done.
func (m *MutexMap) Lock(ctx context.Context, key string) (func(), error) {
	e := m.acquire(key)
	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		m.release(key)
		return nil, ctx.Err()
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			m.release(key)
		})
	}, nil
}

func (m *MutexMap) acquire(key string) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.mutexes[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		m.mutexes[key] = e
	}
	e.refs++
	return e
}

func (m *MutexMap) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.mutexes[key]
	if !ok {
		return
	}
	e.refs--
	if e.refs <= 0 {
		delete(m.mutexes, key)
	}
}

func (m *MutexMap) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.mutexes)
}
