package memory

import (
	"context"
	"sort"
	"time"

	"fiefdom/internal/app/ports"
	"fiefdom/internal/domain/queue"
)

type ActionQueueRepo struct {
	store *Store
}

func NewActionQueueRepo(store *Store) ActionQueueRepo {
	return ActionQueueRepo{store: store}
}

func (r ActionQueueRepo) GetActiveByPlayerID(ctx context.Context, playerID string) (queue.Queue, error) {
	var (
		out queue.Queue
		ok  bool
	)
	r.store.read(ctx, func() {
		out, ok = r.store.activeFor(playerID)
	})
	if !ok {
		return queue.Queue{}, ports.ErrNotFound
	}
	return out, nil
}

func (r ActionQueueRepo) GetByID(ctx context.Context, queueID int64) (queue.Queue, error) {
	var (
		q  queue.Queue
		ok bool
	)
	r.store.read(ctx, func() {
		q, ok = r.store.queues[queueID]
	})
	if !ok {
		return queue.Queue{}, ports.ErrNotFound
	}
	return q.Clone(), nil
}

func (r ActionQueueRepo) Create(ctx context.Context, q queue.Queue) (queue.Queue, error) {
	var err error
	r.store.write(ctx, func() {
		if q.Status == queue.StatusActive {
			if _, exists := r.store.activeFor(q.PlayerID); exists {
				err = ports.ErrConflict
				return
			}
		}
		r.store.nextQueueID++
		q.ID = r.store.nextQueueID
		r.store.queues[q.ID] = q.Clone()
	})
	if err != nil {
		return queue.Queue{}, err
	}
	return q, nil
}

func (r ActionQueueRepo) SaveWithVersion(ctx context.Context, q queue.Queue, expectedVersion int64) error {
	var err error
	r.store.write(ctx, func() {
		current, ok := r.store.queues[q.ID]
		if !ok || current.Version != expectedVersion {
			err = ports.ErrConflict
			return
		}
		if q.Status == queue.StatusActive && current.Status != queue.StatusActive {
			err = ports.ErrConflict
			return
		}
		r.store.queues[q.ID] = q.Clone()
	})
	return err
}

func (r ActionQueueRepo) ListFinishedByPlayerID(ctx context.Context, playerID string, limit int) ([]queue.Queue, error) {
	out := []queue.Queue{}
	r.store.read(ctx, func() {
		for _, q := range r.store.queues {
			if q.PlayerID == playerID && q.Finished() {
				out = append(out, q.Clone())
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r ActionQueueRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]queue.Queue, error) {
	out := []queue.Queue{}
	r.store.read(ctx, func() {
		for _, q := range r.store.queues {
			if q.Status == queue.StatusActive && !q.NextDueAt.After(now) {
				out = append(out, q.Clone())
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].NextDueAt.Equal(out[j].NextDueAt) {
			return out[i].NextDueAt.Before(out[j].NextDueAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// activeFor must be called with the store lock held.
func (s *Store) activeFor(playerID string) (queue.Queue, bool) {
	for _, q := range s.queues {
		if q.PlayerID == playerID && q.Status == queue.StatusActive {
			return q.Clone(), true
		}
	}
	return queue.Queue{}, false
}
