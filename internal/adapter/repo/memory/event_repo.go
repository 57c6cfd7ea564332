package memory

import (
	"context"

	"fiefdom/internal/app/ports"
	"fiefdom/internal/domain/event"
)

type EventRepo struct {
	store *Store
}

func NewEventRepo(store *Store) EventRepo {
	return EventRepo{store: store}
}

func (r EventRepo) Append(ctx context.Context, playerID string, events []event.DomainEvent) error {
	r.store.write(ctx, func() {
		r.store.events[playerID] = append(r.store.events[playerID], events...)
	})
	return nil
}

// ListByPlayerID returns the newest events first.
func (r EventRepo) ListByPlayerID(ctx context.Context, playerID string, limit int) ([]event.DomainEvent, error) {
	var out []event.DomainEvent
	r.store.read(ctx, func() {
		all := r.store.events[playerID]
		if limit <= 0 || limit > len(all) {
			limit = len(all)
		}
		out = make([]event.DomainEvent, 0, limit)
		for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
			out = append(out, all[i])
		}
	})
	if len(out) == 0 {
		return nil, ports.ErrNotFound
	}
	return out, nil
}
