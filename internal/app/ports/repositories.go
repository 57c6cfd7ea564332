package ports

import (
	"context"
	"time"

	"fiefdom/internal/domain/event"
	"fiefdom/internal/domain/player"
	"fiefdom/internal/domain/queue"
)

type PlayerStateRepository interface {
	// GetByPlayerID loads the state and, inside a transaction, holds it for update.
	GetByPlayerID(ctx context.Context, playerID string) (player.State, error)
	// SaveWithVersion inserts when expectedVersion is 0, otherwise updates only if the
	// stored version still equals expectedVersion.
	SaveWithVersion(ctx context.Context, state player.State, expectedVersion int64) error
}

type ActionQueueRepository interface {
	GetActiveByPlayerID(ctx context.Context, playerID string) (queue.Queue, error)
	GetByID(ctx context.Context, queueID int64) (queue.Queue, error)
	// Create assigns the queue id. A second active queue for the same player is ErrConflict.
	Create(ctx context.Context, q queue.Queue) (queue.Queue, error)
	SaveWithVersion(ctx context.Context, q queue.Queue, expectedVersion int64) error
	// ListFinishedByPlayerID returns completed and cancelled queues, most recent first.
	ListFinishedByPlayerID(ctx context.Context, playerID string, limit int) ([]queue.Queue, error)
	// ListDue returns active queues whose next repetition is due at or before now.
	ListDue(ctx context.Context, now time.Time, limit int) ([]queue.Queue, error)
}

type EventRepository interface {
	Append(ctx context.Context, playerID string, events []event.DomainEvent) error
	ListByPlayerID(ctx context.Context, playerID string, limit int) ([]event.DomainEvent, error)
}
