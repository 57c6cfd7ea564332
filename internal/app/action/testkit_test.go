package action

import (
	"context"
	"sort"
	"time"

	"fiefdom/internal/app/ports"
	"fiefdom/internal/domain/activity"
	"fiefdom/internal/domain/event"
	"fiefdom/internal/domain/player"
	"fiefdom/internal/domain/queue"
)

var testStart = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type stubTxManager struct{}

func (stubTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type stubClock struct {
	now time.Time
}

func (c *stubClock) Now() time.Time { return c.now }

func (c *stubClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type stubStateRepo struct {
	byPlayer  map[string]player.State
	saves     int
	conflicts int
}

func (r *stubStateRepo) GetByPlayerID(_ context.Context, playerID string) (player.State, error) {
	state, ok := r.byPlayer[playerID]
	if !ok {
		return player.State{}, ports.ErrNotFound
	}
	return state.Clone(), nil
}

func (r *stubStateRepo) SaveWithVersion(_ context.Context, state player.State, expectedVersion int64) error {
	if r.conflicts > 0 {
		r.conflicts--
		return ports.ErrConflict
	}
	current, ok := r.byPlayer[state.PlayerID]
	if !ok {
		if expectedVersion != 0 {
			return ports.ErrConflict
		}
		r.byPlayer[state.PlayerID] = state.Clone()
		return nil
	}
	if current.Version != expectedVersion {
		return ports.ErrConflict
	}
	r.saves++
	r.byPlayer[state.PlayerID] = state.Clone()
	return nil
}

type stubQueueRepo struct {
	byID   map[int64]queue.Queue
	nextID int64
	saves  int
}

func newStubQueueRepo() *stubQueueRepo {
	return &stubQueueRepo{byID: map[int64]queue.Queue{}}
}

func (r *stubQueueRepo) GetActiveByPlayerID(_ context.Context, playerID string) (queue.Queue, error) {
	for _, q := range r.byID {
		if q.PlayerID == playerID && q.Status == queue.StatusActive {
			return q.Clone(), nil
		}
	}
	return queue.Queue{}, ports.ErrNotFound
}

func (r *stubQueueRepo) GetByID(_ context.Context, queueID int64) (queue.Queue, error) {
	q, ok := r.byID[queueID]
	if !ok {
		return queue.Queue{}, ports.ErrNotFound
	}
	return q.Clone(), nil
}

func (r *stubQueueRepo) Create(ctx context.Context, q queue.Queue) (queue.Queue, error) {
	if q.Status == queue.StatusActive {
		if _, err := r.GetActiveByPlayerID(ctx, q.PlayerID); err == nil {
			return queue.Queue{}, ports.ErrConflict
		}
	}
	r.nextID++
	q.ID = r.nextID
	r.byID[q.ID] = q.Clone()
	return q, nil
}

func (r *stubQueueRepo) SaveWithVersion(_ context.Context, q queue.Queue, expectedVersion int64) error {
	current, ok := r.byID[q.ID]
	if !ok || current.Version != expectedVersion {
		return ports.ErrConflict
	}
	r.saves++
	r.byID[q.ID] = q.Clone()
	return nil
}

func (r *stubQueueRepo) ListFinishedByPlayerID(_ context.Context, playerID string, limit int) ([]queue.Queue, error) {
	out := []queue.Queue{}
	for _, q := range r.byID {
		if q.PlayerID == playerID && q.Finished() {
			out = append(out, q.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *stubQueueRepo) ListDue(_ context.Context, now time.Time, limit int) ([]queue.Queue, error) {
	out := []queue.Queue{}
	for _, q := range r.byID {
		if q.Status == queue.StatusActive && !q.NextDueAt.After(now) {
			out = append(out, q.Clone())
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *stubQueueRepo) countByPlayer(playerID string) int {
	n := 0
	for _, q := range r.byID {
		if q.PlayerID == playerID {
			n++
		}
	}
	return n
}

type stubEventRepo struct {
	events []event.DomainEvent
}

func (r *stubEventRepo) Append(_ context.Context, _ string, events []event.DomainEvent) error {
	r.events = append(r.events, events...)
	return nil
}

func (r *stubEventRepo) ListByPlayerID(_ context.Context, _ string, limit int) ([]event.DomainEvent, error) {
	if limit <= 0 || limit > len(r.events) {
		limit = len(r.events)
	}
	out := make([]event.DomainEvent, limit)
	copy(out, r.events[:limit])
	return out, nil
}

func (r *stubEventRepo) count(eventType string) int {
	n := 0
	for _, e := range r.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

type stubActionMetrics struct {
	successCalls  int
	rejectedCodes []string
	conflictCalls int
	failureCalls  int
	repetitions   int
}

func (m *stubActionMetrics) RecordSuccess(string) { m.successCalls++ }

func (m *stubActionMetrics) RecordRejected(code string) {
	m.rejectedCodes = append(m.rejectedCodes, code)
}

func (m *stubActionMetrics) RecordConflict() { m.conflictCalls++ }

func (m *stubActionMetrics) RecordFailure() { m.failureCalls++ }

func (m *stubActionMetrics) RecordRepetitions(n int) { m.repetitions += n }

type testEnv struct {
	uc      UseCase
	clock   *stubClock
	states  *stubStateRepo
	queues  *stubQueueRepo
	events  *stubEventRepo
	metrics *stubActionMetrics
	rolls   *activity.SequenceRoller
}

// newTestEnv seeds player "p-1" in village 1 with full energy.
func newTestEnv(rolls ...float64) *testEnv {
	if len(rolls) == 0 {
		rolls = []float64{0.1}
	}
	seed := player.NewState("p-1", player.Location{Type: player.LocationVillage, ID: 1})
	env := &testEnv{
		clock:   &stubClock{now: testStart},
		states:  &stubStateRepo{byPlayer: map[string]player.State{"p-1": seed}},
		queues:  newStubQueueRepo(),
		events:  &stubEventRepo{},
		metrics: &stubActionMetrics{},
		rolls:   activity.NewSequenceRoller(rolls...),
	}
	env.uc = UseCase{
		TxManager:  stubTxManager{},
		StateRepo:  env.states,
		QueueRepo:  env.queues,
		EventRepo:  env.events,
		Metrics:    env.metrics,
		Activities: activity.MustDefaultRegistry(),
		Roller:     env.rolls,
		Now:        env.clock.Now,
	}
	return env
}

func (e *testEnv) player() player.State {
	return e.states.byPlayer["p-1"]
}

func (e *testEnv) updatePlayer(fn func(*player.State)) {
	s := e.states.byPlayer["p-1"]
	fn(&s)
	e.states.byPlayer["p-1"] = s
}
