package action

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"fiefdom/internal/app/ports"
	"fiefdom/internal/domain/activity"
	"fiefdom/internal/domain/event"
	"fiefdom/internal/domain/player"
	"fiefdom/internal/domain/queue"
)

const (
	maxConflictRetries   = 3
	defaultFinishedLimit = 20
)

var (
	defaultRoller   = activity.NewRoller(uint64(time.Now().UnixNano()))
	defaultRegistry = sync.OnceValue(activity.MustDefaultRegistry)
)

type UseCase struct {
	TxManager  ports.TxManager
	Locker     ports.PlayerLocker
	StateRepo  ports.PlayerStateRepository
	QueueRepo  ports.ActionQueueRepository
	EventRepo  ports.EventRepository
	Metrics    ports.ActionMetrics
	Activities *activity.Registry
	Roller     activity.Roller
	// MaxCatchUp bounds the repetitions resolved by one advance; 0 means only the
	// remaining total bounds it.
	MaxCatchUp    int
	FinishedLimit int
	Logger        *slog.Logger
	Now           func() time.Time
}

// Start validates the request, refuses a second active queue and persists a new queue that
// is advanced in the same transaction.
func (u UseCase) Start(ctx context.Context, req StartRequest) (QueueResponse, error) {
	playerID := strings.TrimSpace(req.PlayerID)
	if playerID == "" {
		return QueueResponse{}, invalid("player_id", "is required")
	}
	kind := activity.NormalizeKind(req.ActionType)
	if kind == "" {
		return QueueResponse{}, invalid("action_type", "is required")
	}
	if !activity.IsQueueable(kind) {
		return QueueResponse{}, invalid("action_type", "unsupported queue action "+string(kind))
	}
	if req.Total < 0 {
		return QueueResponse{}, invalid("total", "must be zero or greater")
	}
	if req.Total > queue.MaxTotal {
		return QueueResponse{}, invalid("total", fmt.Sprintf("must be at most %d", queue.MaxTotal))
	}
	d, ok := u.activities().Duration(kind)
	if !ok {
		return QueueResponse{}, invalid("action_type", "no duration configured for "+string(kind))
	}
	params := req.Params
	if params == nil {
		params = activity.Params{}
	}

	var out QueueResponse
	_, err := u.run(ctx, "start", playerID, true, func(txCtx context.Context, ac *ActionContext) error {
		if ac.Active != nil && ac.Active.IsActive() {
			return precondition(CodeAlreadyQueued, "you are already busy with a %s queue", ac.Active.ActionType)
		}
		res, err := u.prepare(kind, params, ac.State, ac.State.Location)
		if err != nil {
			return err
		}
		if req.Total > 0 {
			if missing := ac.State.Shortfall(res.Cost(params)); len(missing) > 0 {
				return precondition(CodeInsufficientResources, "not enough %s to begin", strings.Join(missing, ", "))
			}
		}

		if err := u.flushQueue(txCtx, ac); err != nil {
			return err
		}
		created, err := u.QueueRepo.Create(txCtx, queue.New(playerID, kind, params, req.Total, ac.Now, d))
		if err != nil {
			if errors.Is(err, ports.ErrConflict) {
				return precondition(CodeAlreadyQueued, "you are already busy with another queue")
			}
			return err
		}
		ac.track(&created)
		ac.emit(event.TypeQueueStarted, ac.Now, queuePayload(created, map[string]any{
			"total":       created.Total,
			"next_due_at": created.NextDueAt,
		}))
		if err := u.advance(ac); err != nil {
			return err
		}
		out = QueueResponse{
			Queue:    *ac.Active,
			Resolved: ac.Resolved,
			Message:  startMessage(created),
		}
		return nil
	})
	if err != nil {
		return QueueResponse{}, err
	}
	return out, nil
}

// Cancel freezes the active queue at its last persisted progress; due repetitions are not
// resolved first.
func (u UseCase) Cancel(ctx context.Context, playerID string) (QueueResponse, error) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return QueueResponse{}, invalid("player_id", "is required")
	}
	var out QueueResponse
	_, err := u.run(ctx, "cancel", playerID, false, func(_ context.Context, ac *ActionContext) error {
		if ac.Active == nil || !ac.Active.IsActive() {
			return precondition(CodeNoActiveQueue, "you have no active queue to cancel")
		}
		if err := ac.Active.Cancel(ac.Now); err != nil {
			return err
		}
		ac.markQueueDirty()
		ac.emit(event.TypeQueueCancelled, ac.Now, queuePayload(*ac.Active, map[string]any{
			"completed": ac.Active.Completed,
		}))
		out = QueueResponse{
			Queue:   *ac.Active,
			Message: "Queue cancelled. You keep everything earned so far.",
		}
		return nil
	})
	if err != nil {
		return QueueResponse{}, err
	}
	return out, nil
}

// Dismiss hides a completed or cancelled queue owned by the player.
func (u UseCase) Dismiss(ctx context.Context, playerID string, queueID int64) (QueueResponse, error) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return QueueResponse{}, invalid("player_id", "is required")
	}
	if queueID <= 0 {
		return QueueResponse{}, invalid("queue_id", "must be a positive integer")
	}
	var out QueueResponse
	_, err := u.run(ctx, "dismiss", playerID, true, func(txCtx context.Context, ac *ActionContext) error {
		target := ac.Active
		standalone := target == nil || target.ID != queueID
		if standalone {
			q, err := u.QueueRepo.GetByID(txCtx, queueID)
			if errors.Is(err, ports.ErrNotFound) {
				return precondition(CodeNotFound, "queue %d not found", queueID)
			}
			if err != nil {
				return err
			}
			target = &q
		}
		if target.PlayerID != playerID || target.Status == queue.StatusDismissed {
			return precondition(CodeNotFound, "queue %d not found", queueID)
		}
		expected := target.Version
		if err := target.Dismiss(ac.Now); err != nil {
			if errors.Is(err, queue.ErrStillActive) {
				return precondition(CodeStillActive, "queue %d is still running", queueID)
			}
			return err
		}
		if standalone {
			target.Version = expected + 1
			if err := u.QueueRepo.SaveWithVersion(txCtx, *target, expected); err != nil {
				return err
			}
		} else {
			ac.markQueueDirty()
		}
		ac.emit(event.TypeQueueDismissed, ac.Now, queuePayload(*target, nil))
		out = QueueResponse{Queue: *target, Message: "Queue dismissed."}
		return nil
	})
	if err != nil {
		return QueueResponse{}, err
	}
	return out, nil
}

// Poll advances the active queue by every repetition now due and lists finished queues the
// player has not dismissed.
func (u UseCase) Poll(ctx context.Context, playerID string) (PollResponse, error) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return PollResponse{}, invalid("player_id", "is required")
	}
	var out PollResponse
	_, err := u.run(ctx, "poll", playerID, true, func(txCtx context.Context, ac *ActionContext) error {
		limit := u.FinishedLimit
		if limit <= 0 {
			limit = defaultFinishedLimit
		}
		finished, err := u.QueueRepo.ListFinishedByPlayerID(txCtx, playerID, limit)
		if err != nil && !errors.Is(err, ports.ErrNotFound) {
			return err
		}
		out = PollResponse{Resolved: ac.Resolved, Finished: finished}
		if out.Finished == nil {
			out.Finished = []queue.Queue{}
		}
		if ac.Active != nil {
			if ac.Active.IsActive() {
				active := ac.Active.Clone()
				out.Active = &active
			} else {
				out.Finished = prependUnique(out.Finished, ac.Active.Clone(), limit)
			}
		}
		return nil
	})
	if err != nil {
		return PollResponse{}, err
	}
	return out, nil
}

// AdvanceQueue resolves the due repetitions of one player's active queue and reports how
// many were resolved. A player without an active queue is not an error.
func (u UseCase) AdvanceQueue(ctx context.Context, playerID string) (int, error) {
	ac, err := u.run(ctx, "advance", playerID, true, func(context.Context, *ActionContext) error { return nil })
	if err != nil {
		return 0, err
	}
	return len(ac.Resolved), nil
}

// run serializes fn per player, loads the player's state and active queue, optionally
// advances the queue, and persists the context in one transaction. Expected errors still
// commit the lazy advance that preceded them.
func (u UseCase) run(ctx context.Context, op, playerID string, advanceFirst bool, fn func(txCtx context.Context, ac *ActionContext) error) (*ActionContext, error) {
	logger := u.logger().With("op", op, "player_id", playerID)
	unlock, err := u.lock(ctx, playerID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var ac *ActionContext
	var rejected error
	for attempt := 1; attempt <= maxConflictRetries; attempt++ {
		ac = &ActionContext{PlayerID: playerID, Now: u.now()}
		rejected = nil
		err = u.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
			if err := u.load(txCtx, ac); err != nil {
				return err
			}
			if advanceFirst {
				if err := u.advance(ac); err != nil {
					return err
				}
			}
			if err := fn(txCtx, ac); err != nil {
				if !IsExpected(err) {
					return err
				}
				rejected = err
			}
			return u.persist(txCtx, ac)
		})
		if !errors.Is(err, ports.ErrConflict) {
			break
		}
		logger.Warn("version conflict, retrying", "attempt", attempt)
	}

	if err == nil {
		err = rejected
	}
	u.record(logger, op, ac, err)
	if err != nil {
		return ac, err
	}
	return ac, nil
}

func (u UseCase) load(ctx context.Context, ac *ActionContext) error {
	state, err := u.StateRepo.GetByPlayerID(ctx, ac.PlayerID)
	if errors.Is(err, ports.ErrNotFound) {
		return precondition(CodeNotFound, "player %s not found", ac.PlayerID)
	}
	if err != nil {
		return err
	}
	ac.State = state.Clone()
	ac.stateVersion = state.Version

	active, err := u.QueueRepo.GetActiveByPlayerID(ctx, ac.PlayerID)
	if errors.Is(err, ports.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	ac.track(&active)
	return nil
}

func (u UseCase) persist(ctx context.Context, ac *ActionContext) error {
	if ac.stateDirty {
		if err := u.StateRepo.SaveWithVersion(ctx, ac.State, ac.stateVersion); err != nil {
			return err
		}
	}
	if err := u.flushQueue(ctx, ac); err != nil {
		return err
	}
	if len(ac.Events) > 0 && u.EventRepo != nil {
		if err := u.EventRepo.Append(ctx, ac.PlayerID, ac.Events); err != nil {
			return err
		}
	}
	return nil
}

// flushQueue writes the tracked queue if it changed, so another queue can be tracked next.
func (u UseCase) flushQueue(ctx context.Context, ac *ActionContext) error {
	if !ac.queueDirty || ac.Active == nil {
		return nil
	}
	if err := u.QueueRepo.SaveWithVersion(ctx, *ac.Active, ac.queueVersion); err != nil {
		return err
	}
	ac.queueVersion = ac.Active.Version
	ac.queueDirty = false
	return nil
}

func (u UseCase) record(logger *slog.Logger, op string, ac *ActionContext, err error) {
	switch {
	case err == nil:
		if ac != nil && len(ac.Resolved) > 0 {
			logger.Debug("repetitions resolved", "count", len(ac.Resolved))
		}
	case IsExpected(err):
		logger.Info("action rejected", "reason", err.Error())
	case errors.Is(err, ports.ErrConflict):
		logger.Warn("action conflict", "err", err)
	default:
		logger.Error("action failed", "err", err)
	}
	if u.Metrics == nil {
		return
	}
	var pre *PreconditionError
	var val *ValidationError
	switch {
	case err == nil:
		u.Metrics.RecordSuccess(op)
		if ac != nil && len(ac.Resolved) > 0 {
			u.Metrics.RecordRepetitions(len(ac.Resolved))
		}
	case errors.As(err, &pre):
		u.Metrics.RecordRejected(string(pre.Code))
	case errors.As(err, &val):
		u.Metrics.RecordRejected(val.Code)
	case errors.Is(err, ports.ErrConflict):
		u.Metrics.RecordConflict()
	default:
		u.Metrics.RecordFailure()
	}
}

// prepare maps resolver validation failures onto the action error taxonomy.
func (u UseCase) prepare(kind activity.Kind, params activity.Params, state player.State, loc player.Location) (activity.Resolver, error) {
	res, err := u.activities().Prepare(kind, params, state, loc)
	if err == nil {
		return res, nil
	}
	var paramErr *activity.ParamError
	var levelErr *activity.LevelError
	var locErr *activity.LocationError
	switch {
	case errors.As(err, &paramErr):
		return nil, &ValidationError{Field: "action_params." + paramErr.Field, Code: CodeInvalidParams, Message: paramErr.Reason}
	case errors.As(err, &levelErr):
		return nil, precondition(CodeLevelTooLow, "you need %s level %d (you are level %d)", levelErr.Skill, levelErr.Required, levelErr.Current)
	case errors.As(err, &locErr):
		return nil, precondition(CodeWrongLocation, "there is no %s to rob here", strings.ReplaceAll(locErr.Target, "_", " "))
	default:
		return nil, err
	}
}

func (u UseCase) lock(ctx context.Context, playerID string) (func(), error) {
	if u.Locker == nil {
		return func() {}, nil
	}
	return u.Locker.Lock(ctx, playerID)
}

func (u UseCase) activities() *activity.Registry {
	if u.Activities == nil {
		return defaultRegistry()
	}
	return u.Activities
}

func (u UseCase) roller() activity.Roller {
	if u.Roller == nil {
		return defaultRoller
	}
	return u.Roller
}

func (u UseCase) now() time.Time {
	if u.Now == nil {
		return time.Now()
	}
	return u.Now()
}

func (u UseCase) logger() *slog.Logger {
	if u.Logger == nil {
		return slog.Default()
	}
	return u.Logger
}

func startMessage(q queue.Queue) string {
	if q.Total == 0 {
		return "Nothing to do: the queue was empty."
	}
	return "You begin to " + string(q.ActionType) + "."
}

func prependUnique(list []queue.Queue, q queue.Queue, limit int) []queue.Queue {
	out := make([]queue.Queue, 0, len(list)+1)
	out = append(out, q)
	for _, item := range list {
		if item.ID != q.ID {
			out = append(out, item)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
