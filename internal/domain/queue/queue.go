package queue

import (
	"errors"
	"math"
	"time"

	"fiefdom/internal/domain/activity"
	"fiefdom/internal/domain/player"
	"fiefdom/internal/domain/skills"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
	StatusDismissed Status = "dismissed"
)

type StopReason string

const (
	StopNone                  StopReason = ""
	StopTotalReached          StopReason = "total_reached"
	StopInsufficientResources StopReason = "insufficient_resources"
	StopCancelled             StopReason = "cancelled"
)

// MaxTotal is the largest repetition count a queue can be started with.
const MaxTotal = math.MaxInt32

var (
	ErrNotActive     = errors.New("queue is not active")
	ErrStillActive   = errors.New("queue is still active")
	ErrAlreadyClosed = errors.New("queue already dismissed")
	ErrExhausted     = errors.New("queue has no remaining repetitions")
)

// Result is the append-only record of one resolved repetition.
type Result struct {
	Index      int              `json:"index"`
	Success    bool             `json:"success"`
	Failed     bool             `json:"failed"`
	Caught     bool             `json:"caught"`
	Rewards    player.Rewards   `json:"rewards"`
	LevelUps   []skills.LevelUp `json:"level_ups,omitempty"`
	Penalty    *player.Penalty  `json:"penalty,omitempty"`
	Message    string           `json:"message"`
	ResolvedAt time.Time        `json:"resolved_at"`
}

type Queue struct {
	ID         int64           `json:"id"`
	PlayerID   string          `json:"player_id"`
	ActionType activity.Kind   `json:"action_type"`
	Params     activity.Params `json:"action_params"`
	Total      int             `json:"total"`
	Completed  int             `json:"completed"`
	StartedAt  time.Time       `json:"started_at"`
	NextDueAt  time.Time       `json:"next_due_at"`
	Status     Status          `json:"status"`
	StopReason StopReason      `json:"stop_reason,omitempty"`
	Results    []Result        `json:"results"`
	Version    int64           `json:"version"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// New builds an active queue whose first repetition falls due one duration after start.
func New(playerID string, kind activity.Kind, params activity.Params, total int, startedAt time.Time, d time.Duration) Queue {
	return Queue{
		PlayerID:   playerID,
		ActionType: kind,
		Params:     params.Clone(),
		Total:      total,
		StartedAt:  startedAt,
		NextDueAt:  startedAt.Add(d),
		Status:     StatusActive,
		Results:    []Result{},
		Version:    1,
		UpdatedAt:  startedAt,
	}
}

func (q Queue) Remaining() int {
	if q.Completed >= q.Total {
		return 0
	}
	return q.Total - q.Completed
}

func (q Queue) IsActive() bool { return q.Status == StatusActive }

// Finished reports whether the queue left the active slot but is still visible to the player.
func (q Queue) Finished() bool {
	return q.Status == StatusCompleted || q.Status == StatusCancelled
}

// DueRepetitions counts the repetitions that fell due at or before now. Each repetition k
// is due at StartedAt + k*d. A positive maxCatchUp bounds the count per call.
func (q Queue) DueRepetitions(now time.Time, d time.Duration, maxCatchUp int) int {
	if !q.IsActive() || d <= 0 || now.Before(q.NextDueAt) {
		return 0
	}
	due := int(now.Sub(q.NextDueAt)/d) + 1
	if rem := q.Remaining(); due > rem {
		due = rem
	}
	if maxCatchUp > 0 && due > maxCatchUp {
		due = maxCatchUp
	}
	return due
}

// Record appends the result of the next repetition and moves the due anchor forward by d.
// Reaching Total completes the queue.
func (q *Queue) Record(r Result, d time.Duration) error {
	if !q.IsActive() {
		return ErrNotActive
	}
	if q.Remaining() == 0 {
		return ErrExhausted
	}
	q.Completed++
	r.Index = q.Completed
	q.Results = append(q.Results, r)
	q.NextDueAt = q.NextDueAt.Add(d)
	q.UpdatedAt = r.ResolvedAt
	if q.Completed == q.Total {
		q.Status = StatusCompleted
		q.StopReason = StopTotalReached
	}
	return nil
}

// Finish closes an active queue early, keeping every result recorded so far.
func (q *Queue) Finish(reason StopReason, now time.Time) error {
	if !q.IsActive() {
		return ErrNotActive
	}
	q.Status = StatusCompleted
	q.StopReason = reason
	q.UpdatedAt = now
	return nil
}

func (q *Queue) Cancel(now time.Time) error {
	if !q.IsActive() {
		return ErrNotActive
	}
	q.Status = StatusCancelled
	q.StopReason = StopCancelled
	q.UpdatedAt = now
	return nil
}

func (q *Queue) Dismiss(now time.Time) error {
	switch q.Status {
	case StatusActive:
		return ErrStillActive
	case StatusDismissed:
		return ErrAlreadyClosed
	}
	q.Status = StatusDismissed
	q.UpdatedAt = now
	return nil
}

// Clone returns a copy that shares no slices or maps with q.
func (q Queue) Clone() Queue {
	out := q
	out.Params = q.Params.Clone()
	out.Results = make([]Result, len(q.Results))
	copy(out.Results, q.Results)
	return out
}
