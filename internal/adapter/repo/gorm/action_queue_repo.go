package gormrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"fiefdom/internal/adapter/repo/gorm/model"
	"fiefdom/internal/app/ports"
	"fiefdom/internal/domain/activity"
	"fiefdom/internal/domain/queue"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ActionQueueRepo struct {
	db *gorm.DB
}

func NewActionQueueRepo(db *gorm.DB) ActionQueueRepo {
	return ActionQueueRepo{db: db}
}

func (r ActionQueueRepo) GetActiveByPlayerID(ctx context.Context, playerID string) (queue.Queue, error) {
	var m model.ActionQueue
	err := forUpdate(ctx, r.db).
		Where("player_id = ? AND status = ?", playerID, string(queue.StatusActive)).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return queue.Queue{}, ports.ErrNotFound
		}
		return queue.Queue{}, fmt.Errorf("load active queue: %w", err)
	}
	return toQueue(m)
}

func (r ActionQueueRepo) GetByID(ctx context.Context, queueID int64) (queue.Queue, error) {
	var m model.ActionQueue
	if err := forUpdate(ctx, r.db).Where("id = ?", queueID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return queue.Queue{}, ports.ErrNotFound
		}
		return queue.Queue{}, fmt.Errorf("load queue %d: %w", queueID, err)
	}
	return toQueue(m)
}

// Create inserts q and returns it with its assigned id. A second active queue for the
// same player trips the partial unique index and surfaces as ports.ErrConflict.
func (r ActionQueueRepo) Create(ctx context.Context, q queue.Queue) (queue.Queue, error) {
	m, err := fromQueue(q)
	if err != nil {
		return queue.Queue{}, err
	}
	m.ID = 0
	if err := getDBFromCtx(ctx, r.db).Create(&m).Error; err != nil {
		if isUniqueViolation(err) {
			return queue.Queue{}, ports.ErrConflict
		}
		return queue.Queue{}, fmt.Errorf("insert queue: %w", err)
	}
	out := q.Clone()
	out.ID = m.ID
	return out, nil
}

func (r ActionQueueRepo) SaveWithVersion(ctx context.Context, q queue.Queue, expectedVersion int64) error {
	m, err := fromQueue(q)
	if err != nil {
		return err
	}
	updates := map[string]any{
		"completed":   m.Completed,
		"next_due_at": m.NextDueAt,
		"status":      m.Status,
		"stop_reason": m.StopReason,
		"results":     m.Results,
		"version":     m.Version,
		"updated_at":  m.UpdatedAt,
	}
	res := getDBFromCtx(ctx, r.db).Model(&model.ActionQueue{}).
		Where("id = ? AND version = ?", q.ID, expectedVersion).
		Updates(updates)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return ports.ErrConflict
		}
		return fmt.Errorf("update queue %d: %w", q.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ports.ErrConflict
	}
	return nil
}

func (r ActionQueueRepo) ListFinishedByPlayerID(ctx context.Context, playerID string, limit int) ([]queue.Queue, error) {
	rows := []model.ActionQueue{}
	query := getDBFromCtx(ctx, r.db).
		Where("player_id = ? AND status IN ?", playerID, []string{string(queue.StatusCompleted), string(queue.StatusCancelled)}).
		Clauses(clause.OrderBy{Columns: []clause.OrderByColumn{
			{Column: clause.Column{Name: "updated_at"}, Desc: true},
			{Column: clause.Column{Name: "id"}, Desc: true},
		}})
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list finished queues: %w", err)
	}
	return toQueues(rows)
}

func (r ActionQueueRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]queue.Queue, error) {
	rows := []model.ActionQueue{}
	query := getDBFromCtx(ctx, r.db).
		Where("status = ? AND next_due_at <= ?", string(queue.StatusActive), now).
		Clauses(clause.OrderBy{Columns: []clause.OrderByColumn{{Column: clause.Column{Name: "next_due_at"}}}})
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list due queues: %w", err)
	}
	return toQueues(rows)
}

func toQueues(rows []model.ActionQueue) ([]queue.Queue, error) {
	out := make([]queue.Queue, 0, len(rows))
	for _, row := range rows {
		q, err := toQueue(row)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

func toQueue(m model.ActionQueue) (queue.Queue, error) {
	q := queue.Queue{
		ID:         m.ID,
		PlayerID:   m.PlayerID,
		ActionType: activity.Kind(m.ActionType),
		Params:     activity.Params{},
		Total:      int(m.Total),
		Completed:  int(m.Completed),
		StartedAt:  m.StartedAt.UTC(),
		NextDueAt:  m.NextDueAt.UTC(),
		Status:     queue.Status(m.Status),
		StopReason: queue.StopReason(m.StopReason),
		Results:    []queue.Result{},
		Version:    m.Version,
		UpdatedAt:  m.UpdatedAt.UTC(),
	}
	if len(m.ActionParams) > 0 {
		if err := json.Unmarshal(m.ActionParams, &q.Params); err != nil {
			return queue.Queue{}, fmt.Errorf("decode params of queue %d: %w", m.ID, err)
		}
	}
	if len(m.Results) > 0 {
		if err := json.Unmarshal(m.Results, &q.Results); err != nil {
			return queue.Queue{}, fmt.Errorf("decode results of queue %d: %w", m.ID, err)
		}
	}
	return q, nil
}

func fromQueue(q queue.Queue) (model.ActionQueue, error) {
	if q.Total < 0 || q.Total > math.MaxInt32 || q.Completed < 0 || q.Completed > q.Total {
		return model.ActionQueue{}, fmt.Errorf("queue %d: progress %d/%d out of range", q.ID, q.Completed, q.Total)
	}
	params := q.Params
	if params == nil {
		params = activity.Params{}
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return model.ActionQueue{}, fmt.Errorf("encode params: %w", err)
	}
	results := q.Results
	if results == nil {
		results = []queue.Result{}
	}
	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return model.ActionQueue{}, fmt.Errorf("encode results: %w", err)
	}
	return model.ActionQueue{
		ID:           q.ID,
		PlayerID:     q.PlayerID,
		ActionType:   string(q.ActionType),
		ActionParams: paramsJSON,
		Total:        int32(q.Total),
		Completed:    int32(q.Completed),
		StartedAt:    q.StartedAt,
		NextDueAt:    q.NextDueAt,
		Status:       string(q.Status),
		StopReason:   string(q.StopReason),
		Results:      resultsJSON,
		Version:      q.Version,
		UpdatedAt:    q.UpdatedAt,
	}, nil
}
