package gormrepo

import (
	"context"
	"encoding/json"
	"fmt"

	"fiefdom/internal/adapter/repo/gorm/model"
	"fiefdom/internal/app/ports"
	"fiefdom/internal/domain/event"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EventRepo struct {
	db *gorm.DB
}

func NewEventRepo(db *gorm.DB) EventRepo {
	return EventRepo{db: db}
}

func (r EventRepo) Append(ctx context.Context, playerID string, events []event.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([]model.DomainEvent, 0, len(events))
	for _, e := range events {
		payload := e.Payload
		if payload == nil {
			payload = map[string]any{}
		}
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s payload: %w", e.Type, err)
		}
		rows = append(rows, model.DomainEvent{
			PlayerID:   playerID,
			Type:       e.Type,
			OccurredAt: e.OccurredAt,
			Payload:    b,
		})
	}
	if err := getDBFromCtx(ctx, r.db).Create(&rows).Error; err != nil {
		return fmt.Errorf("append events: %w", err)
	}
	return nil
}

// ListByPlayerID returns the newest events first.
func (r EventRepo) ListByPlayerID(ctx context.Context, playerID string, limit int) ([]event.DomainEvent, error) {
	rows := []model.DomainEvent{}
	query := getDBFromCtx(ctx, r.db).
		Where(&model.DomainEvent{PlayerID: playerID}).
		Clauses(clause.OrderBy{Columns: []clause.OrderByColumn{
			{Column: clause.Column{Name: "occurred_at"}, Desc: true},
			{Column: clause.Column{Name: "id"}, Desc: true},
		}})
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if len(rows) == 0 {
		return nil, ports.ErrNotFound
	}

	out := make([]event.DomainEvent, 0, len(rows))
	for _, row := range rows {
		var payload map[string]any
		if len(row.Payload) > 0 {
			_ = json.Unmarshal(row.Payload, &payload)
		}
		out = append(out, event.New(row.Type, row.OccurredAt.UTC(), payload))
	}
	return out, nil
}
