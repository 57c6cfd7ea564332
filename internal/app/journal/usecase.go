package journal

import (
	"context"
	"errors"
	"strings"

	"fiefdom/internal/app/ports"
	"fiefdom/internal/domain/activity"
	"fiefdom/internal/domain/event"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

var ErrInvalidRequest = errors.New("invalid journal request")

type UseCase struct {
	Events ports.EventRepository
}

func (u UseCase) Execute(ctx context.Context, req Request) (Response, error) {
	if strings.TrimSpace(req.PlayerID) == "" || req.Limit < 0 {
		return Response{}, ErrInvalidRequest
	}
	if req.OccurredFrom > 0 && req.OccurredTo > 0 && req.OccurredFrom > req.OccurredTo {
		return Response{}, ErrInvalidRequest
	}
	limit := req.Limit
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	events, err := u.Events.ListByPlayerID(ctx, req.PlayerID, limit)
	if errors.Is(err, ports.ErrNotFound) {
		return Response{Events: []event.DomainEvent{}, Tally: tally(nil)}, nil
	}
	if err != nil {
		return Response{}, err
	}
	events = filterByTimeWindow(events, req.OccurredFrom, req.OccurredTo)
	events = filterByType(events, req.Types)
	return Response{Events: events, Tally: tally(events)}, nil
}

func filterByTimeWindow(events []event.DomainEvent, from, to int64) []event.DomainEvent {
	if from <= 0 && to <= 0 {
		return events
	}
	out := make([]event.DomainEvent, 0, len(events))
	for _, evt := range events {
		ts := evt.OccurredAt.Unix()
		if from > 0 && ts < from {
			continue
		}
		if to > 0 && ts > to {
			continue
		}
		out = append(out, evt)
	}
	return out
}

func filterByType(events []event.DomainEvent, types []string) []event.DomainEvent {
	if len(types) == 0 {
		return events
	}
	want := make(map[string]bool, len(types))
	for _, t := range types {
		if t = strings.TrimSpace(t); t != "" {
			want[t] = true
		}
	}
	if len(want) == 0 {
		return events
	}
	out := make([]event.DomainEvent, 0, len(events))
	for _, evt := range events {
		if want[evt.Type] {
			out = append(out, evt)
		}
	}
	return out
}

func tally(events []event.DomainEvent) Tally {
	t := Tally{ByType: map[string]int{}}
	for _, evt := range events {
		t.ByType[evt.Type]++
		if evt.OccurredAt.After(t.LastActivity) {
			t.LastActivity = evt.OccurredAt
		}
		switch evt.Type {
		case event.TypeRepetitionResolved, event.TypeAttemptResolved:
			if evt.Type == event.TypeAttemptResolved {
				t.Attempts++
			} else {
				t.Repetitions++
			}
			if outcome, _ := evt.Payload["outcome"].(string); outcome == string(activity.ClassSuccess) {
				t.Successes++
			}
		case event.TypeSkillLevelUp:
			t.LevelUps++
		case event.TypePenaltyApplied:
			t.Penalties++
		}
	}
	return t
}
