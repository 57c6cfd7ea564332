package journal

import (
	"context"
	"errors"
	"testing"
	"time"

	"fiefdom/internal/app/ports"
	"fiefdom/internal/domain/event"
)

func TestUseCase_TalliesReturnedEvents(t *testing.T) {
	repo := fakeRepo{events: []event.DomainEvent{
		event.New(event.TypePenaltyApplied, time.Unix(40, 0), map[string]any{"kind": "caught"}),
		event.New(event.TypeAttemptResolved, time.Unix(40, 0), map[string]any{"outcome": "failure_with_penalty"}),
		event.New(event.TypeSkillLevelUp, time.Unix(30, 0), map[string]any{"skill": "attack"}),
		event.New(event.TypeRepetitionResolved, time.Unix(30, 0), map[string]any{"outcome": "success"}),
		event.New(event.TypeRepetitionResolved, time.Unix(20, 0), map[string]any{"outcome": "failure"}),
		event.New(event.TypeQueueStarted, time.Unix(10, 0), nil),
	}}

	uc := UseCase{Events: repo}
	out, err := uc.Execute(context.Background(), Request{PlayerID: "p-1", Limit: 10})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if len(out.Events) != 6 {
		t.Fatalf("expected 6 events, got %d", len(out.Events))
	}
	got := out.Tally
	if got.Repetitions != 2 || got.Attempts != 1 || got.Successes != 1 {
		t.Fatalf("unexpected tally: %+v", got)
	}
	if got.LevelUps != 1 || got.Penalties != 1 {
		t.Fatalf("unexpected tally: %+v", got)
	}
	if !got.LastActivity.Equal(time.Unix(40, 0)) {
		t.Fatalf("unexpected last activity: %s", got.LastActivity)
	}
}

func TestUseCase_FiltersByOccurredTimeWindowAndType(t *testing.T) {
	repo := fakeRepo{events: []event.DomainEvent{
		event.New(event.TypeRepetitionResolved, time.Unix(300, 0), nil),
		event.New(event.TypeSkillLevelUp, time.Unix(200, 0), nil),
		event.New(event.TypeRepetitionResolved, time.Unix(200, 0), nil),
		event.New(event.TypeRepetitionResolved, time.Unix(100, 0), nil),
	}}
	uc := UseCase{Events: repo}
	out, err := uc.Execute(context.Background(), Request{
		PlayerID:     "p-1",
		OccurredFrom: 150,
		OccurredTo:   250,
		Types:        []string{event.TypeRepetitionResolved},
	})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if len(out.Events) != 1 || !out.Events[0].OccurredAt.Equal(time.Unix(200, 0)) {
		t.Fatalf("unexpected filtered events: %+v", out.Events)
	}
}

func TestUseCase_EmptyJournalIsNotAnError(t *testing.T) {
	uc := UseCase{Events: fakeRepo{err: ports.ErrNotFound}}
	out, err := uc.Execute(context.Background(), Request{PlayerID: "p-1"})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if len(out.Events) != 0 || out.Tally.ByType == nil {
		t.Fatalf("expected empty journal, got %+v", out)
	}
}

func TestUseCase_ClampsLimit(t *testing.T) {
	repo := &recordingRepo{}
	uc := UseCase{Events: repo}
	if _, err := uc.Execute(context.Background(), Request{PlayerID: "p-1"}); err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if repo.limit != DefaultLimit {
		t.Fatalf("expected default limit %d, got %d", DefaultLimit, repo.limit)
	}
	if _, err := uc.Execute(context.Background(), Request{PlayerID: "p-1", Limit: 10_000}); err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if repo.limit != MaxLimit {
		t.Fatalf("expected max limit %d, got %d", MaxLimit, repo.limit)
	}
}

func TestUseCase_RejectsInvalidRequests(t *testing.T) {
	uc := UseCase{Events: fakeRepo{}}
	for _, req := range []Request{
		{},
		{PlayerID: "p-1", Limit: -1},
		{PlayerID: "p-1", OccurredFrom: 20, OccurredTo: 10},
	} {
		if _, err := uc.Execute(context.Background(), req); !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("expected ErrInvalidRequest for %+v, got %v", req, err)
		}
	}
}

type fakeRepo struct {
	events []event.DomainEvent
	err    error
}

func (r fakeRepo) Append(_ context.Context, _ string, _ []event.DomainEvent) error {
	return nil
}

func (r fakeRepo) ListByPlayerID(_ context.Context, _ string, _ int) ([]event.DomainEvent, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.events, nil
}

type recordingRepo struct {
	limit int
}

func (r *recordingRepo) Append(_ context.Context, _ string, _ []event.DomainEvent) error {
	return nil
}

func (r *recordingRepo) ListByPlayerID(_ context.Context, _ string, limit int) ([]event.DomainEvent, error) {
	r.limit = limit
	return []event.DomainEvent{}, nil
}

var _ ports.EventRepository = fakeRepo{}
