package event

import "time"

const (
	TypeQueueStarted       = "queue_started"
	TypeRepetitionResolved = "repetition_resolved"
	TypeSkillLevelUp       = "skill_level_up"
	TypeQueueCompleted     = "queue_completed"
	TypeQueueCancelled     = "queue_cancelled"
	TypeQueueDismissed     = "queue_dismissed"
	TypeAttemptResolved    = "attempt_resolved"
	TypePenaltyApplied     = "penalty_applied"
)

type DomainEvent struct {
	Type       string         `json:"type"`
	OccurredAt time.Time      `json:"occurred_at"`
	Payload    map[string]any `json:"payload"`
}

func New(eventType string, at time.Time, payload map[string]any) DomainEvent {
	if payload == nil {
		payload = map[string]any{}
	}
	return DomainEvent{Type: eventType, OccurredAt: at, Payload: payload}
}
