package action

import (
	"time"

	"fiefdom/internal/domain/event"
	"fiefdom/internal/domain/player"
	"fiefdom/internal/domain/queue"
)

// ActionContext carries one player's working copies through a transaction. Versions are the
// ones loaded from storage and guard the final writes.
type ActionContext struct {
	PlayerID string
	Now      time.Time
	State    player.State
	Active   *queue.Queue
	Resolved []queue.Result
	Events   []event.DomainEvent

	stateVersion int64
	queueVersion int64
	stateDirty   bool
	queueDirty   bool
}

func (ac *ActionContext) track(q *queue.Queue) {
	ac.Active = q
	ac.queueVersion = q.Version
	ac.queueDirty = false
}

func (ac *ActionContext) markStateDirty() {
	if ac.stateDirty {
		return
	}
	ac.stateDirty = true
	ac.State.Version = ac.stateVersion + 1
	ac.State.UpdatedAt = ac.Now
}

func (ac *ActionContext) markQueueDirty() {
	if ac.queueDirty || ac.Active == nil {
		return
	}
	ac.queueDirty = true
	ac.Active.Version = ac.queueVersion + 1
}

func (ac *ActionContext) emit(eventType string, at time.Time, payload map[string]any) {
	evt := event.New(eventType, at, payload)
	evt.Payload["player_id"] = ac.PlayerID
	ac.Events = append(ac.Events, evt)
}

func queuePayload(q queue.Queue, extra map[string]any) map[string]any {
	payload := map[string]any{
		"queue_id":    q.ID,
		"action_type": string(q.ActionType),
		"status":      string(q.Status),
	}
	for k, v := range extra {
		payload[k] = v
	}
	return payload
}
