package action

import (
	"fiefdom/internal/domain/activity"
	"fiefdom/internal/domain/player"
	"fiefdom/internal/domain/queue"
	"fiefdom/internal/domain/skills"
)

type StartRequest struct {
	PlayerID   string
	ActionType string
	Params     activity.Params
	Total      int
}

type QueueResponse struct {
	Queue    queue.Queue    `json:"queue"`
	Resolved []queue.Result `json:"resolved,omitempty"`
	Message  string         `json:"message"`
}

type PollResponse struct {
	Active   *queue.Queue   `json:"active"`
	Resolved []queue.Result `json:"resolved,omitempty"`
	Finished []queue.Queue  `json:"finished"`
}

type AttemptRequest struct {
	PlayerID string
	Kind     string
	Target   string
	Location player.Location
	Params   activity.Params
}

type AttemptResponse struct {
	Success  bool             `json:"success"`
	Failed   bool             `json:"failed"`
	Caught   bool             `json:"caught"`
	Outcome  activity.Class   `json:"outcome"`
	Rewards  player.Rewards   `json:"rewards"`
	LevelUps []skills.LevelUp `json:"level_ups,omitempty"`
	Penalty  *player.Penalty  `json:"penalty,omitempty"`
	Message  string           `json:"message"`
	Energy   int              `json:"energy"`
}
