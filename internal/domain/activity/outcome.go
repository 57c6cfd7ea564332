package activity

import "fiefdom/internal/domain/player"

type Class string

const (
	ClassSuccess            Class = "success"
	ClassFailureNoPenalty   Class = "failure"
	ClassFailureWithPenalty Class = "failure_with_penalty"
)

// Outcome is the result of one resolved repetition or attempt. An unsuccessful outcome
// is still a valid resolution, never an error.
type Outcome struct {
	Success bool            `json:"success"`
	Failed  bool            `json:"failed"`
	Caught  bool            `json:"caught"`
	Rewards player.Rewards  `json:"rewards"`
	Penalty *player.Penalty `json:"penalty,omitempty"`
	Message string          `json:"message"`
}

func (o Outcome) Class() Class {
	switch {
	case o.Success:
		return ClassSuccess
	case o.Penalty != nil:
		return ClassFailureWithPenalty
	default:
		return ClassFailureNoPenalty
	}
}
