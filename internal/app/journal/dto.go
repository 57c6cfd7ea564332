package journal

import (
	"time"

	"fiefdom/internal/domain/event"
)

type Request struct {
	PlayerID     string
	Limit        int
	OccurredFrom int64
	OccurredTo   int64
	Types        []string
}

// Tally summarizes the returned window of events.
type Tally struct {
	Repetitions  int            `json:"repetitions"`
	Attempts     int            `json:"attempts"`
	Successes    int            `json:"successes"`
	LevelUps     int            `json:"level_ups"`
	Penalties    int            `json:"penalties"`
	ByType       map[string]int `json:"by_type"`
	LastActivity time.Time      `json:"last_activity,omitempty"`
}

type Response struct {
	Events []event.DomainEvent `json:"events"`
	Tally  Tally               `json:"tally"`
}
