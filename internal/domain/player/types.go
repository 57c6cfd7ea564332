package player

import (
	"time"

	"fiefdom/internal/domain/skills"
)

type LocationType string

const (
	LocationVillage LocationType = "village"
	LocationTown    LocationType = "town"
	LocationBarony  LocationType = "barony"
	LocationDuchy   LocationType = "duchy"
	LocationKingdom LocationType = "kingdom"
)

// Tier ranks location types from 1 (village) to 5 (kingdom); unknown types rank 0.
func (t LocationType) Tier() int {
	switch t {
	case LocationVillage:
		return 1
	case LocationTown:
		return 2
	case LocationBarony:
		return 3
	case LocationDuchy:
		return 4
	case LocationKingdom:
		return 5
	default:
		return 0
	}
}

func (t LocationType) Valid() bool {
	return t.Tier() > 0
}

type Location struct {
	Type LocationType `json:"type"`
	ID   int64        `json:"id"`
}

type State struct {
	PlayerID    string         `json:"player_id"`
	Energy      int            `json:"energy"`
	MaxEnergy   int            `json:"max_energy"`
	Gold        int64          `json:"gold"`
	Inventory   map[string]int `json:"inventory"`
	Skills      skills.Set     `json:"skills"`
	Location    Location       `json:"location"`
	LockedUntil time.Time      `json:"locked_until,omitempty"`
	Version     int64          `json:"version"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Clone returns a deep copy so ledger mutations never alias a stored aggregate.
func (s State) Clone() State {
	out := s
	out.Inventory = make(map[string]int, len(s.Inventory))
	for item, qty := range s.Inventory {
		out.Inventory[item] = qty
	}
	if s.Skills == nil {
		out.Skills = skills.NewSet()
	} else {
		out.Skills = s.Skills.Clone()
	}
	return out
}

func (s State) LockedAt(now time.Time) bool {
	return !s.LockedUntil.IsZero() && now.Before(s.LockedUntil)
}

func (s State) Item(name string) int {
	return s.Inventory[name]
}

const DefaultMaxEnergy = 100

// NewState seeds a player at full energy in a village.
func NewState(playerID string, location Location) State {
	return State{
		PlayerID:  playerID,
		Energy:    DefaultMaxEnergy,
		MaxEnergy: DefaultMaxEnergy,
		Inventory: map[string]int{},
		Skills:    skills.NewSet(),
		Location:  location,
		Version:   1,
	}
}
