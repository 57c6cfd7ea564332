package player

import (
	"encoding/json"
	"sort"
	"time"

	"fiefdom/internal/domain/skills"
)

type Cost struct {
	Energy int            `json:"energy"`
	Gold   int64          `json:"gold,omitempty"`
	Items  map[string]int `json:"items,omitempty"`
}

func (c Cost) IsZero() bool {
	if c.Energy > 0 || c.Gold > 0 {
		return false
	}
	for _, qty := range c.Items {
		if qty > 0 {
			return false
		}
	}
	return true
}

type Rewards struct {
	Items map[string]int        `json:"items,omitempty"`
	Gold  int64                 `json:"gold,omitempty"`
	XP    map[skills.Name]int64 `json:"xp,omitempty"`
}

type PenaltyKind string

const (
	PenaltyCaught  PenaltyKind = "caught"
	PenaltyInjured PenaltyKind = "injured"
)

// Penalty travels as JSON with its lockout in whole seconds.
type Penalty struct {
	Kind       PenaltyKind
	EnergyLoss int
	Lockout    time.Duration
}

type penaltyJSON struct {
	Kind           PenaltyKind `json:"kind"`
	EnergyLoss     int         `json:"energy_loss,omitempty"`
	LockoutSeconds int64       `json:"lockout_seconds,omitempty"`
}

func (p Penalty) MarshalJSON() ([]byte, error) {
	return json.Marshal(penaltyJSON{
		Kind:           p.Kind,
		EnergyLoss:     p.EnergyLoss,
		LockoutSeconds: int64(p.Lockout / time.Second),
	})
}

func (p *Penalty) UnmarshalJSON(data []byte) error {
	var raw penaltyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Penalty{
		Kind:       raw.Kind,
		EnergyLoss: raw.EnergyLoss,
		Lockout:    time.Duration(raw.LockoutSeconds) * time.Second,
	}
	return nil
}

// Shortfall lists every requirement of c the state cannot cover.
func (s State) Shortfall(c Cost) []string {
	missing := make([]string, 0)
	if c.Energy > 0 && s.Energy < c.Energy {
		missing = append(missing, "energy")
	}
	if c.Gold > 0 && s.Gold < c.Gold {
		missing = append(missing, "gold")
	}
	for item, qty := range c.Items {
		if qty > 0 && s.Inventory[item] < qty {
			missing = append(missing, item)
		}
	}
	sort.Strings(missing)
	return missing
}

func (s State) CanAfford(c Cost) bool {
	return len(s.Shortfall(c)) == 0
}

// TryDebit applies c only when every requirement holds; otherwise s is left untouched.
func (s *State) TryDebit(c Cost) bool {
	if !s.CanAfford(c) {
		return false
	}
	if c.Energy > 0 {
		s.Energy -= c.Energy
	}
	if c.Gold > 0 {
		s.Gold -= c.Gold
	}
	for item, qty := range c.Items {
		if qty <= 0 {
			continue
		}
		s.Inventory[item] -= qty
		if s.Inventory[item] == 0 {
			delete(s.Inventory, item)
		}
	}
	return true
}

// Credit adds item and gold rewards. XP is credited through the skill set.
func (s *State) Credit(r Rewards) {
	if s.Inventory == nil {
		s.Inventory = map[string]int{}
	}
	for item, qty := range r.Items {
		if qty > 0 && item != "" {
			s.Inventory[item] += qty
		}
	}
	if r.Gold > 0 {
		s.Gold += r.Gold
	}
}

func (s *State) ApplyPenalty(p *Penalty, now time.Time) {
	if p == nil {
		return
	}
	if p.EnergyLoss > 0 {
		s.Energy -= p.EnergyLoss
		if s.Energy < 0 {
			s.Energy = 0
		}
	}
	if p.Lockout > 0 {
		until := now.Add(p.Lockout)
		if until.After(s.LockedUntil) {
			s.LockedUntil = until
		}
	}
}
