package skills

import (
	"math"
	"sort"
)

type Name string

const (
	Attack    Name = "attack"
	Strength  Name = "strength"
	Defence   Name = "defence"
	Hitpoints Name = "hitpoints"
	Ranged    Name = "ranged"
	Magic     Name = "magic"
	Cooking   Name = "cooking"
	Crafting  Name = "crafting"
	Smithing  Name = "smithing"
	Gathering Name = "gathering"
	Agility   Name = "agility"
	Thieving  Name = "thieving"
	Gambling  Name = "gambling"
)

const (
	MinLevel          = 1
	MaxLevel          = 99
	HitpointsBaseXP   = 1154
	HitpointsBaseLvl  = 10
	minimumCombatBase = 3
)

// xpTable[i] is the minimum xp required for level i+1.
var xpTable = buildXPTable()

func buildXPTable() []int64 {
	table := make([]int64, MaxLevel)
	points := 0.0
	for level := 1; level < MaxLevel; level++ {
		points += math.Floor(float64(level) + 300*math.Pow(2, float64(level)/7))
		table[level] = int64(math.Floor(points / 4))
	}
	return table
}

// LevelFromXP returns the level reached with xp experience. Negative xp counts as zero.
func LevelFromXP(xp int64) int {
	if xp <= 0 {
		return MinLevel
	}
	idx := sort.Search(len(xpTable), func(i int) bool { return xpTable[i] > xp })
	if idx > MaxLevel {
		return MaxLevel
	}
	return idx
}

// XPForLevel returns the minimum xp of level, clamped to [MinLevel, MaxLevel].
func XPForLevel(level int) int64 {
	if level < MinLevel {
		level = MinLevel
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	return xpTable[level-1]
}

type Progress struct {
	Level int   `json:"level"`
	XP    int64 `json:"xp"`
}

type LevelUp struct {
	Skill     Name `json:"skill"`
	OldLevel  int  `json:"old_level"`
	NewLevel  int  `json:"new_level"`
	LeveledUp bool `json:"leveled_up"`
}

type Set map[Name]Progress

// NewSet returns a fresh skill set where hitpoints starts at level 10.
func NewSet() Set {
	return Set{Hitpoints: {Level: HitpointsBaseLvl, XP: HitpointsBaseXP}}
}

func (s Set) Level(name Name) int {
	p, ok := s[name]
	if !ok {
		if name == Hitpoints {
			return HitpointsBaseLvl
		}
		return MinLevel
	}
	return LevelFromXP(p.XP)
}

func (s Set) XP(name Name) int64 {
	p, ok := s[name]
	if !ok && name == Hitpoints {
		return HitpointsBaseXP
	}
	return p.XP
}

// Credit adds amount xp to name. The set must be non-nil.
func (s Set) Credit(name Name, amount int64) LevelUp {
	current := s.XP(name)
	old := LevelFromXP(current)
	if amount > 0 {
		current += amount
	}
	next := LevelFromXP(current)
	s[name] = Progress{Level: next, XP: current}
	return LevelUp{Skill: name, OldLevel: old, NewLevel: next, LeveledUp: next > old}
}

// Normalize recomputes every cached level from its xp.
func (s Set) Normalize() Set {
	out := make(Set, len(s))
	for name, p := range s {
		if p.XP < 0 {
			p.XP = 0
		}
		out[name] = Progress{Level: LevelFromXP(p.XP), XP: p.XP}
	}
	return out
}

func (s Set) Clone() Set {
	out := make(Set, len(s))
	for name, p := range s {
		out[name] = p
	}
	return out
}

// CombatLevel derives the combat level from the combat skills only.
func CombatLevel(s Set) int {
	base := 0.25 * float64(s.Level(Defence)+s.Level(Hitpoints))
	melee := 0.325 * float64(s.Level(Attack)+s.Level(Strength))
	ranged := 0.325 * math.Floor(1.5*float64(s.Level(Ranged)))
	magic := 0.325 * math.Floor(1.5*float64(s.Level(Magic)))
	level := int(math.Floor(base + math.Max(melee, math.Max(ranged, magic))))
	if level < minimumCombatBase {
		return minimumCombatBase
	}
	return level
}

func IsCombat(name Name) bool {
	switch name {
	case Attack, Strength, Defence, Hitpoints, Ranged, Magic:
		return true
	default:
		return false
	}
}

func Known(name Name) bool {
	switch name {
	case Attack, Strength, Defence, Hitpoints, Ranged, Magic,
		Cooking, Crafting, Smithing, Gathering, Agility, Thieving, Gambling:
		return true
	default:
		return false
	}
}

// All lists every skill in display order, combat skills first.
func All() []Name {
	return []Name{Attack, Strength, Defence, Hitpoints, Ranged, Magic,
		Cooking, Crafting, Smithing, Gathering, Agility, Thieving, Gambling}
}
