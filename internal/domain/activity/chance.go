package activity

import "math"

const (
	MinChance       = 0.05
	MaxChance       = 0.95
	chancePerLevel  = 0.02
	defaultBaseRate = 0.5
)

// Chance scales base by the gap between skill level and difficulty, clamped so neither
// outcome is ever certain.
func Chance(level, difficulty int, base float64) float64 {
	if base <= 0 {
		base = defaultBaseRate
	}
	p := base + float64(level-difficulty)*chancePerLevel
	return math.Min(MaxChance, math.Max(MinChance, p))
}

// CatchChance raises the base catch rate by 5% per settlement tier above a village.
func CatchChance(base float64, locationTier int) float64 {
	if locationTier < 1 {
		locationTier = 1
	}
	p := base + float64(locationTier-1)*0.05
	return math.Min(MaxChance, math.Max(MinChance, p))
}
