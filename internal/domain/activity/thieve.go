package activity

import (
	"fmt"

	"fiefdom/internal/domain/player"
	"fiefdom/internal/domain/skills"
)

type thieveResolver struct {
	targets map[string]Target
}

func newThieveResolver(targets []Target) thieveResolver {
	out := thieveResolver{targets: map[string]Target{}}
	for _, t := range targets {
		out.targets[t.ID] = t
	}
	return out
}

func (thieveResolver) Kind() Kind { return KindThieve }

func (thieveResolver) Skill(Params) skills.Name { return skills.Thieving }

func (t thieveResolver) Validate(p Params) error {
	id := p.String("target")
	if id == "" {
		return paramError("target", "is required")
	}
	if _, ok := t.targets[id]; !ok {
		return paramError("target", fmt.Sprintf("unknown target %q", id))
	}
	return nil
}

func (t thieveResolver) CheckLocation(p Params, loc player.Location) error {
	target := t.targets[p.String("target")]
	if loc.Type.Tier() < target.MinLocationTier {
		return &LocationError{Target: target.ID, RequiredTier: target.MinLocationTier}
	}
	return nil
}

func (t thieveResolver) MinLevel(p Params) int {
	return t.targets[p.String("target")].MinLevel
}

func (t thieveResolver) Cost(p Params) player.Cost {
	return player.Cost{Energy: t.targets[p.String("target")].Energy}
}

// Resolve draws success, then either the loot roll or the catch roll. Being caught is the
// only thieving failure that carries a penalty.
func (t thieveResolver) Resolve(state player.State, p Params, loc player.Location, rnd Roller) Outcome {
	target := t.targets[p.String("target")]
	chance := Chance(state.Skills.Level(skills.Thieving), target.Difficulty, target.BaseChance)
	if roll(rnd, chance) {
		span := target.GoldMax - target.GoldMin + 1
		gold := target.GoldMin + int64(rnd.Float64()*float64(span))
		if gold > target.GoldMax {
			gold = target.GoldMax
		}
		return Outcome{
			Success: true,
			Rewards: player.Rewards{Items: copyItems(target.Items), Gold: gold, XP: xpOnly(skills.Thieving, target.XP)},
			Message: fmt.Sprintf("You pick the %s's pocket for %d gold.", humanize(target.ID), gold),
		}
	}
	if roll(rnd, CatchChance(target.CatchChance, loc.Type.Tier())) {
		return Outcome{
			Failed: true,
			Caught: true,
			Penalty: &player.Penalty{
				Kind:       player.PenaltyCaught,
				EnergyLoss: target.Penalty.EnergyLoss,
				Lockout:    target.Penalty.Lockout,
			},
			Message: fmt.Sprintf("The %s catches you in the act!", humanize(target.ID)),
		}
	}
	return Outcome{
		Failed:  true,
		Message: fmt.Sprintf("You fumble and slip away from the %s unnoticed.", humanize(target.ID)),
	}
}
