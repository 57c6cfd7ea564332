package activity

import (
	"fmt"

	"fiefdom/internal/domain/player"
	"fiefdom/internal/domain/skills"
)

type agilityResolver struct {
	obstacles map[string]Obstacle
}

func newAgilityResolver(obstacles []Obstacle) agilityResolver {
	out := agilityResolver{obstacles: map[string]Obstacle{}}
	for _, o := range obstacles {
		out.obstacles[o.ID] = o
	}
	return out
}

func (agilityResolver) Kind() Kind { return KindAgility }

func (agilityResolver) Skill(Params) skills.Name { return skills.Agility }

func (a agilityResolver) Validate(p Params) error {
	id := p.String("obstacle")
	if id == "" {
		return paramError("obstacle", "is required")
	}
	if _, ok := a.obstacles[id]; !ok {
		return paramError("obstacle", fmt.Sprintf("unknown obstacle %q", id))
	}
	return nil
}

func (a agilityResolver) MinLevel(p Params) int {
	return a.obstacles[p.String("obstacle")].MinLevel
}

func (a agilityResolver) Cost(p Params) player.Cost {
	return player.Cost{Energy: a.obstacles[p.String("obstacle")].Energy}
}

func (a agilityResolver) Resolve(state player.State, p Params, _ player.Location, rnd Roller) Outcome {
	ob := a.obstacles[p.String("obstacle")]
	chance := Chance(state.Skills.Level(skills.Agility), ob.Difficulty, ob.BaseChance)
	if roll(rnd, chance) {
		return Outcome{
			Success: true,
			Rewards: player.Rewards{XP: xpOnly(skills.Agility, ob.XP)},
			Message: fmt.Sprintf("You clear the %s.", humanize(ob.ID)),
		}
	}
	out := Outcome{
		Failed:  true,
		Rewards: player.Rewards{XP: xpOnly(skills.Agility, ob.XP/4)},
		Message: fmt.Sprintf("You slip on the %s.", humanize(ob.ID)),
	}
	if ob.InjuryEnergy > 0 {
		out.Penalty = &player.Penalty{Kind: player.PenaltyInjured, EnergyLoss: ob.InjuryEnergy}
		out.Message = fmt.Sprintf("You fall from the %s and hurt yourself.", humanize(ob.ID))
	}
	return out
}
