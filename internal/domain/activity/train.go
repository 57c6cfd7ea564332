package activity

import (
	"fmt"

	"fiefdom/internal/domain/player"
	"fiefdom/internal/domain/skills"
)

type trainResolver struct {
	exercises map[string]Exercise
}

func newTrainResolver(exercises []Exercise) trainResolver {
	out := trainResolver{exercises: map[string]Exercise{}}
	for _, e := range exercises {
		out.exercises[e.ID] = e
	}
	return out
}

func (trainResolver) Kind() Kind { return KindTrain }

func (t trainResolver) Skill(p Params) skills.Name {
	return t.exercises[p.String("exercise")].Skill
}

func (t trainResolver) Validate(p Params) error {
	id := p.String("exercise")
	if id == "" {
		return paramError("exercise", "is required")
	}
	if _, ok := t.exercises[id]; !ok {
		return paramError("exercise", fmt.Sprintf("unknown exercise %q", id))
	}
	return nil
}

func (t trainResolver) MinLevel(p Params) int {
	return t.exercises[p.String("exercise")].MinLevel
}

func (t trainResolver) Cost(p Params) player.Cost {
	return player.Cost{Energy: t.exercises[p.String("exercise")].Energy}
}

// Resolve never withholds all xp: a poor session still teaches half as much.
func (t trainResolver) Resolve(state player.State, p Params, _ player.Location, rnd Roller) Outcome {
	ex := t.exercises[p.String("exercise")]
	chance := Chance(state.Skills.Level(ex.Skill), ex.Difficulty, ex.BaseChance)
	if roll(rnd, chance) {
		xp := map[skills.Name]int64{ex.Skill: ex.XP}
		if skills.IsCombat(ex.Skill) && ex.Skill != skills.Hitpoints && ex.XP >= 3 {
			xp[skills.Hitpoints] = ex.XP / 3
		}
		return Outcome{
			Success: true,
			Rewards: player.Rewards{XP: xp},
			Message: fmt.Sprintf("You complete a round of %s.", humanize(ex.ID)),
		}
	}
	return Outcome{
		Failed:  true,
		Rewards: player.Rewards{XP: xpOnly(ex.Skill, ex.XP/2)},
		Message: fmt.Sprintf("You struggle through the %s.", humanize(ex.ID)),
	}
}
