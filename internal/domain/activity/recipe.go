package activity

import (
	"fmt"

	"fiefdom/internal/domain/player"
	"fiefdom/internal/domain/skills"
)

// recipeResolver serves cook, craft and smelt: inputs are consumed either way and a failed
// roll yields partial xp plus an optional failure item.
type recipeResolver struct {
	kind     Kind
	skill    skills.Name
	verb     string
	failVerb string
	recipes  map[string]Recipe
}

func (r recipeResolver) Kind() Kind { return r.kind }

func (r recipeResolver) Skill(Params) skills.Name { return r.skill }

func (r recipeResolver) Validate(p Params) error {
	id := p.String("recipe")
	if id == "" {
		return paramError("recipe", "is required")
	}
	if _, ok := r.recipes[id]; !ok {
		return paramError("recipe", fmt.Sprintf("unknown %s recipe %q", r.kind, id))
	}
	return nil
}

func (r recipeResolver) MinLevel(p Params) int {
	return r.recipes[p.String("recipe")].MinLevel
}

func (r recipeResolver) Cost(p Params) player.Cost {
	rec := r.recipes[p.String("recipe")]
	return player.Cost{Energy: rec.Energy, Items: copyItems(rec.Inputs)}
}

func (r recipeResolver) Resolve(state player.State, p Params, _ player.Location, rnd Roller) Outcome {
	rec := r.recipes[p.String("recipe")]
	chance := Chance(state.Skills.Level(r.skill), rec.Difficulty, rec.BaseChance)
	if roll(rnd, chance) {
		return Outcome{
			Success: true,
			Rewards: player.Rewards{Items: copyItems(rec.Output), XP: xpOnly(r.skill, rec.XP)},
			Message: fmt.Sprintf("You %s the %s.", r.verb, humanize(rec.ID)),
		}
	}
	out := Outcome{
		Failed:  true,
		Rewards: player.Rewards{XP: xpOnly(r.skill, rec.XP/4)},
		Message: fmt.Sprintf("You %s the %s.", r.failVerb, humanize(rec.ID)),
	}
	if rec.FailureItem != "" {
		out.Rewards.Items = map[string]int{rec.FailureItem: 1}
	}
	return out
}
