package activity

import (
	"fmt"

	"fiefdom/internal/domain/player"
	"fiefdom/internal/domain/skills"
)

type diceResolver struct {
	games map[string]DiceGame
}

func newDiceResolver(games []DiceGame) diceResolver {
	out := diceResolver{games: map[string]DiceGame{}}
	for _, g := range games {
		out.games[g.ID] = g
	}
	return out
}

func (diceResolver) Kind() Kind { return KindDice }

func (diceResolver) Skill(Params) skills.Name { return skills.Gambling }

func (diceResolver) MinLevel(Params) int { return skills.MinLevel }

func (d diceResolver) Validate(p Params) error {
	id := p.String("game")
	if id == "" {
		return paramError("game", "is required")
	}
	game, ok := d.games[id]
	if !ok {
		return paramError("game", fmt.Sprintf("unknown dice game %q", id))
	}
	bet, ok := p.Int("bet")
	if !ok {
		return paramError("bet", "must be an integer")
	}
	if bet < game.MinBet || bet > game.MaxBet {
		return paramError("bet", fmt.Sprintf("must be between %d and %d", game.MinBet, game.MaxBet))
	}
	return nil
}

// Cost stakes the bet up front; a win pays out the multiplied stake.
func (d diceResolver) Cost(p Params) player.Cost {
	bet, _ := p.Int("bet")
	return player.Cost{Energy: d.games[p.String("game")].Energy, Gold: bet}
}

func (d diceResolver) Resolve(state player.State, p Params, _ player.Location, rnd Roller) Outcome {
	game := d.games[p.String("game")]
	bet, _ := p.Int("bet")
	chance := Chance(state.Skills.Level(skills.Gambling), game.Difficulty, game.BaseChance)
	if roll(rnd, chance) {
		payout := bet * game.PayoutMultiplier
		return Outcome{
			Success: true,
			Rewards: player.Rewards{Gold: payout, XP: xpOnly(skills.Gambling, game.XP)},
			Message: fmt.Sprintf("The dice favour you: %d gold.", payout),
		}
	}
	return Outcome{
		Failed:  true,
		Rewards: player.Rewards{XP: xpOnly(skills.Gambling, game.XP/5)},
		Message: fmt.Sprintf("You lose your stake of %d gold.", bet),
	}
}
