package activity

import (
	"fmt"

	"fiefdom/internal/domain/player"
	"fiefdom/internal/domain/skills"
)

type gatherResolver struct {
	nodes map[string]Node
}

func newGatherResolver(nodes []Node) gatherResolver {
	out := gatherResolver{nodes: map[string]Node{}}
	for _, n := range nodes {
		out.nodes[n.ID] = n
	}
	return out
}

func (gatherResolver) Kind() Kind { return KindGather }

func (gatherResolver) Skill(Params) skills.Name { return skills.Gathering }

func (g gatherResolver) Validate(p Params) error {
	id := p.String("node")
	if id == "" {
		return paramError("node", "is required")
	}
	if _, ok := g.nodes[id]; !ok {
		return paramError("node", fmt.Sprintf("unknown node %q", id))
	}
	return nil
}

func (g gatherResolver) MinLevel(p Params) int {
	return g.nodes[p.String("node")].MinLevel
}

func (g gatherResolver) Cost(p Params) player.Cost {
	return player.Cost{Energy: g.nodes[p.String("node")].Energy}
}

// Resolve draws success first, then a second weighted draw picks the rarity tier.
func (g gatherResolver) Resolve(state player.State, p Params, _ player.Location, rnd Roller) Outcome {
	node := g.nodes[p.String("node")]
	chance := Chance(state.Skills.Level(skills.Gathering), node.Difficulty, node.BaseChance)
	if !roll(rnd, chance) {
		return Outcome{
			Failed:  true,
			Rewards: player.Rewards{XP: xpOnly(skills.Gathering, node.XP/4)},
			Message: fmt.Sprintf("You search the %s but find nothing.", humanize(node.ID)),
		}
	}
	tier := pickTier(node.Tiers, rnd.Float64())
	multiplier := tier.XPMultiplier
	if multiplier <= 0 {
		multiplier = 1
	}
	return Outcome{
		Success: true,
		Rewards: player.Rewards{Items: copyItems(tier.Items), XP: xpOnly(skills.Gathering, node.XP*multiplier)},
		Message: fmt.Sprintf("You gather %s (%s) from the %s.", describeItems(tier.Items), tier.Rarity, humanize(node.ID)),
	}
}

func pickTier(tiers []RewardTier, draw float64) RewardTier {
	total := 0
	for _, t := range tiers {
		if t.Weight > 0 {
			total += t.Weight
		}
	}
	if total == 0 {
		return RewardTier{}
	}
	point := draw * float64(total)
	acc := 0.0
	for _, t := range tiers {
		if t.Weight <= 0 {
			continue
		}
		acc += float64(t.Weight)
		if point < acc {
			return t
		}
	}
	return tiers[len(tiers)-1]
}
