package activity

import (
	"fmt"
	"time"

	"fiefdom/internal/domain/player"
	"fiefdom/internal/domain/skills"
)

// Resolver maps player state plus params to an outcome. Implementations never mutate state;
// the caller applies Cost, Rewards and Penalty through the ledgers.
type Resolver interface {
	Kind() Kind
	Validate(p Params) error
	Skill(p Params) skills.Name
	MinLevel(p Params) int
	Cost(p Params) player.Cost
	Resolve(state player.State, p Params, loc player.Location, roll Roller) Outcome
}

// LocationGate is implemented by resolvers whose entries are only available at some locations.
type LocationGate interface {
	CheckLocation(p Params, loc player.Location) error
}

type Registry struct {
	resolvers map[Kind]Resolver
	durations map[Kind]time.Duration
}

func NewRegistry(cat Catalog) *Registry {
	recipes := func(kind Kind) map[string]Recipe {
		out := map[string]Recipe{}
		for _, r := range cat.Recipes[kind] {
			out[r.ID] = r
		}
		return out
	}
	r := &Registry{
		resolvers: map[Kind]Resolver{},
		durations: map[Kind]time.Duration{},
	}
	r.register(recipeResolver{kind: KindCook, skill: skills.Cooking, verb: "cook", failVerb: "burn", recipes: recipes(KindCook)})
	r.register(recipeResolver{kind: KindCraft, skill: skills.Crafting, verb: "craft", failVerb: "botch", recipes: recipes(KindCraft)})
	r.register(recipeResolver{kind: KindSmelt, skill: skills.Smithing, verb: "smelt", failVerb: "spoil", recipes: recipes(KindSmelt)})
	r.register(newGatherResolver(cat.Nodes))
	r.register(newTrainResolver(cat.Exercises))
	r.register(newAgilityResolver(cat.Obstacles))
	r.register(newThieveResolver(cat.Targets))
	r.register(newDiceResolver(cat.Dice))
	for kind, d := range cat.Durations {
		r.durations[kind] = d
	}
	return r
}

// MustDefaultRegistry builds a registry from the embedded catalog.
func MustDefaultRegistry() *Registry {
	cat, err := DefaultCatalog()
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return NewRegistry(cat)
}

func (r *Registry) register(res Resolver) {
	r.resolvers[res.Kind()] = res
}

func (r *Registry) Resolver(kind Kind) (Resolver, bool) {
	res, ok := r.resolvers[kind]
	return res, ok
}

func (r *Registry) Duration(kind Kind) (time.Duration, bool) {
	d, ok := r.durations[kind]
	if !ok || d <= 0 {
		return 0, false
	}
	return d, true
}

// Prepare validates params for kind and checks level and location requirements
// against the current state.
func (r *Registry) Prepare(kind Kind, p Params, state player.State, loc player.Location) (Resolver, error) {
	res, ok := r.resolvers[kind]
	if !ok {
		return nil, paramError("action_type", fmt.Sprintf("unknown action type %q", kind))
	}
	if err := res.Validate(p); err != nil {
		return nil, err
	}
	if gate, ok := res.(LocationGate); ok {
		if err := gate.CheckLocation(p, loc); err != nil {
			return nil, err
		}
	}
	if need := res.MinLevel(p); state.Skills.Level(res.Skill(p)) < need {
		return nil, &LevelError{Skill: res.Skill(p), Required: need, Current: state.Skills.Level(res.Skill(p))}
	}
	return res, nil
}

type LevelError struct {
	Skill    skills.Name
	Required int
	Current  int
}

func (e *LevelError) Error() string {
	return fmt.Sprintf("%s level %d required (have %d)", e.Skill, e.Required, e.Current)
}

type LocationError struct {
	Target       string
	RequiredTier int
}

func (e *LocationError) Error() string {
	return fmt.Sprintf("%s is not found in settlements below tier %d", e.Target, e.RequiredTier)
}

func roll(r Roller, chance float64) bool {
	return r.Float64() < chance
}

func xpOnly(skill skills.Name, amount int64) map[skills.Name]int64 {
	if amount <= 0 {
		return nil
	}
	return map[skills.Name]int64{skill: amount}
}

func copyItems(in map[string]int) map[string]int {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
