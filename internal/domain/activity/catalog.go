package activity

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"fiefdom/internal/domain/skills"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

var ErrInvalidCatalog = errors.New("invalid activity catalog")

type Recipe struct {
	ID          string         `yaml:"id"`
	MinLevel    int            `yaml:"min_level"`
	Difficulty  int            `yaml:"difficulty"`
	BaseChance  float64        `yaml:"base_chance"`
	Energy      int            `yaml:"energy"`
	Inputs      map[string]int `yaml:"inputs"`
	Output      map[string]int `yaml:"output"`
	XP          int64          `yaml:"xp"`
	FailureItem string         `yaml:"failure_item"`
}

type RewardTier struct {
	Rarity       string         `yaml:"rarity"`
	Weight       int            `yaml:"weight"`
	Items        map[string]int `yaml:"items"`
	XPMultiplier int64          `yaml:"xp_multiplier"`
}

type Node struct {
	ID         string       `yaml:"id"`
	MinLevel   int          `yaml:"min_level"`
	Difficulty int          `yaml:"difficulty"`
	BaseChance float64      `yaml:"base_chance"`
	Energy     int          `yaml:"energy"`
	XP         int64        `yaml:"xp"`
	Tiers      []RewardTier `yaml:"tiers"`
}

type Exercise struct {
	ID         string      `yaml:"id"`
	Skill      skills.Name `yaml:"skill"`
	MinLevel   int         `yaml:"min_level"`
	Difficulty int         `yaml:"difficulty"`
	BaseChance float64     `yaml:"base_chance"`
	Energy     int         `yaml:"energy"`
	XP         int64       `yaml:"xp"`
}

type Obstacle struct {
	ID           string  `yaml:"id"`
	MinLevel     int     `yaml:"min_level"`
	Difficulty   int     `yaml:"difficulty"`
	BaseChance   float64 `yaml:"base_chance"`
	Energy       int     `yaml:"energy"`
	XP           int64   `yaml:"xp"`
	InjuryEnergy int     `yaml:"injury_energy"`
}

type PenaltySpec struct {
	EnergyLoss int           `yaml:"energy_loss"`
	Lockout    time.Duration `yaml:"lockout"`
}

type Target struct {
	ID              string         `yaml:"id"`
	MinLocationTier int            `yaml:"min_location_tier"`
	MinLevel        int            `yaml:"min_level"`
	Difficulty      int            `yaml:"difficulty"`
	BaseChance      float64        `yaml:"base_chance"`
	Energy          int            `yaml:"energy"`
	XP              int64          `yaml:"xp"`
	GoldMin         int64          `yaml:"gold_min"`
	GoldMax         int64          `yaml:"gold_max"`
	Items           map[string]int `yaml:"items"`
	CatchChance     float64        `yaml:"catch_chance"`
	Penalty         PenaltySpec    `yaml:"penalty"`
}

type DiceGame struct {
	ID               string  `yaml:"id"`
	Difficulty       int     `yaml:"difficulty"`
	BaseChance       float64 `yaml:"base_chance"`
	PayoutMultiplier int64   `yaml:"payout_multiplier"`
	MinBet           int64   `yaml:"min_bet"`
	MaxBet           int64   `yaml:"max_bet"`
	Energy           int     `yaml:"energy"`
	XP               int64   `yaml:"xp"`
}

type Catalog struct {
	Durations map[Kind]time.Duration `yaml:"durations"`
	Recipes   map[Kind][]Recipe      `yaml:"recipes"`
	Nodes     []Node                 `yaml:"nodes"`
	Exercises []Exercise             `yaml:"exercises"`
	Obstacles []Obstacle             `yaml:"obstacles"`
	Targets   []Target               `yaml:"targets"`
	Dice      []DiceGame             `yaml:"dice"`
}

func DefaultCatalog() (Catalog, error) {
	return ParseCatalog(defaultCatalogYAML)
}

// LoadCatalog reads a catalog file; an empty path selects the embedded default.
func LoadCatalog(path string) (Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return ParseCatalog(raw)
}

func ParseCatalog(raw []byte) (Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(raw, &cat); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}
	if err := cat.validate(); err != nil {
		return Catalog{}, err
	}
	return cat, nil
}

func (c Catalog) validate() error {
	for _, kind := range QueueableKinds() {
		if c.Durations[kind] <= 0 {
			return fmt.Errorf("%w: duration for %s must be positive", ErrInvalidCatalog, kind)
		}
	}
	seen := map[string]bool{}
	check := func(scope, id string, chance float64) error {
		key := scope + "/" + id
		if id == "" {
			return fmt.Errorf("%w: %s entry without id", ErrInvalidCatalog, scope)
		}
		if seen[key] {
			return fmt.Errorf("%w: duplicate %s", ErrInvalidCatalog, key)
		}
		if chance < 0 || chance > 1 {
			return fmt.Errorf("%w: %s base_chance out of range", ErrInvalidCatalog, key)
		}
		seen[key] = true
		return nil
	}
	for kind, recipes := range c.Recipes {
		if kind != KindCook && kind != KindCraft && kind != KindSmelt {
			return fmt.Errorf("%w: recipes for unsupported kind %s", ErrInvalidCatalog, kind)
		}
		for _, r := range recipes {
			if err := check(string(kind), r.ID, r.BaseChance); err != nil {
				return err
			}
			if len(r.Output) == 0 {
				return fmt.Errorf("%w: recipe %s has no output", ErrInvalidCatalog, r.ID)
			}
		}
	}
	for _, n := range c.Nodes {
		if err := check("node", n.ID, n.BaseChance); err != nil {
			return err
		}
		total := 0
		for _, tier := range n.Tiers {
			total += tier.Weight
		}
		if total <= 0 {
			return fmt.Errorf("%w: node %s has no weighted tiers", ErrInvalidCatalog, n.ID)
		}
	}
	for _, e := range c.Exercises {
		if err := check("exercise", e.ID, e.BaseChance); err != nil {
			return err
		}
		if !skills.Known(e.Skill) {
			return fmt.Errorf("%w: exercise %s trains unknown skill %q", ErrInvalidCatalog, e.ID, e.Skill)
		}
	}
	for _, o := range c.Obstacles {
		if err := check("obstacle", o.ID, o.BaseChance); err != nil {
			return err
		}
	}
	for _, t := range c.Targets {
		if err := check("target", t.ID, t.BaseChance); err != nil {
			return err
		}
		if t.GoldMax < t.GoldMin {
			return fmt.Errorf("%w: target %s gold range inverted", ErrInvalidCatalog, t.ID)
		}
	}
	for _, d := range c.Dice {
		if err := check("dice", d.ID, d.BaseChance); err != nil {
			return err
		}
		if d.MinBet <= 0 || d.MaxBet < d.MinBet {
			return fmt.Errorf("%w: dice game %s bet limits invalid", ErrInvalidCatalog, d.ID)
		}
	}
	return nil
}
