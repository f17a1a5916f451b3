// Package catalog holds the immutable quest, achievement and rank definitions.
// Catalogs are loaded once at startup and are read-only at runtime; no
// process-wide mutable singleton exists.
package catalog

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Reward describes what a completed quest or achievement grants.
type Reward struct {
	Energy int    `yaml:"energy" json:"energy"`
	Label  string `yaml:"label" json:"label"`
}

// Quest is a repeatable-check, complete-once objective keyed by a trigger string.
type Quest struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Trigger     string `yaml:"trigger" json:"trigger"`
	Reward      Reward `yaml:"reward" json:"reward"`
}

// Achievement mirrors Quest but lives in its own catalog and completion set.
type Achievement struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Trigger     string `yaml:"trigger" json:"trigger"`
	Reward      Reward `yaml:"reward" json:"reward"`
}

// Rank maps a karma threshold to a rank name. Ranks are kept sorted ascending
// by MinKarma.
type Rank struct {
	Name     string `yaml:"name" json:"name"`
	MinKarma int    `yaml:"min_karma" json:"min_karma"`
}

// Catalog is the full immutable rule set evaluated by the trigger engine.
type Catalog struct {
	Quests       []Quest       `yaml:"quests"`
	Achievements []Achievement `yaml:"achievements"`
	Ranks        []Rank        `yaml:"ranks"`
}

// Load reads a catalog from a YAML file and validates it.
func Load(path string) (Catalog, error) {
	var c Catalog
	raw, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("catalog %s: %w", path, err)
	}
	if err := c.validate(); err != nil {
		return c, fmt.Errorf("catalog %s: %w", path, err)
	}
	sort.Slice(c.Ranks, func(i, j int) bool { return c.Ranks[i].MinKarma < c.Ranks[j].MinKarma })
	return c, nil
}

func (c Catalog) validate() error {
	seen := make(map[string]bool)
	for _, q := range c.Quests {
		if q.ID == "" || q.Trigger == "" {
			return fmt.Errorf("quest %q: id and trigger are required", q.ID)
		}
		if seen["q:"+q.ID] {
			return fmt.Errorf("duplicate quest id %q", q.ID)
		}
		seen["q:"+q.ID] = true
	}
	for _, a := range c.Achievements {
		if a.ID == "" || a.Trigger == "" {
			return fmt.Errorf("achievement %q: id and trigger are required", a.ID)
		}
		if seen["a:"+a.ID] {
			return fmt.Errorf("duplicate achievement id %q", a.ID)
		}
		seen["a:"+a.ID] = true
	}
	if len(c.Ranks) == 0 {
		return fmt.Errorf("at least one rank is required")
	}
	for _, r := range c.Ranks {
		if r.Name == "" {
			return fmt.Errorf("rank with empty name")
		}
	}
	return nil
}

// Default returns the built-in catalog used when no file is configured.
func Default() Catalog {
	return Catalog{
		Quests: []Quest{
			{
				ID:          "firstRaid",
				Name:        "First Strike",
				Description: "Successfully complete your first raid.",
				Trigger:     "action:raid",
				Reward:      Reward{Energy: 100, Label: "100 Energy"},
			},
			{
				ID:          "communityVoice",
				Name:        "Community Voice",
				Description: "Vote in a poll.",
				Trigger:     "poll:vote",
				Reward:      Reward{Energy: 50, Label: "50 Energy"},
			},
			{
				ID:          "rankUp",
				Name:        "Climbing the Ranks",
				Description: "Achieve the rank of Rebel.",
				Trigger:     "rank:Rebel",
				Reward:      Reward{Energy: 200, Label: "200 Energy"},
			},
		},
		Achievements: []Achievement{
			{
				ID:          "firstFactionJoin",
				Name:        "First Step",
				Description: "Join a faction for the first time.",
				Trigger:     "player:joinFaction",
				Reward:      Reward{Energy: 100, Label: "100 Energy"},
			},
			{
				ID:          "firstRaid",
				Name:        "First Strike",
				Description: "Successfully complete your first raid.",
				Trigger:     "action:raid",
				Reward:      Reward{Energy: 50, Label: "50 Energy"},
			},
			{
				ID:          "masterDefender",
				Name:        "Master Defender",
				Description: "Successfully defend your faction 10 times.",
				Trigger:     "action:defend:10",
				Reward:      Reward{Energy: 200, Label: "200 Energy"},
			},
		},
		Ranks: []Rank{
			{Name: "Recruit", MinKarma: 0},
			{Name: "Rebel", MinKarma: 500},
			{Name: "Warlord", MinKarma: 1000},
		},
	}
}
