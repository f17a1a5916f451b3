// Package config loads server configuration from environment variables and
// the optional game YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Env is the environment-driven server configuration.
type Env struct {
	Addr        string        `env:"REVOLT_ADDR" envDefault:":8080"`
	DBPath      string        `env:"REVOLT_DB_PATH" envDefault:"revolt.db"`
	EventDB     string        `env:"REVOLT_EVENT_DB" envDefault:"sqlite"` // sqlite | postgres
	PostgresDSN string        `env:"REVOLT_POSTGRES_DSN"`
	GameConfig  string        `env:"REVOLT_GAME_CONFIG"` // optional YAML, defaults apply when empty
	CatalogPath string        `env:"REVOLT_CATALOG"`     // optional YAML, built-in catalog when empty
	ArchiveDir  string        `env:"REVOLT_ARCHIVE_DIR" envDefault:"archives"`
	RoundLength time.Duration `env:"REVOLT_ROUND_LENGTH" envDefault:"24h"`
	RoundSweep  time.Duration `env:"REVOLT_ROUND_SWEEP" envDefault:"1m"`
	PollSweep   time.Duration `env:"REVOLT_POLL_SWEEP" envDefault:"1m"`
}

// ParseEnv loads the environment configuration.
func ParseEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return e, fmt.Errorf("parse env: %w", err)
	}
	if e.EventDB != "sqlite" && e.EventDB != "postgres" {
		return e, fmt.Errorf("unsupported REVOLT_EVENT_DB %q", e.EventDB)
	}
	if e.EventDB == "postgres" && e.PostgresDSN == "" {
		return e, fmt.Errorf("REVOLT_EVENT_DB=postgres requires REVOLT_POSTGRES_DSN")
	}
	return e, nil
}

// Game holds the tunable game rules. Durations are plain minutes so the YAML
// stays numeric.
type Game struct {
	Factions        []string `yaml:"factions"`
	BaselineScore   int      `yaml:"baseline_score"`
	DefaultEnergy   int      `yaml:"default_energy"`
	UpvoteEnergy    int      `yaml:"upvote_energy"`
	FeedCapacity    int      `yaml:"feed_capacity"`
	PollDurationMin int      `yaml:"poll_duration_min"`
}

// PollDuration converts the configured poll lifetime to a duration.
func (g Game) PollDuration() time.Duration {
	return time.Duration(g.PollDurationMin) * time.Minute
}

// DefaultGame returns the built-in rule set.
func DefaultGame() Game {
	return Game{
		Factions:        []string{"Red", "Blue", "Green"},
		BaselineScore:   0,
		DefaultEnergy:   100,
		UpvoteEnergy:    10,
		FeedCapacity:    20,
		PollDurationMin: 24 * 60,
	}
}

// LoadGame reads the game rules from a YAML file. Missing fields fall back
// to the defaults; an empty path returns the defaults untouched.
func LoadGame(path string) (Game, error) {
	g := DefaultGame()
	if path == "" {
		return g, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return g, err
	}
	if err := yaml.Unmarshal(raw, &g); err != nil {
		return g, fmt.Errorf("game config %s: %w", path, err)
	}
	if len(g.Factions) < 2 {
		return g, fmt.Errorf("game config %s: at least two factions required", path)
	}
	if g.FeedCapacity <= 0 {
		g.FeedCapacity = DefaultGame().FeedCapacity
	}
	if g.PollDurationMin <= 0 {
		g.PollDurationMin = DefaultGame().PollDurationMin
	}
	return g, nil
}
