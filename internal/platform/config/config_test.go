package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseEnvDefaults(t *testing.T) {
	e, err := ParseEnv()
	if err != nil {
		t.Fatalf("ParseEnv failed: %v", err)
	}
	if e.Addr != ":8080" || e.EventDB != "sqlite" || e.RoundLength != 24*time.Hour {
		t.Errorf("Unexpected defaults: %+v", e)
	}
}

func TestParseEnvRejectsPostgresWithoutDSN(t *testing.T) {
	t.Setenv("REVOLT_EVENT_DB", "postgres")
	if _, err := ParseEnv(); err == nil {
		t.Error("Expected an error when REVOLT_POSTGRES_DSN is missing")
	}

	t.Setenv("REVOLT_POSTGRES_DSN", "postgres://localhost/revolt")
	if _, err := ParseEnv(); err != nil {
		t.Errorf("Expected postgres config to parse with a DSN, got %v", err)
	}
}

func TestParseEnvRejectsUnknownEventDB(t *testing.T) {
	t.Setenv("REVOLT_EVENT_DB", "cassandra")
	if _, err := ParseEnv(); err == nil {
		t.Error("Expected an error for an unsupported event database")
	}
}

func TestLoadGameOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.yaml")
	content := `
factions: [Crimson, Azure]
default_energy: 50
poll_duration_min: 60
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	g, err := LoadGame(path)
	if err != nil {
		t.Fatalf("LoadGame failed: %v", err)
	}
	if len(g.Factions) != 2 || g.Factions[0] != "Crimson" {
		t.Errorf("Expected configured factions, got %v", g.Factions)
	}
	if g.DefaultEnergy != 50 || g.PollDuration() != time.Hour {
		t.Errorf("Expected overrides applied, got %+v", g)
	}
	// Unset fields keep their defaults.
	if g.UpvoteEnergy != 10 || g.FeedCapacity != 20 {
		t.Errorf("Expected defaults for unset fields, got %+v", g)
	}
}

func TestLoadGameRequiresTwoFactions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.yaml")
	if err := os.WriteFile(path, []byte("factions: [OnlyOne]\n"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := LoadGame(path); err == nil {
		t.Error("Expected an error for a single-faction config")
	}
}
