package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCatalogIsValid(t *testing.T) {
	c := Default()
	if err := c.validate(); err != nil {
		t.Fatalf("Default catalog failed validation: %v", err)
	}
	if len(c.Quests) != 3 || len(c.Achievements) != 3 || len(c.Ranks) != 3 {
		t.Errorf("Unexpected default catalog sizes: %d quests, %d achievements, %d ranks",
			len(c.Quests), len(c.Achievements), len(c.Ranks))
	}
	for i := 1; i < len(c.Ranks); i++ {
		if c.Ranks[i-1].MinKarma >= c.Ranks[i].MinKarma {
			t.Errorf("Expected ranks sorted by threshold, got %v", c.Ranks)
		}
	}
}

func TestLoadSortsRanks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `
quests:
  - id: q1
    name: Quest One
    trigger: "action:raid"
    reward:
      energy: 10
ranks:
  - name: Boss
    min_karma: 1000
  - name: Nobody
    min_karma: 0
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Ranks[0].Name != "Nobody" || c.Ranks[1].Name != "Boss" {
		t.Errorf("Expected ranks sorted ascending, got %v", c.Ranks)
	}
	if c.Quests[0].Reward.Energy != 10 {
		t.Errorf("Expected quest reward 10, got %d", c.Quests[0].Reward.Energy)
	}
}

func TestLoadRejectsBrokenCatalogs(t *testing.T) {
	cases := map[string]string{
		"missing trigger": `
quests:
  - id: q1
    name: Quest One
ranks:
  - name: Nobody
    min_karma: 0
`,
		"duplicate quest id": `
quests:
  - id: q1
    trigger: "a"
  - id: q1
    trigger: "b"
ranks:
  - name: Nobody
    min_karma: 0
`,
		"no ranks": `
quests:
  - id: q1
    trigger: "a"
`,
	}

	for name, content := range cases {
		path := filepath.Join(t.TempDir(), "catalog.yaml")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
		if _, err := Load(path); err == nil {
			t.Errorf("Expected Load to fail for %s", name)
		}
	}
}
