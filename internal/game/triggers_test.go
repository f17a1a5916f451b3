package game

import (
	"context"
	"testing"

	"github.com/reddrevolt/revolt-server/internal/catalog"
	"github.com/reddrevolt/revolt-server/internal/events"
	"github.com/reddrevolt/revolt-server/internal/infra/storage"
	"github.com/reddrevolt/revolt-server/internal/platform/logger"
)

func TestCheckDoesNotCommit(t *testing.T) {
	engine := NewTriggerEngine(catalog.Default())
	store := storage.NewMemoryWorldStore()
	ctx := context.Background()
	addPlayer(t, store, "p1", "Red", 100)

	p, _ := store.GetPlayer(ctx, "p1")
	matched := engine.CheckQuests("action:raid", p)
	if len(matched) != 1 || matched[0].ID != "firstRaid" {
		t.Fatalf("Expected the firstRaid quest to match, got %v", matched)
	}

	// Evaluation alone must not mark anything complete: checking again
	// against a fresh snapshot still matches.
	p, _ = store.GetPlayer(ctx, "p1")
	if again := engine.CheckQuests("action:raid", p); len(again) != 1 {
		t.Errorf("Expected the quest to still match before commit, got %v", again)
	}
}

func TestCommitQuestGrantsRewardOnce(t *testing.T) {
	engine := NewTriggerEngine(catalog.Default())
	store := storage.NewMemoryWorldStore()
	ctx := context.Background()
	addPlayer(t, store, "p1", "Red", 100)

	rewards := NewRewards(store, NewFeed(20), events.NewEventLog(nil), logger.NewLogger())

	p, _ := store.GetPlayer(ctx, "p1")
	matched := engine.CheckQuests("action:raid", p)
	if len(matched) != 1 {
		t.Fatalf("Expected one matching quest, got %d", len(matched))
	}

	if err := rewards.CommitQuest(ctx, p, matched[0]); err != nil {
		t.Fatalf("CommitQuest failed: %v", err)
	}

	p, _ = store.GetPlayer(ctx, "p1")
	if !p.HasCompletedQuest("firstRaid") {
		t.Error("Expected firstRaid to be marked complete")
	}
	if p.Energy != 100+matched[0].Reward.Energy {
		t.Errorf("Expected energy %d after reward, got %d", 100+matched[0].Reward.Energy, p.Energy)
	}

	// A completed quest never matches again.
	if again := engine.CheckQuests("action:raid", p); len(again) != 0 {
		t.Errorf("Expected no matches after completion, got %v", again)
	}
}

func TestCheckAchievements(t *testing.T) {
	engine := NewTriggerEngine(catalog.Default())
	store := storage.NewMemoryWorldStore()
	ctx := context.Background()
	addPlayer(t, store, "p1", "Red", 100)

	p, _ := store.GetPlayer(ctx, "p1")
	matched := engine.CheckAchievements("player:joinFaction", p)
	if len(matched) != 1 || matched[0].ID != "firstFactionJoin" {
		t.Fatalf("Expected the firstFactionJoin achievement, got %v", matched)
	}

	// Trigger matching is exact, not hierarchical.
	if loose := engine.CheckAchievements("player:join", p); len(loose) != 0 {
		t.Errorf("Expected no match for a partial trigger, got %v", loose)
	}

	rewards := NewRewards(store, NewFeed(20), events.NewEventLog(nil), logger.NewLogger())
	if err := rewards.CommitAchievement(ctx, p, matched[0]); err != nil {
		t.Fatalf("CommitAchievement failed: %v", err)
	}

	p, _ = store.GetPlayer(ctx, "p1")
	if !p.HasCompletedAchievement("firstFactionJoin") {
		t.Error("Expected firstFactionJoin to be marked complete")
	}
	if again := engine.CheckAchievements("player:joinFaction", p); len(again) != 0 {
		t.Errorf("Expected no matches after completion, got %v", again)
	}
}
