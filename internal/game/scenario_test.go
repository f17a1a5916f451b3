package game

import (
	"context"
	"testing"
	"time"

	"github.com/reddrevolt/revolt-server/internal/events"
	"github.com/reddrevolt/revolt-server/internal/platform/logger"
)

// Full poll lifecycle: two players, a repeat vote in the middle.
func TestPollVotingScenario(t *testing.T) {
	pm := NewPollManager(time.Hour, NewFeed(20), events.NewEventLog(nil), logger.NewLogger())
	poll := pm.CreatePoll("Q", []string{"A", "B"})

	if !pm.Vote(poll.ID, "A", "p1") {
		t.Fatal("Expected p1's first vote to count")
	}
	if pm.Vote(poll.ID, "B", "p1") {
		t.Error("Expected p1's second vote to be ignored")
	}
	if !pm.Vote(poll.ID, "B", "p2") {
		t.Fatal("Expected p2's vote to count")
	}

	results, ok := pm.Results(poll.ID)
	if !ok {
		t.Fatal("Expected results for the poll")
	}
	if results["A"] != 1 || results["B"] != 1 {
		t.Errorf("Expected A=1 B=1, got %v", results)
	}
}

// Full action lifecycle: a factionless player is rejected, joins, then raids.
func TestRaidLifecycleScenario(t *testing.T) {
	resolver, store := newTestResolver(t)
	ctx := context.Background()
	addPlayer(t, store, "p1", "", 100)

	result, err := resolver.PerformRaid(ctx, "p1", 10)
	if err != nil {
		t.Fatalf("PerformRaid failed: %v", err)
	}
	if result.Success || result.NewEnergy != 100 {
		t.Errorf("Expected rejection with energy untouched, got success=%v energy=%d", result.Success, result.NewEnergy)
	}

	join, err := resolver.JoinFaction(ctx, "p1", "Red")
	if err != nil || !join.Success {
		t.Fatalf("Expected join to succeed, got success=%v err=%v", join.Success, err)
	}

	result, err = resolver.PerformRaid(ctx, "p1", 10)
	if err != nil {
		t.Fatalf("PerformRaid failed: %v", err)
	}
	if !result.Success || result.NewEnergy != 90 {
		t.Errorf("Expected success with 90 energy, got success=%v energy=%d", result.Success, result.NewEnergy)
	}

	// Exactly one rival lost points; the raider's faction is untouched.
	factions, _ := store.ListFactions(ctx)
	damaged := 0
	for _, f := range factions {
		switch {
		case f.Name == "Red" && f.Score != 0:
			t.Errorf("Expected Red untouched, got %d", f.Score)
		case f.Name != "Red" && f.Score == -raidPenalty:
			damaged++
		case f.Name != "Red" && f.Score != 0:
			t.Errorf("Unexpected score %d for %s", f.Score, f.Name)
		}
	}
	if damaged != 1 {
		t.Errorf("Expected exactly one damaged rival, got %d", damaged)
	}
}
