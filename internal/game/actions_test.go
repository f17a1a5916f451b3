package game

import (
	"context"
	"sync"
	"testing"

	"github.com/reddrevolt/revolt-server/internal/domain/player"
	"github.com/reddrevolt/revolt-server/internal/events"
	"github.com/reddrevolt/revolt-server/internal/infra/storage"
	"github.com/reddrevolt/revolt-server/internal/platform/logger"
)

func newTestResolver(t *testing.T) (*Resolver, *storage.MemoryWorldStore) {
	t.Helper()
	store := storage.NewMemoryWorldStore()
	ctx := context.Background()
	for _, f := range []string{"Red", "Blue", "Green"} {
		if err := store.EnsureFaction(ctx, f); err != nil {
			t.Fatalf("EnsureFaction(%s) failed: %v", f, err)
		}
	}
	feed := NewFeed(20)
	eventLog := events.NewEventLog(nil)
	resolver := NewResolver(store, []string{"Red", "Blue", "Green"}, feed, eventLog, logger.NewLogger())
	return resolver, store
}

func addPlayer(t *testing.T, store *storage.MemoryWorldStore, id, faction string, energy int) {
	t.Helper()
	p := player.NewPlayer(id, id, energy)
	p.Faction = faction
	if err := store.PutPlayer(context.Background(), p); err != nil {
		t.Fatalf("PutPlayer(%s) failed: %v", id, err)
	}
}

func TestJoinFactionIsOneTime(t *testing.T) {
	resolver, store := newTestResolver(t)
	ctx := context.Background()
	addPlayer(t, store, "p1", "", 100)

	result, err := resolver.JoinFaction(ctx, "p1", "Red")
	if err != nil {
		t.Fatalf("JoinFaction failed: %v", err)
	}
	if !result.Success {
		t.Errorf("Expected first join to succeed, got reason %q", result.Reason)
	}

	result, err = resolver.JoinFaction(ctx, "p1", "Blue")
	if err != nil {
		t.Fatalf("Second JoinFaction failed: %v", err)
	}
	if result.Success {
		t.Error("Expected second join to be rejected, but it succeeded")
	}

	p, _ := store.GetPlayer(ctx, "p1")
	if p.Faction != "Red" {
		t.Errorf("Expected player to stay in Red, got %s", p.Faction)
	}
}

func TestJoinUnknownFaction(t *testing.T) {
	resolver, store := newTestResolver(t)
	addPlayer(t, store, "p1", "", 100)

	result, err := resolver.JoinFaction(context.Background(), "p1", "Purple")
	if err != nil {
		t.Fatalf("JoinFaction failed: %v", err)
	}
	if result.Success {
		t.Error("Expected join to an unknown faction to be rejected")
	}
}

func TestActionRequiresFaction(t *testing.T) {
	resolver, store := newTestResolver(t)
	addPlayer(t, store, "p1", "", 100)

	result, err := resolver.PerformRaid(context.Background(), "p1", 10)
	if err != nil {
		t.Fatalf("PerformRaid failed: %v", err)
	}
	if result.Success {
		t.Error("Expected raid without a faction to be rejected")
	}
	if result.Reason != ErrNoFaction.Error() {
		t.Errorf("Expected reason %q, got %q", ErrNoFaction.Error(), result.Reason)
	}
}

func TestRaidDebitsAndDamagesRival(t *testing.T) {
	resolver, store := newTestResolver(t)
	ctx := context.Background()
	addPlayer(t, store, "p1", "Red", 100)
	resolver.randIntn = func(n int) int { return 0 } // rival list is sorted config order: Blue

	result, err := resolver.PerformRaid(ctx, "p1", 10)
	if err != nil {
		t.Fatalf("PerformRaid failed: %v", err)
	}
	if !result.Success {
		t.Fatalf("Expected raid to succeed, got reason %q", result.Reason)
	}
	if result.NewEnergy != 90 {
		t.Errorf("Expected 90 energy after raid, got %d", result.NewEnergy)
	}

	rival, _ := store.GetFaction(ctx, "Blue")
	if rival.Score != -raidPenalty {
		t.Errorf("Expected Blue score %d after raid, got %d", -raidPenalty, rival.Score)
	}
	own, _ := store.GetFaction(ctx, "Red")
	if own.Score != 0 {
		t.Errorf("Expected Red score untouched by raid, got %d", own.Score)
	}
}

func TestDefendBoostsOwnFaction(t *testing.T) {
	resolver, store := newTestResolver(t)
	ctx := context.Background()
	addPlayer(t, store, "p1", "Red", 100)

	result, err := resolver.PerformDefend(ctx, "p1", 15)
	if err != nil {
		t.Fatalf("PerformDefend failed: %v", err)
	}
	if !result.Success || result.NewEnergy != 85 {
		t.Errorf("Expected success with 85 energy, got success=%v energy=%d", result.Success, result.NewEnergy)
	}

	own, _ := store.GetFaction(ctx, "Red")
	if own.Score != defendBonus {
		t.Errorf("Expected Red score %d after defend, got %d", defendBonus, own.Score)
	}
}

func TestInfluenceNudgesBothFactions(t *testing.T) {
	resolver, store := newTestResolver(t)
	ctx := context.Background()
	addPlayer(t, store, "p1", "Red", 100)
	resolver.randIntn = func(n int) int { return 1 } // rivals of Red are [Blue, Green]

	result, err := resolver.PerformInfluence(ctx, "p1", 5)
	if err != nil {
		t.Fatalf("PerformInfluence failed: %v", err)
	}
	if !result.Success {
		t.Fatalf("Expected influence to succeed, got reason %q", result.Reason)
	}

	own, _ := store.GetFaction(ctx, "Red")
	rival, _ := store.GetFaction(ctx, "Green")
	untouched, _ := store.GetFaction(ctx, "Blue")
	if own.Score != influenceOwnBonus {
		t.Errorf("Expected Red score %d, got %d", influenceOwnBonus, own.Score)
	}
	if rival.Score != influenceRivalBonus {
		t.Errorf("Expected Green score %d, got %d", influenceRivalBonus, rival.Score)
	}
	if untouched.Score != 0 {
		t.Errorf("Expected Blue score 0, got %d", untouched.Score)
	}
}

func TestInsufficientEnergyRejectsAction(t *testing.T) {
	resolver, store := newTestResolver(t)
	ctx := context.Background()
	addPlayer(t, store, "p1", "Red", 5)

	result, err := resolver.PerformDefend(ctx, "p1", 10)
	if err != nil {
		t.Fatalf("PerformDefend failed: %v", err)
	}
	if result.Success {
		t.Error("Expected defend with 5 energy and cost 10 to be rejected")
	}
	if result.Reason != ErrInsufficientEnergy.Error() {
		t.Errorf("Expected reason %q, got %q", ErrInsufficientEnergy.Error(), result.Reason)
	}

	p, _ := store.GetPlayer(ctx, "p1")
	if p.Energy != 5 {
		t.Errorf("Expected energy untouched at 5, got %d", p.Energy)
	}
	own, _ := store.GetFaction(ctx, "Red")
	if own.Score != 0 {
		t.Errorf("Expected no score change on rejected action, got %d", own.Score)
	}
}

func TestConcurrentActionsNeverOverspend(t *testing.T) {
	resolver, store := newTestResolver(t)
	ctx := context.Background()
	addPlayer(t, store, "p1", "Red", 100)

	const attempts = 50
	const cost = 10

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := resolver.PerformDefend(ctx, "p1", cost)
			if err != nil {
				t.Errorf("PerformDefend failed: %v", err)
				return
			}
			if result.Success {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// 100 energy at cost 10 affords exactly 10 actions, no matter how they race.
	if successes != 10 {
		t.Errorf("Expected exactly 10 successful actions, got %d", successes)
	}

	p, _ := store.GetPlayer(ctx, "p1")
	if p.Energy != 0 {
		t.Errorf("Expected 0 energy left, got %d", p.Energy)
	}
	if p.Energy < 0 {
		t.Errorf("Energy must never go negative, got %d", p.Energy)
	}

	own, _ := store.GetFaction(ctx, "Red")
	if own.Score != 10*defendBonus {
		t.Errorf("Expected Red score %d (one bonus per success), got %d", 10*defendBonus, own.Score)
	}
}
