package game

import (
	"context"
	"testing"

	"github.com/reddrevolt/revolt-server/internal/catalog"
	"github.com/reddrevolt/revolt-server/internal/events"
	"github.com/reddrevolt/revolt-server/internal/infra/storage"
	"github.com/reddrevolt/revolt-server/internal/platform/logger"
)

func TestCalculateRankThresholds(t *testing.T) {
	ranks := catalog.Default().Ranks

	cases := []struct {
		karma int
		want  string
	}{
		{0, "Recruit"},
		{499, "Recruit"},
		{500, "Rebel"},
		{999, "Rebel"},
		{1000, "Warlord"},
		{5000, "Warlord"},
		{-50, "Recruit"},
	}

	for _, c := range cases {
		if got := CalculateRank(ranks, c.karma); got != c.want {
			t.Errorf("CalculateRank(%d) = %s, want %s", c.karma, got, c.want)
		}
	}
}

func TestRecalculateReportsTransitionOnce(t *testing.T) {
	store := storage.NewMemoryWorldStore()
	ctx := context.Background()
	addPlayer(t, store, "p1", "Red", 100)

	rm := NewRankManager(catalog.Default().Ranks, store, NewFeed(20), events.NewEventLog(nil), logger.NewLogger())

	newRank, changed, err := rm.Recalculate(ctx, "p1", 600)
	if err != nil {
		t.Fatalf("Recalculate failed: %v", err)
	}
	if newRank != "Rebel" || !changed {
		t.Errorf("Expected promotion to Rebel, got rank=%s changed=%v", newRank, changed)
	}

	// Same karma again: rank is already Rebel, no transition.
	newRank, changed, err = rm.Recalculate(ctx, "p1", 650)
	if err != nil {
		t.Fatalf("Second Recalculate failed: %v", err)
	}
	if newRank != "Rebel" || changed {
		t.Errorf("Expected no transition, got rank=%s changed=%v", newRank, changed)
	}

	p, _ := store.GetPlayer(ctx, "p1")
	if p.Karma != 650 {
		t.Errorf("Expected karma persisted as 650, got %d", p.Karma)
	}
	if p.Rank != "Rebel" {
		t.Errorf("Expected rank persisted as Rebel, got %s", p.Rank)
	}
}
