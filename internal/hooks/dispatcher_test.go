package hooks

import (
	"context"
	"testing"
	"time"

	"github.com/reddrevolt/revolt-server/internal/catalog"
	"github.com/reddrevolt/revolt-server/internal/domain/player"
	"github.com/reddrevolt/revolt-server/internal/events"
	"github.com/reddrevolt/revolt-server/internal/game"
	"github.com/reddrevolt/revolt-server/internal/infra/storage"
	"github.com/reddrevolt/revolt-server/internal/platform/logger"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *storage.MemoryWorldStore, *game.PollManager) {
	t.Helper()
	store := storage.NewMemoryWorldStore()
	cat := catalog.Default()
	feed := game.NewFeed(20)
	eventLog := events.NewEventLog(nil)
	log := logger.NewLogger()

	triggers := game.NewTriggerEngine(cat)
	rewards := game.NewRewards(store, feed, eventLog, log)
	ranks := game.NewRankManager(cat.Ranks, store, feed, eventLog, log)
	polls := game.NewPollManager(time.Hour, feed, eventLog, log)

	d := NewDispatcher(store, triggers, rewards, ranks, polls, eventLog, log, 10)
	return d, store, polls
}

func seedPlayer(t *testing.T, store *storage.MemoryWorldStore, id string, energy int) {
	t.Helper()
	p := player.NewPlayer(id, id, energy)
	p.Faction = "Red"
	if err := store.PutPlayer(context.Background(), p); err != nil {
		t.Fatalf("PutPlayer failed: %v", err)
	}
}

func TestOnUpvoteGrantsEnergy(t *testing.T) {
	d, store, _ := newTestDispatcher(t)
	ctx := context.Background()
	seedPlayer(t, store, "p1", 50)

	if err := d.OnUpvote(ctx, VoteHook{Author: "p1"}); err != nil {
		t.Fatalf("OnUpvote failed: %v", err)
	}
	p, _ := store.GetPlayer(ctx, "p1")
	if p.Energy != 60 {
		t.Errorf("Expected 60 energy after upvote, got %d", p.Energy)
	}

	// Upvotes from players the game does not know are dropped silently.
	if err := d.OnUpvote(ctx, VoteHook{Author: "stranger"}); err != nil {
		t.Errorf("Expected unknown author to be a no-op, got %v", err)
	}
}

func TestOnGameEventCommitsMatchesOnce(t *testing.T) {
	d, store, _ := newTestDispatcher(t)
	ctx := context.Background()
	seedPlayer(t, store, "p1", 100)

	hook := GameEventHook{Trigger: "action:raid", Player: HookPlayer{ID: "p1"}}
	if err := d.OnGameEvent(ctx, hook); err != nil {
		t.Fatalf("OnGameEvent failed: %v", err)
	}

	// The raid trigger satisfies the firstRaid quest (100) and the firstRaid
	// achievement (50).
	p, _ := store.GetPlayer(ctx, "p1")
	if !p.HasCompletedQuest("firstRaid") || !p.HasCompletedAchievement("firstRaid") {
		t.Errorf("Expected firstRaid quest and achievement completed, got %+v", p)
	}
	if p.Energy != 250 {
		t.Errorf("Expected 250 energy after rewards, got %d", p.Energy)
	}

	// Firing the same trigger again must not re-grant anything.
	if err := d.OnGameEvent(ctx, hook); err != nil {
		t.Fatalf("Second OnGameEvent failed: %v", err)
	}
	p, _ = store.GetPlayer(ctx, "p1")
	if p.Energy != 250 {
		t.Errorf("Expected rewards granted exactly once, energy is %d", p.Energy)
	}
}

func TestOnGameEventUnknownPlayerIsNoOp(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	hook := GameEventHook{Trigger: "action:raid", Player: HookPlayer{ID: "ghost"}}
	if err := d.OnGameEvent(context.Background(), hook); err != nil {
		t.Errorf("Expected unknown player to be a no-op, got %v", err)
	}
}

func TestOnGameEventForwardsPollVotes(t *testing.T) {
	d, store, polls := newTestDispatcher(t)
	ctx := context.Background()
	seedPlayer(t, store, "p1", 100)

	poll := polls.CreatePoll("Next event?", []string{"A", "B"})
	hook := GameEventHook{
		Trigger: "poll:vote",
		Player:  HookPlayer{ID: "p1"},
		Data:    map[string]interface{}{"pollId": poll.ID, "option": "A"},
	}
	if err := d.OnGameEvent(ctx, hook); err != nil {
		t.Fatalf("OnGameEvent failed: %v", err)
	}

	results, _ := polls.Results(poll.ID)
	if results["A"] != 1 {
		t.Errorf("Expected the vote to be recorded, got %v", results)
	}

	// Voting also satisfies the communityVoice quest.
	p, _ := store.GetPlayer(ctx, "p1")
	if !p.HasCompletedQuest("communityVoice") {
		t.Error("Expected communityVoice quest completed after voting")
	}
	if p.Energy != 150 {
		t.Errorf("Expected 150 energy after the quest reward, got %d", p.Energy)
	}
}

func TestOnKarmaChangeFiresRankTriggerOnce(t *testing.T) {
	d, store, _ := newTestDispatcher(t)
	ctx := context.Background()
	seedPlayer(t, store, "p1", 100)

	if err := d.OnKarmaChange(ctx, KarmaChangeHook{Player: HookPlayer{ID: "p1", Karma: 600}}); err != nil {
		t.Fatalf("OnKarmaChange failed: %v", err)
	}

	p, _ := store.GetPlayer(ctx, "p1")
	if p.Rank != "Rebel" {
		t.Errorf("Expected promotion to Rebel, got %s", p.Rank)
	}
	if !p.HasCompletedQuest("rankUp") {
		t.Error("Expected rankUp quest completed on promotion")
	}
	if p.Energy != 300 {
		t.Errorf("Expected 300 energy after the promotion reward, got %d", p.Energy)
	}

	// More karma within the same rank: no second promotion, no second reward.
	if err := d.OnKarmaChange(ctx, KarmaChangeHook{Player: HookPlayer{ID: "p1", Karma: 700}}); err != nil {
		t.Fatalf("Second OnKarmaChange failed: %v", err)
	}
	p, _ = store.GetPlayer(ctx, "p1")
	if p.Energy != 300 {
		t.Errorf("Expected no repeat reward, energy is %d", p.Energy)
	}
}

func TestOnPlayerJoinUnlocksAchievement(t *testing.T) {
	d, store, _ := newTestDispatcher(t)
	ctx := context.Background()
	seedPlayer(t, store, "p1", 100)

	if err := d.OnPlayerJoin(ctx, PlayerJoinHook{PlayerID: "p1", Faction: "Red"}); err != nil {
		t.Fatalf("OnPlayerJoin failed: %v", err)
	}

	p, _ := store.GetPlayer(ctx, "p1")
	if !p.HasCompletedAchievement("firstFactionJoin") {
		t.Error("Expected firstFactionJoin achievement completed")
	}
}
