package game

import (
	"context"
	"fmt"

	"github.com/reddrevolt/revolt-server/internal/catalog"
	"github.com/reddrevolt/revolt-server/internal/domain/player"
	"github.com/reddrevolt/revolt-server/internal/events"
	"github.com/reddrevolt/revolt-server/internal/infra/storage"
	"github.com/reddrevolt/revolt-server/internal/platform/logger"
	"github.com/reddrevolt/revolt-server/internal/platform/metrics"
)

// TriggerEngine is the stateless rule evaluator. Matching is exact-string
// against the trigger key; there is no wildcard or hierarchical matching.
// Matches are returned WITHOUT being marked complete: committing completion
// is a separate step so that a partial failure while granting rewards never
// marks a quest used up without the player receiving it. Callers retry the
// commit, not the evaluation.
type TriggerEngine struct {
	catalog catalog.Catalog
}

// NewTriggerEngine wraps the immutable catalog.
func NewTriggerEngine(c catalog.Catalog) *TriggerEngine {
	return &TriggerEngine{catalog: c}
}

// CheckQuests returns the quests newly satisfied by trigger for this player.
func (t *TriggerEngine) CheckQuests(trigger string, p *player.Player) []catalog.Quest {
	var matched []catalog.Quest
	for _, q := range t.catalog.Quests {
		if q.Trigger == trigger && !p.HasCompletedQuest(q.ID) {
			matched = append(matched, q)
		}
	}
	return matched
}

// CheckAchievements returns the achievements newly satisfied by trigger.
func (t *TriggerEngine) CheckAchievements(trigger string, p *player.Player) []catalog.Achievement {
	var matched []catalog.Achievement
	for _, a := range t.catalog.Achievements {
		if a.Trigger == trigger && !p.HasCompletedAchievement(a.ID) {
			matched = append(matched, a)
		}
	}
	return matched
}

// Rewards commits quest/achievement completions: it records the id in the
// player's completed set (idempotent) and credits the reward energy.
type Rewards struct {
	store    storage.WorldStore
	feed     *Feed
	eventLog *events.EventLog
	logger   *logger.Logger
	metrics  *metrics.Collector
}

// NewRewards wires the reward applier.
func NewRewards(store storage.WorldStore, feed *Feed, eventLog *events.EventLog, log *logger.Logger) *Rewards {
	return &Rewards{
		store:    store,
		feed:     feed,
		eventLog: eventLog,
		logger:   log,
		metrics:  metrics.Get(),
	}
}

// CommitQuest marks the quest complete for the player and grants its reward.
func (r *Rewards) CommitQuest(ctx context.Context, p *player.Player, q catalog.Quest) error {
	if err := r.store.AddCompletedQuest(ctx, p.ID, q.ID); err != nil {
		return fmt.Errorf("commit quest %s for %s: %w", q.ID, p.ID, err)
	}
	if q.Reward.Energy > 0 {
		if _, err := r.store.GrantEnergy(ctx, p.ID, q.Reward.Energy); err != nil {
			return fmt.Errorf("grant quest reward %s to %s: %w", q.ID, p.ID, err)
		}
	}

	r.feed.Add(fmt.Sprintf("%s completed the quest \"%s\"!", p.Name, q.Name))
	r.eventLog.Append(events.GameEvent{
		Type:     events.EventTypeQuestComplete,
		ActorID:  p.ID,
		TargetID: q.ID,
		Payload:  q.Reward,
	})
	r.logger.Event("QUEST_COMPLETE", p.ID, q.Name)
	r.metrics.RecordQuestComplete()
	return nil
}

// CommitAchievement marks the achievement complete and grants its reward.
func (r *Rewards) CommitAchievement(ctx context.Context, p *player.Player, a catalog.Achievement) error {
	if err := r.store.AddCompletedAchievement(ctx, p.ID, a.ID); err != nil {
		return fmt.Errorf("commit achievement %s for %s: %w", a.ID, p.ID, err)
	}
	if a.Reward.Energy > 0 {
		if _, err := r.store.GrantEnergy(ctx, p.ID, a.Reward.Energy); err != nil {
			return fmt.Errorf("grant achievement reward %s to %s: %w", a.ID, p.ID, err)
		}
	}

	r.feed.Add(fmt.Sprintf("%s unlocked the achievement \"%s\"!", p.Name, a.Name))
	r.eventLog.Append(events.GameEvent{
		Type:     events.EventTypeAchievementComplete,
		ActorID:  p.ID,
		TargetID: a.ID,
		Payload:  a.Reward,
	})
	r.logger.Event("ACHIEVEMENT_COMPLETE", p.ID, a.Name)
	r.metrics.RecordAchievementComplete()
	return nil
}
