// Package hooks receives platform event callbacks (game events, karma
// changes, faction joins, upvotes) and translates them into core state
// transitions: trigger evaluation, reward commits, rank recalculation and
// energy replenishment.
package hooks

import (
	"context"
	"errors"
	"fmt"

	"github.com/reddrevolt/revolt-server/internal/events"
	"github.com/reddrevolt/revolt-server/internal/game"
	"github.com/reddrevolt/revolt-server/internal/infra/storage"
	"github.com/reddrevolt/revolt-server/internal/platform/logger"
)

// HookPlayer is the player snapshot carried by hook payloads. Only the id is
// trusted; authoritative state is reloaded from the world store.
type HookPlayer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Karma int    `json:"karma"`
}

// GameEventHook is the generic game-event callback payload.
type GameEventHook struct {
	Trigger string                 `json:"trigger"`
	Player  HookPlayer             `json:"player"`
	Data    map[string]interface{} `json:"data"`
}

// KarmaChangeHook carries a reputation update for one player.
type KarmaChangeHook struct {
	Player HookPlayer `json:"player"`
}

// PlayerJoinHook fires after a player joined a faction.
type PlayerJoinHook struct {
	PlayerID string `json:"playerId"`
	Faction  string `json:"faction"`
}

// VoteHook fires on an upvote; the author is credited with energy.
type VoteHook struct {
	Author string `json:"author"`
}

// Dispatcher executes hook side effects against the core.
type Dispatcher struct {
	store        storage.WorldStore
	triggers     *game.TriggerEngine
	rewards      *game.Rewards
	ranks        *game.RankManager
	polls        *game.PollManager
	eventLog     *events.EventLog
	logger       *logger.Logger
	upvoteEnergy int
}

// NewDispatcher wires the hook dispatcher.
func NewDispatcher(store storage.WorldStore, triggers *game.TriggerEngine, rewards *game.Rewards, ranks *game.RankManager, polls *game.PollManager, eventLog *events.EventLog, log *logger.Logger, upvoteEnergy int) *Dispatcher {
	return &Dispatcher{
		store:        store,
		triggers:     triggers,
		rewards:      rewards,
		ranks:        ranks,
		polls:        polls,
		eventLog:     eventLog,
		logger:       log,
		upvoteEnergy: upvoteEnergy,
	}
}

// OnGameEvent forwards poll votes and evaluates + commits quest and
// achievement completions for the trigger. Unknown players are a no-op.
func (d *Dispatcher) OnGameEvent(ctx context.Context, hook GameEventHook) error {
	if hook.Trigger == "poll:vote" {
		pollID, _ := hook.Data["pollId"].(string)
		option, _ := hook.Data["option"].(string)
		d.polls.Vote(pollID, option, hook.Player.ID)
	}

	return d.fireTrigger(ctx, hook.Trigger, hook.Player.ID)
}

// OnKarmaChange recalculates the player's rank. A rank transition fires the
// rank:<name> trigger exactly once.
func (d *Dispatcher) OnKarmaChange(ctx context.Context, hook KarmaChangeHook) error {
	newRank, changed, err := d.ranks.Recalculate(ctx, hook.Player.ID, hook.Player.Karma)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	return d.fireTrigger(ctx, "rank:"+newRank, hook.Player.ID)
}

// OnPlayerJoin evaluates the join trigger for achievements and quests.
func (d *Dispatcher) OnPlayerJoin(ctx context.Context, hook PlayerJoinHook) error {
	return d.fireTrigger(ctx, "player:joinFaction", hook.PlayerID)
}

// OnUpvote replenishes the author's energy.
func (d *Dispatcher) OnUpvote(ctx context.Context, hook VoteHook) error {
	newEnergy, err := d.store.GrantEnergy(ctx, hook.Author, d.upvoteEnergy)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	d.eventLog.Append(events.GameEvent{
		Type:    events.EventTypeEnergyGrant,
		ActorID: hook.Author,
		Payload: map[string]int{"amount": d.upvoteEnergy, "energy": newEnergy},
	})
	d.logger.Event("ENERGY_GRANT", hook.Author, fmt.Sprintf("+%d energy for upvote", d.upvoteEnergy))
	return nil
}

// fireTrigger reloads the player, evaluates both catalogs against the
// trigger and commits every newly satisfied entry exactly once.
func (d *Dispatcher) fireTrigger(ctx context.Context, trigger, playerID string) error {
	p, err := d.store.GetPlayer(ctx, playerID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	for _, q := range d.triggers.CheckQuests(trigger, p) {
		if err := d.rewards.CommitQuest(ctx, p, q); err != nil {
			return err
		}
	}
	for _, a := range d.triggers.CheckAchievements(trigger, p) {
		if err := d.rewards.CommitAchievement(ctx, p, a); err != nil {
			return err
		}
	}
	return nil
}
