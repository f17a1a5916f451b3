package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/reddrevolt/revolt-server/internal/domain/player"
	"github.com/reddrevolt/revolt-server/internal/events"
	"github.com/reddrevolt/revolt-server/internal/infra/storage"
	"github.com/reddrevolt/revolt-server/internal/platform/logger"
	"github.com/reddrevolt/revolt-server/internal/platform/metrics"
)

// Score deltas for the three actions. Raids damage a random rival, defends
// strengthen the own faction, influence nudges both.
const (
	raidPenalty         = 5
	defendBonus         = 5
	influenceOwnBonus   = 2
	influenceRivalBonus = 1
)

// ActionResult is the structured outcome of a player action. Domain rule
// violations set Success to false and Reason to the violated rule; they are
// not errors.
type ActionResult struct {
	Success   bool   `json:"success"`
	NewEnergy int    `json:"newEnergy"`
	Reason    string `json:"-"`
}

// Resolver validates and applies player actions against the world store.
// All preconditions are checked before any mutation; a failed check performs
// no partial writes.
type Resolver struct {
	store    storage.WorldStore
	factions []string // configured faction names, fixed at startup
	feed     *Feed
	eventLog *events.EventLog
	logger   *logger.Logger
	metrics  *metrics.Collector

	// randIntn is swappable so tests can pin target selection.
	randIntn func(n int) int
}

// NewResolver wires an action resolver over the world store.
func NewResolver(store storage.WorldStore, factions []string, feed *Feed, eventLog *events.EventLog, log *logger.Logger) *Resolver {
	return &Resolver{
		store:    store,
		factions: factions,
		feed:     feed,
		eventLog: eventLog,
		logger:   log,
		metrics:  metrics.Get(),
		randIntn: rand.Intn,
	}
}

// KnownFaction reports whether name is one of the configured factions.
func (r *Resolver) KnownFaction(name string) bool {
	for _, f := range r.factions {
		if f == name {
			return true
		}
	}
	return false
}

// JoinFaction performs the one-time faction assignment for a player.
func (r *Resolver) JoinFaction(ctx context.Context, playerID, factionName string) (ActionResult, error) {
	if !r.KnownFaction(factionName) {
		r.metrics.RecordAction(false)
		return ActionResult{Reason: ErrUnknownFaction.Error()}, nil
	}

	p, err := r.store.GetPlayer(ctx, playerID)
	if errors.Is(err, storage.ErrNotFound) {
		r.metrics.RecordAction(false)
		return ActionResult{Reason: ErrNotFound.Error()}, nil
	}
	if err != nil {
		return ActionResult{}, err
	}

	ok, err := r.store.AssignFaction(ctx, playerID, factionName)
	if err != nil {
		return ActionResult{}, err
	}
	if !ok {
		r.metrics.RecordAction(false)
		return ActionResult{NewEnergy: p.Energy, Reason: ErrAlreadyInFaction.Error()}, nil
	}

	r.feed.Add(fmt.Sprintf("%s has joined the %s faction!", p.Name, factionName))
	r.eventLog.Append(events.GameEvent{
		Type:     events.EventTypeFactionJoin,
		ActorID:  playerID,
		TargetID: factionName,
	})
	r.logger.Event("FACTION_JOIN", playerID, "joined "+factionName)
	r.metrics.RecordAction(true)
	return ActionResult{Success: true, NewEnergy: p.Energy}, nil
}

// PerformRaid debits cost and decreases a random rival faction's score.
func (r *Resolver) PerformRaid(ctx context.Context, playerID string, cost int) (ActionResult, error) {
	p, result, err := r.spend(ctx, playerID, cost)
	if err != nil || !result.Success {
		return result, err
	}

	target := r.pickRival(p.Faction)
	if err := r.store.AdjustFactionScore(ctx, target, -raidPenalty); err != nil {
		return ActionResult{}, err
	}

	r.feed.Add(fmt.Sprintf("%s has raided the %s faction!", p.Name, target))
	r.eventLog.Append(events.GameEvent{
		Type:     events.EventTypeRaid,
		ActorID:  playerID,
		TargetID: target,
		Payload:  map[string]int{"penalty": raidPenalty, "cost": cost},
	})
	r.metrics.RecordAction(true)
	return result, nil
}

// PerformDefend debits cost and increases the player's own faction score.
func (r *Resolver) PerformDefend(ctx context.Context, playerID string, cost int) (ActionResult, error) {
	p, result, err := r.spend(ctx, playerID, cost)
	if err != nil || !result.Success {
		return result, err
	}

	if err := r.store.AdjustFactionScore(ctx, p.Faction, defendBonus); err != nil {
		return ActionResult{}, err
	}

	r.feed.Add(fmt.Sprintf("%s has defended the %s faction!", p.Name, p.Faction))
	r.eventLog.Append(events.GameEvent{
		Type:     events.EventTypeDefend,
		ActorID:  playerID,
		TargetID: p.Faction,
		Payload:  map[string]int{"bonus": defendBonus, "cost": cost},
	})
	r.metrics.RecordAction(true)
	return result, nil
}

// PerformInfluence debits cost, increases the own faction score and nudges a
// random rival upward. Soft power: the rival gains a little instead of losing.
func (r *Resolver) PerformInfluence(ctx context.Context, playerID string, cost int) (ActionResult, error) {
	p, result, err := r.spend(ctx, playerID, cost)
	if err != nil || !result.Success {
		return result, err
	}

	target := r.pickRival(p.Faction)
	if err := r.store.AdjustFactionScore(ctx, p.Faction, influenceOwnBonus); err != nil {
		return ActionResult{}, err
	}
	if err := r.store.AdjustFactionScore(ctx, target, influenceRivalBonus); err != nil {
		return ActionResult{}, err
	}

	r.feed.Add(fmt.Sprintf("%s has influenced the %s and %s factions!", p.Name, p.Faction, target))
	r.eventLog.Append(events.GameEvent{
		Type:     events.EventTypeInfluence,
		ActorID:  playerID,
		TargetID: target,
		Payload:  map[string]int{"own_bonus": influenceOwnBonus, "rival_bonus": influenceRivalBonus, "cost": cost},
	})
	r.metrics.RecordAction(true)
	return result, nil
}

// spend validates the shared action preconditions (player exists, has a
// faction, can afford the cost) and debits the energy atomically. The debit
// is a conditional update, so a concurrent action cannot push energy negative.
func (r *Resolver) spend(ctx context.Context, playerID string, cost int) (*player.Player, ActionResult, error) {
	p, err := r.store.GetPlayer(ctx, playerID)
	if errors.Is(err, storage.ErrNotFound) {
		r.metrics.RecordAction(false)
		return nil, ActionResult{Reason: ErrNotFound.Error()}, nil
	}
	if err != nil {
		return nil, ActionResult{}, err
	}

	if p.Faction == "" {
		r.metrics.RecordAction(false)
		return nil, ActionResult{NewEnergy: p.Energy, Reason: ErrNoFaction.Error()}, nil
	}

	newEnergy, ok, err := r.store.SpendEnergy(ctx, playerID, cost)
	if err != nil {
		return nil, ActionResult{}, err
	}
	if !ok {
		r.metrics.RecordAction(false)
		return nil, ActionResult{NewEnergy: newEnergy, Reason: ErrInsufficientEnergy.Error()}, nil
	}
	return p, ActionResult{Success: true, NewEnergy: newEnergy}, nil
}

// pickRival selects a uniformly random faction other than own.
func (r *Resolver) pickRival(own string) string {
	rivals := make([]string, 0, len(r.factions)-1)
	for _, f := range r.factions {
		if f != own {
			rivals = append(rivals, f)
		}
	}
	return rivals[r.randIntn(len(rivals))]
}
