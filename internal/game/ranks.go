package game

import (
	"context"
	"fmt"

	"github.com/reddrevolt/revolt-server/internal/catalog"
	"github.com/reddrevolt/revolt-server/internal/events"
	"github.com/reddrevolt/revolt-server/internal/infra/storage"
	"github.com/reddrevolt/revolt-server/internal/platform/logger"
	"github.com/reddrevolt/revolt-server/internal/platform/metrics"
)

// CalculateRank maps a karma score to a rank name. Ranks must be sorted
// ascending by MinKarma; the highest threshold at or below karma wins.
// Pure and deterministic.
func CalculateRank(ranks []catalog.Rank, karma int) string {
	name := ranks[0].Name
	for _, r := range ranks {
		if karma >= r.MinKarma {
			name = r.Name
		}
	}
	return name
}

// RankManager persists rank transitions when a player's karma changes and
// reports the transition so the caller can fire the rank trigger exactly once.
type RankManager struct {
	ranks    []catalog.Rank
	store    storage.WorldStore
	feed     *Feed
	eventLog *events.EventLog
	logger   *logger.Logger
	metrics  *metrics.Collector
}

// NewRankManager wires the rank manager over the configured rank table.
func NewRankManager(ranks []catalog.Rank, store storage.WorldStore, feed *Feed, eventLog *events.EventLog, log *logger.Logger) *RankManager {
	return &RankManager{
		ranks:    ranks,
		store:    store,
		feed:     feed,
		eventLog: eventLog,
		logger:   log,
		metrics:  metrics.Get(),
	}
}

// Recalculate stores the new karma score and, when the derived rank differs
// from the stored one, persists it. changed is true exactly once per
// transition, so the caller fires the rank:<name> trigger at most once.
func (m *RankManager) Recalculate(ctx context.Context, playerID string, karma int) (newRank string, changed bool, err error) {
	p, err := m.store.GetPlayer(ctx, playerID)
	if err != nil {
		return "", false, err
	}

	if err := m.store.SetKarma(ctx, playerID, karma); err != nil {
		return "", false, err
	}

	newRank = CalculateRank(m.ranks, karma)
	if newRank == p.Rank {
		return newRank, false, nil
	}

	if err := m.store.SetRank(ctx, playerID, newRank); err != nil {
		return "", false, err
	}

	m.feed.Add(fmt.Sprintf("%s has been promoted to %s!", p.Name, newRank))
	m.eventLog.Append(events.GameEvent{
		Type:     events.EventTypeRankChange,
		ActorID:  playerID,
		TargetID: newRank,
		Payload:  map[string]interface{}{"karma": karma, "previous": p.Rank},
	})
	m.logger.Event("RANK_CHANGE", playerID, p.Rank+" -> "+newRank)
	m.metrics.RecordRankChange()
	return newRank, true, nil
}
