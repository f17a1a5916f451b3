package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/reddrevolt/revolt-server/internal/domain/player"
	"github.com/reddrevolt/revolt-server/internal/events"
	"github.com/reddrevolt/revolt-server/internal/infra/archive"
	"github.com/reddrevolt/revolt-server/internal/infra/storage"
	"github.com/reddrevolt/revolt-server/internal/platform/logger"
	"github.com/reddrevolt/revolt-server/internal/platform/metrics"
)

// RoundResolver advances game rounds: it determines the winning faction,
// archives the result, resets all faction scores to baseline and installs
// the next round record, the reset and advance as one transaction.
type RoundResolver struct {
	store      storage.WorldStore
	baseline   int
	length     time.Duration
	archiveDir string
	feed       *Feed
	eventLog   *events.EventLog
	logger     *logger.Logger
	metrics    *metrics.Collector

	now func() time.Time // swappable clock for tests
}

// NewRoundResolver wires the round resolver.
func NewRoundResolver(store storage.WorldStore, baseline int, length time.Duration, archiveDir string, feed *Feed, eventLog *events.EventLog, log *logger.Logger) *RoundResolver {
	return &RoundResolver{
		store:      store,
		baseline:   baseline,
		length:     length,
		archiveDir: archiveDir,
		feed:       feed,
		eventLog:   eventLog,
		logger:     log,
		metrics:    metrics.Get(),
		now:        time.Now,
	}
}

// EnsureRound seeds round 1 when no round record exists yet.
func (r *RoundResolver) EnsureRound(ctx context.Context) error {
	_, err := r.store.GetRound(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	now := r.now()
	return r.store.AdvanceRound(ctx, r.baseline, player.Round{
		Number:    1,
		StartedAt: now,
		EndsAt:    now.Add(r.length),
	})
}

// ResolveDue resolves the current round when its end time has passed.
// resolved is false when the round is still running.
func (r *RoundResolver) ResolveDue(ctx context.Context) (resolved bool, winner string, err error) {
	round, err := r.store.GetRound(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return false, "", r.EnsureRound(ctx)
	}
	if err != nil {
		return false, "", err
	}

	now := r.now()
	if now.Before(round.EndsAt) {
		return false, "", nil
	}

	factions, err := r.store.ListFactions(ctx)
	if err != nil {
		return false, "", err
	}
	winner = pickWinner(factions)

	scores := make(map[string]int, len(factions))
	for _, f := range factions {
		scores[f.Name] = f.Score
	}
	if _, err := archive.WriteRound(r.archiveDir, archive.RoundResult{
		Number:     round.Number,
		Winner:     winner,
		Scores:     scores,
		StartedAt:  round.StartedAt,
		EndsAt:     round.EndsAt,
		ResolvedAt: now,
	}); err != nil {
		// Archiving is best-effort; the round still advances.
		r.logger.Error("failed to archive round " + fmt.Sprint(round.Number) + ": " + err.Error())
	}

	next := player.Round{
		Number:    round.Number + 1,
		StartedAt: now,
		EndsAt:    now.Add(r.length),
	}
	if err := r.store.AdvanceRound(ctx, r.baseline, next); err != nil {
		return false, "", err
	}

	if winner != "" {
		r.feed.Add(fmt.Sprintf("The %s faction has won round %d!", winner, round.Number))
	}
	r.eventLog.Append(events.GameEvent{
		Type:     events.EventTypeRoundResolved,
		ActorID:  "system",
		TargetID: winner,
		Payload:  scores,
		Round:    round.Number,
	})
	r.logger.Event("ROUND_RESOLVED", "system", fmt.Sprintf("round %d winner %s", round.Number, winner))
	r.metrics.RecordRoundResolved()
	return true, winner, nil
}

// Run checks for a due round on every tick until the context is cancelled.
func (r *RoundResolver) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, _, err := r.ResolveDue(ctx); err != nil {
				r.logger.Error("round resolution failed: " + err.Error())
			}
		}
	}
}

// pickWinner returns the faction with the strictly highest score. Ties are
// broken by the lexicographically smallest faction name, so resolution is
// deterministic regardless of listing order. Empty input yields "".
func pickWinner(factions []player.Faction) string {
	winner := ""
	best := 0
	for i, f := range factions {
		if i == 0 || f.Score > best || (f.Score == best && f.Name < winner) {
			winner = f.Name
			best = f.Score
		}
	}
	return winner
}
