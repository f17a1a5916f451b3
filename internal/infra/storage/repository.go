// Package storage provides the persistence layer for the game server.
// This package implements the repository pattern to keep the domain pure.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/reddrevolt/revolt-server/internal/domain/player"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("storage: not found")

// WorldStore is the single source of truth for players, factions and the
// current round. Every mutation is a per-entity atomic operation so that two
// concurrent actions against the same record never lose an update; callers
// must not read-modify-write whole records for counters.
type WorldStore interface {
	GetPlayer(ctx context.Context, id string) (*player.Player, error)
	PutPlayer(ctx context.Context, p *player.Player) error
	// EnsurePlayer inserts the player only when the id is not present yet.
	EnsurePlayer(ctx context.Context, p *player.Player) error

	GetFaction(ctx context.Context, name string) (*player.Faction, error)
	ListFactions(ctx context.Context) ([]player.Faction, error)
	EnsureFaction(ctx context.Context, name string) error
	// AdjustFactionScore atomically adds delta to the faction score.
	AdjustFactionScore(ctx context.Context, name string, delta int) error

	// SpendEnergy atomically debits cost when the player can afford it.
	// ok reports whether the debit happened; newEnergy is the balance after
	// the call either way. Returns ErrNotFound for unknown players.
	SpendEnergy(ctx context.Context, id string, cost int) (newEnergy int, ok bool, err error)
	// GrantEnergy atomically credits amount and returns the new balance.
	GrantEnergy(ctx context.Context, id string, amount int) (newEnergy int, err error)

	// AssignFaction performs the one-time empty -> set transition. ok is
	// false when the player already belongs to a faction.
	AssignFaction(ctx context.Context, id, faction string) (ok bool, err error)

	SetKarma(ctx context.Context, id string, karma int) error
	SetRank(ctx context.Context, id, rank string) error

	// AddCompletedQuest / AddCompletedAchievement are idempotent set-adds.
	AddCompletedQuest(ctx context.Context, id, questID string) error
	AddCompletedAchievement(ctx context.Context, id, achievementID string) error

	GetRound(ctx context.Context) (player.Round, error)
	// AdvanceRound resets every faction score to baseline and installs the
	// next round record as a single transaction.
	AdvanceRound(ctx context.Context, baseline int, next player.Round) error

	// Get/Put/IncrBy expose the auxiliary key-value surface (the boundary
	// counter demo lives here).
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
	IncrBy(ctx context.Context, key string, delta int) (int, error)
}

// EventRecord mirrors the domain event structure for persistence.
// The domain package does not import this; the event log talks to an
// EventRepository through an adapter.
type EventRecord struct {
	ID        string    `json:"id" db:"id"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	EventType string    `json:"event_type" db:"event_type"`
	ActorID   string    `json:"actor_id" db:"actor_id"`
	TargetID  string    `json:"target_id" db:"target_id"`
	Payload   string    `json:"payload" db:"payload"`
	Round     int       `json:"round" db:"round"`
}

// EventRepository defines the interface for durable event persistence.
type EventRepository interface {
	// Append adds a new event to the immutable ledger.
	Append(ctx context.Context, event EventRecord) error

	// GetSince retrieves events recorded at or after the given time, oldest first.
	GetSince(ctx context.Context, since time.Time) ([]EventRecord, error)
}
