// Package events provides the append-only domain event log for the game.
// Every state transition of interest (actions, poll lifecycle, rank changes,
// round resolution) is recorded here and streamed out to observers.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType defines the category of a game event.
type EventType string

const (
	EventTypeFactionJoin         EventType = "FACTION_JOIN"
	EventTypeRaid                EventType = "RAID"
	EventTypeDefend              EventType = "DEFEND"
	EventTypeInfluence           EventType = "INFLUENCE"
	EventTypeEnergyGrant         EventType = "ENERGY_GRANT"
	EventTypeQuestComplete       EventType = "QUEST_COMPLETE"
	EventTypeAchievementComplete EventType = "ACHIEVEMENT_COMPLETE"
	EventTypeRankChange          EventType = "RANK_CHANGE"
	EventTypePollCreated         EventType = "POLL_CREATED"
	EventTypePollVote            EventType = "POLL_VOTE"
	EventTypePollClosed          EventType = "POLL_CLOSED"
	EventTypeRoundResolved       EventType = "ROUND_RESOLVED"
)

// GameEvent represents an immutable record of an action in the game.
type GameEvent struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Type      EventType   `json:"type"`
	ActorID   string      `json:"actor_id"` // Who performed the action
	TargetID  string      `json:"target_id"`
	Payload   interface{} `json:"payload"` // Event-specific data
	Round     int         `json:"round"`
}

// EventPersister defines how an event is durably stored.
type EventPersister interface {
	Append(event GameEvent) error
}

// EventLog is the in-memory append-only log of game events with an optional
// write-through persister.
type EventLog struct {
	mu        sync.RWMutex
	events    []GameEvent
	persister EventPersister
}

// NewEventLog creates a new event log with an optional persister.
func NewEventLog(persister EventPersister) *EventLog {
	return &EventLog{
		events:    make([]GameEvent, 0),
		persister: persister,
	}
}

// Append adds a new event to the log. Events are immutable once appended.
// Missing id/timestamp fields are filled in.
func (el *EventLog) Append(event GameEvent) {
	if event.ID == "" {
		event.ID = NewEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	el.mu.Lock()
	el.events = append(el.events, event)
	el.mu.Unlock()

	if el.persister != nil {
		// Write through to persistent storage off the hot path.
		go func(e GameEvent) {
			_ = el.persister.Append(e)
		}(event)
	}
}

// GetByActor returns all events performed by a specific actor.
func (el *EventLog) GetByActor(actorID string) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.ActorID == actorID {
			result = append(result, e)
		}
	}
	return result
}

// Replay returns the full history of events in append order.
func (el *EventLog) Replay() []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return el.events
}

// NewEventID creates a unique event identifier.
func NewEventID() string {
	return uuid.New().String()
}
