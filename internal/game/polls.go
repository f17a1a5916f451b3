package game

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/reddrevolt/revolt-server/internal/events"
	"github.com/reddrevolt/revolt-server/internal/platform/logger"
	"github.com/reddrevolt/revolt-server/internal/platform/metrics"
)

// Poll is a time-bounded vote. Votes maps option -> voter player ids; a
// player id appears in at most one option's set. Once closed a poll is
// immutable.
type Poll struct {
	ID       string              `json:"id"`
	Question string              `json:"question"`
	Options  []string            `json:"options"`
	Votes    map[string][]string `json:"votes"`
	EndsAt   time.Time           `json:"endsAt"`
	IsClosed bool                `json:"isClosed"`
}

// PollManager tracks polls and enforces one vote per player per poll.
// First vote wins; later votes are silently ignored, not errors.
type PollManager struct {
	mu       sync.RWMutex
	polls    map[string]*Poll
	order    []string // creation order, for CurrentPoll
	duration time.Duration
	feed     *Feed
	eventLog *events.EventLog
	logger   *logger.Logger
	metrics  *metrics.Collector

	now func() time.Time // swappable clock for tests
}

// NewPollManager creates a poll manager whose polls stay open for duration.
func NewPollManager(duration time.Duration, feed *Feed, eventLog *events.EventLog, log *logger.Logger) *PollManager {
	return &PollManager{
		polls:    make(map[string]*Poll),
		duration: duration,
		feed:     feed,
		eventLog: eventLog,
		logger:   log,
		metrics:  metrics.Get(),
		now:      time.Now,
	}
}

// CreatePoll opens a new poll with a time-ordered unique id.
func (pm *PollManager) CreatePoll(question string, options []string) *Poll {
	now := pm.now()
	poll := &Poll{
		ID:       fmt.Sprintf("poll:%d-%s", now.UnixMilli(), uuid.NewString()[:8]),
		Question: question,
		Options:  append([]string(nil), options...),
		Votes:    make(map[string][]string),
		EndsAt:   now.Add(pm.duration),
	}

	pm.mu.Lock()
	pm.polls[poll.ID] = poll
	pm.order = append(pm.order, poll.ID)
	pm.mu.Unlock()

	pm.feed.Add(fmt.Sprintf("A new poll has opened: %s", question))
	pm.eventLog.Append(events.GameEvent{
		Type:     events.EventTypePollCreated,
		ActorID:  "system",
		TargetID: poll.ID,
		Payload:  map[string]interface{}{"question": question, "options": options},
	})
	pm.metrics.RecordPollCreated()
	return copyPoll(poll)
}

// Vote records playerID's vote for option. It is a silent no-op when the
// poll does not exist, the option is not one of the poll's options, or the
// player already voted in this poll in any option. Returns whether the vote
// was recorded.
func (pm *PollManager) Vote(pollID, option, playerID string) bool {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	poll, ok := pm.polls[pollID]
	if !ok || poll.IsClosed {
		pm.metrics.RecordVote(false)
		return false
	}

	valid := false
	for _, o := range poll.Options {
		if o == option {
			valid = true
			break
		}
	}
	if !valid {
		pm.metrics.RecordVote(false)
		return false
	}

	for _, voters := range poll.Votes {
		for _, id := range voters {
			if id == playerID {
				pm.metrics.RecordVote(false)
				return false // first vote wins
			}
		}
	}

	poll.Votes[option] = append(poll.Votes[option], playerID)
	pm.eventLog.Append(events.GameEvent{
		Type:     events.EventTypePollVote,
		ActorID:  playerID,
		TargetID: pollID,
		Payload:  map[string]string{"option": option},
	})
	pm.metrics.RecordVote(true)
	return true
}

// Results returns per-option vote counts, zero-filled for options with no
// votes. ok is false when the poll is unknown.
func (pm *PollManager) Results(pollID string) (map[string]int, bool) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	poll, exists := pm.polls[pollID]
	if !exists {
		return nil, false
	}

	results := make(map[string]int, len(poll.Options))
	for _, option := range poll.Options {
		results[option] = len(poll.Votes[option])
	}
	return results, true
}

// ClosePoll idempotently marks the poll closed.
func (pm *PollManager) ClosePoll(pollID string) {
	pm.mu.Lock()
	poll, exists := pm.polls[pollID]
	if !exists || poll.IsClosed {
		pm.mu.Unlock()
		return
	}
	poll.IsClosed = true
	question := poll.Question
	pm.mu.Unlock()

	pm.feed.Add(fmt.Sprintf("The poll \"%s\" has ended.", question))
	pm.eventLog.Append(events.GameEvent{
		Type:     events.EventTypePollClosed,
		ActorID:  "system",
		TargetID: pollID,
	})
	pm.logger.Event("POLL_CLOSED", "system", question)
	pm.metrics.RecordPollClosed()
}

// CloseExpired closes every open poll whose end time has passed and returns
// how many were closed. Runs on the poll sweep schedule.
func (pm *PollManager) CloseExpired() int {
	now := pm.now()

	pm.mu.RLock()
	var expired []string
	for id, poll := range pm.polls {
		if !poll.IsClosed && !poll.EndsAt.After(now) {
			expired = append(expired, id)
		}
	}
	pm.mu.RUnlock()

	for _, id := range expired {
		pm.ClosePoll(id)
	}
	return len(expired)
}

// CurrentPoll returns the oldest open, unexpired poll, or nil.
func (pm *PollManager) CurrentPoll() *Poll {
	now := pm.now()
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	for _, id := range pm.order {
		poll := pm.polls[id]
		if !poll.IsClosed && poll.EndsAt.After(now) {
			return copyPoll(poll)
		}
	}
	return nil
}

// Polls returns a snapshot of all polls in creation order.
func (pm *PollManager) Polls() []Poll {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	out := make([]Poll, 0, len(pm.order))
	for _, id := range pm.order {
		out = append(out, *copyPoll(pm.polls[id]))
	}
	return out
}

func copyPoll(p *Poll) *Poll {
	dup := *p
	dup.Options = append([]string(nil), p.Options...)
	dup.Votes = make(map[string][]string, len(p.Votes))
	for option, voters := range p.Votes {
		dup.Votes[option] = append([]string(nil), voters...)
	}
	return &dup
}
