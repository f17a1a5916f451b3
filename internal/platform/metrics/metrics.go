// Package metrics provides observability for the game server.
package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Collector gathers performance metrics.
type Collector struct {
	// Action metrics
	ActionsResolved int64
	ActionsRejected int64

	// Trigger metrics
	QuestsCompleted       int64
	AchievementsCompleted int64
	RankChanges           int64

	// Poll metrics
	VotesCast     int64
	VotesIgnored  int64
	PollsCreated  int64
	PollsClosed   int64
	RoundsResolved int64

	// Event ledger metrics
	EventsWritten    int64
	EventWriteLatSum int64 // nanoseconds
	EventWriteLatMax int64
	EventWriteErrors int64

	// WebSocket metrics
	WSConnectionsActive int64
	WSMessagesOut       int64
	WSErrors            int64

	// System
	StartTime time.Time
	mu        sync.RWMutex
}

// Global collector instance
var collector = &Collector{
	StartTime: time.Now(),
}

// Get returns the global collector.
func Get() *Collector {
	return collector
}

// RecordAction records a resolved or rejected player action.
func (c *Collector) RecordAction(success bool) {
	if success {
		atomic.AddInt64(&c.ActionsResolved, 1)
	} else {
		atomic.AddInt64(&c.ActionsRejected, 1)
	}
}

// RecordQuestComplete records a committed quest completion.
func (c *Collector) RecordQuestComplete() {
	atomic.AddInt64(&c.QuestsCompleted, 1)
}

// RecordAchievementComplete records a committed achievement completion.
func (c *Collector) RecordAchievementComplete() {
	atomic.AddInt64(&c.AchievementsCompleted, 1)
}

// RecordRankChange records a rank transition.
func (c *Collector) RecordRankChange() {
	atomic.AddInt64(&c.RankChanges, 1)
}

// RecordVote records an accepted or ignored poll vote.
func (c *Collector) RecordVote(accepted bool) {
	if accepted {
		atomic.AddInt64(&c.VotesCast, 1)
	} else {
		atomic.AddInt64(&c.VotesIgnored, 1)
	}
}

// RecordPollCreated records a new poll.
func (c *Collector) RecordPollCreated() {
	atomic.AddInt64(&c.PollsCreated, 1)
}

// RecordPollClosed records a poll transition to closed.
func (c *Collector) RecordPollClosed() {
	atomic.AddInt64(&c.PollsClosed, 1)
}

// RecordRoundResolved records a completed round resolution.
func (c *Collector) RecordRoundResolved() {
	atomic.AddInt64(&c.RoundsResolved, 1)
}

// RecordEventWrite records an event write to the ledger.
func (c *Collector) RecordEventWrite(latency time.Duration, err error) {
	atomic.AddInt64(&c.EventsWritten, 1)
	atomic.AddInt64(&c.EventWriteLatSum, int64(latency))

	// Update max (non-atomic but acceptable for metrics)
	if int64(latency) > atomic.LoadInt64(&c.EventWriteLatMax) {
		atomic.StoreInt64(&c.EventWriteLatMax, int64(latency))
	}

	if err != nil {
		atomic.AddInt64(&c.EventWriteErrors, 1)
	}
}

// RecordWSConnection records WebSocket connection changes.
func (c *Collector) RecordWSConnection(delta int64) {
	atomic.AddInt64(&c.WSConnectionsActive, delta)
}

// RecordWSMessage records an outbound WebSocket broadcast.
func (c *Collector) RecordWSMessage() {
	atomic.AddInt64(&c.WSMessagesOut, 1)
}

// RecordWSError records a WebSocket error.
func (c *Collector) RecordWSError() {
	atomic.AddInt64(&c.WSErrors, 1)
}

// Snapshot returns current metrics as a map.
func (c *Collector) Snapshot() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	eventsWritten := atomic.LoadInt64(&c.EventsWritten)
	var eventAvg float64
	if eventsWritten > 0 {
		eventAvg = float64(atomic.LoadInt64(&c.EventWriteLatSum)) / float64(eventsWritten) / 1e6 // ms
	}

	return map[string]interface{}{
		"uptime_seconds": time.Since(c.StartTime).Seconds(),

		"actions": map[string]interface{}{
			"resolved": atomic.LoadInt64(&c.ActionsResolved),
			"rejected": atomic.LoadInt64(&c.ActionsRejected),
		},

		"triggers": map[string]interface{}{
			"quests_completed":       atomic.LoadInt64(&c.QuestsCompleted),
			"achievements_completed": atomic.LoadInt64(&c.AchievementsCompleted),
			"rank_changes":           atomic.LoadInt64(&c.RankChanges),
		},

		"polls": map[string]interface{}{
			"created":       atomic.LoadInt64(&c.PollsCreated),
			"closed":        atomic.LoadInt64(&c.PollsClosed),
			"votes_cast":    atomic.LoadInt64(&c.VotesCast),
			"votes_ignored": atomic.LoadInt64(&c.VotesIgnored),
		},

		"rounds": map[string]interface{}{
			"resolved": atomic.LoadInt64(&c.RoundsResolved),
		},

		"events": map[string]interface{}{
			"written":          eventsWritten,
			"avg_write_lat_ms": eventAvg,
			"max_write_lat_ms": float64(atomic.LoadInt64(&c.EventWriteLatMax)) / 1e6,
			"errors":           atomic.LoadInt64(&c.EventWriteErrors),
		},

		"websocket": map[string]interface{}{
			"active_connections": atomic.LoadInt64(&c.WSConnectionsActive),
			"messages_out":       atomic.LoadInt64(&c.WSMessagesOut),
			"errors":             atomic.LoadInt64(&c.WSErrors),
		},
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")

		snapshot := collector.Snapshot()
		json.NewEncoder(w).Encode(snapshot)
	}
}

// PrometheusHandler returns metrics in Prometheus format.
func PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		c := collector

		fmt.Fprintf(w, "# HELP revolt_actions_total Player actions by outcome\n")
		fmt.Fprintf(w, "# TYPE revolt_actions_total counter\n")
		fmt.Fprintf(w, "revolt_actions_total{outcome=\"resolved\"} %d\n", atomic.LoadInt64(&c.ActionsResolved))
		fmt.Fprintf(w, "revolt_actions_total{outcome=\"rejected\"} %d\n\n", atomic.LoadInt64(&c.ActionsRejected))

		fmt.Fprintf(w, "# HELP revolt_quests_completed Total quest completions committed\n")
		fmt.Fprintf(w, "# TYPE revolt_quests_completed counter\n")
		fmt.Fprintf(w, "revolt_quests_completed %d\n\n", atomic.LoadInt64(&c.QuestsCompleted))

		fmt.Fprintf(w, "# HELP revolt_achievements_completed Total achievement completions committed\n")
		fmt.Fprintf(w, "# TYPE revolt_achievements_completed counter\n")
		fmt.Fprintf(w, "revolt_achievements_completed %d\n\n", atomic.LoadInt64(&c.AchievementsCompleted))

		fmt.Fprintf(w, "# HELP revolt_votes_total Poll votes by outcome\n")
		fmt.Fprintf(w, "# TYPE revolt_votes_total counter\n")
		fmt.Fprintf(w, "revolt_votes_total{outcome=\"cast\"} %d\n", atomic.LoadInt64(&c.VotesCast))
		fmt.Fprintf(w, "revolt_votes_total{outcome=\"ignored\"} %d\n\n", atomic.LoadInt64(&c.VotesIgnored))

		fmt.Fprintf(w, "# HELP revolt_polls_closed Total polls closed\n")
		fmt.Fprintf(w, "# TYPE revolt_polls_closed counter\n")
		fmt.Fprintf(w, "revolt_polls_closed %d\n\n", atomic.LoadInt64(&c.PollsClosed))

		fmt.Fprintf(w, "# HELP revolt_rounds_resolved Total rounds resolved\n")
		fmt.Fprintf(w, "# TYPE revolt_rounds_resolved counter\n")
		fmt.Fprintf(w, "revolt_rounds_resolved %d\n\n", atomic.LoadInt64(&c.RoundsResolved))

		fmt.Fprintf(w, "# HELP revolt_events_written Total events written to the ledger\n")
		fmt.Fprintf(w, "# TYPE revolt_events_written counter\n")
		fmt.Fprintf(w, "revolt_events_written %d\n\n", atomic.LoadInt64(&c.EventsWritten))

		fmt.Fprintf(w, "# HELP revolt_event_write_errors Total event write errors\n")
		fmt.Fprintf(w, "# TYPE revolt_event_write_errors counter\n")
		fmt.Fprintf(w, "revolt_event_write_errors %d\n\n", atomic.LoadInt64(&c.EventWriteErrors))

		fmt.Fprintf(w, "# HELP revolt_ws_connections Active WebSocket connections\n")
		fmt.Fprintf(w, "# TYPE revolt_ws_connections gauge\n")
		fmt.Fprintf(w, "revolt_ws_connections %d\n\n", atomic.LoadInt64(&c.WSConnectionsActive))

		fmt.Fprintf(w, "# HELP revolt_ws_messages_out Total WebSocket broadcasts\n")
		fmt.Fprintf(w, "# TYPE revolt_ws_messages_out counter\n")
		fmt.Fprintf(w, "revolt_ws_messages_out %d\n", atomic.LoadInt64(&c.WSMessagesOut))
	}
}
