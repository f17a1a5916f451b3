package game

import (
	"sync"
	"time"
)

// DefaultFeedCapacity bounds the activity feed when no capacity is configured.
const DefaultFeedCapacity = 20

// FeedEntry is a single human-readable activity feed line.
type FeedEntry struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Feed is the bounded, most-recent-first activity log. Entries beyond the
// capacity are evicted oldest-first.
type Feed struct {
	mu       sync.Mutex
	entries  []FeedEntry
	capacity int
}

// NewFeed creates a feed with the given capacity (DefaultFeedCapacity when <= 0).
func NewFeed(capacity int) *Feed {
	if capacity <= 0 {
		capacity = DefaultFeedCapacity
	}
	return &Feed{capacity: capacity}
}

// Add prepends a new entry, evicting the oldest entry beyond capacity.
func (f *Feed) Add(message string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entry := FeedEntry{Message: message, Timestamp: time.Now()}
	f.entries = append([]FeedEntry{entry}, f.entries...)
	if len(f.entries) > f.capacity {
		f.entries = f.entries[:f.capacity]
	}
}

// Entries returns a copy of the feed, most recent first.
func (f *Feed) Entries() []FeedEntry {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]FeedEntry, len(f.entries))
	copy(out, f.entries)
	return out
}
