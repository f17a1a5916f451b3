package game

import (
	"fmt"
	"testing"
)

func TestFeedIsBoundedMostRecentFirst(t *testing.T) {
	feed := NewFeed(20)

	for i := 0; i < 25; i++ {
		feed.Add(fmt.Sprintf("entry %d", i))
	}

	entries := feed.Entries()
	if len(entries) != 20 {
		t.Fatalf("Expected feed capped at 20 entries, got %d", len(entries))
	}
	if entries[0].Message != "entry 24" {
		t.Errorf("Expected most recent entry first, got %q", entries[0].Message)
	}
	if entries[19].Message != "entry 5" {
		t.Errorf("Expected oldest surviving entry to be 'entry 5', got %q", entries[19].Message)
	}
}

func TestFeedSnapshotIsDetached(t *testing.T) {
	feed := NewFeed(5)
	feed.Add("original")

	entries := feed.Entries()
	entries[0].Message = "tampered"

	if feed.Entries()[0].Message != "original" {
		t.Error("Expected feed state to be isolated from returned snapshots")
	}
}
