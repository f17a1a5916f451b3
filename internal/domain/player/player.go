// Package player defines the core domain entities for the faction game.
// This package is PURE and must NOT import any infrastructure packages (network, events, platform).
package player

import "time"

// Player represents a participant in the faction conflict.
type Player struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Faction string `json:"faction"` // Empty until the player joins; set exactly once
	Energy  int    `json:"energy"`  // Spendable action resource, never negative
	Karma   int    `json:"karma"`   // Externally supplied reputation score
	Rank    string `json:"rank"`    // Derived from Karma, cached

	CompletedQuests       []string `json:"completed_quests"`
	CompletedAchievements []string `json:"completed_achievements"`
}

// NewPlayer creates a fresh player with the configured starting energy.
func NewPlayer(id, name string, energy int) *Player {
	return &Player{
		ID:     id,
		Name:   name,
		Energy: energy,
	}
}

// HasCompletedQuest reports whether the quest id is already recorded.
func (p *Player) HasCompletedQuest(questID string) bool {
	for _, id := range p.CompletedQuests {
		if id == questID {
			return true
		}
	}
	return false
}

// HasCompletedAchievement reports whether the achievement id is already recorded.
func (p *Player) HasCompletedAchievement(achievementID string) bool {
	for _, id := range p.CompletedAchievements {
		if id == achievementID {
			return true
		}
	}
	return false
}

// Faction is one of the fixed set of teams players can join.
// Score may go negative; raids subtract from it.
type Faction struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Round is a fixed time window after which the leading faction is recorded
// and faction scores reset to baseline.
type Round struct {
	Number    int       `json:"number"`
	StartedAt time.Time `json:"started_at"`
	EndsAt    time.Time `json:"ends_at"`
}
