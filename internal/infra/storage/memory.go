package storage

import (
	"context"
	"strconv"
	"sync"

	"github.com/reddrevolt/revolt-server/internal/domain/player"
)

// MemoryWorldStore is an in-memory WorldStore. It backs unit tests and the
// no-database development mode. A single mutex covers all maps, which makes
// every operation (including round advance) atomic.
type MemoryWorldStore struct {
	mu       sync.Mutex
	players  map[string]*player.Player
	factions map[string]*player.Faction
	round    player.Round
	hasRound bool
	kv       map[string]string
}

// NewMemoryWorldStore creates an empty in-memory world store.
func NewMemoryWorldStore() *MemoryWorldStore {
	return &MemoryWorldStore{
		players:  make(map[string]*player.Player),
		factions: make(map[string]*player.Faction),
		kv:       make(map[string]string),
	}
}

func copyPlayer(p *player.Player) *player.Player {
	dup := *p
	dup.CompletedQuests = append([]string(nil), p.CompletedQuests...)
	dup.CompletedAchievements = append([]string(nil), p.CompletedAchievements...)
	return &dup
}

func (s *MemoryWorldStore) GetPlayer(_ context.Context, id string) (*player.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyPlayer(p), nil
}

func (s *MemoryWorldStore) PutPlayer(_ context.Context, p *player.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[p.ID] = copyPlayer(p)
	return nil
}

func (s *MemoryWorldStore) EnsurePlayer(_ context.Context, p *player.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[p.ID]; !ok {
		s.players[p.ID] = copyPlayer(p)
	}
	return nil
}

func (s *MemoryWorldStore) GetFaction(_ context.Context, name string) (*player.Faction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.factions[name]
	if !ok {
		return nil, ErrNotFound
	}
	dup := *f
	return &dup, nil
}

func (s *MemoryWorldStore) ListFactions(_ context.Context) ([]player.Faction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	factions := make([]player.Faction, 0, len(s.factions))
	for _, f := range s.factions {
		factions = append(factions, *f)
	}
	// Stable order for callers; map iteration is random.
	for i := 1; i < len(factions); i++ {
		for j := i; j > 0 && factions[j-1].Name > factions[j].Name; j-- {
			factions[j-1], factions[j] = factions[j], factions[j-1]
		}
	}
	return factions, nil
}

func (s *MemoryWorldStore) EnsureFaction(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.factions[name]; !ok {
		s.factions[name] = &player.Faction{Name: name}
	}
	return nil
}

func (s *MemoryWorldStore) AdjustFactionScore(_ context.Context, name string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.factions[name]
	if !ok {
		return ErrNotFound
	}
	f.Score += delta
	return nil
}

func (s *MemoryWorldStore) SpendEnergy(_ context.Context, id string, cost int) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return 0, false, ErrNotFound
	}
	if p.Energy < cost {
		return p.Energy, false, nil
	}
	p.Energy -= cost
	return p.Energy, true, nil
}

func (s *MemoryWorldStore) GrantEnergy(_ context.Context, id string, amount int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return 0, ErrNotFound
	}
	p.Energy += amount
	return p.Energy, nil
}

func (s *MemoryWorldStore) AssignFaction(_ context.Context, id, faction string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return false, ErrNotFound
	}
	if p.Faction != "" {
		return false, nil
	}
	p.Faction = faction
	return true, nil
}

func (s *MemoryWorldStore) SetKarma(_ context.Context, id string, karma int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return ErrNotFound
	}
	p.Karma = karma
	return nil
}

func (s *MemoryWorldStore) SetRank(_ context.Context, id, rank string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return ErrNotFound
	}
	p.Rank = rank
	return nil
}

func (s *MemoryWorldStore) AddCompletedQuest(_ context.Context, id, questID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return ErrNotFound
	}
	if !p.HasCompletedQuest(questID) {
		p.CompletedQuests = append(p.CompletedQuests, questID)
	}
	return nil
}

func (s *MemoryWorldStore) AddCompletedAchievement(_ context.Context, id, achievementID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return ErrNotFound
	}
	if !p.HasCompletedAchievement(achievementID) {
		p.CompletedAchievements = append(p.CompletedAchievements, achievementID)
	}
	return nil
}

func (s *MemoryWorldStore) GetRound(_ context.Context) (player.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasRound {
		return player.Round{}, ErrNotFound
	}
	return s.round, nil
}

func (s *MemoryWorldStore) AdvanceRound(_ context.Context, baseline int, next player.Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.factions {
		f.Score = baseline
	}
	s.round = next
	s.hasRound = true
	return nil
}

func (s *MemoryWorldStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.kv[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (s *MemoryWorldStore) Put(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv[key] = value
	return nil
}

func (s *MemoryWorldStore) IncrBy(_ context.Context, key string, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := 0
	if raw, ok := s.kv[key]; ok {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return 0, err
		}
		current = parsed
	}
	current += delta
	s.kv[key] = strconv.Itoa(current)
	return current, nil
}

var _ WorldStore = (*MemoryWorldStore)(nil)
var _ WorldStore = (*SQLiteWorldStore)(nil)
