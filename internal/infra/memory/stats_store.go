package memory

import (
	"context"
	"fmt"
	"sync"

	"quiz-arena-service/internal/domain"
	"quiz-arena-service/internal/stats"
)

// PlayerStats is the aggregate kept per player.
type PlayerStats struct {
	PlayerID     string
	Completions  int
	TotalScore   int
	BestScore    int
	BestStreak   int
	Coins        int
	Achievements map[string]bool
}

// StatsStore keeps player statistics in process. It is the default
// stats.Reporter when no external store is configured.
type StatsStore struct {
	mu       sync.RWMutex
	players  map[string]*PlayerStats
	recorded map[[2]string]struct{}
}

func NewStatsStore() *StatsStore {
	return &StatsStore{
		players:  make(map[string]*PlayerStats),
		recorded: make(map[[2]string]struct{}),
	}
}

func (s *StatsStore) RecordCompletion(_ context.Context, c domain.Completion) ([]string, error) {
	if c.PlayerID == "" {
		return nil, fmt.Errorf("record completion: %w", domain.ErrInvalidPlayer)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.RunID != "" {
		key := [2]string{c.RunID, c.PlayerID}
		if _, ok := s.recorded[key]; ok {
			return nil, nil
		}
		s.recorded[key] = struct{}{}
	}

	p := s.player(c.PlayerID)
	earned := stats.Evaluate(c, stats.History{
		Completions: p.Completions,
		TotalScore:  p.TotalScore,
		Unlocked:    p.Achievements,
	})
	p.Completions++
	p.TotalScore += c.Score
	p.BestScore = max(p.BestScore, c.Score)
	p.BestStreak = max(p.BestStreak, c.Streak)
	for _, id := range earned {
		p.Achievements[id] = true
	}
	return earned, nil
}

func (s *StatsStore) UpdateCoins(_ context.Context, playerID string, balance int) error {
	if playerID == "" {
		return fmt.Errorf("update coins: %w", domain.ErrInvalidPlayer)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.player(playerID).Coins = balance
	return nil
}

// Get returns a copy of the player's stats.
func (s *StatsStore) Get(playerID string) (PlayerStats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[playerID]
	if !ok {
		return PlayerStats{}, false
	}
	out := *p
	out.Achievements = make(map[string]bool, len(p.Achievements))
	for k, v := range p.Achievements {
		out.Achievements[k] = v
	}
	return out, true
}

func (s *StatsStore) player(id string) *PlayerStats {
	p, ok := s.players[id]
	if !ok {
		p = &PlayerStats{PlayerID: id, Achievements: make(map[string]bool)}
		s.players[id] = p
	}
	return p
}
