package memory

import (
	"context"
	"sync"
	"time"

	"quiz-session-engine/internal/domain"
	"quiz-session-engine/internal/leaderboard"
)

// Leaderboard keeps each player's best entry per category in memory.
type Leaderboard struct {
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]map[string]domain.LeaderboardEntry
}

func NewLeaderboard() *Leaderboard {
	return newLeaderboardWithClock(time.Now)
}

func newLeaderboardWithClock(now func() time.Time) *Leaderboard {
	return &Leaderboard{
		now:     now,
		entries: make(map[string]map[string]domain.LeaderboardEntry),
	}
}

// Record keeps entry only if it beats the player's current best.
func (l *Leaderboard) Record(_ context.Context, entry domain.LeaderboardEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	board, ok := l.entries[entry.Category]
	if !ok {
		board = make(map[string]domain.LeaderboardEntry)
		l.entries[entry.Category] = board
	}
	if current, ok := board[entry.UserID]; ok && !leaderboard.Less(entry, current) {
		return nil
	}
	board[entry.UserID] = entry
	return nil
}

func (l *Leaderboard) Top(_ context.Context, category string, limit int) (domain.Leaderboard, error) {
	if limit <= 0 {
		limit = leaderboard.DefaultLimit
	}

	l.mu.RLock()
	entries := make([]domain.LeaderboardEntry, 0, len(l.entries[category]))
	for _, e := range l.entries[category] {
		entries = append(entries, e)
	}
	l.mu.RUnlock()

	leaderboard.Sort(entries)
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return domain.Leaderboard{
		Category:  category,
		Entries:   entries,
		UpdatedAt: l.now(),
	}, nil
}
