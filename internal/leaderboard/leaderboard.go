package leaderboard

import (
	"context"
	"log"
	"sort"
	"time"

	"quiz-session-engine/internal/domain"
	"quiz-session-engine/internal/event"
)

const (
	DefaultLimit  = 10
	recordTimeout = 5 * time.Second
)

// Board keeps each player's best completed session per category.
type Board interface {
	Record(ctx context.Context, entry domain.LeaderboardEntry) error
	Top(ctx context.Context, category string, limit int) (domain.Leaderboard, error)
}

// Less orders entries: score desc, then faster runs, then whoever got there
// earlier, then by name.
func Less(a, b domain.LeaderboardEntry) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.ElapsedSeconds != b.ElapsedSeconds {
		return a.ElapsedSeconds < b.ElapsedSeconds
	}
	if !a.RecordedAt.Equal(b.RecordedAt) {
		return a.RecordedAt.Before(b.RecordedAt)
	}
	return a.DisplayName < b.DisplayName
}

// Sort orders entries in place.
func Sort(entries []domain.LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool { return Less(entries[i], entries[j]) })
}

// EntryFrom builds a board entry from a completed session.
func EntryFrom(userID, displayName string, s domain.SessionSummary) domain.LeaderboardEntry {
	return domain.LeaderboardEntry{
		UserID:         userID,
		DisplayName:    displayName,
		Category:       s.Category,
		Score:          s.Percentage,
		ElapsedSeconds: s.ElapsedSeconds,
		RecordedAt:     s.CompletedAt,
	}
}

// Recorder posts completed sessions to a Board.
type Recorder struct {
	event.NopSink

	board       Board
	userID      string
	displayName string
}

func NewRecorder(board Board, userID, displayName string) *Recorder {
	return &Recorder{board: board, userID: userID, displayName: displayName}
}

func (r *Recorder) SessionCompleted(e event.SessionCompleted) error {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := r.board.Record(ctx, EntryFrom(r.userID, r.displayName, e.Summary)); err != nil {
		log.Printf("leaderboard: record %s/%s: %v", e.Summary.Category, r.userID, err)
		return err
	}
	return nil
}
