package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-session-engine/internal/domain"
	"quiz-session-engine/internal/leaderboard"
)

const maxElapsed = 99999

// Leaderboard keeps a sorted set per category plus a hash of entry details:
//
//	ZADD quiz:lb:{category} <rank score> {userID}
//	HSET quiz:lb:{category}:entries {userID} <json>
//
// The rank score folds percentage and speed together so ZREVRANGE returns
// the best runs first; remaining ties are settled by leaderboard.Sort.
type Leaderboard struct {
	client *redis.Client
	now    func() time.Time
}

func NewLeaderboard(client *redis.Client) *Leaderboard {
	return &Leaderboard{client: client, now: time.Now}
}

func rankScore(e domain.LeaderboardEntry) float64 {
	elapsed := e.ElapsedSeconds
	if elapsed > maxElapsed {
		elapsed = maxElapsed
	}
	if elapsed < 0 {
		elapsed = 0
	}
	return float64(e.Score)*100000 + float64(maxElapsed-elapsed)
}

func (l *Leaderboard) Record(ctx context.Context, entry domain.LeaderboardEntry) error {
	zkey, hkey := boardKeys(entry.Category)

	current, err := l.client.ZScore(ctx, zkey, entry.UserID).Result()
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		return fmt.Errorf("read rank: %w", err)
	case current >= rankScore(entry):
		return nil
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	_, err = l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, zkey, redis.Z{Score: rankScore(entry), Member: entry.UserID})
		pipe.HSet(ctx, hkey, entry.UserID, raw)
		return nil
	})
	if err != nil {
		return fmt.Errorf("record entry: %w", err)
	}
	return nil
}

func (l *Leaderboard) Top(ctx context.Context, category string, limit int) (domain.Leaderboard, error) {
	if limit <= 0 {
		limit = leaderboard.DefaultLimit
	}
	zkey, hkey := boardKeys(category)

	ids, err := l.client.ZRevRange(ctx, zkey, 0, int64(limit-1)).Result()
	if err != nil {
		return domain.Leaderboard{}, fmt.Errorf("read board: %w", err)
	}

	entries := make([]domain.LeaderboardEntry, 0, len(ids))
	if len(ids) > 0 {
		raws, err := l.client.HMGet(ctx, hkey, ids...).Result()
		if err != nil {
			return domain.Leaderboard{}, fmt.Errorf("read entries: %w", err)
		}
		for _, raw := range raws {
			s, ok := raw.(string)
			if !ok {
				continue
			}
			var e domain.LeaderboardEntry
			if err := json.Unmarshal([]byte(s), &e); err != nil {
				continue
			}
			entries = append(entries, e)
		}
	}
	leaderboard.Sort(entries)

	return domain.Leaderboard{
		Category:  category,
		Entries:   entries,
		UpdatedAt: l.now(),
	}, nil
}

func boardKeys(category string) (string, string) {
	z := "quiz:lb:" + category
	return z, z + ":entries"
}
