package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"quiz-session-engine/internal/domain"
)

// OpenDB opens a bun handle over the pgdriver connector.
func OpenDB(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

type profileModel struct {
	bun.BaseModel `bun:"table:profiles"`

	UserID              string    `bun:"user_id,pk"`
	DisplayName         string    `bun:"display_name"`
	TotalScore          int       `bun:"total_score"`
	TotalXP             int       `bun:"total_xp"`
	QuizzesCompleted    int       `bun:"quizzes_completed"`
	BestStreak          int       `bun:"best_streak"`
	CategoriesCompleted []string  `bun:"categories_completed,array"`
	DailyStreak         int       `bun:"daily_streak"`
	LastDailyDate       string    `bun:"last_daily_date"`
	LastDailyPoints     int       `bun:"last_daily_points"`
	LastDailyRewards    []string  `bun:"last_daily_rewards,array"`
	UpdatedAt           time.Time `bun:"updated_at"`
}

// ProfileStore persists profiles through bun.
type ProfileStore struct {
	db *bun.DB
}

func NewProfileStore(db *bun.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

func (s *ProfileStore) Load(ctx context.Context, userID string) (*domain.Profile, error) {
	var m profileModel
	err := s.db.NewSelect().Model(&m).Where("user_id = ?", userID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	p := m.toDomain()
	return &p, nil
}

func (s *ProfileStore) Save(ctx context.Context, p domain.Profile) error {
	m := fromDomain(p)
	_, err := s.db.NewInsert().
		Model(&m).
		On("CONFLICT (user_id) DO UPDATE").
		Set("display_name = EXCLUDED.display_name").
		Set("total_score = EXCLUDED.total_score").
		Set("total_xp = EXCLUDED.total_xp").
		Set("quizzes_completed = EXCLUDED.quizzes_completed").
		Set("best_streak = EXCLUDED.best_streak").
		Set("categories_completed = EXCLUDED.categories_completed").
		Set("daily_streak = EXCLUDED.daily_streak").
		Set("last_daily_date = EXCLUDED.last_daily_date").
		Set("last_daily_points = EXCLUDED.last_daily_points").
		Set("last_daily_rewards = EXCLUDED.last_daily_rewards").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func fromDomain(p domain.Profile) profileModel {
	categories := p.CategoriesCompleted
	if categories == nil {
		categories = []string{}
	}
	rewards := p.LastDailyRewards
	if rewards == nil {
		rewards = []string{}
	}
	updated := p.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	return profileModel{
		UserID:              p.UserID,
		DisplayName:         p.DisplayName,
		TotalScore:          p.TotalScore,
		TotalXP:             p.TotalXP,
		QuizzesCompleted:    p.QuizzesCompleted,
		BestStreak:          p.BestStreak,
		CategoriesCompleted: categories,
		DailyStreak:         p.DailyStreak,
		LastDailyDate:       p.LastDailyDate,
		LastDailyPoints:     p.LastDailyPoints,
		LastDailyRewards:    rewards,
		UpdatedAt:           updated,
	}
}

func (m profileModel) toDomain() domain.Profile {
	return domain.Profile{
		UserID:              m.UserID,
		DisplayName:         m.DisplayName,
		TotalScore:          m.TotalScore,
		TotalXP:             m.TotalXP,
		QuizzesCompleted:    m.QuizzesCompleted,
		BestStreak:          m.BestStreak,
		CategoriesCompleted: m.CategoriesCompleted,
		DailyStreak:         m.DailyStreak,
		LastDailyDate:       m.LastDailyDate,
		LastDailyPoints:     m.LastDailyPoints,
		LastDailyRewards:    m.LastDailyRewards,
		UpdatedAt:           m.UpdatedAt,
	}
}
