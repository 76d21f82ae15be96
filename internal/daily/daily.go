package daily

import (
	"context"
	"fmt"
	"log"
	"slices"
	"time"

	"quiz-session-engine/internal/domain"
	"quiz-session-engine/internal/event"
	"quiz-session-engine/internal/profile"
	"quiz-session-engine/internal/session"
	"quiz-session-engine/internal/shuffle"
)

// Category is the bank category daily questions are filed under.
const Category = "daily"

const (
	DefaultQuestions = 3
	DefaultSalt      = "daily-challenge"

	ChampionPoints     = 80
	StreakMasterStreak = 3
	WeeklyWarriorDays  = 7
)

// Rewards granted by a daily run.
const (
	RewardChampion      = "champion"
	RewardStreakMaster  = "streak_master"
	RewardWeeklyWarrior = "weekly_warrior"
	RewardPerfect       = "perfect"
)

const dateLayout = "2006-01-02"

type Config struct {
	Questions int
	Salt      string
	Session   session.Config
}

// Result is what a completed daily run earned.
type Result struct {
	Date        string   `json:"date"`
	Points      int      `json:"points"`
	Percentage  int      `json:"percentage"`
	DailyStreak int      `json:"dailyStreak"`
	Rewards     []string `json:"rewards"`
}

// Challenge runs the once-a-day quiz: every player gets the same questions in
// the same order on a given calendar day.
type Challenge struct {
	store  profile.Store
	cfg    Config
	logger *log.Logger
	now    func() time.Time
}

func New(store profile.Store, cfg Config, logger *log.Logger) *Challenge {
	if cfg.Questions <= 0 {
		cfg.Questions = DefaultQuestions
	}
	if cfg.Salt == "" {
		cfg.Salt = DefaultSalt
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Challenge{store: store, cfg: cfg, logger: logger, now: time.Now}
}

// Today is the calendar day key used for eligibility.
func (c *Challenge) Today() string {
	return c.now().Format(dateLayout)
}

// Check returns ErrDailyCompleted when userID already played today.
func (c *Challenge) Check(ctx context.Context, userID string) error {
	p, err := c.store.Load(ctx, userID)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("%w: %s", domain.ErrProfileNotFound, userID)
	}
	if p.LastDailyDate == c.Today() {
		return domain.ErrDailyCompleted
	}
	return nil
}

// NewSession builds a session over the daily bank with today's seed.
// The caller starts it with Start(Category).
func (c *Challenge) NewSession(ctx context.Context, userID string, questions []domain.Question, deps session.Deps) (*session.Session, error) {
	if err := c.Check(ctx, userID); err != nil {
		return nil, err
	}
	cfg := c.cfg.Session
	cfg.QuestionsPerSession = c.cfg.Questions
	deps.Shuffler = shuffle.Seeded(shuffle.DailySeed(c.now(), c.cfg.Salt))
	deps.UserID = userID
	return session.New(questions, deps, cfg), nil
}

// Rewards applies the daily reward policy.
func Rewards(points, finalStreak, dailyStreak, percentage int) []string {
	var out []string
	if points >= ChampionPoints {
		out = append(out, RewardChampion)
	}
	if finalStreak >= StreakMasterStreak {
		out = append(out, RewardStreakMaster)
	}
	if dailyStreak >= WeeklyWarriorDays {
		out = append(out, RewardWeeklyWarrior)
	}
	if percentage == 100 {
		out = append(out, RewardPerfect)
	}
	return out
}

// Complete records a finished daily run on the player's profile.
func (c *Challenge) Complete(ctx context.Context, userID string, s domain.SessionSummary) (Result, error) {
	p, err := c.store.Load(ctx, userID)
	if err != nil {
		return Result{}, err
	}
	if p == nil {
		return Result{}, fmt.Errorf("%w: %s", domain.ErrProfileNotFound, userID)
	}

	now := c.now()
	today := now.Format(dateLayout)
	if p.LastDailyDate == today {
		return Result{}, domain.ErrDailyCompleted
	}

	streak := 1
	if p.LastDailyDate == now.AddDate(0, 0, -1).Format(dateLayout) {
		streak = p.DailyStreak + 1
	}

	points := s.Points
	res := Result{
		Date:        today,
		Points:      points,
		Percentage:  s.Percentage,
		DailyStreak: streak,
		Rewards:     Rewards(points, s.FinalStreak, streak, s.Percentage),
	}

	p.DailyStreak = streak
	p.LastDailyDate = today
	p.LastDailyPoints = points
	p.LastDailyRewards = slices.Clone(res.Rewards)
	p.TotalXP += points
	p.UpdatedAt = now
	if err := c.store.Save(ctx, *p); err != nil {
		return Result{}, err
	}
	return res, nil
}

// Recorder completes the daily run when the session finishes and reports
// rewards as triggers prefixed with "daily_".
type Recorder struct {
	event.NopSink

	challenge *Challenge
	userID    string
	triggers  event.Sink
}

func (c *Challenge) Recorder(userID string, triggers event.Sink) *Recorder {
	if triggers == nil {
		triggers = event.NopSink{}
	}
	return &Recorder{challenge: c, userID: userID, triggers: triggers}
}

func (r *Recorder) SessionCompleted(e event.SessionCompleted) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := r.challenge.Complete(ctx, r.userID, e.Summary)
	if err != nil {
		return err
	}
	r.challenge.logger.Printf("daily: %s scored %d on %s (streak %d, rewards %v)", r.userID, res.Points, res.Date, res.DailyStreak, res.Rewards)
	for _, reward := range res.Rewards {
		_ = r.triggers.Triggered(event.Triggered{
			SessionID: e.SessionID,
			UserID:    r.userID,
			Trigger:   domain.Trigger("daily_" + reward),
		})
	}
	return nil
}
