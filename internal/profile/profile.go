package profile

import (
	"context"
	"slices"
	"time"

	"quiz-session-engine/internal/domain"
	"quiz-session-engine/internal/scoring"
)

const (
	HighScorerThreshold = 1000
	QuizWarriorCount    = 25
	MathMasterQuizzes   = 10
	MathMasterAverage   = 80
)

// Store persists cumulative player profiles.
// Load returns (nil, nil) when the user has no profile.
type Store interface {
	Load(ctx context.Context, userID string) (*domain.Profile, error)
	Save(ctx context.Context, p domain.Profile) error
}

// New returns an empty profile.
func New(userID, displayName string, now time.Time) domain.Profile {
	return domain.Profile{
		UserID:              userID,
		DisplayName:         displayName,
		CategoriesCompleted: []string{},
		UpdatedAt:           now,
	}
}

// Register creates a profile unless one already exists, in which case the
// stored one is returned unchanged.
func Register(ctx context.Context, store Store, userID, displayName string, now time.Time) (domain.Profile, error) {
	existing, err := store.Load(ctx, userID)
	if err != nil {
		return domain.Profile{}, err
	}
	if existing != nil {
		return *existing, nil
	}
	p := New(userID, displayName, now)
	if err := store.Save(ctx, p); err != nil {
		return domain.Profile{}, err
	}
	return p, nil
}

// Apply folds a completed session into p.
func Apply(p *domain.Profile, s domain.SessionSummary, now time.Time) {
	p.TotalScore += s.Percentage
	p.QuizzesCompleted++
	if s.BestStreak > p.BestStreak {
		p.BestStreak = s.BestStreak
	}
	p.TotalXP += s.Points
	if s.Category != "" && !slices.Contains(p.CategoriesCompleted, s.Category) {
		p.CategoriesCompleted = append(p.CategoriesCompleted, s.Category)
	}
	p.UpdatedAt = now
}

// AverageScore is the mean percentage over completed quizzes.
func AverageScore(p domain.Profile) int {
	if p.QuizzesCompleted == 0 {
		return 0
	}
	return p.TotalScore / p.QuizzesCompleted
}

// Level maps the cumulative score to a level.
func Level(p domain.Profile) scoring.Level {
	return scoring.LevelFor(p.TotalScore)
}

// Triggers lists the cumulative triggers p satisfies, given every category of the bank.
func Triggers(p domain.Profile, categories []string) []domain.Trigger {
	var out []domain.Trigger
	if p.TotalScore >= HighScorerThreshold {
		out = append(out, domain.TriggerHighScorer)
	}
	if p.QuizzesCompleted >= QuizWarriorCount {
		out = append(out, domain.TriggerQuizWarrior)
	}
	if p.QuizzesCompleted >= MathMasterQuizzes && AverageScore(p) > MathMasterAverage {
		out = append(out, domain.TriggerMathMaster)
	}
	if len(categories) > 0 && hasAll(p.CategoriesCompleted, categories) {
		out = append(out, domain.TriggerCategoryExpert)
	}
	return out
}

// NewTriggers returns the triggers satisfied by after but not by before.
func NewTriggers(before, after domain.Profile, categories []string) []domain.Trigger {
	had := Triggers(before, categories)
	var out []domain.Trigger
	for _, t := range Triggers(after, categories) {
		if !slices.Contains(had, t) {
			out = append(out, t)
		}
	}
	return out
}

func hasAll(have, want []string) bool {
	for _, c := range want {
		if !slices.Contains(have, c) {
			return false
		}
	}
	return true
}

func clone(p domain.Profile) domain.Profile {
	p.CategoriesCompleted = slices.Clone(p.CategoriesCompleted)
	p.LastDailyRewards = slices.Clone(p.LastDailyRewards)
	return p
}
