package domain

import "time"

// Difficulty grades a question and selects its point value.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Valid reports whether d is one of the known difficulties.
func (d Difficulty) Valid() bool {
	switch d {
	case Easy, Medium, Hard:
		return true
	}
	return false
}

// Question models an MCQ question with exactly one correct option.
type Question struct {
	ID               string     `json:"id" yaml:"id"`
	Prompt           string     `json:"prompt" yaml:"prompt"`
	Options          []string   `json:"options" yaml:"options"`
	CorrectOption    string     `json:"correctOption" yaml:"correct_option"`
	Explanation      string     `json:"explanation" yaml:"explanation"`
	Category         string     `json:"category" yaml:"category"`
	Difficulty       Difficulty `json:"difficulty" yaml:"difficulty"`
	TimeLimitSeconds int        `json:"timeLimitSeconds" yaml:"time_limit_seconds"`
	Hints            []string   `json:"hints,omitempty" yaml:"hints,omitempty"`
}

// SessionQuestion binds a question to the option order shown in one session.
type SessionQuestion struct {
	Question Question `json:"question"`
	// Options is the session-specific permutation of Question.Options.
	Options []string `json:"options"`
	// TimeLimitSeconds is the effective limit after balance overrides.
	TimeLimitSeconds int `json:"timeLimitSeconds"`
}

// AnswerRecord is the immutable outcome of one question.
// SelectedOption is nil when the timer expired with nothing selected.
type AnswerRecord struct {
	QuestionID       string     `json:"questionId"`
	Difficulty       Difficulty `json:"difficulty"`
	SelectedOption   *string    `json:"selectedOption"`
	IsCorrect        bool       `json:"isCorrect"`
	TimeSpentSeconds int        `json:"timeSpentSeconds"`
	TimedOut         bool       `json:"timedOut"`
}

// Phase is the sub-state of a session.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseAwaitingAnswer
	PhaseAnswered
	PhaseCompleted
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not_started"
	case PhaseAwaitingAnswer:
		return "awaiting_answer"
	case PhaseAnswered:
		return "answered"
	case PhaseCompleted:
		return "completed"
	}
	return "unknown"
}

// InProgress reports whether a question is currently being served.
func (p Phase) InProgress() bool {
	return p == PhaseAwaitingAnswer || p == PhaseAnswered
}

// Trigger is a semantic achievement signal; unlock rules live elsewhere.
type Trigger string

const (
	TriggerFirstQuiz      Trigger = "first_quiz_completed"
	TriggerPerfectScore   Trigger = "perfect_score"
	TriggerFastCompletion Trigger = "fast_completion"
	TriggerStreak5        Trigger = "streak_5"
	TriggerHighScorer     Trigger = "high_scorer"
	TriggerQuizWarrior    Trigger = "quiz_warrior"
	TriggerMathMaster     Trigger = "math_master"
	TriggerCategoryExpert Trigger = "category_expert"
)

// SessionSummary is the read-only result handed to collaborators at completion.
type SessionSummary struct {
	SessionID      string         `json:"sessionId"`
	UserID         string         `json:"userId,omitempty"`
	Category       string         `json:"category"`
	TotalQuestions int            `json:"totalQuestions"`
	CorrectCount   int            `json:"correctCount"`
	Percentage     int            `json:"percentage"`
	Points         int            `json:"points"`
	ElapsedSeconds int            `json:"elapsedSeconds"`
	BestStreak     int            `json:"bestStreak"`
	FinalStreak    int            `json:"finalStreak"`
	HintsUsed      int            `json:"hintsUsed"`
	Answers        []AnswerRecord `json:"answers"`
	Triggers       []Trigger      `json:"triggers"`
	CompletedAt    time.Time      `json:"completedAt"`
}

// Profile is the cumulative per-user record kept by a ProfileStore.
type Profile struct {
	UserID              string    `json:"userId"`
	DisplayName         string    `json:"displayName"`
	TotalScore          int       `json:"totalScore"`
	TotalXP             int       `json:"totalXp"`
	QuizzesCompleted    int       `json:"quizzesCompleted"`
	BestStreak          int       `json:"bestStreak"`
	CategoriesCompleted []string  `json:"categoriesCompleted"`
	DailyStreak         int       `json:"dailyStreak"`
	LastDailyDate       string    `json:"lastDailyDate,omitempty"`
	LastDailyPoints     int       `json:"lastDailyPoints"`
	LastDailyRewards    []string  `json:"lastDailyRewards,omitempty"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// LeaderboardEntry is one completed session on the scoreboard.
type LeaderboardEntry struct {
	UserID         string    `json:"userId"`
	DisplayName    string    `json:"displayName"`
	Category       string    `json:"category"`
	Score          int       `json:"score"`
	ElapsedSeconds int       `json:"elapsedSeconds"`
	RecordedAt     time.Time `json:"recordedAt"`
}

// Leaderboard captures the ordered scoreboard for a category.
type Leaderboard struct {
	Category  string             `json:"category"`
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}
