package scoring

import "quiz-session-engine/internal/domain"

// PointsTable maps difficulty to points awarded for a correct answer.
type PointsTable map[domain.Difficulty]int

// DefaultPoints is the stock game balance.
var DefaultPoints = PointsTable{
	domain.Easy:   10,
	domain.Medium: 20,
	domain.Hard:   30,
}

// Balance holds the game-balance knobs that can be overridden from config.
type Balance struct {
	Points PointsTable
	// TimeLimits replaces a question's own limit for the given difficulty.
	TimeLimits map[domain.Difficulty]int
}

// DefaultBalance uses the stock points and each question's own time limit.
func DefaultBalance() Balance {
	return Balance{Points: DefaultPoints}
}

// PointsFor returns the points for a difficulty, falling back to the stock table
// for difficulties the override does not mention.
func (b Balance) PointsFor(d domain.Difficulty) int {
	if p, ok := b.Points[d]; ok {
		return p
	}
	return PointsFor(d)
}

// TimeLimit returns the effective countdown for q.
func (b Balance) TimeLimit(q domain.Question) int {
	if limit, ok := b.TimeLimits[q.Difficulty]; ok && limit > 0 {
		return limit
	}
	return q.TimeLimitSeconds
}

// AggregateScore sums the points of correct answers using this balance.
func (b Balance) AggregateScore(answers []domain.AnswerRecord) int {
	total := 0
	for _, a := range answers {
		if a.IsCorrect {
			total += b.PointsFor(a.Difficulty)
		}
	}
	return total
}

// PointsFor is the fixed stock table: easy 10, medium 20, hard 30.
func PointsFor(d domain.Difficulty) int {
	return DefaultPoints[d]
}

// IsCorrect reports whether selected is the question's correct option.
// A nil selection (timeout) is never correct.
func IsCorrect(q domain.Question, selected *string) bool {
	return selected != nil && *selected == q.CorrectOption
}

// NextStreak extends the streak on a correct answer and resets it otherwise.
func NextStreak(current int, correct bool) int {
	if correct {
		return current + 1
	}
	return 0
}

// Percentage returns round(100*correct/total) with halves rounded up.
// total must be positive.
func Percentage(correct, total int) int {
	return (200*correct + total) / (2 * total)
}

// AggregateScore sums stock points over correct answers.
func AggregateScore(answers []domain.AnswerRecord) int {
	return DefaultBalance().AggregateScore(answers)
}

// CorrectCount counts correct answers.
func CorrectCount(answers []domain.AnswerRecord) int {
	n := 0
	for _, a := range answers {
		if a.IsCorrect {
			n++
		}
	}
	return n
}
