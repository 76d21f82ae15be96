package bank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-session-engine/internal/domain"
)

func q(id, category string) domain.Question {
	return domain.Question{
		ID:               id,
		Prompt:           "prompt " + id,
		Options:          []string{"a", "b", "c"},
		CorrectOption:    "b",
		Category:         category,
		Difficulty:       domain.Easy,
		TimeLimitSeconds: 10,
	}
}

func TestSelectFiltersAndKeepsOrder(t *testing.T) {
	pool := []domain.Question{q("1", "x"), q("2", "y"), q("3", "x"), q("4", "x")}

	got, err := Select(pool, "x", 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "3", got[1].ID)
	assert.Equal(t, "4", got[2].ID)
}

func TestSelectCount(t *testing.T) {
	pool := []domain.Question{q("1", "x"), q("2", "x"), q("3", "x")}

	got, err := Select(pool, "x", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = Select(pool, "x", 10)
	require.NoError(t, err)
	assert.Len(t, got, 3, "under-supply returns everything available")
}

func TestSelectEmptyCategory(t *testing.T) {
	pool := []domain.Question{q("1", "x")}

	_, err := Select(pool, "X", 0)
	assert.ErrorIs(t, err, domain.ErrEmptyCategory)

	_, err = Select(nil, "x", 0)
	assert.ErrorIs(t, err, domain.ErrEmptyCategory)
}

func TestCategories(t *testing.T) {
	pool := []domain.Question{q("1", "b"), q("2", "a"), q("3", "b")}
	assert.Equal(t, []string{"a", "b"}, Categories(pool))
}

func TestValidateQuestion(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.Question)
	}{
		{"missing id", func(x *domain.Question) { x.ID = "" }},
		{"one option", func(x *domain.Question) { x.Options = []string{"b"} }},
		{"duplicate option", func(x *domain.Question) { x.Options = []string{"a", "b", "a"} }},
		{"correct not an option", func(x *domain.Question) { x.CorrectOption = "z" }},
		{"zero time limit", func(x *domain.Question) { x.TimeLimitSeconds = 0 }},
		{"bad difficulty", func(x *domain.Question) { x.Difficulty = "extreme" }},
		{"missing category", func(x *domain.Question) { x.Category = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			question := q("1", "x")
			tt.mutate(&question)
			assert.ErrorIs(t, ValidateQuestion(question), domain.ErrInvalidQuestion)
		})
	}

	assert.NoError(t, ValidateQuestion(q("1", "x")))
}

func TestValidateDuplicateIDs(t *testing.T) {
	err := Validate([]domain.Question{q("1", "x"), q("1", "y")})
	assert.ErrorIs(t, err, domain.ErrInvalidQuestion)
}

func TestDefaultBank(t *testing.T) {
	f := Default()
	require.NotEmpty(t, f.Banks[DefaultBankID])
	require.NotEmpty(t, f.Banks[DailyBankID])
	assert.Equal(t, []string{"algebra", "geometry", "percentage", "roots"}, Categories(f.Banks[DefaultBankID]))

	first := f.Banks[DefaultBankID][0]
	assert.Equal(t, "alg-1", first.ID)
	assert.Len(t, first.Hints, 3)
}

func TestParseRejectsInvalidBank(t *testing.T) {
	_, err := Parse([]byte(`
banks:
  main:
    - id: q1
      prompt: broken
      options: ["a", "b"]
      correct_option: "c"
      category: x
      difficulty: easy
      time_limit_seconds: 10
`))
	assert.ErrorIs(t, err, domain.ErrInvalidQuestion)
}
