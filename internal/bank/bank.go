package bank

import (
	"fmt"
	"sort"

	"quiz-session-engine/internal/domain"
)

// Select filters the bank to an exact category match, keeping bank order.
// count <= 0 means every matching question; a count above supply returns all of them.
// Shuffling is left to the caller.
func Select(bank []domain.Question, category string, count int) ([]domain.Question, error) {
	var out []domain.Question
	for _, q := range bank {
		if q.Category == category {
			out = append(out, q)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %q", domain.ErrEmptyCategory, category)
	}
	if count > 0 && count < len(out) {
		out = out[:count]
	}
	return out, nil
}

// Categories lists the distinct categories of the bank in sorted order.
func Categories(bank []domain.Question) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, q := range bank {
		if _, ok := seen[q.Category]; ok {
			continue
		}
		seen[q.Category] = struct{}{}
		out = append(out, q.Category)
	}
	sort.Strings(out)
	return out
}

// ValidateQuestion checks the invariants of a single question.
func ValidateQuestion(q domain.Question) error {
	if q.ID == "" {
		return fmt.Errorf("%w: missing id", domain.ErrInvalidQuestion)
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("%w: %s needs at least 2 options", domain.ErrInvalidQuestion, q.ID)
	}
	seen := make(map[string]struct{}, len(q.Options))
	for _, opt := range q.Options {
		if _, dup := seen[opt]; dup {
			return fmt.Errorf("%w: %s has duplicate option %q", domain.ErrInvalidQuestion, q.ID, opt)
		}
		seen[opt] = struct{}{}
	}
	if _, ok := seen[q.CorrectOption]; !ok {
		return fmt.Errorf("%w: %s correct option %q is not an option", domain.ErrInvalidQuestion, q.ID, q.CorrectOption)
	}
	if q.TimeLimitSeconds <= 0 {
		return fmt.Errorf("%w: %s time limit must be positive", domain.ErrInvalidQuestion, q.ID)
	}
	if !q.Difficulty.Valid() {
		return fmt.Errorf("%w: %s unknown difficulty %q", domain.ErrInvalidQuestion, q.ID, q.Difficulty)
	}
	if q.Category == "" {
		return fmt.Errorf("%w: %s missing category", domain.ErrInvalidQuestion, q.ID)
	}
	return nil
}

// Validate checks every question and id uniqueness across the bank.
func Validate(bank []domain.Question) error {
	ids := make(map[string]struct{}, len(bank))
	for _, q := range bank {
		if err := ValidateQuestion(q); err != nil {
			return err
		}
		if _, dup := ids[q.ID]; dup {
			return fmt.Errorf("%w: duplicate id %s", domain.ErrInvalidQuestion, q.ID)
		}
		ids[q.ID] = struct{}{}
	}
	return nil
}
