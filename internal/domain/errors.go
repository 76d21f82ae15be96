package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCategory is returned when a category has no questions in the bank.
	ErrEmptyCategory = errors.New("category has no questions")
	// ErrInvalidTransition indicates an operation that the current phase does not allow.
	ErrInvalidTransition = errors.New("invalid session transition")
	// ErrNoSelection rejects a manual submit before any option was selected.
	ErrNoSelection = fmt.Errorf("%w: no option selected", ErrInvalidTransition)
	// ErrUnknownOption indicates a selection that is not one of the question's options.
	ErrUnknownOption = errors.New("option not found")
	// ErrNoHintsLeft is returned when the question or the session has no more hints to reveal.
	ErrNoHintsLeft = errors.New("no hints left")
	// ErrInvalidQuestion indicates a question that breaks a bank invariant.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrBankNotFound indicates the question bank could not be loaded.
	ErrBankNotFound = errors.New("question bank not found")
	// ErrProfileNotFound is returned when a user has no stored profile.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrDailyCompleted is returned when the daily challenge was already played today.
	ErrDailyCompleted = errors.New("daily challenge already completed")
)

// SubscriberError wraps a failure raised by an event subscriber.
// It is logged at the emission boundary and never rolls back the transition.
type SubscriberError struct {
	Event      string
	Subscriber string
	Err        error
}

func (e *SubscriberError) Error() string {
	return fmt.Sprintf("subscriber %s failed on %s: %v", e.Subscriber, e.Event, e.Err)
}

func (e *SubscriberError) Unwrap() error {
	return e.Err
}
