package event

import "quiz-session-engine/internal/domain"

// Event is anything published by a session.
type Event interface {
	Name() string
}

// QuestionChanged announces the question now awaiting an answer.
type QuestionChanged struct {
	SessionID  string                 `json:"sessionId"`
	Generation uint64                 `json:"generation"`
	Index      int                    `json:"index"`
	Total      int                    `json:"total"`
	Question   domain.SessionQuestion `json:"question"`
}

// AnswerSubmitted carries the new answer record and the streak after it.
type AnswerSubmitted struct {
	SessionID   string              `json:"sessionId"`
	Generation  uint64              `json:"generation"`
	Index       int                 `json:"index"`
	Answer      domain.AnswerRecord `json:"answer"`
	Streak      int                 `json:"streak"`
	Explanation string              `json:"explanation"`
	Correct     string              `json:"correctOption"`
}

// StreakChanged is published whenever the running streak value changes.
type StreakChanged struct {
	SessionID string `json:"sessionId"`
	Previous  int    `json:"previous"`
	Current   int    `json:"current"`
	Best      int    `json:"best"`
	Milestone bool   `json:"milestone"`
}

// SessionCompleted is published exactly once per started session.
type SessionCompleted struct {
	SessionID  string                `json:"sessionId"`
	Generation uint64                `json:"generation"`
	Summary    domain.SessionSummary `json:"summary"`
}

// Triggered carries a semantic achievement trigger for the rule engine.
type Triggered struct {
	SessionID string         `json:"sessionId"`
	UserID    string         `json:"userId"`
	Trigger   domain.Trigger `json:"trigger"`
}

func (QuestionChanged) Name() string  { return "question_changed" }
func (AnswerSubmitted) Name() string  { return "answer_submitted" }
func (StreakChanged) Name() string    { return "streak_changed" }
func (SessionCompleted) Name() string { return "session_completed" }
func (Triggered) Name() string        { return "triggered" }

// Sink receives typed session events. Returned errors are logged by the
// publisher and never affect the transition that produced the event.
type Sink interface {
	QuestionChanged(QuestionChanged) error
	AnswerSubmitted(AnswerSubmitted) error
	StreakChanged(StreakChanged) error
	SessionCompleted(SessionCompleted) error
	Triggered(Triggered) error
}

// NopSink ignores everything; embed it to implement only some methods.
type NopSink struct{}

func (NopSink) QuestionChanged(QuestionChanged) error   { return nil }
func (NopSink) AnswerSubmitted(AnswerSubmitted) error   { return nil }
func (NopSink) StreakChanged(StreakChanged) error       { return nil }
func (NopSink) SessionCompleted(SessionCompleted) error { return nil }
func (NopSink) Triggered(Triggered) error               { return nil }

// Funcs adapts plain functions to a Sink; nil fields are skipped.
type Funcs struct {
	OnQuestionChanged  func(QuestionChanged) error
	OnAnswerSubmitted  func(AnswerSubmitted) error
	OnStreakChanged    func(StreakChanged) error
	OnSessionCompleted func(SessionCompleted) error
	OnTriggered        func(Triggered) error
}

func (f Funcs) QuestionChanged(e QuestionChanged) error {
	if f.OnQuestionChanged == nil {
		return nil
	}
	return f.OnQuestionChanged(e)
}

func (f Funcs) AnswerSubmitted(e AnswerSubmitted) error {
	if f.OnAnswerSubmitted == nil {
		return nil
	}
	return f.OnAnswerSubmitted(e)
}

func (f Funcs) StreakChanged(e StreakChanged) error {
	if f.OnStreakChanged == nil {
		return nil
	}
	return f.OnStreakChanged(e)
}

func (f Funcs) SessionCompleted(e SessionCompleted) error {
	if f.OnSessionCompleted == nil {
		return nil
	}
	return f.OnSessionCompleted(e)
}

func (f Funcs) Triggered(e Triggered) error {
	if f.OnTriggered == nil {
		return nil
	}
	return f.OnTriggered(e)
}
