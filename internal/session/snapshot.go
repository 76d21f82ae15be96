package session

import (
	"slices"

	"quiz-session-engine/internal/domain"
)

// LastAnswer is the outcome shown while a question is in the answered phase.
type LastAnswer struct {
	Answer        domain.AnswerRecord `json:"answer"`
	CorrectOption string              `json:"correctOption"`
	Explanation   string              `json:"explanation"`
}

// Snapshot is a point-in-time copy of the session state.
type Snapshot struct {
	SessionID        string                  `json:"sessionId"`
	Generation       uint64                  `json:"generation"`
	Category         string                  `json:"category"`
	Phase            string                  `json:"phase"`
	Index            int                     `json:"index"`
	Total            int                     `json:"total"`
	Question         *domain.SessionQuestion `json:"question,omitempty"`
	Pending          *string                 `json:"pending,omitempty"`
	Last             *LastAnswer             `json:"last,omitempty"`
	Answers          []domain.AnswerRecord   `json:"answers"`
	Streak           int                     `json:"streak"`
	BestStreak       int                     `json:"bestStreak"`
	ElapsedSeconds   int                     `json:"elapsedSeconds"`
	RemainingSeconds int                     `json:"remainingSeconds"`
	HintsUsed        int                     `json:"hintsUsed"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		SessionID:      s.id,
		Generation:     s.generation,
		Category:       s.category,
		Phase:          s.phase.String(),
		Index:          s.index,
		Total:          len(s.questions),
		Answers:        make([]domain.AnswerRecord, len(s.answers)),
		Streak:         s.streak,
		BestStreak:     s.bestStreak,
		ElapsedSeconds: s.elapsed,
		HintsUsed:      s.hintsUsed,
	}
	for i, a := range s.answers {
		snap.Answers[i] = cloneAnswer(a)
	}
	if s.pending != nil {
		v := *s.pending
		snap.Pending = &v
	}
	if s.phase.InProgress() {
		q := cloneQuestion(s.questions[s.index])
		snap.Question = &q
		snap.RemainingSeconds = s.timer.Remaining()
	}
	if s.phase == domain.PhaseAnswered {
		q := s.questions[s.index].Question
		snap.Last = &LastAnswer{
			Answer:        cloneAnswer(s.answers[len(s.answers)-1]),
			CorrectOption: q.CorrectOption,
			Explanation:   q.Explanation,
		}
	}
	return snap
}

func (s *Session) Phase() domain.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Generation identifies the current run.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Questions returns the ordered questions of the current run.
func (s *Session) Questions() []domain.SessionQuestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.SessionQuestion, len(s.questions))
	for i, q := range s.questions {
		out[i] = cloneQuestion(q)
	}
	return out
}

// Summary returns the summary of the last completed run.
func (s *Session) Summary() (domain.SessionSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.summary == nil {
		return domain.SessionSummary{}, false
	}
	return cloneSummary(*s.summary), true
}

func contains(options []string, option string) bool {
	return slices.Contains(options, option)
}

func questionIDs(questions []domain.SessionQuestion) []string {
	if len(questions) == 0 {
		return nil
	}
	ids := make([]string, len(questions))
	for i, q := range questions {
		ids[i] = q.Question.ID
	}
	return ids
}

func sameOrder(questions []domain.Question, ids []string) bool {
	if len(questions) != len(ids) {
		return false
	}
	for i, q := range questions {
		if q.ID != ids[i] {
			return false
		}
	}
	return true
}

func cloneQuestion(q domain.SessionQuestion) domain.SessionQuestion {
	q.Options = slices.Clone(q.Options)
	q.Question.Options = slices.Clone(q.Question.Options)
	q.Question.Hints = slices.Clone(q.Question.Hints)
	return q
}

func cloneAnswer(a domain.AnswerRecord) domain.AnswerRecord {
	if a.SelectedOption != nil {
		v := *a.SelectedOption
		a.SelectedOption = &v
	}
	return a
}

func cloneSummary(s domain.SessionSummary) domain.SessionSummary {
	answers := make([]domain.AnswerRecord, len(s.Answers))
	for i, a := range s.Answers {
		answers[i] = cloneAnswer(a)
	}
	s.Answers = answers
	s.Triggers = slices.Clone(s.Triggers)
	return s
}
