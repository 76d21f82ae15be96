package session

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"quiz-session-engine/internal/bank"
	"quiz-session-engine/internal/domain"
	"quiz-session-engine/internal/event"
	"quiz-session-engine/internal/scoring"
	"quiz-session-engine/internal/shuffle"
	"quiz-session-engine/internal/timer"
)

const (
	defaultFastCompletionSeconds = 120
	defaultMaxHints              = 3
	// maxReshuffleAttempts bounds how hard Restart tries to avoid repeating the previous order.
	maxReshuffleAttempts = 3
)

// Config carries game-balance and policy settings.
type Config struct {
	// QuestionsPerSession caps the questions drawn per run; zero uses the whole category.
	QuestionsPerSession int
	Balance             scoring.Balance
	// Strict surfaces invalid transitions as errors instead of logging them.
	Strict                bool
	FastCompletionSeconds int
	// MaxHints caps hints per run; zero means the default, negative disables hints.
	MaxHints int
}

func DefaultConfig() Config {
	return Config{
		Balance:               scoring.DefaultBalance(),
		FastCompletionSeconds: defaultFastCompletionSeconds,
		MaxHints:              defaultMaxHints,
	}
}

// Deps are the collaborators injected at creation. Zero values get defaults.
type Deps struct {
	Shuffler *shuffle.Shuffler
	Clock    timer.Clock
	Sink     event.Sink
	Logger   *log.Logger
	UserID   string
	NewID    func() string
	Now      func() time.Time
}

// Session is the quiz state machine for one player.
// Transitions are serialized by an internal mutex; events are delivered
// in order, outside the lock, after the transition that produced them.
type Session struct {
	bank     []domain.Question
	cfg      Config
	shuffler *shuffle.Shuffler
	clock    timer.Clock
	sink     event.Sink
	logger   *log.Logger
	userID   string
	newID    func() string
	now      func() time.Time
	timer    *timer.Controller

	mu          sync.Mutex
	id          string
	generation  uint64
	category    string
	phase       domain.Phase
	questions   []domain.SessionQuestion
	index       int
	pending     *string
	answers     []domain.AnswerRecord
	streak      int
	bestStreak  int
	elapsed     int
	hintsUsed   int
	revealed    int
	stopElapsed func()
	summary     *domain.SessionSummary

	outbox   []event.Event
	draining bool
}

// New builds a session over bank. The bank slice is not modified.
func New(questions []domain.Question, deps Deps, cfg Config) *Session {
	if deps.Shuffler == nil {
		deps.Shuffler = shuffle.New()
	}
	if deps.Clock == nil {
		deps.Clock = timer.RealClock{}
	}
	if deps.Sink == nil {
		deps.Sink = event.NopSink{}
	}
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if cfg.Balance.Points == nil {
		cfg.Balance.Points = scoring.DefaultPoints
	}
	if cfg.FastCompletionSeconds <= 0 {
		cfg.FastCompletionSeconds = defaultFastCompletionSeconds
	}
	switch {
	case cfg.MaxHints == 0:
		cfg.MaxHints = defaultMaxHints
	case cfg.MaxHints < 0:
		// Negative disables hints.
		cfg.MaxHints = 0
	}

	return &Session{
		bank:     questions,
		cfg:      cfg,
		shuffler: deps.Shuffler,
		clock:    deps.Clock,
		sink:     deps.Sink,
		logger:   deps.Logger,
		userID:   deps.UserID,
		newID:    deps.NewID,
		now:      deps.Now,
		timer:    timer.NewController(deps.Clock),
	}
}

// Start begins a fresh run of category. A run already in progress is abandoned.
// On ErrEmptyCategory the session is left untouched.
func (s *Session) Start(category string) error {
	selected, err := bank.Select(s.bank, category, 0)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.beginLocked(category, selected, nil)
	s.mu.Unlock()
	s.flush()
	return nil
}

// Restart replays the current category with a new question and option order.
func (s *Session) Restart() error {
	s.mu.Lock()
	if s.category == "" {
		err := s.invalidLocked("restart")
		s.mu.Unlock()
		return err
	}
	category := s.category
	previous := questionIDs(s.questions)

	selected, err := bank.Select(s.bank, category, 0)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.beginLocked(category, selected, previous)
	s.mu.Unlock()
	s.flush()
	return nil
}

func (s *Session) beginLocked(category string, selected []domain.Question, avoid []string) {
	s.haltLocked()
	s.generation++
	gen := s.generation

	order := s.drawLocked(selected)
	for attempt := 1; attempt < maxReshuffleAttempts && avoid != nil && sameOrder(order, avoid); attempt++ {
		order = s.drawLocked(selected)
	}

	questions := make([]domain.SessionQuestion, len(order))
	for i, q := range order {
		limit := s.cfg.Balance.TimeLimit(q)
		if limit < 1 {
			limit = 1
		}
		questions[i] = domain.SessionQuestion{
			Question:         q,
			Options:          shuffle.Shuffle(s.shuffler, q.Options),
			TimeLimitSeconds: limit,
		}
	}

	s.id = s.newID()
	s.category = category
	s.questions = questions
	s.index = 0
	s.pending = nil
	s.answers = make([]domain.AnswerRecord, 0, len(questions))
	s.streak = 0
	s.bestStreak = 0
	s.elapsed = 0
	s.hintsUsed = 0
	s.revealed = 0
	s.summary = nil
	s.phase = domain.PhaseAwaitingAnswer

	s.stopElapsed = s.clock.Every(timer.Resolution, func() { s.tickElapsed(gen) })
	s.startTimerLocked()
	s.enqueueLocked(s.questionChangedLocked())
}

func (s *Session) drawLocked(selected []domain.Question) []domain.Question {
	order := shuffle.Shuffle(s.shuffler, selected)
	if n := s.cfg.QuestionsPerSession; n > 0 && n < len(order) {
		order = order[:n]
	}
	return order
}

func (s *Session) startTimerLocked() {
	gen, idx := s.generation, s.index
	s.timer.Start(s.questions[idx].TimeLimitSeconds, func() { s.expire(gen, idx) })
}

// SelectOption stores a revisable pending choice for the current question.
func (s *Session) SelectOption(option string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != domain.PhaseAwaitingAnswer {
		return s.invalidLocked("select")
	}
	if !contains(s.questions[s.index].Options, option) {
		return fmt.Errorf("%w: %q", domain.ErrUnknownOption, option)
	}
	selected := option
	s.pending = &selected
	return nil
}

// Submit answers the current question with the pending selection.
// Without a selection it returns ErrNoSelection and records nothing.
func (s *Session) Submit() error {
	s.mu.Lock()
	if s.phase != domain.PhaseAwaitingAnswer {
		err := s.invalidLocked("submit")
		s.mu.Unlock()
		return err
	}
	if s.pending == nil {
		s.mu.Unlock()
		return domain.ErrNoSelection
	}
	remaining := s.timer.Stop()
	s.recordLocked(remaining, false)
	s.mu.Unlock()
	s.flush()
	return nil
}

// expire is the timer callback. Callbacks from an older generation or question
// are dropped.
func (s *Session) expire(gen uint64, idx int) {
	s.mu.Lock()
	if gen != s.generation || idx != s.index || s.phase != domain.PhaseAwaitingAnswer {
		s.mu.Unlock()
		s.logger.Printf("session: discarding stale timeout (generation=%d question=%d)", gen, idx)
		return
	}
	s.recordLocked(0, true)
	s.mu.Unlock()
	s.flush()
}

func (s *Session) recordLocked(remaining int, timedOut bool) {
	sq := s.questions[s.index]
	spent := sq.TimeLimitSeconds - remaining
	if spent < 0 {
		spent = 0
	}
	if spent > sq.TimeLimitSeconds {
		spent = sq.TimeLimitSeconds
	}

	var selected *string
	if s.pending != nil {
		v := *s.pending
		selected = &v
	}
	correct := scoring.IsCorrect(sq.Question, selected)
	record := domain.AnswerRecord{
		QuestionID:       sq.Question.ID,
		Difficulty:       sq.Question.Difficulty,
		SelectedOption:   selected,
		IsCorrect:        correct,
		TimeSpentSeconds: spent,
		TimedOut:         timedOut,
	}
	s.answers = append(s.answers, record)

	previous := s.streak
	s.streak = scoring.NextStreak(previous, correct)
	if s.streak > s.bestStreak {
		s.bestStreak = s.streak
	}
	s.phase = domain.PhaseAnswered

	s.enqueueLocked(event.AnswerSubmitted{
		SessionID:   s.id,
		Generation:  s.generation,
		Index:       s.index,
		Answer:      cloneAnswer(record),
		Streak:      s.streak,
		Explanation: sq.Question.Explanation,
		Correct:     sq.Question.CorrectOption,
	})
	if s.streak != previous {
		s.enqueueLocked(event.StreakChanged{
			SessionID: s.id,
			Previous:  previous,
			Current:   s.streak,
			Best:      s.bestStreak,
			Milestone: scoring.IsStreakMilestone(s.streak),
		})
	}
}

// Advance moves past an answered question, completing the session after the last one.
func (s *Session) Advance() error {
	s.mu.Lock()
	if s.phase != domain.PhaseAnswered {
		err := s.invalidLocked("advance")
		s.mu.Unlock()
		return err
	}

	if s.index+1 < len(s.questions) {
		s.index++
		s.pending = nil
		s.revealed = 0
		s.phase = domain.PhaseAwaitingAnswer
		s.startTimerLocked()
		s.enqueueLocked(s.questionChangedLocked())
	} else {
		s.completeLocked()
	}
	s.mu.Unlock()
	s.flush()
	return nil
}

func (s *Session) completeLocked() {
	s.haltLocked()
	s.phase = domain.PhaseCompleted

	summary := s.summaryLocked()
	s.summary = &summary
	s.enqueueLocked(event.SessionCompleted{
		SessionID:  s.id,
		Generation: s.generation,
		Summary:    cloneSummary(summary),
	})
	for _, t := range summary.Triggers {
		s.enqueueLocked(event.Triggered{SessionID: s.id, UserID: s.userID, Trigger: t})
	}
}

func (s *Session) summaryLocked() domain.SessionSummary {
	total := len(s.questions)
	correct := scoring.CorrectCount(s.answers)
	percentage := scoring.Percentage(correct, total)

	triggers := []domain.Trigger{domain.TriggerFirstQuiz}
	if percentage == 100 {
		triggers = append(triggers, domain.TriggerPerfectScore)
	}
	if s.elapsed < s.cfg.FastCompletionSeconds {
		triggers = append(triggers, domain.TriggerFastCompletion)
	}
	if s.bestStreak >= scoring.BaseStreakMilestone {
		triggers = append(triggers, domain.TriggerStreak5)
	}

	answers := make([]domain.AnswerRecord, len(s.answers))
	for i, a := range s.answers {
		answers[i] = cloneAnswer(a)
	}

	return domain.SessionSummary{
		SessionID:      s.id,
		UserID:         s.userID,
		Category:       s.category,
		TotalQuestions: total,
		CorrectCount:   correct,
		Percentage:     percentage,
		Points:         s.cfg.Balance.AggregateScore(s.answers),
		ElapsedSeconds: s.elapsed,
		BestStreak:     s.bestStreak,
		FinalStreak:    s.streak,
		HintsUsed:      s.hintsUsed,
		Answers:        answers,
		Triggers:       triggers,
		CompletedAt:    s.now(),
	}
}

// RevealHint returns the next hint of the current question.
func (s *Session) RevealHint() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != domain.PhaseAwaitingAnswer {
		return "", s.invalidLocked("hint")
	}
	hints := s.questions[s.index].Question.Hints
	if s.revealed >= len(hints) || s.hintsUsed >= s.cfg.MaxHints {
		return "", domain.ErrNoHintsLeft
	}
	hint := hints[s.revealed]
	s.revealed++
	s.hintsUsed++
	return hint, nil
}

// Abandon stops the current run and returns to NotStarted. Pending timer
// callbacks of the abandoned run are discarded.
func (s *Session) Abandon() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == domain.PhaseNotStarted {
		return s.invalidLocked("abandon")
	}
	s.resetLocked()
	return nil
}

// Close releases timers. The session can still be restarted afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	if s.phase.InProgress() {
		s.resetLocked()
	}
	s.haltLocked()
	s.mu.Unlock()
}

func (s *Session) resetLocked() {
	s.haltLocked()
	s.generation++
	s.phase = domain.PhaseNotStarted
	s.questions = nil
	s.answers = nil
	s.index = 0
	s.pending = nil
	s.revealed = 0
}

// haltLocked stops the question countdown and the session stopwatch.
func (s *Session) haltLocked() {
	s.timer.Stop()
	if s.stopElapsed != nil {
		s.stopElapsed()
		s.stopElapsed = nil
	}
}

func (s *Session) tickElapsed(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation || !s.phase.InProgress() {
		return
	}
	s.elapsed++
}

func (s *Session) invalidLocked(op string) error {
	err := fmt.Errorf("%w: %s while %s", domain.ErrInvalidTransition, op, s.phase)
	if s.cfg.Strict {
		return err
	}
	s.logger.Printf("session: ignoring %v", err)
	return nil
}

func (s *Session) questionChangedLocked() event.QuestionChanged {
	return event.QuestionChanged{
		SessionID:  s.id,
		Generation: s.generation,
		Index:      s.index,
		Total:      len(s.questions),
		Question:   cloneQuestion(s.questions[s.index]),
	}
}

func (s *Session) enqueueLocked(e event.Event) {
	s.outbox = append(s.outbox, e)
}

// flush delivers queued events. A subscriber that calls back into the session
// only queues more events; the outer flush delivers them after the current one.
func (s *Session) flush() {
	s.mu.Lock()
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true
	for len(s.outbox) > 0 {
		e := s.outbox[0]
		s.outbox = s.outbox[1:]
		s.mu.Unlock()

		if err := event.Deliver(s.sink, e); err != nil {
			s.logger.Printf("session: %v", &domain.SubscriberError{Event: e.Name(), Subscriber: "sink", Err: err})
		}

		s.mu.Lock()
	}
	s.outbox = nil
	s.draining = false
	s.mu.Unlock()
}
