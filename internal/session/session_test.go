package session

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-session-engine/internal/domain"
	"quiz-session-engine/internal/event"
	"quiz-session-engine/internal/scoring"
	"quiz-session-engine/internal/shuffle"
	"quiz-session-engine/internal/timer"
)

const testLimit = 10

var difficulties = []domain.Difficulty{domain.Easy, domain.Medium, domain.Hard}

func testBank() []domain.Question {
	var qs []domain.Question
	for i := 0; i < 10; i++ {
		qs = append(qs, domain.Question{
			ID:               fmt.Sprintf("alg-%d", i),
			Prompt:           fmt.Sprintf("question %d", i),
			Options:          []string{"a", "b", "c", "d"},
			CorrectOption:    "a",
			Explanation:      "because a",
			Category:         "algebra",
			Difficulty:       difficulties[i%3],
			TimeLimitSeconds: testLimit,
			Hints:            []string{"first hint", "second hint"},
		})
	}
	qs = append(qs, domain.Question{
		ID:               "geo-0",
		Prompt:           "angles",
		Options:          []string{"90", "180"},
		CorrectOption:    "180",
		Category:         "geometry",
		Difficulty:       domain.Easy,
		TimeLimitSeconds: testLimit,
	})
	return qs
}

type collector struct {
	mu     sync.Mutex
	events []event.Event
}

func (c *collector) add(e event.Event) error {
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
	return nil
}

func (c *collector) QuestionChanged(e event.QuestionChanged) error   { return c.add(e) }
func (c *collector) AnswerSubmitted(e event.AnswerSubmitted) error   { return c.add(e) }
func (c *collector) StreakChanged(e event.StreakChanged) error       { return c.add(e) }
func (c *collector) SessionCompleted(e event.SessionCompleted) error { return c.add(e) }
func (c *collector) Triggered(e event.Triggered) error               { return c.add(e) }

func (c *collector) names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.events))
	for i, e := range c.events {
		out[i] = e.Name()
	}
	return out
}

func (c *collector) count(name string) int {
	n := 0
	for _, got := range c.names() {
		if got == name {
			n++
		}
	}
	return n
}

func (c *collector) last(name string) event.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.events) - 1; i >= 0; i-- {
		if c.events[i].Name() == name {
			return c.events[i]
		}
	}
	return nil
}

type fixture struct {
	s     *Session
	clock *timer.ManualClock
	sink  *collector
	logs  *bytes.Buffer
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	f := &fixture{clock: timer.NewManualClock(), sink: &collector{}, logs: &bytes.Buffer{}}
	f.s = New(testBank(), Deps{
		Shuffler: shuffle.Seeded(1),
		Clock:    f.clock,
		Sink:     f.sink,
		Logger:   log.New(f.logs, "", 0),
		UserID:   "u1",
	}, cfg)
	return f
}

func (f *fixture) answer(t *testing.T, correct bool) {
	t.Helper()
	snap := f.s.Snapshot()
	require.NotNil(t, snap.Question)
	option := snap.Question.Question.CorrectOption
	if !correct {
		for _, o := range snap.Question.Options {
			if o != option {
				option = o
				break
			}
		}
	}
	require.NoError(t, f.s.SelectOption(option))
	require.NoError(t, f.s.Submit())
}

func TestStartServesFirstQuestion(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	require.NoError(t, f.s.Start("algebra"))

	snap := f.s.Snapshot()
	assert.Equal(t, domain.PhaseAwaitingAnswer.String(), snap.Phase)
	assert.Equal(t, 0, snap.Index)
	assert.Equal(t, 10, snap.Total)
	assert.Equal(t, testLimit, snap.RemainingSeconds)
	require.NotNil(t, snap.Question)
	assert.ElementsMatch(t, []string{"a", "b", "c", "d"}, snap.Question.Options)

	require.Equal(t, []string{"question_changed"}, f.sink.names())
	qc := f.sink.last("question_changed").(event.QuestionChanged)
	assert.Equal(t, 0, qc.Index)
	assert.Equal(t, 10, qc.Total)
	assert.Equal(t, snap.SessionID, qc.SessionID)
}

func TestStartEmptyCategoryLeavesSessionUntouched(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	err := f.s.Start("history")
	require.ErrorIs(t, err, domain.ErrEmptyCategory)
	assert.Equal(t, domain.PhaseNotStarted, f.s.Phase())
	assert.Empty(t, f.sink.names())
	assert.Zero(t, f.clock.Active())

	require.NoError(t, f.s.Start("algebra"))
	gen := f.s.Generation()
	require.ErrorIs(t, f.s.Start(""), domain.ErrEmptyCategory)
	assert.Equal(t, gen, f.s.Generation())
	assert.Equal(t, domain.PhaseAwaitingAnswer, f.s.Phase())
}

func TestFullRunRecordsAnswersInQuestionOrder(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	require.NoError(t, f.s.Start("algebra"))
	questions := f.s.Questions()

	for i := range questions {
		f.answer(t, i%2 == 0)
		require.NoError(t, f.s.Advance())
	}

	assert.Equal(t, domain.PhaseCompleted, f.s.Phase())
	summary, ok := f.s.Summary()
	require.True(t, ok)
	require.Len(t, summary.Answers, len(questions))
	for i, a := range summary.Answers {
		assert.Equal(t, questions[i].Question.ID, a.QuestionID)
		assert.Equal(t, i%2 == 0, a.IsCorrect)
	}
	assert.Equal(t, 5, summary.CorrectCount)
	assert.Equal(t, 50, summary.Percentage)
	assert.Equal(t, 1, summary.BestStreak)
	assert.Equal(t, "u1", summary.UserID)
	assert.Equal(t, "algebra", summary.Category)
	assert.Equal(t, 1, f.sink.count("session_completed"))
	assert.Equal(t, len(questions), f.sink.count("question_changed"))
	assert.Equal(t, len(questions), f.sink.count("answer_submitted"))
}

func TestPerfectRunSummaryAndTriggers(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	require.NoError(t, f.s.Start("algebra"))
	for i := 0; i < 10; i++ {
		f.answer(t, true)
		require.NoError(t, f.s.Advance())
	}

	completed := f.sink.last("session_completed").(event.SessionCompleted)
	summary := completed.Summary
	assert.Equal(t, 100, summary.Percentage)
	assert.Equal(t, 10, summary.BestStreak)
	assert.Equal(t, 10, summary.FinalStreak)
	// 4 easy, 3 medium, 3 hard.
	assert.Equal(t, 4*10+3*20+3*30, summary.Points)
	assert.Equal(t, []domain.Trigger{
		domain.TriggerFirstQuiz,
		domain.TriggerPerfectScore,
		domain.TriggerFastCompletion,
		domain.TriggerStreak5,
	}, summary.Triggers)

	names := f.sink.names()
	assert.Equal(t, []string{"session_completed", "triggered", "triggered", "triggered", "triggered"}, names[len(names)-5:])
	trig := f.sink.last("triggered").(event.Triggered)
	assert.Equal(t, "u1", trig.UserID)
}

func TestTimeoutWithoutSelectionResetsStreak(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	require.NoError(t, f.s.Start("algebra"))
	for i := 0; i < 5; i++ {
		f.answer(t, true)
		require.NoError(t, f.s.Advance())
	}
	streak := f.sink.last("streak_changed").(event.StreakChanged)
	assert.Equal(t, 5, streak.Current)
	assert.True(t, streak.Milestone)

	f.clock.Tick(testLimit)

	snap := f.s.Snapshot()
	assert.Equal(t, domain.PhaseAnswered.String(), snap.Phase)
	require.Len(t, snap.Answers, 6)
	timedOut := snap.Answers[5]
	assert.Nil(t, timedOut.SelectedOption)
	assert.False(t, timedOut.IsCorrect)
	assert.True(t, timedOut.TimedOut)
	assert.Equal(t, testLimit, timedOut.TimeSpentSeconds)
	assert.Equal(t, 0, snap.Streak)
	assert.Equal(t, 5, snap.BestStreak)

	reset := f.sink.last("streak_changed").(event.StreakChanged)
	assert.Equal(t, event.StreakChanged{SessionID: snap.SessionID, Previous: 5, Current: 0, Best: 5}, reset)

	// Not a retry: the run moves on to the next question.
	require.NoError(t, f.s.Advance())
	assert.Equal(t, 6, f.s.Snapshot().Index)
}

func TestTimeoutSubmitsPendingSelection(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	require.NoError(t, f.s.Start("algebra"))
	require.NoError(t, f.s.SelectOption("b"))
	require.NoError(t, f.s.SelectOption("a"))

	f.clock.Tick(testLimit)

	answers := f.s.Snapshot().Answers
	require.Len(t, answers, 1)
	require.NotNil(t, answers[0].SelectedOption)
	assert.Equal(t, "a", *answers[0].SelectedOption)
	assert.True(t, answers[0].IsCorrect)
	assert.True(t, answers[0].TimedOut)
}

func TestManualSubmitWithoutSelectionIsRejected(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	require.NoError(t, f.s.Start("algebra"))

	err := f.s.Submit()
	require.ErrorIs(t, err, domain.ErrNoSelection)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	snap := f.s.Snapshot()
	assert.Empty(t, snap.Answers)
	assert.Equal(t, domain.PhaseAwaitingAnswer.String(), snap.Phase)
	assert.Zero(t, f.sink.count("answer_submitted"))
}

func TestSelectUnknownOption(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	require.NoError(t, f.s.Start("algebra"))

	require.ErrorIs(t, f.s.SelectOption("z"), domain.ErrUnknownOption)
	assert.Nil(t, f.s.Snapshot().Pending)
}

func TestSessionCompletedFiresOncePerRun(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	require.NoError(t, f.s.Start("geometry"))
	f.answer(t, true)
	require.NoError(t, f.s.Advance())
	require.Equal(t, 1, f.sink.count("session_completed"))

	// Lenient mode: further transitions are ignored.
	require.NoError(t, f.s.Advance())
	require.NoError(t, f.s.Submit())
	require.NoError(t, f.s.SelectOption("180"))
	f.clock.Tick(testLimit * 2)
	assert.Equal(t, 1, f.sink.count("session_completed"))

	require.NoError(t, f.s.Start("geometry"))
	f.answer(t, false)
	require.NoError(t, f.s.Advance())
	assert.Equal(t, 2, f.sink.count("session_completed"))
}

func TestSeededShufflerReproducesOrder(t *testing.T) {
	build := func() []domain.SessionQuestion {
		s := New(testBank(), Deps{Shuffler: shuffle.Seeded(2024), Clock: timer.NewManualClock()}, DefaultConfig())
		require.NoError(t, s.Start("algebra"))
		return s.Questions()
	}
	assert.Equal(t, build(), build())
}

func TestRestartReshuffles(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	require.NoError(t, f.s.Start("algebra"))
	f.answer(t, true)
	before := questionIDs(f.s.Questions())
	gen := f.s.Generation()

	require.NoError(t, f.s.Restart())

	snap := f.s.Snapshot()
	assert.NotEqual(t, before, questionIDs(f.s.Questions()))
	assert.ElementsMatch(t, before, questionIDs(f.s.Questions()))
	assert.Greater(t, f.s.Generation(), gen)
	assert.Empty(t, snap.Answers)
	assert.Zero(t, snap.Streak)
	assert.Equal(t, domain.PhaseAwaitingAnswer.String(), snap.Phase)
}

func TestRestartBeforeStart(t *testing.T) {
	f := newFixture(t, Config{Strict: true})
	require.ErrorIs(t, f.s.Restart(), domain.ErrInvalidTransition)
}

func TestRapidDoubleSubmitAndAdvance(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	require.NoError(t, f.s.Start("algebra"))

	require.NoError(t, f.s.SelectOption("a"))
	require.NoError(t, f.s.Submit())
	require.NoError(t, f.s.Submit())
	assert.Len(t, f.s.Snapshot().Answers, 1)

	require.NoError(t, f.s.Advance())
	require.NoError(t, f.s.Advance())
	snap := f.s.Snapshot()
	assert.Equal(t, 1, snap.Index)
	assert.Equal(t, domain.PhaseAwaitingAnswer.String(), snap.Phase)
	assert.Equal(t, 2, f.sink.count("question_changed"))
}

func TestStrictModeReportsInvalidTransitions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Strict = true
	f := newFixture(t, cfg)

	require.ErrorIs(t, f.s.Submit(), domain.ErrInvalidTransition)
	require.ErrorIs(t, f.s.Advance(), domain.ErrInvalidTransition)
	require.ErrorIs(t, f.s.Abandon(), domain.ErrInvalidTransition)

	require.NoError(t, f.s.Start("algebra"))
	require.ErrorIs(t, f.s.Advance(), domain.ErrInvalidTransition)
	f.answer(t, true)
	require.ErrorIs(t, f.s.Submit(), domain.ErrInvalidTransition)
	require.ErrorIs(t, f.s.SelectOption("a"), domain.ErrInvalidTransition)
	_, err := f.s.RevealHint()
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Len(t, f.s.Snapshot().Answers, 1)
}

func TestLenientModeLogsInvalidTransitions(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	require.NoError(t, f.s.Submit())
	assert.Contains(t, f.logs.String(), "ignoring invalid session transition: submit while not_started")
}

func TestAbandonDiscardsRunningTimers(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	require.NoError(t, f.s.Start("algebra"))
	require.Equal(t, 2, f.clock.Active())

	require.NoError(t, f.s.Abandon())
	assert.Zero(t, f.clock.Active())
	assert.Equal(t, domain.PhaseNotStarted, f.s.Phase())

	f.clock.Tick(testLimit * 2)
	assert.Empty(t, f.s.Snapshot().Answers)
	assert.Zero(t, f.sink.count("answer_submitted"))

	// The category is remembered for a restart.
	require.NoError(t, f.s.Restart())
	assert.Equal(t, domain.PhaseAwaitingAnswer, f.s.Phase())
}

func TestStaleTimeoutFromPreviousRunIsDropped(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	require.NoError(t, f.s.Start("algebra"))
	stale := f.s.Generation()

	require.NoError(t, f.s.Start("algebra"))
	f.s.expire(stale, 0)

	assert.Empty(t, f.s.Snapshot().Answers)
	assert.Contains(t, f.logs.String(), "discarding stale timeout")

	// Stale question index within the current run.
	f.answer(t, true)
	require.NoError(t, f.s.Advance())
	f.s.expire(f.s.Generation(), 0)
	assert.Len(t, f.s.Snapshot().Answers, 1)
}

func TestTimeoutAndSubmitRace(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	for i := 0; i < 50; i++ {
		require.NoError(t, f.s.Start("algebra"))
		require.NoError(t, f.s.SelectOption("a"))

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			f.clock.Tick(testLimit)
		}()
		go func() {
			defer wg.Done()
			_ = f.s.Submit()
		}()
		wg.Wait()

		assert.Len(t, f.s.Snapshot().Answers, 1)
	}
}

func TestSubscriberFailuresDoNotBlockTransitions(t *testing.T) {
	var logs bytes.Buffer
	s := New(testBank(), Deps{
		Clock:  timer.NewManualClock(),
		Logger: log.New(&logs, "", 0),
		Sink: event.Funcs{
			OnQuestionChanged: func(event.QuestionChanged) error { return errors.New("render failed") },
			OnAnswerSubmitted: func(event.AnswerSubmitted) error { panic("boom") },
		},
	}, DefaultConfig())

	require.NoError(t, s.Start("geometry"))
	require.NoError(t, s.SelectOption("180"))
	require.NoError(t, s.Submit())
	require.NoError(t, s.Advance())

	assert.Equal(t, domain.PhaseCompleted, s.Phase())
	assert.Contains(t, logs.String(), "subscriber sink failed on question_changed: render failed")
	assert.Contains(t, logs.String(), "subscriber sink failed on answer_submitted: panic: boom")
}

func TestReentrantSubscriberKeepsEventOrder(t *testing.T) {
	sink := &collector{}
	var s *Session
	s = New(testBank(), Deps{
		Clock: timer.NewManualClock(),
		Sink: event.Funcs{
			OnQuestionChanged: func(e event.QuestionChanged) error { return sink.add(e) },
			OnAnswerSubmitted: func(e event.AnswerSubmitted) error {
				_ = sink.add(e)
				return s.Advance()
			},
			OnStreakChanged: func(e event.StreakChanged) error { return sink.add(e) },
		},
	}, DefaultConfig())

	require.NoError(t, s.Start("algebra"))
	require.NoError(t, s.SelectOption("a"))
	require.NoError(t, s.Submit())

	assert.Equal(t, []string{"question_changed", "answer_submitted", "streak_changed", "question_changed"}, sink.names())
	assert.Equal(t, 1, s.Snapshot().Index)
}

func TestElapsedAccumulatesAcrossQuestions(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	require.NoError(t, f.s.Start("algebra"))

	f.clock.Tick(3)
	f.answer(t, true)
	require.NoError(t, f.s.Advance())
	f.clock.Tick(2)

	snap := f.s.Snapshot()
	assert.Equal(t, 5, snap.ElapsedSeconds)
	assert.Equal(t, testLimit-2, snap.RemainingSeconds)
	assert.Equal(t, 3, snap.Answers[0].TimeSpentSeconds)
}

func TestSlowRunIsNotFastCompletion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FastCompletionSeconds = 5
	f := newFixture(t, cfg)
	require.NoError(t, f.s.Start("geometry"))
	f.clock.Tick(testLimit)
	require.NoError(t, f.s.Advance())

	summary, ok := f.s.Summary()
	require.True(t, ok)
	assert.Equal(t, 0, summary.Percentage)
	assert.Equal(t, testLimit, summary.ElapsedSeconds)
	assert.NotContains(t, summary.Triggers, domain.TriggerFastCompletion)
	assert.Contains(t, summary.Triggers, domain.TriggerFirstQuiz)
}

func TestHintsAreCappedPerSession(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	require.NoError(t, f.s.Start("algebra"))

	hint, err := f.s.RevealHint()
	require.NoError(t, err)
	assert.Equal(t, "first hint", hint)
	hint, err = f.s.RevealHint()
	require.NoError(t, err)
	assert.Equal(t, "second hint", hint)
	_, err = f.s.RevealHint()
	require.ErrorIs(t, err, domain.ErrNoHintsLeft)

	f.answer(t, true)
	require.NoError(t, f.s.Advance())

	_, err = f.s.RevealHint()
	require.NoError(t, err)
	_, err = f.s.RevealHint()
	require.ErrorIs(t, err, domain.ErrNoHintsLeft)
	assert.Equal(t, 3, f.s.Snapshot().HintsUsed)
}

func TestSnapshotShowsLastAnswerOnlyWhenAnswered(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	require.NoError(t, f.s.Start("algebra"))
	assert.Nil(t, f.s.Snapshot().Last)

	f.answer(t, false)
	snap := f.s.Snapshot()
	require.NotNil(t, snap.Last)
	assert.Equal(t, "a", snap.Last.CorrectOption)
	assert.Equal(t, "because a", snap.Last.Explanation)
	assert.False(t, snap.Last.Answer.IsCorrect)

	require.NoError(t, f.s.Advance())
	assert.Nil(t, f.s.Snapshot().Last)
}

func TestConfigOverrides(t *testing.T) {
	cfg := DefaultConfig()
	cfg.QuestionsPerSession = 3
	cfg.Balance = scoring.Balance{
		Points:     scoring.PointsTable{domain.Easy: 1, domain.Medium: 2, domain.Hard: 3},
		TimeLimits: map[domain.Difficulty]int{domain.Hard: 4},
	}
	f := newFixture(t, cfg)
	require.NoError(t, f.s.Start("algebra"))

	questions := f.s.Questions()
	require.Len(t, questions, 3)
	want := 0
	for _, q := range questions {
		if q.Question.Difficulty == domain.Hard {
			assert.Equal(t, 4, q.TimeLimitSeconds)
		} else {
			assert.Equal(t, testLimit, q.TimeLimitSeconds)
		}
		want += cfg.Balance.PointsFor(q.Question.Difficulty)
	}

	for range questions {
		f.answer(t, true)
		require.NoError(t, f.s.Advance())
	}
	summary, ok := f.s.Summary()
	require.True(t, ok)
	assert.Equal(t, want, summary.Points)
	assert.Equal(t, 3, summary.TotalQuestions)
}

func TestEventsCarryCopies(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	require.NoError(t, f.s.Start("algebra"))

	qc := f.sink.last("question_changed").(event.QuestionChanged)
	qc.Question.Options[0] = "mutated"
	assert.NotContains(t, f.s.Snapshot().Question.Options, "mutated")
}
