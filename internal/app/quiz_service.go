package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"quiz-session-engine/internal/bank"
	"quiz-session-engine/internal/daily"
	"quiz-session-engine/internal/domain"
	"quiz-session-engine/internal/event"
	"quiz-session-engine/internal/leaderboard"
	"quiz-session-engine/internal/profile"
	"quiz-session-engine/internal/scoring"
	"quiz-session-engine/internal/session"
	"quiz-session-engine/internal/timer"
)

// ErrMissingUser rejects requests without a user id.
var ErrMissingUser = errors.New("user id required")

// BankRepository loads question banks (from cache/backing store).
type BankRepository interface {
	GetBank(ctx context.Context, bankID string) ([]domain.Question, error)
}

// Options tune the service. Zero values get defaults.
type Options struct {
	Session     session.Config
	Daily       daily.Config
	MainBank    string
	DailyBank   string
	Clock       timer.Clock
	Logger      *log.Logger
	AsyncBuffer int
}

// QuizService contains the quiz use cases and wires sessions to their collaborators.
type QuizService struct {
	banks    BankRepository
	profiles profile.Store
	board    leaderboard.Board
	daily    *daily.Challenge
	opts     Options
	now      func() time.Time
}

func NewQuizService(banks BankRepository, profiles profile.Store, board leaderboard.Board, opts Options) *QuizService {
	if opts.MainBank == "" {
		opts.MainBank = bank.DefaultBankID
	}
	if opts.DailyBank == "" {
		opts.DailyBank = bank.DailyBankID
	}
	if opts.Clock == nil {
		opts.Clock = timer.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.AsyncBuffer <= 0 {
		opts.AsyncBuffer = 16
	}
	if opts.Daily.Session.Balance.Points == nil {
		opts.Daily.Session = opts.Session
	}
	return &QuizService{
		banks:    banks,
		profiles: profiles,
		board:    board,
		daily:    daily.New(profiles, opts.Daily, opts.Logger),
		opts:     opts,
		now:      time.Now,
	}
}

// Categories lists the categories of the main bank.
func (s *QuizService) Categories(ctx context.Context) ([]string, error) {
	questions, err := s.banks.GetBank(ctx, s.opts.MainBank)
	if err != nil {
		return nil, err
	}
	return bank.Categories(questions), nil
}

// Register creates a profile for userID unless it already exists.
func (s *QuizService) Register(ctx context.Context, userID, displayName string) (domain.Profile, error) {
	if userID == "" {
		return domain.Profile{}, ErrMissingUser
	}
	return profile.Register(ctx, s.profiles, userID, displayName, s.now())
}

// ProfileView is a stored profile plus derived stats.
type ProfileView struct {
	Profile      domain.Profile `json:"profile"`
	Level        scoring.Level  `json:"level"`
	AverageScore int            `json:"averageScore"`
}

func (s *QuizService) Profile(ctx context.Context, userID string) (ProfileView, error) {
	if userID == "" {
		return ProfileView{}, ErrMissingUser
	}
	p, err := s.profiles.Load(ctx, userID)
	if err != nil {
		return ProfileView{}, err
	}
	if p == nil {
		return ProfileView{}, fmt.Errorf("%w: %s", domain.ErrProfileNotFound, userID)
	}
	return ProfileView{
		Profile:      *p,
		Level:        profile.Level(*p),
		AverageScore: profile.AverageScore(*p),
	}, nil
}

func (s *QuizService) Leaderboard(ctx context.Context, category string, limit int) (domain.Leaderboard, error) {
	return s.board.Top(ctx, category, limit)
}

// NewSession builds a practice session for userID over the main bank. Events
// reach sink first; profile and leaderboard updates run asynchronously.
// The returned close func stops timers and flushes pending updates.
func (s *QuizService) NewSession(ctx context.Context, userID, displayName string, sink event.Sink) (*session.Session, func(), error) {
	if userID == "" {
		return nil, nil, ErrMissingUser
	}
	questions, err := s.banks.GetBank(ctx, s.opts.MainBank)
	if err != nil {
		return nil, nil, err
	}

	client := s.clientBus(sink)
	profiles := event.NewAsync("profile", profile.NewRecorder(s.profiles, userID, bank.Categories(questions), client, s.opts.Logger), s.opts.AsyncBuffer, s.opts.Logger)
	scores := event.NewAsync("leaderboard", leaderboard.NewRecorder(s.board, userID, displayName), s.opts.AsyncBuffer, s.opts.Logger)

	bus := event.NewBus(s.opts.Logger)
	bus.Subscribe("client", client)
	bus.Subscribe("profile", profiles)
	bus.Subscribe("leaderboard", scores)

	sess := session.New(questions, s.deps(userID, bus), s.opts.Session)
	closeFn := func() {
		sess.Close()
		profiles.Close()
		scores.Close()
	}
	return sess, closeFn, nil
}

// NewDailySession builds today's daily challenge for userID, who must be registered.
// The caller starts it with Start(daily.Category).
func (s *QuizService) NewDailySession(ctx context.Context, userID, displayName string, sink event.Sink) (*session.Session, func(), error) {
	if userID == "" {
		return nil, nil, ErrMissingUser
	}
	questions, err := s.banks.GetBank(ctx, s.opts.DailyBank)
	if err != nil {
		return nil, nil, err
	}

	client := s.clientBus(sink)
	rewards := event.NewAsync("daily", s.daily.Recorder(userID, client), s.opts.AsyncBuffer, s.opts.Logger)
	scores := event.NewAsync("leaderboard", leaderboard.NewRecorder(s.board, userID, displayName), s.opts.AsyncBuffer, s.opts.Logger)

	bus := event.NewBus(s.opts.Logger)
	bus.Subscribe("client", client)
	bus.Subscribe("daily", rewards)
	bus.Subscribe("leaderboard", scores)

	sess, err := s.daily.NewSession(ctx, userID, questions, s.deps(userID, bus))
	if err != nil {
		rewards.Close()
		scores.Close()
		return nil, nil, err
	}
	closeFn := func() {
		sess.Close()
		rewards.Close()
		scores.Close()
	}
	return sess, closeFn, nil
}

// clientBus delivers to the caller's sink and logs triggers.
func (s *QuizService) clientBus(sink event.Sink) *event.Bus {
	bus := event.NewBus(s.opts.Logger)
	bus.Subscribe("sink", sink)
	bus.Subscribe("trigger-log", triggerLog{logger: s.opts.Logger})
	return bus
}

func (s *QuizService) deps(userID string, sink event.Sink) session.Deps {
	return session.Deps{
		Clock:  s.opts.Clock,
		Sink:   sink,
		Logger: s.opts.Logger,
		UserID: userID,
	}
}

type triggerLog struct {
	event.NopSink
	logger *log.Logger
}

func (t triggerLog) Triggered(e event.Triggered) error {
	t.logger.Printf("trigger %s for user=%s session=%s", e.Trigger, e.UserID, e.SessionID)
	return nil
}
