package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"quiz-session-engine/internal/daily"
	"quiz-session-engine/internal/domain"
	"quiz-session-engine/internal/event"
	"quiz-session-engine/internal/session"
	"quiz-session-engine/internal/timer"
)

type playOptions struct {
	category string
	userID   string
	name     string
	daily    bool
}

// NewPlayCmd runs a quiz in the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	opts := playOptions{}
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.category == "" && !opts.daily {
				return errors.New("either --category or --daily is required")
			}
			return runPlay(cmd.Context(), *configPath, opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&opts.category, "category", "", "category to play")
	cmd.Flags().StringVar(&opts.userID, "user", "local", "player id")
	cmd.Flags().StringVar(&opts.name, "name", "Player", "display name")
	cmd.Flags().BoolVar(&opts.daily, "daily", false, "play today's daily challenge")
	return cmd
}

// console serializes writes from the input loop and from timer-driven events.
type console struct {
	mu  sync.Mutex
	out io.Writer
}

func (c *console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

func runPlay(ctx context.Context, configPath string, opts playOptions, in io.Reader, out io.Writer) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	service, cleanup, err := buildService(ctx, cfg, timer.RealClock{})
	if err != nil {
		return err
	}
	defer cleanup()

	if _, err := service.Register(ctx, opts.userID, opts.name); err != nil {
		return err
	}

	con := &console{out: out}
	done := make(chan struct{})
	sink := playSink(con, done)

	var (
		s       *session.Session
		closeFn func()
	)
	if opts.daily {
		s, closeFn, err = service.NewDailySession(ctx, opts.userID, opts.name, sink)
	} else {
		s, closeFn, err = service.NewSession(ctx, opts.userID, opts.name, sink)
	}
	if err != nil {
		return err
	}
	defer closeFn()

	category := opts.category
	if opts.daily {
		category = daily.Category
	}
	if err := s.Start(category); err != nil {
		return err
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := handlePlayInput(s, con, strings.TrimSpace(line))
			if err != nil {
				con.printf("! %v\n", err)
			}
			if quit {
				return nil
			}
		}
	}
}

// handlePlayInput answers with an option number, asks for a hint with "h",
// quits with "q", and moves on with any input once a question is answered.
func handlePlayInput(s *session.Session, con *console, line string) (bool, error) {
	if line == "q" {
		return true, s.Abandon()
	}
	snap := s.Snapshot()
	switch snap.Phase {
	case domain.PhaseAnswered.String():
		return false, s.Advance()
	case domain.PhaseAwaitingAnswer.String():
		if line == "h" {
			hint, err := s.RevealHint()
			if err != nil {
				return false, err
			}
			con.printf("hint: %s\n", hint)
			return false, nil
		}
		n, err := strconv.Atoi(line)
		if err != nil || n < 1 || n > len(snap.Question.Options) {
			return false, fmt.Errorf("enter a number between 1 and %d", len(snap.Question.Options))
		}
		if err := s.SelectOption(snap.Question.Options[n-1]); err != nil {
			return false, err
		}
		return false, s.Submit()
	}
	return false, nil
}

func playSink(con *console, done chan struct{}) event.Sink {
	return event.Funcs{
		OnQuestionChanged: func(e event.QuestionChanged) error {
			q := e.Question
			con.printf("\n[%d/%d] %s (%s, %ds)\n", e.Index+1, e.Total, q.Question.Prompt, q.Question.Difficulty, q.TimeLimitSeconds)
			for i, opt := range q.Options {
				con.printf("  %d) %s\n", i+1, opt)
			}
			return nil
		},
		OnAnswerSubmitted: func(e event.AnswerSubmitted) error {
			switch {
			case e.Answer.IsCorrect:
				con.printf("correct! streak %d\n", e.Streak)
			case e.Answer.TimedOut && e.Answer.SelectedOption == nil:
				con.printf("time's up. answer: %s\n", e.Correct)
			default:
				con.printf("wrong. answer: %s\n", e.Correct)
			}
			if e.Explanation != "" {
				con.printf("%s\n", e.Explanation)
			}
			con.printf("press enter to continue\n")
			return nil
		},
		OnStreakChanged: func(e event.StreakChanged) error {
			if e.Milestone {
				con.printf("streak milestone: %d in a row\n", e.Current)
			}
			return nil
		},
		OnSessionCompleted: func(e event.SessionCompleted) error {
			sum := e.Summary
			con.printf("\nquiz complete: %d/%d correct (%d%%), %d points, %ds, best streak %d\n",
				sum.CorrectCount, sum.TotalQuestions, sum.Percentage, sum.Points, sum.ElapsedSeconds, sum.BestStreak)
			close(done)
			return nil
		},
		OnTriggered: func(e event.Triggered) error {
			con.printf("unlocked: %s\n", e.Trigger)
			return nil
		},
	}
}
