package profile

import (
	"context"
	"log"
	"time"

	"quiz-session-engine/internal/event"
)

const saveTimeout = 5 * time.Second

// Recorder updates the player's profile when a session completes and
// publishes cumulative triggers the update unlocked.
type Recorder struct {
	event.NopSink

	store      Store
	userID     string
	categories []string
	triggers   event.Sink
	logger     *log.Logger
	now        func() time.Time
}

// NewRecorder builds a recorder for one player. triggers may be nil.
func NewRecorder(store Store, userID string, categories []string, triggers event.Sink, logger *log.Logger) *Recorder {
	if triggers == nil {
		triggers = event.NopSink{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Recorder{
		store:      store,
		userID:     userID,
		categories: categories,
		triggers:   triggers,
		logger:     logger,
		now:        time.Now,
	}
}

func (r *Recorder) SessionCompleted(e event.SessionCompleted) error {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	stored, err := r.store.Load(ctx, r.userID)
	if err != nil {
		return err
	}
	if stored == nil {
		r.logger.Printf("profile: no profile for %q, skipping session %s", r.userID, e.SessionID)
		return nil
	}

	before := clone(*stored)
	after := clone(*stored)
	Apply(&after, e.Summary, r.now())
	if err := r.store.Save(ctx, after); err != nil {
		return err
	}

	for _, t := range NewTriggers(before, after, r.categories) {
		if err := r.triggers.Triggered(event.Triggered{SessionID: e.SessionID, UserID: r.userID, Trigger: t}); err != nil {
			r.logger.Printf("profile: trigger %s: %v", t, err)
		}
	}
	return nil
}
