package event

import (
	"fmt"
	"log"
	"sync"

	"quiz-session-engine/internal/domain"
)

// Deliver calls the Sink method matching e. A panicking subscriber is
// converted into an error.
func Deliver(s Sink, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	switch ev := e.(type) {
	case QuestionChanged:
		return s.QuestionChanged(ev)
	case AnswerSubmitted:
		return s.AnswerSubmitted(ev)
	case StreakChanged:
		return s.StreakChanged(ev)
	case SessionCompleted:
		return s.SessionCompleted(ev)
	case Triggered:
		return s.Triggered(ev)
	}
	return fmt.Errorf("unknown event %T", e)
}

type subscriber struct {
	name string
	sink Sink
}

// Bus fans events out to named subscribers in subscription order.
// Subscriber failures are logged as domain.SubscriberError and swallowed.
type Bus struct {
	logger *log.Logger

	mu   sync.RWMutex
	subs []subscriber
}

func NewBus(logger *log.Logger) *Bus {
	if logger == nil {
		logger = log.Default()
	}
	return &Bus{logger: logger}
}

// Subscribe registers a sink under a name used in failure logs.
func (b *Bus) Subscribe(name string, s Sink) {
	if s == nil {
		return
	}
	b.mu.Lock()
	b.subs = append(b.subs, subscriber{name: name, sink: s})
	b.mu.Unlock()
}

// Publish delivers e to every subscriber and returns the failures it logged.
func (b *Bus) Publish(e Event) []error {
	b.mu.RLock()
	subs := make([]subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	var failures []error
	for _, sub := range subs {
		if err := Deliver(sub.sink, e); err != nil {
			serr := &domain.SubscriberError{Event: e.Name(), Subscriber: sub.name, Err: err}
			b.logger.Printf("event: %v", serr)
			failures = append(failures, serr)
		}
	}
	return failures
}

func (b *Bus) QuestionChanged(e QuestionChanged) error   { b.Publish(e); return nil }
func (b *Bus) AnswerSubmitted(e AnswerSubmitted) error   { b.Publish(e); return nil }
func (b *Bus) StreakChanged(e StreakChanged) error       { b.Publish(e); return nil }
func (b *Bus) SessionCompleted(e SessionCompleted) error { b.Publish(e); return nil }
func (b *Bus) Triggered(e Triggered) error               { b.Publish(e); return nil }
