package event

import (
	"log"
	"sync"

	"quiz-session-engine/internal/domain"
)

// Async hands events to a worker goroutine so slow subscribers (persistence)
// never stall the publisher. Order is preserved; when the queue is full the
// event is dropped and logged.
type Async struct {
	name   string
	next   Sink
	logger *log.Logger

	mu     sync.Mutex
	closed bool
	queue  chan Event
	done   chan struct{}
}

func NewAsync(name string, next Sink, buffer int, logger *log.Logger) *Async {
	if logger == nil {
		logger = log.Default()
	}
	if buffer <= 0 {
		buffer = 16
	}
	a := &Async{
		name:   name,
		next:   next,
		logger: logger,
		queue:  make(chan Event, buffer),
		done:   make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Async) run() {
	defer close(a.done)
	for e := range a.queue {
		if err := Deliver(a.next, e); err != nil {
			a.logger.Printf("event: %v", &domain.SubscriberError{Event: e.Name(), Subscriber: a.name, Err: err})
		}
	}
}

func (a *Async) enqueue(e Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		a.logger.Printf("event: %s closed, dropping %s", a.name, e.Name())
		return nil
	}
	select {
	case a.queue <- e:
	default:
		a.logger.Printf("event: %s queue full, dropping %s", a.name, e.Name())
	}
	return nil
}

// Close stops accepting events and waits until queued ones are delivered.
func (a *Async) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()
	<-a.done
}

func (a *Async) QuestionChanged(e QuestionChanged) error   { return a.enqueue(e) }
func (a *Async) AnswerSubmitted(e AnswerSubmitted) error   { return a.enqueue(e) }
func (a *Async) StreakChanged(e StreakChanged) error       { return a.enqueue(e) }
func (a *Async) SessionCompleted(e SessionCompleted) error { return a.enqueue(e) }
func (a *Async) Triggered(e Triggered) error               { return a.enqueue(e) }
