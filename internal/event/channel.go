package event

import "sync"

// Channel exposes events as a buffered channel for transports.
// A full buffer drops the oldest pending event so a slow reader never blocks
// the session.
type Channel struct {
	mu     sync.Mutex
	ch     chan Event
	closed bool
}

func NewChannel(buffer int) *Channel {
	if buffer <= 0 {
		buffer = 32
	}
	return &Channel{ch: make(chan Event, buffer)}
}

// Events is closed by Close.
func (c *Channel) Events() <-chan Event {
	return c.ch
}

func (c *Channel) push(e Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	select {
	case c.ch <- e:
	default:
		select {
		case <-c.ch:
		default:
		}
		c.ch <- e
	}
	return nil
}

func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.ch)
	}
}

func (c *Channel) QuestionChanged(e QuestionChanged) error   { return c.push(e) }
func (c *Channel) AnswerSubmitted(e AnswerSubmitted) error   { return c.push(e) }
func (c *Channel) StreakChanged(e StreakChanged) error       { return c.push(e) }
func (c *Channel) SessionCompleted(e SessionCompleted) error { return c.push(e) }
func (c *Channel) Triggered(e Triggered) error               { return c.push(e) }
