package timer

import (
	"sync"
	"time"
)

// State is the lifecycle of a countdown.
type State int

const (
	Idle State = iota
	Running
	Expired
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Expired:
		return "expired"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

// Resolution is the countdown step.
const Resolution = time.Second

// Controller runs one per-question countdown at a time.
type Controller struct {
	clock Clock

	mu        sync.Mutex
	state     State
	limit     int
	remaining int
	run       uint64
	cancel    func()
	onExpire  func()
}

func NewController(clock Clock) *Controller {
	if clock == nil {
		clock = RealClock{}
	}
	return &Controller{clock: clock}
}

// Start begins a countdown of limitSeconds (at least one). Any previous countdown
// is discarded without firing. onExpire runs at most once, on the clock's goroutine,
// outside the controller's lock.
func (c *Controller) Start(limitSeconds int, onExpire func()) {
	if limitSeconds < 1 {
		limitSeconds = 1
	}

	c.mu.Lock()
	prev := c.cancel
	c.run++
	run := c.run
	c.limit = limitSeconds
	c.remaining = limitSeconds
	c.onExpire = onExpire
	c.state = Running
	c.cancel = nil
	c.mu.Unlock()

	if prev != nil {
		prev()
	}

	cancel := c.clock.Every(Resolution, func() { c.tick(run) })

	c.mu.Lock()
	if c.run == run && c.state == Running {
		c.cancel = cancel
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	// Superseded before the schedule was recorded.
	cancel()
}

func (c *Controller) tick(run uint64) {
	c.mu.Lock()
	if run != c.run || c.state != Running {
		c.mu.Unlock()
		return
	}
	c.remaining--
	if c.remaining > 0 {
		c.mu.Unlock()
		return
	}
	c.remaining = 0
	c.state = Expired
	cancel := c.cancel
	fn := c.onExpire
	c.cancel = nil
	c.onExpire = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if fn != nil {
		fn()
	}
}

// Stop halts a running countdown and returns the seconds left.
// Stopping a timer that is not running changes nothing.
func (c *Controller) Stop() int {
	c.mu.Lock()
	if c.state != Running {
		remaining := c.remaining
		c.mu.Unlock()
		return remaining
	}
	c.state = Stopped
	c.run++
	cancel := c.cancel
	c.cancel = nil
	c.onExpire = nil
	remaining := c.remaining
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return remaining
}

// Remaining never goes below zero.
func (c *Controller) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.remaining < 0 {
		return 0
	}
	return c.remaining
}

// Elapsed is the number of whole seconds consumed of the current limit.
func (c *Controller) Elapsed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.limit - c.remaining
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
