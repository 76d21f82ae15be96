package timer

import (
	"sort"
	"sync"
	"time"
)

// Clock schedules a repeating callback and returns a handle that cancels it.
// Cancel must be safe to call more than once and from inside the callback.
type Clock interface {
	Every(interval time.Duration, fn func()) (cancel func())
}

// RealClock drives callbacks from time.Ticker goroutines.
type RealClock struct{}

func (RealClock) Every(interval time.Duration, fn func()) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
	go func() {
		for {
			select {
			case <-ticker.C:
				select {
				case <-done:
					return
				default:
				}
				fn()
			case <-done:
				return
			}
		}
	}()
	return cancel
}

// ManualClock fires scheduled callbacks only when Tick is called.
// Intervals are ignored: every registered callback fires once per Tick.
type ManualClock struct {
	mu   sync.Mutex
	next int
	subs map[int]func()
}

func NewManualClock() *ManualClock {
	return &ManualClock{subs: make(map[int]func())}
}

func (c *ManualClock) Every(_ time.Duration, fn func()) func() {
	c.mu.Lock()
	id := c.next
	c.next++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// Tick advances the clock n intervals, invoking callbacks in registration order.
// Callbacks registered during a tick first fire on the following tick.
func (c *ManualClock) Tick(n int) {
	for i := 0; i < n; i++ {
		c.mu.Lock()
		ids := make([]int, 0, len(c.subs))
		for id := range c.subs {
			ids = append(ids, id)
		}
		c.mu.Unlock()
		sort.Ints(ids)

		for _, id := range ids {
			c.mu.Lock()
			fn, ok := c.subs[id]
			c.mu.Unlock()
			if ok {
				fn()
			}
		}
	}
}

// Active reports how many callbacks are still scheduled.
func (c *ManualClock) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}
