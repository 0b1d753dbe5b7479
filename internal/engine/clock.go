package engine

import (
	"sync"
	"time"
)

// Clock is the attempt countdown. One tick is one second. A real ticker drives
// Tick unless the clock is manual, in which case callers advance it.
type Clock struct {
	mu sync.Mutex

	remaining       int
	elapsed         int
	questionElapsed int
	timed           bool
	running         bool
	expired         bool

	onExpire func()
	manual   bool
	interval time.Duration
	stop     chan struct{}
}

type ClockOption func(*Clock)

// ManualClock disables the background ticker; Tick must be called directly.
func ManualClock() ClockOption {
	return func(c *Clock) { c.manual = true }
}

// TickInterval overrides the wall-clock length of one tick.
func TickInterval(d time.Duration) ClockOption {
	return func(c *Clock) { c.interval = d }
}

func NewClock(onExpire func(), opts ...ClockOption) *Clock {
	c := &Clock{
		onExpire: onExpire,
		interval: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start begins counting down from durationSec. A non-positive duration starts
// an untimed clock that still accumulates elapsed time but never expires.
func (c *Clock) Start(durationSec int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running || c.expired {
		return
	}
	c.remaining = durationSec
	c.timed = durationSec > 0
	c.running = true

	if c.manual {
		return
	}
	c.stop = make(chan struct{})
	go c.run(c.stop, c.interval)
}

func (c *Clock) run(stop <-chan struct{}, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			c.Tick()
		}
	}
}

// Tick advances the clock by one second. onExpire runs on the tick that
// reaches zero and never again.
func (c *Clock) Tick() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.elapsed++
	c.questionElapsed++

	fire := false
	if c.timed {
		c.remaining--
		if c.remaining <= 0 {
			c.remaining = 0
			c.expired = true
			c.haltLocked()
			fire = true
		}
	}
	onExpire := c.onExpire
	c.mu.Unlock()

	if fire && onExpire != nil {
		onExpire()
	}
}

// Stop halts the countdown. Safe to call more than once and from onExpire.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.haltLocked()
}

func (c *Clock) haltLocked() {
	c.running = false
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
}

func (c *Clock) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Elapsed is the total number of ticks since Start.
func (c *Clock) Elapsed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsed
}

func (c *Clock) ElapsedForCurrentQuestion() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.questionElapsed
}

// ResetQuestion returns the per-question sub-counter and zeroes it.
func (c *Clock) ResetQuestion() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.questionElapsed
	c.questionElapsed = 0
	return n
}

func (c *Clock) Timed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timed
}

func (c *Clock) Expired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expired
}
