package timer

import (
	"sync"
	"time"
)

// Countdown counts whole seconds down to zero, one tick at a time. Each tick
// schedules the next; Reset supersedes whatever is pending.
type Countdown struct {
	interval time.Duration
	onTick   func(remaining int)
	onExpire func()

	mu        sync.Mutex
	remaining int
	gen       uint64
	pending   *time.Timer
}

// Option customises a Countdown.
type Option func(*Countdown)

// WithInterval changes the tick length (one second by default).
func WithInterval(d time.Duration) Option {
	return func(c *Countdown) {
		if d > 0 {
			c.interval = d
		}
	}
}

// New returns an idle countdown. onTick receives the remaining count after each
// tick and may be nil; onExpire runs once per started countdown.
func New(onTick func(remaining int), onExpire func(), opts ...Option) *Countdown {
	if onExpire == nil {
		onExpire = func() {}
	}
	c := &Countdown{
		interval: time.Second,
		onTick:   onTick,
		onExpire: onExpire,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Reset restarts the countdown from seconds, cancelling any pending tick.
func (c *Countdown) Reset(seconds int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()
	c.remaining = seconds
	if seconds <= 0 {
		c.remaining = 0
		go c.onExpire()
		return
	}
	c.scheduleLocked(c.gen)
}

// Stop cancels the countdown without firing expiry.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

// Remaining returns the current count.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

func (c *Countdown) stopLocked() {
	c.gen++
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
}

func (c *Countdown) scheduleLocked(gen uint64) {
	c.pending = time.AfterFunc(c.interval, func() { c.tick(gen) })
}

func (c *Countdown) tick(gen uint64) {
	c.mu.Lock()
	if gen != c.gen {
		// superseded by Reset or Stop
		c.mu.Unlock()
		return
	}
	c.remaining--
	remaining := c.remaining
	expired := remaining <= 0
	if expired {
		c.pending = nil
		c.gen++
	} else {
		c.scheduleLocked(gen)
	}
	c.mu.Unlock()

	if c.onTick != nil {
		c.onTick(remaining)
	}
	if expired {
		c.onExpire()
	}
}
