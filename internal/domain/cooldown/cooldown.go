// Package cooldown suppresses repeated chat commands.
package cooldown

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/pugbot/pkg/metrics"
)

// Default cooldown configuration constants.
const (
	defaultInterval = 2 * time.Second
	defaultMaxSize  = 10_000
)

// Limiter decides whether a command may run.
type Limiter interface {
	// Allow records the attempt and reports whether it is outside the cooldown.
	Allow(ctx context.Context, authorID, content string) bool

	Size() int
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Cooldown keeps one token bucket per (author, exact content) pair.
// Different commands from the same author do not share a bucket.
type Cooldown struct {
	mu       sync.Mutex
	entries  map[string]*entry
	interval time.Duration
	maxSize  int
	now      func() time.Time
}

// New creates a cooldown with a 2s interval unless overridden.
func New(opts ...Option) *Cooldown {
	c := &Cooldown{
		interval: defaultInterval,
		maxSize:  defaultMaxSize,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.entries = make(map[string]*entry)
	return c
}

// Allow reports whether the command may run. A blocked attempt does not
// extend the window.
func (c *Cooldown) Allow(_ context.Context, authorID, content string) bool {
	if c.interval <= 0 {
		return true
	}

	key := authorID + "\x00" + content
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		if c.maxSize > 0 && len(c.entries) >= c.maxSize {
			c.sweepLocked(now)
			if len(c.entries) >= c.maxSize {
				c.evictOldestLocked()
			}
		}
		e = &entry{limiter: rate.NewLimiter(rate.Every(c.interval), 1)}
		c.entries[key] = e
	}
	e.lastSeen = now

	if !e.limiter.AllowN(now, 1) {
		metrics.RecordCooldownDrop()
		return false
	}
	return true
}

// Sweep drops keys whose bucket has refilled and returns how many were removed.
func (c *Cooldown) Sweep() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sweepLocked(now)
}

// Run sweeps idle keys every interval until ctx is done.
func (c *Cooldown) Run(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}

// Size returns the number of tracked keys.
func (c *Cooldown) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// sweepLocked must be called with c.mu held.
func (c *Cooldown) sweepLocked(now time.Time) int {
	removed := 0
	for k, e := range c.entries {
		if now.Sub(e.lastSeen) >= c.interval {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// evictOldestLocked must be called with c.mu held.
func (c *Cooldown) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	for k, e := range c.entries {
		if oldestKey == "" || e.lastSeen.Before(oldest) {
			oldestKey, oldest = k, e.lastSeen
		}
	}
	delete(c.entries, oldestKey)
}
