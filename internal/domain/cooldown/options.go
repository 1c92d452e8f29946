package cooldown

import "time"

// Option applies a configuration option to the Cooldown.
type Option func(*Cooldown)

// WithInterval sets the minimum gap between identical commands. Zero disables the cooldown.
func WithInterval(interval time.Duration) Option {
	return func(c *Cooldown) {
		if interval >= 0 {
			c.interval = interval
		}
	}
}

// WithMaxSize bounds the number of tracked keys.
// If maxSize <= 0 the map is unbounded and only the sweep shrinks it.
func WithMaxSize(maxSize int) Option {
	return func(c *Cooldown) {
		c.maxSize = maxSize
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cooldown) {
		if now != nil {
			c.now = now
		}
	}
}
