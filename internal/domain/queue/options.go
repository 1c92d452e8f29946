package queue

import "time"

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithCapacity sets the maximum number of queued players.
func WithCapacity(capacity int) Option {
	return func(m *Manager) {
		if capacity > 0 {
			m.capacity = capacity
		}
	}
}

// WithClock replaces time.Now for join timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}
