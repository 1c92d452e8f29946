package repository

import "time"

// Option applies a configuration option to the RatingStore.
type Option func(*storeConfig)

// WithTTL expires ratings after ttl. The default keeps them for the process lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(c *storeConfig) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCleanupInterval sets how often expired ratings are purged. Zero disables purging.
func WithCleanupInterval(interval time.Duration) Option {
	return func(c *storeConfig) {
		if interval > 0 {
			c.cleanupInterval = interval
		}
	}
}
