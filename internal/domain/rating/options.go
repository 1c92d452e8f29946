package rating

import (
	"strings"
	"time"

	"github.com/okian/pugbot/pkg/logger"
)

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithOverrides maps an identity id or a display name to the name used on the
// stats site. Display names match case-insensitively.
func WithOverrides(overrides map[string]string) Option {
	return func(r *Resolver) {
		r.overrides = make(map[string]string, len(overrides))
		for k, v := range overrides {
			if k = strings.TrimSpace(k); k != "" && v != "" {
				r.overrides[strings.ToLower(k)] = v
			}
		}
	}
}

// WithDefaultRating sets the rating returned when nothing resolves.
func WithDefaultRating(rating int) Option {
	return func(r *Resolver) {
		r.defaultRating = rating
	}
}

// WithAttempts sets how many times a transport failure is tried per variant.
func WithAttempts(attempts int) Option {
	return func(r *Resolver) {
		if attempts > 0 {
			r.attempts = attempts
		}
	}
}

// WithFetchTimeout bounds each individual attempt.
func WithFetchTimeout(timeout time.Duration) Option {
	return func(r *Resolver) {
		if timeout > 0 {
			r.fetchTimeout = timeout
		}
	}
}

// WithRetryInterval sets the initial wait between attempts.
func WithRetryInterval(interval time.Duration) Option {
	return func(r *Resolver) {
		if interval > 0 {
			r.retryInterval = interval
		}
	}
}

// WithConcurrency bounds parallel resolutions in ResolveAll.
func WithConcurrency(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}
