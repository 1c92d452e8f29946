package renderer

import (
	"time"

	"github.com/okian/pugbot/pkg/logger"
)

// Option applies a configuration option to the Pool.
type Option func(*Pool)

// WithSize sets the maximum number of sessions checked out at once.
func WithSize(size int) Option {
	return func(p *Pool) {
		if size > 0 {
			p.size = size
		}
	}
}

// WithLogger sets a custom logger for the pool.
func WithLogger(l logger.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// BrowserOption applies a configuration option to the Browser.
type BrowserOption func(*Browser)

// WithPoolSize sets how many tabs may render at once.
func WithPoolSize(size int) BrowserOption {
	return func(b *Browser) {
		if size > 0 {
			b.poolSize = size
		}
	}
}

// WithExecPath points at a Chrome or Chromium binary.
func WithExecPath(path string) BrowserOption {
	return func(b *Browser) {
		b.execPath = path
	}
}

// WithSettle sets how long a tab waits after load for client-side rendering.
func WithSettle(d time.Duration) BrowserOption {
	return func(b *Browser) {
		if d >= 0 {
			b.settle = d
		}
	}
}

// WithBrowserLogger sets the browser logger.
func WithBrowserLogger(l logger.Logger) BrowserOption {
	return func(b *Browser) {
		if l != nil {
			b.logger = l
		}
	}
}
