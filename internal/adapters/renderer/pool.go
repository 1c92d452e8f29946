// Package renderer provides a bounded pool of page rendering sessions.
package renderer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/pugbot/pkg/logger"
	"github.com/okian/pugbot/pkg/metrics"
)

const defaultPoolSize = 3

// Session renders pages one at a time.
type Session interface {
	Fetch(ctx context.Context, url string) (string, error)
	Close() error
}

// SessionFactory opens a new session.
type SessionFactory func(ctx context.Context) (Session, error)

// Pool hands out at most size sessions at once and reuses healthy ones.
type Pool struct {
	factory SessionFactory
	size    int
	slots   chan struct{}

	mu     sync.Mutex
	idle   []Session
	closed bool

	inUse  atomic.Int64
	logger logger.Logger
}

// NewPool creates a pool. Sessions are opened lazily.
func NewPool(factory SessionFactory, opts ...Option) *Pool {
	p := &Pool{
		factory: factory,
		size:    defaultPoolSize,
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.slots = make(chan struct{}, p.size)
	return p
}

// Acquire blocks until a slot is free, then returns an idle session or opens one.
func (p *Pool) Acquire(ctx context.Context) (Session, error) {
	start := time.Now()
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("acquire renderer session: %w", ctx.Err())
	}
	metrics.RecordRendererAcquireLatency(float64(time.Since(start).Milliseconds()))

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		<-p.slots
		return nil, ErrPoolClosed
	}
	if n := len(p.idle); n > 0 {
		s := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.mu.Unlock()
		p.checkedOut(1)
		return s, nil
	}
	p.mu.Unlock()

	s, err := p.factory(ctx)
	if err != nil {
		<-p.slots
		return nil, fmt.Errorf("open renderer session: %w", err)
	}
	p.checkedOut(1)
	return s, nil
}

// Release returns s to the pool. A session that failed is closed instead of reused.
func (p *Pool) Release(s Session, err error) {
	defer func() { <-p.slots }()
	p.checkedOut(-1)

	p.mu.Lock()
	if err == nil && !p.closed {
		p.idle = append(p.idle, s)
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	if err != nil {
		metrics.RecordRendererDiscard()
		p.logger.Warn(context.Background(), "discarding renderer session", logger.Error(err))
	}
	if cerr := s.Close(); cerr != nil {
		p.logger.Debug(context.Background(), "closing renderer session", logger.Error(cerr))
	}
}

// Fetch renders url on a pooled session.
func (p *Pool) Fetch(ctx context.Context, url string) (string, error) {
	s, err := p.Acquire(ctx)
	if err != nil {
		return "", err
	}
	html, err := s.Fetch(ctx, url)
	p.Release(s, err)
	return html, err
}

// InUse returns the number of checked-out sessions.
func (p *Pool) InUse() int {
	return int(p.inUse.Load())
}

// Idle returns the number of sessions waiting for reuse.
func (p *Pool) Idle() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle)
}

// Size returns the pool bound.
func (p *Pool) Size() int {
	return p.size
}

// Close closes idle sessions. Checked-out sessions are closed on release.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	p.mu.Unlock()

	var firstErr error
	for _, s := range idle {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (p *Pool) checkedOut(delta int64) {
	metrics.UpdateRendererInUse(int(p.inUse.Add(delta)))
}
