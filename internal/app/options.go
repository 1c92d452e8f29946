package service

import (
	"math/rand"
	"time"

	"github.com/okian/pugbot/internal/adapters/repository"
	"github.com/okian/pugbot/internal/domain/balance"
	"github.com/okian/pugbot/internal/domain/queue"
	"github.com/okian/pugbot/internal/domain/scoring"
	"github.com/okian/pugbot/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithQueue sets the roster manager.
func WithQueue(q *queue.Manager) Option {
	return func(s *Service) {
		if q != nil {
			s.queue = q
		}
	}
}

// WithResolver sets the rating resolver.
func WithResolver(r Resolver) Option {
	return func(s *Service) {
		if r != nil {
			s.resolver = r
		}
	}
}

// WithRatingStore sets the store reported in stats.
func WithRatingStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.ratings = store
		}
	}
}

// WithScorer sets the hybrid scorer.
func WithScorer(sc scoring.Scorer) Option {
	return func(s *Service) {
		if sc != nil {
			s.scorer = sc
		}
	}
}

// WithBalancer sets the team balancer.
func WithBalancer(b balance.Balancer) Option {
	return func(s *Service) {
		if b != nil {
			s.balancer = b
		}
	}
}

// WithRand sets the source used to label teams.
func WithRand(rng *rand.Rand) Option {
	return func(s *Service) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// WithClock replaces time.Now for panel wait times.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMetricsInterval sets how often gauges are refreshed while started.
func WithMetricsInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.metricsInterval = d
		}
	}
}
