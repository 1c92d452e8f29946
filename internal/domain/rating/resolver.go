// Package rating resolves a player's external rating from a stats site.
//
// Every player has a rating: lookups that fail for any reason fall back to
// the default, so callers never handle resolution errors.
package rating

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/okian/pugbot/internal/domain/model"
	"github.com/okian/pugbot/pkg/logger"
	"github.com/okian/pugbot/pkg/metrics"
)

// Default resolver configuration constants.
const (
	DefaultRating        = 1000
	defaultAttempts      = 2
	defaultFetchTimeout  = 15 * time.Second
	defaultRetryInterval = 500 * time.Millisecond
	defaultConcurrency   = 10
)

// Resolver turns identities into ratings. It is safe for concurrent use.
// Concurrent lookups for the same identity are not coalesced.
type Resolver struct {
	source        Source
	cache         Cache
	overrides     map[string]string
	defaultRating int
	attempts      int
	fetchTimeout  time.Duration
	retryInterval time.Duration
	concurrency   int
	logger        logger.Logger
}

// NewResolver creates a resolver reading from source and remembering hits in cache.
func NewResolver(source Source, cache Cache, opts ...Option) *Resolver {
	r := &Resolver{
		source:        source,
		cache:         cache,
		overrides:     map[string]string{},
		defaultRating: DefaultRating,
		attempts:      defaultAttempts,
		fetchTimeout:  defaultFetchTimeout,
		retryInterval: defaultRetryInterval,
		concurrency:   defaultConcurrency,
		logger:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DefaultValue returns the rating used for unknown players.
func (r *Resolver) DefaultValue() int {
	return r.defaultRating
}

// Resolve returns the player's rating, or the default when nothing resolves.
// Only non-default results are cached, so an unranked player is retried on
// the next match.
func (r *Resolver) Resolve(ctx context.Context, id model.Identity) int {
	if v, ok := r.cache.Get(id.ID); ok {
		metrics.RecordRatingLookup("cache_hit")
		return v
	}

	p, err := r.firstProfile(ctx, id, func(p Profile) bool {
		return p.HasRating && p.Rating != r.defaultRating
	})
	if err != nil {
		metrics.RecordRatingLookup("default")
		r.logger.Debug(ctx, "no rating found, using default",
			logger.String("user_id", id.ID),
			logger.Int("rating", r.defaultRating),
		)
		return r.defaultRating
	}

	r.cache.Set(id.ID, p.Rating)
	metrics.RecordRatingLookup("resolved")
	r.logger.Info(ctx, "rating resolved",
		logger.String("user_id", id.ID),
		logger.String("name", p.Name),
		logger.Int("rating", p.Rating),
	)
	return p.Rating
}

// ResolveAll resolves every identity in parallel, bounded by the configured concurrency.
func (r *Resolver) ResolveAll(ctx context.Context, ids []model.Identity) map[string]int {
	out := make(map[string]int, len(ids))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			v := r.Resolve(ctx, id)
			mu.Lock()
			out[id.ID] = v
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Profile returns the first page that parsed for the identity, rated or not.
// A rated page also warms the cache.
func (r *Resolver) Profile(ctx context.Context, id model.Identity) (Profile, error) {
	p, err := r.firstProfile(ctx, id, func(Profile) bool { return true })
	if err != nil {
		return Profile{}, err
	}
	if p.HasRating && p.Rating != r.defaultRating {
		r.cache.Set(id.ID, p.Rating)
	}
	return p, nil
}

// Candidates returns the stats-site names tried for id, in priority order.
// An id override goes first; a display-name override replaces that name in place.
func (r *Resolver) Candidates(id model.Identity) []string {
	names := lo.Map(id.NameCandidates(), func(n string, _ int) string {
		if o, ok := r.overrides[strings.ToLower(n)]; ok {
			return o
		}
		return n
	})
	if o, ok := r.overrides[strings.ToLower(id.ID)]; ok {
		names = append([]string{o}, names...)
	}
	return lo.Uniq(names)
}

// Variants returns the spellings tried for one name: as given, lower-cased and path-escaped.
func Variants(name string) []string {
	return lo.Uniq(lo.Compact([]string{name, strings.ToLower(name), url.PathEscape(name)}))
}

func (r *Resolver) firstProfile(ctx context.Context, id model.Identity, accept func(Profile) bool) (Profile, error) {
	tried := map[string]bool{}
	for _, name := range r.Candidates(id) {
		for _, variant := range Variants(name) {
			if tried[variant] {
				continue
			}
			tried[variant] = true
			if ctx.Err() != nil {
				return Profile{}, fmt.Errorf("%w: %w", ErrRatingUnavailable, ctx.Err())
			}
			p, err := r.lookup(ctx, variant)
			if err != nil {
				r.logger.Debug(ctx, "stats lookup failed",
					logger.String("user_id", id.ID),
					logger.String("variant", variant),
					logger.Error(err),
				)
				continue
			}
			if accept(p) {
				return p, nil
			}
		}
	}
	return Profile{}, fmt.Errorf("%w: %s", ErrRatingUnavailable, id.ID)
}

// lookup fetches one variant. Transport failures are retried with backoff;
// ErrNoProfile failures are not.
func (r *Resolver) lookup(ctx context.Context, variant string) (Profile, error) {
	op := func() (Profile, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, r.fetchTimeout)
		defer cancel()

		start := time.Now()
		p, err := r.source.Lookup(attemptCtx, variant)
		metrics.RecordRatingFetchLatency(float64(time.Since(start).Milliseconds()))
		if err != nil {
			if errors.Is(err, ErrNoProfile) {
				metrics.RecordRatingFetchError("no_profile")
				return Profile{}, backoff.Permanent(err)
			}
			metrics.RecordRatingFetchError("transport")
			return Profile{}, err
		}
		return p, nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = r.retryInterval
	expo.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(expo, uint64(r.attempts-1)), ctx)

	return backoff.RetryNotifyWithData(op, policy, func(err error, wait time.Duration) {
		r.logger.Debug(ctx, "retrying stats lookup",
			logger.String("variant", variant),
			logger.Duration("wait", wait),
			logger.Error(err),
		)
	})
}
