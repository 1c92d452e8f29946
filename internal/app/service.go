// Package service owns the matchmaking state and orchestrates match starts.
package service

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/pugbot/internal/adapters/repository"
	"github.com/okian/pugbot/internal/domain/balance"
	"github.com/okian/pugbot/internal/domain/model"
	"github.com/okian/pugbot/internal/domain/queue"
	"github.com/okian/pugbot/internal/domain/rating"
	"github.com/okian/pugbot/internal/domain/scoring"
	"github.com/okian/pugbot/internal/domain/tier"
	"github.com/okian/pugbot/pkg/logger"
	"github.com/okian/pugbot/pkg/metrics"
)

const defaultMetricsInterval = 5 * time.Second

// Directory reads a member's current names and role labels. It is scoped to
// the guild a command came from.
type Directory interface {
	Member(ctx context.Context, userID string) (model.Member, error)
}

// Resolver provides ratings for players.
type Resolver interface {
	ResolveAll(ctx context.Context, ids []model.Identity) map[string]int
	Profile(ctx context.Context, id model.Identity) (rating.Profile, error)
	DefaultValue() int
}

// JoinResult describes the roster after a successful insertion.
type JoinResult struct {
	Size     int
	Capacity int
	// Full is true when this insertion took the last slot.
	Full bool
	// Roster is set when Full, so the caller can ping everyone.
	Roster []queue.Entry
}

// PlayerStats is the data behind the stats command.
type PlayerStats struct {
	Member  model.Member
	Tier    tier.Tier
	Rating  int
	Found   bool
	Profile rating.Profile
}

// Service implements the matchmaking operations used by the chat and HTTP adapters.
type Service struct {
	mu sync.RWMutex

	// Core components
	queue    *queue.Manager
	resolver Resolver
	ratings  repository.Store
	scorer   scoring.Scorer
	balancer balance.Balancer

	rngMu sync.Mutex
	rng   *rand.Rand
	now   func() time.Time

	metricsInterval time.Duration
	matches         atomic.Int64
	lastMatchID     atomic.Value

	// State
	started   bool
	startedAt time.Time
	stopCh    chan struct{}

	// Logging
	logger logger.Logger
}

// New constructs a Service. Without WithResolver every player gets the default rating.
func New(opts ...Option) *Service {
	s := &Service{
		scorer:          scoring.NewHybrid(),
		balancer:        balance.NewSnakeDraft(),
		rng:             rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // team labels only
		now:             time.Now,
		metricsInterval: defaultMetricsInterval,
		logger:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.queue == nil {
		s.queue = queue.NewManager()
	}
	if s.ratings == nil {
		s.ratings = repository.NewRatingStore()
	}
	if s.resolver == nil {
		s.resolver = defaultOnly{}
	}
	s.lastMatchID.Store("")
	return s
}

// Start begins periodic gauge updates.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.started = true
	s.startedAt = s.now()
	s.stopCh = make(chan struct{})
	go s.metricsLoop(ctx, s.stopCh)

	s.logger.Info(ctx, "match service started",
		logger.Int("capacity", s.queue.Capacity()),
	)
	return nil
}

// Stop halts background work. The roster is kept.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	close(s.stopCh)
	s.started = false
	s.logger.Info(context.Background(), "match service stopped")
}

// Join queues a player on their own behalf.
func (s *Service) Join(ctx context.Context, id model.Identity) (JoinResult, error) {
	size, err := s.queue.Join(id)
	return s.joinResult(ctx, "join", id, size, err)
}

// Add queues a player on someone else's behalf.
func (s *Service) Add(ctx context.Context, id model.Identity) (JoinResult, error) {
	size, err := s.queue.Add(id)
	return s.joinResult(ctx, "add", id, size, err)
}

// Leave removes the caller from the roster.
func (s *Service) Leave(ctx context.Context, userID string) error {
	if err := s.queue.Leave(userID); err != nil {
		return err
	}
	s.logger.Info(ctx, "player left queue", logger.String("user_id", userID), logger.Int("queued", s.queue.Len()))
	return nil
}

// Remove removes a referenced player.
func (s *Service) Remove(ctx context.Context, userID string) error {
	if err := s.queue.Remove(userID); err != nil {
		return err
	}
	s.logger.Info(ctx, "player removed from queue", logger.String("user_id", userID), logger.Int("queued", s.queue.Len()))
	return nil
}

// Swap replaces a queued player with another.
func (s *Service) Swap(ctx context.Context, outID string, in model.Identity) error {
	if err := s.queue.Swap(outID, in); err != nil {
		return err
	}
	s.logger.Info(ctx, "players swapped", logger.String("out", outID), logger.String("in", in.ID))
	return nil
}

// Capacity is the number of roster slots.
func (s *Service) Capacity() int {
	return s.queue.Capacity()
}

// Roster returns the queued players in join order.
func (s *Service) Roster() []queue.Entry {
	return s.queue.Snapshot()
}

// Panel renders the current roster. Tiers are read fresh from dir.
func (s *Service) Panel(ctx context.Context, dir Directory) queue.Panel {
	entries := s.queue.Snapshot()
	tiers := make(map[string]tier.Tier, len(entries))
	for _, e := range entries {
		tiers[e.Identity.ID] = s.member(ctx, dir, e.Identity).Tier()
	}
	return queue.BuildPanel(entries, s.queue.Capacity(), s.now(), func(id string) tier.Tier { return tiers[id] })
}

// StartMatch takes the whole roster, rates and balances it, and returns the
// announcement. The roster is emptied before any lookup, so two concurrent
// starts never see the same players.
func (s *Service) StartMatch(ctx context.Context, dir Directory) (balance.Announcement, error) {
	entries := s.queue.Drain()
	if len(entries) == 0 {
		return balance.Announcement{}, ErrQueueEmpty
	}
	start := s.now()

	members := make([]model.Member, len(entries))
	ids := make([]model.Identity, len(entries))
	for i, e := range entries {
		members[i] = s.member(ctx, dir, e.Identity)
		ids[i] = members[i].Identity
	}

	ratings := s.resolver.ResolveAll(ctx, ids)

	players := make([]model.ScoredPlayer, len(members))
	for i, m := range members {
		r, ok := ratings[m.ID]
		if !ok {
			r = s.resolver.DefaultValue()
		}
		t := m.Tier()
		res := s.scorer.Score(scoring.Input{PlayerID: m.ID, Rating: r, Tier: t})
		players[i] = model.ScoredPlayer{Identity: m.Identity, Rating: r, Tier: t, Score: res.Score}
	}

	result := s.balancer.Balance(players)

	s.rngMu.Lock()
	ann, err := balance.Present(result, s.rng)
	s.rngMu.Unlock()
	if err != nil {
		return balance.Announcement{}, err
	}

	s.matches.Add(1)
	s.lastMatchID.Store(ann.MatchID)
	metrics.RecordMatchStarted(ann.Difference)
	s.logger.Info(ctx, "match started",
		logger.String("match_id", ann.MatchID),
		logger.Int("players", len(players)),
		logger.Float64("team1_score", ann.Team1.TotalScore),
		logger.Float64("team2_score", ann.Team2.TotalScore),
		logger.Float64("difference", ann.Difference),
		logger.Duration("took", s.now().Sub(start)),
	)
	return ann, nil
}

// PlayerStats looks up one player's profile. A missing profile is reported
// with Found false and the rating the player would get at match start.
func (s *Service) PlayerStats(ctx context.Context, dir Directory, id model.Identity) (PlayerStats, error) {
	m := s.member(ctx, dir, id)
	out := PlayerStats{Member: m, Tier: m.Tier(), Rating: s.resolver.DefaultValue()}

	p, err := s.resolver.Profile(ctx, m.Identity)
	if err != nil {
		if cached, ok := s.ratings.Get(m.ID); ok {
			out.Rating = cached
		}
		s.logger.Debug(ctx, "no stats profile", logger.String("user_id", m.ID), logger.Error(err))
		return out, nil
	}

	out.Found = true
	out.Profile = p
	if p.HasRating {
		out.Rating = p.Rating
	}
	return out, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	queueLen := s.queue.Len()
	capacity := s.queue.Capacity()
	cached := s.ratings.Count()

	stats := map[string]interface{}{
		"started":        s.started,
		"queueLength":    queueLen,
		"queueCapacity":  capacity,
		"cachedRatings":  cached,
		"matchesStarted": s.matches.Load(),
		"lastMatchId":    s.lastMatchID.Load(),
	}
	if s.started {
		stats["uptimeSeconds"] = int64(s.now().Sub(s.startedAt).Seconds())
	}

	metrics.UpdateQueueSize(queueLen, capacity)
	metrics.UpdateRatingCacheSize(cached)
	return stats
}

// CachedRatings lists every cached rating.
func (s *Service) CachedRatings(ctx context.Context) []repository.Entry {
	return s.ratings.Entries(ctx)
}

func (s *Service) joinResult(ctx context.Context, op string, id model.Identity, size int, err error) (JoinResult, error) {
	if err != nil {
		return JoinResult{}, err
	}
	res := JoinResult{Size: size, Capacity: s.queue.Capacity()}
	if size == res.Capacity {
		res.Full = true
		res.Roster = s.queue.Snapshot()
	}
	s.logger.Info(ctx, "player queued",
		logger.String("op", op),
		logger.String("user_id", id.ID),
		logger.Int("queued", size),
		logger.Bool("full", res.Full),
	)
	return res, nil
}

// member refreshes identity and roles. On lookup failure the queued identity
// is used with no roles, so the player scores as tier unknown.
func (s *Service) member(ctx context.Context, dir Directory, id model.Identity) model.Member {
	if dir == nil {
		return model.Member{Identity: id}
	}
	m, err := dir.Member(ctx, id.ID)
	if err != nil {
		s.logger.Warn(ctx, "member lookup failed", logger.String("user_id", id.ID), logger.Error(err))
		return model.Member{Identity: id}
	}
	return m
}

func (s *Service) metricsLoop(ctx context.Context, stop <-chan struct{}) {
	ticker := time.NewTicker(s.metricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			s.GetStats()
		}
	}
}

// defaultOnly rates everyone at the default.
type defaultOnly struct{}

func (defaultOnly) ResolveAll(_ context.Context, ids []model.Identity) map[string]int {
	out := make(map[string]int, len(ids))
	for _, id := range ids {
		out[id.ID] = rating.DefaultRating
	}
	return out
}

func (defaultOnly) Profile(context.Context, model.Identity) (rating.Profile, error) {
	return rating.Profile{}, rating.ErrRatingUnavailable
}

func (defaultOnly) DefaultValue() int { return rating.DefaultRating }
