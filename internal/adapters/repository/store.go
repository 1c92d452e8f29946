// Package repository holds the process-scoped rating cache.
package repository

import (
	"context"
	"sort"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/okian/pugbot/pkg/metrics"
)

// Entry is a cached rating.
type Entry struct {
	PlayerID string `json:"player_id"`
	Rating   int    `json:"rating"`
}

// Store provides read/write access to cached ratings. It satisfies rating.Cache.
type Store interface {
	Get(id string) (int, bool)
	Set(id string, rating int)
	// Delete forgets a player so the next match refetches them.
	Delete(id string)
	Count() int
	// Entries returns every cached rating ordered by rating desc.
	Entries(ctx context.Context) []Entry
}

// RatingStore implements Store on go-cache. Entries never expire by default,
// so a rating lives until the process restarts.
type RatingStore struct {
	c *cache.Cache
}

// NewRatingStore creates an empty store.
func NewRatingStore(opts ...Option) *RatingStore {
	cfg := storeConfig{ttl: cache.NoExpiration}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &RatingStore{c: cache.New(cfg.ttl, cfg.cleanupInterval)}
}

// Get returns the cached rating for id.
func (s *RatingStore) Get(id string) (int, bool) {
	v, ok := s.c.Get(id)
	if !ok {
		return 0, false
	}
	rating, ok := v.(int)
	return rating, ok
}

// Set stores a rating using the store's default expiration.
func (s *RatingStore) Set(id string, rating int) {
	s.c.SetDefault(id, rating)
	metrics.UpdateRatingCacheSize(s.c.ItemCount())
}

// Delete removes id.
func (s *RatingStore) Delete(id string) {
	s.c.Delete(id)
	metrics.UpdateRatingCacheSize(s.c.ItemCount())
}

// Count returns the number of cached ratings, including expired items not yet cleaned up.
func (s *RatingStore) Count() int {
	return s.c.ItemCount()
}

// Entries returns a sorted copy of the cache.
func (s *RatingStore) Entries(_ context.Context) []Entry {
	items := s.c.Items()
	out := make([]Entry, 0, len(items))
	for id, item := range items {
		if rating, ok := item.Object.(int); ok {
			out = append(out, Entry{PlayerID: id, Rating: rating})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	return out
}

type storeConfig struct {
	ttl             time.Duration
	cleanupInterval time.Duration
}
