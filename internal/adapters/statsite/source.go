// Package statsite reads player profiles from the community stats website.
package statsite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/okian/pugbot/internal/domain/rating"
	"github.com/okian/pugbot/pkg/logger"
	"github.com/okian/pugbot/pkg/metrics"
)

// Source implements rating.Source over a PageFetcher.
type Source struct {
	baseURL string
	fetcher PageFetcher
	logger  logger.Logger
}

// NewSource creates a source reading <baseURL>/player/<name>.
func NewSource(baseURL string, fetcher PageFetcher, opts ...SourceOption) *Source {
	s := &Source{
		baseURL: strings.TrimRight(baseURL, "/"),
		fetcher: fetcher,
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProfileURL returns the page address for name. The name is used verbatim;
// callers pick the spelling.
func (s *Source) ProfileURL(name string) string {
	return s.baseURL + "/player/" + name
}

// Lookup fetches and parses the profile page for name.
func (s *Source) Lookup(ctx context.Context, name string) (rating.Profile, error) {
	url := s.ProfileURL(name)

	html, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		if errors.Is(err, ErrPlayerNotFound) {
			metrics.RecordErrorByComponent("statsite", "not_found")
			return rating.Profile{}, err
		}
		metrics.RecordErrorByComponent("statsite", "fetch")
		if !errors.Is(err, ErrExternalFetch) {
			err = fmt.Errorf("%w: %w", ErrExternalFetch, err)
		}
		return rating.Profile{}, err
	}

	p, err := Parse(html)
	if err != nil {
		if errors.Is(err, ErrPlayerNotFound) {
			metrics.RecordErrorByComponent("statsite", "not_found")
		} else {
			metrics.RecordErrorByComponent("statsite", "parse")
		}
		return rating.Profile{}, err
	}

	p.Name = name
	p.URL = url
	s.logger.Debug(ctx, "stats page parsed",
		logger.String("url", url),
		logger.Bool("has_rating", p.HasRating),
		logger.Int("stats", len(p.Stats)),
	)
	return p, nil
}
