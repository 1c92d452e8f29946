package statsite

import (
	"errors"
	"fmt"

	"github.com/okian/pugbot/internal/domain/rating"
)

// Sentinel kinds for stats-site errors. Not-found and parse failures wrap
// rating.ErrNoProfile so the resolver moves on without retrying.
var (
	ErrExternalFetch  = errors.New("stats page fetch failed")
	ErrPlayerNotFound = fmt.Errorf("player not found: %w", rating.ErrNoProfile)
	ErrExternalParse  = fmt.Errorf("stats page parse failed: %w", rating.ErrNoProfile)
)
