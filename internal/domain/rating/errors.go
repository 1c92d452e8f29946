package rating

import "errors"

// Sentinel error kinds for this package.
var (
	// ErrRatingUnavailable means no candidate name produced a usable profile.
	// Resolve never returns it; it falls back to the default rating instead.
	ErrRatingUnavailable = errors.New("rating unavailable")

	// ErrNoProfile marks source failures that retrying the same name will not fix,
	// such as a missing player or an unparseable page. Sources wrap it.
	ErrNoProfile = errors.New("no usable profile")
)
