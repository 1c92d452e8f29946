package rating

import "context"

// Stat is one labelled value from a player's stats page.
type Stat struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Profile is what a source extracted from one player page.
type Profile struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	Rating    int    `json:"rating"`
	HasRating bool   `json:"has_rating"`
	Stats     []Stat `json:"stats"`
}

// Source looks a single name up on the external stats site.
type Source interface {
	Lookup(ctx context.Context, name string) (Profile, error)
}

// Cache remembers resolved ratings by identity id.
type Cache interface {
	Get(id string) (int, bool)
	Set(id string, rating int)
}
