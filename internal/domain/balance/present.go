package balance

import (
	"cmp"
	"math/rand"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/okian/pugbot/internal/domain/model"
)

// Announcement is the presentation form of a balanced match.
type Announcement struct {
	MatchID    string
	Team1      Team
	Team2      Team
	Difference float64
}

// Present labels the teams for display. It swaps A and B with probability 0.5
// so the stronger draft side is not always "Team 1", then orders each team by
// rating, highest first. A nil rng is seeded from the clock.
func Present(result Result, rng *rand.Rand) (Announcement, error) {
	if len(result.TeamA.Players)+len(result.TeamB.Players) == 0 {
		return Announcement{}, ErrNoPlayers
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // cosmetic label flip
	}

	first, second := result.TeamA, result.TeamB
	if rng.Intn(2) == 1 {
		first, second = second, first
	}

	return Announcement{
		MatchID:    uuid.NewString(),
		Team1:      byRating(first),
		Team2:      byRating(second),
		Difference: result.Difference,
	}, nil
}

func byRating(t Team) Team {
	players := slices.Clone(t.Players)
	slices.SortStableFunc(players, func(a, b model.ScoredPlayer) int {
		return cmp.Compare(b.Rating, a.Rating)
	})
	t.Players = players
	return t
}
