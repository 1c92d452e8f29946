// Package balance splits scored players into two teams with a fixed draft order.
package balance

import (
	"cmp"
	"math"
	"slices"

	"github.com/montanaflynn/stats"

	"github.com/okian/pugbot/internal/domain/model"
)

type side int

const (
	sideA side = iota
	sideB
)

// draftOrder assigns positions of the score-sorted roster to teams.
// Index 0 is the strongest player.
var draftOrder = []side{sideA, sideB, sideB, sideA, sideA, sideB, sideB, sideA, sideB, sideA} //nolint:gochecknoglobals // fixed table

// Team is one side of a balanced match.
type Team struct {
	Players     []model.ScoredPlayer
	TotalScore  float64
	TotalRating int
}

// Result is the outcome of a balance run. Difference is |A - B| in score units.
type Result struct {
	TeamA      Team
	TeamB      Team
	Difference float64
}

// Balancer splits players into two teams.
type Balancer interface {
	Balance(players []model.ScoredPlayer) Result
}

// SnakeDraft assigns players by a fixed A B B A A B B A B A table over the
// score-sorted roster. Rosters larger than the table fill the smaller team.
type SnakeDraft struct{}

// NewSnakeDraft returns the default balancer.
func NewSnakeDraft() *SnakeDraft {
	return &SnakeDraft{}
}

// Balance is deterministic: equal scores keep their input order.
func (SnakeDraft) Balance(players []model.ScoredPlayer) Result {
	sorted := slices.Clone(players)
	slices.SortStableFunc(sorted, func(a, b model.ScoredPlayer) int {
		return cmp.Compare(b.Score, a.Score)
	})

	var a, b []model.ScoredPlayer
	for i, p := range sorted {
		if pick(i, a, b) == sideA {
			a = append(a, p)
		} else {
			b = append(b, p)
		}
	}

	teamA, teamB := newTeam(a), newTeam(b)
	return Result{
		TeamA:      teamA,
		TeamB:      teamB,
		Difference: math.Abs(teamA.TotalScore - teamB.TotalScore),
	}
}

func pick(pos int, a, b []model.ScoredPlayer) side {
	if pos < len(draftOrder) {
		return draftOrder[pos]
	}
	switch {
	case len(a) < len(b):
		return sideA
	case len(b) < len(a):
		return sideB
	case totalScore(b) < totalScore(a):
		return sideB
	default:
		return sideA
	}
}

func newTeam(players []model.ScoredPlayer) Team {
	t := Team{Players: players, TotalScore: totalScore(players)}
	for _, p := range players {
		t.TotalRating += p.Rating
	}
	return t
}

func totalScore(players []model.ScoredPlayer) float64 {
	if len(players) == 0 {
		return 0
	}
	data := make(stats.Float64Data, len(players))
	for i, p := range players {
		data[i] = p.Score
	}
	sum, err := stats.Sum(data)
	if err != nil {
		return 0
	}
	return sum
}
