// Package scoring combines an external rating and a manual tier into one comparable number.
package scoring

import (
	"github.com/okian/pugbot/internal/domain/tier"
)

// Default scoring configuration constants.
const (
	defaultBaseline = 1000
	defaultScale    = 200
)

// Option applies a configuration option to the Hybrid scorer.
type Option func(*Hybrid)

// WithBaseline sets the rating that contributes zero to the score.
func WithBaseline(baseline float64) Option {
	return func(h *Hybrid) {
		h.baseline = baseline
	}
}

// WithScale sets how many rating points equal one tier step.
func WithScale(scale float64) Option {
	return func(h *Hybrid) {
		if scale > 0 {
			h.scale = scale
		}
	}
}

// Input holds what a player contributes to the score.
type Input struct {
	PlayerID string
	Rating   int
	Tier     tier.Tier
}

// Result is the computed score with its two components.
type Result struct {
	PlayerID     string
	TierWeight   float64
	RatingOffset float64
	Score        float64
}

// Scorer computes a hybrid score.
type Scorer interface {
	Score(in Input) Result
}

// Hybrid scores a player as tier weight plus normalized rating offset.
type Hybrid struct {
	baseline float64
	scale    float64
}

// NewHybrid creates a hybrid scorer with the 1000/200 normalization unless overridden.
func NewHybrid(opts ...Option) *Hybrid {
	h := &Hybrid{
		baseline: defaultBaseline,
		scale:    defaultScale,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Score is deterministic and pure. An unknown tier contributes 0, which is the
// worst case on a scale where the weakest known tier weighs 1.
func (h *Hybrid) Score(in Input) Result {
	weight := in.Tier.Weight()
	offset := (float64(in.Rating) - h.baseline) / h.scale
	return Result{
		PlayerID:     in.PlayerID,
		TierWeight:   weight,
		RatingOffset: offset,
		Score:        weight + offset,
	}
}
