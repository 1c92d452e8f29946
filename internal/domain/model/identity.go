// Package model contains domain models passed between layers.
package model

import (
	"strings"

	"github.com/samber/lo"

	"github.com/okian/pugbot/internal/domain/tier"
)

// Identity is a chat user as seen by the bot.
type Identity struct {
	ID         string // stable platform id; the only key used for equality
	Username   string // account handle
	GlobalName string // account-wide display name
	Nickname   string // per-guild display name
}

// NameCandidates returns the non-empty names in lookup priority order
// (nickname, global name, username) with case-sensitive duplicates removed.
func (i Identity) NameCandidates() []string {
	names := lo.Map([]string{i.Nickname, i.GlobalName, i.Username}, func(s string, _ int) string {
		return strings.TrimSpace(s)
	})
	return lo.Uniq(lo.Compact(names))
}

// DisplayName is the best human-readable name, falling back to the id.
func (i Identity) DisplayName() string {
	if names := i.NameCandidates(); len(names) > 0 {
		return names[0]
	}
	return i.ID
}

// Mention renders the identity as a chat mention.
func (i Identity) Mention() string {
	return "<@" + i.ID + ">"
}

// Member is an identity with the role labels read at the same moment.
type Member struct {
	Identity
	RoleLabels []string
}

// Tier derives the member's current tier from its role labels.
func (m Member) Tier() tier.Tier {
	return tier.Of(m.RoleLabels)
}

// ScoredPlayer is a player ready for balancing. It lives for one match start.
type ScoredPlayer struct {
	Identity
	Rating int
	Tier   tier.Tier
	Score  float64
}
