package queue

import (
	"fmt"
	"time"

	"github.com/okian/pugbot/internal/domain/tier"
)

// Panel is the pre-match roster display. The halves are positional only;
// actual teams are decided at match start.
type Panel struct {
	Team1    []string
	Team2    []string
	Size     int
	Capacity int
}

// Count renders the capacity counter, e.g. "7/10 players".
func (p Panel) Count() string {
	return fmt.Sprintf("%d/%d players", p.Size, p.Capacity)
}

// TierFunc looks up a player's current tier by id.
type TierFunc func(id string) tier.Tier

// BuildPanel renders one row per slot: "NN. <@id> [Nm] (Tier t)" or "NN. Empty".
// A nil tierOf renders every tier as unknown.
func BuildPanel(entries []Entry, capacity int, now time.Time, tierOf TierFunc) Panel {
	if capacity < len(entries) {
		capacity = len(entries)
	}
	half := (capacity + 1) / 2

	p := Panel{Size: len(entries), Capacity: capacity}
	for i := 0; i < capacity; i++ {
		row := fmt.Sprintf("%02d. Empty", i+1)
		if i < len(entries) {
			e := entries[i]
			t := tier.Unknown
			if tierOf != nil {
				t = tierOf(e.Identity.ID)
			}
			row = fmt.Sprintf("%02d. %s [%s] (%s)", i+1, e.Identity.Mention(), waited(now, e.JoinedAt), t.Label())
		}
		if i < half {
			p.Team1 = append(p.Team1, row)
		} else {
			p.Team2 = append(p.Team2, row)
		}
	}
	return p
}

func waited(now, joined time.Time) string {
	d := now.Sub(joined)
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%dm", int(d/time.Minute))
}
