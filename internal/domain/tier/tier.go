// Package tier maps role labels onto the community's manual tier scale.
package tier

import (
	"regexp"
	"strconv"
)

// Tier is a manually curated skill tier where 1 is the strongest and 4 the weakest.
// Half steps are allowed. The zero value means no tier role was found.
type Tier float64

// Unknown is the tier of a player without a recognised tier role.
const Unknown Tier = 0

// weightCeiling turns a tier into a weight: 5 - tier maps 1 -> 4 and 4 -> 1.
const weightCeiling = 5

var pattern = regexp.MustCompile(`(?i)\btier\s*([0-9](?:\.[0-9]+)?)\b`)

// Scale lists the valid tiers, strongest first.
var Scale = []Tier{1, 1.5, 2, 2.5, 3, 3.5, 4} //nolint:gochecknoglobals // fixed domain scale

// Of returns the first on-scale tier found in labels, or Unknown.
// It is recomputed on every call since role assignments change between matches.
func Of(labels []string) Tier {
	for _, label := range labels {
		for _, m := range pattern.FindAllStringSubmatch(label, -1) {
			if t, ok := Parse(m[1]); ok {
				return t
			}
		}
	}
	return Unknown
}

// Parse converts "2" or "2.5" into a Tier. Off-scale values are rejected.
func Parse(s string) (Tier, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Unknown, false
	}
	t := Tier(v)
	return t, t.Known()
}

// Known reports whether t is on the scale.
func (t Tier) Known() bool {
	for _, s := range Scale {
		if s == t {
			return true
		}
	}
	return false
}

// Weight is the inverse mapping used by the hybrid score; Unknown weighs 0.
func (t Tier) Weight() float64 {
	if !t.Known() {
		return 0
	}
	return weightCeiling - float64(t)
}

func (t Tier) String() string {
	if !t.Known() {
		return "?"
	}
	return strconv.FormatFloat(float64(t), 'f', -1, 64)
}

// Label renders the tier for chat output, e.g. "Tier 2.5".
func (t Tier) Label() string {
	return "Tier " + t.String()
}
