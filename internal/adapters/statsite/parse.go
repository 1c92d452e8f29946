package statsite

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/okian/pugbot/internal/domain/rating"
)

// notFoundMarkers are lower-cased phrases the site shows instead of a profile.
var notFoundMarkers = []string{ //nolint:gochecknoglobals // fixed site vocabulary
	"player not found",
	"no player found",
	"page not found",
	"could not find player",
}

var (
	eloText   = regexp.MustCompile(`(?i)ELO\s*Score\s*:?\s*([\d,]+)`)
	nonDigits = regexp.MustCompile(`\D+`)
	nonAlnum  = regexp.MustCompile(`[^a-z0-9]+`)
	spaces    = regexp.MustCompile(`\s+`)
)

// Parse extracts the rating and stat rows from a player page.
//
// A page that shows a not-found message returns ErrPlayerNotFound. A page
// with neither tables nor an ELO line returns ErrExternalParse. A page with
// stats but no ELO row returns a profile with HasRating false.
func Parse(html string) (rating.Profile, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return rating.Profile{}, fmt.Errorf("%w: %w", ErrExternalParse, err)
	}

	body := clean(doc.Find("body").Text())
	lower := strings.ToLower(body)
	for _, marker := range notFoundMarkers {
		if strings.Contains(lower, marker) {
			return rating.Profile{}, ErrPlayerNotFound
		}
	}

	var p rating.Profile
	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		stat, ok := statFromRow(row)
		if !ok {
			return
		}
		p.Stats = append(p.Stats, stat)
		if !p.HasRating && isEloLabel(stat.Label) {
			if v, ok := digits(stat.Value); ok {
				p.Rating, p.HasRating = v, true
			}
		}
	})

	if !p.HasRating {
		if m := eloText.FindStringSubmatch(body); m != nil {
			if v, ok := digits(m[1]); ok {
				p.Rating, p.HasRating = v, true
			}
		}
	}

	if !p.HasRating && len(p.Stats) == 0 {
		return rating.Profile{}, ErrExternalParse
	}
	return p, nil
}

// statFromRow reads "label | value" cells or a single "label: value" cell.
func statFromRow(row *goquery.Selection) (rating.Stat, bool) {
	cells := row.Find("th, td")
	if cells.Length() >= 2 {
		label := strings.TrimSuffix(clean(cells.First().Text()), ":")
		value := clean(cells.Last().Text())
		if label == "" || value == "" {
			return rating.Stat{}, false
		}
		return rating.Stat{Label: label, Value: value}, true
	}

	label, value, ok := strings.Cut(clean(row.Text()), ":")
	label, value = strings.TrimSpace(label), strings.TrimSpace(value)
	if !ok || label == "" || value == "" {
		return rating.Stat{}, false
	}
	return rating.Stat{Label: label, Value: value}, true
}

func isEloLabel(label string) bool {
	return strings.Contains(nonAlnum.ReplaceAllString(strings.ToLower(label), ""), "eloscore")
}

func digits(s string) (int, bool) {
	d := nonDigits.ReplaceAllString(s, "")
	if d == "" {
		return 0, false
	}
	v, err := strconv.Atoi(d)
	if err != nil {
		return 0, false
	}
	return v, true
}

func clean(s string) string {
	return strings.TrimSpace(spaces.ReplaceAllString(s, " "))
}
