package discord

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/lo"

	app "github.com/okian/pugbot/internal/app"
	"github.com/okian/pugbot/internal/domain/balance"
	"github.com/okian/pugbot/internal/domain/model"
	"github.com/okian/pugbot/internal/domain/queue"
)

const (
	embedColor  = 0x00AE86
	spacer      = "\u200B"
	maxFields   = 25
	fieldMaxLen = 1024
)

func rosterEmbed(p queue.Panel) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Current Queue",
		Color:       embedColor,
		Description: fmt.Sprintf("**%s**", p.Count()),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Team 1", Value: fieldValue(p.Team1), Inline: true},
			{Name: spacer, Value: spacer, Inline: true},
			{Name: "Team 2", Value: fieldValue(p.Team2), Inline: true},
		},
	}
}

func matchEmbed(a balance.Announcement) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "Game ready!",
		Color: embedColor,
		Description: fmt.Sprintf("Team 1 score: %.2f\nTeam 2 score: %.2f\nDifference: %.2f",
			a.Team1.TotalScore, a.Team2.TotalScore, a.Difference),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Team 1", Value: fieldValue(teamRows(a.Team1)), Inline: true},
			{Name: "Team 2", Value: fieldValue(teamRows(a.Team2)), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Match ID: " + a.MatchID},
	}
}

func teamRows(t balance.Team) []string {
	return lo.Map(t.Players, func(p model.ScoredPlayer, _ int) string {
		return fmt.Sprintf("%s (ELO %d, Tier %s)", p.Mention(), p.Rating, p.Tier)
	})
}

func statsEmbed(s app.PlayerStats) *discordgo.MessageEmbed {
	desc := fmt.Sprintf("%s\nELO: %d\n%s", s.Member.Mention(), s.Rating, s.Tier.Label())
	e := &discordgo.MessageEmbed{
		Title: s.Member.DisplayName(),
		Color: embedColor,
	}
	if !s.Found {
		e.Description = desc + "\nNo stats profile found, using the default rating."
		return e
	}
	e.Description = desc
	e.URL = s.Profile.URL
	for _, st := range s.Profile.Stats {
		if len(e.Fields) == maxFields {
			break
		}
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
			Name:   lo.Ternary(st.Label == "", spacer, st.Label),
			Value:  lo.Ternary(st.Value == "", spacer, st.Value),
			Inline: true,
		})
	}
	return e
}

func pingMessage(roster []queue.Entry) string {
	mentions := lo.Map(roster, func(e queue.Entry, _ int) string { return e.Identity.Mention() })
	return "Queue full! Playing:\n" + strings.Join(mentions, " ")
}

// fieldValue joins rows for an embed field, which must be non-empty and at
// most 1024 characters.
func fieldValue(rows []string) string {
	v := strings.Join(rows, "\n")
	if v == "" {
		return spacer
	}
	if len(v) > fieldMaxLen {
		v = v[:fieldMaxLen-3] + "..."
	}
	return v
}
