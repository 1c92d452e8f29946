package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/okian/pugbot/internal/domain/model"
)

// Gateway is the subset of the Discord API the handler needs.
type Gateway interface {
	SendMessage(channelID, content string) (string, error)
	SendEmbed(channelID, content string, embed *discordgo.MessageEmbed) (string, error)
	DeleteMessage(channelID, messageID string) error
	Member(guildID, userID string) (*discordgo.Member, error)
	RoleNames(guildID string, roleIDs []string) ([]string, error)
}

type sessionGateway struct {
	s *discordgo.Session
}

// NewSessionGateway wraps a discordgo session.
func NewSessionGateway(s *discordgo.Session) Gateway {
	return &sessionGateway{s: s}
}

func (g *sessionGateway) SendMessage(channelID, content string) (string, error) {
	m, err := g.s.ChannelMessageSend(channelID, content)
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}
	return m.ID, nil
}

func (g *sessionGateway) SendEmbed(channelID, content string, embed *discordgo.MessageEmbed) (string, error) {
	m, err := g.s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: content,
		Embeds:  []*discordgo.MessageEmbed{embed},
	})
	if err != nil {
		return "", fmt.Errorf("send embed: %w", err)
	}
	return m.ID, nil
}

func (g *sessionGateway) DeleteMessage(channelID, messageID string) error {
	return g.s.ChannelMessageDelete(channelID, messageID)
}

// Member reads from the state cache first and falls back to the REST API.
func (g *sessionGateway) Member(guildID, userID string) (*discordgo.Member, error) {
	if g.s.State != nil {
		if m, err := g.s.State.Member(guildID, userID); err == nil {
			return m, nil
		}
	}
	m, err := g.s.GuildMember(guildID, userID)
	if err != nil {
		return nil, fmt.Errorf("guild member %s: %w", userID, err)
	}
	if m.GuildID == "" {
		m.GuildID = guildID
	}
	if g.s.State != nil {
		_ = g.s.State.MemberAdd(m)
	}
	return m, nil
}

func (g *sessionGateway) RoleNames(guildID string, roleIDs []string) ([]string, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	byID := make(map[string]string, len(roleIDs))
	missing := false
	for _, id := range roleIDs {
		if g.s.State == nil {
			missing = true
			break
		}
		r, err := g.s.State.Role(guildID, id)
		if err != nil {
			missing = true
			break
		}
		byID[id] = r.Name
	}
	if missing {
		roles, err := g.s.GuildRoles(guildID)
		if err != nil {
			return nil, fmt.Errorf("guild roles: %w", err)
		}
		for _, r := range roles {
			byID[r.ID] = r.Name
		}
	}

	names := make([]string, 0, len(roleIDs))
	for _, id := range roleIDs {
		if name, ok := byID[id]; ok {
			names = append(names, name)
		}
	}
	return names, nil
}

// Directory looks members up in one guild.
type Directory struct {
	gw      Gateway
	guildID string
}

// NewDirectory returns a member directory for guildID.
func NewDirectory(gw Gateway, guildID string) *Directory {
	return &Directory{gw: gw, guildID: guildID}
}

// Member returns the member's current names and role names.
func (d *Directory) Member(ctx context.Context, userID string) (model.Member, error) {
	if err := ctx.Err(); err != nil {
		return model.Member{}, err
	}
	m, err := d.gw.Member(d.guildID, userID)
	if err != nil {
		return model.Member{}, err
	}
	if m == nil || m.User == nil {
		return model.Member{}, fmt.Errorf("member %s: %w", userID, ErrInvalidReference)
	}
	roles, err := d.gw.RoleNames(d.guildID, m.Roles)
	if err != nil {
		return model.Member{}, err
	}
	return model.Member{
		Identity:   identityOf(m.User, m.Nick),
		RoleLabels: roles,
	}, nil
}

func identityOf(u *discordgo.User, nick string) model.Identity {
	return model.Identity{
		ID:         u.ID,
		Username:   u.Username,
		GlobalName: u.GlobalName,
		Nickname:   nick,
	}
}
