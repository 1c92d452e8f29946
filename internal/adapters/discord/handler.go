package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/lo"

	app "github.com/okian/pugbot/internal/app"
	"github.com/okian/pugbot/internal/domain/balance"
	"github.com/okian/pugbot/internal/domain/cooldown"
	"github.com/okian/pugbot/internal/domain/model"
	"github.com/okian/pugbot/internal/domain/queue"
	"github.com/okian/pugbot/pkg/logger"
	"github.com/okian/pugbot/pkg/metrics"
)

const (
	defaultNoticeTTL      = 5 * time.Second
	defaultCommandTimeout = 90 * time.Second

	outcomeOK       = "ok"
	outcomeRejected = "rejected"
	outcomeDenied   = "denied"
	outcomeError    = "error"
)

// Matchmaker is the match service as seen by the chat handler.
type Matchmaker interface {
	Join(ctx context.Context, id model.Identity) (app.JoinResult, error)
	Add(ctx context.Context, id model.Identity) (app.JoinResult, error)
	Leave(ctx context.Context, userID string) error
	Remove(ctx context.Context, userID string) error
	Swap(ctx context.Context, outID string, in model.Identity) error
	Capacity() int
	Panel(ctx context.Context, dir app.Directory) queue.Panel
	StartMatch(ctx context.Context, dir app.Directory) (balance.Announcement, error)
	PlayerStats(ctx context.Context, dir app.Directory, id model.Identity) (app.PlayerStats, error)
}

// Message is an inbound chat message stripped down to what commands use.
type Message struct {
	ID        string
	ChannelID string
	GuildID   string
	Content   string

	Author        model.Identity
	AuthorBot     bool
	AuthorRoleIDs []string
	Mentions      []model.Identity
}

// Handler turns chat messages into match service calls.
type Handler struct {
	svc     Matchmaker
	gw      Gateway
	limiter cooldown.Limiter

	adminRoles     []string
	channels       map[string]struct{}
	noticeTTL      time.Duration
	commandTimeout time.Duration

	logger logger.Logger
}

// NewHandler creates a command handler.
func NewHandler(svc Matchmaker, gw Gateway, opts ...Option) *Handler {
	h := &Handler{
		svc:            svc,
		gw:             gw,
		noticeTTL:      defaultNoticeTTL,
		commandTimeout: defaultCommandTimeout,
		logger:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.limiter == nil {
		h.limiter = cooldown.New()
	}
	return h
}

// OnMessageCreate is the discordgo event callback.
func (h *Handler) OnMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m == nil || m.Message == nil || m.Author == nil {
		return
	}
	h.Handle(context.Background(), messageFrom(m.Message))
}

// Handle runs one message through the command table.
func (h *Handler) Handle(ctx context.Context, msg Message) {
	if msg.AuthorBot || msg.Author.ID == "" {
		return
	}
	if len(h.channels) > 0 {
		if _, ok := h.channels[msg.ChannelID]; !ok {
			return
		}
	}
	cmd, args, ok := parseCommand(msg.Content)
	if !ok {
		return
	}
	if !h.limiter.Allow(ctx, msg.Author.ID, msg.Content) {
		h.logger.Debug(ctx, "command dropped by cooldown",
			logger.String("user_id", msg.Author.ID),
			logger.String("command", string(cmd)),
		)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, h.commandTimeout)
	defer cancel()

	start := time.Now()
	outcome := h.dispatch(ctx, cmd, args, msg)
	metrics.RecordCommand(string(cmd), outcome)
	metrics.RecordCommandLatency(string(cmd), float64(time.Since(start).Milliseconds()))
}

func (h *Handler) dispatch(ctx context.Context, cmd command, args string, msg Message) string {
	dir := NewDirectory(h.gw, msg.GuildID)

	switch cmd {
	case cmdJoin:
		return h.join(ctx, msg, dir)
	case cmdLeave:
		return h.leave(ctx, msg, dir)
	case cmdCurrent:
		h.sendPanel(ctx, msg.ChannelID, dir)
		return outcomeOK
	case cmdStart:
		return h.start(ctx, msg, dir)
	case cmdStats:
		return h.stats(ctx, args, msg, dir)
	}

	if err := h.requireAdmin(msg); err != nil {
		if errors.Is(err, ErrNotPermitted) {
			h.notice(ctx, msg.ChannelID, "You don't have permission to use that command!")
			return outcomeDenied
		}
		h.logger.Error(ctx, "admin check failed", logger.Error(err))
		return outcomeError
	}

	switch cmd {
	case cmdAdd:
		return h.add(ctx, args, msg, dir)
	case cmdRemove:
		return h.remove(ctx, args, msg, dir)
	case cmdSwap:
		return h.swap(ctx, args, msg, dir)
	}
	return outcomeError
}

func (h *Handler) join(ctx context.Context, msg Message, dir *Directory) string {
	res, err := h.svc.Join(ctx, msg.Author)
	switch {
	case errors.Is(err, queue.ErrAlreadyQueued):
		h.notice(ctx, msg.ChannelID, msg.Author.Mention()+", you're already in queue!")
		return outcomeRejected
	case errors.Is(err, queue.ErrQueueFull):
		h.notice(ctx, msg.ChannelID, h.fullNotice())
		return outcomeRejected
	case err != nil:
		h.logger.Error(ctx, "join failed", logger.String("user_id", msg.Author.ID), logger.Error(err))
		return outcomeError
	}

	h.sendPanel(ctx, msg.ChannelID, dir)
	if res.Full {
		h.send(ctx, msg.ChannelID, pingMessage(res.Roster))
	}
	return outcomeOK
}

func (h *Handler) leave(ctx context.Context, msg Message, dir *Directory) string {
	err := h.svc.Leave(ctx, msg.Author.ID)
	switch {
	case errors.Is(err, queue.ErrNotQueued):
		h.notice(ctx, msg.ChannelID, msg.Author.Mention()+", you're not in queue!")
		return outcomeRejected
	case err != nil:
		h.logger.Error(ctx, "leave failed", logger.String("user_id", msg.Author.ID), logger.Error(err))
		return outcomeError
	}
	h.sendPanel(ctx, msg.ChannelID, dir)
	return outcomeOK
}

func (h *Handler) start(ctx context.Context, msg Message, dir *Directory) string {
	ann, err := h.svc.StartMatch(ctx, dir)
	switch {
	case errors.Is(err, app.ErrQueueEmpty):
		h.notice(ctx, msg.ChannelID, "Queue is empty!")
		return outcomeRejected
	case err != nil:
		h.logger.Error(ctx, "match start failed", logger.Error(err))
		h.notice(ctx, msg.ChannelID, "Could not start the match, please try again.")
		return outcomeError
	}

	players := append(append([]model.ScoredPlayer(nil), ann.Team1.Players...), ann.Team2.Players...)
	mentions := lo.Map(players, func(p model.ScoredPlayer, _ int) string { return p.Mention() })
	if _, err := h.gw.SendEmbed(msg.ChannelID, strings.Join(mentions, " "), matchEmbed(ann)); err != nil {
		h.logger.Error(ctx, "failed to announce match",
			logger.String("match_id", ann.MatchID),
			logger.Error(err),
		)
		return outcomeError
	}
	if msg.ID != "" {
		if err := h.gw.DeleteMessage(msg.ChannelID, msg.ID); err != nil {
			h.logger.Debug(ctx, "could not delete start command", logger.Error(err))
		}
	}
	return outcomeOK
}

func (h *Handler) add(ctx context.Context, args string, msg Message, dir *Directory) string {
	refs := parseReferences(args)
	if len(refs) == 0 {
		h.notice(ctx, msg.ChannelID, "Please mention a user!")
		return outcomeRejected
	}

	added := 0
	for _, ref := range refs {
		id, err := h.identity(ctx, ref, msg, dir)
		if err != nil {
			h.notice(ctx, msg.ChannelID, "Please mention a user!")
			continue
		}
		res, err := h.svc.Add(ctx, id)
		switch {
		case errors.Is(err, queue.ErrAlreadyQueued):
			h.notice(ctx, msg.ChannelID, id.Mention()+" is already in queue!")
			continue
		case errors.Is(err, queue.ErrQueueFull):
			h.notice(ctx, msg.ChannelID, h.fullNotice())
		case err != nil:
			h.logger.Error(ctx, "add failed", logger.String("user_id", id.ID), logger.Error(err))
		default:
			added++
			h.send(ctx, msg.ChannelID, id.Mention()+" was added to queue!")
			if res.Full {
				h.send(ctx, msg.ChannelID, pingMessage(res.Roster))
			}
			continue
		}
		break
	}

	if added == 0 {
		return outcomeRejected
	}
	h.sendPanel(ctx, msg.ChannelID, dir)
	return outcomeOK
}

func (h *Handler) remove(ctx context.Context, args string, msg Message, dir *Directory) string {
	refs := parseReferences(args)
	if len(refs) == 0 {
		h.notice(ctx, msg.ChannelID, "Please mention a user!")
		return outcomeRejected
	}
	mention := model.Identity{ID: refs[0]}.Mention()

	err := h.svc.Remove(ctx, refs[0])
	switch {
	case errors.Is(err, queue.ErrNotQueued):
		h.notice(ctx, msg.ChannelID, mention+" isn't in queue!")
		return outcomeRejected
	case err != nil:
		h.logger.Error(ctx, "remove failed", logger.String("user_id", refs[0]), logger.Error(err))
		return outcomeError
	}
	h.send(ctx, msg.ChannelID, mention+" was removed from queue!")
	h.sendPanel(ctx, msg.ChannelID, dir)
	return outcomeOK
}

func (h *Handler) swap(ctx context.Context, args string, msg Message, dir *Directory) string {
	refs := parseReferences(args)
	if len(refs) < 2 {
		h.notice(ctx, msg.ChannelID, "Please mention two users!")
		return outcomeRejected
	}
	outMention := model.Identity{ID: refs[0]}.Mention()
	in, err := h.identity(ctx, refs[1], msg, dir)
	if err != nil {
		h.notice(ctx, msg.ChannelID, "Please mention a user!")
		return outcomeRejected
	}

	err = h.svc.Swap(ctx, refs[0], in)
	switch {
	case errors.Is(err, queue.ErrNotQueued):
		h.notice(ctx, msg.ChannelID, outMention+" isn't in queue!")
		return outcomeRejected
	case errors.Is(err, queue.ErrAlreadyQueued):
		h.notice(ctx, msg.ChannelID, in.Mention()+" is already in queue!")
		return outcomeRejected
	case err != nil:
		h.logger.Error(ctx, "swap failed", logger.Error(err))
		return outcomeError
	}
	h.send(ctx, msg.ChannelID, fmt.Sprintf("%s was swapped out for %s!", outMention, in.Mention()))
	h.sendPanel(ctx, msg.ChannelID, dir)
	return outcomeOK
}

func (h *Handler) stats(ctx context.Context, args string, msg Message, dir *Directory) string {
	target := msg.Author
	if refs := parseReferences(args); len(refs) > 0 {
		id, err := h.identity(ctx, refs[0], msg, dir)
		if err != nil {
			h.notice(ctx, msg.ChannelID, "Please mention a user!")
			return outcomeRejected
		}
		target = id
	}

	st, err := h.svc.PlayerStats(ctx, dir, target)
	if err != nil {
		h.logger.Error(ctx, "stats lookup failed", logger.String("user_id", target.ID), logger.Error(err))
		return outcomeError
	}
	if _, err := h.gw.SendEmbed(msg.ChannelID, "", statsEmbed(st)); err != nil {
		h.logger.Error(ctx, "failed to send stats", logger.Error(err))
		return outcomeError
	}
	return outcomeOK
}

// identity resolves a reference from the message mentions, then from the guild.
func (h *Handler) identity(ctx context.Context, ref string, msg Message, dir *Directory) (model.Identity, error) {
	if id, ok := lo.Find(msg.Mentions, func(m model.Identity) bool { return m.ID == ref }); ok {
		return id, nil
	}
	m, err := dir.Member(ctx, ref)
	if err != nil {
		return model.Identity{}, fmt.Errorf("%s: %w", ref, ErrInvalidReference)
	}
	return m.Identity, nil
}

func (h *Handler) requireAdmin(msg Message) error {
	if len(h.adminRoles) == 0 {
		return nil
	}
	names, err := h.gw.RoleNames(msg.GuildID, msg.AuthorRoleIDs)
	if err != nil {
		return err
	}
	allowed := lo.SomeBy(names, func(name string) bool {
		return lo.ContainsBy(h.adminRoles, func(role string) bool { return strings.EqualFold(role, name) })
	})
	if !allowed {
		return ErrNotPermitted
	}
	return nil
}

func (h *Handler) fullNotice() string {
	return fmt.Sprintf("Queue is full (%d max)!", h.svc.Capacity())
}

func (h *Handler) sendPanel(ctx context.Context, channelID string, dir *Directory) {
	if _, err := h.gw.SendEmbed(channelID, "", rosterEmbed(h.svc.Panel(ctx, dir))); err != nil {
		h.logger.Error(ctx, "failed to send queue panel", logger.Error(err))
	}
}

func (h *Handler) send(ctx context.Context, channelID, text string) {
	if _, err := h.gw.SendMessage(channelID, text); err != nil {
		h.logger.Error(ctx, "failed to send message", logger.Error(err))
	}
}

// notice sends a short message that removes itself after the notice TTL.
func (h *Handler) notice(ctx context.Context, channelID, text string) {
	id, err := h.gw.SendMessage(channelID, text)
	if err != nil {
		h.logger.Error(ctx, "failed to send notice", logger.Error(err))
		return
	}
	if h.noticeTTL <= 0 || id == "" {
		return
	}
	time.AfterFunc(h.noticeTTL, func() {
		if err := h.gw.DeleteMessage(channelID, id); err != nil {
			h.logger.Debug(context.Background(), "could not delete notice", logger.Error(err))
		}
	})
}

func messageFrom(m *discordgo.Message) Message {
	msg := Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		Content:   m.Content,
		AuthorBot: m.Author.Bot,
		Mentions: lo.FilterMap(m.Mentions, func(u *discordgo.User, _ int) (model.Identity, bool) {
			if u == nil {
				return model.Identity{}, false
			}
			return identityOf(u, ""), true
		}),
	}
	nick := ""
	if m.Member != nil {
		nick = m.Member.Nick
		msg.AuthorRoleIDs = m.Member.Roles
	}
	msg.Author = identityOf(m.Author, nick)
	return msg
}
