package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/okian/pugbot/pkg/logger"
)

// Intents the bot needs: guild metadata, guild messages with content, and
// member lookups for nicknames and tier roles.
const Intents = discordgo.IntentGuilds |
	discordgo.IntentGuildMessages |
	discordgo.IntentMessageContent |
	discordgo.IntentGuildMembers

// Bot owns the gateway session and routes message events to a Handler.
type Bot struct {
	session *discordgo.Session
	handler *Handler
	logger  logger.Logger
	remove  []func()
}

// NewBot creates a session for token. The connection is opened by Open.
func NewBot(token string, svc Matchmaker, opts ...Option) (*Bot, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	s.StateEnabled = true
	s.LogLevel = discordgo.LogWarning
	s.Identify.Intents = Intents

	h := NewHandler(svc, NewSessionGateway(s), opts...)
	return &Bot{session: s, handler: h, logger: h.logger}, nil
}

// Handler returns the command handler.
func (b *Bot) Handler() *Handler { return b.handler }

// Open registers event handlers and connects to the gateway.
func (b *Bot) Open(ctx context.Context) error {
	discordgo.Logger = logBridge(b.logger)

	b.remove = append(b.remove,
		b.session.AddHandlerOnce(func(_ *discordgo.Session, r *discordgo.Ready) {
			b.logger.Info(ctx, "discord session ready",
				logger.String("user", r.User.Username),
				logger.Int("guilds", len(r.Guilds)),
			)
		}),
		b.session.AddHandler(func(_ *discordgo.Session, r *discordgo.RateLimit) {
			b.logger.Warn(ctx, "discord rate limit", logger.String("url", r.URL))
		}),
		b.session.AddHandler(b.handler.OnMessageCreate),
	)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	return nil
}

// Close detaches handlers and closes the gateway connection.
func (b *Bot) Close() error {
	for _, rm := range b.remove {
		rm()
	}
	b.remove = nil
	return b.session.Close()
}

// logBridge routes discordgo's internal logging through our logger.
func logBridge(l logger.Logger) func(msgL, caller int, format string, a ...interface{}) {
	l = l.Named("discordgo")
	return func(msgL, _ int, format string, a ...interface{}) {
		ctx := context.Background()
		msg := fmt.Sprintf(format, a...)
		switch msgL {
		case discordgo.LogError:
			l.Error(ctx, msg)
		case discordgo.LogWarning:
			l.Warn(ctx, msg)
		case discordgo.LogInformational:
			l.Info(ctx, msg)
		default:
			l.Debug(ctx, msg)
		}
	}
}
