package discord

import (
	"time"

	"github.com/okian/pugbot/internal/domain/cooldown"
	"github.com/okian/pugbot/pkg/logger"
)

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the handler logger.
func WithLogger(l logger.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithLimiter sets the per-author command cooldown.
func WithLimiter(l cooldown.Limiter) Option {
	return func(h *Handler) {
		if l != nil {
			h.limiter = l
		}
	}
}

// WithAdminRoles restricts !add, !remove and !swap to members holding one of
// the named roles. An empty list lets anyone use them.
func WithAdminRoles(roles []string) Option {
	return func(h *Handler) {
		h.adminRoles = append([]string(nil), roles...)
	}
}

// WithChannels limits the channels commands are accepted in.
func WithChannels(ids []string) Option {
	return func(h *Handler) {
		h.channels = make(map[string]struct{}, len(ids))
		for _, id := range ids {
			h.channels[id] = struct{}{}
		}
	}
}

// WithNoticeTTL sets how long error notices stay up. Zero keeps them.
func WithNoticeTTL(ttl time.Duration) Option {
	return func(h *Handler) {
		h.noticeTTL = ttl
	}
}

// WithCommandTimeout bounds the work done for a single command.
func WithCommandTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.commandTimeout = d
		}
	}
}
