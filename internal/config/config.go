// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults and Load(ctx) to layer overrides.
// - Durations accept Go duration strings ("2s", "15s") in YAML and env.
// - Validation errors wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Page fetcher implementations selectable with Fetcher.
const (
	FetcherBrowser = "browser"
	FetcherHTTP    = "http"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":3000".
	Addr string `koanf:"addr"`

	// DiscordToken is the bot token used to open the gateway session.
	DiscordToken string `koanf:"discord_token"`

	// MaxSlots is the queue capacity.
	MaxSlots int `koanf:"max_slots"`

	// CommandCooldown is the minimum gap between identical commands from one author.
	CommandCooldown time.Duration `koanf:"command_cooldown"`

	// CooldownMaxSize bounds the number of tracked (author, command) keys.
	CooldownMaxSize int `koanf:"cooldown_max_size"`

	// NoticeTTL is how long error notices stay in the channel.
	NoticeTTL time.Duration `koanf:"notice_ttl"`

	// StatsBaseURL is the stats website root; profiles live under /player/<name>.
	StatsBaseURL string `koanf:"stats_base_url"`

	// Fetcher selects the page fetcher: "browser" (headless Chrome) or "http".
	Fetcher string `koanf:"fetcher"`

	// RendererPoolSize caps concurrent browser tabs.
	RendererPoolSize int `koanf:"renderer_pool_size"`

	// ChromePath optionally points at a Chrome/Chromium binary.
	ChromePath string `koanf:"chrome_path"`

	// FetchTimeout bounds a single page fetch attempt.
	FetchTimeout time.Duration `koanf:"fetch_timeout"`

	// FetchAttempts is the number of tries per name variant on transport errors.
	FetchAttempts int `koanf:"fetch_attempts"`

	// ResolveConcurrency bounds parallel rating lookups during a match start.
	ResolveConcurrency int `koanf:"resolve_concurrency"`

	// DefaultRating is used when no rating can be found.
	DefaultRating int `koanf:"default_rating"`

	// RatingBaseline and RatingScale normalize ratings into hybrid score units.
	RatingBaseline float64 `koanf:"rating_baseline"`
	RatingScale    float64 `koanf:"rating_scale"`

	// ProfileOverrides maps a user id or display name to a stats-site name.
	ProfileOverrides map[string]string `koanf:"profile_overrides"`

	// AdminRoles restricts !add, !remove and !swap to members holding one of these roles.
	AdminRoles []string `koanf:"admin_roles"`

	// ChannelIDs restricts command handling to these channels.
	ChannelIDs []string `koanf:"channel_ids"`

	// ShutdownTimeout bounds graceful shutdown of the HTTP server and bot.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":3000",
		MaxSlots:           10,
		CommandCooldown:    2 * time.Second,
		CooldownMaxSize:    10_000,
		NoticeTTL:          5 * time.Second,
		StatsBaseURL:       "https://stats.firstbloodgaming.com",
		Fetcher:            FetcherBrowser,
		RendererPoolSize:   3,
		FetchTimeout:       15 * time.Second,
		FetchAttempts:      2,
		ResolveConcurrency: 10,
		DefaultRating:      1000,
		RatingBaseline:     1000,
		RatingScale:        200,
		ProfileOverrides: map[string]string{
			"266263595346558976": "hellhound",
			"288476136210694146": "chrisbeaman",
		},
		ShutdownTimeout: 10 * time.Second,
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.MaxSlots < 2:
		return fmt.Errorf("%w: max_slots must be at least 2, got %d", ErrInvalidConfig, c.MaxSlots)
	case c.CommandCooldown < 0:
		return fmt.Errorf("%w: command_cooldown must not be negative", ErrInvalidConfig)
	case c.FetchTimeout <= 0:
		return fmt.Errorf("%w: fetch_timeout must be positive", ErrInvalidConfig)
	case c.FetchAttempts < 1:
		return fmt.Errorf("%w: fetch_attempts must be at least 1", ErrInvalidConfig)
	case c.RendererPoolSize < 1:
		return fmt.Errorf("%w: renderer_pool_size must be at least 1", ErrInvalidConfig)
	case c.ResolveConcurrency < 1:
		return fmt.Errorf("%w: resolve_concurrency must be at least 1", ErrInvalidConfig)
	case c.RatingScale <= 0:
		return fmt.Errorf("%w: rating_scale must be positive", ErrInvalidConfig)
	}

	switch strings.ToLower(c.Fetcher) {
	case FetcherBrowser, FetcherHTTP:
	default:
		return fmt.Errorf("%w: unknown fetcher %q", ErrInvalidConfig, c.Fetcher)
	}

	u, err := url.Parse(c.StatsBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: stats_base_url %q is not an absolute URL", ErrInvalidConfig, c.StatsBaseURL)
	}
	return nil
}
