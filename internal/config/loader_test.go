package config_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/okian/pugbot/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":3000")
				convey.So(cfg.MaxSlots, convey.ShouldEqual, 10)
				convey.So(cfg.DiscordToken, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("PUGBOT_ADDR", ":8080")
			_ = os.Setenv("PUGBOT_MAX_SLOTS", "12")
			_ = os.Setenv("PUGBOT_COMMAND_COOLDOWN", "3s")
			_ = os.Setenv("PUGBOT_FETCHER", "HTTP")
			_ = os.Setenv("PUGBOT_ADMIN_ROLES", "Admin, Moderator")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.MaxSlots, convey.ShouldEqual, 12)
				convey.So(cfg.CommandCooldown, convey.ShouldEqual, 3*time.Second)
				convey.So(cfg.Fetcher, convey.ShouldEqual, config.FetcherHTTP)
				convey.So(cfg.AdminRoles, convey.ShouldResemble, []string{"Admin", "Moderator"})
			})
		})

		convey.Convey("When only the legacy variables are set", func() {
			_ = os.Setenv("DISCORD_TOKEN", "legacy-token")
			_ = os.Setenv("PORT", "4000")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then they are honoured", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.DiscordToken, convey.ShouldEqual, "legacy-token")
				convey.So(cfg.Addr, convey.ShouldEqual, ":4000")
			})
		})

		convey.Convey("When legacy and prefixed variables are both set", func() {
			_ = os.Setenv("DISCORD_TOKEN", "legacy-token")
			_ = os.Setenv("PUGBOT_DISCORD_TOKEN", "prefixed-token")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then the prefixed variable wins", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.DiscordToken, convey.ShouldEqual, "prefixed-token")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
max_slots: 8
fetch_timeout: 5s
notice_ttl: 1s
profile_overrides:
  "1234": someone
channel_ids:
  - "c1"
  - "c2"
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("PUGBOT_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.MaxSlots, convey.ShouldEqual, 8)
				convey.So(cfg.FetchTimeout, convey.ShouldEqual, 5*time.Second)
				convey.So(cfg.NoticeTTL, convey.ShouldEqual, time.Second)
				convey.So(cfg.ProfileOverrides["1234"], convey.ShouldEqual, "someone")
				convey.So(cfg.ChannelIDs, convey.ShouldResemble, []string{"c1", "c2"})
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
max_slots: 8
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("PUGBOT_CONFIG", tmpFile)
			_ = os.Setenv("PUGBOT_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080") // Overridden by env
				convey.So(cfg.MaxSlots, convey.ShouldEqual, 8)   // From file
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("PUGBOT_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("PUGBOT_CONFIG", "/non/existent/pugbot.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the loaded values fail validation", func() {
			_ = os.Setenv("PUGBOT_MAX_SLOTS", "1")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an invalid config error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func clearConfigEnvVars() {
	for _, key := range []string{
		"PUGBOT_CONFIG",
		"PUGBOT_ADDR",
		"PUGBOT_MAX_SLOTS",
		"PUGBOT_COMMAND_COOLDOWN",
		"PUGBOT_FETCHER",
		"PUGBOT_ADMIN_ROLES",
		"PUGBOT_DISCORD_TOKEN",
		"DISCORD_TOKEN",
		"PORT",
	} {
		_ = os.Unsetenv(key)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "pugbot-config-*.yaml")
	if err != nil {
		panic(err)
	}
	defer func() { _ = tmpFile.Close() }()

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
