package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/pugbot/internal/adapters/statsite"
	"github.com/okian/pugbot/internal/config"
	"github.com/okian/pugbot/internal/domain/model"
	"github.com/okian/pugbot/pkg/logger"
)

func statsSite() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch strings.TrimPrefix(r.URL.Path, "/player/") {
		case "alice":
			fmt.Fprint(w, `<html><body><table><tr><td>ELO Score</td><td>1,350</td></tr></table></body></html>`)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestConfigLoading(t *testing.T) {
	convey.Convey("Given legacy and prefixed environment variables", t, func() {
		t.Setenv("PORT", "8080")
		t.Setenv("DISCORD_TOKEN", "legacy-token")
		t.Setenv("PUGBOT_MAX_SLOTS", "8")

		convey.Convey("Then configuration should be loadable", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.DiscordToken, convey.ShouldEqual, "legacy-token")
			convey.So(cfg.MaxSlots, convey.ShouldEqual, 8)
		})
	})
}

func TestWiring(t *testing.T) {
	convey.Convey("Given an HTTP fetcher config pointing at a fake stats site", t, func() {
		site := statsSite()
		defer site.Close()

		cfg := config.New()
		cfg.Fetcher = config.FetcherHTTP
		cfg.StatsBaseURL = site.URL
		cfg.FetchTimeout = 2 * time.Second
		ctx := context.Background()
		log := logger.Nop()

		fetcher, closeFetcher, err := newFetcher(ctx, cfg, log)
		convey.So(err, convey.ShouldBeNil)
		defer closeFetcher()

		convey.Convey("Then the plain HTTP fetcher is used", func() {
			_, ok := fetcher.(*statsite.HTTPFetcher)
			convey.So(ok, convey.ShouldBeTrue)
		})

		convey.Convey("When a two player match is started", func() {
			svc := newService(cfg, fetcher, log)
			_, err := svc.Join(ctx, model.Identity{ID: "1", Username: "alice"})
			convey.So(err, convey.ShouldBeNil)
			_, err = svc.Join(ctx, model.Identity{ID: "2", Username: "bob"})
			convey.So(err, convey.ShouldBeNil)

			ann, err := svc.StartMatch(ctx, nil)

			convey.Convey("Then the scraped rating and the default are used", func() {
				convey.So(err, convey.ShouldBeNil)
				ratings := map[string]int{}
				for _, p := range append(ann.Team1.Players, ann.Team2.Players...) {
					ratings[p.ID] = p.Rating
				}
				convey.So(ratings, convey.ShouldResemble, map[string]int{"1": 1350, "2": 1000})
			})

			convey.Convey("Then only the scraped rating is cached", func() {
				entries := svc.CachedRatings(ctx)
				convey.So(entries, convey.ShouldHaveLength, 1)
				convey.So(entries[0].PlayerID, convey.ShouldEqual, "1")
			})
		})

		convey.Convey("Then the HTTP server serves the liveness route", func() {
			srv := newHTTPServer(cfg, newService(cfg, fetcher, log))
			convey.So(srv.Addr, convey.ShouldEqual, cfg.Addr)

			w := httptest.NewRecorder()
			srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			convey.So(w.Body.String(), convey.ShouldEqual, "Bot is running!")
		})
	})
}

func TestSystemMetrics(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		convey.Convey("Then a single update should not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})

		convey.Convey("Then the loop should return when the context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			done := make(chan struct{})
			go func() {
				startSystemMetricsUpdater(ctx)
				close(done)
			}()

			select {
			case <-done:
				convey.So(true, convey.ShouldBeTrue)
			case <-time.After(2 * time.Second):
				convey.So("updater did not stop", convey.ShouldBeEmpty)
			}
		})
	})
}
