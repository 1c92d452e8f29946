package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/pugbot/internal/adapters/discord"
	"github.com/okian/pugbot/internal/adapters/http/api"
	"github.com/okian/pugbot/internal/adapters/renderer"
	"github.com/okian/pugbot/internal/adapters/repository"
	"github.com/okian/pugbot/internal/adapters/statsite"
	app "github.com/okian/pugbot/internal/app"
	"github.com/okian/pugbot/internal/config"
	"github.com/okian/pugbot/internal/domain/cooldown"
	"github.com/okian/pugbot/internal/domain/queue"
	"github.com/okian/pugbot/internal/domain/rating"
	"github.com/okian/pugbot/internal/domain/scoring"
	"github.com/okian/pugbot/pkg/logger"
	"github.com/okian/pugbot/pkg/metrics"
)

// HTTP server and background loop constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	systemMetricsInterval     = 10 * time.Second
	cooldownSweepInterval     = time.Minute
	ratingCleanupInterval     = 10 * time.Minute
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// We export our own runtime gauges on a custom registry.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// defaults -> optional file -> legacy env -> PUGBOT_* env
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	fetcher, closeFetcher, err := newFetcher(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "failed to start stats fetcher", logger.String("fetcher", cfg.Fetcher), logger.Error(err))
		return
	}
	defer closeFetcher()

	svc := newService(cfg, fetcher, log)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	limiter := cooldown.New(
		cooldown.WithInterval(cfg.CommandCooldown),
		cooldown.WithMaxSize(cfg.CooldownMaxSize),
	)
	go limiter.Run(ctx, cooldownSweepInterval)
	go startSystemMetricsUpdater(ctx)

	bot, err := discord.NewBot(cfg.DiscordToken, svc,
		discord.WithLogger(log.Named("discord")),
		discord.WithLimiter(limiter),
		discord.WithAdminRoles(cfg.AdminRoles),
		discord.WithChannels(cfg.ChannelIDs),
		discord.WithNoticeTTL(cfg.NoticeTTL),
	)
	switch {
	case errors.Is(err, discord.ErrMissingToken):
		log.Warn(ctx, "no discord token configured; serving HTTP only")
	case err != nil:
		log.Error(ctx, "failed to create discord bot", logger.Error(err))
		return
	default:
		if err := bot.Open(ctx); err != nil {
			log.Error(ctx, "failed to connect to discord", logger.Error(err))
			return
		}
		defer func() {
			if err := bot.Close(); err != nil {
				log.Warn(context.Background(), "discord close failed", logger.Error(err))
			}
		}()
		log.Info(ctx, "discord bot connected")
	}

	srv := newHTTPServer(cfg, svc)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(errors.Join(api.ErrServe, err)))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(context.Background(), "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}
	log.Info(shutdownCtx, "server stopped")
}

// newFetcher returns the configured page fetcher and its cleanup.
func newFetcher(ctx context.Context, cfg *config.Config, log logger.Logger) (statsite.PageFetcher, func(), error) {
	if cfg.Fetcher == config.FetcherHTTP {
		return statsite.NewHTTPFetcher(), func() {}, nil
	}

	b, err := renderer.NewBrowser(ctx,
		renderer.WithPoolSize(cfg.RendererPoolSize),
		renderer.WithExecPath(cfg.ChromePath),
		renderer.WithBrowserLogger(log.Named("renderer")),
	)
	if err != nil {
		return nil, nil, err
	}
	return b, func() {
		if err := b.Close(); err != nil {
			log.Warn(context.Background(), "browser close failed", logger.Error(err))
		}
	}, nil
}

// newService wires the rating pipeline and the match service.
func newService(cfg *config.Config, fetcher statsite.PageFetcher, log logger.Logger) *app.Service {
	store := repository.NewRatingStore(repository.WithCleanupInterval(ratingCleanupInterval))
	source := statsite.NewSource(cfg.StatsBaseURL, fetcher, statsite.WithSourceLogger(log.Named("statsite")))
	resolver := rating.NewResolver(source, store,
		rating.WithOverrides(cfg.ProfileOverrides),
		rating.WithDefaultRating(cfg.DefaultRating),
		rating.WithAttempts(cfg.FetchAttempts),
		rating.WithFetchTimeout(cfg.FetchTimeout),
		rating.WithConcurrency(cfg.ResolveConcurrency),
		rating.WithLogger(log.Named("resolver")),
	)

	return app.New(
		app.WithLogger(log.Named("service")),
		app.WithQueue(queue.NewManager(queue.WithCapacity(cfg.MaxSlots))),
		app.WithRatingStore(store),
		app.WithResolver(resolver),
		app.WithScorer(scoring.NewHybrid(
			scoring.WithBaseline(cfg.RatingBaseline),
			scoring.WithScale(cfg.RatingScale),
		)),
	)
}

func newHTTPServer(cfg *config.Config, svc *app.Service) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewServer(svc).Router(),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// startSystemMetricsUpdater refreshes runtime gauges until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
