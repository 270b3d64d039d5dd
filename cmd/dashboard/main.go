package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/blockedby/flight-stats/internal/config"
	"github.com/blockedby/flight-stats/internal/database"
	"github.com/blockedby/flight-stats/internal/logger"
	"github.com/blockedby/flight-stats/internal/migrator"
	"github.com/blockedby/flight-stats/internal/nats"
	"github.com/blockedby/flight-stats/internal/publisher"
	"github.com/blockedby/flight-stats/internal/repository"
	"github.com/blockedby/flight-stats/internal/statsapi"
	"github.com/blockedby/flight-stats/internal/view"
	"github.com/blockedby/flight-stats/internal/web"
	"github.com/blockedby/flight-stats/internal/web/handlers"
	"github.com/blockedby/flight-stats/migrations"
)

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// 2. Initialize logger
	if err := logger.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	log := logger.Get()

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	log.Info().
		Str("api", cfg.StatsAPIBase).
		Dur("timeout", cfg.FetchTimeout).
		Int("default_year", cfg.DefaultYear).
		Msg("starting stats dashboard")

	// 3. Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	// 4. Upstream client
	client, err := statsapi.NewClient(statsapi.Config{
		BaseURL:   cfg.StatsAPIBase,
		Timeout:   cfg.FetchTimeout,
		RateLimit: cfg.RateLimit,
		Burst:     int(cfg.RateLimit) + 1,
	}, log.Component("statsapi"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create stats api client")
	}

	viewOpts := []view.Option{view.WithLogger(log.Component("view"))}

	// 5. Event sinks (optional): NATS and the cycle history
	var sinks publisher.Fanout

	if cfg.NatsURL != "" {
		nc, err := nats.New(ctx, cfg.NatsURL, log.Component("nats"))
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to nats, publishing disabled")
		} else {
			defer nc.Close()

			if err := nc.EnsureStream(ctx, nats.StatsStream, []string{nats.StatsSubjects}); err != nil {
				log.Warn().Err(err).Msg("failed to ensure stats stream")
			}
			sinks = append(sinks, publisher.NewNATSPublisher(nc))
		}
	}

	var cycles *repository.CyclesRepository
	if cfg.DatabaseURL != "" {
		db, err := openHistory(ctx, cfg.DatabaseURL, log.Component("history"))
		if err != nil {
			log.Warn().Err(err).Msg("cycle history disabled")
		} else {
			defer db.Close()

			cycles = repository.NewCyclesRepository(db.Pool)
			sinks = append(sinks, publisher.PublisherFunc(cycles.Record))
		}
	}

	if len(sinks) > 0 {
		notifier := publisher.NewNotifier(sinks, log.Component("publisher"))
		viewOpts = append(viewOpts, view.WithListener(notifier.Listener()))
		g.Go(func() error { return notifier.Run(gctx) })
	}

	views := view.NewFactory(client, viewOpts...)

	// 6. Templates
	tmpl := web.NewTemplateEngine(cfg.TemplatesDir, cfg.TemplatesDir != "")
	if err := tmpl.Load(); err != nil {
		log.Fatal().Err(err).Msg("failed to load templates")
	}

	// 7. Live sessions hub
	hub := web.NewHub()
	go hub.Run()

	// 8. Initialize Server and handlers
	server := web.NewServer(&web.Config{
		Port:        cfg.HTTPPort,
		CORSOrigins: cfg.CORSOrigins,
	}, hub)
	server.RegisterStatsHandler(handlers.NewStatsHandler(tmpl, views, cfg.DefaultYear, log.Component("handlers")))
	if cycles != nil {
		server.RegisterCyclesHandler(handlers.NewCyclesHandler(cycles, log.Component("handlers")))
	}
	server.RegisterLiveHandler(web.NewLiveHandler(hub, views, tmpl, cfg.DefaultYear, cfg.CORSOrigins, log.Component("live")))

	// 9. Start Server
	g.Go(func() error {
		log.Info().Int("port", cfg.HTTPPort).Msg("starting web server")
		return server.Start()
	})

	// 10. Wait for shutdown
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Stop(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("server error")
	}
	log.Info().Msg("shutdown complete")
}

// openHistory migrates the schema and connects to the cycle history database.
func openHistory(ctx context.Context, databaseURL string, log *zerolog.Logger) (*database.DB, error) {
	m, err := migrator.NewWithFS(migrations.FS)
	if err != nil {
		return nil, err
	}
	version, err := m.Ensure(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info().Uint("schema_version", version).Msg("cycle history schema ready")

	return database.New(ctx, databaseURL)
}
