package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/threat-monitor/internal/app"
	"github.com/lueurxax/threat-monitor/internal/core/domain"
	"github.com/lueurxax/threat-monitor/internal/platform/config"
	db "github.com/lueurxax/threat-monitor/internal/storage"
)

const usage = "Usage: %s --mode=[bot|reader|worker|graph|http|analyze]"

func main() {
	mode := flag.String("mode", "", "Service mode (bot, reader, worker, graph, http, analyze)")
	platform := flag.String("platform", "unknown", "Platform of stdin texts (analyze mode)")
	workers := flag.Int("workers", 4, "Parallel analyses (analyze mode)")

	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Offline scoring of stdin lines needs neither config nor database.
	if *mode == "analyze" {
		if err := app.RunAnalyze(ctx, os.Stdin, os.Stdout, domain.ParsePlatform(*platform), *workers); err != nil {
			log.Fatalf("analyze: %v", err)
		}

		return
	}

	if !validMode(*mode) {
		log.Fatalf(usage, os.Args[0])
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.IsLocal())

	poolOpts := db.PoolOptions{
		MaxConns:          cfg.DBMaxConns,
		MinConns:          cfg.DBMinConns,
		MaxConnIdleTime:   cfg.DBMaxConnIdleTime,
		MaxConnLifetime:   cfg.DBMaxConnLifetime,
		HealthCheckPeriod: cfg.DBHealthCheckPeriod,
	}

	database, err := db.NewWithOptions(ctx, cfg.PostgresDSN, poolOpts, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	application := app.New(cfg, database, &logger)

	// HTTP mode serves probes itself; other modes get them in the background.
	if *mode != "http" {
		go func() {
			if err := application.StartHealthServer(ctx, false); err != nil {
				logger.Error().Err(err).Msg("health check server error")
			}
		}()
	}

	if err := runMode(ctx, application, *mode); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("application stopped")
			return
		}

		logger.Fatal().Err(err).Msg("application error")
	}
}

func newLogger(local bool) zerolog.Logger {
	if local {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func validMode(mode string) bool {
	switch mode {
	case "bot", "reader", "worker", "graph", "http":
		return true
	default:
		return false
	}
}

func runMode(ctx context.Context, application *app.App, mode string) error {
	switch mode {
	case "bot":
		return application.RunBot(ctx)
	case "reader":
		return application.RunReader(ctx)
	case "worker":
		return application.RunWorker(ctx)
	case "graph":
		return application.RunGraph(ctx)
	case "http":
		return application.RunHTTP(ctx)
	default:
		return nil
	}
}
