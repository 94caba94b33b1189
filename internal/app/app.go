// Package app provides the main application bootstrap and runtime orchestration.
//
// The App type wires together all dependencies and exposes methods to run
// different operational modes:
//
//   - Bot mode: admin Telegram bot for alert triage and account lookups
//   - Reader mode: polls Telegram channels, feeds and chat exports into the raw message queue
//   - Worker mode: scores queued messages, maintains account summaries and raises alerts
//   - Graph mode: rebuilds the account linkage graph on a schedule
//   - HTTP mode: serves the JSON API next to health probes and metrics
//
// Each mode can be run independently or combined based on deployment needs.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/threat-monitor/internal/api"
	"github.com/lueurxax/threat-monitor/internal/bot"
	"github.com/lueurxax/threat-monitor/internal/core/domain"
	apperrors "github.com/lueurxax/threat-monitor/internal/core/errors"
	"github.com/lueurxax/threat-monitor/internal/core/patterns"
	"github.com/lueurxax/threat-monitor/internal/ingest"
	"github.com/lueurxax/threat-monitor/internal/ingest/feed"
	"github.com/lueurxax/threat-monitor/internal/ingest/jsonl"
	"github.com/lueurxax/threat-monitor/internal/ingest/reader"
	"github.com/lueurxax/threat-monitor/internal/ingest/telegram"
	"github.com/lueurxax/threat-monitor/internal/output/narrative"
	"github.com/lueurxax/threat-monitor/internal/output/notify"
	"github.com/lueurxax/threat-monitor/internal/platform/config"
	"github.com/lueurxax/threat-monitor/internal/platform/observability"
	"github.com/lueurxax/threat-monitor/internal/process/botdetect"
	"github.com/lueurxax/threat-monitor/internal/process/content"
	"github.com/lueurxax/threat-monitor/internal/process/extract"
	"github.com/lueurxax/threat-monitor/internal/process/linkage"
	"github.com/lueurxax/threat-monitor/internal/process/pipeline"
	db "github.com/lueurxax/threat-monitor/internal/storage"
)

const (
	feedTimeout = 30 * time.Second
	ocrTimeout  = 30 * time.Second
)

// App holds the application dependencies and provides methods to run different modes.
type App struct {
	cfg      *config.Config
	database *db.DB
	logger   *zerolog.Logger
}

// New creates a new App instance with the given dependencies.
func New(cfg *config.Config, database *db.DB, logger *zerolog.Logger) *App {
	return &App{
		cfg:      cfg,
		database: database,
		logger:   logger,
	}
}

// StartHealthServer starts the health check and metrics server. withAPI
// mounts the JSON API as well.
func (a *App) StartHealthServer(ctx context.Context, withAPI bool) error {
	var apiHandler http.Handler

	if withAPI {
		engine, err := NewEngine(a.cfg, a.logger)
		if err != nil {
			return err
		}

		apiHandler = api.New(a.database, engine, a.cfg.AnalysisWorkers, a.cfg.GraphAccountLimit, a.logger)
	}

	srv := observability.NewServer(a.database, a.cfg.HealthPort, apiHandler, a.logger)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("health server start: %w", err)
	}

	return nil
}

// RunHTTP runs the HTTP-only mode serving the API.
func (a *App) RunHTTP(ctx context.Context) error {
	a.logger.Info().Msg("Starting HTTP mode")

	return a.StartHealthServer(ctx, true)
}

// RunBot runs the admin bot mode.
func (a *App) RunBot(ctx context.Context) error {
	a.logger.Info().Msg("Starting bot mode")

	if a.cfg.BotToken == "" || len(a.cfg.AdminIDs) == 0 {
		return fmt.Errorf("bot mode: BOT_TOKEN and ADMIN_IDS are required: %w", apperrors.ErrClientDisabled)
	}

	renderer, err := narrative.NewRenderer()
	if err != nil {
		return fmt.Errorf("narrative renderer: %w", err)
	}

	b, err := bot.New(a.cfg.BotToken, a.cfg.AdminIDs, a.database, renderer, a.logger)
	if err != nil {
		return fmt.Errorf("bot initialization failed: %w", err)
	}

	if err := b.Run(ctx); err != nil {
		return fmt.Errorf("bot run: %w", err)
	}

	return nil
}

// RunReader runs the reader mode.
func (a *App) RunReader(ctx context.Context) error {
	a.logger.Info().Msg("Starting reader mode")

	sources := a.sources()
	r := reader.New(a.database, a.cfg.ReaderInterval, a.logger, sources...)

	var tgSource *telegram.Source

	for _, s := range sources {
		if ts, ok := s.(*telegram.Source); ok {
			tgSource = ts
		}
	}

	var err error
	if tgSource != nil {
		err = tgSource.Run(ctx, r.Run)
	} else {
		err = r.Run(ctx)
	}

	if err != nil {
		return fmt.Errorf("reader run: %w", err)
	}

	return nil
}

func (a *App) sources() []ingest.Source {
	var sources []ingest.Source

	if a.cfg.TelegramEnabled() {
		sources = append(sources, telegram.New(telegram.Config{
			APIID:       a.cfg.TGAPIID,
			APIHash:     a.cfg.TGAPIHash,
			Phone:       a.cfg.TGPhone,
			Password:    a.cfg.TG2FAPassword,
			SessionPath: a.cfg.TGSessionPath,
			Channels:    a.cfg.TGChannels,
			FetchLimit:  a.cfg.ReaderFetchLimit,
			RPS:         a.cfg.RateLimitRPS,
		}, a.logger))
	}

	if len(a.cfg.FeedURLs) > 0 {
		sources = append(sources, feed.New(a.cfg.FeedURLs, &http.Client{Timeout: feedTimeout}, a.logger))
	}

	if len(a.cfg.ImportPaths) > 0 {
		sources = append(sources, jsonl.New(a.cfg.ImportPaths, domain.PlatformUnknown, a.logger))
	}

	return sources
}

// RunWorker runs the analysis pipeline with the graph rebuild riding on it.
func (a *App) RunWorker(ctx context.Context) error {
	a.logger.Info().Msg("Starting worker mode")

	engine, err := NewEngine(a.cfg, a.logger)
	if err != nil {
		return err
	}

	sink, closeSink, err := a.newSink()
	if err != nil {
		return err
	}
	defer closeSink()

	p := pipeline.New(pipeline.Config{
		BatchSize:       a.cfg.WorkerBatchSize,
		PollInterval:    a.cfg.WorkerPollInterval,
		Workers:         a.cfg.AnalysisWorkers,
		BotWindowSize:   a.cfg.BotWindowSize,
		ThreatThreshold: a.cfg.AlertThreatThreshold,
		BotThreshold:    a.cfg.AlertBotThreshold,
	}, a.database, engine.Analyzer, engine.Extractor, engine.Detector, engine.Renderer, sink, a.logger)

	graph := pipeline.NewGraphJob(a.database, engine.Builder, engine.Renderer, sink, a.cfg.GraphAccountLimit, a.logger)

	if err := p.Run(ctx, graph.Task(a.cfg.GraphInterval)); err != nil {
		return fmt.Errorf("pipeline run: %w", err)
	}

	return nil
}

// RunGraph runs the standalone graph rebuild loop.
func (a *App) RunGraph(ctx context.Context) error {
	a.logger.Info().Msg("Starting graph mode")

	engine, err := NewEngine(a.cfg, a.logger)
	if err != nil {
		return err
	}

	sink, closeSink, err := a.newSink()
	if err != nil {
		return err
	}
	defer closeSink()

	job := pipeline.NewGraphJob(a.database, engine.Builder, engine.Renderer, sink, a.cfg.GraphAccountLimit, a.logger)

	if err := job.Run(ctx, a.cfg.GraphInterval); err != nil {
		return fmt.Errorf("graph run: %w", err)
	}

	return nil
}

// newSink combines the configured alert destinations. The returned function
// releases their connections.
func (a *App) newSink() (notify.Sink, func(), error) {
	var (
		sinks   []notify.Sink
		closers []func() error
	)

	if a.cfg.BotToken != "" && len(a.cfg.AdminIDs) > 0 {
		tg, err := notify.NewTelegram(a.cfg.BotToken, a.cfg.AdminIDs, a.logger)
		if err != nil {
			return nil, nil, fmt.Errorf("telegram notifier: %w", err)
		}

		sinks = append(sinks, tg)
	}

	if a.cfg.RedisURL != "" {
		stream, closeFn, err := notify.NewStreamFromURL(a.cfg.RedisURL, a.cfg.AlertStream)
		if err != nil {
			return nil, nil, fmt.Errorf("redis notifier: %w", err)
		}

		sinks = append(sinks, stream)
		closers = append(closers, closeFn)
	}

	if len(sinks) == 0 {
		a.logger.Info().Msg("no alert sinks configured, alerts are only stored")
	}

	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				a.logger.Warn().Err(err).Msg("failed to close alert sink")
			}
		}
	}

	return notify.NewMulti(a.logger, sinks...), closeAll, nil
}

// NewEngine builds the scoring components over the default pattern table.
// OCR is enabled when OCR_COMMAND names an available binary.
func NewEngine(cfg *config.Config, logger *zerolog.Logger) (api.Engine, error) {
	table := patterns.Default()

	var ocr extract.TextRecognizer

	recognizer, err := extract.NewCommandRecognizer(cfg.OCRCommand, cfg.OCRLang, ocrTimeout, logger)

	switch {
	case err == nil:
		ocr = recognizer
	case errors.Is(err, apperrors.ErrOCRUnavailable) && cfg.OCRCommand == "":
		// not configured
	default:
		logger.Warn().Err(err).Msg("image text recognition disabled")
	}

	extractor := extract.New(table, ocr)

	renderer, err := narrative.NewRenderer()
	if err != nil {
		return api.Engine{}, fmt.Errorf("narrative renderer: %w", err)
	}

	return api.Engine{
		Analyzer:  content.New(table, extractor),
		Extractor: extractor,
		Detector:  botdetect.New(table),
		Builder:   linkage.New(nil),
		Renderer:  renderer,
	}, nil
}

// RunAnalyze scores every non-empty line of in and writes the results to out
// as JSON. It needs no database.
func RunAnalyze(ctx context.Context, in io.Reader, out io.Writer, platform domain.Platform, workers int) error {
	table := patterns.Default()
	analyzer := content.New(table, extract.New(table, nil))

	return analyzeLines(ctx, analyzer, in, out, platform, workers)
}
