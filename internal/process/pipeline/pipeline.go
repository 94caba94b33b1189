// Package pipeline turns claimed raw messages into threat records, account
// summaries, bot verdicts and alerts, and periodically rebuilds the linkage
// graph from the stored account population.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lueurxax/threat-monitor/internal/core/domain"
	"github.com/lueurxax/threat-monitor/internal/output/narrative"
	"github.com/lueurxax/threat-monitor/internal/output/notify"
	"github.com/lueurxax/threat-monitor/internal/platform/observability"
	"github.com/lueurxax/threat-monitor/internal/platform/worker"
	"github.com/lueurxax/threat-monitor/internal/process/accounts"
	"github.com/lueurxax/threat-monitor/internal/process/botdetect"
	"github.com/lueurxax/threat-monitor/internal/process/content"
	"github.com/lueurxax/threat-monitor/internal/process/extract"
	db "github.com/lueurxax/threat-monitor/internal/storage"
)

const (
	logFieldCorrelationID = "correlation_id"
	logFieldMessageID     = "message_id"
	logFieldAccount       = "account"

	statusOK    = "ok"
	statusError = "error"

	verdictBot   = "bot"
	verdictHuman = "human"
)

// Repository is the storage surface the pipeline needs.
type Repository interface {
	AlertRepository
	ClaimRawMessages(ctx context.Context, limit int) ([]domain.Message, error)
	MarkMessageProcessed(ctx context.Context, id, errMsg string) error
	GetBacklogCount(ctx context.Context) (int, error)
	RecentAccountMessages(ctx context.Context, accountID string, limit int) ([]domain.TimedText, error)
	SaveThreat(ctx context.Context, rec domain.ThreatRecord) (string, error)
	UpdateAccount(ctx context.Context, accountID, messageID string,
		apply func(prev *domain.AccountSummary) domain.AccountSummary) (db.AccountUpdate, error)
}

// Compile-time assertion that *db.DB implements Repository.
var _ Repository = (*db.DB)(nil)

// Config tunes batch sizes and alert thresholds.
type Config struct {
	BatchSize       int
	PollInterval    time.Duration
	Workers         int
	BotWindowSize   int
	ThreatThreshold int
	BotThreshold    float64
}

// Pipeline processes raw messages in batches.
type Pipeline struct {
	cfg       Config
	repo      Repository
	analyzer  *content.Analyzer
	extractor *extract.Extractor
	detector  *botdetect.Detector
	renderer  *narrative.Renderer
	alerts    *Alerter
	logger    *zerolog.Logger
}

// New creates a Pipeline. A nil extractor skips image processing.
func New(cfg Config, repo Repository, analyzer *content.Analyzer, extractor *extract.Extractor,
	detector *botdetect.Detector, renderer *narrative.Renderer, sink notify.Sink, logger *zerolog.Logger,
) *Pipeline {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Pipeline{
		cfg:       cfg,
		repo:      repo,
		analyzer:  analyzer,
		extractor: extractor,
		detector:  detector,
		renderer:  renderer,
		alerts:    NewAlerter(repo, sink, logger),
		logger:    logger,
	}
}

// Run processes batches until ctx is canceled. Extra tasks ride on the same loop.
func (p *Pipeline) Run(ctx context.Context, tasks ...worker.PeriodicTask) error {
	return worker.Loop(ctx, worker.Config{ //nolint:wrapcheck
		Name:          "pipeline",
		PollInterval:  p.cfg.PollInterval,
		Process:       p.ProcessBatch,
		PeriodicTasks: tasks,
		Logger:        p.logger,
	})
}

// ProcessBatch claims and processes one batch. A failing message is marked
// with its error and does not stop the rest of the batch.
func (p *Pipeline) ProcessBatch(ctx context.Context) (int, error) {
	start := time.Now()
	logger := p.logger.With().Str(logFieldCorrelationID, uuid.NewString()).Logger()

	messages, err := p.repo.ClaimRawMessages(ctx, p.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("claim raw messages: %w", err)
	}

	if len(messages) == 0 {
		return 0, nil
	}

	if backlog, err := p.repo.GetBacklogCount(ctx); err == nil {
		observability.PipelineBacklog.Set(float64(backlog))
	}

	inputs := make([]content.Input, len(messages))
	for i, m := range messages {
		inputs[i] = content.Input{Text: m.Text, Platform: m.Platform}
	}

	analyses, err := p.analyzer.AnalyzeBatch(ctx, inputs, p.cfg.Workers)
	if err != nil {
		return 0, fmt.Errorf("analyze batch: %w", err)
	}

	failed := 0

	for i, msg := range messages {
		status, errMsg := statusOK, ""

		if err := p.processMessage(ctx, msg, analyses[i]); err != nil {
			logger.Error().Err(err).Str(logFieldMessageID, msg.ID).Msg("failed to process message")

			status, errMsg = statusError, err.Error()
			failed++
		}

		if err := p.repo.MarkMessageProcessed(ctx, msg.ID, errMsg); err != nil {
			return i, fmt.Errorf("mark message %s processed: %w", msg.ID, err)
		}

		observability.PipelineProcessed.WithLabelValues(status).Inc()
	}

	observability.PipelineBatchDurationSeconds.Observe(time.Since(start).Seconds())
	logger.Info().Int("messages", len(messages)).Int("failed", failed).Dur("took", time.Since(start)).Msg("pipeline batch done")

	return len(messages), nil
}

func (p *Pipeline) processMessage(ctx context.Context, msg domain.Message, analysis domain.ContentAnalysis) error {
	start := time.Now()
	accountID := msg.AccountID()

	analysis.Metadata = p.withImageMetadata(ctx, analysis.Metadata, msg.Images)

	detection, err := p.detectBot(ctx, accountID, msg.Platform)
	if err != nil {
		return err
	}

	update, err := p.repo.UpdateAccount(ctx, accountID, msg.ID, func(prev *domain.AccountSummary) domain.AccountSummary {
		return accounts.WithBotAssessment(accounts.Observe(prev, msg, analysis), detection)
	})
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}

	// A reclaimed message whose first attempt got this far was already counted.
	if !update.Applied {
		p.logger.Debug().Str(logFieldMessageID, msg.ID).Str(logFieldAccount, accountID).Msg("message already applied to account")

		return nil
	}

	if _, err := p.repo.SaveThreat(ctx, domain.ThreatRecord{
		MessageID: msg.ID,
		AccountID: accountID,
		Channel:   msg.Channel,
		Text:      msg.Text,
		Analysis:  analysis,
		CreatedAt: analysis.Timestamp,
	}); err != nil {
		return fmt.Errorf("save threat: %w", err)
	}

	observability.AnalysesTotal.WithLabelValues(string(analysis.RiskLevel)).Inc()
	p.logAnalysis(ctx, db.AnalysisKindContent, msg.Text, analysis, time.Since(start))

	if analysis.Metadata.TotalItems() > 0 {
		p.logAnalysis(ctx, db.AnalysisKindMetadata, msg.Text, analysis.Metadata, time.Since(start))
	}

	observability.AnalysisDuration.Observe(time.Since(start).Seconds())

	p.raiseAlerts(ctx, update.Previous, update.Current, detection, analysis.Metadata)

	return nil
}

// withImageMetadata runs OCR over attached images and folds what it finds
// into meta. Recognition failures are recorded per image and never fail the message.
func (p *Pipeline) withImageMetadata(ctx context.Context, meta *domain.ExtractedMetadata, images [][]byte) *domain.ExtractedMetadata {
	if meta == nil {
		meta = domain.NewExtractedMetadata()
	}

	if p.extractor == nil || len(images) == 0 {
		return meta
	}

	fromImages := p.extractor.Extract(ctx, "", images)

	for _, r := range fromImages.OCR {
		if r.Error != "" {
			observability.OCRFailures.Inc()
			p.logger.Warn().Int("image", r.ImageIndex).Str("error", r.Error).Msg("image text recognition failed")

			continue
		}

		meta.Merge(r.Metadata)
	}

	meta.OCR = fromImages.OCR

	return meta
}

func (p *Pipeline) detectBot(ctx context.Context, accountID string, platform domain.Platform) (domain.BotDetection, error) {
	start := time.Now()

	window, err := p.repo.RecentAccountMessages(ctx, accountID, p.cfg.BotWindowSize)
	if err != nil {
		return domain.BotDetection{}, fmt.Errorf("load account window: %w", err)
	}

	detection := p.detector.Detect(window, platform)

	verdict := verdictHuman
	if detection.IsBot {
		verdict = verdictBot
	}

	observability.BotVerdicts.WithLabelValues(verdict).Inc()
	p.logAnalysis(ctx, db.AnalysisKindBot, accountID, detection, time.Since(start))

	return detection, nil
}

// raiseAlerts emits alerts for thresholds the account crossed with this
// message and for contact identifiers the message added to the account.
func (p *Pipeline) raiseAlerts(ctx context.Context, prev *domain.AccountSummary, acc domain.AccountSummary,
	detection domain.BotDetection, meta *domain.ExtractedMetadata,
) {
	var (
		prevScore   int
		prevBot     float64
		prevItems   int
		threatLimit = p.cfg.ThreatThreshold
		botLimit    = p.cfg.BotThreshold
	)

	if prev != nil {
		prevScore, prevBot = prev.ThreatScore, prev.BotConfidence
		prevItems = prev.Metadata.TotalItems()
	}

	if acc.ThreatScore >= threatLimit && prevScore < threatLimit {
		p.alerts.Emit(ctx, p.renderer.HighThreat(acc))
	}

	if detection.IsBot && detection.Confidence >= botLimit && prevBot < botLimit {
		p.alerts.Emit(ctx, p.renderer.BotDetected(acc, detection))
	}

	if acc.Metadata.TotalItems() > prevItems {
		if alert, ok := p.renderer.MetadataExtracted(acc.ID, meta); ok {
			p.alerts.Emit(ctx, alert)
		}
	}
}

func (p *Pipeline) logAnalysis(ctx context.Context, kind, input string, result any, took time.Duration) {
	if err := p.repo.SaveAnalysisLog(ctx, kind, input, result, took); err != nil {
		p.logger.Warn().Err(err).Str("kind", kind).Msg("failed to save analysis log")
	}
}
