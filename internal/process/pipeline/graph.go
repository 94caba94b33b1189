package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/threat-monitor/internal/core/domain"
	"github.com/lueurxax/threat-monitor/internal/output/narrative"
	"github.com/lueurxax/threat-monitor/internal/output/notify"
	"github.com/lueurxax/threat-monitor/internal/platform/observability"
	"github.com/lueurxax/threat-monitor/internal/platform/worker"
	"github.com/lueurxax/threat-monitor/internal/process/linkage"
	db "github.com/lueurxax/threat-monitor/internal/storage"
)

// GraphRepository is the storage surface of the graph rebuild.
type GraphRepository interface {
	AlertRepository
	ListAccounts(ctx context.Context, limit int) ([]domain.AccountSummary, error)
	UpsertConnection(ctx context.Context, c domain.Connection) (bool, error)
	WithAdvisoryLock(ctx context.Context, lockID int64, fn func(ctx context.Context) error) (bool, error)
}

var _ GraphRepository = (*db.DB)(nil)

// GraphJob rebuilds the linkage graph and persists its edges.
type GraphJob struct {
	repo     GraphRepository
	builder  *linkage.Builder
	renderer *narrative.Renderer
	alerts   *Alerter
	limit    int
	logger   *zerolog.Logger
}

// NewGraphJob creates a GraphJob over at most limit accounts.
func NewGraphJob(repo GraphRepository, builder *linkage.Builder, renderer *narrative.Renderer,
	sink notify.Sink, limit int, logger *zerolog.Logger,
) *GraphJob {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &GraphJob{
		repo:     repo,
		builder:  builder,
		renderer: renderer,
		alerts:   NewAlerter(repo, sink, logger),
		limit:    limit,
		logger:   logger,
	}
}

// Rebuild builds the graph under the rebuild lock. ran is false when another
// process holds the lock.
func (j *GraphJob) Rebuild(ctx context.Context) (g linkage.Graph, ran bool, err error) {
	ran, err = j.repo.WithAdvisoryLock(ctx, db.GraphRebuildLockID, func(ctx context.Context) error {
		var rerr error

		g, rerr = j.rebuild(ctx)

		return rerr
	})
	if err != nil {
		return linkage.Graph{}, ran, err
	}

	if !ran {
		j.logger.Debug().Msg("graph rebuild already running elsewhere")
	}

	return g, ran, nil
}

func (j *GraphJob) rebuild(ctx context.Context) (linkage.Graph, error) {
	start := time.Now()

	accs, err := j.repo.ListAccounts(ctx, j.limit)
	if err != nil {
		return linkage.Graph{}, fmt.Errorf("list accounts: %w", err)
	}

	if len(accs) >= j.limit {
		j.logger.Warn().Int("limit", j.limit).Msg("graph covers only the top accounts by threat score")
	}

	g := j.builder.Build(accs)
	newEdges := 0

	for _, conn := range linkage.Connections(g) {
		isNew, err := j.repo.UpsertConnection(ctx, conn)
		if err != nil {
			return linkage.Graph{}, fmt.Errorf("upsert connection %s-%s: %w", conn.AccountA, conn.AccountB, err)
		}

		if isNew {
			newEdges++

			j.alerts.Emit(ctx, j.renderer.NetworkConnection(conn))
		}
	}

	took := time.Since(start)

	observability.GraphBuildDuration.Observe(took.Seconds())
	observability.GraphNodes.Set(float64(g.Statistics.TotalNodes))
	observability.GraphEdges.Set(float64(g.Statistics.TotalEdges))
	observability.GraphDensity.Set(g.Statistics.NetworkDensity)

	input := fmt.Sprintf("%d accounts", len(accs))
	if err := j.repo.SaveAnalysisLog(ctx, db.AnalysisKindGraph, input, g.Statistics, took); err != nil {
		j.logger.Warn().Err(err).Msg("failed to save graph analysis log")
	}

	j.logger.Info().
		Int("nodes", g.Statistics.TotalNodes).
		Int("edges", g.Statistics.TotalEdges).
		Int("new_edges", newEdges).
		Dur("took", took).
		Msg("linkage graph rebuilt")

	return g, nil
}

// Task adapts the rebuild to ride on a poll loop.
func (j *GraphJob) Task(interval time.Duration) worker.PeriodicTask {
	return worker.PeriodicTask{
		Name:     "graph-rebuild",
		Interval: interval,
		Run:      j.runLogged,
	}
}

// Run rebuilds the graph every interval until ctx is canceled.
func (j *GraphJob) Run(ctx context.Context, interval time.Duration) error {
	return worker.TickerLoop(ctx, worker.TickerConfig{ //nolint:wrapcheck
		Name:       "graph-rebuild",
		Interval:   interval,
		OnTick:     j.runLogged,
		RunOnStart: true,
		Logger:     j.logger,
	})
}

func (j *GraphJob) runLogged(ctx context.Context) {
	if _, _, err := j.Rebuild(ctx); err != nil {
		j.logger.Error().Err(err).Msg("graph rebuild failed")
	}
}
