// Package reader polls message sources and queues their records for analysis.
package reader

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/threat-monitor/internal/core/domain"
	"github.com/lueurxax/threat-monitor/internal/ingest"
	"github.com/lueurxax/threat-monitor/internal/platform/observability"
	"github.com/lueurxax/threat-monitor/internal/platform/worker"
)

const (
	logFieldSource  = "source"
	logFieldMsgID   = "msg_id"
)

// Repository stores fetched records.
type Repository interface {
	SaveRawMessage(ctx context.Context, source string, msg domain.Message) (bool, error)
}

// Reader polls every source on a fixed interval.
type Reader struct {
	repo     Repository
	sources  []ingest.Source
	interval time.Duration
	logger   *zerolog.Logger
}

// New creates a reader over sources.
func New(repo Repository, interval time.Duration, logger *zerolog.Logger, sources ...ingest.Source) *Reader {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Reader{
		repo:     repo,
		sources:  sources,
		interval: interval,
		logger:   logger,
	}
}

// Run polls until the context is canceled. Sources that keep producing new
// records are drained before the reader sleeps.
func (r *Reader) Run(ctx context.Context) error {
	if len(r.sources) == 0 {
		return fmt.Errorf("reader: no sources configured")
	}

	return worker.Loop(ctx, worker.Config{
		Name:         "reader",
		PollInterval: r.interval,
		Process:      r.Poll,
		Logger:       r.logger,
	})
}

// Poll fetches every source once and returns how many new records were stored.
// A failing source is logged and skipped; only storage errors abort the poll.
func (r *Reader) Poll(ctx context.Context) (int, error) {
	stored := 0

	for _, src := range r.sources {
		n, err := r.pollSource(ctx, src)
		stored += n

		if err != nil {
			return stored, err
		}
	}

	return stored, nil
}

func (r *Reader) pollSource(ctx context.Context, src ingest.Source) (int, error) {
	defer worker.RecoverPanic(r.logger, "poll "+src.Name())

	msgs, err := src.Fetch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return 0, fmt.Errorf("fetch %s: %w", src.Name(), ctx.Err())
		}

		observability.SourceErrors.WithLabelValues(src.Name()).Inc()
		r.logger.Warn().Err(err).Str(logFieldSource, src.Name()).Msg("source fetch failed")

		return 0, nil
	}

	stored := 0

	for _, msg := range msgs {
		if err := ingest.Validate(msg); err != nil {
			observability.MessagesRejected.WithLabelValues(src.Name()).Inc()
			r.logger.Debug().Err(err).Str(logFieldSource, src.Name()).Str(logFieldMsgID, msg.ID).Msg("dropping invalid record")

			continue
		}

		inserted, err := r.repo.SaveRawMessage(ctx, src.Name(), msg)
		if err != nil {
			return stored, fmt.Errorf("store %s message %s: %w", src.Name(), msg.ID, err)
		}

		if inserted {
			stored++
		}
	}

	if stored > 0 {
		observability.MessagesIngested.WithLabelValues(src.Name()).Add(float64(stored))
		r.logger.Info().Str(logFieldSource, src.Name()).Int("stored", stored).Int("fetched", len(msgs)).Msg("stored new messages")
	}

	return stored, nil
}
