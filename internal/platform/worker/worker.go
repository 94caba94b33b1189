// Package worker runs the background loops of the reader and analysis
// processes: a poll loop that drains work until idle, periodic tasks riding
// on that loop, and a plain ticker loop.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const (
	logFieldWorker = "worker"
	logFieldTask   = "task"
)

// ProcessFunc handles one batch of work and returns how many items it handled.
// A zero count makes the loop sleep for the poll interval before trying again.
type ProcessFunc func(ctx context.Context) (int, error)

// PeriodicTask runs on top of a poll loop at a fixed interval.
type PeriodicTask struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context)
	lastRun  time.Time
}

// Config configures the poll loop.
type Config struct {
	// Name identifies the worker for logging.
	Name string

	// PollInterval is the sleep between batches when no work was found.
	PollInterval time.Duration

	// ErrorBackoff is the sleep after a failed batch. Defaults to PollInterval.
	ErrorBackoff time.Duration

	Process       ProcessFunc
	PeriodicTasks []PeriodicTask

	// OnError is called when Process fails.
	// Return true to continue, false to exit the loop.
	OnError func(err error) bool

	Logger *zerolog.Logger
}

// Loop runs Process until the context is canceled or OnError asks to stop.
// Batches run back to back while they report work.
func Loop(ctx context.Context, cfg Config) error {
	logger := getLogger(cfg.Logger)
	logger.Info().Str(logFieldWorker, cfg.Name).Msg("starting worker loop")

	defer logger.Info().Str(logFieldWorker, cfg.Name).Msg("worker loop stopped")

	tasks := make([]PeriodicTask, len(cfg.PeriodicTasks))
	copy(tasks, cfg.PeriodicTasks)

	for {
		if err := checkCanceled(ctx, cfg.Name); err != nil {
			return err
		}

		runPeriodicTasks(ctx, tasks, logger, time.Now())

		handled, err := runProcessStep(ctx, cfg, logger)
		if err != nil {
			return err
		}

		if handled > 0 {
			continue
		}

		if err := Wait(ctx, cfg.PollInterval); err != nil {
			return err
		}
	}
}

func runPeriodicTasks(ctx context.Context, tasks []PeriodicTask, logger *zerolog.Logger, now time.Time) {
	for i := range tasks {
		task := &tasks[i]
		if task.Interval <= 0 || task.Run == nil {
			continue
		}

		if now.Sub(task.lastRun) >= task.Interval {
			logger.Debug().Str(logFieldTask, task.Name).Msg("running periodic task")
			task.Run(ctx)
			task.lastRun = now
		}
	}
}

// runProcessStep returns a non-nil error only when the loop must exit.
func runProcessStep(ctx context.Context, cfg Config, logger *zerolog.Logger) (int, error) {
	if cfg.Process == nil {
		return 0, nil
	}

	handled, err := cfg.Process(ctx)
	if err == nil {
		return handled, nil
	}

	if cfg.OnError != nil && !cfg.OnError(err) {
		return 0, err
	}

	logger.Error().Err(err).Str(logFieldWorker, cfg.Name).Msg("process error")

	backoff := cfg.ErrorBackoff
	if backoff <= 0 {
		backoff = cfg.PollInterval
	}

	if waitErr := Wait(ctx, backoff); waitErr != nil {
		return 0, waitErr
	}

	return 0, nil
}

func checkCanceled(ctx context.Context, name string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("worker loop %s: %w", name, ctx.Err())
	default:
		return nil
	}
}

// Wait blocks until duration elapses or context is canceled.
// Returns a wrapped context error if context is canceled.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("wait interrupted: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

// RecoverPanic recovers from panics and logs them.
// Use as: defer worker.RecoverPanic(logger, "operation name")
func RecoverPanic(logger *zerolog.Logger, operation string) {
	if r := recover(); r != nil {
		getLogger(logger).Error().
			Interface("panic", r).
			Str("operation", operation).
			Msg("recovered from panic")
	}
}

func getLogger(logger *zerolog.Logger) *zerolog.Logger {
	if logger == nil {
		nop := zerolog.Nop()

		return &nop
	}

	return logger
}
