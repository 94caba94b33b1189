package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// TickerConfig configures a loop that runs one task on a fixed interval.
type TickerConfig struct {
	Name     string
	Interval time.Duration

	// OnTick runs on every tick. It must handle its own errors.
	OnTick func(ctx context.Context)

	// RunOnStart runs OnTick once before the first tick.
	RunOnStart bool

	Logger *zerolog.Logger
}

// TickerLoop calls OnTick every Interval until the context is canceled.
// OnTick panics are recovered so one bad run does not stop the loop.
func TickerLoop(ctx context.Context, cfg TickerConfig) error {
	logger := getLogger(cfg.Logger)
	logger.Info().Str(logFieldWorker, cfg.Name).Dur("interval", cfg.Interval).Msg("starting ticker loop")

	defer logger.Info().Str(logFieldWorker, cfg.Name).Msg("ticker loop stopped")

	if cfg.Interval <= 0 {
		return fmt.Errorf("ticker loop %s: non-positive interval %v", cfg.Name, cfg.Interval)
	}

	tick := func() {
		defer RecoverPanic(logger, cfg.Name)

		if cfg.OnTick != nil {
			cfg.OnTick(ctx)
		}
	}

	if cfg.RunOnStart {
		tick()
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("ticker loop %s: %w", cfg.Name, ctx.Err())
		case <-ticker.C:
			tick()
		}
	}
}
