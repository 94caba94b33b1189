package botdetect

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/lueurxax/threat-monitor/internal/core/domain"
)

// Window is one actor's recent messages.
type Window struct {
	AccountID string             `json:"account_id"`
	Platform  domain.Platform    `json:"platform"`
	Messages  []domain.TimedText `json:"messages"`
}

// DetectMany assesses independent windows on up to workers goroutines.
// Results are aligned with windows.
func (d *Detector) DetectMany(ctx context.Context, windows []Window, workers int) ([]domain.BotDetection, error) {
	results := make([]domain.BotDetection, len(windows))
	if len(windows) == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, workers))

	for i, w := range windows {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return fmt.Errorf("detect window %s: %w", w.AccountID, err)
			}

			results[i] = d.Detect(w.Messages, w.Platform)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("detect windows: %w", err)
	}

	return results, nil
}
