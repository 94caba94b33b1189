package content

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/lueurxax/threat-monitor/internal/core/domain"
)

// Input is one text to score.
type Input struct {
	Text     string          `json:"text"`
	Platform domain.Platform `json:"platform"`
}

// AnalyzeBatch scores inputs on up to workers goroutines. Results are aligned
// with inputs. Cancellation is checked between items only.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, inputs []Input, workers int) ([]domain.ContentAnalysis, error) {
	results := make([]domain.ContentAnalysis, len(inputs))
	if len(inputs) == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, workers))

	for i, in := range inputs {
		if err := gctx.Err(); err != nil {
			break
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return fmt.Errorf("analyze item %d: %w", i, err)
			}

			results[i] = a.Analyze(in.Text, in.Platform)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analyze batch: %w", err)
	}

	return results, nil
}

// Statistics summarizes a set of analyses.
type Statistics struct {
	TotalAnalyses      int     `json:"total_analyses"`
	AverageThreatScore float64 `json:"average_threat_score"`
	MaxThreatScore     int     `json:"max_threat_score"`
	MinThreatScore     int     `json:"min_threat_score"`
	HighRiskCount      int     `json:"high_risk_count"`
	MediumRiskCount    int     `json:"medium_risk_count"`
	LowRiskCount       int     `json:"low_risk_count"`
	AverageConfidence  float64 `json:"average_confidence"`
}

// Summarize computes batch statistics. An empty batch yields zero values.
func Summarize(results []domain.ContentAnalysis) Statistics {
	stats := Statistics{TotalAnalyses: len(results)}
	if len(results) == 0 {
		return stats
	}

	stats.MinThreatScore = results[0].ThreatScore

	var scoreSum, confSum float64

	for _, r := range results {
		scoreSum += float64(r.ThreatScore)
		confSum += r.Confidence
		stats.MaxThreatScore = max(stats.MaxThreatScore, r.ThreatScore)
		stats.MinThreatScore = min(stats.MinThreatScore, r.ThreatScore)

		switch r.RiskLevel {
		case domain.RiskHigh:
			stats.HighRiskCount++
		case domain.RiskMedium:
			stats.MediumRiskCount++
		default:
			stats.LowRiskCount++
		}
	}

	n := float64(len(results))
	stats.AverageThreatScore = scoreSum / n
	stats.AverageConfidence = confSum / n

	return stats
}
