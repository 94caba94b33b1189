package app

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/lueurxax/threat-monitor/internal/core/domain"
	"github.com/lueurxax/threat-monitor/internal/process/content"
	"github.com/lueurxax/threat-monitor/internal/process/extract"
)

const maxLineBytes = 1 << 20

type analyzedLine struct {
	Text     string                 `json:"text"`
	Analysis domain.ContentAnalysis `json:"analysis"`
	Summary  extract.Summary        `json:"metadata_summary"`
}

type analyzeReport struct {
	Results    []analyzedLine     `json:"results"`
	Statistics content.Statistics `json:"statistics"`
}

func analyzeLines(ctx context.Context, analyzer *content.Analyzer, in io.Reader, out io.Writer,
	platform domain.Platform, workers int,
) error {
	var inputs []content.Input

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineBytes)

	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			inputs = append(inputs, content.Input{Text: line, Platform: platform})
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	results, err := analyzer.AnalyzeBatch(ctx, inputs, workers)
	if err != nil {
		return fmt.Errorf("analyze input: %w", err)
	}

	report := analyzeReport{
		Results:    make([]analyzedLine, len(results)),
		Statistics: content.Summarize(results),
	}

	for i, r := range results {
		report.Results[i] = analyzedLine{Text: inputs[i].Text, Analysis: r, Summary: extract.Summarize(r.Metadata)}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	return nil
}
