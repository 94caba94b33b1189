package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const maxLoggedInputLen = 4000

// SaveAnalysisLog records one scoring call with its input, result and duration.
func (db *DB) SaveAnalysisLog(ctx context.Context, kind, input string, result any, took time.Duration) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal analysis result: %w", err)
	}

	if r := []rune(input); len(r) > maxLoggedInputLen {
		input = string(r[:maxLoggedInputLen])
	}

	if _, err := db.Pool.Exec(ctx, `
		INSERT INTO analysis_logs (id, kind, input, result, processing_ms)
		VALUES ($1, $2, $3, $4, $5)
	`, newID(), kind, SanitizeUTF8(input), payload, safeIntToInt32(int(took.Milliseconds()))); err != nil {
		return fmt.Errorf("save analysis log: %w", err)
	}

	return nil
}
