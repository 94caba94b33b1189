package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lueurxax/threat-monitor/internal/core/domain"
)

// SaveThreat stores a content analysis and returns its identifier.
func (db *DB) SaveThreat(ctx context.Context, rec domain.ThreatRecord) (string, error) {
	analysis, err := json.Marshal(rec.Analysis)
	if err != nil {
		return "", fmt.Errorf("marshal threat analysis: %w", err)
	}

	id := rec.ID
	if id == "" {
		id = newID()
	}

	var messageID any
	if uid, ok := parseID(rec.MessageID); ok {
		messageID = uid
	}

	if _, err := db.Pool.Exec(ctx, `
		INSERT INTO threats (id, message_id, account_id, channel, text, threat_score, risk_level, confidence, analysis)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, id, messageID, rec.AccountID, rec.Channel, SanitizeUTF8(rec.Text),
		rec.Analysis.ThreatScore, string(rec.Analysis.RiskLevel), rec.Analysis.Confidence, analysis); err != nil {
		return "", fmt.Errorf("save threat: %w", err)
	}

	return id, nil
}

// ListThreats returns threats scoring at least minScore, highest first.
func (db *DB) ListThreats(ctx context.Context, minScore, limit int) ([]domain.ThreatRecord, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id::text, COALESCE(message_id::text, ''), account_id, channel, text, analysis, created_at
		FROM threats
		WHERE threat_score >= $1
		ORDER BY threat_score DESC, created_at DESC
		LIMIT $2
	`, minScore, safeIntToInt32(limit))
	if err != nil {
		return nil, fmt.Errorf("query threats: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ThreatRecord, 0, limit)

	for rows.Next() {
		var (
			rec      domain.ThreatRecord
			analysis []byte
			created  time.Time
		)

		if err := rows.Scan(&rec.ID, &rec.MessageID, &rec.AccountID, &rec.Channel, &rec.Text, &analysis, &created); err != nil {
			return nil, fmt.Errorf("scan threat row: %w", err)
		}

		if err := json.Unmarshal(analysis, &rec.Analysis); err != nil {
			return nil, fmt.Errorf("decode threat analysis %s: %w", rec.ID, err)
		}

		rec.CreatedAt = created
		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate threat rows: %w", err)
	}

	return out, nil
}
