package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lueurxax/threat-monitor/internal/core/domain"
	apperrors "github.com/lueurxax/threat-monitor/internal/core/errors"
)

// SaveAlert stores an alert and returns its identifier.
func (db *DB) SaveAlert(ctx context.Context, alert domain.Alert) (string, error) {
	details, err := json.Marshal(alert.Details)
	if err != nil {
		return "", fmt.Errorf("marshal alert details: %w", err)
	}

	id := alert.ID
	if id == "" {
		id = newID()
	}

	if _, err := db.Pool.Exec(ctx, `
		INSERT INTO alerts (id, alert_type, severity, message, details)
		VALUES ($1, $2, $3, $4, $5)
	`, id, string(alert.Type), alert.Severity, SanitizeUTF8(alert.Message), details); err != nil {
		return "", fmt.Errorf("save alert: %w", err)
	}

	return id, nil
}

// ListAlerts returns the newest alerts, optionally only unacknowledged ones.
func (db *DB) ListAlerts(ctx context.Context, openOnly bool, limit int) ([]domain.Alert, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id::text, alert_type, severity, message, details, acknowledged, created_at
		FROM alerts
		WHERE NOT $1 OR NOT acknowledged
		ORDER BY created_at DESC
		LIMIT $2
	`, openOnly, safeIntToInt32(limit))
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Alert, 0, limit)

	for rows.Next() {
		var (
			a         domain.Alert
			alertType string
			details   []byte
		)

		if err := rows.Scan(&a.ID, &alertType, &a.Severity, &a.Message, &details, &a.Acknowledged, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan alert row: %w", err)
		}

		a.Type = domain.AlertType(alertType)

		if err := json.Unmarshal(details, &a.Details); err != nil {
			return nil, fmt.Errorf("decode alert details %s: %w", a.ID, err)
		}

		out = append(out, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alert rows: %w", err)
	}

	return out, nil
}

// AcknowledgeAlert marks an alert as handled.
func (db *DB) AcknowledgeAlert(ctx context.Context, id string) error {
	uid, ok := parseID(id)
	if !ok {
		return fmt.Errorf("acknowledge alert %q: %w", id, apperrors.ErrInvalidInput)
	}

	tag, err := db.Pool.Exec(ctx, `UPDATE alerts SET acknowledged = TRUE WHERE id = $1`, uid)
	if err != nil {
		return fmt.Errorf("acknowledge alert: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("acknowledge alert %s: %w", id, apperrors.ErrNotFound)
	}

	return nil
}
