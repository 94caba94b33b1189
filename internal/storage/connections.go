package db

import (
	"context"
	"fmt"

	"github.com/lueurxax/threat-monitor/internal/core/domain"
)

// UpsertConnection stores a linkage edge and reports whether it is new.
// Endpoints are stored in lexical order so (a, b) and (b, a) share a row.
func (db *DB) UpsertConnection(ctx context.Context, c domain.Connection) (bool, error) {
	a, b := c.AccountA, c.AccountB
	if b < a {
		a, b = b, a
	}

	shared := make([]string, len(c.SharedMetadata))
	for i, cat := range c.SharedMetadata {
		shared[i] = string(cat)
	}

	var created bool
	if err := db.Pool.QueryRow(ctx, `
		INSERT INTO network_connections (account1_id, account2_id, connection_type, shared_metadata, strength)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (account1_id, account2_id) DO UPDATE SET
			connection_type = EXCLUDED.connection_type,
			shared_metadata = EXCLUDED.shared_metadata,
			strength = EXCLUDED.strength,
			updated_at = NOW()
		RETURNING (xmax = 0)
	`, a, b, c.ConnectionType, shared, c.Strength).Scan(&created); err != nil {
		return false, fmt.Errorf("upsert connection: %w", err)
	}

	return created, nil
}

// ListConnections returns the strongest stored connections.
func (db *DB) ListConnections(ctx context.Context, limit int) ([]domain.Connection, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT account1_id, account2_id, connection_type, shared_metadata, strength
		FROM network_connections
		ORDER BY strength DESC, updated_at DESC
		LIMIT $1
	`, safeIntToInt32(limit))
	if err != nil {
		return nil, fmt.Errorf("query connections: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Connection, 0, limit)

	for rows.Next() {
		var (
			c      domain.Connection
			shared []string
		)

		if err := rows.Scan(&c.AccountA, &c.AccountB, &c.ConnectionType, &shared, &c.Strength); err != nil {
			return nil, fmt.Errorf("scan connection row: %w", err)
		}

		c.SharedMetadata = make([]domain.Category, len(shared))
		for i, s := range shared {
			c.SharedMetadata[i] = domain.Category(s)
		}

		out = append(out, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate connection rows: %w", err)
	}

	return out, nil
}
