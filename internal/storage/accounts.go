package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lueurxax/threat-monitor/internal/core/domain"
)

const accountColumns = `id, username, platform, threat_score, risk_level, bot_confidence,
	metadata, message_count, first_seen, last_seen`

// GetAccount loads an account summary. It returns nil when the account is unknown.
func (db *DB) GetAccount(ctx context.Context, id string) (*domain.AccountSummary, error) {
	row := db.Pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)

	acc, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil //nolint:nilnil // nil,nil indicates the account has not been observed yet
		}

		return nil, fmt.Errorf("get account: %w", err)
	}

	return &acc, nil
}

// AccountUpdate is the outcome of UpdateAccount.
type AccountUpdate struct {
	// Previous is the summary before the update, nil for a new account.
	Previous *domain.AccountSummary
	// Current is the stored summary after the update.
	Current domain.AccountSummary
	// Applied is false when the message had already been applied.
	Applied bool
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// UpdateAccount applies one message to an account summary. The read, apply
// and write run in one transaction holding a per-account advisory lock, so
// workers handling the same sender take turns. Each message is applied to an
// account at most once; a repeated messageID leaves the summary untouched.
func (db *DB) UpdateAccount(ctx context.Context, accountID, messageID string,
	apply func(prev *domain.AccountSummary) domain.AccountSummary,
) (AccountUpdate, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return AccountUpdate{}, fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx) //nolint:errcheck // rollback after commit returns error, this is best-effort cleanup
	}()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, accountID); err != nil {
		return AccountUpdate{}, fmt.Errorf("lock account: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO account_messages (account_id, message_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, accountID, messageID)
	if err != nil {
		return AccountUpdate{}, fmt.Errorf("record account message: %w", err)
	}

	var prev *domain.AccountSummary

	acc, err := scanAccount(tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, accountID))

	switch {
	case err == nil:
		prev = &acc
	case !errors.Is(err, pgx.ErrNoRows):
		return AccountUpdate{}, fmt.Errorf("get account: %w", err)
	}

	if tag.RowsAffected() == 0 {
		update := AccountUpdate{Previous: prev}
		if prev != nil {
			update.Current = *prev
		}

		return update, nil
	}

	next := apply(prev)

	if err := upsertAccount(ctx, tx, next); err != nil {
		return AccountUpdate{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return AccountUpdate{}, fmt.Errorf("commit transaction: %w", err)
	}

	return AccountUpdate{Previous: prev, Current: next, Applied: true}, nil
}

func upsertAccount(ctx context.Context, q execer, acc domain.AccountSummary) error {
	if acc.Metadata == nil {
		acc.Metadata = domain.NewExtractedMetadata()
	}

	meta, err := json.Marshal(acc.Metadata)
	if err != nil {
		return fmt.Errorf("marshal account metadata: %w", err)
	}

	if _, err := q.Exec(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			threat_score = EXCLUDED.threat_score,
			risk_level = EXCLUDED.risk_level,
			bot_confidence = EXCLUDED.bot_confidence,
			metadata = EXCLUDED.metadata,
			message_count = EXCLUDED.message_count,
			first_seen = EXCLUDED.first_seen,
			last_seen = EXCLUDED.last_seen,
			updated_at = NOW()
	`, acc.ID, acc.Username, string(acc.Platform), acc.ThreatScore, string(acc.RiskLevel), acc.BotConfidence,
		meta, acc.MessageCount, acc.FirstSeen, acc.LastSeen); err != nil {
		return fmt.Errorf("upsert account: %w", err)
	}

	return nil
}

// ListAccounts returns the most threatening recently active accounts.
func (db *DB) ListAccounts(ctx context.Context, limit int) ([]domain.AccountSummary, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		ORDER BY threat_score DESC, last_seen DESC
		LIMIT $1
	`, safeIntToInt32(limit))
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	out := make([]domain.AccountSummary, 0, limit)

	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account row: %w", err)
		}

		out = append(out, acc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate account rows: %w", err)
	}

	return out, nil
}

func scanAccount(row pgx.Row) (domain.AccountSummary, error) {
	var (
		acc       domain.AccountSummary
		platform  string
		riskLevel string
		meta      []byte
	)

	if err := row.Scan(&acc.ID, &acc.Username, &platform, &acc.ThreatScore, &riskLevel, &acc.BotConfidence,
		&meta, &acc.MessageCount, &acc.FirstSeen, &acc.LastSeen); err != nil {
		return acc, err //nolint:wrapcheck // wrapped by callers
	}

	acc.Platform = domain.ParsePlatform(platform)
	acc.RiskLevel = domain.RiskLevel(riskLevel)
	acc.Metadata = domain.NewExtractedMetadata()

	if err := json.Unmarshal(meta, acc.Metadata); err != nil {
		return acc, fmt.Errorf("decode account metadata: %w", err)
	}

	return acc, nil
}
