package db

import (
	"context"
	"fmt"
	"time"

	"github.com/lueurxax/threat-monitor/internal/core/domain"
)

// SaveRawMessage stores a message fetched from source. It returns false when
// the message was already stored.
func (db *DB) SaveRawMessage(ctx context.Context, source string, msg domain.Message) (bool, error) {
	tag, err := db.Pool.Exec(ctx, `
		INSERT INTO raw_messages (id, external_id, source, platform, channel, sender, account_id, text, images, posted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (platform, channel, external_id) DO NOTHING
	`, newID(), msg.ID, source, string(msg.Platform), msg.Channel, msg.Sender, msg.AccountID(),
		SanitizeUTF8(msg.Text), msg.Images, msg.Timestamp)
	if err != nil {
		return false, fmt.Errorf("save raw message: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// ClaimRawMessages marks up to limit of the oldest pending messages as claimed
// and returns them in no particular order. Claims older than ClaimTimeout are handed out again.
// The returned message IDs are storage identifiers.
func (db *DB) ClaimRawMessages(ctx context.Context, limit int) ([]domain.Message, error) {
	rows, err := db.Pool.Query(ctx, `
		WITH picked AS (
			SELECT id
			FROM raw_messages
			WHERE status = $1
			   OR (status = $2 AND claimed_at < NOW() - make_interval(secs => $3))
			ORDER BY posted_at
			FOR UPDATE SKIP LOCKED
			LIMIT $4
		)
		UPDATE raw_messages rm
		SET status = $2,
			claimed_at = NOW()
		FROM picked
		WHERE rm.id = picked.id
		RETURNING rm.id::text, rm.text, rm.sender, rm.posted_at, rm.channel, rm.platform, rm.images
	`, MessageStatusPending, MessageStatusClaimed, ClaimTimeout.Seconds(), safeIntToInt32(limit))
	if err != nil {
		return nil, fmt.Errorf("claim raw messages: %w", err)
	}
	defer rows.Close()

	messages := make([]domain.Message, 0, limit)

	for rows.Next() {
		var (
			m        domain.Message
			platform string
		)

		if err := rows.Scan(&m.ID, &m.Text, &m.Sender, &m.Timestamp, &m.Channel, &platform, &m.Images); err != nil {
			return nil, fmt.Errorf("scan claimed message: %w", err)
		}

		m.Platform = domain.ParsePlatform(platform)
		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate claimed messages: %w", err)
	}

	return messages, nil
}

// MarkMessageProcessed finalizes a claimed message. A non-empty errMsg marks it failed.
func (db *DB) MarkMessageProcessed(ctx context.Context, id, errMsg string) error {
	status := MessageStatusProcessed
	if errMsg != "" {
		status = MessageStatusFailed
	}

	uid, ok := parseID(id)
	if !ok {
		return fmt.Errorf("mark message processed: invalid id %q", id)
	}

	if _, err := db.Pool.Exec(ctx, `
		UPDATE raw_messages
		SET status = $2,
			processed_at = NOW(),
			error = NULLIF($3, ''),
			images = NULL
		WHERE id = $1
	`, uid, status, errMsg); err != nil {
		return fmt.Errorf("mark message processed: %w", err)
	}

	return nil
}

// GetBacklogCount returns the number of messages waiting for analysis.
func (db *DB) GetBacklogCount(ctx context.Context) (int, error) {
	var count int
	if err := db.Pool.QueryRow(ctx, `
		SELECT COUNT(*)::int FROM raw_messages WHERE status IN ($1, $2)
	`, MessageStatusPending, MessageStatusClaimed).Scan(&count); err != nil {
		return 0, fmt.Errorf("get backlog count: %w", err)
	}

	return count, nil
}

// RecentAccountMessages returns the account's latest messages, newest first.
func (db *DB) RecentAccountMessages(ctx context.Context, accountID string, limit int) ([]domain.TimedText, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT text, posted_at
		FROM raw_messages
		WHERE account_id = $1
		ORDER BY posted_at DESC
		LIMIT $2
	`, accountID, safeIntToInt32(limit))
	if err != nil {
		return nil, fmt.Errorf("query recent account messages: %w", err)
	}
	defer rows.Close()

	out := make([]domain.TimedText, 0, limit)

	for rows.Next() {
		var (
			text string
			at   time.Time
		)

		if err := rows.Scan(&text, &at); err != nil {
			return nil, fmt.Errorf("scan account message: %w", err)
		}

		out = append(out, domain.TimedText{Text: text, Timestamp: at})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate account messages: %w", err)
	}

	return out, nil
}
