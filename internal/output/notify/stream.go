package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lueurxax/threat-monitor/internal/core/domain"
)

// defaultStreamMaxLen caps the stream length, trimmed approximately.
const defaultStreamMaxLen = 100000

// Stream appends alerts to a Redis stream for downstream consumers.
type Stream struct {
	client redis.Cmdable
	stream string
	maxLen int64
}

// NewStream creates a sink over client.
func NewStream(client redis.Cmdable, stream string) *Stream {
	return &Stream{client: client, stream: stream, maxLen: defaultStreamMaxLen}
}

// NewStreamFromURL connects to the Redis server at url. The returned close
// function releases the connection pool.
func NewStreamFromURL(url, stream string) (*Stream, func() error, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)

	return NewStream(client, stream), client.Close, nil
}

// Name implements Sink.
func (s *Stream) Name() string { return "redis" }

// Notify implements Sink.
func (s *Stream) Notify(ctx context.Context, alert domain.Alert) error {
	details, err := json.Marshal(alert.Details)
	if err != nil {
		return fmt.Errorf("marshal alert details: %w", err)
	}

	err = s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]any{
			"id":         alert.ID,
			"alert_type": string(alert.Type),
			"severity":   alert.Severity,
			"message":    alert.Message,
			"details":    string(details),
			"created_at": alert.CreatedAt.UTC().Format(time.RFC3339),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", s.stream, err)
	}

	return nil
}
