// Package jsonl tails chat exports stored as one JSON object per line. It
// covers platforms without a live connector, such as WhatsApp and Instagram
// exports converted by external tooling.
package jsonl

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/araddon/dateparse"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lueurxax/threat-monitor/internal/core/domain"
)

const (
	sourceName   = "jsonl"
	logFieldPath = "path"
	logFieldLine = "offset"

	// Epoch values above this are milliseconds.
	millisThreshold = 1e12
)

var errNoTimestamp = errors.New("no timestamp")

// record accepts the field spellings used by common export tools.
type record struct {
	ID        json.RawMessage `json:"id"`
	Text      string          `json:"text"`
	Message   string          `json:"message"`
	Sender    string          `json:"sender"`
	From      string          `json:"from"`
	Timestamp json.RawMessage `json:"timestamp"`
	Date      json.RawMessage `json:"date"`
	Channel   string          `json:"channel"`
	Chat      string          `json:"chat"`
	Platform  string          `json:"platform"`
}

// Source reads appended lines from a set of files.
type Source struct {
	paths    []string
	platform domain.Platform
	logger   *zerolog.Logger

	mu      sync.Mutex
	offsets map[string]int64
}

// New creates a source over paths. Records without a platform field get platform.
func New(paths []string, platform domain.Platform, logger *zerolog.Logger) *Source {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Source{
		paths:    paths,
		platform: platform,
		logger:   logger,
		offsets:  make(map[string]int64, len(paths)),
	}
}

// Name implements ingest.Source.
func (s *Source) Name() string {
	return sourceName
}

// Fetch returns records from complete lines appended since the previous call.
// A file that shrank is read again from the start.
func (s *Source) Fetch(ctx context.Context) ([]domain.Message, error) {
	var out []domain.Message

	for _, path := range s.paths {
		if err := ctx.Err(); err != nil {
			return out, fmt.Errorf("jsonl fetch: %w", err)
		}

		msgs, err := s.readFile(path)
		if err != nil {
			return out, err
		}

		out = append(out, msgs...)
	}

	return out, nil
}

func (s *Source) readFile(path string) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	offset := s.offsets[path]
	if info.Size() < offset {
		s.logger.Info().Str(logFieldPath, path).Msg("file truncated, reading from start")

		offset = 0
	}

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek %s: %w", path, err)
	}

	var out []domain.Message

	r := bufio.NewReader(f)

	for {
		line, err := r.ReadBytes('\n')
		if errors.Is(err, io.EOF) {
			// Partial trailing line is picked up once its newline is written.
			break
		}

		if err != nil {
			return out, fmt.Errorf("read %s: %w", path, err)
		}

		lineOffset := offset
		offset += int64(len(line))

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		msg, err := s.parseLine(path, line)
		if err != nil {
			s.logger.Warn().Err(err).Str(logFieldPath, path).Int64(logFieldLine, lineOffset).Msg("skipping malformed line")

			continue
		}

		out = append(out, msg)
	}

	s.offsets[path] = offset

	return out, nil
}

func (s *Source) parseLine(path string, line []byte) (domain.Message, error) {
	var rec record
	if err := json.Unmarshal(line, &rec); err != nil {
		return domain.Message{}, fmt.Errorf("decode: %w", err)
	}

	ts, err := parseTimestamp(firstRaw(rec.Timestamp, rec.Date))
	if err != nil {
		return domain.Message{}, err
	}

	platform := s.platform
	if rec.Platform != "" {
		platform = domain.ParsePlatform(rec.Platform)
	}

	id := rawString(rec.ID)
	if id == "" {
		id = uuid.NewSHA1(uuid.NameSpaceURL, append([]byte(path+"\x00"), line...)).String()
	}

	return domain.Message{
		ID:        id,
		Text:      firstString(rec.Text, rec.Message),
		Sender:    firstString(rec.Sender, rec.From),
		Timestamp: ts.UTC(),
		Channel:   firstString(rec.Channel, rec.Chat),
		Platform:  platform,
	}, nil
}

// parseTimestamp accepts epoch seconds or milliseconds as numbers and any
// date layout dateparse understands as strings, read as UTC when no zone is given.
func parseTimestamp(raw json.RawMessage) (time.Time, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, errNoTimestamp
	}

	var epoch float64
	if err := json.Unmarshal(raw, &epoch); err == nil {
		if epoch > millisThreshold {
			return time.UnixMilli(int64(epoch)), nil
		}

		return time.Unix(int64(epoch), 0), nil
	}

	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return time.Time{}, fmt.Errorf("timestamp: %w", err)
	}

	if strings.TrimSpace(str) == "" {
		return time.Time{}, errNoTimestamp
	}

	t, err := dateparse.ParseIn(str, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q: %w", str, err)
	}

	return t, nil
}

// rawString renders a JSON string or number id as text.
func rawString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}

	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		if i, err := num.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}

		return num.String()
	}

	return ""
}

func firstRaw(values ...json.RawMessage) json.RawMessage {
	for _, v := range values {
		if len(v) > 0 && string(v) != "null" {
			return v
		}
	}

	return nil
}

func firstString(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}

	return ""
}
