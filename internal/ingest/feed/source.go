// Package feed reads RSS and Atom feeds as message sources. Each item becomes
// one record attributed to its author, or to the feed when it has none.
package feed

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"github.com/lueurxax/threat-monitor/internal/core/domain"
	"github.com/lueurxax/threat-monitor/internal/platform/htmlutils"
)

const (
	sourceName     = "feed"
	defaultTimeout = 30 * time.Second
	logFieldURL    = "url"
)

// Source polls a fixed list of feed URLs.
type Source struct {
	urls   []string
	parser *gofeed.Parser
	now    func() time.Time
	logger *zerolog.Logger

	mu sync.Mutex
	// seen holds the item keys of the previous fetch per feed.
	seen map[string]map[string]struct{}
}

// New creates a feed source. client may be nil.
func New(urls []string, client *http.Client, logger *zerolog.Logger) *Source {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}

	parser := gofeed.NewParser()
	parser.Client = client

	return &Source{
		urls:   urls,
		parser: parser,
		now:    time.Now,
		logger: logger,
		seen:   make(map[string]map[string]struct{}, len(urls)),
	}
}

// Name implements ingest.Source.
func (s *Source) Name() string {
	return sourceName
}

// Fetch returns items that were not present in the previous fetch of their feed.
func (s *Source) Fetch(ctx context.Context) ([]domain.Message, error) {
	var (
		out      []domain.Message
		firstErr error
		failed   int
	)

	for _, url := range s.urls {
		f, err := s.parser.ParseURLWithContext(url, ctx)
		if err != nil {
			if ctx.Err() != nil {
				return out, fmt.Errorf("fetch feed: %w", ctx.Err())
			}

			s.logger.Warn().Err(err).Str(logFieldURL, url).Msg("failed to fetch feed")

			if firstErr == nil {
				firstErr = err
			}

			failed++

			continue
		}

		out = append(out, s.newItems(url, f)...)
	}

	if failed == len(s.urls) && firstErr != nil {
		return nil, fmt.Errorf("all feeds failed: %w", firstErr)
	}

	return out, nil
}

func (s *Source) newItems(url string, f *gofeed.Feed) []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.seen[url]
	current := make(map[string]struct{}, len(f.Items))
	out := make([]domain.Message, 0, len(f.Items))

	for _, item := range f.Items {
		msg := toMessage(url, f, item, s.now)
		current[msg.ID] = struct{}{}

		if _, ok := prev[msg.ID]; ok {
			continue
		}

		out = append(out, msg)
	}

	s.seen[url] = current

	return out
}

func toMessage(url string, f *gofeed.Feed, item *gofeed.Item, now func() time.Time) domain.Message {
	body := item.Content
	if body == "" {
		body = item.Description
	}

	text := strings.TrimSpace(item.Title)
	if plain := htmlutils.PlainText(body); plain != "" {
		if text != "" {
			text += "\n"
		}

		text += plain
	}

	sender := extractFeedAuthor(item)
	if sender == "" {
		sender = f.Title
	}

	if sender == "" {
		sender = url
	}

	ts := coalesceTime(toTime(item.PublishedParsed), toTime(item.UpdatedParsed))
	if ts.IsZero() {
		ts = now()
	}

	return domain.Message{
		ID:        itemKey(item),
		Text:      text,
		Sender:    sender,
		Timestamp: ts.UTC(),
		Channel:   url,
		Platform:  domain.PlatformUnknown,
	}
}

// itemKey prefers the feed's own identifiers and falls back to a stable
// hash of the item content.
func itemKey(item *gofeed.Item) string {
	if item.GUID != "" {
		return item.GUID
	}

	if item.Link != "" {
		return item.Link
	}

	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(item.Title+"\x00"+item.Description+"\x00"+item.Content)).String()
}

func extractFeedAuthor(item *gofeed.Item) string {
	if item.Author != nil && item.Author.Name != "" {
		return item.Author.Name
	}

	if len(item.Authors) > 0 && item.Authors[0] != nil {
		return item.Authors[0].Name
	}

	return ""
}

func toTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}

	return *t
}

func coalesceTime(times ...time.Time) time.Time {
	for _, t := range times {
		if !t.IsZero() {
			return t
		}
	}

	return time.Time{}
}
