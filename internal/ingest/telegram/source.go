// Package telegram reads public channel history over MTProto as a user client.
package telegram

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/lueurxax/threat-monitor/internal/core/domain"
	apperrors "github.com/lueurxax/threat-monitor/internal/core/errors"
	"github.com/lueurxax/threat-monitor/internal/platform/observability"
)

const (
	sourceName       = "telegram"
	defaultLimit     = 50
	floodWaitType    = "FLOOD_WAIT"
	logFieldChannel  = "channel"
	logFieldMsgID    = "msg_id"
	logFieldDuration = "seconds"
)

// Config holds MTProto credentials and the channels to follow.
type Config struct {
	APIID       int
	APIHash     string
	Phone       string
	Password    string
	SessionPath string
	Channels    []string
	FetchLimit  int
	RPS         float64
}

// API is the subset of the MTProto client used to read history.
type API interface {
	ContactsResolveUsername(ctx context.Context, request *tg.ContactsResolveUsernameRequest) (*tg.ContactsResolvedPeer, error)
	MessagesGetHistory(ctx context.Context, request *tg.MessagesGetHistoryRequest) (tg.MessagesMessagesClass, error)
}

// MediaFunc downloads an image attachment, returning nil for other media.
type MediaFunc func(ctx context.Context, media tg.MessageMediaClass) ([]byte, error)

type channelState struct {
	peer   tg.InputPeerClass
	lastID int
}

// Source implements ingest.Source for a set of channels.
type Source struct {
	cfg     Config
	limiter *rate.Limiter
	logger  *zerolog.Logger

	mu       sync.Mutex
	api      API
	media    MediaFunc
	channels map[string]*channelState
}

// New creates a source. It cannot fetch until Run has connected or Attach
// has supplied a client.
func New(cfg Config, logger *zerolog.Logger) *Source {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	if cfg.FetchLimit <= 0 {
		cfg.FetchLimit = defaultLimit
	}

	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}

	channels := make(map[string]*channelState, len(cfg.Channels))
	for _, ch := range cfg.Channels {
		channels[normalizeChannel(ch)] = &channelState{}
	}

	return &Source{
		cfg:      cfg,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logger,
		channels: channels,
	}
}

// Name implements ingest.Source.
func (s *Source) Name() string {
	return sourceName
}

// Attach sets the client used by Fetch. media may be nil to skip attachments.
func (s *Source) Attach(api API, media MediaFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.api = api
	s.media = media
}

// Run connects, authenticates if needed and calls fn while the connection is up.
func (s *Source) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	client := telegram.NewClient(s.cfg.APIID, s.cfg.APIHash, telegram.Options{
		SessionStorage: &telegram.FileSessionStorage{
			Path: s.cfg.SessionPath,
		},
	})

	return client.Run(ctx, func(ctx context.Context) error {
		flow := newTerminalAuth(s.cfg.Phone, s.cfg.Password, os.Stdin, os.Stdout, s.logger).flow()
		if err := client.Auth().IfNecessary(ctx, flow); err != nil {
			return fmt.Errorf("telegram auth: %w", err)
		}

		s.logger.Info().Msg("Successfully authenticated as user")

		api := tg.NewClient(client)
		s.Attach(api, func(ctx context.Context, media tg.MessageMediaClass) ([]byte, error) {
			return downloadImage(ctx, api, media)
		})

		return fn(ctx)
	})
}

// Fetch returns messages posted since the previous call, oldest first.
// A channel that fails is logged and skipped until the next call.
func (s *Source) Fetch(ctx context.Context) ([]domain.Message, error) {
	s.mu.Lock()
	api, media := s.api, s.media
	s.mu.Unlock()

	if api == nil {
		return nil, fmt.Errorf("telegram source: %w", apperrors.ErrClientDisabled)
	}

	var out []domain.Message

	for _, name := range s.channelNames() {
		if err := s.limiter.Wait(ctx); err != nil {
			return out, fmt.Errorf("rate limiter: %w", err)
		}

		msgs, err := s.fetchChannel(ctx, api, media, name)
		if err != nil {
			if ctx.Err() != nil {
				return out, fmt.Errorf("fetch %s: %w", name, ctx.Err())
			}

			observability.SourceErrors.WithLabelValues(sourceName).Inc()
			s.logger.Warn().Err(err).Str(logFieldChannel, name).Msg("failed to fetch channel")

			continue
		}

		out = append(out, msgs...)
	}

	return out, nil
}

func (s *Source) channelNames() []string {
	names := make([]string, 0, len(s.channels))
	for _, ch := range s.cfg.Channels {
		names = append(names, normalizeChannel(ch))
	}

	return names
}

func (s *Source) fetchChannel(ctx context.Context, api API, media MediaFunc, name string) ([]domain.Message, error) {
	state, err := s.resolve(ctx, api, name)
	if err != nil {
		return nil, err
	}

	history, err := api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
		Peer:  state.peer,
		Limit: s.cfg.FetchLimit,
		MinID: state.lastID,
	})
	if err != nil {
		return nil, s.handleRPCError(ctx, name, err)
	}

	raw, p, ok := historyMessages(history)
	if !ok {
		s.logger.Debug().Str(logFieldChannel, name).Msg("History not modified")

		return nil, nil
	}

	msgs := make([]domain.Message, 0, len(raw))
	maxID := state.lastID

	// History comes newest first.
	for i := len(raw) - 1; i >= 0; i-- {
		m, ok := raw[i].(*tg.Message)
		if !ok || m.ID <= state.lastID {
			continue
		}

		if m.ID > maxID {
			maxID = m.ID
		}

		msg, ok := toMessage(m, name, p)
		if !ok {
			continue
		}

		if m.Media != nil && media != nil {
			data, err := media(ctx, m.Media)
			if err != nil {
				s.logger.Warn().Err(err).Str(logFieldChannel, name).Int(logFieldMsgID, m.ID).Msg("media download failed")
			} else if data != nil {
				msg.Images = [][]byte{data}
			}
		}

		msgs = append(msgs, msg)
	}

	s.mu.Lock()
	state.lastID = maxID
	s.mu.Unlock()

	return msgs, nil
}

func (s *Source) resolve(ctx context.Context, api API, name string) (*channelState, error) {
	s.mu.Lock()
	state, ok := s.channels[name]

	if !ok {
		state = &channelState{}
		s.channels[name] = state
	}

	peer := state.peer
	s.mu.Unlock()

	if peer != nil {
		return state, nil
	}

	resolved, err := api.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{Username: name})
	if err != nil {
		return nil, s.handleRPCError(ctx, name, err)
	}

	if len(resolved.Chats) == 0 {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrChannelNotFound, name)
	}

	channel, ok := resolved.Chats[0].(*tg.Channel)
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrNotAChannel, name)
	}

	s.logger.Info().Str(logFieldChannel, name).Int64("peer_id", channel.ID).Str("title", channel.Title).Msg("Caching channel info")

	s.mu.Lock()
	state.peer = &tg.InputPeerChannel{ChannelID: channel.ID, AccessHash: channel.AccessHash}
	s.mu.Unlock()

	return state, nil
}

// handleRPCError waits out FLOOD_WAIT and reports it as ErrRateLimited.
func (s *Source) handleRPCError(ctx context.Context, name string, err error) error {
	rpcErr, ok := tgerr.As(err)
	if !ok || rpcErr.Type != floodWaitType {
		return fmt.Errorf("telegram rpc: %w", err)
	}

	s.logger.Warn().Int(logFieldDuration, rpcErr.Argument).Str(logFieldChannel, name).Msg("flood wait")

	timer := time.NewTimer(time.Duration(rpcErr.Argument) * time.Second)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("flood wait: %w", ctx.Err())
	case <-timer.C:
	}

	return fmt.Errorf("%w: %s", apperrors.ErrRateLimited, name)
}

func normalizeChannel(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "https://t.me/")
	name = strings.TrimPrefix(name, "t.me/")

	return strings.TrimPrefix(name, "@")
}
