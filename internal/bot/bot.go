// Package bot implements the investigator-facing Telegram bot: admins list
// and acknowledge alerts, inspect accounts and read threat narratives.
package bot

import (
	"context"
	"fmt"
	"slices"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/lueurxax/threat-monitor/internal/core/domain"
	"github.com/lueurxax/threat-monitor/internal/output/narrative"
	"github.com/lueurxax/threat-monitor/internal/platform/htmlutils"
	db "github.com/lueurxax/threat-monitor/internal/storage"
)

const updateTimeoutSeconds = 60

// Log field names.
const (
	LogFieldUserID   = "user_id"
	LogFieldUsername = "username"
	LogFieldCommand  = "command"
)

// API is the subset of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
}

// Repository is the storage surface behind the commands.
type Repository interface {
	GetBacklogCount(ctx context.Context) (int, error)
	ListAlerts(ctx context.Context, openOnly bool, limit int) ([]domain.Alert, error)
	AcknowledgeAlert(ctx context.Context, id string) error
	GetAccount(ctx context.Context, id string) (*domain.AccountSummary, error)
	ListAccounts(ctx context.Context, limit int) ([]domain.AccountSummary, error)
}

var _ Repository = (*db.DB)(nil)

// Bot answers admin commands.
type Bot struct {
	api      API
	database Repository
	renderer *narrative.Renderer
	admins   []int64
	logger   *zerolog.Logger
}

// New connects to the bot API with token.
func New(token string, admins []int64, database Repository, renderer *narrative.Renderer, logger *zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("creating bot API: %w", err)
	}

	return NewWithAPI(api, admins, database, renderer, logger), nil
}

// NewWithAPI creates a bot over an existing API client.
func NewWithAPI(api API, admins []int64, database Repository, renderer *narrative.Renderer, logger *zerolog.Logger) *Bot {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Bot{
		api:      api,
		database: database,
		renderer: renderer,
		admins:   admins,
		logger:   logger,
	}
}

// Run handles updates until the context is canceled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = updateTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("bot run context canceled: %w", ctx.Err())
		case update, ok := <-updates:
			if !ok {
				return nil
			}

			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	if !b.isAdmin(update.Message.From.ID) {
		b.logger.Warn().
			Int64(LogFieldUserID, update.Message.From.ID).
			Str(LogFieldUsername, update.Message.From.UserName).
			Msg("Unauthorized access attempt")

		return
	}

	b.handleMessage(ctx, update.Message)
}

func (b *Bot) isAdmin(userID int64) bool {
	return slices.Contains(b.admins, userID)
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		return
	}

	b.logger.Info().Str(LogFieldCommand, msg.Command()).Int64(LogFieldUserID, msg.From.ID).Msg("Handling command")

	registry := b.newCommandRegistry()
	if !registry.route(ctx, msg) {
		b.reply(msg, "Unknown command. Try /help")
	}
}

func (b *Bot) reply(msg *tgbotapi.Message, text string) {
	b.sendMessage(msg.Chat.ID, text)
}

func (b *Bot) sendMessage(chatID int64, text string) {
	for _, part := range htmlutils.SplitMessage(text, htmlutils.TelegramMessageLimit) {
		reply := tgbotapi.NewMessage(chatID, part)
		reply.ParseMode = tgbotapi.ModeHTML
		reply.DisableWebPagePreview = true

		if _, err := b.api.Send(reply); err != nil {
			b.logger.Error().Err(err).Msg("failed to send reply")
		}
	}
}
