package notify

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/lueurxax/threat-monitor/internal/core/domain"
	"github.com/lueurxax/threat-monitor/internal/platform/htmlutils"
)

// Sender sends bot API requests. *tgbotapi.BotAPI implements it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends alerts to admin chats through the bot API.
type Telegram struct {
	api    Sender
	admins []int64
	logger *zerolog.Logger
}

// NewTelegram connects to the bot API with token.
func NewTelegram(token string, admins []int64, logger *zerolog.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect bot api: %w", err)
	}

	return NewTelegramWithSender(api, admins, logger), nil
}

// NewTelegramWithSender creates a sink over an existing sender.
func NewTelegramWithSender(api Sender, admins []int64, logger *zerolog.Logger) *Telegram {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Telegram{api: api, admins: admins, logger: logger}
}

// Name implements Sink.
func (t *Telegram) Name() string { return "telegram" }

// Notify implements Sink. Every admin gets every part; the first failure is returned.
func (t *Telegram) Notify(ctx context.Context, alert domain.Alert) error {
	parts := htmlutils.SplitMessage(FormatHTML(alert), htmlutils.TelegramMessageLimit)

	var firstErr error

	for _, adminID := range t.admins {
		for i, part := range parts {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("notify telegram: %w", err)
			}

			msg := tgbotapi.NewMessage(adminID, part)
			msg.ParseMode = tgbotapi.ModeHTML
			msg.DisableWebPagePreview = true

			if _, err := t.api.Send(msg); err != nil {
				t.logger.Error().Err(err).Int64("admin_id", adminID).Int("part", i+1).Msg("failed to send alert to admin")

				if firstErr == nil {
					firstErr = fmt.Errorf("send alert part %d to %d: %w", i+1, adminID, err)
				}

				break
			}
		}
	}

	return firstErr
}

// FormatHTML renders an alert for Telegram HTML parse mode.
func FormatHTML(alert domain.Alert) string {
	var sb strings.Builder

	sb.WriteString("<b>[")
	sb.WriteString(htmlutils.Escape(strings.ToUpper(alert.Severity)))
	sb.WriteString("] ")
	sb.WriteString(htmlutils.Escape(string(alert.Type)))
	sb.WriteString("</b>\n\n")
	sb.WriteString(htmlutils.Escape(alert.Message))

	return sb.String()
}
