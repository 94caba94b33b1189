package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/lueurxax/threat-monitor/internal/core/domain"
	apperrors "github.com/lueurxax/threat-monitor/internal/core/errors"
	"github.com/lueurxax/threat-monitor/internal/output/narrative"
	"github.com/lueurxax/threat-monitor/internal/platform/htmlutils"
)

const (
	defaultListSize = 10
	maxListSize     = 50
	timeLayout      = "2006-01-02 15:04"
)

const helpText = `<b>Threat monitor</b>

/status - queue backlog and open alerts
/alerts [n] - latest open alerts
/ack &lt;alert id&gt; - acknowledge an alert
/account &lt;platform:username&gt; - account summary and narrative
/top [n] - highest scoring accounts`

func (b *Bot) handleHelp(_ context.Context, msg *tgbotapi.Message) {
	b.reply(msg, helpText)
}

func (b *Bot) handleStatus(ctx context.Context, msg *tgbotapi.Message) {
	backlog, err := b.database.GetBacklogCount(ctx)
	if err != nil {
		b.replyError(msg, "backlog", err)
		return
	}

	open, err := b.database.ListAlerts(ctx, true, maxListSize)
	if err != nil {
		b.replyError(msg, "alerts", err)
		return
	}

	openText := strconv.Itoa(len(open))
	if len(open) == maxListSize {
		openText += "+"
	}

	b.reply(msg, fmt.Sprintf("<b>Status</b>\nBacklog: %d messages\nOpen alerts: %s", backlog, openText))
}

func (b *Bot) handleAlerts(ctx context.Context, msg *tgbotapi.Message) {
	n := listSize(msg.CommandArguments())

	alerts, err := b.database.ListAlerts(ctx, true, n)
	if err != nil {
		b.replyError(msg, "alerts", err)
		return
	}

	if len(alerts) == 0 {
		b.reply(msg, "No open alerts.")
		return
	}

	b.reply(msg, formatAlerts(alerts))
}

func (b *Bot) handleAck(ctx context.Context, msg *tgbotapi.Message) {
	id := strings.TrimSpace(msg.CommandArguments())
	if id == "" {
		b.reply(msg, "Usage: <code>/ack &lt;alert id&gt;</code>")
		return
	}

	if err := b.database.AcknowledgeAlert(ctx, id); err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) || apperrors.Is(err, apperrors.ErrInvalidInput) {
			b.reply(msg, fmt.Sprintf("Alert <code>%s</code> not found.", htmlutils.Escape(id)))
			return
		}

		b.replyError(msg, "acknowledge", err)

		return
	}

	b.reply(msg, fmt.Sprintf("Alert <code>%s</code> acknowledged.", htmlutils.Escape(id)))
}

func (b *Bot) handleAccount(ctx context.Context, msg *tgbotapi.Message) {
	id := strings.TrimSpace(msg.CommandArguments())
	if id == "" {
		b.reply(msg, "Usage: <code>/account &lt;platform:username&gt;</code>")
		return
	}

	if !strings.Contains(id, ":") {
		id = domain.AccountKey(domain.PlatformTelegram, id)
	}

	acc, err := b.database.GetAccount(ctx, id)
	if err != nil {
		b.replyError(msg, "account", err)
		return
	}

	if acc == nil {
		b.reply(msg, fmt.Sprintf("Account <code>%s</code> not seen yet.", htmlutils.Escape(id)))
		return
	}

	story, err := b.renderer.ThreatNarrative(narrative.Suspect{
		Name:        acc.Username,
		ThreatScore: acc.ThreatScore,
		Platforms:   []string{string(acc.Platform)},
	})
	if err != nil {
		b.replyError(msg, "narrative", err)
		return
	}

	b.reply(msg, formatAccount(*acc)+"\n\n<pre>"+htmlutils.Escape(story)+"</pre>")
}

func (b *Bot) handleTop(ctx context.Context, msg *tgbotapi.Message) {
	accounts, err := b.database.ListAccounts(ctx, listSize(msg.CommandArguments()))
	if err != nil {
		b.replyError(msg, "accounts", err)
		return
	}

	if len(accounts) == 0 {
		b.reply(msg, "No accounts observed yet.")
		return
	}

	var sb strings.Builder

	sb.WriteString("<b>Top accounts</b>\n")

	for i, acc := range accounts {
		fmt.Fprintf(&sb, "%d. <code>%s</code> score %d (%s), bot %.0f%%\n",
			i+1, htmlutils.Escape(acc.ID), acc.ThreatScore, acc.RiskLevel, acc.BotConfidence*100)
	}

	b.reply(msg, strings.TrimRight(sb.String(), "\n"))
}

func (b *Bot) replyError(msg *tgbotapi.Message, what string, err error) {
	b.logger.Error().Err(err).Str(LogFieldCommand, msg.Command()).Msg("command failed")
	b.reply(msg, fmt.Sprintf("Failed to load %s: %s", what, htmlutils.Escape(err.Error())))
}

func listSize(arg string) int {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || n <= 0 {
		return defaultListSize
	}

	return min(n, maxListSize)
}

func formatAlerts(alerts []domain.Alert) string {
	var sb strings.Builder

	sb.WriteString("<b>Open alerts</b>\n")

	for _, a := range alerts {
		fmt.Fprintf(&sb, "\n<b>[%s]</b> %s <i>%s</i>\n%s\n<code>/ack %s</code>\n",
			strings.ToUpper(a.Severity),
			htmlutils.Escape(string(a.Type)),
			a.CreatedAt.UTC().Format(timeLayout),
			htmlutils.Escape(a.Message),
			htmlutils.Escape(a.ID))
	}

	return strings.TrimRight(sb.String(), "\n")
}

func formatAccount(acc domain.AccountSummary) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "<b>%s</b>\n", htmlutils.Escape(acc.ID))
	fmt.Fprintf(&sb, "Threat score: %d (%s)\n", acc.ThreatScore, acc.RiskLevel)
	fmt.Fprintf(&sb, "Bot confidence: %.2f\n", acc.BotConfidence)
	fmt.Fprintf(&sb, "Messages: %d\n", acc.MessageCount)
	fmt.Fprintf(&sb, "Seen: %s to %s",
		acc.FirstSeen.UTC().Format(timeLayout), acc.LastSeen.UTC().Format(timeLayout))

	for _, c := range acc.Metadata.Present() {
		fmt.Fprintf(&sb, "\n%s: %s", c, htmlutils.Escape(strings.Join(acc.Metadata.Get(c), ", ")))
	}

	return sb.String()
}
