package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Command names.
const (
	CmdHelp    = "help"
	CmdStart   = "start"
	CmdStatus  = "status"
	CmdAlerts  = "alerts"
	CmdAck     = "ack"
	CmdAccount = "account"
	CmdTop     = "top"
)

type commandHandler func(ctx context.Context, msg *tgbotapi.Message)

// commandRegistry holds the mapping of command names to their handlers.
type commandRegistry struct {
	handlers map[string]commandHandler
}

func (b *Bot) newCommandRegistry() *commandRegistry {
	return &commandRegistry{handlers: map[string]commandHandler{
		CmdStart:   b.handleHelp,
		CmdHelp:    b.handleHelp,
		CmdStatus:  b.handleStatus,
		CmdAlerts:  b.handleAlerts,
		CmdAck:     b.handleAck,
		CmdAccount: b.handleAccount,
		CmdTop:     b.handleTop,
	}}
}

// route dispatches msg and reports whether a handler was found.
func (r *commandRegistry) route(ctx context.Context, msg *tgbotapi.Message) bool {
	handler, ok := r.handlers[msg.Command()]
	if !ok {
		return false
	}

	handler(ctx, msg)

	return true
}
