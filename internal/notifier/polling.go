package notifier

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"TickerLens/internal/dashboard"
)

// ReportBuilder builds dashboard reports.
type ReportBuilder interface {
	Build(ctx context.Context, req dashboard.Request) (*dashboard.Report, error)
}

// CommandHandler answers bot commands.
type CommandHandler struct {
	Reports     ReportBuilder
	DefaultDays int
}

// Handle parses one message and returns the reply. Empty means no reply.
func (h *CommandHandler) Handle(ctx context.Context, text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	cmd := strings.ToLower(fields[0])
	// strip @BotName suffix used in group chats
	if i := strings.IndexByte(cmd, '@'); i > 0 {
		cmd = cmd[:i]
	}

	switch cmd {
	case "/analyze", "/a":
		return h.analyze(ctx, fields[1:])
	case "/help", "/start":
		return HelpText(h.DefaultDays)
	default:
		if strings.HasPrefix(cmd, "/") {
			return "Unknown command. Send /help for usage."
		}
		return ""
	}
}

func (h *CommandHandler) analyze(ctx context.Context, args []string) string {
	if len(args) == 0 {
		return "Usage: /analyze SYMBOL [DAYS]"
	}
	symbol := args[0]
	days := h.DefaultDays
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return "DAYS must be a number, e.g. /analyze AAPL 90"
		}
		days = n
	}

	report, err := h.Reports.Build(ctx, dashboard.Request{Symbol: symbol, Days: days})
	if err != nil {
		return FormatError(strings.ToUpper(symbol), err)
	}
	return FormatAnalysisReport(report)
}

// StartPolling long-polls Telegram for commands and replies in the sender's
// chat. Blocks until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, h *CommandHandler) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := t.api.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			t.api.StopReceivingUpdates()
			t.logger.Info().Msg("telegram polling stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			t.handleUpdate(ctx, h, update)
		}
	}
}

func (t *TelegramNotifier) handleUpdate(ctx context.Context, h *CommandHandler, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Text == "" {
		return
	}
	text := strings.TrimSpace(msg.Text)
	t.logger.Info().Int64("chat", msg.Chat.ID).Str("text", text).Msg("received command")

	reply := h.Handle(ctx, text)
	if reply == "" {
		return
	}
	if err := t.Send(ctx, msg.Chat.ID, reply); err != nil {
		t.logger.Error().Err(err).Msg("send reply")
	}
}
