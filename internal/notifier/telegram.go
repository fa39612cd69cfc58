package notifier

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"TickerLens/internal/logger"
)

// botAPI is the subset of *tgbotapi.BotAPI the notifier uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// TelegramNotifier sends messages and serves commands via the Telegram Bot API.
type TelegramNotifier struct {
	ChatID        int64
	MaxRetries    uint64
	RetryInterval time.Duration

	api    botAPI
	logger zerolog.Logger
}

// NewTelegramNotifier connects to Telegram with optional proxy support.
// chatID is the default chat for Notify; replies go to the sender's chat.
func NewTelegramNotifier(botToken string, chatID int64, proxyURL string) (*TelegramNotifier, error) {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(u)
	}
	client := &http.Client{Timeout: 60 * time.Second, Transport: transport}

	api, err := tgbotapi.NewBotAPIWithClient(botToken, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("connect telegram: %w", err)
	}

	n := newNotifier(api, chatID)
	n.logger.Info().Str("bot", api.Self.UserName).Msg("telegram bot authorized")
	return n, nil
}

func newNotifier(api botAPI, chatID int64) *TelegramNotifier {
	return &TelegramNotifier{
		ChatID:        chatID,
		MaxRetries:    3,
		RetryInterval: time.Second,
		api:           api,
		logger:        logger.Component("telegram"),
	}
}

// Send delivers an HTML message to chatID, retrying with exponential backoff.
func (t *TelegramNotifier) Send(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	attempt := 0
	op := func() error {
		attempt++
		_, err := t.api.Send(msg)
		if err != nil {
			t.logger.Warn().Int("attempt", attempt).Int64("chat", chatID).Err(err).Msg("telegram send failed")
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = t.RetryInterval
	b.MaxElapsedTime = 30 * time.Second
	policy := backoff.WithContext(backoff.WithMaxRetries(b, t.MaxRetries), ctx)

	if err := backoff.Retry(op, policy); err != nil {
		return fmt.Errorf("send telegram message after %d attempts: %w", attempt, err)
	}
	return nil
}

// Notify sends text to the configured default chat.
func (t *TelegramNotifier) Notify(ctx context.Context, text string) error {
	return t.Send(ctx, t.ChatID, text)
}
