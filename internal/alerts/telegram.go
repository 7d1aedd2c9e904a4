package alerts

import (
	"dex-trade-bot-go/internal/config"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Dispatcher pushes best-effort notifications about trade outcomes.
// Delivery is fire-and-forget; failures are logged, never returned.
type Dispatcher interface {
	Send(msg string)
}

// Telegram sends alerts to a Telegram chat. It implements Dispatcher.
type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
	logger *zap.Logger
}

var _ Dispatcher = (*Telegram)(nil)

// NewTelegram creates a Telegram dispatcher. Missing credentials are not an
// error: a Nop dispatcher is returned so callers never have to check.
func NewTelegram(cfg *config.Telegram, logger *zap.Logger) Dispatcher {
	if cfg.Token == "" || cfg.ChatID == 0 {
		logger.Info("Telegram credentials not configured, alerts disabled")
		return Nop{}
	}

	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		logger.Warn("Failed to initialize Telegram bot, alerts disabled", zap.Error(err))
		return Nop{}
	}

	return &Telegram{
		api:    api,
		chatID: cfg.ChatID,
		logger: logger,
	}
}

// Send pushes a text message to the configured chat.
func (t *Telegram) Send(msg string) {
	if _, err := t.api.Send(tgbotapi.NewMessage(t.chatID, msg)); err != nil {
		t.logger.Warn("Failed to send Telegram alert", zap.Error(err))
	}
}

// Nop is a Dispatcher that drops every message.
type Nop struct{}

func (Nop) Send(string) {}
