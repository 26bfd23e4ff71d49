package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/wenchangshou/devicectl/internal/config"
)

// TelegramTarget delivers alerts to a single Telegram chat.
type TelegramTarget struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramTarget constructs a bot client for cfg.
func NewTelegramTarget(cfg config.TelegramNotificationConfig) (*TelegramTarget, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("telegram: new bot: %w", err)
	}
	return &TelegramTarget{bot: bot, chatID: cfg.ChatID}, nil
}

// Notify sends message to the configured chat.
func (t *TelegramTarget) Notify(ctx context.Context, message string) error {
	msg := tgbotapi.NewMessage(t.chatID, message)
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	return nil
}
