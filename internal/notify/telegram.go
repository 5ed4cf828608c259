package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// TelegramConfig holds Telegram delivery settings.
type TelegramConfig struct {
	Enabled  bool
	BotToken string
	ChatIDs  []int64
}

// TelegramSender forwards reminders to a set of Telegram chats.
type TelegramSender struct {
	api     *tgbotapi.BotAPI
	chatIDs []int64
	logger  *zap.Logger
	enabled bool
}

// NewTelegramSender creates the sender. A disabled config yields a
// sender whose Send is a no-op.
func NewTelegramSender(cfg TelegramConfig, logger *zap.Logger) (*TelegramSender, error) {
	if !cfg.Enabled || cfg.BotToken == "" {
		return &TelegramSender{enabled: false, logger: logger}, nil
	}

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	api.Debug = false

	logger.Info("Telegram reminder channel ready", zap.String("account", api.Self.UserName))

	return &TelegramSender{
		api:     api,
		chatIDs: cfg.ChatIDs,
		logger:  logger,
		enabled: true,
	}, nil
}

// Enabled reports whether reminders will actually be sent.
func (s *TelegramSender) Enabled() bool {
	return s.enabled
}

func (s *TelegramSender) Send(title, body string) error {
	if !s.enabled {
		return nil
	}
	text := fmt.Sprintf("%s\n%s", title, body)
	for _, chatID := range s.chatIDs {
		msg := tgbotapi.NewMessage(chatID, text)
		if _, err := s.api.Send(msg); err != nil {
			return fmt.Errorf("failed to send to chat %d: %w", chatID, err)
		}
	}
	return nil
}
