package presence

import (
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/stamerd/stosufy/src/features/config"
)

// TelegramNotifier posts now-playing updates to a Telegram chat.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramNotifier connects the bot. Returns an error when the token is
// rejected so the caller can fall back to the log notifier.
func NewTelegramNotifier(cfg config.Telegram) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect telegram bot: %w", err)
	}
	slog.Info("Telegram presence enabled", "account", bot.Self.UserName)
	return &TelegramNotifier{bot: bot, chatID: cfg.ChatID}, nil
}

func (t *TelegramNotifier) NowPlaying(title, artist string) error {
	text := fmt.Sprintf("🎵 %s - %s", artist, title)
	if artist == "" {
		text = fmt.Sprintf("🎵 %s", title)
	}
	_, err := t.bot.Send(tgbotapi.NewMessage(t.chatID, text))
	return err
}

func (t *TelegramNotifier) Clear() error {
	_, err := t.bot.Send(tgbotapi.NewMessage(t.chatID, "⏹ Playback stopped"))
	return err
}
