// Package bot is a minimal Telegram sender used for operational alerts.
// Unlike a full notification bot there is no command handling and no
// subscriber management: messages go to the single ops chat from the config.
package bot

import (
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"

	"rbreg/lib/sl"
)

type TgBot struct {
	log    *slog.Logger
	api    *tgbotapi.Bot
	chatId int64
}

func NewTgBot(apiKey string, chatId int64, log *slog.Logger) (*TgBot, error) {
	api, err := tgbotapi.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &TgBot{
		log:    log.With(sl.Module("bot")),
		api:    api,
		chatId: chatId,
	}, nil
}

// SendMessageWithLevel delivers an alert to the ops chat. The level is part
// of the signature so the slog handler can pass it through; delivery itself
// does not filter, the handler already did.
func (t *TgBot) SendMessageWithLevel(msg string, _ slog.Level) {
	_, err := t.api.SendMessage(t.chatId, msg, &tgbotapi.SendMessageOpts{
		ParseMode: "MarkdownV2",
	})
	if err != nil {
		// Markdown parse failures are common with arbitrary log payloads;
		// retry plain.
		_, err = t.api.SendMessage(t.chatId, msg, &tgbotapi.SendMessageOpts{})
		if err != nil {
			t.log.Error("sending alert", sl.Err(err))
		}
	}
}

// Sanitize escapes Telegram MarkdownV2 reserved characters.
func Sanitize(input string) string {
	reservedChars := "\\_{}#+-.!|()[]=*"
	var sanitized strings.Builder
	for _, char := range input {
		if strings.ContainsRune(reservedChars, char) {
			sanitized.WriteByte('\\')
		}
		sanitized.WriteRune(char)
	}
	return sanitized.String()
}
