package bot

import (
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// MessageOption определяет тип функции-опции
type MessageOption func(*tgbotapi.MessageConfig)

// WithReply добавляет опцию ответа на сообщение
func WithReply(messageID int) MessageOption {
	return func(msg *tgbotapi.MessageConfig) {
		msg.ReplyToMessageID = messageID
	}
}

func (b *Botik) sendText(chatID int64, text string, opts ...MessageOption) error {
	msg := tgbotapi.NewMessage(chatID, text)

	for _, opt := range opts {
		opt(&msg)
	}

	if _, err := b.bot.Send(msg); err != nil {
		return fmt.Errorf("sending message: %w", err)
	}

	return nil
}

// reply отвечает на сообщение, ошибку отправки только логирует
func (b *Botik) reply(msg *tgbotapi.Message, text string) {
	if err := b.sendText(msg.Chat.ID, text, WithReply(msg.MessageID)); err != nil {
		slog.Error(
			"reply to command",
			slog.String("command", msg.Command()),
			slog.String("error", err.Error()),
		)
	}
}
