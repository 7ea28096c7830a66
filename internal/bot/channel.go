package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"trackerbot/internal/reminder"
)

// Channel sends reminder notifications over the Telegram Bot API. It is the
// transport behind reminder.Channel; the chat id doubles as the user id.
type Channel struct {
	api *tgbotapi.BotAPI
	log *zap.SugaredLogger
}

func NewChannel(api *tgbotapi.BotAPI, log *zap.SugaredLogger) *Channel {
	return &Channel{api: api, log: log}
}

func (c *Channel) Send(ctx context.Context, chatID int64, text string, buttons []reminder.Button) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	if len(buttons) > 0 {
		row := make([]tgbotapi.InlineKeyboardButton, 0, len(buttons))
		for _, b := range buttons {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data))
		}
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(row)
	}

	sent, err := c.api.Send(msg)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to send message to chat %d", chatID)
	}
	return sent.MessageID, nil
}

// DeleteMessages removes the given messages one by one. Messages that are
// already gone (or too old for the API to delete) are logged and skipped so
// the rest of the batch still goes through.
func (c *Channel) DeleteMessages(ctx context.Context, chatID int64, messageIDs []int) error {
	for _, id := range messageIDs {
		if _, err := c.api.Request(tgbotapi.NewDeleteMessage(chatID, id)); err != nil {
			c.log.Warnw("failed to delete message", "chat", chatID, "message", id, "err", err)
		}
	}
	return nil
}
