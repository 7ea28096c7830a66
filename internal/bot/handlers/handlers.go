// Package handlers routes inbound Telegram updates: commands, free-text
// messages feeding the one-time reminder builder, and done/skip callbacks.
package handlers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jmhodges/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"trackerbot/internal/builder"
	"trackerbot/internal/countup"
	"trackerbot/internal/models"
	"trackerbot/internal/reminder"
	"trackerbot/internal/repository"
)

type Deps struct {
	Engine   *reminder.Service
	Builder  *builder.Service
	CountUps *countup.Service

	Users     *repository.UserRepository
	Reminders *repository.ReminderRepository
	OneTime   *repository.OneTimeReminderRepository
}

type Handlers struct {
	api  *tgbotapi.BotAPI
	deps *Deps
	clk  clock.Clock
	log  *zap.SugaredLogger
}

func New(api *tgbotapi.BotAPI, deps *Deps, clk clock.Clock, log *zap.SugaredLogger) *Handlers {
	return &Handlers{api: api, deps: deps, clk: clk, log: log}
}

// HandleUpdate processes one update. A returned error means the update was
// not durably handled and should be retried; user-facing failures are logged
// and swallowed instead.
func (h *Handlers) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	switch {
	case update.CallbackQuery != nil:
		return h.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		if update.Message.IsCommand() {
			return h.handleCommand(ctx, update.Message)
		}
		return h.handleMessage(ctx, update.Message)
	}
	return nil
}

func (h *Handlers) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	if err := h.registerUser(ctx, msg); err != nil {
		return err
	}

	switch msg.Command() {
	case "start":
		h.handleStart(msg)
	case "help":
		h.handleHelp(msg)
	case "remind":
		h.handleRemind(msg)
	case "cancel":
		h.handleCancel(msg)
	case "reminders":
		return h.handleReminderList(ctx, msg)
	case "countups":
		return h.handleCountUpList(ctx, msg)
	case "countup_new":
		return h.handleCountUpNew(ctx, msg)
	case "countup_start":
		return h.handleCountUpStart(ctx, msg)
	case "countup_stop":
		return h.handleCountUpStop(ctx, msg)
	case "countup_history":
		return h.handleCountUpHistory(ctx, msg)
	case "timezone":
		return h.handleTimezone(ctx, msg)
	default:
		h.reply(msg.Chat.ID, "Unknown command. See /help for what I can do.")
	}
	return nil
}

// handleMessage feeds free text into the chat's reminder builder. Text outside
// a builder session gets a gentle nudge in private chats and is ignored in
// groups.
func (h *Handlers) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	if !h.deps.Builder.Active(chatID) {
		if msg.Chat.IsPrivate() {
			h.reply(chatID, "I'm not sure what you mean. Try /help.")
		}
		return nil
	}

	result, created, err := h.deps.Builder.Advance(ctx, chatID, msg.Text)
	if errors.Is(err, models.ErrNotFound) {
		h.reply(chatID, "I don't know you yet. Send /start first.")
		return nil
	}
	if err != nil {
		return err
	}

	switch result {
	case builder.ResultAskTime:
		h.reply(chatID, "When should I remind you?")
	case builder.ResultEmptyName:
		h.reply(chatID, "The name cannot be empty. What should I remind you about?")
	case builder.ResultParseFailed:
		h.reply(chatID, `I could not understand that time. Try something like "tomorrow at 8am".`)
	case builder.ResultSaved:
		h.reply(chatID, fmt.Sprintf("Got it. I will remind you about %q at %s.",
			created.Name, h.formatUserTime(ctx, chatID, *created.NextRun)))
	}
	return nil
}

// registerUser upserts the sender so later lookups by chat id succeed. New
// users start in UTC until they set a timezone.
func (h *Handlers) registerUser(ctx context.Context, msg *tgbotapi.Message) error {
	user := &models.User{
		UserID:    msg.Chat.ID,
		UserName:  msg.From.UserName,
		Timezone:  "UTC",
		CreatedAt: h.clk.Now().UTC(),
	}
	return errors.Wrap(h.deps.Users.Register(ctx, user), "failed to register user")
}

func (h *Handlers) reply(chatID int64, text string) {
	if _, err := h.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		h.log.Errorw("failed to send reply", "chat", chatID, "err", err)
	}
}
