package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"trackerbot/internal/builder"
	"trackerbot/internal/models"
	"trackerbot/internal/reminder"
	"trackerbot/internal/timeutil"
)

// handleRemind opens a one-time reminder builder for the chat.
func (h *Handlers) handleRemind(msg *tgbotapi.Message) {
	if err := h.deps.Builder.Start(msg.Chat.ID); errors.Is(err, builder.ErrSessionOpen) {
		h.reply(msg.Chat.ID, "You are already creating a reminder. Send /cancel to discard it.")
		return
	}
	h.reply(msg.Chat.ID, "What should I remind you about?")
}

func (h *Handlers) handleCancel(msg *tgbotapi.Message) {
	if h.deps.Builder.Cancel(msg.Chat.ID) {
		h.reply(msg.Chat.ID, "Reminder discarded.")
		return
	}
	h.reply(msg.Chat.ID, "Nothing to cancel.")
}

func (h *Handlers) handleReminderList(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID

	recurring, err := h.deps.Reminders.GetByUserID(ctx, chatID)
	if err != nil {
		return errors.Wrap(err, "failed to list reminders")
	}
	oneTime, err := h.deps.OneTime.ForUser(ctx, chatID)
	if err != nil {
		return errors.Wrap(err, "failed to list one-time reminders")
	}

	if len(recurring) == 0 && len(oneTime) == 0 {
		h.reply(chatID, "You have no reminders. Send /remind to create one.")
		return nil
	}

	var b strings.Builder
	if len(recurring) > 0 {
		b.WriteString("Recurring:\n")
		for _, r := range recurring {
			b.WriteString("• " + reminderLine(r, h.userLocation(ctx, chatID)) + "\n")
		}
	}
	if len(oneTime) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("One-time:\n")
		for _, r := range oneTime {
			line := "• " + r.Name
			if r.NextRun != nil {
				line += " — " + h.formatUserTime(ctx, chatID, *r.NextRun)
			}
			b.WriteString(line + "\n")
		}
	}
	h.reply(chatID, strings.TrimRight(b.String(), "\n"))
	return nil
}

func reminderLine(r *models.Reminder, loc *time.Location) string {
	name := r.Name
	if r.TypeName != "" {
		name = r.TypeName + " - " + name
	}
	switch {
	case r.IsPendingCompletion:
		return name + " (awaiting completion)"
	case r.NextRun != nil:
		return fmt.Sprintf("%s — next %s", name, timeutil.ToLocal(*r.NextRun, loc).Format("Mon 02 Jan 15:04"))
	default:
		return name + " (not scheduled)"
	}
}

// handleCallback reconciles a done/skip button press. Store failures are
// returned so the update is retried; a stale nonce is answered quietly since
// the reminder was already dealt with.
func (h *Handlers) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	cb, err := reminder.ParseCallback(query.Data)
	if err != nil {
		h.log.Warnw("ignoring malformed callback", "data", query.Data, "err", err)
		h.answerCallback(query.ID, "")
		return nil
	}

	completed, err := h.deps.Engine.MarkCompleted(ctx, cb.ReminderID, &cb.Nonce, cb.Action == reminder.ActionSkip, time.Time{})
	if err != nil {
		return errors.Wrapf(err, "failed to complete reminder %d", cb.ReminderID)
	}

	h.answerCallback(query.ID, "")
	if completed != nil && query.Message != nil {
		h.reply(query.Message.Chat.ID, fmt.Sprintf("%s marked as %s.", completed.Name, cb.Action.HumanReadable()))
	}
	return nil
}

func (h *Handlers) answerCallback(id, text string) {
	if _, err := h.api.Request(tgbotapi.NewCallback(id, text)); err != nil {
		h.log.Warnw("failed to answer callback", "err", err)
	}
}

// userLocation loads the sender's timezone, keeping UTC when the user is
// unknown or the zone fails to load.
func (h *Handlers) userLocation(ctx context.Context, chatID int64) *time.Location {
	user, err := h.deps.Users.Resolve(ctx, chatID)
	if err != nil {
		return time.UTC
	}
	loc, err := timeutil.Location(user.Timezone)
	if err != nil {
		h.log.Warnw("failed to load user timezone", "user", chatID, "err", err)
	}
	return loc
}

func (h *Handlers) formatUserTime(ctx context.Context, chatID int64, t time.Time) string {
	return timeutil.ToLocal(t, h.userLocation(ctx, chatID)).Format("Mon 02 Jan 2006 15:04")
}
