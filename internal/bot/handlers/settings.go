package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"trackerbot/internal/models"
)

const helpText = `I track your reminders and counters.

/remind - create a one-time reminder
/cancel - discard the reminder being created
/reminders - list your reminders
/countups - list your counters
/countup_new <name> - create a counter
/countup_start <id> - start (or reset) a counter
/countup_stop <id> - stop a counter
/countup_history <id> - show a counter's runs
/timezone <zone> - set your timezone, e.g. /timezone Europe/Oslo`

func (h *Handlers) handleStart(msg *tgbotapi.Message) {
	h.reply(msg.Chat.ID, "Hello! I will deliver your reminders here.\n\n"+helpText)
}

func (h *Handlers) handleHelp(msg *tgbotapi.Message) {
	h.reply(msg.Chat.ID, helpText)
}

// handleTimezone shows the current zone without an argument and sets it with
// one. The zone must be a loadable IANA identifier.
func (h *Handlers) handleTimezone(ctx context.Context, msg *tgbotapi.Message) error {
	arg := strings.TrimSpace(msg.CommandArguments())
	if arg == "" {
		user, err := h.deps.Users.Resolve(ctx, msg.Chat.ID)
		if err != nil {
			return errors.Wrap(err, "failed to resolve user")
		}
		h.reply(msg.Chat.ID, fmt.Sprintf("Your timezone is %s. Send /timezone <zone> to change it.", user.Timezone))
		return nil
	}

	if _, err := time.LoadLocation(arg); err != nil {
		h.reply(msg.Chat.ID, fmt.Sprintf("%q is not a timezone I know. Use an IANA name like Europe/Oslo.", arg))
		return nil
	}

	err := h.deps.Users.SetTimezone(ctx, msg.Chat.ID, arg)
	if errors.Is(err, models.ErrNotFound) {
		h.reply(msg.Chat.ID, "I don't know you yet. Send /start first.")
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "failed to set timezone")
	}
	h.reply(msg.Chat.ID, "Timezone set to "+arg+".")
	return nil
}
