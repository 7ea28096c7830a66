package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"trackerbot/internal/countup"
	"trackerbot/internal/models"
)

func (h *Handlers) handleCountUpList(ctx context.Context, msg *tgbotapi.Message) error {
	countUps, err := h.deps.CountUps.List(ctx, msg.Chat.ID)
	if err != nil {
		return errors.Wrap(err, "failed to list count-ups")
	}
	if len(countUps) == 0 {
		h.reply(msg.Chat.ID, "You have no counters. Send /countup_new <name> to create one.")
		return nil
	}

	now := h.clk.Now().UTC()
	var b strings.Builder
	for _, c := range countUps {
		if c.CountingFrom == nil {
			fmt.Fprintf(&b, "• [%d] %s — stopped\n", c.ID, c.Name)
			continue
		}
		fmt.Fprintf(&b, "• [%d] %s — %s\n", c.ID, c.Name, formatElapsed(countup.Elapsed(c, now)))
	}
	h.reply(msg.Chat.ID, strings.TrimRight(b.String(), "\n"))
	return nil
}

func (h *Handlers) handleCountUpNew(ctx context.Context, msg *tgbotapi.Message) error {
	name := strings.TrimSpace(msg.CommandArguments())
	if name == "" {
		h.reply(msg.Chat.ID, "Usage: /countup_new <name>")
		return nil
	}
	c, err := h.deps.CountUps.Create(ctx, msg.Chat.ID, name)
	if err != nil {
		return err
	}
	h.reply(msg.Chat.ID, fmt.Sprintf("Counter %q created with id %d. Send /countup_start %d to begin.", c.Name, c.ID, c.ID))
	return nil
}

func (h *Handlers) handleCountUpStart(ctx context.Context, msg *tgbotapi.Message) error {
	id, ok := h.countUpID(msg, "/countup_start")
	if !ok {
		return nil
	}
	err := h.deps.CountUps.Start(ctx, id, msg.Chat.ID, nil, nil)
	if errors.Is(err, models.ErrNotFound) {
		h.reply(msg.Chat.ID, "No such counter.")
		return nil
	}
	if err != nil {
		return err
	}
	h.reply(msg.Chat.ID, "Counter started.")
	return nil
}

func (h *Handlers) handleCountUpStop(ctx context.Context, msg *tgbotapi.Message) error {
	id, ok := h.countUpID(msg, "/countup_stop")
	if !ok {
		return nil
	}
	err := h.deps.CountUps.Stop(ctx, id, msg.Chat.ID, nil, nil)
	if errors.Is(err, models.ErrNotFound) {
		h.reply(msg.Chat.ID, "No such counter.")
		return nil
	}
	if err != nil {
		return err
	}
	h.reply(msg.Chat.ID, "Counter stopped.")
	return nil
}

func (h *Handlers) handleCountUpHistory(ctx context.Context, msg *tgbotapi.Message) error {
	id, ok := h.countUpID(msg, "/countup_history")
	if !ok {
		return nil
	}
	histories, err := h.deps.CountUps.History(ctx, id, msg.Chat.ID)
	if errors.Is(err, models.ErrNotFound) {
		h.reply(msg.Chat.ID, "No such counter.")
		return nil
	}
	if err != nil {
		return err
	}
	if len(histories) == 0 {
		h.reply(msg.Chat.ID, "This counter has never been started.")
		return nil
	}

	now := h.clk.Now().UTC()
	var b strings.Builder
	for _, run := range histories {
		end := now
		state := "running"
		if run.EndTime != nil {
			end = *run.EndTime
			state = "ended " + h.formatUserTime(ctx, msg.Chat.ID, end)
		}
		fmt.Fprintf(&b, "• %s, %s (%s)\n",
			h.formatUserTime(ctx, msg.Chat.ID, run.StartTime), state, formatElapsed(end.Sub(run.StartTime)))
	}
	h.reply(msg.Chat.ID, strings.TrimRight(b.String(), "\n"))
	return nil
}

func (h *Handlers) countUpID(msg *tgbotapi.Message, usage string) (int, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(msg.CommandArguments()))
	if err != nil {
		h.reply(msg.Chat.ID, "Usage: "+usage+" <id>")
		return 0, false
	}
	return id, true
}

func formatElapsed(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
}
