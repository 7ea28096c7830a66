// Package bot owns the Telegram surface: the outbound notification channel
// and the inbound update drain with its durable cursor.
package bot

import (
	"context"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"trackerbot/internal/models"
)

// cursorCode keys the last processed update id in persistent config.
const cursorCode = "TG_LAST_UPDATE_PROCESSED"

const drainBatchSize = 100

// CursorStore persists the inbound update cursor across restarts.
type CursorStore interface {
	GetByCode(ctx context.Context, code string) (string, error)
	UpdateByCode(ctx context.Context, code, value string) error
}

// UpdateSource fetches pending updates past an offset. Satisfied by
// *tgbotapi.BotAPI.
type UpdateSource interface {
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

// UpdateHandler processes one inbound update; a returned error means the
// update was not durably handled. Satisfied by *handlers.Handlers.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update) error
}

type Bot struct {
	api      UpdateSource
	handlers UpdateHandler
	cursor   CursorStore
	log      *zap.SugaredLogger
}

func New(api UpdateSource, h UpdateHandler, cursor CursorStore, log *zap.SugaredLogger) *Bot {
	return &Bot{api: api, handlers: h, cursor: cursor, log: log}
}

// Run drains pending updates on a fixed tick until ctx is cancelled.
func (b *Bot) Run(ctx context.Context, interval time.Duration) {
	b.log.Infow("update drain started", "interval", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.log.Info("update drain stopped")
			return
		case <-ticker.C:
			if err := b.drain(ctx); err != nil {
				b.log.Errorw("drain tick failed", "err", err)
			}
		}
	}
}

// drain fetches updates past the stored cursor and handles them in order. The
// cursor only advances after an update is handled, so a crash mid-batch means
// redelivery rather than loss. A failed update stops the batch; everything
// from it onward is retried next tick.
func (b *Bot) drain(ctx context.Context) error {
	lastProcessed, err := b.lastProcessed(ctx)
	if err != nil {
		return err
	}

	updates, err := b.api.GetUpdates(tgbotapi.UpdateConfig{
		Offset: lastProcessed + 1,
		Limit:  drainBatchSize,
	})
	if err != nil {
		return errors.Wrap(err, "failed to fetch updates")
	}

	for _, update := range updates {
		if err := b.handlers.HandleUpdate(ctx, update); err != nil {
			return errors.Wrapf(err, "failed to handle update %d", update.UpdateID)
		}
		if err := b.cursor.UpdateByCode(ctx, cursorCode, strconv.Itoa(update.UpdateID)); err != nil {
			return errors.Wrap(err, "failed to advance update cursor")
		}
	}
	return nil
}

func (b *Bot) lastProcessed(ctx context.Context) (int, error) {
	value, err := b.cursor.GetByCode(ctx, cursorCode)
	if errors.Is(err, models.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "failed to read update cursor")
	}
	id, err := strconv.Atoi(value)
	if err != nil {
		b.log.Warnw("discarding malformed update cursor", "value", value)
		return 0, nil
	}
	return id, nil
}
