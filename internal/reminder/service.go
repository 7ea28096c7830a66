// Package reminder implements the scheduling and completion engine: dispatching
// due reminders, reconciling done/skip actions against the single-use nonce,
// and the callback payload format shared with the notification channel.
package reminder

import (
	"context"
	"time"

	"github.com/jmhodges/clock"
	"go.uber.org/zap"

	"trackerbot/internal/models"
	"trackerbot/internal/timeutil"
)

// deleteBatchSize is the channel's bulk-delete limit; message cleanup is
// paginated in chunks of this size.
const deleteBatchSize = 100

// Button is an inline affordance attached to a notification.
type Button struct {
	Label string
	Data  string
}

// Channel is the outbound notification transport.
type Channel interface {
	Send(ctx context.Context, chatID int64, text string, buttons []Button) (messageID int, err error)
	DeleteMessages(ctx context.Context, chatID int64, messageIDs []int) error
}

// Directory resolves a reminder owner to their timezone and channel address.
// Missing owners are reported as models.ErrNotFound.
type Directory interface {
	Resolve(ctx context.Context, userID int64) (*models.User, error)
}

// Store is the persistence surface of the engine. All mutations performed
// inside one Atomically call commit together.
type Store interface {
	GetReminder(ctx context.Context, id int) (*models.Reminder, error)
	DueReminders(ctx context.Context, at time.Time) ([]*models.Reminder, error)
	UpdateReminderSchedule(ctx context.Context, r *models.Reminder) error
	AddCompletion(ctx context.Context, reminderID int, at time.Time) error
	AddMessage(ctx context.Context, reminderID, messageID int) error
	MessagesFor(ctx context.Context, reminderID int) ([]*models.ReminderMessage, error)
	DeleteMessages(ctx context.Context, ids []int) error
	DueOneTimeReminders(ctx context.Context, at time.Time) ([]*models.OneTimeReminder, error)
	DeleteOneTimeReminder(ctx context.Context, id int) error

	Atomically(ctx context.Context, fn func(Store) error) error
}

type Service struct {
	store   Store
	users   Directory
	channel Channel
	clk     clock.Clock
	log     *zap.SugaredLogger
}

func NewService(store Store, users Directory, channel Channel, clk clock.Clock, log *zap.SugaredLogger) *Service {
	return &Service{
		store:   store,
		users:   users,
		channel: channel,
		clk:     clk,
		log:     log,
	}
}

// Run drives the dispatcher on a fixed tick until ctx is cancelled.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	s.log.Infow("dispatcher started", "interval", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("dispatcher stopped")
			return
		case <-ticker.C:
			if err := s.DispatchDue(ctx, s.clk.Now().UTC()); err != nil {
				s.log.Errorw("dispatch tick failed", "err", err)
			}
		}
	}
}

// userLocation resolves the owner's timezone, keeping UTC on failure.
func (s *Service) userLocation(user *models.User) *time.Location {
	loc, err := timeutil.Location(user.Timezone)
	if err != nil {
		s.log.Warnw("failed to load user timezone", "user", user.UserID, "err", err)
	}
	return loc
}
