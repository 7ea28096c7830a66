package reminder

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"trackerbot/internal/models"
	"trackerbot/internal/schedule"
)

// DispatchDue sends every recurring and one-time reminder due at scheduledAt
// and reschedules or deletes them. All persistence for the tick commits in one
// transaction; per-reminder send failures and missing owners are logged and
// skipped so one bad record cannot block the batch.
func (s *Service) DispatchDue(ctx context.Context, scheduledAt time.Time) error {
	return s.store.Atomically(ctx, func(store Store) error {
		if err := s.dispatchRecurring(ctx, store, scheduledAt); err != nil {
			return err
		}
		return s.dispatchOneTime(ctx, store, scheduledAt)
	})
}

func (s *Service) dispatchRecurring(ctx context.Context, store Store, scheduledAt time.Time) error {
	due, err := store.DueReminders(ctx, scheduledAt)
	if err != nil {
		return errors.Wrap(err, "failed to query due reminders")
	}

	for _, r := range due {
		user, err := s.users.Resolve(ctx, r.UserID)
		if err != nil {
			s.log.Errorw("owner not found for reminder", "reminder", r.ID, "user", r.UserID, "err", err)
			continue
		}

		var buttons []Button
		if r.Actionable {
			nonce := int32(0)
			if r.Nonce != nil {
				nonce = *r.Nonce
			}
			buttons = []Button{
				{Label: "Done", Data: Callback{Action: ActionDone, ReminderID: r.ID, Nonce: nonce}.Encode()},
				{Label: "Skip", Data: Callback{Action: ActionSkip, ReminderID: r.ID, Nonce: nonce}.Encode()},
			}
		}

		messageID, err := s.channel.Send(ctx, user.UserID, notificationText(r), buttons)
		if err != nil {
			// Leave the reminder untouched so the next tick retries it.
			s.log.Errorw("failed to send reminder", "reminder", r.ID, "user", user.UserID, "err", err)
			continue
		}

		if r.Actionable {
			if err := store.AddMessage(ctx, r.ID, messageID); err != nil {
				return errors.Wrapf(err, "failed to record message for reminder %d", r.ID)
			}
		}

		r.IsPendingCompletion = true
		if r.ReminderMinutes > 0 {
			next := scheduledAt.Add(time.Duration(r.ReminderMinutes) * time.Minute)
			r.NextRun = &next
		} else {
			lastRun := scheduledAt
			r.LastRun = &lastRun
			next, err := schedule.NextRun(r, s.userLocation(user), scheduledAt)
			if err != nil {
				s.log.Errorw("failed to calculate next run", "reminder", r.ID, "err", err)
			}
			r.NextRun = next
		}

		if err := store.UpdateReminderSchedule(ctx, r); err != nil {
			return errors.Wrapf(err, "failed to reschedule reminder %d", r.ID)
		}
		s.log.Infow("sent reminder", "reminder", r.ID, "user", user.UserID, "next_run", r.NextRun)
	}

	return nil
}

func (s *Service) dispatchOneTime(ctx context.Context, store Store, scheduledAt time.Time) error {
	due, err := store.DueOneTimeReminders(ctx, scheduledAt)
	if err != nil {
		return errors.Wrap(err, "failed to query due one-time reminders")
	}

	for _, r := range due {
		user, err := s.users.Resolve(ctx, r.UserID)
		if err != nil {
			s.log.Errorw("owner not found for one-time reminder", "reminder", r.ID, "user", r.UserID, "err", err)
			continue
		}

		if _, err := s.channel.Send(ctx, user.UserID, "Reminder: "+r.Name, nil); err != nil {
			s.log.Errorw("failed to send one-time reminder", "reminder", r.ID, "user", user.UserID, "err", err)
			continue
		}

		if err := store.DeleteOneTimeReminder(ctx, r.ID); err != nil {
			return errors.Wrapf(err, "failed to delete one-time reminder %d", r.ID)
		}
		s.log.Infow("sent one-time reminder", "reminder", r.ID, "user", user.UserID)
	}

	return nil
}

func notificationText(r *models.Reminder) string {
	if r.TypeName != "" {
		return "Reminder: " + r.TypeName + " - " + r.Name
	}
	return "Reminder: " + r.Name
}
