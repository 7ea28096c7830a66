package reminder

import (
	"context"
	"math/rand"
	"time"

	"github.com/pkg/errors"

	"trackerbot/internal/models"
	"trackerbot/internal/schedule"
)

// MarkCompleted reconciles a done/skip action against a reminder. A nil nonce
// skips the token check; otherwise the provided value must equal the stored
// nonce, with 0 matching a never-rolled (null) one. A mismatch is the expected
// outcome of tapping a stale notification and returns nil without mutation.
//
// On success the updated reminder is returned: its last run is set to
// completionTime (now when zero), a completion row is appended unless the
// action was a skip, the next run is recomputed when it was not already fixed
// at send time, a fresh nonce is rolled, and every outstanding notification
// message is deleted best-effort.
func (s *Service) MarkCompleted(ctx context.Context, reminderID int, nonce *int32, isSkip bool, completionTime time.Time) (*models.Reminder, error) {
	var completed *models.Reminder

	err := s.store.Atomically(ctx, func(store Store) error {
		r, err := store.GetReminder(ctx, reminderID)
		if errors.Is(err, models.ErrNotFound) {
			s.log.Errorw("unable to find reminder", "reminder", reminderID)
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "failed to load reminder %d", reminderID)
		}

		if nonce != nil && !nonceMatches(r.Nonce, *nonce) {
			s.log.Warnw("provided nonce does not match expected",
				"reminder", reminderID, "provided", *nonce, "expected", r.Nonce)
			return nil
		}

		if completionTime.IsZero() {
			completionTime = s.clk.Now().UTC()
		}
		r.LastRun = &completionTime

		if !isSkip {
			if err := store.AddCompletion(ctx, reminderID, completionTime); err != nil {
				return errors.Wrap(err, "failed to record completion")
			}
		}

		// When the minute interval is in effect the next run was already set
		// when the reminder was sent; otherwise it comes from the cron rule.
		if r.ReminderMinutes <= 0 {
			loc := time.UTC
			user, err := s.users.Resolve(ctx, r.UserID)
			if err != nil {
				s.log.Warnw("owner not found, calculating next run in UTC", "reminder", r.ID, "err", err)
			} else {
				loc = s.userLocation(user)
			}
			next, err := schedule.NextRun(r, loc, completionTime)
			if err != nil {
				s.log.Errorw("failed to calculate next run", "reminder", r.ID, "err", err)
			}
			r.NextRun = next
		}

		freshNonce := rand.Int31()
		r.Nonce = &freshNonce
		r.IsPendingCompletion = false

		if err := store.UpdateReminderSchedule(ctx, r); err != nil {
			return errors.Wrapf(err, "failed to update reminder %d", reminderID)
		}

		completed = r
		s.log.Infow("marked completion for reminder", "reminder", reminderID, "skip", isSkip)

		// Best-effort: a cleanup failure never reverts the completion.
		s.cleanupMessages(ctx, store, r.ID, r.UserID)
		return nil
	})

	return completed, err
}

// nonceMatches reports whether a provided nonce reconciles against the stored
// one. 0 matches an unset stored nonce (reminders created before nonces existed).
func nonceMatches(stored *int32, provided int32) bool {
	if stored == nil {
		return provided == 0
	}
	return *stored == provided
}

// cleanupMessages deletes all outstanding notification messages for a reminder
// from the channel and the store, paginated by the channel's batch limit.
func (s *Service) cleanupMessages(ctx context.Context, store Store, reminderID int, userID int64) {
	messages, err := store.MessagesFor(ctx, reminderID)
	if err != nil {
		s.log.Warnw("failed to list reminder messages", "reminder", reminderID, "err", err)
		return
	}
	if len(messages) == 0 {
		return
	}

	for start := 0; start < len(messages); start += deleteBatchSize {
		end := start + deleteBatchSize
		if end > len(messages) {
			end = len(messages)
		}
		batch := messages[start:end]

		channelIDs := make([]int, len(batch))
		rowIDs := make([]int, len(batch))
		for i, m := range batch {
			channelIDs[i] = m.MessageID
			rowIDs[i] = m.ID
		}

		if err := s.channel.DeleteMessages(ctx, userID, channelIDs); err != nil {
			s.log.Warnw("failed to delete message(s)", "reminder", reminderID, "err", err)
		}
		if err := store.DeleteMessages(ctx, rowIDs); err != nil {
			s.log.Warnw("failed to remove message record(s)", "reminder", reminderID, "err", err)
		}
	}
}
