// Package repository provides the PostgreSQL persistence layer. Individual
// repositories wrap one table each; the composite stores below assemble them
// behind the interfaces the services consume, with Atomically rebinding every
// repository onto a single transaction.
package repository

import (
	"context"
	"time"

	"trackerbot/internal/database"
	"trackerbot/internal/models"
	"trackerbot/internal/reminder"
)

// Store implements reminder.Store and builder.Store over a shared pool.
type Store struct {
	db   *database.DB
	inTx bool

	Reminders        *ReminderRepository
	OneTimeReminders *OneTimeReminderRepository
	Completions      *CompletionRepository
	Messages         *MessageRepository
}

func NewStore(db *database.DB) *Store {
	return newStore(db, db.Pool, false)
}

func newStore(db *database.DB, q database.Querier, inTx bool) *Store {
	return &Store{
		db:               db,
		inTx:             inTx,
		Reminders:        NewReminderRepository(q),
		OneTimeReminders: NewOneTimeReminderRepository(q),
		Completions:      NewCompletionRepository(q),
		Messages:         NewMessageRepository(q),
	}
}

func (s *Store) GetReminder(ctx context.Context, id int) (*models.Reminder, error) {
	return s.Reminders.GetByID(ctx, id)
}

func (s *Store) DueReminders(ctx context.Context, at time.Time) ([]*models.Reminder, error) {
	return s.Reminders.DueBefore(ctx, at)
}

func (s *Store) UpdateReminderSchedule(ctx context.Context, r *models.Reminder) error {
	return s.Reminders.UpdateSchedule(ctx, r)
}

func (s *Store) AddCompletion(ctx context.Context, reminderID int, at time.Time) error {
	return s.Completions.Add(ctx, &models.ReminderCompletion{ReminderID: reminderID, CompletionTime: at})
}

func (s *Store) AddMessage(ctx context.Context, reminderID, messageID int) error {
	return s.Messages.Add(ctx, reminderID, messageID)
}

func (s *Store) MessagesFor(ctx context.Context, reminderID int) ([]*models.ReminderMessage, error) {
	return s.Messages.ForReminder(ctx, reminderID)
}

func (s *Store) DeleteMessages(ctx context.Context, ids []int) error {
	return s.Messages.Delete(ctx, ids)
}

func (s *Store) DueOneTimeReminders(ctx context.Context, at time.Time) ([]*models.OneTimeReminder, error) {
	return s.OneTimeReminders.DueBefore(ctx, at)
}

func (s *Store) DeleteOneTimeReminder(ctx context.Context, id int) error {
	return s.OneTimeReminders.Delete(ctx, id)
}

func (s *Store) CreateOneTimeReminder(ctx context.Context, r *models.OneTimeReminder) error {
	return s.OneTimeReminders.Create(ctx, r)
}

// Atomically runs fn against a transaction-scoped Store. Nested calls reuse
// the enclosing transaction.
func (s *Store) Atomically(ctx context.Context, fn func(reminder.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return s.db.WithTx(ctx, func(q database.Querier) error {
		return fn(newStore(s.db, q, true))
	})
}
