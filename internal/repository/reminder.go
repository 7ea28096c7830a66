package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"trackerbot/internal/database"
	"trackerbot/internal/models"
)

const reminderColumns = `r.id, r.user_id, r.name, r.reminder_type_id, r.cron_local, r.reminder_minutes,
	 r.start_date, r.end_date, r.every_n_triggers, r.last_run, r.next_run,
	 r.actionable, r.is_pending_completion, r.nonce, r.created_at, COALESCE(t.name, '')`

type ReminderRepository struct {
	q database.Querier
}

func NewReminderRepository(q database.Querier) *ReminderRepository {
	return &ReminderRepository{q: q}
}

func (r *ReminderRepository) GetByID(ctx context.Context, id int) (*models.Reminder, error) {
	row := r.q.QueryRow(ctx,
		`SELECT `+reminderColumns+`
		 FROM reminders r LEFT JOIN reminder_types t ON t.id = r.reminder_type_id
		 WHERE r.id = $1`,
		id,
	)
	reminder, err := scanReminder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	return reminder, err
}

func (r *ReminderRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.Reminder, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+reminderColumns+`
		 FROM reminders r LEFT JOIN reminder_types t ON t.id = r.reminder_type_id
		 WHERE r.user_id = $1 ORDER BY r.next_run ASC NULLS LAST`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReminders(rows)
}

// DueBefore returns reminders whose next run is at or before at, with the
// active window containing at. The reminder type name is joined in for
// notification text.
func (r *ReminderRepository) DueBefore(ctx context.Context, at time.Time) ([]*models.Reminder, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+reminderColumns+`
		 FROM reminders r LEFT JOIN reminder_types t ON t.id = r.reminder_type_id
		 WHERE r.next_run IS NOT NULL AND r.next_run <= $1
		   AND (r.start_date IS NULL OR r.start_date <= $1)
		   AND (r.end_date IS NULL OR r.end_date >= $1)
		 ORDER BY r.next_run ASC`,
		at,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReminders(rows)
}

// UpdateSchedule persists the fields mutated by the dispatcher and the
// completion reconciler.
func (r *ReminderRepository) UpdateSchedule(ctx context.Context, reminder *models.Reminder) error {
	_, err := r.q.Exec(ctx,
		`UPDATE reminders
		 SET last_run = $1, next_run = $2, is_pending_completion = $3, nonce = $4
		 WHERE id = $5`,
		reminder.LastRun, reminder.NextRun, reminder.IsPendingCompletion, reminder.Nonce, reminder.ID,
	)
	return err
}

func scanReminder(row pgx.Row) (*models.Reminder, error) {
	reminder := &models.Reminder{}
	err := row.Scan(&reminder.ID, &reminder.UserID, &reminder.Name, &reminder.ReminderTypeID,
		&reminder.CronLocal, &reminder.ReminderMinutes, &reminder.StartDate, &reminder.EndDate,
		&reminder.EveryNTriggers, &reminder.LastRun, &reminder.NextRun, &reminder.Actionable,
		&reminder.IsPendingCompletion, &reminder.Nonce, &reminder.CreatedAt, &reminder.TypeName)
	if err != nil {
		return nil, err
	}
	return reminder, nil
}

func scanReminders(rows pgx.Rows) ([]*models.Reminder, error) {
	var reminders []*models.Reminder
	for rows.Next() {
		reminder, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, reminder)
	}
	return reminders, rows.Err()
}
