package repository

import (
	"context"
	"time"

	"trackerbot/internal/database"
	"trackerbot/internal/models"
)

type OneTimeReminderRepository struct {
	q database.Querier
}

func NewOneTimeReminderRepository(q database.Querier) *OneTimeReminderRepository {
	return &OneTimeReminderRepository{q: q}
}

func (r *OneTimeReminderRepository) Create(ctx context.Context, reminder *models.OneTimeReminder) error {
	return r.q.QueryRow(ctx,
		`INSERT INTO one_time_reminders (user_id, name, next_run, created_at)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		reminder.UserID, reminder.Name, reminder.NextRun, reminder.CreatedAt,
	).Scan(&reminder.ID)
}

func (r *OneTimeReminderRepository) DueBefore(ctx context.Context, at time.Time) ([]*models.OneTimeReminder, error) {
	rows, err := r.q.Query(ctx,
		`SELECT id, user_id, name, next_run, created_at
		 FROM one_time_reminders WHERE next_run <= $1 ORDER BY next_run ASC`,
		at,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reminders []*models.OneTimeReminder
	for rows.Next() {
		reminder := &models.OneTimeReminder{}
		if err := rows.Scan(&reminder.ID, &reminder.UserID, &reminder.Name, &reminder.NextRun, &reminder.CreatedAt); err != nil {
			return nil, err
		}
		reminders = append(reminders, reminder)
	}
	return reminders, rows.Err()
}

func (r *OneTimeReminderRepository) ForUser(ctx context.Context, userID int64) ([]*models.OneTimeReminder, error) {
	rows, err := r.q.Query(ctx,
		`SELECT id, user_id, name, next_run, created_at
		 FROM one_time_reminders WHERE user_id = $1 ORDER BY next_run ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reminders []*models.OneTimeReminder
	for rows.Next() {
		reminder := &models.OneTimeReminder{}
		if err := rows.Scan(&reminder.ID, &reminder.UserID, &reminder.Name, &reminder.NextRun, &reminder.CreatedAt); err != nil {
			return nil, err
		}
		reminders = append(reminders, reminder)
	}
	return reminders, rows.Err()
}

func (r *OneTimeReminderRepository) Delete(ctx context.Context, id int) error {
	_, err := r.q.Exec(ctx, `DELETE FROM one_time_reminders WHERE id = $1`, id)
	return err
}
