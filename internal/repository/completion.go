package repository

import (
	"context"

	"trackerbot/internal/database"
	"trackerbot/internal/models"
)

type CompletionRepository struct {
	q database.Querier
}

func NewCompletionRepository(q database.Querier) *CompletionRepository {
	return &CompletionRepository{q: q}
}

func (r *CompletionRepository) Add(ctx context.Context, completion *models.ReminderCompletion) error {
	return r.q.QueryRow(ctx,
		`INSERT INTO reminder_completions (reminder_id, completion_time)
		 VALUES ($1, $2) RETURNING id`,
		completion.ReminderID, completion.CompletionTime,
	).Scan(&completion.ID)
}

