package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"trackerbot/internal/database"
	"trackerbot/internal/models"
)

type CountUpRepository struct {
	q database.Querier
}

func NewCountUpRepository(q database.Querier) *CountUpRepository {
	return &CountUpRepository{q: q}
}

func (r *CountUpRepository) List(ctx context.Context, userID int64) ([]*models.CountUp, error) {
	rows, err := r.q.Query(ctx,
		`SELECT id, user_id, name, counting_from FROM count_ups WHERE user_id = $1 ORDER BY name ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var countUps []*models.CountUp
	for rows.Next() {
		countUp := &models.CountUp{}
		if err := rows.Scan(&countUp.ID, &countUp.UserID, &countUp.Name, &countUp.CountingFrom); err != nil {
			return nil, err
		}
		countUps = append(countUps, countUp)
	}
	return countUps, rows.Err()
}

// Get scopes the lookup to the owner so one user cannot touch another's
// counters.
func (r *CountUpRepository) Get(ctx context.Context, id int, userID int64) (*models.CountUp, error) {
	row := r.q.QueryRow(ctx,
		`SELECT id, user_id, name, counting_from FROM count_ups WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	countUp := &models.CountUp{}
	err := row.Scan(&countUp.ID, &countUp.UserID, &countUp.Name, &countUp.CountingFrom)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return countUp, nil
}

func (r *CountUpRepository) Create(ctx context.Context, countUp *models.CountUp) error {
	return r.q.QueryRow(ctx,
		`INSERT INTO count_ups (user_id, name, counting_from) VALUES ($1, $2, $3) RETURNING id`,
		countUp.UserID, countUp.Name, countUp.CountingFrom,
	).Scan(&countUp.ID)
}

func (r *CountUpRepository) SetCountingFrom(ctx context.Context, id int, from *time.Time) error {
	_, err := r.q.Exec(ctx, `UPDATE count_ups SET counting_from = $1 WHERE id = $2`, from, id)
	return err
}

func (r *CountUpRepository) CloseOpenHistories(ctx context.Context, countUpID int, at time.Time) error {
	_, err := r.q.Exec(ctx,
		`UPDATE count_up_histories SET end_time = $1 WHERE count_up_id = $2 AND end_time IS NULL`,
		at, countUpID,
	)
	return err
}

func (r *CountUpRepository) AddHistory(ctx context.Context, history *models.CountUpHistory) error {
	return r.q.QueryRow(ctx,
		`INSERT INTO count_up_histories (count_up_id, start_time, end_time)
		 VALUES ($1, $2, $3) RETURNING id`,
		history.CountUpID, history.StartTime, history.EndTime,
	).Scan(&history.ID)
}

func (r *CountUpRepository) History(ctx context.Context, countUpID int) ([]*models.CountUpHistory, error) {
	rows, err := r.q.Query(ctx,
		`SELECT id, count_up_id, start_time, end_time
		 FROM count_up_histories WHERE count_up_id = $1 ORDER BY start_time DESC`,
		countUpID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var histories []*models.CountUpHistory
	for rows.Next() {
		history := &models.CountUpHistory{}
		if err := rows.Scan(&history.ID, &history.CountUpID, &history.StartTime, &history.EndTime); err != nil {
			return nil, err
		}
		histories = append(histories, history)
	}
	return histories, rows.Err()
}
