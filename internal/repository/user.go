package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"trackerbot/internal/database"
	"trackerbot/internal/models"
)

type UserRepository struct {
	q database.Querier
}

func NewUserRepository(q database.Querier) *UserRepository {
	return &UserRepository{q: q}
}

// Resolve looks up a user by chat id, returning models.ErrNotFound for
// unregistered users.
func (r *UserRepository) Resolve(ctx context.Context, userID int64) (*models.User, error) {
	row := r.q.QueryRow(ctx,
		`SELECT user_id, user_name, timezone, created_at FROM users WHERE user_id = $1`,
		userID,
	)
	user := &models.User{}
	err := row.Scan(&user.UserID, &user.UserName, &user.Timezone, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Register inserts the user if absent, refreshing the display name otherwise.
func (r *UserRepository) Register(ctx context.Context, user *models.User) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO users (user_id, user_name, timezone, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id) DO UPDATE SET user_name = EXCLUDED.user_name`,
		user.UserID, user.UserName, user.Timezone, user.CreatedAt,
	)
	return err
}

func (r *UserRepository) SetTimezone(ctx context.Context, userID int64, timezone string) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE users SET timezone = $1 WHERE user_id = $2`,
		timezone, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
