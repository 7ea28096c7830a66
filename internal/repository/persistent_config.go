package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"trackerbot/internal/database"
	"trackerbot/internal/models"
)

type PersistentConfigRepository struct {
	q database.Querier
}

func NewPersistentConfigRepository(q database.Querier) *PersistentConfigRepository {
	return &PersistentConfigRepository{q: q}
}

func (r *PersistentConfigRepository) GetByCode(ctx context.Context, code string) (string, error) {
	row := r.q.QueryRow(ctx,
		`SELECT value FROM persistent_config WHERE config_code = $1`,
		code,
	)
	var value string
	err := row.Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", models.ErrNotFound
	}
	return value, err
}

func (r *PersistentConfigRepository) UpdateByCode(ctx context.Context, code, value string) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO persistent_config (config_code, value) VALUES ($1, $2)
		 ON CONFLICT (config_code) DO UPDATE SET value = EXCLUDED.value`,
		code, value,
	)
	return err
}
