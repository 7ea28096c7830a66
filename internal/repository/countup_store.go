package repository

import (
	"context"
	"time"

	"trackerbot/internal/countup"
	"trackerbot/internal/database"
	"trackerbot/internal/models"
)

// CountUpStore implements countup.Store.
type CountUpStore struct {
	db   *database.DB
	inTx bool

	CountUps *CountUpRepository
}

func NewCountUpStore(db *database.DB) *CountUpStore {
	return newCountUpStore(db, db.Pool, false)
}

func newCountUpStore(db *database.DB, q database.Querier, inTx bool) *CountUpStore {
	return &CountUpStore{db: db, inTx: inTx, CountUps: NewCountUpRepository(q)}
}

func (s *CountUpStore) ListCountUps(ctx context.Context, userID int64) ([]*models.CountUp, error) {
	return s.CountUps.List(ctx, userID)
}

func (s *CountUpStore) GetCountUp(ctx context.Context, id int, userID int64) (*models.CountUp, error) {
	return s.CountUps.Get(ctx, id, userID)
}

func (s *CountUpStore) CreateCountUp(ctx context.Context, c *models.CountUp) error {
	return s.CountUps.Create(ctx, c)
}

func (s *CountUpStore) SetCountingFrom(ctx context.Context, id int, from *time.Time) error {
	return s.CountUps.SetCountingFrom(ctx, id, from)
}

func (s *CountUpStore) CloseOpenHistories(ctx context.Context, countUpID int, at time.Time) error {
	return s.CountUps.CloseOpenHistories(ctx, countUpID, at)
}

func (s *CountUpStore) AddHistory(ctx context.Context, h *models.CountUpHistory) error {
	return s.CountUps.AddHistory(ctx, h)
}

func (s *CountUpStore) History(ctx context.Context, countUpID int) ([]*models.CountUpHistory, error) {
	return s.CountUps.History(ctx, countUpID)
}

func (s *CountUpStore) Atomically(ctx context.Context, fn func(countup.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return s.db.WithTx(ctx, func(q database.Querier) error {
		return fn(newCountUpStore(s.db, q, true))
	})
}
