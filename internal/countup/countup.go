// Package countup tracks streak counters ("N days since X") with a history of
// past runs. Starting a counter resets it: any running history row is closed
// and a new one opened, so at most one row per counter is ever open.
package countup

import (
	"context"
	"time"

	"github.com/jmhodges/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"trackerbot/internal/models"
	"trackerbot/internal/timeutil"
)

type Store interface {
	ListCountUps(ctx context.Context, userID int64) ([]*models.CountUp, error)
	GetCountUp(ctx context.Context, id int, userID int64) (*models.CountUp, error)
	CreateCountUp(ctx context.Context, c *models.CountUp) error
	SetCountingFrom(ctx context.Context, id int, from *time.Time) error
	CloseOpenHistories(ctx context.Context, countUpID int, at time.Time) error
	AddHistory(ctx context.Context, h *models.CountUpHistory) error
	History(ctx context.Context, countUpID int) ([]*models.CountUpHistory, error)

	Atomically(ctx context.Context, fn func(Store) error) error
}

type Service struct {
	store Store
	clk   clock.Clock
	log   *zap.SugaredLogger
}

func NewService(store Store, clk clock.Clock, log *zap.SugaredLogger) *Service {
	return &Service{store: store, clk: clk, log: log}
}

func (s *Service) List(ctx context.Context, userID int64) ([]*models.CountUp, error) {
	return s.store.ListCountUps(ctx, userID)
}

func (s *Service) Create(ctx context.Context, userID int64, name string) (*models.CountUp, error) {
	c := &models.CountUp{UserID: userID, Name: name}
	if err := s.store.CreateCountUp(ctx, c); err != nil {
		return nil, errors.Wrap(err, "failed to create count-up")
	}
	return c, nil
}

func (s *Service) History(ctx context.Context, id int, userID int64) ([]*models.CountUpHistory, error) {
	if _, err := s.store.GetCountUp(ctx, id, userID); err != nil {
		return nil, err
	}
	return s.store.History(ctx, id)
}

// Start begins (or resets) a counter at the given local time, or now when
// startLocal is nil. Any running history row is closed at the same instant.
func (s *Service) Start(ctx context.Context, id int, userID int64, startLocal *time.Time, loc *time.Location) error {
	at := s.resolveTime(startLocal, loc)
	return s.store.Atomically(ctx, func(store Store) error {
		c, err := store.GetCountUp(ctx, id, userID)
		if err != nil {
			return err
		}
		if err := store.CloseOpenHistories(ctx, c.ID, at); err != nil {
			return errors.Wrap(err, "failed to close running histories")
		}
		if err := store.SetCountingFrom(ctx, c.ID, &at); err != nil {
			return errors.Wrap(err, "failed to update count-up")
		}
		return errors.Wrap(store.AddHistory(ctx, &models.CountUpHistory{
			CountUpID: c.ID,
			StartTime: at,
		}), "failed to open history")
	})
}

// Stop ends a running counter, closing its open history row.
func (s *Service) Stop(ctx context.Context, id int, userID int64, endLocal *time.Time, loc *time.Location) error {
	at := s.resolveTime(endLocal, loc)
	return s.store.Atomically(ctx, func(store Store) error {
		c, err := store.GetCountUp(ctx, id, userID)
		if err != nil {
			return err
		}
		if err := store.CloseOpenHistories(ctx, c.ID, at); err != nil {
			return errors.Wrap(err, "failed to close running histories")
		}
		return errors.Wrap(store.SetCountingFrom(ctx, c.ID, nil), "failed to update count-up")
	})
}

func (s *Service) resolveTime(local *time.Time, loc *time.Location) time.Time {
	if local == nil || loc == nil {
		return s.clk.Now().UTC()
	}
	return timeutil.ToUTC(*local, loc)
}

// Elapsed renders how long a counter has been running, in whole days and hours.
func Elapsed(c *models.CountUp, now time.Time) time.Duration {
	if c.CountingFrom == nil {
		return 0
	}
	d := now.Sub(*c.CountingFrom)
	if d < 0 {
		return 0
	}
	return d
}
