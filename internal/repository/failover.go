package repository

import (
	"context"
	"sync/atomic"
	"time"

	"tableside/internal/domain"
	"tableside/internal/models"

	"github.com/rs/zerolog"
)

// recoveryProbeInterval is how long the failover store waits before trying
// the primary backend again.
const recoveryProbeInterval = time.Minute

// FailoverOrderStore serves from the primary backend until it errors, then
// switches to the fallback and probes the primary periodically. Writes made
// while degraded land only in the fallback; last write wins either way.
type FailoverOrderStore struct {
	primary   domain.OrderStore
	fallback  domain.OrderStore
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
}

func NewFailoverOrderStore(primary, fallback domain.OrderStore, logger *zerolog.Logger) *FailoverOrderStore {
	return &FailoverOrderStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (s *FailoverOrderStore) markDown(err error) {
	s.logger.Error().Err(err).Msg("primary order store failed, falling back")
	s.isDown.Store(true)
	s.lastCheck.Store(time.Now().UnixNano())
}

func (s *FailoverOrderStore) shouldProbe() bool {
	last := time.Unix(0, s.lastCheck.Load())
	return time.Since(last) > recoveryProbeInterval
}

func (s *FailoverOrderStore) LoadAll(ctx context.Context) ([]models.Order, error) {
	if !s.isDown.Load() {
		orders, err := s.primary.LoadAll(ctx)
		if err == nil {
			return orders, nil
		}
		s.markDown(err)
	} else if s.shouldProbe() {
		orders, err := s.primary.LoadAll(ctx)
		if err == nil {
			s.logger.Info().Msg("primary order store recovered")
			s.isDown.Store(false)
			return orders, nil
		}
		s.lastCheck.Store(time.Now().UnixNano())
	}

	return s.fallback.LoadAll(ctx)
}

func (s *FailoverOrderStore) SaveAll(ctx context.Context, orders []models.Order) error {
	if !s.isDown.Load() {
		err := s.primary.SaveAll(ctx, orders)
		if err == nil {
			return nil
		}
		s.markDown(err)
	}

	return s.fallback.SaveAll(ctx, orders)
}
