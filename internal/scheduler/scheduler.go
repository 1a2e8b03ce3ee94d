package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tanbank/tanbank/internal/infrastructure/metrics"
	"github.com/tanbank/tanbank/internal/usecase"
)

// Scheduler periodically runs due standing orders and expires stale TAN
// challenges. A single instance should run per deployment; concurrent
// instances are safe but waste work, since every run re-checks dueness
// under a row lock.
type Scheduler struct {
	orders     *usecase.StandingOrderUseCase
	tanManager *usecase.TANManager
	interval   time.Duration
	logger     zerolog.Logger
	metrics    *metrics.Metrics
}

// New creates a new Scheduler.
func New(orders *usecase.StandingOrderUseCase, tanManager *usecase.TANManager, interval time.Duration, logger zerolog.Logger, m *metrics.Metrics) *Scheduler {
	return &Scheduler{
		orders:     orders,
		tanManager: tanManager,
		interval:   interval,
		logger:     logger,
		metrics:    m,
	}
}

// Run ticks until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info().Dur("interval", s.interval).Msg("scheduler started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx, time.Now().UTC())
		}
	}
}

// Tick performs one scheduler pass: sweep expired TAN challenges, then run
// every due standing order. A failing order does not stop the pass.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	start := time.Now()

	swept, err := s.tanManager.SweepExpired(ctx, now)
	if err != nil {
		s.logger.Error().Err(err).Msg("tan sweep failed")
	} else if swept > 0 {
		s.logger.Info().Int("count", swept).Msg("expired stale tan challenges")
		if s.metrics != nil {
			s.metrics.TANsSwept.Add(float64(swept))
		}
	}

	due, err := s.orders.ListDue(ctx, now)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list due standing orders")
		return
	}

	for _, order := range due {
		transfer, err := s.orders.RunDue(ctx, order.ID, now)
		if err != nil {
			s.logger.Error().Err(err).Str("order_id", order.ID).Msg("standing order run failed")
			continue
		}
		if transfer != nil {
			s.logger.Info().
				Str("order_id", order.ID).
				Str("transfer_id", transfer.ID).
				Msg("standing order executed")
		}
	}

	if s.metrics != nil {
		s.metrics.SchedulerRuns.Inc()
		s.metrics.SchedulerDuration.Observe(time.Since(start).Seconds())
	}
}
