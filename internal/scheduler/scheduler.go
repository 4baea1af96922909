package scheduler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"evlogger/internal/poller"
	"evlogger/internal/vehicle"
)

// Runner is the refresh cycle the scheduler triggers.
type Runner interface {
	Run(ctx context.Context) error
	AdvisoryInterval() time.Duration
}

// Scheduler triggers refresh cycles on a cadence. It re-arms itself with
// the runner's advisory interval, clamped to the base cached-refresh
// cadence, and backs off after rate limiting.
type Scheduler struct {
	runner    Runner
	logger    *zap.Logger
	base      time.Duration
	cooldown  time.Duration
	startHour int
	endHour   int
	now       func() time.Time
}

// New builds the scheduler. Ticks outside [startHour, endHour) local time
// are skipped.
func New(runner Runner, base, cooldown time.Duration, startHour, endHour int, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		runner:    runner,
		logger:    logger,
		base:      base,
		cooldown:  cooldown,
		startHour: startHour,
		endHour:   endHour,
		now:       time.Now,
	}
}

// Start runs the trigger loop until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	timer := time.NewTimer(s.base)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		delay := s.base
		if !s.withinActiveHours(s.now()) {
			s.logger.Debug("outside active hours, skipping refresh")
			timer.Reset(delay)
			continue
		}

		err := s.runner.Run(ctx)
		switch {
		case err == nil:
			delay = s.nextDelay()
		case errors.Is(err, context.Canceled):
			return
		case vehicle.KindOf(err) == vehicle.KindRateLimited:
			s.logger.Warn("rate limited, cooling down", zap.Duration("cooldown", s.cooldown))
			delay = s.cooldown
		case errors.Is(err, poller.ErrClockAnomaly):
			s.logger.Error("refresh cycle hit clock anomaly", zap.Error(err))
		default:
			s.logger.Warn("refresh cycle aborted", zap.Error(err))
		}

		s.logger.Info("next scheduled refresh", zap.Duration("in", delay))
		timer.Reset(delay)
	}
}

// nextDelay clamps the advisory interval to the base cadence so cached
// reads keep happening even when the car is off for hours.
func (s *Scheduler) nextDelay() time.Duration {
	advisory := s.runner.AdvisoryInterval()
	if advisory <= 0 || advisory > s.base {
		return s.base
	}
	return advisory
}

func (s *Scheduler) withinActiveHours(t time.Time) bool {
	if s.startHour == s.endHour {
		return true
	}
	hour := t.Hour()
	if s.startHour < s.endHour {
		return hour >= s.startHour && hour < s.endHour
	}
	// window wraps midnight
	return hour >= s.startHour || hour < s.endHour
}
