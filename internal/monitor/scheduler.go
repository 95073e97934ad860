package monitor

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// ScheduleOffset delays each run past the bar boundary so the exchange has
// published the closed candle before we fetch.
const ScheduleOffset = 15 * time.Second

// Scheduler fires at UTC boundaries of a fixed interval, offset by
// ScheduleOffset. A 4h interval runs at 00:00:15, 04:00:15 and so on.
type Scheduler struct {
	interval time.Duration
	logger   zerolog.Logger

	// now is swapped in tests
	now func() time.Time
}

func NewScheduler(interval time.Duration, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		interval: interval,
		logger:   logger.With().Str("component", "Scheduler").Logger(),
		now:      time.Now,
	}
}

// NextRun returns the first scheduled instant strictly after now
func (s *Scheduler) NextRun(now time.Time) time.Time {
	now = now.UTC()
	boundary := now.Truncate(s.interval)
	next := boundary.Add(ScheduleOffset)
	for !next.After(now) {
		next = next.Add(s.interval)
	}
	return next
}

// Run invokes fn at each boundary until the context is cancelled
func (s *Scheduler) Run(ctx context.Context, fn func(context.Context)) error {
	for {
		next := s.NextRun(s.now())
		wait := next.Sub(s.now())

		s.logger.Info().
			Time("next_run", next).
			Str("wait", wait.Round(time.Second).String()).
			Msg("Waiting for next cycle")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		fn(ctx)
	}
}
