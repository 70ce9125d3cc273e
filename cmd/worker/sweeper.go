package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const defaultSweepInterval = 5 * time.Minute

type lapseExpirer interface {
	ExpireLapsed(ctx context.Context, now time.Time) (int64, error)
}

// expirySweeper flips active subscriptions past their expiry to expired so
// stored status matches what the access guard already enforces.
type expirySweeper struct {
	accounts lapseExpirer
	interval time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

func newExpirySweeper(accounts lapseExpirer, interval time.Duration, logger zerolog.Logger) *expirySweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &expirySweeper{accounts: accounts, interval: interval, logger: logger, now: time.Now}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (s *expirySweeper) Run(ctx context.Context) error {
	s.logger.Info().Dur("interval", s.interval).Msg("worker: started")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		s.sweep(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *expirySweeper) sweep(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	n, err := s.accounts.ExpireLapsed(ctx, s.now())
	if err != nil {
		s.logger.Error().Err(err).Msg("worker: expiry sweep failed")
		return
	}
	if n > 0 {
		s.logger.Info().Int64("expired", n).Msg("worker: expired lapsed subscriptions")
	}
}
