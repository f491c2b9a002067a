package session

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSweepInterval replaces a non-positive Interval.
const DefaultSweepInterval = time.Minute

type Sweeper struct {
	Manager  *Manager
	Interval time.Duration
	Logger   *slog.Logger
}

// Run sweeps expired sessions every Interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	l := s.Logger
	if l == nil {
		l = slog.Default()
	}
	interval := s.Interval
	if interval <= 0 {
		l.Warn("session_sweep_interval_invalid", "interval", s.Interval, "fallback", DefaultSweepInterval)
		interval = DefaultSweepInterval
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := s.Manager.Sweep(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.Warn("session_sweep_failed", "error", err)
				continue
			}
			if n > 0 {
				l.Info("session_sweep", "deleted", n)
			}
		}
	}
}
