package engine

import (
	"context"
	"log/slog"
	"time"
)

// Runner drives a Simulation in real time, one tick per interval.
type Runner struct {
	sim      *Simulation
	interval time.Duration
}

// NewRunner wraps a simulation. A non-positive interval defaults to one
// second per tick.
func NewRunner(sim *Simulation, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = time.Second
	}
	return &Runner{sim: sim, interval: interval}
}

// Run blocks, stepping the simulation until the context is cancelled. Slow
// ticks are logged and the next tick starts immediately rather than bursting
// to catch up.
func (r *Runner) Run(ctx context.Context) error {
	slog.Info("world loop started", "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("world loop stopped")
			return ctx.Err()
		case <-ticker.C:
			start := time.Now()
			if err := r.sim.Step(ctx); err != nil {
				if ctx.Err() != nil {
					slog.Info("world loop stopped")
					return ctx.Err()
				}
				return err
			}
			if elapsed := time.Since(start); elapsed > r.interval {
				slog.Warn("tick overran interval", "elapsed", elapsed)
			}
		}
	}
}
