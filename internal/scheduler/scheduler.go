package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// TickFunc is invoked on every interval.
type TickFunc func(ctx context.Context) error

// Options tune loop behaviour.
type Options struct {
	Name     string
	Interval time.Duration
	// Immediate fires the first tick right away instead of waiting a
	// full interval.
	Immediate bool
}

// Loop drives periodic execution of a job until its context is
// cancelled. A failing tick is logged and the loop keeps going.
type Loop struct {
	opts   Options
	logger zerolog.Logger
}

// New constructs a Loop instance.
func New(opts Options, logger zerolog.Logger) *Loop {
	if opts.Interval <= 0 {
		panic("scheduler interval must be positive")
	}
	return &Loop{
		opts:   opts,
		logger: logger.With().Str("component", "scheduler").Str("loop", opts.Name).Logger(),
	}
}

// Run blocks, invoking the tick function at each interval until ctx is
// cancelled.
func (l *Loop) Run(ctx context.Context, tick TickFunc) error {
	if l.opts.Immediate {
		l.execute(ctx, tick)
	}

	ticker := time.NewTicker(l.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.execute(ctx, tick)
		}
	}
}

func (l *Loop) execute(ctx context.Context, tick TickFunc) {
	l.logger.Debug().Msg("executing scheduled tick")
	if err := tick(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		l.logger.Error().Err(err).Msg("tick execution failed")
	}
}
