// Package reporter logs a periodic one-line summary of component
// counters so long-running archives leave a trace in the logs even when
// nothing goes wrong.
package reporter

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultInterval is used when Config.Interval is unset.
const DefaultInterval = 5 * time.Minute

// Collector returns the attributes one summary line carries. It is
// called once per interval from the reporter goroutine.
type Collector func() []slog.Attr

// Config holds reporter configuration.
type Config struct {
	Interval time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{Interval: DefaultInterval}
}

// Reporter periodically emits a stats summary line.
type Reporter struct {
	cfg     Config
	collect Collector
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a reporter. The collector must be safe to call from
// another goroutine.
func New(cfg Config, collect Collector, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Reporter{
		cfg:     cfg,
		collect: collect,
		logger:  logger,
	}
}

// Start begins the reporting loop.
func (r *Reporter) Start(ctx context.Context) error {
	r.ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(1)
	go r.run()

	r.logger.Info("stats reporter started", "interval", r.cfg.Interval)
	return nil
}

// Stop shuts down the reporter.
func (r *Reporter) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Reporter) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.logger.LogAttrs(r.ctx, slog.LevelInfo, "stats", r.collect()...)
		}
	}
}
