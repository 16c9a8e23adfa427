// Package recalibrator periodically rebuilds guild gauges from a live host
// snapshot, discarding drift accumulated from missed or out-of-order events.
package recalibrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dwsmith1983/guildmetrics/internal/host"
	"github.com/dwsmith1983/guildmetrics/internal/metrics"
)

const defaultInterval = time.Hour

// Recalibrator runs a setup pass once the host is ready, then a full resync
// on every interval. Counters are never touched.
type Recalibrator struct {
	host     host.Host
	registry *metrics.Registry
	interval time.Duration
	logger   *slog.Logger
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// New creates a new Recalibrator.
func New(h host.Host, reg *metrics.Registry, interval time.Duration, logger *slog.Logger) *Recalibrator {
	if interval <= 0 {
		interval = defaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recalibrator{
		host:     h,
		registry: reg,
		interval: interval,
		logger:   logger,
	}
}

// Start begins the recalibration loop in the background.
func (r *Recalibrator) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.wg.Add(1)
	go r.loop(ctx)
}

// Stop signals the loop to stop and waits for it, or for ctx to end.
func (r *Recalibrator) Stop(ctx context.Context) {
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
		r.logger.Info("recalibrator stopped")
	case <-ctx.Done():
		r.logger.Warn("recalibrator stop timed out")
	}
}

func (r *Recalibrator) loop(ctx context.Context) {
	defer r.wg.Done()

	if err := r.host.Ready(ctx); err != nil {
		return
	}
	r.logger.Info("recalibrator started", "interval", r.interval)

	// Setup pass before the first tick.
	_ = r.Run(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = r.Run(ctx)
		}
	}
}

// Run performs one recalibration pass: it lists every guild the host knows,
// then resets all guild gauges and replays a join for each. If the listing
// fails the current state is kept.
func (r *Recalibrator) Run(ctx context.Context) error {
	start := time.Now()
	guilds, err := r.host.Guilds(ctx)
	if err != nil {
		r.registry.Recalibrated(time.Since(start), err)
		r.logger.Error("recalibration failed, keeping current gauges", "error", err)
		return fmt.Errorf("listing guilds: %w", err)
	}

	r.registry.ReplaceGuilds(guilds)
	took := time.Since(start)
	r.registry.Recalibrated(took, nil)
	r.logger.Info("recalibrated guild metrics", "guilds", len(guilds), "took", took)
	return nil
}
