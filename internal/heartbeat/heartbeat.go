// Package heartbeat samples process uptime and gateway latency into gauges.
package heartbeat

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dwsmith1983/guildmetrics/internal/host"
	"github.com/dwsmith1983/guildmetrics/internal/metrics"
)

const defaultInterval = 60 * time.Second

// Reporter overwrites discord_uptime and discord_latency on every tick. It
// keeps no history; each sample replaces the last.
type Reporter struct {
	host     host.Host
	registry *metrics.Registry
	interval time.Duration
	started  time.Time
	now      func() time.Time
	logger   *slog.Logger
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// New creates a Reporter. Uptime is measured from the moment New is called.
func New(h host.Host, reg *metrics.Registry, interval time.Duration, logger *slog.Logger) *Reporter {
	if interval <= 0 {
		interval = defaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{
		host:     h,
		registry: reg,
		interval: interval,
		started:  time.Now(),
		now:      time.Now,
		logger:   logger,
	}
}

// Start begins the sampling loop. The first sample is taken once the host is
// ready.
func (r *Reporter) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.host.Ready(ctx); err != nil {
			return
		}
		r.logger.Info("heartbeat started", "interval", r.interval)

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		r.Sample()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Sample()
			}
		}
	}()
}

// Stop cancels the loop and waits for it to exit, or for ctx to end.
func (r *Reporter) Stop(ctx context.Context) {
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
		r.logger.Info("heartbeat stopped")
	case <-ctx.Done():
		r.logger.Warn("heartbeat stop timed out")
	}
}

// Sample records uptime and latency once.
func (r *Reporter) Sample() {
	uptime := r.now().Sub(r.started)
	r.registry.Set(metrics.Uptime, uptime.Seconds())
	r.registry.Set(metrics.Latency, r.host.Latency().Seconds())
}
