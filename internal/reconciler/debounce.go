package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/dwsmith1983/guildmetrics/internal/host"
	"github.com/dwsmith1983/guildmetrics/internal/metrics"
	"github.com/dwsmith1983/guildmetrics/pkg/types"
)

// DebounceConfig holds reaction debounce settings.
type DebounceConfig struct {
	Grace         time.Duration // wait before re-checking (default 10s)
	RateLimit     rate.Limit    // re-check fetches per second (default 10)
	Burst         int           // re-check burst (default 10)
	FailThreshold uint32        // consecutive fetch failures before the breaker opens (default 5)
	Cooldown      time.Duration // how long the breaker stays open (default 30s)
}

// DefaultDebounceConfig returns the default config.
func DefaultDebounceConfig() DebounceConfig {
	return DebounceConfig{
		Grace:         10 * time.Second,
		RateLimit:     10,
		Burst:         10,
		FailThreshold: 5,
		Cooldown:      30 * time.Second,
	}
}

// Debouncer counts a reaction only if it is still present once the grace
// period has passed. Each add gets its own check; checks are never cancelled
// by later events, only abandoned when the context passed to Schedule ends.
// A failed re-check drops the reaction without retry.
type Debouncer struct {
	host     host.Host
	registry *metrics.Registry
	grace    time.Duration
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker
	logger   *slog.Logger

	wg       sync.WaitGroup
	inFlight atomic.Int64
}

// NewDebouncer creates a Debouncer. Zero config fields take their defaults; a
// negative Grace re-checks immediately.
func NewDebouncer(h host.Host, reg *metrics.Registry, cfg DebounceConfig, logger *slog.Logger) *Debouncer {
	def := DefaultDebounceConfig()
	if cfg.Grace == 0 {
		cfg.Grace = def.Grace
	}
	if cfg.Grace < 0 {
		cfg.Grace = 0
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = def.RateLimit
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	if cfg.FailThreshold == 0 {
		cfg.FailThreshold = def.FailThreshold
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = def.Cooldown
	}
	if logger == nil {
		logger = slog.Default()
	}

	d := &Debouncer{
		host:     h,
		registry: reg,
		grace:    cfg.Grace,
		limiter:  rate.NewLimiter(cfg.RateLimit, cfg.Burst),
		logger:   logger,
	}
	threshold := cfg.FailThreshold
	d.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "reactors",
		Timeout: cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("reaction re-check breaker changed state", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return d
}

// Schedule starts the grace-period check for one reaction add.
func (d *Debouncer) Schedule(ctx context.Context, e types.ReactionAdd) {
	d.wg.Add(1)
	d.inFlight.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.inFlight.Add(-1)
		d.check(ctx, e)
	}()
}

// InFlight returns the number of checks still waiting or fetching.
func (d *Debouncer) InFlight() int {
	return int(d.inFlight.Load())
}

// Wait blocks until every scheduled check has finished or ctx ends.
func (d *Debouncer) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for reaction checks: %w", ctx.Err())
	}
}

func (d *Debouncer) check(ctx context.Context, e types.ReactionAdd) {
	timer := time.NewTimer(d.grace)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	if err := d.limiter.Wait(ctx); err != nil {
		return
	}

	present, err := d.stillReacting(ctx, e)
	if err != nil {
		d.registry.ReactionCheck(metrics.OutcomeFailed)
		d.logger.Debug("reaction re-check failed, not counted", "guild", e.GuildID, "message", e.MessageID, "emoji", e.Emoji, "error", err)
		return
	}
	if !present {
		d.registry.ReactionCheck(metrics.OutcomeWithdrawn)
		d.logger.Debug("reaction withdrawn", "guild", e.GuildID, "message", e.MessageID, "user", e.UserID, "emoji", e.Emoji)
		return
	}

	d.registry.Inc(metrics.Reactions, e.GuildID, e.Emoji)
	d.registry.ReactionCheck(metrics.OutcomeConfirmed)
	d.logger.Debug("reaction kept", "guild", e.GuildID, "message", e.MessageID, "user", e.UserID, "emoji", e.Emoji)
}

func (d *Debouncer) stillReacting(ctx context.Context, e types.ReactionAdd) (bool, error) {
	out, err := d.breaker.Execute(func() (interface{}, error) {
		return d.host.Reactors(ctx, e.ChannelID, e.MessageID, e.EmojiAPIName)
	})
	if err != nil {
		return false, err
	}
	users, _ := out.([]string)
	for _, id := range users {
		if id == e.UserID {
			return true, nil
		}
	}
	return false, nil
}
