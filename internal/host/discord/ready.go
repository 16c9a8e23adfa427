package discord

import (
	"context"
	"sync"
	"time"
)

// readiness closes once the Ready payload has arrived and every guild it
// listed has streamed its GuildCreate, or once timeout passes after Ready
// with guilds still outstanding.
type readiness struct {
	mu       sync.Mutex
	pending  map[string]struct{}
	gotReady bool
	timeout  time.Duration
	timer    *time.Timer
	done     chan struct{}
	once     sync.Once
}

func newReadiness(timeout time.Duration) *readiness {
	return &readiness{
		pending: make(map[string]struct{}),
		timeout: timeout,
		done:    make(chan struct{}),
	}
}

func (r *readiness) onReady(guildIDs []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gotReady {
		return
	}
	r.gotReady = true
	for _, id := range guildIDs {
		r.pending[id] = struct{}{}
	}
	if len(r.pending) == 0 {
		r.finish()
		return
	}
	r.timer = time.AfterFunc(r.timeout, r.finish)
}

func (r *readiness) onGuild(guildID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, guildID)
	if r.gotReady && len(r.pending) == 0 {
		r.finish()
	}
}

func (r *readiness) finish() {
	r.once.Do(func() { close(r.done) })
}

func (r *readiness) wait(ctx context.Context) error {
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *readiness) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
	}
}
