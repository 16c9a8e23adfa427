// Package reconciler translates gateway lifecycle events into registry
// mutations.
package reconciler

import (
	"context"
	"log/slog"

	"github.com/dwsmith1983/guildmetrics/internal/host"
	"github.com/dwsmith1983/guildmetrics/internal/metrics"
	"github.com/dwsmith1983/guildmetrics/pkg/types"
)

// Compile-time interface satisfaction check.
var _ host.Sink = (*Reconciler)(nil)

type handlerFunc func(ctx context.Context, event types.Event)

// Reconciler applies each inbound event to the registry. It holds no state of
// its own; reaction adds are handed to the Debouncer.
type Reconciler struct {
	host      host.Host
	registry  *metrics.Registry
	debouncer *Debouncer
	logger    *slog.Logger
	handlers  map[types.EventKind]handlerFunc
}

// New creates a Reconciler. A nil debouncer drops reaction events.
func New(h host.Host, reg *metrics.Registry, deb *Debouncer, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Reconciler{
		host:      h,
		registry:  reg,
		debouncer: deb,
		logger:    logger,
	}
	r.handlers = map[types.EventKind]handlerFunc{
		types.EventGuildJoin:      r.guildJoin,
		types.EventGuildLeave:     r.guildLeave,
		types.EventMemberJoin:     r.memberJoin,
		types.EventMemberLeave:    r.memberLeave,
		types.EventPresenceUpdate: r.presenceUpdate,
		types.EventChannelCreate:  r.gaugeStep(metrics.Channels, 1),
		types.EventChannelDelete:  r.gaugeStep(metrics.Channels, -1),
		types.EventThreadCreate:   r.gaugeStep(metrics.Threads, 1),
		types.EventThreadDelete:   r.gaugeStep(metrics.Threads, -1),
		types.EventMessageCreate:  r.counterStep(metrics.Messages),
		types.EventMessageEdit:    r.counterStep(metrics.MessagesEdited),
		types.EventMessageDelete:  r.counterStep(metrics.MessagesDeleted),
		types.EventReactionAdd:    r.reactionAdd,
	}
	return r
}

// Handle dispatches one event. It never fails; events that cannot be applied
// are logged at debug level and dropped.
func (r *Reconciler) Handle(ctx context.Context, event types.Event) {
	if event == nil {
		return
	}
	h, ok := r.handlers[event.Kind()]
	if !ok {
		r.logger.Debug("no handler for event", "kind", event.Kind())
		return
	}
	h(ctx, event)
}

func (r *Reconciler) guildJoin(_ context.Context, event types.Event) {
	e, ok := event.(types.GuildJoin)
	if !ok {
		return
	}
	added := r.registry.PutGuild(e.Snapshot)
	r.logger.Info("guild tracked", "guild", e.Snapshot.ID, "name", e.Snapshot.Name, "members", e.Snapshot.Members, "new", added)
}

func (r *Reconciler) guildLeave(_ context.Context, event types.Event) {
	e, ok := event.(types.GuildLeave)
	if !ok {
		return
	}
	if r.registry.DropGuild(e.GuildID) {
		r.logger.Info("guild dropped", "guild", e.GuildID)
	}
}

func (r *Reconciler) memberJoin(ctx context.Context, event types.Event) {
	e, ok := event.(types.MemberJoin)
	if !ok {
		return
	}
	r.member(ctx, e.GuildID, e.UserID, e.Status, 1)
}

func (r *Reconciler) memberLeave(ctx context.Context, event types.Event) {
	e, ok := event.(types.MemberLeave)
	if !ok {
		return
	}
	r.member(ctx, e.GuildID, e.UserID, e.Status, -1)
}

func (r *Reconciler) member(ctx context.Context, guildID, userID string, status types.Status, delta int) {
	if !r.adjust(ctx, metrics.Users, guildID, delta) {
		return
	}
	if !status.Known() {
		s, err := r.host.MemberStatus(ctx, guildID, userID)
		if err != nil {
			r.logger.Debug("member presence unavailable, online count not adjusted", "guild", guildID, "user", userID, "error", err)
			return
		}
		status = s
	}
	if !status.IsOffline() {
		r.registry.AdjustGuild(metrics.Online, guildID, delta)
	}
}

func (r *Reconciler) presenceUpdate(ctx context.Context, event types.Event) {
	e, ok := event.(types.PresenceUpdate)
	if !ok {
		return
	}
	if d := types.OnlineDelta(e.Before, e.After); d != 0 {
		r.adjust(ctx, metrics.Online, e.GuildID, d)
	}
}

func (r *Reconciler) gaugeStep(name metrics.Name, delta int) handlerFunc {
	return func(ctx context.Context, event types.Event) {
		r.adjust(ctx, name, event.Guild(), delta)
	}
}

func (r *Reconciler) counterStep(name metrics.Name) handlerFunc {
	return func(_ context.Context, event types.Event) {
		if id := event.Guild(); id != "" {
			r.registry.Inc(name, id)
		}
	}
}

func (r *Reconciler) reactionAdd(ctx context.Context, event types.Event) {
	e, ok := event.(types.ReactionAdd)
	if !ok {
		return
	}
	if e.GuildID == "" || r.debouncer == nil {
		return
	}
	r.logger.Debug("reaction added", "guild", e.GuildID, "message", e.MessageID, "user", e.UserID, "emoji", e.Emoji)
	r.debouncer.Schedule(ctx, e)
}

// adjust applies delta to a tracked guild's gauge. For an untracked guild the
// whole set is re-derived from the host instead; the fresh snapshot already
// includes the event, so adjust reports false and the caller stops.
func (r *Reconciler) adjust(ctx context.Context, name metrics.Name, guildID string, delta int) bool {
	if guildID == "" {
		return false
	}
	if r.registry.AdjustGuild(name, guildID, delta) {
		return true
	}
	r.rederive(ctx, guildID)
	return false
}

func (r *Reconciler) rederive(ctx context.Context, guildID string) {
	snap, err := r.host.Guild(ctx, guildID)
	if err != nil {
		r.logger.Debug("event for untracked guild dropped", "guild", guildID, "error", err)
		return
	}
	r.registry.PutGuild(snap)
	r.logger.Info("guild re-derived from host", "guild", guildID, "members", snap.Members)
}
