// Package discord connects the exporter to the Discord gateway through
// discordgo. It translates gateway events into exporter events and answers
// the host snapshot queries from discordgo's state cache and the REST API.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/dwsmith1983/guildmetrics/internal/host"
	"github.com/dwsmith1983/guildmetrics/pkg/types"
)

// Compile-time interface satisfaction check.
var _ host.Host = (*Session)(nil)

// Intents the exporter needs. Members and presences are privileged intents
// and must be enabled for the application.
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsGuildPresences |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsGuildMessageReactions

const reactorPageSize = 100

// Session is a gateway connection that implements host.Host.
type Session struct {
	dg        *discordgo.Session
	tr        *translator
	presences *presenceCache
	ready     *readiness
	logger    *slog.Logger

	ctx      context.Context
	sink     host.Sink
	removers []func()
}

// New creates a session for a bot token. It does not connect.
func New(token string, guildReadyTimeout time.Duration, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}
	dg.Identify.Intents = Intents
	dg.StateEnabled = true
	// Handlers run one at a time on the gateway reader, in gateway order.
	// Presence transitions and readiness depend on that order.
	dg.SyncEvents = true

	presences := newPresenceCache()
	return &Session{
		dg:        dg,
		tr:        &translator{presences: presences},
		presences: presences,
		ready:     newReadiness(guildReadyTimeout),
		logger:    logger,
	}, nil
}

// Open registers the event handlers and connects to the gateway. Events are
// delivered to sink with ctx until Close.
func (s *Session) Open(ctx context.Context, sink host.Sink) error {
	s.ctx = ctx
	s.sink = sink
	s.registerHandlers()
	if err := s.dg.Open(); err != nil {
		s.removeHandlers()
		return fmt.Errorf("opening gateway connection: %w", err)
	}
	s.logger.Info("gateway connection opened")
	return nil
}

// Close disconnects from the gateway.
func (s *Session) Close() error {
	s.ready.stop()
	s.removeHandlers()
	if err := s.dg.Close(); err != nil {
		return fmt.Errorf("closing gateway connection: %w", err)
	}
	s.logger.Info("gateway connection closed")
	return nil
}

func (s *Session) Ready(ctx context.Context) error {
	return s.ready.wait(ctx)
}

func (s *Session) Guilds(_ context.Context) ([]types.GuildSnapshot, error) {
	st := s.dg.State
	st.RLock()
	defer st.RUnlock()

	out := make([]types.GuildSnapshot, 0, len(st.Guilds))
	for _, g := range st.Guilds {
		if g == nil || g.Unavailable {
			continue
		}
		out = append(out, s.tr.snapshot(g))
	}
	return out, nil
}

func (s *Session) Guild(_ context.Context, guildID string) (types.GuildSnapshot, error) {
	g, err := s.dg.State.Guild(guildID)
	if err != nil {
		return types.GuildSnapshot{}, fmt.Errorf("guild %s: %w", guildID, host.ErrUnknownGuild)
	}
	if g.Unavailable {
		return types.GuildSnapshot{}, fmt.Errorf("guild %s unavailable: %w", guildID, host.ErrUnknownGuild)
	}

	s.dg.State.RLock()
	defer s.dg.State.RUnlock()
	return s.tr.snapshot(g), nil
}

// MemberStatus answers from the presence cache first, then discordgo's state.
// Members with no presence on record are offline: the gateway only sends
// presences for members that are not.
func (s *Session) MemberStatus(_ context.Context, guildID, userID string) (types.Status, error) {
	if st, ok := s.presences.status(guildID, userID); ok {
		return st, nil
	}
	if _, err := s.dg.State.Guild(guildID); err != nil {
		return types.StatusUnknown, fmt.Errorf("guild %s: %w", guildID, host.ErrUnknownGuild)
	}
	p, err := s.dg.State.Presence(guildID, userID)
	if err != nil || p == nil {
		return types.StatusOffline, nil
	}
	return types.Status(p.Status), nil
}

// Reactors pages through the REST reaction list for a message and emoji.
func (s *Session) Reactors(ctx context.Context, channelID, messageID, emojiAPIName string) ([]string, error) {
	var ids []string
	after := ""
	for {
		users, err := s.dg.MessageReactions(channelID, messageID, emojiAPIName, reactorPageSize, "", after, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("fetching reactions for message %s: %w", messageID, err)
		}
		for _, u := range users {
			ids = append(ids, u.ID)
		}
		if len(users) < reactorPageSize {
			return ids, nil
		}
		after = users[len(users)-1].ID
	}
}

func (s *Session) Latency() time.Duration {
	return s.dg.HeartbeatLatency()
}

func (s *Session) dispatch(event types.Event) {
	if event == nil || s.sink == nil {
		return
	}
	if s.ctx.Err() != nil {
		return
	}
	s.sink.Handle(s.ctx, event)
}

func (s *Session) add(handler interface{}) {
	s.removers = append(s.removers, s.dg.AddHandler(handler))
}

func (s *Session) removeHandlers() {
	for _, remove := range s.removers {
		remove()
	}
	s.removers = nil
}

func (s *Session) registerHandlers() {
	s.add(func(_ *discordgo.Session, e *discordgo.Ready) {
		ids := make([]string, 0, len(e.Guilds))
		for _, g := range e.Guilds {
			ids = append(ids, g.ID)
		}
		user := ""
		if e.User != nil {
			user = e.User.Username
		}
		s.logger.Info("gateway ready", "user", user, "guilds", len(ids))
		s.ready.onReady(ids)
	})
	s.add(func(_ *discordgo.Session, e *discordgo.GuildCreate) {
		s.dg.State.RLock()
		ev := s.tr.guildCreate(e.Guild)
		s.dg.State.RUnlock()
		s.ready.onGuild(e.ID)
		s.dispatch(ev)
	})
	s.add(func(_ *discordgo.Session, e *discordgo.GuildDelete) {
		if e.Guild != nil && e.Unavailable {
			s.logger.Warn("guild unavailable", "guild", e.ID)
		}
		s.dispatch(s.tr.guildDelete(e.Guild))
	})
	s.add(func(_ *discordgo.Session, e *discordgo.GuildMemberAdd) {
		s.dispatch(s.tr.memberAdd(e.Member))
	})
	s.add(func(_ *discordgo.Session, e *discordgo.GuildMemberRemove) {
		s.dispatch(s.tr.memberRemove(e.Member))
	})
	s.add(func(_ *discordgo.Session, e *discordgo.PresenceUpdate) {
		s.dispatch(s.tr.presenceUpdate(e))
	})
	s.add(func(_ *discordgo.Session, e *discordgo.ChannelCreate) {
		s.dispatch(s.tr.channelCreate(e.Channel))
	})
	s.add(func(_ *discordgo.Session, e *discordgo.ChannelDelete) {
		s.dispatch(s.tr.channelDelete(e.Channel))
	})
	s.add(func(_ *discordgo.Session, e *discordgo.ThreadCreate) {
		s.dispatch(s.tr.threadCreate(e))
	})
	s.add(func(_ *discordgo.Session, e *discordgo.ThreadDelete) {
		s.dispatch(s.tr.threadDelete(e.Channel))
	})
	s.add(func(_ *discordgo.Session, e *discordgo.MessageCreate) {
		s.dispatch(s.tr.messageCreate(e.Message))
	})
	s.add(func(_ *discordgo.Session, e *discordgo.MessageUpdate) {
		s.dispatch(s.tr.messageUpdate(e.Message))
	})
	s.add(func(_ *discordgo.Session, e *discordgo.MessageDelete) {
		s.dispatch(s.tr.messageDelete(e.Message))
	})
	s.add(func(_ *discordgo.Session, e *discordgo.MessageReactionAdd) {
		s.dispatch(s.tr.reactionAdd(e.MessageReaction))
	})
}
