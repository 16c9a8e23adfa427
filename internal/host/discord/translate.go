package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/dwsmith1983/guildmetrics/pkg/types"
)

// translator turns discordgo gateway payloads into exporter events. A nil
// result means the payload is not relevant to any metric.
type translator struct {
	presences *presenceCache
}

// snapshot builds a guild snapshot. The caller holds the state read lock when
// g belongs to discordgo's state.
func (t *translator) snapshot(g *discordgo.Guild) types.GuildSnapshot {
	members := g.MemberCount
	if members == 0 {
		members = len(g.Members)
	}
	channels := 0
	for _, c := range g.Channels {
		if c != nil && !c.IsThread() {
			channels++
		}
	}
	return types.GuildSnapshot{
		ID:       g.ID,
		Name:     g.Name,
		Members:  members,
		Online:   t.presences.online(g.ID),
		Channels: channels,
		Threads:  len(g.Threads),
	}
}

func (t *translator) guildCreate(g *discordgo.Guild) types.Event {
	if g == nil || g.Unavailable {
		return nil
	}
	t.presences.seed(g.ID, g.Presences)
	return types.GuildJoin{Snapshot: t.snapshot(g)}
}

func (t *translator) guildDelete(g *discordgo.Guild) types.Event {
	// An unavailable guild is an outage, not a removal.
	if g == nil || g.Unavailable {
		return nil
	}
	t.presences.drop(g.ID)
	return types.GuildLeave{GuildID: g.ID}
}

func (t *translator) memberAdd(m *discordgo.Member) types.Event {
	if m == nil || m.User == nil {
		return nil
	}
	status, _ := t.presences.status(m.GuildID, m.User.ID)
	return types.MemberJoin{GuildID: m.GuildID, UserID: m.User.ID, Status: status}
}

func (t *translator) memberRemove(m *discordgo.Member) types.Event {
	if m == nil || m.User == nil {
		return nil
	}
	status := t.presences.forget(m.GuildID, m.User.ID)
	return types.MemberLeave{GuildID: m.GuildID, UserID: m.User.ID, Status: status}
}

func (t *translator) presenceUpdate(p *discordgo.PresenceUpdate) types.Event {
	if p == nil || p.User == nil || p.GuildID == "" {
		return nil
	}
	after := types.Status(p.Status)
	if !after.Known() {
		after = types.StatusOffline
	}
	before := t.presences.transition(p.GuildID, p.User.ID, after)
	return types.PresenceUpdate{GuildID: p.GuildID, UserID: p.User.ID, Before: before, After: after}
}

func (t *translator) channelCreate(c *discordgo.Channel) types.Event {
	if c == nil || c.GuildID == "" || c.IsThread() {
		return nil
	}
	return types.ChannelCreate{GuildID: c.GuildID, ChannelID: c.ID}
}

func (t *translator) channelDelete(c *discordgo.Channel) types.Event {
	if c == nil || c.GuildID == "" || c.IsThread() {
		return nil
	}
	return types.ChannelDelete{GuildID: c.GuildID, ChannelID: c.ID}
}

// threadCreate ignores the bot being added to an existing thread.
func (t *translator) threadCreate(e *discordgo.ThreadCreate) types.Event {
	if e == nil || e.Channel == nil || !e.NewlyCreated || e.GuildID == "" {
		return nil
	}
	return types.ThreadCreate{GuildID: e.GuildID, ThreadID: e.ID}
}

func (t *translator) threadDelete(c *discordgo.Channel) types.Event {
	if c == nil || c.GuildID == "" {
		return nil
	}
	return types.ThreadDelete{GuildID: c.GuildID, ThreadID: c.ID}
}

func (t *translator) messageCreate(m *discordgo.Message) types.Event {
	if m == nil || m.GuildID == "" {
		return nil
	}
	return types.MessageCreate{GuildID: m.GuildID, ChannelID: m.ChannelID, MessageID: m.ID}
}

// messageUpdate only counts updates that carry an edit timestamp; embed
// unfurls arrive as updates too.
func (t *translator) messageUpdate(m *discordgo.Message) types.Event {
	if m == nil || m.GuildID == "" || m.EditedTimestamp == nil {
		return nil
	}
	return types.MessageEdit{GuildID: m.GuildID, ChannelID: m.ChannelID, MessageID: m.ID}
}

func (t *translator) messageDelete(m *discordgo.Message) types.Event {
	if m == nil || m.GuildID == "" {
		return nil
	}
	return types.MessageDelete{GuildID: m.GuildID, ChannelID: m.ChannelID, MessageID: m.ID}
}

func (t *translator) reactionAdd(r *discordgo.MessageReaction) types.Event {
	if r == nil || r.GuildID == "" {
		return nil
	}
	return types.ReactionAdd{
		GuildID:      r.GuildID,
		ChannelID:    r.ChannelID,
		MessageID:    r.MessageID,
		UserID:       r.UserID,
		Emoji:        r.Emoji.MessageFormat(),
		EmojiAPIName: r.Emoji.APIName(),
	}
}
