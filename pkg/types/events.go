package types

// Event is a gateway lifecycle event. Each kind has its own struct; handlers
// switch on Kind and type-assert to the concrete value.
type Event interface {
	Kind() EventKind
	Guild() string
}

// GuildJoin is delivered when the bot joins a guild or a guild becomes available.
type GuildJoin struct {
	Snapshot GuildSnapshot
}

// GuildLeave is delivered when the bot is removed from a guild.
type GuildLeave struct {
	GuildID string
}

// MemberJoin is delivered when a member joins a guild. Status is the member's
// presence at event time, or StatusUnknown when the gateway did not say.
type MemberJoin struct {
	GuildID string
	UserID  string
	Status  Status
}

// MemberLeave is delivered when a member leaves or is removed from a guild.
type MemberLeave struct {
	GuildID string
	UserID  string
	Status  Status
}

// PresenceUpdate carries a member's presence transition.
type PresenceUpdate struct {
	GuildID string
	UserID  string
	Before  Status
	After   Status
}

// ChannelCreate is delivered for a new non-thread guild channel.
type ChannelCreate struct {
	GuildID   string
	ChannelID string
}

// ChannelDelete is delivered when a non-thread guild channel is deleted.
type ChannelDelete struct {
	GuildID   string
	ChannelID string
}

// ThreadCreate is delivered for a newly created thread.
type ThreadCreate struct {
	GuildID  string
	ThreadID string
}

// ThreadDelete is delivered when a thread is deleted.
type ThreadDelete struct {
	GuildID  string
	ThreadID string
}

// MessageCreate is delivered for every message posted in a guild channel.
type MessageCreate struct {
	GuildID   string
	ChannelID string
	MessageID string
}

// MessageEdit is delivered when a guild message is edited.
type MessageEdit struct {
	GuildID   string
	ChannelID string
	MessageID string
}

// MessageDelete is delivered when a guild message is deleted.
type MessageDelete struct {
	GuildID   string
	ChannelID string
	MessageID string
}

// ReactionAdd is delivered when a user adds a reaction. Emoji is the label
// value exported on discord_reactions_total; EmojiAPIName is the form the
// reactor list query expects.
type ReactionAdd struct {
	GuildID      string
	ChannelID    string
	MessageID    string
	UserID       string
	Emoji        string
	EmojiAPIName string
}

func (GuildJoin) Kind() EventKind      { return EventGuildJoin }
func (GuildLeave) Kind() EventKind     { return EventGuildLeave }
func (MemberJoin) Kind() EventKind     { return EventMemberJoin }
func (MemberLeave) Kind() EventKind    { return EventMemberLeave }
func (PresenceUpdate) Kind() EventKind { return EventPresenceUpdate }
func (ChannelCreate) Kind() EventKind  { return EventChannelCreate }
func (ChannelDelete) Kind() EventKind  { return EventChannelDelete }
func (ThreadCreate) Kind() EventKind   { return EventThreadCreate }
func (ThreadDelete) Kind() EventKind   { return EventThreadDelete }
func (MessageCreate) Kind() EventKind  { return EventMessageCreate }
func (MessageEdit) Kind() EventKind    { return EventMessageEdit }
func (MessageDelete) Kind() EventKind  { return EventMessageDelete }
func (ReactionAdd) Kind() EventKind    { return EventReactionAdd }

func (e GuildJoin) Guild() string      { return e.Snapshot.ID }
func (e GuildLeave) Guild() string     { return e.GuildID }
func (e MemberJoin) Guild() string     { return e.GuildID }
func (e MemberLeave) Guild() string    { return e.GuildID }
func (e PresenceUpdate) Guild() string { return e.GuildID }
func (e ChannelCreate) Guild() string  { return e.GuildID }
func (e ChannelDelete) Guild() string  { return e.GuildID }
func (e ThreadCreate) Guild() string   { return e.GuildID }
func (e ThreadDelete) Guild() string   { return e.GuildID }
func (e MessageCreate) Guild() string  { return e.GuildID }
func (e MessageEdit) Guild() string    { return e.GuildID }
func (e MessageDelete) Guild() string  { return e.GuildID }
func (e ReactionAdd) Guild() string    { return e.GuildID }
