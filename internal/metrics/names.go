package metrics

// Name identifies a metric family exported by the registry.
type Name string

// Exported metric families. Counter names carry the _total suffix and the
// guild name family the _info suffix, the way they appear on the wire.
const (
	Guilds          Name = "discord_guilds"
	GuildNames      Name = "discord_guild_names_info"
	Users           Name = "discord_users"
	Online          Name = "discord_online"
	Channels        Name = "discord_channels"
	Threads         Name = "discord_threads"
	Messages        Name = "discord_messages_total"
	MessagesEdited  Name = "discord_messages_edited_total"
	MessagesDeleted Name = "discord_messages_deleted_total"
	Reactions       Name = "discord_reactions_total"
	Latency         Name = "discord_latency"
	Uptime          Name = "discord_uptime"
)

type kind int

const (
	gaugeKind kind = iota
	counterKind
)

type definition struct {
	name   Name
	help   string
	kind   kind
	labels []string
}

var definitions = []definition{
	{Guilds, "Number of guilds", gaugeKind, nil},
	{GuildNames, "Guild names", gaugeKind, []string{"guild", "name"}},
	{Users, "Number of users per guild", gaugeKind, []string{"guild"}},
	{Online, "Number of online users per guild", gaugeKind, []string{"guild"}},
	{Channels, "Number of channels per guild", gaugeKind, []string{"guild"}},
	{Threads, "Number of threads per guild", gaugeKind, []string{"guild"}},
	{Messages, "Number of messages sent in guild", counterKind, []string{"guild"}},
	{MessagesEdited, "Number of messages edited in guild", counterKind, []string{"guild"}},
	{MessagesDeleted, "Number of messages deleted in guild", counterKind, []string{"guild"}},
	{Reactions, "Number of reactions in guild", counterKind, []string{"guild", "emoji"}},
	{Latency, "Bot latency in seconds", gaugeKind, nil},
	{Uptime, "Bot uptime in seconds", gaugeKind, nil},
}

// guildGauges are the per-guild gauges rebuilt by recalibration.
var guildGauges = []Name{Users, Online, Channels, Threads}

// Reaction check outcomes recorded by ReactionCheck.
const (
	OutcomeConfirmed = "confirmed"
	OutcomeWithdrawn = "withdrawn"
	OutcomeFailed    = "failed"
)
