// Package types defines the public domain types for the guildmetrics exporter.
package types

// Status is a member's presence as reported by the gateway.
type Status string

// Status values mirror the gateway presence strings. StatusUnknown means the
// event carried no presence and the live value has to be fetched.
const (
	StatusUnknown   Status = ""
	StatusOnline    Status = "online"
	StatusIdle      Status = "idle"
	StatusDND       Status = "dnd"
	StatusInvisible Status = "invisible"
	StatusOffline   Status = "offline"
)

// IsOffline reports whether the status counts as offline. Invisible members
// are reported as offline to everyone else, so they count as offline too.
func (s Status) IsOffline() bool {
	return s == StatusOffline || s == StatusInvisible
}

// Known reports whether the status carries a presence value.
func (s Status) Known() bool {
	return s != StatusUnknown
}

// OnlineDelta returns the change to a guild's online count for a transition
// from before to after: +1 when crossing out of offline, -1 when crossing into
// it, 0 otherwise.
func OnlineDelta(before, after Status) int {
	switch {
	case before.IsOffline() && !after.IsOffline():
		return 1
	case !before.IsOffline() && after.IsOffline():
		return -1
	default:
		return 0
	}
}

// EventKind identifies one of the gateway lifecycle events the exporter handles.
type EventKind string

// EventKind values enumerate the inbound lifecycle events.
const (
	EventGuildJoin      EventKind = "GUILD_JOIN"
	EventGuildLeave     EventKind = "GUILD_LEAVE"
	EventMemberJoin     EventKind = "MEMBER_JOIN"
	EventMemberLeave    EventKind = "MEMBER_LEAVE"
	EventPresenceUpdate EventKind = "PRESENCE_UPDATE"
	EventChannelCreate  EventKind = "CHANNEL_CREATE"
	EventChannelDelete  EventKind = "CHANNEL_DELETE"
	EventThreadCreate   EventKind = "THREAD_CREATE"
	EventThreadDelete   EventKind = "THREAD_DELETE"
	EventMessageCreate  EventKind = "MESSAGE_CREATE"
	EventMessageEdit    EventKind = "MESSAGE_EDIT"
	EventMessageDelete  EventKind = "MESSAGE_DELETE"
	EventReactionAdd    EventKind = "REACTION_ADD"
)

// LogLevel is the minimum level written by the process logger.
type LogLevel string

// LogLevel values accepted in configuration.
const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// LogFormat selects the slog handler.
type LogFormat string

// LogFormat values accepted in configuration.
const (
	LogText LogFormat = "text"
	LogJSON LogFormat = "json"
)
