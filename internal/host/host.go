// Package host defines the boundary between the exporter and the chat
// gateway it observes.
package host

import (
	"context"
	"errors"
	"time"

	"github.com/dwsmith1983/guildmetrics/pkg/types"
)

// ErrUnknownGuild is returned when a query names a guild the host does not know.
var ErrUnknownGuild = errors.New("unknown guild")

// Host answers snapshot queries against the live gateway connection.
type Host interface {
	// Ready blocks until the connection is fully established, or ctx ends.
	Ready(ctx context.Context) error

	// Guild snapshots
	Guilds(ctx context.Context) ([]types.GuildSnapshot, error)
	Guild(ctx context.Context, guildID string) (types.GuildSnapshot, error)

	// MemberStatus returns a member's live presence.
	MemberStatus(ctx context.Context, guildID, userID string) (types.Status, error)

	// Reactors returns the IDs of the users currently reacting to a message
	// with the given emoji.
	Reactors(ctx context.Context, channelID, messageID, emojiAPIName string) ([]string, error)

	// Latency is the most recent gateway heartbeat round trip.
	Latency() time.Duration
}

// Sink receives translated gateway events.
type Sink interface {
	Handle(ctx context.Context, event types.Event)
}
