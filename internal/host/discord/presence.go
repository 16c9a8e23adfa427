package discord

import (
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/dwsmith1983/guildmetrics/pkg/types"
)

// presenceCache remembers the last non-offline status of each member so a
// presence update can be reported as a transition. The gateway only sends the
// new status, and discordgo's state is already updated by the time handlers run.
type presenceCache struct {
	mu     sync.Mutex
	guilds map[string]map[string]types.Status
}

func newPresenceCache() *presenceCache {
	return &presenceCache{guilds: make(map[string]map[string]types.Status)}
}

// seed replaces a guild's entries with the presences from a guild payload.
func (c *presenceCache) seed(guildID string, presences []*discordgo.Presence) {
	members := make(map[string]types.Status, len(presences))
	for _, p := range presences {
		if p == nil || p.User == nil {
			continue
		}
		if s := types.Status(p.Status); !s.IsOffline() && s.Known() {
			members[p.User.ID] = s
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.guilds[guildID] = members
}

// transition records after and returns the previous status, offline when the
// member was not cached.
func (c *presenceCache) transition(guildID, userID string, after types.Status) types.Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	members, ok := c.guilds[guildID]
	if !ok {
		members = make(map[string]types.Status)
		c.guilds[guildID] = members
	}
	before, ok := members[userID]
	if !ok {
		before = types.StatusOffline
	}
	if after.IsOffline() || !after.Known() {
		delete(members, userID)
	} else {
		members[userID] = after
	}
	return before
}

// status returns a member's cached status.
func (c *presenceCache) status(guildID, userID string) (types.Status, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.guilds[guildID][userID]
	return s, ok
}

// forget removes a member and returns its last status, offline if unknown.
func (c *presenceCache) forget(guildID, userID string) types.Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.guilds[guildID][userID]
	if !ok {
		return types.StatusOffline
	}
	delete(c.guilds[guildID], userID)
	return s
}

func (c *presenceCache) drop(guildID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.guilds, guildID)
}

// online counts a guild's non-offline members.
func (c *presenceCache) online(guildID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.guilds[guildID])
}
