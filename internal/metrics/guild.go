package metrics

import (
	"sort"

	"github.com/dwsmith1983/guildmetrics/pkg/types"
)

// PutGuild initialises or overwrites the gauges of one guild from a snapshot.
// discord_guilds is incremented only when the guild was not tracked before,
// so a repeated join does not inflate it. Reports whether the guild was added.
func (r *Registry) PutGuild(s types.GuildSnapshot) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.putGuild(s)
}

// DropGuild removes every gauge of a guild. discord_guilds is decremented
// only for a tracked guild. Reports whether the guild was tracked.
func (r *Registry) DropGuild(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.guilds[id]; !ok {
		return false
	}
	for _, name := range guildGauges {
		r.remove(name, []string{id})
	}
	r.remove(GuildNames, []string{id})
	delete(r.guilds, id)
	r.add(Guilds, -1, nil)
	return true
}

// HasGuild reports whether a guild's gauges are tracked.
func (r *Registry) HasGuild(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.guilds[id]
	return ok
}

// AdjustGuild adds delta to one of a tracked guild's gauges. It reports false,
// and changes nothing, when the guild is not tracked.
func (r *Registry) AdjustGuild(name Name, id string, delta int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.guilds[id]; !ok {
		return false
	}
	r.add(name, float64(delta), []string{id})
	return true
}

// Guild returns the current gauge values of a tracked guild.
func (r *Registry) Guild(id string) (types.GuildSnapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name, ok := r.guilds[id]
	if !ok {
		return types.GuildSnapshot{}, false
	}
	lvs := []string{id}
	members, _ := r.value(Users, lvs)
	online, _ := r.value(Online, lvs)
	channels, _ := r.value(Channels, lvs)
	threads, _ := r.value(Threads, lvs)
	return types.GuildSnapshot{
		ID:       id,
		Name:     name,
		Members:  int(members),
		Online:   int(online),
		Channels: int(channels),
		Threads:  int(threads),
	}, true
}

// GuildIDs returns the tracked guild IDs in sorted order.
func (r *Registry) GuildIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.guilds))
	for id := range r.guilds {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ResetGuilds sets discord_guilds to zero and clears every per-guild gauge.
// Counters are left alone.
func (r *Registry) ResetGuilds() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetGuilds()
}

// ReplaceGuilds resets all guild gauges and replays a join for each snapshot
// under one lock, so no registry writer or reader observes the intermediate
// empty state. A concurrent scrape gathers the vecs directly and may still
// catch it.
func (r *Registry) ReplaceGuilds(snapshots []types.GuildSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.resetGuilds()
	for _, s := range snapshots {
		r.putGuild(s)
	}
}

func (r *Registry) resetGuilds() {
	r.set(Guilds, 0, nil)
	for _, name := range guildGauges {
		r.clear(name)
	}
	r.clear(GuildNames)
	r.guilds = make(map[string]string)
}

func (r *Registry) putGuild(s types.GuildSnapshot) bool {
	_, tracked := r.guilds[s.ID]
	lvs := []string{s.ID}

	r.remove(GuildNames, lvs)
	r.set(GuildNames, 1, []string{s.ID, s.Name})
	r.set(Users, float64(nonNegative(s.Members)), lvs)
	r.set(Online, float64(nonNegative(s.Online)), lvs)
	r.set(Channels, float64(nonNegative(s.Channels)), lvs)
	r.set(Threads, float64(nonNegative(s.Threads)), lvs)
	r.guilds[s.ID] = s.Name

	if !tracked {
		r.add(Guilds, 1, nil)
	}
	return !tracked
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
