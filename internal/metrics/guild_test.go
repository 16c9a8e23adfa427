package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwsmith1983/guildmetrics/pkg/types"
)

func guildCount(t *testing.T, r *Registry) float64 {
	t.Helper()
	v, ok := r.Value(Guilds)
	require.True(t, ok)
	return v
}

func TestPutGuild(t *testing.T) {
	r := New()
	added := r.PutGuild(types.GuildSnapshot{ID: "g1", Name: "Alpha", Members: 10, Online: 7, Channels: 5, Threads: 2})
	assert.True(t, added)
	assert.Equal(t, 1.0, guildCount(t, r))

	g, ok := r.Guild("g1")
	require.True(t, ok)
	assert.Equal(t, types.GuildSnapshot{ID: "g1", Name: "Alpha", Members: 10, Online: 7, Channels: 5, Threads: 2}, g)

	expected := `
# HELP discord_guild_names_info Guild names
# TYPE discord_guild_names_info gauge
discord_guild_names_info{guild="g1",name="Alpha"} 1
`
	require.NoError(t, testutil.GatherAndCompare(r.Gatherer(), strings.NewReader(expected), "discord_guild_names_info"))
}

func TestPutGuild_RepeatDoesNotInflateCount(t *testing.T) {
	r := New()
	r.PutGuild(types.GuildSnapshot{ID: "g1", Name: "Alpha", Members: 10})
	added := r.PutGuild(types.GuildSnapshot{ID: "g1", Name: "Renamed", Members: 12})
	assert.False(t, added)
	assert.Equal(t, 1.0, guildCount(t, r))

	g, _ := r.Guild("g1")
	assert.Equal(t, 12, g.Members)
	assert.Equal(t, "Renamed", g.Name)
	assert.Equal(t, 1, r.Series(GuildNames))
}

func TestJoinThenLeaveLeavesGuildAbsent(t *testing.T) {
	r := New()
	r.PutGuild(types.GuildSnapshot{ID: "g1", Name: "Alpha", Members: 3, Online: 1, Channels: 2, Threads: 1})
	require.True(t, r.DropGuild("g1"))

	for _, name := range []Name{Users, Online, Channels, Threads} {
		_, ok := r.Value(name, "g1")
		assert.False(t, ok, "%s should be absent", name)
	}
	assert.Equal(t, 0, r.Series(GuildNames))
	assert.False(t, r.HasGuild("g1"))
	assert.Equal(t, 0.0, guildCount(t, r))
}

func TestDropGuild_Untracked(t *testing.T) {
	r := New()
	assert.False(t, r.DropGuild("ghost"))
	assert.Equal(t, 0.0, guildCount(t, r))
}

func TestAdjustGuild(t *testing.T) {
	r := New()
	assert.False(t, r.AdjustGuild(Users, "g1", 1))
	_, ok := r.Value(Users, "g1")
	assert.False(t, ok)

	r.PutGuild(types.GuildSnapshot{ID: "g1", Members: 1})
	assert.True(t, r.AdjustGuild(Users, "g1", 1))
	assert.True(t, r.AdjustGuild(Users, "g1", -5))
	v, _ := r.Value(Users, "g1")
	assert.Equal(t, 0.0, v)
}

func TestReplaceGuilds(t *testing.T) {
	r := New()
	r.PutGuild(types.GuildSnapshot{ID: "g1", Name: "Alpha", Members: 99})
	r.PutGuild(types.GuildSnapshot{ID: "gone", Name: "Gone", Members: 5})
	r.Inc(Messages, "g1")

	snaps := []types.GuildSnapshot{
		{ID: "g1", Name: "Alpha", Members: 10, Online: 4},
		{ID: "g2", Name: "Beta", Members: 3},
	}
	r.ReplaceGuilds(snaps)

	assert.Equal(t, []string{"g1", "g2"}, r.GuildIDs())
	assert.Equal(t, 2.0, guildCount(t, r))
	g, _ := r.Guild("g1")
	assert.Equal(t, 10, g.Members)
	_, ok := r.Value(Users, "gone")
	assert.False(t, ok)

	msgs, _ := r.Value(Messages, "g1")
	assert.Equal(t, 1.0, msgs)
}

func TestResetGuilds(t *testing.T) {
	r := New()
	r.PutGuild(types.GuildSnapshot{ID: "g1", Members: 2})
	r.ResetGuilds()

	assert.Empty(t, r.GuildIDs())
	assert.Equal(t, 0.0, guildCount(t, r))
	assert.Equal(t, 0, r.Series(Users))
}
