package reconciler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwsmith1983/guildmetrics/internal/metrics"
	"github.com/dwsmith1983/guildmetrics/internal/testutil"
	"github.com/dwsmith1983/guildmetrics/pkg/types"
)

func setupReconciler(t *testing.T) (*Reconciler, *metrics.Registry, *testutil.MockHost) {
	t.Helper()
	h := testutil.NewMockHost()
	reg := metrics.New()
	return New(h, reg, nil, nil), reg, h
}

func join(r *Reconciler, s types.GuildSnapshot) {
	r.Handle(context.Background(), types.GuildJoin{Snapshot: s})
}

func TestGuildJoinAndLeave(t *testing.T) {
	r, reg, _ := setupReconciler(t)
	ctx := context.Background()

	join(r, types.GuildSnapshot{ID: "g1", Name: "Alpha", Members: 4, Online: 2, Channels: 3, Threads: 1})
	assert.Equal(t, 1.0, testutil.Value(t, reg, metrics.Guilds))
	assert.Equal(t, 4.0, testutil.Value(t, reg, metrics.Users, "g1"))
	assert.Equal(t, 3.0, testutil.Value(t, reg, metrics.Channels, "g1"))

	r.Handle(ctx, types.GuildLeave{GuildID: "g1"})
	assert.Equal(t, 0.0, testutil.Value(t, reg, metrics.Guilds))
	for _, name := range []metrics.Name{metrics.Users, metrics.Online, metrics.Channels, metrics.Threads} {
		_, ok := reg.Value(name, "g1")
		assert.False(t, ok, "%s should be removed", name)
	}
	assert.Equal(t, 0, reg.Series(metrics.GuildNames))
}

func TestGuildLeave_Untracked(t *testing.T) {
	r, reg, _ := setupReconciler(t)
	r.Handle(context.Background(), types.GuildLeave{GuildID: "ghost"})
	assert.Equal(t, 0.0, testutil.Value(t, reg, metrics.Guilds))
}

func TestMembershipScenario(t *testing.T) {
	r, reg, _ := setupReconciler(t)
	ctx := context.Background()

	// 10 members, 3 offline
	join(r, types.GuildSnapshot{ID: "g1", Name: "Alpha", Members: 10, Online: 7})
	assert.Equal(t, 10.0, testutil.Value(t, reg, metrics.Users, "g1"))
	assert.Equal(t, 7.0, testutil.Value(t, reg, metrics.Online, "g1"))

	r.Handle(ctx, types.PresenceUpdate{GuildID: "g1", UserID: "u1", Before: types.StatusOffline, After: types.StatusOnline})
	assert.Equal(t, 8.0, testutil.Value(t, reg, metrics.Online, "g1"))

	r.Handle(ctx, types.MemberLeave{GuildID: "g1", UserID: "u2", Status: types.StatusOnline})
	assert.Equal(t, 9.0, testutil.Value(t, reg, metrics.Users, "g1"))
	assert.Equal(t, 7.0, testutil.Value(t, reg, metrics.Online, "g1"))
}

func TestPresenceTransitions(t *testing.T) {
	tests := []struct {
		name   string
		before types.Status
		after  types.Status
		want   float64
	}{
		{"offline to online", types.StatusOffline, types.StatusOnline, 6},
		{"offline to idle", types.StatusOffline, types.StatusIdle, 6},
		{"online to offline", types.StatusOnline, types.StatusOffline, 4},
		{"dnd to invisible", types.StatusDND, types.StatusInvisible, 4},
		{"online to idle", types.StatusOnline, types.StatusIdle, 5},
		{"idle to dnd", types.StatusIdle, types.StatusDND, 5},
		{"offline to offline", types.StatusOffline, types.StatusOffline, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, reg, _ := setupReconciler(t)
			join(r, types.GuildSnapshot{ID: "g1", Members: 10, Online: 5})
			r.Handle(context.Background(), types.PresenceUpdate{GuildID: "g1", UserID: "u", Before: tt.before, After: tt.after})
			assert.Equal(t, tt.want, testutil.Value(t, reg, metrics.Online, "g1"))
		})
	}
}

func TestMemberJoin(t *testing.T) {
	r, reg, h := setupReconciler(t)
	ctx := context.Background()
	join(r, types.GuildSnapshot{ID: "g1", Members: 2, Online: 1})

	r.Handle(ctx, types.MemberJoin{GuildID: "g1", UserID: "u1", Status: types.StatusOffline})
	assert.Equal(t, 3.0, testutil.Value(t, reg, metrics.Users, "g1"))
	assert.Equal(t, 1.0, testutil.Value(t, reg, metrics.Online, "g1"))

	r.Handle(ctx, types.MemberJoin{GuildID: "g1", UserID: "u2", Status: types.StatusDND})
	assert.Equal(t, 4.0, testutil.Value(t, reg, metrics.Users, "g1"))
	assert.Equal(t, 2.0, testutil.Value(t, reg, metrics.Online, "g1"))

	// unknown status is fetched live
	h.SetStatus("g1", "u3", types.StatusOnline)
	r.Handle(ctx, types.MemberJoin{GuildID: "g1", UserID: "u3"})
	assert.Equal(t, 5.0, testutil.Value(t, reg, metrics.Users, "g1"))
	assert.Equal(t, 3.0, testutil.Value(t, reg, metrics.Online, "g1"))
}

func TestMemberJoin_StatusFetchFails(t *testing.T) {
	r, reg, h := setupReconciler(t)
	join(r, types.GuildSnapshot{ID: "g1", Members: 2, Online: 1})
	h.StatusErr = errors.New("gateway down")

	r.Handle(context.Background(), types.MemberJoin{GuildID: "g1", UserID: "u1"})
	assert.Equal(t, 3.0, testutil.Value(t, reg, metrics.Users, "g1"))
	assert.Equal(t, 1.0, testutil.Value(t, reg, metrics.Online, "g1"))
}

func TestMemberLeave_NeverNegative(t *testing.T) {
	r, reg, _ := setupReconciler(t)
	join(r, types.GuildSnapshot{ID: "g1", Members: 0, Online: 0})

	r.Handle(context.Background(), types.MemberLeave{GuildID: "g1", UserID: "u1", Status: types.StatusOnline})
	assert.Equal(t, 0.0, testutil.Value(t, reg, metrics.Users, "g1"))
	assert.Equal(t, 0.0, testutil.Value(t, reg, metrics.Online, "g1"))
}

func TestChannelsAndThreads(t *testing.T) {
	r, reg, _ := setupReconciler(t)
	ctx := context.Background()
	join(r, types.GuildSnapshot{ID: "g1", Channels: 2, Threads: 0})

	r.Handle(ctx, types.ChannelCreate{GuildID: "g1", ChannelID: "c1"})
	r.Handle(ctx, types.ChannelCreate{GuildID: "g1", ChannelID: "c2"})
	r.Handle(ctx, types.ChannelDelete{GuildID: "g1", ChannelID: "c1"})
	r.Handle(ctx, types.ThreadCreate{GuildID: "g1", ThreadID: "t1"})

	assert.Equal(t, 3.0, testutil.Value(t, reg, metrics.Channels, "g1"))
	assert.Equal(t, 1.0, testutil.Value(t, reg, metrics.Threads, "g1"))

	r.Handle(ctx, types.ThreadDelete{GuildID: "g1", ThreadID: "t1"})
	assert.Equal(t, 0.0, testutil.Value(t, reg, metrics.Threads, "g1"))
}

func TestMessageCounters(t *testing.T) {
	r, reg, _ := setupReconciler(t)
	ctx := context.Background()

	r.Handle(ctx, types.MessageCreate{GuildID: "g1", MessageID: "m1"})
	r.Handle(ctx, types.MessageCreate{GuildID: "g1", MessageID: "m2"})
	r.Handle(ctx, types.MessageEdit{GuildID: "g1", MessageID: "m1"})
	r.Handle(ctx, types.MessageDelete{GuildID: "g1", MessageID: "m2"})
	r.Handle(ctx, types.MessageCreate{GuildID: "", MessageID: "dm"})

	assert.Equal(t, 2.0, testutil.Value(t, reg, metrics.Messages, "g1"))
	assert.Equal(t, 1.0, testutil.Value(t, reg, metrics.MessagesEdited, "g1"))
	assert.Equal(t, 1.0, testutil.Value(t, reg, metrics.MessagesDeleted, "g1"))
	assert.Equal(t, 1, reg.Series(metrics.Messages))
}

func TestCountersSurviveGuildLeave(t *testing.T) {
	r, reg, _ := setupReconciler(t)
	ctx := context.Background()
	join(r, types.GuildSnapshot{ID: "g1"})
	r.Handle(ctx, types.MessageCreate{GuildID: "g1"})
	r.Handle(ctx, types.GuildLeave{GuildID: "g1"})
	r.Handle(ctx, types.MessageCreate{GuildID: "g1"})

	assert.Equal(t, 2.0, testutil.Value(t, reg, metrics.Messages, "g1"))
}

func TestUntrackedGuild_Rederived(t *testing.T) {
	r, reg, h := setupReconciler(t)
	h.SetGuild(types.GuildSnapshot{ID: "g9", Name: "Late", Members: 6, Online: 2, Channels: 4})

	r.Handle(context.Background(), types.MemberJoin{GuildID: "g9", UserID: "u1", Status: types.StatusOnline})

	require.True(t, reg.HasGuild("g9"))
	assert.Equal(t, 6.0, testutil.Value(t, reg, metrics.Users, "g9"))
	assert.Equal(t, 2.0, testutil.Value(t, reg, metrics.Online, "g9"))
	assert.Equal(t, 1.0, testutil.Value(t, reg, metrics.Guilds))
}

func TestUntrackedGuild_UnknownToHost(t *testing.T) {
	r, reg, _ := setupReconciler(t)
	ctx := context.Background()

	assert.NotPanics(t, func() {
		r.Handle(ctx, types.ChannelCreate{GuildID: "ghost"})
		r.Handle(ctx, types.PresenceUpdate{GuildID: "ghost", Before: types.StatusOffline, After: types.StatusOnline})
		r.Handle(ctx, types.MemberLeave{GuildID: "ghost", Status: types.StatusOnline})
	})
	assert.False(t, reg.HasGuild("ghost"))
	assert.Equal(t, 0, reg.Series(metrics.Channels))
	assert.Equal(t, 0.0, testutil.Value(t, reg, metrics.Guilds))
}

func TestHandle_NilAndPointerEvents(t *testing.T) {
	r, reg, _ := setupReconciler(t)
	assert.NotPanics(t, func() {
		r.Handle(context.Background(), nil)
		r.Handle(context.Background(), &types.GuildJoin{Snapshot: types.GuildSnapshot{ID: "g1"}})
	})
	assert.False(t, reg.HasGuild("g1"))
}

func TestCountersMonotonicUnderDuplicates(t *testing.T) {
	r, reg, _ := setupReconciler(t)
	ctx := context.Background()
	events := []types.Event{
		types.MessageDelete{GuildID: "g1"},
		types.MessageCreate{GuildID: "g1"},
		types.MessageCreate{GuildID: "g1"},
		types.MessageDelete{GuildID: "g1"},
		types.MessageEdit{GuildID: "g1"},
		types.MessageEdit{GuildID: "g1"},
	}
	last := map[metrics.Name]float64{}
	for _, ev := range events {
		r.Handle(ctx, ev)
		for _, name := range []metrics.Name{metrics.Messages, metrics.MessagesEdited, metrics.MessagesDeleted} {
			v, _ := reg.Value(name, "g1")
			assert.GreaterOrEqual(t, v, last[name])
			last[name] = v
		}
	}
}
