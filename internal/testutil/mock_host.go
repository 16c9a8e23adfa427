// Package testutil provides shared test utilities for guildmetrics.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dwsmith1983/guildmetrics/internal/host"
	"github.com/dwsmith1983/guildmetrics/pkg/types"
)

// Compile-time interface satisfaction check.
var _ host.Host = (*MockHost)(nil)

// MockHost is an in-memory Host implementation for testing.
type MockHost struct {
	mu        sync.Mutex
	guilds    map[string]types.GuildSnapshot
	statuses  map[string]types.Status // key: "guildID:userID"
	reactors  map[string][]string     // key: "channelID:messageID:emoji"
	latency   time.Duration
	ready     chan struct{}
	readyOnce sync.Once

	GuildsErr   error
	GuildErr    error
	StatusErr   error
	ReactorsErr error

	guildsCalls   atomic.Int64
	reactorsCalls atomic.Int64
}

// NewMockHost creates a mock host that is already ready.
func NewMockHost() *MockHost {
	m := NewPendingMockHost()
	m.MarkReady()
	return m
}

// NewPendingMockHost creates a mock host whose Ready blocks until MarkReady.
func NewPendingMockHost() *MockHost {
	return &MockHost{
		guilds:   make(map[string]types.GuildSnapshot),
		statuses: make(map[string]types.Status),
		reactors: make(map[string][]string),
		ready:    make(chan struct{}),
	}
}

// MarkReady releases every Ready caller.
func (m *MockHost) MarkReady() {
	m.readyOnce.Do(func() { close(m.ready) })
}

func (m *MockHost) Ready(ctx context.Context) error {
	select {
	case <-m.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetGuild stores or replaces a guild snapshot.
func (m *MockHost) SetGuild(s types.GuildSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.guilds[s.ID] = s
}

// RemoveGuild forgets a guild.
func (m *MockHost) RemoveGuild(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.guilds, id)
}

func (m *MockHost) Guilds(_ context.Context) ([]types.GuildSnapshot, error) {
	m.guildsCalls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GuildsErr != nil {
		return nil, m.GuildsErr
	}
	out := make([]types.GuildSnapshot, 0, len(m.guilds))
	for _, g := range m.guilds {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockHost) Guild(_ context.Context, guildID string) (types.GuildSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GuildErr != nil {
		return types.GuildSnapshot{}, m.GuildErr
	}
	g, ok := m.guilds[guildID]
	if !ok {
		return types.GuildSnapshot{}, fmt.Errorf("guild %s: %w", guildID, host.ErrUnknownGuild)
	}
	return g, nil
}

// SetStatus stores a member's live presence.
func (m *MockHost) SetStatus(guildID, userID string, status types.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[guildID+":"+userID] = status
}

func (m *MockHost) MemberStatus(_ context.Context, guildID, userID string) (types.Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StatusErr != nil {
		return types.StatusUnknown, m.StatusErr
	}
	if s, ok := m.statuses[guildID+":"+userID]; ok {
		return s, nil
	}
	return types.StatusOffline, nil
}

// SetReactors replaces the reactor list of a message/emoji pair.
func (m *MockHost) SetReactors(channelID, messageID, emoji string, userIDs ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reactors[channelID+":"+messageID+":"+emoji] = userIDs
}

func (m *MockHost) Reactors(_ context.Context, channelID, messageID, emojiAPIName string) ([]string, error) {
	m.reactorsCalls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReactorsErr != nil {
		return nil, m.ReactorsErr
	}
	users := m.reactors[channelID+":"+messageID+":"+emojiAPIName]
	return append([]string(nil), users...), nil
}

// SetLatency sets the value returned by Latency.
func (m *MockHost) SetLatency(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latency = d
}

func (m *MockHost) Latency() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latency
}

// GuildsCalls returns how many times Guilds was called.
func (m *MockHost) GuildsCalls() int64 {
	return m.guildsCalls.Load()
}

// ReactorsCalls returns how many times Reactors was called.
func (m *MockHost) ReactorsCalls() int64 {
	return m.reactorsCalls.Load()
}
