package heartbeat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"github.com/dwsmith1983/guildmetrics/internal/metrics"
	"github.com/dwsmith1983/guildmetrics/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSample(t *testing.T) {
	h := testutil.NewMockHost()
	h.SetLatency(42 * time.Millisecond)
	reg := metrics.New()
	r := New(h, reg, time.Minute, nil)

	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	r.started = start
	r.now = func() time.Time { return start.Add(90 * time.Second) }

	r.Sample()
	assert.Equal(t, 90.0, testutil.Value(t, reg, metrics.Uptime))
	assert.InDelta(t, 0.042, testutil.Value(t, reg, metrics.Latency), 1e-9)

	// each sample overwrites the previous one
	r.now = func() time.Time { return start.Add(120 * time.Second) }
	h.SetLatency(10 * time.Millisecond)
	r.Sample()
	assert.Equal(t, 120.0, testutil.Value(t, reg, metrics.Uptime))
	assert.InDelta(t, 0.010, testutil.Value(t, reg, metrics.Latency), 1e-9)
}

func TestStart_SamplesAfterReady(t *testing.T) {
	h := testutil.NewPendingMockHost()
	h.SetLatency(5 * time.Millisecond)
	reg := metrics.New()
	r := New(h, reg, time.Hour, nil)

	r.Start(context.Background())
	time.Sleep(20 * time.Millisecond)
	_, ok := reg.Value(metrics.Uptime)
	assert.False(t, ok, "no sample before the host is ready")

	h.MarkReady()
	testutil.WaitFor(t, time.Second, func() bool {
		_, ok := reg.Value(metrics.Latency)
		return ok
	}, "first heartbeat sample")

	r.Stop(context.Background())
}

func TestStart_Ticks(t *testing.T) {
	h := testutil.NewMockHost()
	reg := metrics.New()
	r := New(h, reg, 10*time.Millisecond, nil)

	r.Start(context.Background())
	var first float64
	testutil.WaitFor(t, time.Second, func() bool {
		v, ok := reg.Value(metrics.Uptime)
		first = v
		return ok
	}, "first sample")
	testutil.WaitFor(t, time.Second, func() bool {
		v, _ := reg.Value(metrics.Uptime)
		return v > first
	}, "uptime advances")

	r.Stop(context.Background())
}

// stuckHost blocks Latency until release is closed.
type stuckHost struct {
	*testutil.MockHost
	entered chan struct{}
	release chan struct{}
}

func (h *stuckHost) Latency() time.Duration {
	close(h.entered)
	<-h.release
	return 0
}

func TestStop_BoundedByContext(t *testing.T) {
	h := &stuckHost{
		MockHost: testutil.NewMockHost(),
		entered:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	r := New(h, metrics.New(), time.Hour, nil)
	r.Start(context.Background())

	select {
	case <-h.entered:
	case <-time.After(time.Second):
		t.Fatal("first sample never started")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	begin := time.Now()
	r.Stop(ctx)
	assert.Less(t, time.Since(begin), time.Second, "Stop should give up when ctx ends")

	close(h.release)
	r.wg.Wait()
}
