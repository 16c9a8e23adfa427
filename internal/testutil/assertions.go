package testutil

import (
	"testing"
	"time"

	"github.com/dwsmith1983/guildmetrics/internal/metrics"
)

// WaitFor polls check every 10ms until it returns true or timeout is reached.
func WaitFor(t *testing.T, timeout time.Duration, check func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if check() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for condition: %s", msg)
}

// WaitForValue polls until a registry series exists with the wanted value.
func WaitForValue(t *testing.T, reg *metrics.Registry, name metrics.Name, want float64, timeout time.Duration, lvs ...string) {
	t.Helper()
	WaitFor(t, timeout, func() bool {
		v, ok := reg.Value(name, lvs...)
		return ok && v == want
	}, string(name)+" reaches expected value")
}

// Value returns a series value, failing the test if it is absent.
func Value(t *testing.T, reg *metrics.Registry, name metrics.Name, lvs ...string) float64 {
	t.Helper()
	v, ok := reg.Value(name, lvs...)
	if !ok {
		t.Fatalf("series %s%v is absent", name, lvs)
	}
	return v
}
