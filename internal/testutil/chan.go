package testutil

import (
	"testing"
	"time"
)

// DefaultTimeout bounds every wait in these helpers. It only guards
// against hangs: the tests synchronize on events, not on wall time.
const DefaultTimeout = 5 * time.Second

// RequireReceive returns the next value from ch or fails the test.
func RequireReceive[T any](t testing.TB, ch <-chan T, msg string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(DefaultTimeout):
		t.Fatalf("timed out waiting: %s", msg)
		var zero T
		return zero
	}
}

// RequireNoReceive fails the test if ch delivers a value within wait.
func RequireNoReceive[T any](t testing.TB, ch <-chan T, wait time.Duration, msg string) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf("unexpected value %v: %s", v, msg)
	case <-time.After(wait):
	}
}
