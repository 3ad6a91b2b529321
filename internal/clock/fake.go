package clock

import (
	"sort"
	"sync"
	"time"
)

// FakeClock is a Clock whose time only moves when the test says so.
// Callbacks whose deadline is reached by Advance or Set run in their own
// goroutines, in deadline order of launch, like time.AfterFunc.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
	waiters []*fakeWaiter
	changed *sync.Cond
}

type fakeWaiter struct {
	deadline time.Time
	callback func()
	done     bool
}

// Fake returns a FakeClock stopped at initial.
func Fake(initial time.Time) *FakeClock {
	c := &FakeClock{current: initial}
	c.changed = sync.NewCond(&c.mu)
	return c
}

// Now returns the fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// AfterFunc registers f to run once the clock reaches now+d. A
// non-positive d runs f immediately.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) *Timer {
	if d <= 0 {
		go f()
		return &Timer{stopFunc: func() bool { return false }}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	w := &fakeWaiter{deadline: c.current.Add(d), callback: f}
	c.waiters = append(c.waiters, w)
	c.changed.Broadcast()

	return &Timer{stopFunc: func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		if w.done {
			return false
		}
		w.done = true
		c.removeLocked(w)
		return true
	}}
}

// Advance moves the clock forward by d and fires every due callback.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	c.fireLocked()
	c.mu.Unlock()
}

// Set moves the clock to t, which may be in the past, and fires every
// due callback.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.fireLocked()
	c.mu.Unlock()
}

// WaitForTimers blocks until at least n callbacks are pending. Use it to
// close the race between code arming a timer and the test advancing.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.waiters) < n {
		c.changed.Wait()
	}
}

// PendingCount returns the number of callbacks that have not fired.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

// NextDeadline returns the earliest pending deadline.
func (c *FakeClock) NextDeadline() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.waiters) == 0 {
		return time.Time{}, false
	}
	earliest := c.waiters[0].deadline
	for _, w := range c.waiters[1:] {
		if w.deadline.Before(earliest) {
			earliest = w.deadline
		}
	}
	return earliest, true
}

func (c *FakeClock) fireLocked() {
	var due, remaining []*fakeWaiter
	for _, w := range c.waiters {
		if !w.deadline.After(c.current) {
			w.done = true
			due = append(due, w)
		} else {
			remaining = append(remaining, w)
		}
	}
	c.waiters = remaining
	c.changed.Broadcast()

	sort.SliceStable(due, func(i, j int) bool {
		return due[i].deadline.Before(due[j].deadline)
	})
	for _, w := range due {
		go w.callback()
	}
}

func (c *FakeClock) removeLocked(target *fakeWaiter) {
	for i, w := range c.waiters {
		if w == target {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			break
		}
	}
	c.changed.Broadcast()
}
