package runner

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/thomasrohde/schyntax/internal/clock"
	"github.com/thomasrohde/schyntax/pkg/schedule"
)

// Task is a callback bound to a schedule. All methods are safe for
// concurrent use.
type Task struct {
	name         string
	runner       *Runner
	fn           Func
	window       time.Duration
	runAllMissed bool

	mu         sync.Mutex
	schedule   *schedule.Schedule
	attached   bool
	running    bool
	generation uint64
	timer      *clock.Timer
	nextEvent  time.Time
	prevEvent  time.Time
	executing  int
}

// Name returns the name the task was registered under.
func (t *Task) Name() string { return t.name }

// Schedule returns the current schedule.
func (t *Task) Schedule() *schedule.Schedule {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.schedule
}

// NextEvent returns the instant the task is armed for. It is meaningless
// while the task is stopped.
func (t *Task) NextEvent() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.nextEvent
}

// PrevEvent returns the instant of the most recent run.
func (t *Task) PrevEvent() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.prevEvent
}

// IsRunning reports whether the task is started.
func (t *Task) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// IsCallbackExecuting reports whether a callback is in progress.
func (t *Task) IsCallbackExecuting() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.executing > 0
}

// Start arms the task. When a window is configured and lastKnownRun is
// set, an event missed by less than the window runs immediately. An event
// at or before the last run of this task is never run again. Starting a
// running task does nothing.
func (t *Task) Start(lastKnownRun time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.attached {
		return fmt.Errorf("%w: %s", ErrDetached, t.name)
	}
	if t.running {
		return nil
	}

	now := t.runner.clock.Now()
	var first time.Time
	if t.window > 0 && !lastKnownRun.IsZero() {
		prev, err := t.schedule.Previous(now)
		if err == nil && prev.After(lastKnownRun.Add(time.Second)) && prev.After(now.Add(-t.window)) {
			first = prev
		}
	}
	if first.IsZero() {
		next, err := t.schedule.Next(now)
		if err != nil {
			return fmt.Errorf("runner: start %s: %w", t.name, err)
		}
		first = next
	}
	for !t.prevEvent.IsZero() && !first.After(t.prevEvent) {
		next, err := t.schedule.Next(first)
		if err != nil {
			return fmt.Errorf("runner: start %s: %w", t.name, err)
		}
		first = next
	}

	t.generation++
	t.running = true
	t.armLocked(t.generation, first, now)
	return nil
}

// Stop disarms the task. A callback already executing runs to completion.
func (t *Task) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

// UpdateSchedule replaces the schedule and restarts the task, treating
// the most recent run as the last known run.
func (t *Task) UpdateSchedule(s *schedule.Schedule) error {
	t.mu.Lock()
	t.stopLocked()
	t.schedule = s
	prev := t.prevEvent
	t.mu.Unlock()

	return t.Start(prev)
}

func (t *Task) stopLocked() {
	if !t.running {
		return
	}
	t.running = false
	t.generation++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func (t *Task) detach() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.attached = false
}

func (t *Task) armLocked(gen uint64, event, now time.Time) {
	t.nextEvent = event
	t.timer = t.runner.clock.AfterFunc(event.Sub(now), func() { t.fire(gen, event) })
	t.runner.logger.Debug("task armed", "task", t.name, "event", event)
}

func (t *Task) fire(gen uint64, event time.Time) {
	r := t.runner

	t.mu.Lock()
	if gen != t.generation {
		t.mu.Unlock()
		return
	}
	t.prevEvent = event
	t.executing++
	text := t.schedule.String()
	r.inFlight.Add(1)
	t.mu.Unlock()
	defer r.inFlight.Done()

	run := Run{Task: t.name, ID: uuid.NewString(), Event: event, Started: r.clock.Now()}
	if err := t.invoke(run); err != nil {
		r.reportError(t, err)
	}
	r.logger.Info("task ran", "task", t.name, "run_id", run.ID, "event", event,
		"duration", r.clock.Now().Sub(run.Started))
	r.record(t, text, run)

	t.mu.Lock()
	t.executing--
	if gen != t.generation {
		t.mu.Unlock()
		return
	}

	now := r.clock.Now()
	next, err := t.schedule.Next(event)
	if err == nil && !t.runAllMissed && next.Before(now) {
		next, err = t.schedule.Next(now)
	}
	if err != nil {
		t.running = false
		t.generation++
		t.mu.Unlock()
		r.reportError(t, fmt.Errorf("runner: task %s stopped: %w", t.name, err))
		return
	}
	t.armLocked(gen, next, now)
	t.mu.Unlock()
}

func (t *Task) invoke(run Run) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("runner: task %s panicked: %v", t.name, p)
		}
	}()
	return t.fn(t.runner.ctx, run)
}
