package runner_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/thomasrohde/schyntax/internal/clock"
	"github.com/thomasrohde/schyntax/internal/testutil"
	"github.com/thomasrohde/schyntax/pkg/runner"
	"github.com/thomasrohde/schyntax/pkg/schedule"
	"github.com/thomasrohde/schyntax/pkg/store"
)

var start = time.Date(2021, 1, 1, 0, 0, 30, 0, time.UTC)

func at(minute, second int) time.Time {
	return time.Date(2021, 1, 1, 0, minute, second, 0, time.UTC)
}

// recorder is a task callback that reports every run on a channel.
type recorder struct {
	runs chan runner.Run
}

func newRecorder() *recorder {
	return &recorder{runs: make(chan runner.Run, 16)}
}

func (r *recorder) fn(ctx context.Context, run runner.Run) error {
	r.runs <- run
	return nil
}

// errorSink collects errors from the runner's error handler.
type errorSink struct {
	errs chan error
}

func newErrorSink() *errorSink {
	return &errorSink{errs: make(chan error, 16)}
}

func (s *errorSink) handle(_ *runner.Task, err error) {
	s.errs <- err
}

func newRunner(t *testing.T, fake *clock.FakeClock, opts ...runner.Option) *runner.Runner {
	t.Helper()
	r := runner.New(append([]runner.Option{runner.WithClock(fake)}, opts...)...)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), testutil.DefaultTimeout)
		defer cancel()
		r.Shutdown(ctx)
	})
	return r
}

func TestRunsEachEvent(t *testing.T) {
	fake := clock.Fake(start)
	r := newRunner(t, fake)
	rec := newRecorder()

	task, err := r.AddTask("tick", "s(0)", rec.fn, runner.TaskOptions{})
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	if !task.IsRunning() {
		t.Fatal("task should auto-run")
	}
	if got := task.NextEvent(); !got.Equal(at(1, 0)) {
		t.Fatalf("NextEvent = %s, want %s", got, at(1, 0))
	}

	fake.WaitForTimers(1)
	fake.Advance(30 * time.Second)
	run := testutil.RequireReceive(t, rec.runs, "first run")
	if !run.Event.Equal(at(1, 0)) || run.Task != "tick" || run.ID == "" {
		t.Errorf("unexpected run %+v", run)
	}

	fake.WaitForTimers(1)
	if got := task.NextEvent(); !got.Equal(at(2, 0)) {
		t.Errorf("NextEvent after run = %s, want %s", got, at(2, 0))
	}
	if got := task.PrevEvent(); !got.Equal(at(1, 0)) {
		t.Errorf("PrevEvent = %s, want %s", got, at(1, 0))
	}

	fake.Advance(time.Minute)
	second := testutil.RequireReceive(t, rec.runs, "second run")
	if !second.Event.Equal(at(2, 0)) {
		t.Errorf("second event = %s", second.Event)
	}
	if second.ID == run.ID {
		t.Error("runs must have distinct IDs")
	}
}

func TestNoAutoRun(t *testing.T) {
	fake := clock.Fake(start)
	r := newRunner(t, fake)
	task, err := r.AddTask("idle", "s(0)", newRecorder().fn, runner.TaskOptions{NoAutoRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if task.IsRunning() || fake.PendingCount() != 0 {
		t.Error("task should not be armed")
	}
	if err := task.Start(time.Time{}); err != nil {
		t.Fatal(err)
	}
	if !task.IsRunning() || fake.PendingCount() != 1 {
		t.Error("Start should arm the task")
	}
}

func TestWindowRunsMissedEvent(t *testing.T) {
	fake := clock.Fake(start)
	r := newRunner(t, fake)
	rec := newRecorder()

	_, err := r.AddTask("catchup", "s(0)", rec.fn, runner.TaskOptions{
		LastKnownRun: at(0, 0).Add(-time.Minute),
		Window:       5 * time.Minute,
	})
	if err != nil {
		t.Fatal(err)
	}
	run := testutil.RequireReceive(t, rec.runs, "immediate catch-up run")
	if !run.Event.Equal(at(0, 0)) {
		t.Errorf("catch-up event = %s, want %s", run.Event, at(0, 0))
	}
}

func TestWindowSkipsEventAlreadyRun(t *testing.T) {
	fake := clock.Fake(start)
	r := newRunner(t, fake)
	rec := newRecorder()

	task, err := r.AddTask("caught-up", "s(0)", rec.fn, runner.TaskOptions{
		LastKnownRun: at(0, 0),
		Window:       5 * time.Minute,
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := task.NextEvent(); !got.Equal(at(1, 0)) {
		t.Errorf("NextEvent = %s, want %s", got, at(1, 0))
	}
	testutil.RequireNoReceive(t, rec.runs, 50*time.Millisecond, "no run expected")
}

func TestWindowTooOld(t *testing.T) {
	fake := clock.Fake(start)
	r := newRunner(t, fake)

	task, err := r.AddTask("stale", "h(0)", newRecorder().fn, runner.TaskOptions{
		LastKnownRun: at(0, 0).AddDate(0, 0, -2),
		Window:       10 * time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}
	if want := at(0, 0).AddDate(0, 0, 1); !task.NextEvent().Equal(want) {
		t.Errorf("NextEvent = %s, want %s", task.NextEvent(), want)
	}
}

func TestStop(t *testing.T) {
	fake := clock.Fake(start)
	r := newRunner(t, fake)
	rec := newRecorder()

	task, err := r.AddTask("stoppable", "s(0)", rec.fn, runner.TaskOptions{})
	if err != nil {
		t.Fatal(err)
	}
	task.Stop()
	if task.IsRunning() {
		t.Error("task still running after Stop")
	}
	if n := fake.PendingCount(); n != 0 {
		t.Errorf("pending timers = %d, want 0", n)
	}
	fake.Advance(time.Hour)
	testutil.RequireNoReceive(t, rec.runs, 50*time.Millisecond, "stopped task ran")
}

func TestCallbackErrorsKeepLoop(t *testing.T) {
	fake := clock.Fake(start)
	sink := newErrorSink()
	r := newRunner(t, fake, runner.WithErrorHandler(sink.handle))

	var mu sync.Mutex
	calls := 0
	task, err := r.AddTask("flaky", "s(0)", func(ctx context.Context, run runner.Run) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 1 {
			return errors.New("boom")
		}
		panic("kaboom")
	}, runner.TaskOptions{})
	if err != nil {
		t.Fatal(err)
	}

	fake.WaitForTimers(1)
	fake.Advance(30 * time.Second)
	if err := testutil.RequireReceive(t, sink.errs, "callback error"); err.Error() != "boom" {
		t.Errorf("err = %v, want boom", err)
	}

	fake.WaitForTimers(1)
	fake.Advance(time.Minute)
	if err := testutil.RequireReceive(t, sink.errs, "panic"); err == nil {
		t.Error("expected panic to be reported")
	}

	fake.WaitForTimers(1)
	if !task.IsRunning() {
		t.Error("errors must not stop the task")
	}
}

func TestNoValidTimeStopsTask(t *testing.T) {
	fake := clock.Fake(start)
	sink := newErrorSink()
	r := newRunner(t, fake, runner.WithErrorHandler(sink.handle))
	rec := newRecorder()

	task, err := r.AddTask("once", "dates(2021/1/1) h(0) m(1)", rec.fn, runner.TaskOptions{})
	if err != nil {
		t.Fatal(err)
	}
	fake.WaitForTimers(1)
	fake.Advance(30 * time.Second)
	testutil.RequireReceive(t, rec.runs, "single run")

	err = testutil.RequireReceive(t, sink.errs, "schedule exhausted")
	if !errors.Is(err, schedule.ErrNoValidTime) {
		t.Errorf("err = %v, want ErrNoValidTime", err)
	}
	if task.IsRunning() {
		t.Error("task should stop once the schedule is exhausted")
	}
}

func TestAddTaskErrors(t *testing.T) {
	fake := clock.Fake(start)
	r := newRunner(t, fake)
	fn := newRecorder().fn

	if _, err := r.AddTask("bad", "h(25)", fn, runner.TaskOptions{}); err == nil {
		t.Error("expected compile error")
	}
	var de *schedule.DiagnosticError
	if _, err := r.AddTask("bad", "h(25)", fn, runner.TaskOptions{}); !errors.As(err, &de) {
		t.Errorf("err = %v, want *schedule.DiagnosticError", err)
	}

	if _, err := r.AddTask("dup", "s(0)", fn, runner.TaskOptions{}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.AddTask("dup", "s(0)", fn, runner.TaskOptions{}); !errors.Is(err, runner.ErrDuplicateTask) {
		t.Errorf("err = %v, want ErrDuplicateTask", err)
	}

	if _, err := r.AddTask("past", "dates(2020/1/1)", fn, runner.TaskOptions{}); !errors.Is(err, schedule.ErrNoValidTime) {
		t.Errorf("err = %v, want ErrNoValidTime", err)
	}
	if _, ok := r.Task("past"); ok {
		t.Error("a task that failed to start must not stay registered")
	}
}

func TestRemoveTask(t *testing.T) {
	fake := clock.Fake(start)
	r := newRunner(t, fake)
	task, err := r.AddTask("temp", "s(0)", newRecorder().fn, runner.TaskOptions{})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := r.RemoveTask("temp"); !errors.Is(err, runner.ErrTaskRunning) {
		t.Errorf("err = %v, want ErrTaskRunning", err)
	}
	task.Stop()
	if ok, err := r.RemoveTask("temp"); !ok || err != nil {
		t.Errorf("RemoveTask = %v, %v", ok, err)
	}
	if ok, _ := r.RemoveTask("temp"); ok {
		t.Error("second RemoveTask should report false")
	}
	if err := task.Start(time.Time{}); !errors.Is(err, runner.ErrDetached) {
		t.Errorf("Start after removal: err = %v, want ErrDetached", err)
	}
}

func TestTasksOrdered(t *testing.T) {
	fake := clock.Fake(start)
	r := newRunner(t, fake)
	for _, name := range []string{"c", "a", "b"} {
		if _, err := r.AddTask(name, "s(0)", newRecorder().fn, runner.TaskOptions{NoAutoRun: true}); err != nil {
			t.Fatal(err)
		}
	}
	tasks := r.Tasks()
	if len(tasks) != 3 || tasks[0].Name() != "a" || tasks[2].Name() != "c" {
		t.Errorf("unexpected order")
	}
}

func TestUpdateSchedule(t *testing.T) {
	fake := clock.Fake(start)
	r := newRunner(t, fake)
	task, err := r.AddTask("changing", "s(0)", newRecorder().fn, runner.TaskOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if err := task.UpdateSchedule(schedule.MustCompile("s(45)")); err != nil {
		t.Fatal(err)
	}
	if got := task.NextEvent(); !got.Equal(at(0, 45)) {
		t.Errorf("NextEvent = %s, want %s", got, at(0, 45))
	}
	if task.Schedule().String() != "s(45)" {
		t.Errorf("Schedule = %s", task.Schedule())
	}
	if n := fake.PendingCount(); n != 1 {
		t.Errorf("pending timers = %d, want 1", n)
	}
}

// slowTask blocks its first run until release is closed.
func slowTask(rec *recorder, release <-chan struct{}) runner.Func {
	var once sync.Once
	return func(ctx context.Context, run runner.Run) error {
		rec.runs <- run
		once.Do(func() { <-release })
		return nil
	}
}

func TestSlowCallbackSkipsMissedEvents(t *testing.T) {
	fake := clock.Fake(start)
	r := newRunner(t, fake)
	rec := newRecorder()
	release := make(chan struct{})

	task, err := r.AddTask("slow", "s(0)", slowTask(rec, release), runner.TaskOptions{})
	if err != nil {
		t.Fatal(err)
	}
	fake.WaitForTimers(1)
	fake.Advance(30 * time.Second)
	testutil.RequireReceive(t, rec.runs, "first run")
	if !task.IsCallbackExecuting() {
		t.Error("callback should be executing")
	}

	fake.Set(at(5, 30))
	close(release)
	fake.WaitForTimers(1)
	if got := task.NextEvent(); !got.Equal(at(6, 0)) {
		t.Errorf("NextEvent = %s, want %s", got, at(6, 0))
	}
}

func TestSlowCallbackRunAllMissed(t *testing.T) {
	fake := clock.Fake(start)
	r := newRunner(t, fake)
	rec := newRecorder()
	release := make(chan struct{})

	_, err := r.AddTask("thorough", "s(0)", slowTask(rec, release), runner.TaskOptions{RunAllMissed: true})
	if err != nil {
		t.Fatal(err)
	}
	fake.WaitForTimers(1)
	fake.Advance(30 * time.Second)
	testutil.RequireReceive(t, rec.runs, "first run")

	fake.Set(at(5, 30))
	close(release)
	run := testutil.RequireReceive(t, rec.runs, "missed run")
	if !run.Event.Equal(at(2, 0)) {
		t.Errorf("missed event = %s, want %s", run.Event, at(2, 0))
	}
}

func TestStorePersistsLastRun(t *testing.T) {
	st, err := store.Open(store.Options{InMemory: true})
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	fake := clock.Fake(start)
	r := newRunner(t, fake, runner.WithStore(st))
	rec := newRecorder()
	if _, err := r.AddTask("persisted", "s(0)", rec.fn, runner.TaskOptions{}); err != nil {
		t.Fatal(err)
	}
	fake.WaitForTimers(1)
	fake.Advance(30 * time.Second)
	run := testutil.RequireReceive(t, rec.runs, "run")
	fake.WaitForTimers(1)

	state, ok, err := st.LoadTask("persisted")
	if err != nil || !ok {
		t.Fatalf("LoadTask = %v, %v", ok, err)
	}
	if !state.LastRun.Equal(at(1, 0)) || state.LastRunID != run.ID || state.Schedule != "s(0)" {
		t.Errorf("unexpected state %+v", state)
	}
}

func TestStoreSuppliesLastKnownRun(t *testing.T) {
	st, err := store.Open(store.Options{InMemory: true})
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	if err := st.SaveTask(store.TaskState{Name: "resumed", Schedule: "s(0)", LastRun: at(0, 0)}); err != nil {
		t.Fatal(err)
	}

	fake := clock.Fake(start)
	r := newRunner(t, fake, runner.WithStore(st))
	rec := newRecorder()
	task, err := r.AddTask("resumed", "s(0)", rec.fn, runner.TaskOptions{Window: time.Hour})
	if err != nil {
		t.Fatal(err)
	}
	if got := task.NextEvent(); !got.Equal(at(1, 0)) {
		t.Errorf("NextEvent = %s, want %s", got, at(1, 0))
	}
	testutil.RequireNoReceive(t, rec.runs, 50*time.Millisecond, "event already ran before restart")
}

func TestShutdownWaitsForCallbacks(t *testing.T) {
	fake := clock.Fake(start)
	r := runner.New(runner.WithClock(fake))
	started := make(chan struct{})
	finished := make(chan struct{})

	_, err := r.AddTask("long", "s(0)", func(ctx context.Context, run runner.Run) error {
		close(started)
		<-ctx.Done()
		close(finished)
		return ctx.Err()
	}, runner.TaskOptions{})
	if err != nil {
		t.Fatal(err)
	}
	fake.WaitForTimers(1)
	fake.Advance(30 * time.Second)
	testutil.RequireReceive(t, started, "callback start")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := r.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Shutdown = %v, want DeadlineExceeded", err)
	}
	testutil.RequireReceive(t, finished, "callback cancelled")
}
