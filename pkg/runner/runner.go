// Package runner runs callbacks on schedules.
//
// Each task owns a single timer armed for its next event. When the timer
// fires the callback runs, and the task then searches for the following
// event and re-arms. Start, Stop and UpdateSchedule bump a per-task
// generation so a timer armed by an earlier generation does nothing when
// it fires.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/thomasrohde/schyntax/internal/clock"
	"github.com/thomasrohde/schyntax/pkg/schedule"
	"github.com/thomasrohde/schyntax/pkg/store"
)

var (
	// ErrDuplicateTask is returned when a task name is already registered.
	ErrDuplicateTask = errors.New("runner: a task with this name already exists")
	// ErrTaskRunning is returned by RemoveTask for a task that was not stopped.
	ErrTaskRunning = errors.New("runner: task is still running")
	// ErrDetached is returned when starting a task that was removed.
	ErrDetached = errors.New("runner: task is not attached to a runner")
)

// Run describes one invocation of a task callback.
type Run struct {
	Task    string
	ID      string
	Event   time.Time // the scheduled instant
	Started time.Time
}

// Func is the work a task performs.
type Func func(ctx context.Context, run Run) error

// ErrorHandler receives callback failures and fatal schedule errors.
type ErrorHandler func(task *Task, err error)

// TaskOptions configures a task at registration.
type TaskOptions struct {
	// NoAutoRun registers the task without starting it.
	NoAutoRun bool
	// LastKnownRun is when the task last ran. Zero loads it from the store.
	LastKnownRun time.Time
	// Window lets a start run the most recent event immediately when it
	// was missed by less than Window.
	Window time.Duration
	// RunAllMissed runs every event that passed while a slow callback was
	// executing instead of skipping to the next future event.
	RunAllMissed bool
}

// Runner owns a set of named tasks.
type Runner struct {
	mu    sync.Mutex
	tasks map[string]*Task

	clock   clock.Clock
	logger  *slog.Logger
	store   *store.Store
	onError ErrorHandler

	ctx      context.Context
	cancel   context.CancelFunc
	inFlight sync.WaitGroup
}

// Option is a functional option for configuring the Runner.
type Option func(*Runner)

// WithClock sets the time source.
func WithClock(c clock.Clock) Option {
	return func(r *Runner) {
		r.clock = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// WithStore persists the last run of every task.
func WithStore(s *store.Store) Option {
	return func(r *Runner) {
		r.store = s
	}
}

// WithErrorHandler replaces the default handler, which logs.
func WithErrorHandler(h ErrorHandler) Option {
	return func(r *Runner) {
		r.onError = h
	}
}

// New creates a Runner with the given options.
func New(opts ...Option) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		tasks:  make(map[string]*Task),
		clock:  clock.Real(),
		logger: slog.Default(),
		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AddTask compiles text and registers it under name.
func (r *Runner) AddTask(name, text string, fn Func, opts TaskOptions) (*Task, error) {
	s, err := schedule.Compile(text)
	if err != nil {
		return nil, fmt.Errorf("runner: task %s: %w", name, err)
	}
	return r.AddSchedule(name, s, fn, opts)
}

// AddSchedule registers a compiled schedule under name and, unless
// opts.NoAutoRun is set, starts it. A task that fails to start is not
// kept.
func (r *Runner) AddSchedule(name string, s *schedule.Schedule, fn Func, opts TaskOptions) (*Task, error) {
	if name == "" {
		return nil, errors.New("runner: task name is empty")
	}
	if s == nil || fn == nil {
		return nil, fmt.Errorf("runner: task %s: schedule and callback are required", name)
	}

	t := &Task{
		name:         name,
		runner:       r,
		fn:           fn,
		window:       opts.Window,
		runAllMissed: opts.RunAllMissed,
		schedule:     s,
		attached:     true,
	}

	r.mu.Lock()
	if _, ok := r.tasks[name]; ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrDuplicateTask, name)
	}
	r.tasks[name] = t
	r.mu.Unlock()

	if opts.NoAutoRun {
		return t, nil
	}

	lastKnown := opts.LastKnownRun
	if lastKnown.IsZero() && r.store != nil {
		st, ok, err := r.store.LoadTask(name)
		if err != nil {
			r.logger.Warn("cannot load task state", "task", name, "error", err)
		} else if ok {
			lastKnown = st.LastRun
		}
	}
	if err := t.Start(lastKnown); err != nil {
		r.mu.Lock()
		delete(r.tasks, name)
		r.mu.Unlock()
		t.detach()
		return nil, err
	}
	return t, nil
}

// Task returns the task registered under name.
func (r *Runner) Task(name string) (*Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[name]
	return t, ok
}

// Tasks returns every registered task ordered by name.
func (r *Runner) Tasks() []*Task {
	r.mu.Lock()
	out := make([]*Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		out = append(out, t)
	}
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// RemoveTask unregisters a stopped task. It reports false when no task
// has that name.
func (r *Runner) RemoveTask(name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[name]
	if !ok {
		return false, nil
	}
	if t.IsRunning() {
		return false, fmt.Errorf("%w: %s", ErrTaskRunning, name)
	}
	t.detach()
	delete(r.tasks, name)
	return true, nil
}

// Shutdown stops every task and waits for running callbacks to return.
// If ctx ends first, the context passed to the callbacks is cancelled and
// ctx's error is returned.
func (r *Runner) Shutdown(ctx context.Context) error {
	for _, t := range r.Tasks() {
		t.Stop()
	}

	done := make(chan struct{})
	go func() {
		r.inFlight.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.cancel()
		return nil
	case <-ctx.Done():
		r.cancel()
		return ctx.Err()
	}
}

func (r *Runner) reportError(t *Task, err error) {
	if r.onError != nil {
		r.onError(t, err)
		return
	}
	r.logger.Error("task failed", "task", t.name, "error", err)
}

func (r *Runner) record(t *Task, text string, run Run) {
	if r.store == nil {
		return
	}
	err := r.store.SaveTask(store.TaskState{
		Name:      t.name,
		Schedule:  text,
		LastRun:   run.Event,
		LastRunID: run.ID,
		UpdatedAt: r.clock.Now().UTC(),
	})
	if err != nil {
		r.reportError(t, fmt.Errorf("runner: save state of %s: %w", t.name, err))
	}
}
