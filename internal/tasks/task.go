// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// =============================================================================
// PROGRESS HANDLE
// =============================================================================

// Progress is the handle an Action uses to report on itself.
type Progress interface {
	// DeclareGoal sets the total number of steps and how many are already
	// done. It must be the first progress call of every run; Start does not
	// return until it happens. A negative steps keeps the previous total.
	DeclareGoal(steps, done int)

	// Update records delta more steps done (delta may be negative).
	Update(delta int)

	// Stopping reports whether Stop has been requested.
	Stopping() bool
}

// KeepSteps can be passed to DeclareGoal to reuse the previous run's total.
const KeepSteps = -1

// Action is the function wrapped by a Task.
type Action[A, R any] func(p Progress, arg A) (R, error)

// =============================================================================
// DEFINITION
// =============================================================================

// Definition names a task and carries its options. It holds no run state and
// may be applied to any number of actions.
type Definition struct {
	Name string
	opts []Option
}

// Define creates a Definition.
func Define(name string, opts ...Option) Definition {
	return Definition{Name: name, opts: append([]Option(nil), opts...)}
}

// Apply wraps action in a new Task. Methods cannot carry type parameters,
// so this is a function rather than a method on Definition.
func Apply[A, R any](d Definition, action Action[A, R]) *Task[A, R] {
	o := defaultOptions()
	for _, opt := range d.opts {
		if opt != nil {
			opt(&o)
		}
	}
	return &Task[A, R]{
		name:   d.Name,
		action: action,
		opts:   o,
		log:    o.logger.With(zap.String("task", d.Name)),
		status: StatusIdle,
	}
}

// New is shorthand for Apply(Define(name, opts...), action).
func New[A, R any](name string, action Action[A, R], opts ...Option) *Task[A, R] {
	return Apply(Define(name, opts...), action)
}

// =============================================================================
// TASK STRUCTURE
// =============================================================================

// run holds the signals belonging to one invocation.
type run struct {
	id string

	// started is closed by the first DeclareGoal of the run.
	started     chan struct{}
	declareOnce sync.Once

	// exited is closed after the worker's bookkeeping is done.
	exited chan struct{}

	// consumed is guarded by Task.mu.
	consumed bool
}

// Task runs one Action at a time in a background goroutine and exposes its
// progress. A Task may be started again once its previous run has finished.
type Task[A, R any] struct {
	name   string
	action Action[A, R]
	opts   options
	log    *zap.Logger

	stopRequested atomic.Bool

	// mu guards everything below
	mu          sync.Mutex
	running     bool
	started     bool
	status      Status
	run         *run
	steps       int
	done        int
	goal        int
	since       time.Time
	updated     time.Time
	out         outcome[R]
	lastFailure error
}

// Name returns the descriptive name of the task.
func (t *Task[A, R]) Name() string {
	return t.name
}

// Status returns the lifecycle state of the current or most recent run.
func (t *Task[A, R]) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// RunID returns the ID of the current or most recent run, or "" if the task
// has never been started.
func (t *Task[A, R]) RunID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.run == nil {
		return ""
	}
	return t.run.id
}

// Started reports whether the current run has declared its goal and not yet
// finished.
func (t *Task[A, R]) Started() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.started
}

// LastFailure returns the failure captured by the most recent run, or nil.
// An ActionFailedError is recorded here too.
func (t *Task[A, R]) LastFailure() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastFailure
}

// =============================================================================
// INVOCATION
// =============================================================================

// Invoke runs the action to completion and returns its result.
func (t *Task[A, R]) Invoke(arg A) (R, error) {
	if err := t.Start(arg); err != nil {
		var zero R
		return zero, err
	}
	return t.Wait(context.Background())
}

// Start runs the action in a new goroutine and blocks until the action has
// declared its goal. If the worker exits first, Start returns an
// ActionFailedError and the task is left idle.
func (t *Task[A, R]) Start(arg A) error {
	if t.action == nil {
		return newBug(t.name, "no action to run", ErrNothingToDo)
	}

	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrAlreadyStarted, t.name)
	}

	r := &run{
		id:      uuid.NewString(),
		started: make(chan struct{}),
		exited:  make(chan struct{}),
	}
	now := t.opts.clock()
	t.running = true
	t.started = false
	t.status = StatusStarting
	t.run = r
	t.since = now
	t.updated = now
	t.steps = 0
	t.done = 0
	t.out = outcome[R]{}
	t.lastFailure = nil
	t.mu.Unlock()

	t.log.Debug("run starting", zap.String("run_id", r.id))

	go t.work(r, arg)

	t.mu.Lock()
	if t.run == r && t.status == StatusStarting {
		t.status = StatusAwaitingGoal
	}
	t.mu.Unlock()

	return t.awaitGoal(r)
}

// awaitGoal blocks until the run declares its goal or its worker exits.
func (t *Task[A, R]) awaitGoal(r *run) error {
	ticker := time.NewTicker(t.opts.pollInterval)
	defer ticker.Stop()

	polls := 0
	for {
		select {
		case <-r.started:
			return nil
		case <-r.exited:
			// A worker may declare its goal and finish before we get here.
			select {
			case <-r.started:
				return nil
			default:
			}
			return t.abort(r)
		case <-ticker.C:
			polls++
			t.log.Debug("awaiting goal", zap.String("run_id", r.id), zap.Int("polls", polls))
		}
	}
}

// abort marks a run that never declared its goal as not running.
// The run's outcome stays in the slot for Wait.
func (t *Task[A, R]) abort(r *run) error {
	t.mu.Lock()
	var cause error
	if t.out.kind == outcomeFailure {
		cause = t.out.err
	}
	err := &ActionFailedError{Task: t.name, RunID: r.id, Cause: cause}
	t.running = false
	t.status = StatusIdle
	t.lastFailure = err
	t.mu.Unlock()

	t.log.Warn("action exited without declaring a goal", zap.String("run_id", r.id), zap.Error(cause))
	return err
}

// work is the body of the worker goroutine.
func (t *Task[A, R]) work(r *run, arg A) {
	defer close(r.exited)
	defer t.finish(r)
	t.execute(arg)
}

// execute calls the action and fills the outcome slot. If the action calls
// runtime.Goexit the slot stays empty, which Wait reports as a bug.
func (t *Task[A, R]) execute(arg A) {
	defer func() {
		if p := recover(); p != nil {
			t.record(failureOutcome[R](&PanicError{Value: p, Stack: debug.Stack()}))
		}
	}()

	v, err := t.action(t, arg)
	if err != nil {
		t.record(failureOutcome[R](err))
		return
	}
	t.record(valueOutcome(v))
}

func (t *Task[A, R]) record(out outcome[R]) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.out = out
	if out.kind == outcomeFailure {
		t.lastFailure = out.err
	}
}

// finish does the post-run bookkeeping. It is skipped when the run never
// declared its goal so that Start can report the protocol violation.
func (t *Task[A, R]) finish(r *run) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.started {
		return
	}

	t.updateLocked(0)
	t.started = false
	t.running = false
	t.status = StatusCompleted

	t.log.Info("run finished",
		zap.String("run_id", r.id),
		zap.Int("done", t.done),
		zap.Int("steps", t.steps),
		zap.Duration("elapsed", t.updated.Sub(t.since)),
		zap.Bool("failed", t.out.kind == outcomeFailure),
	)
}

// =============================================================================
// WAITING
// =============================================================================

// Wait blocks until the current run's worker has exited and returns the run's
// result. A failure from the action is returned as-is. If ctx ends first,
// Wait returns ctx's error and the run carries on.
func (t *Task[A, R]) Wait(ctx context.Context) (R, error) {
	var zero R
	if ctx == nil {
		ctx = context.Background()
	}

	t.mu.Lock()
	r := t.run
	t.mu.Unlock()
	if r == nil {
		return zero, ErrNotStarted
	}

	select {
	case <-r.exited:
	case <-ctx.Done():
		return zero, fmt.Errorf("tasks: waiting for %q: %w", t.name, ctx.Err())
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if r.consumed || t.run != r {
		return zero, ErrOutcomeConsumed
	}
	r.consumed = true
	if t.status == StatusCompleted {
		t.status = StatusIdle
	}

	out := t.out.take()
	switch out.kind {
	case outcomeValue:
		return out.value, nil
	case outcomeFailure:
		return zero, out.err
	default:
		return zero, newBug(t.name, "unrecognised outcome", nil)
	}
}

// WaitTimeout is Wait bounded by d.
func (t *Task[A, R]) WaitTimeout(d time.Duration) (R, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return t.Wait(ctx)
}

// =============================================================================
// WORKER-SIDE PROGRESS
// =============================================================================

// DeclareGoal implements Progress.
func (t *Task[A, R]) DeclareGoal(steps, done int) {
	t.mu.Lock()
	r := t.run
	if r == nil || !t.running {
		t.mu.Unlock()
		return
	}
	if steps >= 0 {
		t.goal = steps
	}
	t.steps = t.goal
	t.done = clamp(done, 0, t.steps)
	t.updated = t.opts.clock()
	t.started = true
	t.status = StatusRunning
	steps, done = t.steps, t.done
	t.mu.Unlock()

	r.declareOnce.Do(func() { close(r.started) })
	t.log.Debug("goal declared", zap.String("run_id", r.id), zap.Int("steps", steps), zap.Int("done", done))
}

// Update implements Progress.
func (t *Task[A, R]) Update(delta int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.updateLocked(delta)
}

func (t *Task[A, R]) updateLocked(delta int) {
	t.updated = t.opts.clock()
	t.done = clamp(t.done+delta, 0, t.steps)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// =============================================================================
// STOP REQUESTS
// =============================================================================

// Stop asks the action to finish early. It only sets a flag; the action has
// to poll Stopping and return on its own.
func (t *Task[A, R]) Stop() {
	if !t.stopRequested.Swap(true) {
		t.log.Debug("stop requested")
	}
}

// Stopping reports whether Stop has been called. The flag is not cleared
// when a new run starts; see ClearStop.
func (t *Task[A, R]) Stopping() bool {
	return t.stopRequested.Load()
}

// ClearStop withdraws an earlier Stop request.
func (t *Task[A, R]) ClearStop() {
	t.stopRequested.Store(false)
}

// =============================================================================
// OBSERVATION
// =============================================================================

// Sample returns the current progress. It never fails: a task that has never
// been started reports an idle, empty snapshot with the fallback time-to-go.
func (t *Task[A, R]) Sample() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.opts.clock()
	s := Snapshot{
		Name:      t.name,
		Status:    t.status,
		Stopping:  t.stopRequested.Load(),
		Since:     t.since,
		SampledAt: now,
		UpdatedAt: t.updated,
		Steps:     t.steps,
		Done:      t.done,
	}
	if t.run != nil {
		s.RunID = t.run.id
	}
	if s.Since.IsZero() {
		s.Since = now
		s.UpdatedAt = now
	}
	return estimate(s, t.opts.fallbackETA)
}
