// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// =============================================================================
// TRACKER
// =============================================================================

// Tracker is the observer-side view of a task, independent of its argument
// and result types. Every *Task implements it.
type Tracker interface {
	Name() string
	Status() Status
	Sample() Snapshot
	Stop()
	Stopping() bool
}

// =============================================================================
// REGISTRY
// =============================================================================

// Registry keeps a named set of tasks so they can be observed together.
// It never runs anything itself.
type Registry struct {
	// trackers is kept in insertion order for display
	trackers []Tracker

	// byName indexes trackers
	byName map[string]Tracker

	// maxTracked is the maximum number of tasks (0 = unlimited)
	maxTracked int

	log *zap.Logger

	// mu protects concurrent access to the registry
	mu sync.RWMutex

	// notifyChan carries run completion notifications
	notifyChan chan Notification
}

// Notification describes a finished run.
type Notification struct {
	Name     string
	RunID    string
	Status   Status
	Done     int
	Steps    int
	Stopped  bool
	Elapsed  time.Duration
	Finished time.Time
}

// notificationBuffer is the capacity of the notification channel.
const notificationBuffer = 100

// NewRegistry creates a registry holding at most maxTracked tasks
// (0 = unlimited). Only WithLogger is honored among opts.
func NewRegistry(maxTracked int, opts ...Option) *Registry {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return &Registry{
		trackers:   make([]Tracker, 0),
		byName:     make(map[string]Tracker),
		maxTracked: maxTracked,
		log:        o.logger,
		notifyChan: make(chan Notification, notificationBuffer),
	}
}

// =============================================================================
// MEMBERSHIP
// =============================================================================

// Add registers t. Names must be unique and non-empty.
func (r *Registry) Add(t Tracker) error {
	if t == nil {
		return fmt.Errorf("tasks: cannot track a nil task")
	}
	name := t.Name()
	if name == "" {
		return fmt.Errorf("tasks: cannot track a task without a name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[name]; ok {
		return fmt.Errorf("tasks: %q is already tracked", name)
	}
	if r.maxTracked > 0 && len(r.trackers) >= r.maxTracked {
		return fmt.Errorf("tasks: registry is full: %d tracked (max: %d)", len(r.trackers), r.maxTracked)
	}

	r.trackers = append(r.trackers, t)
	r.byName[name] = t
	return nil
}

// Get returns the tracker registered under name, or nil.
func (r *Registry) Get(name string) Tracker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[name]
}

// Remove forgets the tracker registered under name. It does not stop it.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[name]; !ok {
		return false
	}
	delete(r.byName, name)
	for i, t := range r.trackers {
		if t.Name() == name {
			r.trackers = append(r.trackers[:i], r.trackers[i+1:]...)
			break
		}
	}
	return true
}

// =============================================================================
// QUERIES
// =============================================================================

// All returns the tracked tasks in registration order.
func (r *Registry) All() []Tracker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Tracker(nil), r.trackers...)
}

// Samples samples every tracked task.
func (r *Registry) Samples() []Snapshot {
	all := r.All()
	out := make([]Snapshot, 0, len(all))
	for _, t := range all {
		out = append(out, t.Sample())
	}
	return out
}

// Active samples the tasks that currently have a worker.
func (r *Registry) Active() []Snapshot {
	out := make([]Snapshot, 0)
	for _, s := range r.Samples() {
		if s.Status.IsActive() {
			out = append(out, s)
		}
	}
	return out
}

// Count returns the number of tracked tasks.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.trackers)
}

// StopAll requests a stop from every tracked task.
func (r *Registry) StopAll() {
	for _, t := range r.All() {
		t.Stop()
	}
}

// =============================================================================
// NOTIFICATIONS
// =============================================================================

// Notifications returns the notification channel.
func (r *Registry) Notifications() <-chan Notification {
	return r.notifyChan
}

// notify sends a notification without blocking.
func (r *Registry) notify(n Notification) {
	select {
	case r.notifyChan <- n:
	default:
		r.log.Warn("notification channel full, dropping notification",
			zap.String("task", n.Name),
			zap.String("run_id", n.RunID),
			zap.String("status", n.Status.String()),
		)
	}
}

// =============================================================================
// FORMATTING
// =============================================================================

// Summary returns a one-line count of tasks by state.
func (r *Registry) Summary() string {
	active, completed, idle := 0, 0, 0
	for _, t := range r.All() {
		switch s := t.Status(); {
		case s.IsActive():
			active++
		case s == StatusCompleted:
			completed++
		default:
			idle++
		}
	}
	return fmt.Sprintf("Active: %d | Completed: %d | Idle: %d", active, completed, idle)
}
