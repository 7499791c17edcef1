// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// =============================================================================
// MONITOR
// =============================================================================

// DefaultSampleInterval is used when NewMonitor is given a non-positive interval.
const DefaultSampleInterval = 500 * time.Millisecond

// Monitor samples the tasks of a Registry on a fixed interval and reports
// runs that have finished since the previous pass. A task is only watched
// from its second pass on, so poll once before starting anything that
// should be reported. If several runs of one task start and finish between
// two passes, only the last is reported.
type Monitor struct {
	registry *Registry
	interval time.Duration
	onSample func([]Snapshot)
	log      *zap.Logger

	wg       sync.WaitGroup
	stop     chan struct{}
	stopOnce sync.Once

	// mu guards last
	mu   sync.Mutex
	last map[string]Snapshot
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

// OnSample registers fn to receive every pass's snapshots. fn runs on the
// monitor goroutine and should not block.
func OnSample(fn func([]Snapshot)) MonitorOption {
	return func(m *Monitor) {
		m.onSample = fn
	}
}

// WithMonitorLogger sets the monitor's logger.
func WithMonitorLogger(l *zap.Logger) MonitorOption {
	return func(m *Monitor) {
		if l != nil {
			m.log = l
		}
	}
}

// NewMonitor creates a monitor for registry.
func NewMonitor(registry *Registry, interval time.Duration, opts ...MonitorOption) *Monitor {
	if interval <= 0 {
		interval = DefaultSampleInterval
	}
	m := &Monitor{
		registry: registry,
		interval: interval,
		log:      zap.NewNop(),
		stop:     make(chan struct{}),
		last:     make(map[string]Snapshot),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// =============================================================================
// MONITOR LIFECYCLE
// =============================================================================

// Start runs the sampling loop in a background goroutine.
func (m *Monitor) Start() {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		_ = m.Run(context.Background())
	}()
}

// Stop ends the sampling loop and waits for it to exit. It does not stop
// any task.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
	m.wg.Wait()
}

// Run samples until ctx is done or Stop is called.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Poll()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.stop:
			return nil
		case <-ticker.C:
			m.Poll()
		}
	}
}

// =============================================================================
// SAMPLING
// =============================================================================

// Poll performs one sampling pass, emits notifications for finished runs
// and returns the snapshots.
func (m *Monitor) Poll() []Snapshot {
	snaps := m.registry.Samples()

	m.mu.Lock()
	next := make(map[string]Snapshot, len(snaps))
	var finished []Snapshot
	for _, s := range snaps {
		if prev, seen := m.last[s.Name]; seen {
			if f, ok := finishedRun(prev, s); ok {
				finished = append(finished, f)
			}
		}
		next[s.Name] = s
	}
	m.last = next
	m.mu.Unlock()

	for _, f := range finished {
		m.log.Debug("run finished",
			zap.String("task", f.Name),
			zap.String("run_id", f.RunID),
			zap.Int("done", f.Done),
			zap.Int("steps", f.Steps),
		)
		m.registry.notify(Notification{
			Name:     f.Name,
			RunID:    f.RunID,
			Status:   f.Status,
			Done:     f.Done,
			Steps:    f.Steps,
			Stopped:  f.Stopping,
			Elapsed:  f.Elapsed,
			Finished: f.SampledAt,
		})
	}

	if m.onSample != nil {
		m.onSample(snaps)
	}
	return snaps
}

// finishedRun decides whether a run ended between prev and cur, and which
// snapshot best describes it.
func finishedRun(prev, cur Snapshot) (Snapshot, bool) {
	switch {
	case prev.Status.IsActive() && prev.RunID != cur.RunID:
		// A new run replaced the one we were watching.
		prev.Status = StatusCompleted
		return prev, true
	case prev.Status.IsActive() && !cur.Status.IsActive():
		return cur, true
	case prev.RunID != cur.RunID && cur.RunID != "" && !cur.Status.IsActive():
		// Started and finished between two passes.
		return cur, true
	}
	return Snapshot{}, false
}
