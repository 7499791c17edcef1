// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"bytes"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobgautier/rjgtoys-progressive/internal/tasks"
)

// fakeTracker reports a fixed snapshot.
type fakeTracker struct {
	snap    tasks.Snapshot
	stopped atomic.Bool
}

func (f *fakeTracker) Name() string { return f.snap.Name }
func (f *fakeTracker) Status() tasks.Status { return f.snap.Status }
func (f *fakeTracker) Sample() tasks.Snapshot { return f.snap }
func (f *fakeTracker) Stop() { f.stopped.Store(true) }
func (f *fakeTracker) Stopping() bool { return f.stopped.Load() }

func running(name string, done, steps int) tasks.Snapshot {
	return tasks.Snapshot{
		Name:        name,
		RunID:       "run-" + name,
		Status:      tasks.StatusRunning,
		Steps:       steps,
		Done:        done,
		PercentDone: done * 100 / steps,
		Elapsed:     8 * time.Second,
		TimeToGo:    12 * time.Second,
	}
}

func newRegistry(t *testing.T, trackers ...*fakeTracker) *tasks.Registry {
	t.Helper()
	reg := tasks.NewRegistry(0)
	for _, tr := range trackers {
		require.NoError(t, reg.Add(tr))
	}
	return reg
}

var keyQ = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}

// =============================================================================
// MODEL
// =============================================================================

func TestModel_QuitsWhenEveryTaskHasSettled(t *testing.T) {
	done := running("copy", 6, 6)
	done.Status = tasks.StatusCompleted
	m := NewModel(newRegistry(t, &fakeTracker{snap: done}), time.Second)

	next, cmd := m.Update(sampleMsg{done})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	view := next.(Model).View()
	assert.Contains(t, view, "copy")
	assert.Contains(t, view, "6/6")
	assert.Contains(t, view, "done in 8s")
	assert.NotContains(t, view, "q: stop")
}

func TestModel_KeepsSamplingWhileActive(t *testing.T) {
	snap := running("copy", 3, 6)
	m := NewModel(newRegistry(t, &fakeTracker{snap: snap}), time.Second)

	next, cmd := m.Update(sampleMsg{snap})
	require.NotNil(t, cmd)

	nm := next.(Model)
	assert.False(t, nm.done)
	require.Len(t, nm.Samples(), 1)

	view := nm.View()
	assert.Contains(t, view, "3/6")
	assert.Contains(t, view, "eta 12s")
	assert.Contains(t, view, "Active: 1")
	assert.Contains(t, view, "q: stop")
}

func TestModel_EmptySampleDoesNotQuit(t *testing.T) {
	m := NewModel(tasks.NewRegistry(0), time.Second)
	next, _ := m.Update(sampleMsg{})
	assert.False(t, next.(Model).done)
}

func TestModel_AwaitingGoalShowsSpinner(t *testing.T) {
	snap := tasks.Snapshot{Name: "slow", RunID: "r", Status: tasks.StatusAwaitingGoal}
	m := NewModel(newRegistry(t, &fakeTracker{snap: snap}), time.Second)

	next, _ := m.Update(sampleMsg{snap})
	assert.Contains(t, next.(Model).View(), "waiting for goal")
}

func TestModel_FirstKeyStopsSecondQuits(t *testing.T) {
	tracker := &fakeTracker{snap: running("copy", 1, 4)}
	m := NewModel(newRegistry(t, tracker), time.Second)

	next, cmd := m.Update(keyQ)
	assert.Nil(t, cmd)
	assert.True(t, tracker.Stopping())
	assert.True(t, next.(Model).Stopping())
	assert.Contains(t, next.(Model).View(), "Stopping")

	_, cmd = next.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_WindowSizeClampsBar(t *testing.T) {
	m := NewModel(tasks.NewRegistry(0), time.Second)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 300, Height: 40})
	assert.Equal(t, maxBarWidth, next.(Model).bar.Width)

	next, _ = m.Update(tea.WindowSizeMsg{Width: 30, Height: 40})
	assert.Equal(t, minBarWidth, next.(Model).bar.Width)
}

// =============================================================================
// REPORTER
// =============================================================================

func TestReporter_Line(t *testing.T) {
	r := NewReporter(&bytes.Buffer{}, 0, false)

	line := r.Line(running("copy", 4, 10))
	assert.Equal(t, "copy"+strings.Repeat(" ", 12)+"  40% 4/10 elapsed 8s eta 12s", line)

	stopping := running("copy", 4, 10)
	stopping.Stopping = true
	assert.True(t, strings.HasSuffix(r.Line(stopping), "(stopping)"))

	waiting := tasks.Snapshot{Name: "copy", Status: tasks.StatusAwaitingGoal}
	assert.Equal(t, "copy"+strings.Repeat(" ", 12)+" waiting for goal", r.Line(waiting))
}

func TestReporter_RateLimitsReportButNotFlush(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, 0.001, false)
	snaps := []tasks.Snapshot{running("a", 1, 2), running("b", 1, 4)}

	r.Report(snaps)
	r.Report(snaps)
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))

	r.Flush(snaps)
	assert.Equal(t, 4, strings.Count(buf.String(), "\n"))
}

func TestReporter_Notify(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, 0, false)

	r.Notify(tasks.Notification{Name: "copy", Done: 3, Steps: 10, Stopped: true, Elapsed: 65 * time.Second})
	r.Notify(tasks.Notification{Name: "copy", Done: 10, Steps: 10, Elapsed: 2 * time.Second})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "stopped 3/10 after 1m05s")
	assert.Contains(t, lines[1], "finished 10/10 after 2s")
}

func TestReporter_FedByMonitor(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, 0, false)

	task := tasks.New("count", func(p tasks.Progress, n int) (int, error) {
		p.DeclareGoal(n, n)
		return n, nil
	})
	reg := tasks.NewRegistry(0)
	require.NoError(t, reg.Add(task))

	_, err := task.Invoke(3)
	require.NoError(t, err)

	mon := tasks.NewMonitor(reg, time.Hour, tasks.OnSample(r.Report))
	mon.Poll()
	assert.Contains(t, buf.String(), "100% 3/3")
}
