// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package actions

import (
	"errors"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobgautier/rjgtoys-progressive/internal/tasks"
)

// recorder is a tasks.Progress that stops after a number of updates.
type recorder struct {
	mu        sync.Mutex
	steps     int
	done      int
	updates   int
	declared  int
	stopAfter int // 0 = never
}

func (r *recorder) DeclareGoal(steps, done int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.declared++
	r.steps = steps
	r.done = done
}

func (r *recorder) Update(delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates++
	r.done += delta
}

func (r *recorder) Stopping() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopAfter > 0 && r.updates >= r.stopAfter
}

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

// =============================================================================
// SLEEP
// =============================================================================

func TestSleep_CompletesAllSteps(t *testing.T) {
	task := tasks.New("nap", Sleep)

	n, err := task.Invoke(SleepArgs{Interval: time.Millisecond, Count: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	s := task.Sample()
	assert.Equal(t, 5, s.Steps)
	assert.Equal(t, 5, s.Done)
	assert.Equal(t, 100, s.PercentDone)
}

func TestSleep_HonorsStop(t *testing.T) {
	rec := &recorder{stopAfter: 3}

	n, err := Sleep(rec, SleepArgs{Interval: time.Millisecond, Count: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 10, rec.steps)
	assert.Equal(t, 3, rec.done)
	assert.Equal(t, 1, rec.declared)
}

func TestSleep_ZeroCount(t *testing.T) {
	rec := &recorder{}
	n, err := Sleep(rec, SleepArgs{Interval: time.Hour})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, rec.declared)
}

func TestSleep_InvalidArgsFailBeforeGoal(t *testing.T) {
	task := tasks.New("nap", Sleep)

	err := task.Start(SleepArgs{Interval: time.Millisecond, Count: -1})
	assert.ErrorIs(t, err, tasks.ErrActionFailed)

	err = task.Start(SleepArgs{Interval: -time.Second, Count: 1})
	assert.ErrorIs(t, err, tasks.ErrActionFailed)
	assert.Contains(t, err.Error(), "interval")
}

// =============================================================================
// SHELL
// =============================================================================

func TestShell_RunsEachCommandAsAStep(t *testing.T) {
	requireShell(t)
	task := tasks.New("script", Shell)

	res, err := task.Invoke(ShellArgs{
		Shell:    "sh",
		Commands: []string{"echo hello", "echo oops 1>&2", "true"},
	})
	require.NoError(t, err)
	require.Len(t, res.Results, 3)
	assert.Equal(t, "hello\n", res.Results[0].Output)
	assert.Equal(t, "[STDERR] oops\n", res.Results[1].Output)
	assert.False(t, res.Stopped)

	s := task.Sample()
	assert.Equal(t, 3, s.Steps)
	assert.Equal(t, 3, s.Done)
}

func TestShell_FailurePropagatesCommandError(t *testing.T) {
	requireShell(t)
	task := tasks.New("script", Shell)

	_, err := task.Invoke(ShellArgs{
		Shell:    "sh",
		Commands: []string{"echo first", "exit 3", "echo never"},
	})
	require.Error(t, err)

	var ce *CommandError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 1, ce.Index)
	assert.Equal(t, "exit 3", ce.Command)
	assert.Len(t, ce.Partial.Results, 2)

	var exitErr *exec.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 3, exitErr.ExitCode())

	s := task.Sample()
	assert.Equal(t, 1, s.Done)
	assert.Same(t, ce, task.LastFailure())
}

func TestShell_StopsBetweenCommands(t *testing.T) {
	requireShell(t)
	rec := &recorder{stopAfter: 1}

	res, err := Shell(rec, ShellArgs{
		Shell:    "sh",
		Commands: []string{"echo one", "echo two"},
	})
	require.NoError(t, err)
	assert.True(t, res.Stopped)
	assert.Len(t, res.Results, 1)
	assert.Equal(t, 2, rec.steps)
}

func TestShell_EnvAndDir(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()

	res, err := Shell(&recorder{}, ShellArgs{
		Shell:    "sh",
		Dir:      dir,
		Env:      []string{"PROGRESSIVE_TEST_VALUE=42"},
		Commands: []string{"echo $PROGRESSIVE_TEST_VALUE", "pwd"},
	})
	require.NoError(t, err)
	assert.Equal(t, "42\n", res.Results[0].Output)
	assert.Contains(t, res.Results[1].Output, dir)
}

func TestShellFlag(t *testing.T) {
	assert.Equal(t, "-c", shellFlag("/bin/bash"))
	assert.Equal(t, "-c", shellFlag("sh"))
	assert.Equal(t, "-Command", shellFlag("powershell.exe"))
	assert.Equal(t, "-Command", shellFlag("pwsh"))
	assert.Equal(t, "/c", shellFlag("cmd"))
}
