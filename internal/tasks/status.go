// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

// =============================================================================
// TASK STATUS
// =============================================================================

// Status is the lifecycle state of a task's current (or most recent) run.
type Status string

const (
	// StatusIdle means no run is active and no outcome is waiting.
	StatusIdle Status = "Idle"

	// StatusStarting means Start has been called and the worker is being spawned.
	StatusStarting Status = "Starting"

	// StatusAwaitingGoal means the worker is alive but has not declared its goal.
	StatusAwaitingGoal Status = "AwaitingGoal"

	// StatusRunning means the goal is declared and progress is observable.
	StatusRunning Status = "Running"

	// StatusCompleted means the run has finished and its outcome is waiting for Wait.
	StatusCompleted Status = "Completed"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsActive reports whether a worker is associated with the task.
func (s Status) IsActive() bool {
	return s == StatusStarting || s == StatusAwaitingGoal || s == StatusRunning
}
