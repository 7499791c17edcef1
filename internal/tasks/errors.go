// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrBug is matched by every BugError.
	ErrBug = errors.New("tasks: implementation bug")

	// ErrNothingToDo is reported (inside a BugError) when a task has no action.
	ErrNothingToDo = errors.New("tasks: nothing to do")

	// ErrAlreadyStarted is returned by Start while a run is still active.
	ErrAlreadyStarted = errors.New("tasks: already started")

	// ErrActionFailed is matched by every ActionFailedError.
	ErrActionFailed = errors.New("tasks: action failed")

	// ErrNotStarted is returned by Wait on a task that has never been started.
	ErrNotStarted = errors.New("tasks: not started")

	// ErrOutcomeConsumed is returned by Wait when the run's outcome was
	// already handed to an earlier Wait.
	ErrOutcomeConsumed = errors.New("tasks: outcome already consumed")
)

// =============================================================================
// TYPED ERRORS
// =============================================================================

// BugError indicates a contract violation inside this package rather than a
// failure of the wrapped action. It should never be retried.
type BugError struct {
	Task        string
	Description string
	Err         error
}

func newBug(task, description string, err error) *BugError {
	return &BugError{Task: task, Description: description, Err: err}
}

func (e *BugError) Error() string {
	msg := "tasks: bug"
	if e.Task != "" {
		msg += fmt.Sprintf(" in %q", e.Task)
	}
	if e.Description != "" {
		msg += ": " + e.Description
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports whether target is ErrBug.
func (e *BugError) Is(target error) bool {
	return target == ErrBug
}

func (e *BugError) Unwrap() error {
	return e.Err
}

// ActionFailedError is returned by Start when the worker exited without
// declaring its goal. Cause holds whatever the action returned, if anything.
type ActionFailedError struct {
	Task  string
	RunID string
	Cause error
}

func (e *ActionFailedError) Error() string {
	msg := fmt.Sprintf("tasks: action %q failed: exited without declaring a goal", e.Task)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Is reports whether target is ErrActionFailed.
func (e *ActionFailedError) Is(target error) bool {
	return target == ErrActionFailed
}

func (e *ActionFailedError) Unwrap() error {
	return e.Cause
}

// PanicError carries a panic recovered from an action. It is delivered by
// Wait like any error the action returned.
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("tasks: action panicked: %v", e.Value)
}

// Unwrap returns the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
