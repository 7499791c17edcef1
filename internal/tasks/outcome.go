// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

// outcomeKind says which payload of an outcome is valid.
type outcomeKind uint8

const (
	outcomeNone outcomeKind = iota
	outcomeValue
	outcomeFailure
)

// outcome is the single-write, single-read result slot of one run.
// Only the payload matching kind is meaningful.
type outcome[R any] struct {
	kind  outcomeKind
	value R
	err   error
}

func valueOutcome[R any](v R) outcome[R] {
	return outcome[R]{kind: outcomeValue, value: v}
}

func failureOutcome[R any](err error) outcome[R] {
	return outcome[R]{kind: outcomeFailure, err: err}
}

// take returns the outcome and leaves the slot empty so the value is not
// kept alive by the task.
func (o *outcome[R]) take() outcome[R] {
	out := *o
	*o = outcome[R]{}
	return out
}
