// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui renders the progress of tracked tasks.
//
// Two front ends share the same input, a slice of tasks.Snapshot:
//
//   - Model: a Bubble Tea program with one progress bar per task and a
//     spinner while a task is waiting for its goal
//   - Reporter: rate-limited plain text lines for pipes, logs and CI
//
// # Usage
//
//	reg := tasks.NewRegistry(0)
//	_ = reg.Add(task)
//	final, err := tea.NewProgram(ui.NewModel(reg, 500*time.Millisecond)).Run()
package ui
