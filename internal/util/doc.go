// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the progressive packages.
//
// # Key Functions
//
// Display:
//   - StringWidth, TruncateWidth, PadWidth: Column-aware string handling
//   - FormatDuration: Compact, clock-style durations for progress lines
//
// File Operations:
//   - AtomicWriteFile: Crash-safe file writing with fsync
//
// # Usage
//
//	// Keep a task name inside a fixed-width column
//	col := util.PadWidth(util.TruncateWidth(name, 20), 20)
//
//	// Write config files atomically to prevent partial writes
//	err := util.AtomicWriteFile(path, data, 0600)
package util
