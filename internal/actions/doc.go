// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package actions provides ready-made tasks.Action functions.
//
// Each action declares its goal first, reports one step per unit of work and
// checks Stopping between steps, so it can be wrapped with tasks.Apply and
// observed like any other task.
//
// # Key Functions
//
//   - Sleep: Waits Interval, Count times (useful for demos and tests)
//   - Shell: Runs a list of shell commands, one step per command
//
// # Usage
//
//	nap := tasks.New("nap", actions.Sleep)
//	done, err := nap.Invoke(actions.SleepArgs{Interval: time.Second, Count: 20})
package actions
