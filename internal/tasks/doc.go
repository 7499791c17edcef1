// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tasks wraps long-running functions so they can run in the
// background while the caller watches their progress.
//
// An Action receives a Progress handle as its first parameter. It must call
// DeclareGoal before anything else; until it does, the run is not considered
// started and Start keeps blocking. The caller never sees the handle: it
// starts the task, samples it, optionally asks it to stop, and finally waits
// for the result.
//
// # Key Types
//
//   - Definition: Names a task and carries construction options
//   - Task: Restartable, progress-reporting wrapper around one Action
//   - Progress: Worker-side handle (DeclareGoal, Update, Stopping)
//   - Snapshot: Point-in-time progress with percent, elapsed time and ETA
//   - Registry: Named set of tasks with completion notifications
//   - Monitor: Periodic sampler that turns finished runs into notifications
//
// # Usage
//
// Define and run a task synchronously:
//
//	count := tasks.Apply(tasks.Define("count"), func(p tasks.Progress, n int) (int, error) {
//	    p.DeclareGoal(n, 0)
//	    for i := 0; i < n; i++ {
//	        if p.Stopping() {
//	            return i, nil
//	        }
//	        p.Update(1)
//	    }
//	    return n, nil
//	})
//	total, err := count.Invoke(5)
//
// Or start it and watch:
//
//	if err := count.Start(1000); err != nil {
//	    return err
//	}
//	for count.Status() == tasks.StatusRunning {
//	    fmt.Println(count.Sample())
//	    time.Sleep(500 * time.Millisecond)
//	}
//	total, err := count.Wait(ctx)
//
// Stop is advisory: the action decides when to look at Stopping and return.
package tasks
