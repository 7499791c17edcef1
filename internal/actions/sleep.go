// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package actions

import (
	"fmt"
	"time"

	"github.com/bobgautier/rjgtoys-progressive/internal/tasks"
)

// SleepArgs configures Sleep.
type SleepArgs struct {
	// Interval is how long each step takes
	Interval time.Duration

	// Count is the number of steps
	Count int
}

// Sleep waits Interval once per step, Count times. It returns the number of
// steps completed, which is less than Count if a stop was requested.
func Sleep(p tasks.Progress, args SleepArgs) (int, error) {
	if args.Count < 0 {
		return 0, fmt.Errorf("sleep: count must not be negative, got %d", args.Count)
	}
	if args.Interval < 0 {
		return 0, fmt.Errorf("sleep: interval must not be negative, got %v", args.Interval)
	}

	p.DeclareGoal(args.Count, 0)

	timer := time.NewTimer(args.Interval)
	defer timer.Stop()

	for i := 0; i < args.Count; i++ {
		if p.Stopping() {
			return i, nil
		}
		if i > 0 {
			timer.Reset(args.Interval)
		}
		<-timer.C
		p.Update(1)
	}
	return args.Count, nil
}
