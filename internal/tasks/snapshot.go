// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"fmt"
	"time"
)

// =============================================================================
// SNAPSHOT
// =============================================================================

// Snapshot is a point-in-time copy of a task's progress, produced by Sample.
// It is never updated after it is returned.
type Snapshot struct {
	Name     string `json:"name,omitempty"`
	RunID    string `json:"run_id,omitempty"`
	Status   Status `json:"status"`
	Stopping bool   `json:"stopping"`

	Since     time.Time `json:"since"`
	SampledAt time.Time `json:"sampled_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Steps       int `json:"steps"`
	Done        int `json:"done"`
	PercentDone int `json:"percent_done"`

	// TimeToGo is extrapolated from the average rate so far, minus the time
	// since the last update. It may be negative when the worker is late.
	TimeToGo time.Duration `json:"time_to_go"`
	ETA      time.Time     `json:"eta"`
	Elapsed  time.Duration `json:"elapsed"`
}

// Complete reports whether every declared step is done.
func (s Snapshot) Complete() bool {
	return s.Steps > 0 && s.Done >= s.Steps
}

// String renders the snapshot as "done/steps in Ns P% eta ttg".
func (s Snapshot) String() string {
	return fmt.Sprintf("%d/%d in %ds %d%% %s %ds",
		s.Done, s.Steps,
		int64(s.Elapsed/time.Second),
		s.PercentDone,
		s.ETA.Format("2006-01-02 15:04:05"),
		int64(s.TimeToGo/time.Second),
	)
}

// =============================================================================
// ESTIMATION
// =============================================================================

// percentDone is floor(done*100/steps), or 0 when the total is unknown.
func percentDone(steps, done int) int {
	if steps <= 0 {
		return 0
	}
	return done * 100 / steps
}

// estimate fills the derived fields of a snapshot from raw counters.
// Below 1% the fallback is reported instead of a computed time-to-go.
func estimate(s Snapshot, fallback time.Duration) Snapshot {
	s.PercentDone = percentDone(s.Steps, s.Done)

	if s.PercentDone > 0 {
		spent := s.UpdatedAt.Sub(s.Since)
		rest := spent * time.Duration(100-s.PercentDone) / time.Duration(s.PercentDone)
		s.TimeToGo = rest - s.SampledAt.Sub(s.UpdatedAt)
	} else {
		s.TimeToGo = fallback
	}

	s.ETA = s.SampledAt.Add(s.TimeToGo)
	s.Elapsed = s.SampledAt.Sub(s.Since)
	return s
}
