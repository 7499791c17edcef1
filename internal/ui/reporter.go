// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/time/rate"

	"github.com/bobgautier/rjgtoys-progressive/internal/tasks"
	"github.com/bobgautier/rjgtoys-progressive/internal/util"
)

// =============================================================================
// PLAIN REPORTER
// =============================================================================

// Reporter writes progress as plain lines, at most perSecond passes a second.
// It is safe for concurrent use and fits tasks.OnSample.
type Reporter struct {
	w       io.Writer
	limiter *rate.Limiter
	profile termenv.Profile
	mu      sync.Mutex
}

// NewReporter creates a reporter writing to w. With color off, or a
// non-positive rate, output is uncolored or unlimited respectively.
func NewReporter(w io.Writer, perSecond float64, color bool) *Reporter {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	profile := termenv.Ascii
	if color {
		profile = termenv.ANSI
	}
	return &Reporter{
		w:       w,
		limiter: rate.NewLimiter(limit, 1),
		profile: profile,
	}
}

// Report writes one line per snapshot unless the rate limit has been hit.
func (r *Reporter) Report(snaps []tasks.Snapshot) {
	if !r.limiter.Allow() {
		return
	}
	r.write(snaps)
}

// Flush writes snaps regardless of the rate limit.
func (r *Reporter) Flush(snaps []tasks.Snapshot) {
	r.write(snaps)
}

// Notify writes a line for a finished run.
func (r *Reporter) Notify(n tasks.Notification) {
	verb := "finished"
	color := "2"
	if n.Stopped && n.Done < n.Steps {
		verb = "stopped"
		color = "3"
	}
	msg := fmt.Sprintf("%s %s %d/%d after %s",
		util.PadWidth(util.TruncateWidth(n.Name, nameWidth), nameWidth),
		r.profile.String(verb).Foreground(r.profile.Color(color)).String(),
		n.Done, n.Steps,
		util.FormatDuration(n.Elapsed),
	)

	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.w, msg)
}

func (r *Reporter) write(snaps []tasks.Snapshot) {
	var b strings.Builder
	for _, s := range snaps {
		b.WriteString(r.Line(s))
		b.WriteString("\n")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	io.WriteString(r.w, b.String())
}

// Line renders a single snapshot.
func (r *Reporter) Line(s tasks.Snapshot) string {
	name := util.PadWidth(util.TruncateWidth(s.Name, nameWidth), nameWidth)

	switch s.Status {
	case tasks.StatusStarting, tasks.StatusAwaitingGoal:
		return name + " waiting for goal"
	}

	color := "6"
	switch {
	case s.Complete():
		color = "2"
	case s.Stopping:
		color = "3"
	}
	pct := r.profile.String(fmt.Sprintf("%3d%%", s.PercentDone)).Foreground(r.profile.Color(color)).String()

	line := fmt.Sprintf("%s %s %d/%d elapsed %s",
		name, pct, s.Done, s.Steps, util.FormatDuration(s.Elapsed))
	if s.Status == tasks.StatusRunning {
		line += " eta " + util.FormatDuration(s.TimeToGo)
	}
	if s.Stopping {
		line += " (stopping)"
	}
	return line
}
