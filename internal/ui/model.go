// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bobgautier/rjgtoys-progressive/internal/tasks"
	"github.com/bobgautier/rjgtoys-progressive/internal/util"
)

// =============================================================================
// MODEL
// =============================================================================

// sampleMsg carries one pass over the registry.
type sampleMsg []tasks.Snapshot

// Model is a Bubble Tea model that shows the tasks of a registry until none
// of them is active.
type Model struct {
	registry *tasks.Registry
	interval time.Duration

	bar     progress.Model
	spinner spinner.Model

	samples []tasks.Snapshot
	width   int

	// stopping is set by the first interrupt key; a second one quits
	// without waiting for the tasks
	stopping bool
	done     bool
}

// NewModel creates a model that samples registry every interval.
func NewModel(registry *tasks.Registry, interval time.Duration) Model {
	if interval <= 0 {
		interval = tasks.DefaultSampleInterval
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(brandPrimary)

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = maxBarWidth

	return Model{
		registry: registry,
		interval: interval,
		bar:      bar,
		spinner:  s,
	}
}

// Init samples immediately and starts the spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.sampleNow())
}

// Stopping reports whether the user asked the tasks to stop.
func (m Model) Stopping() bool {
	return m.stopping
}

// Samples returns the most recent pass.
func (m Model) Samples() []tasks.Snapshot {
	return m.samples
}

func (m Model) sampleNow() tea.Cmd {
	reg := m.registry
	return func() tea.Msg {
		return sampleMsg(reg.Samples())
	}
}

func (m Model) scheduleSample() tea.Cmd {
	reg := m.registry
	return tea.Tick(m.interval, func(time.Time) tea.Msg {
		return sampleMsg(reg.Samples())
	})
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if m.stopping {
				m.done = true
				return m, tea.Quit
			}
			m.stopping = true
			m.registry.StopAll()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		// Clamp progress bar width to a reasonable range
		barWidth := msg.Width - nameWidth - 28
		if barWidth < minBarWidth {
			barWidth = minBarWidth
		}
		if barWidth > maxBarWidth {
			barWidth = maxBarWidth
		}
		m.bar.Width = barWidth
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case sampleMsg:
		m.samples = msg
		if settled(msg) {
			m.done = true
			return m, tea.Quit
		}
		return m, m.scheduleSample()
	}

	return m, nil
}

// settled reports whether there is something to show and every task has
// run and finished.
func settled(samples []tasks.Snapshot) bool {
	if len(samples) == 0 {
		return false
	}
	for _, s := range samples {
		if s.Status.IsActive() || s.RunID == "" {
			return false
		}
	}
	return true
}

// =============================================================================
// VIEW
// =============================================================================

// View renders one line per task.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("progressive"))
	b.WriteString("\n")

	for _, s := range m.samples {
		b.WriteString(m.renderLine(s))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	footer := m.registry.Summary()
	if m.stopping {
		b.WriteString(warningStyle.Render("Stopping... press q again to leave without waiting"))
	} else if !m.done {
		footer += " | q: stop"
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(footer))
	b.WriteString("\n")

	return b.String()
}

func (m Model) renderLine(s tasks.Snapshot) string {
	name := nameStyle.Render(util.PadWidth(util.TruncateWidth(s.Name, nameWidth), nameWidth))

	switch s.Status {
	case tasks.StatusStarting, tasks.StatusAwaitingGoal:
		return fmt.Sprintf("%s %s %s", name, m.spinner.View(), dimStyle.Render("waiting for goal"))
	}

	line := fmt.Sprintf("%s %s %d/%d", name, m.bar.ViewAs(float64(s.PercentDone)/100), s.Done, s.Steps)

	switch {
	case s.Status == tasks.StatusCompleted || (s.Status == tasks.StatusIdle && s.RunID != ""):
		line += " " + successStyle.Render("done in "+util.FormatDuration(s.Elapsed))
	case s.Stopping:
		line += " " + warningStyle.Render("stopping")
	case s.Status == tasks.StatusRunning:
		line += " " + dimStyle.Render("eta "+util.FormatDuration(s.TimeToGo))
	}
	return line
}

// Sampled wraps snapshots taken outside the program so they can be sent
// to it with Program.Send.
func Sampled(snaps []tasks.Snapshot) tea.Msg {
	return sampleMsg(snaps)
}
