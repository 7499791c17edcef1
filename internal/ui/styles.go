// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// STYLES
// =============================================================================

var (
	// Colors
	brandPrimary   = lipgloss.Color("#7C3AED") // Purple
	brandSecondary = lipgloss.Color("#06B6D4") // Cyan
	brandAccent    = lipgloss.Color("#10B981") // Emerald
	brandWarning   = lipgloss.Color("#F59E0B") // Amber
	textMuted      = lipgloss.Color("#6B7280") // Gray

	titleStyle = lipgloss.NewStyle().
			Foreground(brandPrimary).
			Bold(true).
			MarginBottom(1)

	nameStyle = lipgloss.NewStyle().
			Foreground(brandSecondary).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(brandAccent).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(brandWarning)

	dimStyle = lipgloss.NewStyle().
			Foreground(textMuted)
)

const (
	// nameWidth is the display width of the task name column
	nameWidth = 16

	minBarWidth = 20
	maxBarWidth = 60
)
