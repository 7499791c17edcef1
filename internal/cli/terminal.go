// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/bobgautier/rjgtoys-progressive/internal/config"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// =============================================================================
// DISPLAY SELECTION
// =============================================================================

// Display modes.
const (
	modeTUI   = "tui"
	modePlain = "plain"
)

// chooseMode resolves the display mode. Flags beat config; "auto" picks
// the TUI only when out is a terminal and JSON output was not requested.
func chooseMode(args Args, cfg *config.Config, out io.Writer) string {
	switch {
	case args.JSON:
		return modePlain
	case args.Plain:
		return modePlain
	case args.TUI:
		return modeTUI
	}
	switch strings.ToLower(cfg.UI.Mode) {
	case modeTUI:
		return modeTUI
	case modePlain:
		return modePlain
	}
	if isTerminal(out) {
		return modeTUI
	}
	return modePlain
}

// colorsEnabled reports whether output to w should be colored. FORCE_COLOR
// overrides TTY detection; NO_COLOR is folded into cfg.UI.NoColor.
func colorsEnabled(cfg *config.Config, w io.Writer) bool {
	if cfg.UI.NoColor {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	return isTerminal(w)
}

// applyColorProfile makes lipgloss render without escape codes when colors
// are off and lets termenv detect the terminal otherwise.
func applyColorProfile(color bool) {
	if !color {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	lipgloss.SetColorProfile(termenv.ColorProfile())
}
