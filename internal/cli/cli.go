// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdHelp Command = iota
	CmdSleep
	CmdShell
	CmdConfig
	CmdVersion
)

// String returns the command's name as typed.
func (c Command) String() string {
	switch c {
	case CmdSleep:
		return "sleep"
	case CmdShell:
		return "shell"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	default:
		return "help"
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Name       string // Task name (defaults to the command name)
	ConfigPath string // Explicit config file
	Plain      bool   // Force plain progress lines
	TUI        bool   // Force the interactive display
	Verbose    bool   // Debug logging
	JSON       bool   // Output in JSON format

	// sleep
	Interval time.Duration
	Count    int

	// shell
	Commands []string
	Shell    string
	Dir      string

	// config
	Subcommand string
	Force      bool
}

// Defaults for the sleep command.
const (
	DefaultSleepInterval = time.Second
	DefaultSleepCount    = 20
)

// boolFlagNames never take a value.
var boolFlagNames = []string{"plain", "tui", "verbose", "v", "json", "force", "help", "h"}

const usageText = `progressive - run long tasks in the background and watch their progress

Usage:
  progressive [flags] <command> [arguments]

Commands:
  sleep                 Sleep in steps (default: 20 steps of 1s)
      --interval D      Time per step, e.g. 500ms or 2s
      --count N         Number of steps
  shell CMD...          Run each argument as a shell command, one step each
      --shell PATH      Shell to use (default: bash, sh, powershell or cmd)
      --dir DIR         Working directory
  config [show|path|init]
                        Show the effective configuration, print the config
                        file path, or write a default config file (--force
                        to overwrite)
  version               Print version information
  help                  Show this help

Flags:
  --name NAME           Task name shown in progress output
  --config PATH         Read configuration from PATH (.toml or .json)
  --plain               Plain progress lines instead of the interactive display
  --tui                 Interactive display even when not on a terminal
  -v, --verbose         Debug logging
  --json                Print the result and final progress as JSON

Interrupt (Ctrl+C) asks the running task to stop; progressive still waits
for it to finish.

Environment:
  PROGRESSIVE_HOME              Config directory (default: ~/.progressive)
  PROGRESSIVE_LOG_LEVEL         debug, info, warn or error
  PROGRESSIVE_UI_MODE           auto, tui or plain
  PROGRESSIVE_SAMPLE_INTERVAL   Progress refresh interval
  PROGRESSIVE_FALLBACK_ETA      Time-to-go shown before 1%% is done
  NO_COLOR                      Disable colors

Version: %s
`

// PrintUsage writes the usage/help text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion writes version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "progressive version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "  Go:         %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Parse parses command-line arguments (without the program name) and
// returns the command and its args.
func Parse(argv []string) (Command, Args, error) {
	p := NewArgParser(argv, boolFlagNames...)

	args := Args{
		Name:       p.Flag("name"),
		ConfigPath: p.Flag("config"),
		Plain:      p.BoolFlag("plain"),
		TUI:        p.BoolFlag("tui"),
		Verbose:    p.BoolFlag("verbose", "v"),
		JSON:       p.BoolFlag("json"),
		Force:      p.BoolFlag("force"),
	}

	if args.Plain && args.TUI {
		return CmdHelp, args, NewUsageError("--plain and --tui cannot be used together")
	}
	if p.BoolFlag("help", "h") || p.PositionalCount() == 0 {
		return CmdHelp, args, nil
	}

	cmd := strings.ToLower(p.Positional(0))
	switch cmd {
	case "sleep":
		var err error
		if args.Interval, err = p.FlagDurationOrDefault("interval", DefaultSleepInterval); err != nil {
			return CmdSleep, args, err
		}
		if args.Count, err = p.FlagIntOrDefault("count", DefaultSleepCount); err != nil {
			return CmdSleep, args, err
		}
		if args.Interval < 0 {
			return CmdSleep, args, NewUsageError("--interval must not be negative (got: %s)", args.Interval)
		}
		if args.Count < 0 {
			return CmdSleep, args, NewUsageError("--count must not be negative (got: %d)", args.Count)
		}
		if p.PositionalCount() > 1 {
			return CmdSleep, args, NewUsageError("sleep takes no arguments (got: %s)", strings.Join(p.PositionalFrom(1), " "))
		}
		return CmdSleep, args, nil

	case "shell":
		args.Commands = p.PositionalFrom(1)
		args.Shell = p.Flag("shell")
		args.Dir = p.Flag("dir")
		if len(args.Commands) == 0 {
			return CmdShell, args, NewUsageError("shell needs at least one command")
		}
		return CmdShell, args, nil

	case "config":
		args.Subcommand = strings.ToLower(p.Positional(1))
		switch args.Subcommand {
		case "":
			args.Subcommand = "show"
		case "show", "path", "init":
		default:
			return CmdConfig, args, NewUsageError("unknown config subcommand %q (want show, path or init)", args.Subcommand)
		}
		return CmdConfig, args, nil

	case "version":
		return CmdVersion, args, nil

	case "help":
		return CmdHelp, args, nil

	default:
		return CmdHelp, args, NewUsageError("unknown command %q", cmd)
	}
}
