// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and execution for progressive.
//
// # Key Types
//
//   - Command: Enumeration of the available commands
//   - Args: Parsed command-line arguments with global and command-specific flags
//   - ArgParser: Flag and positional argument parsing shared by all commands
//   - JSONResponse: The --json output envelope
//
// # Usage
//
//	os.Exit(cli.Run(ctx, os.Args[1:], os.Stdout, os.Stderr))
//
// # Commands Overview
//
//   - sleep: Sleep in steps, showing progress
//   - shell: Run shell commands one step each, showing progress
//   - config: Show, locate or initialize configuration
//   - version, help
package cli
