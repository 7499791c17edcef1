// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/bobgautier/rjgtoys-progressive/internal/config"
	"github.com/bobgautier/rjgtoys-progressive/internal/logging"
)

// =============================================================================
// ENTRY POINT
// =============================================================================

// Main runs the command line in os.Args and returns the exit code.
// SIGINT and SIGTERM ask the running task to stop.
func Main() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

// Run executes argv and returns the exit code. Cancelling ctx asks a running
// task to stop; Run still waits for it.
func Run(ctx context.Context, argv []string, stdout, stderr io.Writer) int {
	cmd, args, err := Parse(argv)
	if err != nil {
		DisplayError(stderr, err)
		return ExitCode(err)
	}

	switch cmd {
	case CmdHelp:
		PrintUsage(stdout)
		return ExitSuccess
	case CmdVersion:
		PrintVersion(stdout)
		return ExitSuccess
	}

	// path and init must work when the config file is missing or broken
	if cmd == CmdConfig && args.Subcommand != "show" {
		err = runConfig(args, nil, stdout)
		if err != nil {
			DisplayError(stderr, err)
		}
		return ExitCode(err)
	}

	cfg, err := loadConfig(args)
	if err != nil {
		DisplayError(stderr, err)
		return ExitFailure
	}

	color := colorsEnabled(cfg, stderr)
	applyColorProfile(color)

	if cmd == CmdConfig {
		err = runConfig(args, cfg, stdout)
		if err != nil {
			DisplayError(stderr, err)
		}
		return ExitCode(err)
	}

	if args.Verbose {
		cfg.Log.Level = "debug"
	}
	log, err := logging.New(cfg.Log, color)
	if err != nil {
		DisplayError(stderr, &CommandError{Command: cmd.String(), Action: "start", Err: fmt.Errorf("failed to build logger: %w", err)})
		return ExitFailure
	}
	defer func() { _ = log.Sync() }()

	env := &runEnv{
		ctx:    ctx,
		args:   args,
		cfg:    cfg,
		log:    log,
		stdout: stdout,
		stderr: stderr,
		color:  color,
	}

	switch cmd {
	case CmdSleep:
		err = runSleep(env)
	case CmdShell:
		err = runShell(env)
	}
	if err != nil {
		log.Debug("command failed", zap.String("command", cmd.String()), zap.Error(err))
		if !args.JSON {
			DisplayError(stderr, err)
		}
	}
	return ExitCode(err)
}

// loadConfig reads --config when given, otherwise the default locations.
// A broken default config is reported and replaced by defaults. The result
// is a copy the caller may modify.
func loadConfig(args Args) (*config.Config, error) {
	if args.ConfigPath != "" {
		cfg, err := config.LoadFromPath(args.ConfigPath)
		if err != nil {
			return nil, err
		}
		config.SetGlobal(cfg)
		c := *cfg
		return &c, nil
	}
	cfg := *config.Global()
	return &cfg, nil
}

// runEnv carries what every task command needs.
type runEnv struct {
	ctx    context.Context
	args   Args
	cfg    *config.Config
	log    *zap.Logger
	stdout io.Writer
	stderr io.Writer
	color  bool
}

// taskName returns --name or fallback.
func (e *runEnv) taskName(fallback string) string {
	if e.args.Name != "" {
		return e.args.Name
	}
	return fallback
}
