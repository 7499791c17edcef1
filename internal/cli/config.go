// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation for progressive.
//
// Command: config [subcommand]
// Short:   View and initialize configuration
//
// Subcommands:
//   show (default)      Display the effective configuration as TOML
//   path                Show configuration file path
//   init                Write a default config file (--force to overwrite)
//
// Examples:
//   progressive config                    Show current config (default)
//   progressive config show --json        Config in JSON format
//   progressive config path               Show config file location
//   progressive config init --force       Reset the config file to defaults

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bobgautier/rjgtoys-progressive/internal/config"
)

var configTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("39")) // Cyan

// runConfig handles the config command.
func runConfig(args Args, cfg *config.Config, w io.Writer) error {
	switch args.Subcommand {
	case "path":
		return configPath(args, w)
	case "init":
		return configInit(args, w)
	default:
		return configShow(args, cfg, w)
	}
}

func configShow(args Args, cfg *config.Config, w io.Writer) error {
	if args.JSON {
		return NewJSONResponse("config show", cfg, nil).Print(w)
	}
	fmt.Fprintln(w, configTitleStyle.Render("Effective configuration"))
	fmt.Fprint(w, cfg.String())
	return nil
}

func configPath(args Args, w io.Writer) error {
	path := args.ConfigPath
	if path == "" {
		var err error
		if path, err = config.ConfigPathTOML(); err != nil {
			return &CommandError{Command: "config", Action: "path", Err: err}
		}
	}

	_, statErr := os.Stat(path)
	exists := statErr == nil

	if args.JSON {
		return NewJSONResponse("config path", map[string]interface{}{
			"path":   path,
			"exists": exists,
		}, nil).Print(w)
	}
	fmt.Fprintln(w, path)
	return nil
}

func configInit(args Args, w io.Writer) error {
	path := args.ConfigPath
	if path == "" {
		var err error
		if path, err = config.ConfigPathTOML(); err != nil {
			return &CommandError{Command: "config", Action: "init", Err: err}
		}
	}

	if _, err := os.Stat(path); err == nil && !args.Force {
		return &CommandError{
			Command: "config",
			Action:  "init",
			Err:     fmt.Errorf("%s already exists (use --force to overwrite)", path),
		}
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return &CommandError{Command: "config", Action: "init", Err: err}
	}

	cfg := config.Default()
	var err error
	if strings.HasSuffix(path, ".json") {
		err = config.SaveJSON(cfg, path)
	} else {
		err = config.SaveTOML(cfg, path)
	}
	if err != nil {
		return &CommandError{Command: "config", Action: "init", Err: err}
	}

	if args.JSON {
		return NewJSONResponse("config init", map[string]interface{}{"path": path}, nil).Print(w)
	}
	fmt.Fprintf(w, "Wrote default configuration to %s\n", path)
	return nil
}
