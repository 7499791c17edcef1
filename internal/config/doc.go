// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for progressive.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - TasksConfig: Defaults applied to every task (start polling, fallback ETA)
//   - MonitorConfig: Progress sampling interval and registry size
//   - LogConfig: Logger level, encoding and sinks
//   - UIConfig: Progress display mode and rate
//   - Duration: time.Duration that reads and writes as "500ms"
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (PROGRESSIVE_*, NO_COLOR)
//   - ~/.progressive/config.toml
//   - ~/.progressive/config.json
//   - Built-in defaults
//
// PROGRESSIVE_HOME replaces ~/.progressive.
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Access settings:
//
//	interval := cfg.Monitor.SampleInterval.Duration
//	mode := cfg.UI.Mode
package config
