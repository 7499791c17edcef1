// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/bobgautier/rjgtoys-progressive/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete progressive configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Task construction defaults
	Tasks TasksConfig `toml:"tasks" json:"tasks"`

	// Progress monitor configuration
	Monitor MonitorConfig `toml:"monitor" json:"monitor"`

	// Logging configuration
	Log LogConfig `toml:"log" json:"log"`

	// Display configuration
	UI UIConfig `toml:"ui" json:"ui"`
}

// TasksConfig contains defaults applied to every task definition.
type TasksConfig struct {
	// StartPollInterval is how often Start re-checks a worker that has not
	// declared its goal
	StartPollInterval Duration `toml:"start_poll_interval" json:"start_poll_interval"`
	// FallbackETA is the time-to-go reported before 1% is done
	FallbackETA Duration `toml:"fallback_eta" json:"fallback_eta"`
}

// MonitorConfig contains progress sampling configuration.
type MonitorConfig struct {
	// SampleInterval is the time between progress samples
	SampleInterval Duration `toml:"sample_interval" json:"sample_interval"`
	// MaxTracked limits the number of tasks in the registry (0 = unlimited)
	MaxTracked int `toml:"max_tracked" json:"max_tracked"`
}

// LogConfig contains logger configuration.
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `toml:"level" json:"level"`
	// Encoding is "console" or "json"
	Encoding string `toml:"encoding" json:"encoding"`
	// OutputPaths are zap sink URLs or file paths
	OutputPaths []string `toml:"output_paths" json:"output_paths"`
	// ErrorOutputPaths receive the logger's internal errors
	ErrorOutputPaths []string `toml:"error_output_paths" json:"error_output_paths"`
}

// UIConfig contains display configuration.
type UIConfig struct {
	// Mode is "auto" (TUI on a terminal, plain otherwise), "tui" or "plain"
	Mode string `toml:"mode" json:"mode"`
	// ReportRate is the maximum number of plain progress lines per second
	ReportRate float64 `toml:"report_rate" json:"report_rate"`
	// NoColor disables colored output
	NoColor bool `toml:"no_color" json:"no_color"`
}

// =============================================================================
// DURATION
// =============================================================================

// Duration is a time.Duration written as a string ("500ms", "1m") in
// config files.
type Duration struct {
	time.Duration
}

// NewDuration wraps d.
func NewDuration(d time.Duration) Duration {
	return Duration{Duration: d}
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = v
	return nil
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1",

		Tasks: TasksConfig{
			StartPollInterval: NewDuration(time.Second),
			FallbackETA:       NewDuration(60 * time.Second),
		},

		Monitor: MonitorConfig{
			SampleInterval: NewDuration(500 * time.Millisecond),
			MaxTracked:     64,
		},

		Log: LogConfig{
			Level:            "info",
			Encoding:         "console",
			OutputPaths:      []string{"stderr"},
			ErrorOutputPaths: []string{"stderr"},
		},

		UI: UIConfig{
			Mode:       "auto",
			ReportRate: 2,
			NoColor:    false,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the progressive configuration directory path.
// PROGRESSIVE_HOME overrides the default of ~/.progressive.
func ConfigDir() (string, error) {
	if dir := os.Getenv("PROGRESSIVE_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".progressive"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	var loadErr error

	for _, pathFn := range []func() (string, error){ConfigPathTOML, ConfigPathJSON} {
		path, err := pathFn()
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(path); statErr != nil {
			continue
		}
		cfg, err := LoadFromPath(path)
		if err != nil {
			loadErr = err
			break
		}
		return cfg, nil
	}

	cfg := Default()
	if err := finalize(cfg); err != nil {
		return nil, err
	}

	// Return defaults (with any load error for informational purposes)
	return cfg, loadErr
}

// LoadTOML decodes a TOML file into cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file into cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full
// validation. Files ending in .json are read as JSON, anything else as TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := &Config{}

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	if err := finalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// finalize fills defaults, applies environment overrides and validates.
func finalize(cfg *Config) error {
	cfg.SetDefaults()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// SetDefaults fills in any missing values with defaults.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}

	// Tasks
	if c.Tasks.StartPollInterval.Duration == 0 {
		c.Tasks.StartPollInterval = defaults.Tasks.StartPollInterval
	}
	if c.Tasks.FallbackETA.Duration == 0 {
		c.Tasks.FallbackETA = defaults.Tasks.FallbackETA
	}

	// Monitor
	if c.Monitor.SampleInterval.Duration == 0 {
		c.Monitor.SampleInterval = defaults.Monitor.SampleInterval
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.Encoding == "" {
		c.Log.Encoding = defaults.Log.Encoding
	}
	if len(c.Log.OutputPaths) == 0 {
		c.Log.OutputPaths = defaults.Log.OutputPaths
	}
	if len(c.Log.ErrorOutputPaths) == 0 {
		c.Log.ErrorOutputPaths = defaults.Log.ErrorOutputPaths
	}

	// UI
	if c.UI.Mode == "" {
		c.UI.Mode = defaults.UI.Mode
	}
	if c.UI.ReportRate == 0 {
		c.UI.ReportRate = defaults.UI.ReportRate
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML location.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg to path as TOML.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# progressive configuration\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON writes cfg to path as indented JSON.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Tasks.StartPollInterval.Duration <= 0 {
		errs = append(errs, ValidationError{
			Field:   "tasks.start_poll_interval",
			Message: fmt.Sprintf("must be positive, got %v", c.Tasks.StartPollInterval),
		})
	}
	if c.Tasks.FallbackETA.Duration < 0 {
		errs = append(errs, ValidationError{
			Field:   "tasks.fallback_eta",
			Message: fmt.Sprintf("must not be negative, got %v", c.Tasks.FallbackETA),
		})
	}

	if c.Monitor.SampleInterval.Duration <= 0 {
		errs = append(errs, ValidationError{
			Field:   "monitor.sample_interval",
			Message: fmt.Sprintf("must be positive, got %v", c.Monitor.SampleInterval),
		})
	}
	if c.Monitor.MaxTracked < 0 {
		errs = append(errs, ValidationError{
			Field:   "monitor.max_tracked",
			Message: fmt.Sprintf("must not be negative, got %d", c.Monitor.MaxTracked),
		})
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}
	validEncodings := map[string]bool{"console": true, "json": true}
	if !validEncodings[strings.ToLower(c.Log.Encoding)] {
		errs = append(errs, ValidationError{
			Field:   "log.encoding",
			Message: fmt.Sprintf("invalid encoding '%s', must be one of: console, json", c.Log.Encoding),
		})
	}

	validModes := map[string]bool{"auto": true, "tui": true, "plain": true}
	if !validModes[strings.ToLower(c.UI.Mode)] {
		errs = append(errs, ValidationError{
			Field:   "ui.mode",
			Message: fmt.Sprintf("invalid mode '%s', must be one of: auto, tui, plain", c.UI.Mode),
		})
	}
	if c.UI.ReportRate <= 0 {
		errs = append(errs, ValidationError{
			Field:   "ui.report_rate",
			Message: fmt.Sprintf("must be positive, got %g", c.UI.ReportRate),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - PROGRESSIVE_LOG_LEVEL: overrides log.level
//   - PROGRESSIVE_UI_MODE: overrides ui.mode
//   - PROGRESSIVE_SAMPLE_INTERVAL: overrides monitor.sample_interval
//   - PROGRESSIVE_FALLBACK_ETA: overrides tasks.fallback_eta
//   - NO_COLOR: any non-empty value sets ui.no_color
//
// Unparseable durations are reported on stderr and ignored.
func (c *Config) ApplyEnvOverrides() {
	if level := os.Getenv("PROGRESSIVE_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}

	if mode := os.Getenv("PROGRESSIVE_UI_MODE"); mode != "" {
		c.UI.Mode = mode
	}

	envDuration("PROGRESSIVE_SAMPLE_INTERVAL", &c.Monitor.SampleInterval)
	envDuration("PROGRESSIVE_FALLBACK_ETA", &c.Tasks.FallbackETA)

	if os.Getenv("NO_COLOR") != "" {
		c.UI.NoColor = true
	}
}

func envDuration(key string, dst *Duration) {
	raw := os.Getenv(key)
	if raw == "" {
		return
	}
	var d Duration
	if err := d.UnmarshalText([]byte(raw)); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: ignoring %s: %v\n", key, err)
		return
	}
	*dst = d
}

// =============================================================================
// FORMATTING
// =============================================================================

// String renders the configuration as TOML.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Sprintf("<config: %v>", err)
	}
	return buf.String()
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
		if cfg == nil {
			cfg = Default()
		}
		globalConfigMu.Lock()
		globalConfig = cfg
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigOnce.Do(func() {})
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
