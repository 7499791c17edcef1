// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the config directory at a temp dir and clears overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("PROGRESSIVE_HOME", dir)
	for _, key := range []string{
		"PROGRESSIVE_LOG_LEVEL",
		"PROGRESSIVE_UI_MODE",
		"PROGRESSIVE_SAMPLE_INTERVAL",
		"PROGRESSIVE_FALLBACK_ETA",
		"NO_COLOR",
	} {
		t.Setenv(key, "")
	}
	return dir
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, time.Second, cfg.Tasks.StartPollInterval.Duration)
	assert.Equal(t, 60*time.Second, cfg.Tasks.FallbackETA.Duration)
	assert.Equal(t, 500*time.Millisecond, cfg.Monitor.SampleInterval.Duration)
	assert.Equal(t, "auto", cfg.UI.Mode)
}

func TestConfigDir_HonorsOverride(t *testing.T) {
	dir := isolate(t)

	got, err := ConfigDir()
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	path, err := ConfigPathTOML()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml"), path)
}

// =============================================================================
// LOADING
// =============================================================================

func TestLoad_NoFilesGivesDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_TOMLFile(t *testing.T) {
	dir := isolate(t)
	content := `
[tasks]
start_poll_interval = "250ms"
fallback_eta = "2m"

[monitor]
sample_interval = "1s"
max_tracked = 8

[log]
level = "debug"

[ui]
mode = "plain"
no_color = true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.Tasks.StartPollInterval.Duration)
	assert.Equal(t, 2*time.Minute, cfg.Tasks.FallbackETA.Duration)
	assert.Equal(t, time.Second, cfg.Monitor.SampleInterval.Duration)
	assert.Equal(t, 8, cfg.Monitor.MaxTracked)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "plain", cfg.UI.Mode)
	assert.True(t, cfg.UI.NoColor)

	// Unset fields are filled from defaults
	assert.Equal(t, "console", cfg.Log.Encoding)
	assert.Equal(t, []string{"stderr"}, cfg.Log.OutputPaths)
	assert.Equal(t, 2.0, cfg.UI.ReportRate)
}

func TestLoad_JSONFallback(t *testing.T) {
	dir := isolate(t)
	content := `{"monitor": {"sample_interval": "750ms"}, "ui": {"mode": "tui"}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 750*time.Millisecond, cfg.Monitor.SampleInterval.Duration)
	assert.Equal(t, "tui", cfg.UI.Mode)
}

func TestLoad_InvalidFileReturnsDefaultsWithError(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`[ui]
mode = "fancy"
`), 0600))

	cfg, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ui.mode")
	require.NotNil(t, cfg)
	assert.Equal(t, "auto", cfg.UI.Mode)
}

func TestLoadFromPath_BadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte(`[monitor]
sample_interval = "soon"
`), 0600))

	_, err := LoadFromPath(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "soon")
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

func TestApplyEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("PROGRESSIVE_LOG_LEVEL", "warn")
	t.Setenv("PROGRESSIVE_UI_MODE", "plain")
	t.Setenv("PROGRESSIVE_SAMPLE_INTERVAL", "2s")
	t.Setenv("PROGRESSIVE_FALLBACK_ETA", "90s")
	t.Setenv("NO_COLOR", "1")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "plain", cfg.UI.Mode)
	assert.Equal(t, 2*time.Second, cfg.Monitor.SampleInterval.Duration)
	assert.Equal(t, 90*time.Second, cfg.Tasks.FallbackETA.Duration)
	assert.True(t, cfg.UI.NoColor)
}

func TestApplyEnvOverrides_IgnoresBadDuration(t *testing.T) {
	isolate(t)
	t.Setenv("PROGRESSIVE_SAMPLE_INTERVAL", "often")

	cfg := Default()
	cfg.ApplyEnvOverrides()
	assert.Equal(t, 500*time.Millisecond, cfg.Monitor.SampleInterval.Duration)
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Tasks.StartPollInterval = NewDuration(0)
	cfg.Monitor.MaxTracked = -1
	cfg.Log.Level = "loud"
	cfg.UI.ReportRate = -2

	err := cfg.Validate()
	require.Error(t, err)

	var errs ValidateErrors
	require.ErrorAs(t, err, &errs)
	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{
		"tasks.start_poll_interval",
		"monitor.max_tracked",
		"log.level",
		"ui.report_rate",
	}, fields)
}

// =============================================================================
// SAVING
// =============================================================================

func TestSaveTOML_RoundTrip(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.Tasks.FallbackETA = NewDuration(45 * time.Second)
	cfg.Log.Encoding = "json"
	require.NoError(t, SaveTOML(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSaveJSON_RoundTrip(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := Default()
	cfg.Monitor.SampleInterval = NewDuration(3 * time.Second)
	require.NoError(t, SaveJSON(cfg, path))

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestDuration_Text(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte(" 1m30s ")))
	assert.Equal(t, 90*time.Second, d.Duration)

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(text))

	assert.Error(t, d.UnmarshalText([]byte("fortnight")))
}

// =============================================================================
// GLOBAL
// =============================================================================

// TestConfig_ConcurrentAccess checks that Global and SetGlobal can be
// called concurrently. Run with -race.
func TestConfig_ConcurrentAccess(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	t.Cleanup(ResetGlobalForTesting)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)

		go func() {
			defer wg.Done()
			c := Default()
			c.Version = "test"
			SetGlobal(c)
		}()

		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
}

func TestSetGlobal_WinsOverLoad(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	t.Cleanup(ResetGlobalForTesting)

	c := Default()
	c.UI.Mode = "plain"
	SetGlobal(c)
	assert.Same(t, c, Global())
}
