package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"daybook/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "daybook.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("exists = true for a missing file")
	}
	if resolved == "" {
		t.Fatal("resolved path must still be reported")
	}
	if cfg.Server.BaseURL != "http://127.0.0.1:8000/api" {
		t.Fatalf("base URL default = %q", cfg.Server.BaseURL)
	}
	if cfg.Poll.JobInterval != 2 || cfg.Poll.JobMaxInterval != 5 {
		t.Fatalf("job poll defaults = %d/%d", cfg.Poll.JobInterval, cfg.Poll.JobMaxInterval)
	}
	if cfg.Autosave.Debounce != 5 || cfg.Autosave.MaxWait != 30 {
		t.Fatalf("autosave defaults = %d/%d", cfg.Autosave.Debounce, cfg.Autosave.MaxWait)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("logging defaults = %q/%q", cfg.Logging.Format, cfg.Logging.Level)
	}
}

func TestLoadAppliesOverrides(t *testing.T) {
	path := writeConfig(t, `
[server]
base_url = "https://diary.example.com/api/"
read_timeout = 30

[poll]
status_active_interval = 5
status_idle_interval = 40

[logging]
format = "json"
level = "debug"
`)
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("exists = false for a present file")
	}
	if cfg.Server.BaseURL != "https://diary.example.com/api" {
		t.Fatalf("trailing slash not trimmed: %q", cfg.Server.BaseURL)
	}
	if cfg.Server.ReadTimeout != 30 {
		t.Fatalf("read timeout = %d", cfg.Server.ReadTimeout)
	}
	if cfg.Poll.StatusActive != 5 || cfg.Poll.StatusIdle != 40 {
		t.Fatalf("status poll = %d/%d", cfg.Poll.StatusActive, cfg.Poll.StatusIdle)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("logging = %q/%q", cfg.Logging.Format, cfg.Logging.Level)
	}
	// Untouched sections keep their defaults.
	if cfg.Publish.Concurrency != 3 {
		t.Fatalf("publish concurrency = %d", cfg.Publish.Concurrency)
	}
}

func TestLoadExpandsHomePaths(t *testing.T) {
	path := writeConfig(t, `
[paths]
state_dir = "~/daybook-state"
`)
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if strings.HasPrefix(cfg.Paths.StateDir, "~") {
		t.Fatalf("state dir not expanded: %q", cfg.Paths.StateDir)
	}
	if !filepath.IsAbs(cfg.Paths.StateDir) {
		t.Fatalf("state dir not absolute: %q", cfg.Paths.StateDir)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantIn  string
	}{
		{
			name:    "bad base url",
			content: "[server]\nbase_url = \"not a url\"\n",
			wantIn:  "base_url",
		},
		{
			name:    "bad log format",
			content: "[logging]\nformat = \"xml\"\n",
			wantIn:  "logging.format",
		},
		{
			name:    "bad log level",
			content: "[logging]\nlevel = \"verbose\"\n",
			wantIn:  "logging.level",
		},
		{
			name:    "autosave floor below debounce",
			content: "[autosave]\ndebounce = 60\nmax_wait = 10\n",
			wantIn:  "autosave.max_wait",
		},
		{
			name:    "excessive concurrency",
			content: "[publish]\nconcurrency = 50\n",
			wantIn:  "publish.concurrency",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.content)
			_, _, _, err := config.Load(path)
			if err == nil {
				t.Fatal("Load accepted an invalid config")
			}
			if !strings.Contains(err.Error(), tc.wantIn) {
				t.Fatalf("err = %v, want mention of %q", err, tc.wantIn)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
	if !exists {
		t.Fatal("sample config not detected")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config invalid: %v", err)
	}
}
