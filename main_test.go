package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/oszuidwest/zwfm-varecorder/internal/config"
)

func parseArgs(t *testing.T, args ...string) *CLI {
	t.Helper()
	var cli CLI
	var out bytes.Buffer
	parser, err := newParser(&cli, kong.Writers(&out, &out), kong.Exit(func(int) {}))
	if err != nil {
		t.Fatalf("newParser() error = %v", err)
	}
	if _, err := parser.Parse(args); err != nil {
		t.Fatalf("Parse(%v) error = %v", args, err)
	}
	return &cli
}

func TestParseDefaults(t *testing.T) {
	cfg := parseArgs(t, "news").toConfig()

	if cfg.Target != "news" {
		t.Errorf("Target = %q, want %q", cfg.Target, "news")
	}
	if cfg.SampleRate != config.DefaultSampleRate {
		t.Errorf("SampleRate = %d, want %d", cfg.SampleRate, config.DefaultSampleRate)
	}
	if cfg.BlockSize != config.DefaultBlockSize {
		t.Errorf("BlockSize = %d, want %d", cfg.BlockSize, config.DefaultBlockSize)
	}
	if cfg.Timeout != config.DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", cfg.Timeout, config.DefaultTimeout)
	}
	if cfg.MinRecTime != config.DefaultMinRecTime {
		t.Errorf("MinRecTime = %v, want %v", cfg.MinRecTime, config.DefaultMinRecTime)
	}
	if cfg.MaxRecTime != config.DefaultMaxRecTime {
		t.Errorf("MaxRecTime = %v, want %v", cfg.MaxRecTime, config.DefaultMaxRecTime)
	}
	if cfg.Threshold != config.DefaultThreshold {
		t.Errorf("Threshold = %v, want %v", cfg.Threshold, config.DefaultThreshold)
	}
	if cfg.SpoolDir != config.DefaultSpoolDir() {
		t.Errorf("SpoolDir = %q, want %q", cfg.SpoolDir, config.DefaultSpoolDir())
	}
}

func TestParseFlags(t *testing.T) {
	dir := t.TempDir()
	cli := parseArgs(t,
		"-r", "8000", "-b", "512", "-t", "1.5", "-m", "0.5", "-M", "30", "-l", "42",
		"-q", "--spool-dir", dir, "--trigger-file", filepath.Join(dir, "go"),
		"--webhook-url", "https://example.com/hook", "--email-recipients", "a@example.com",
		"news",
	)
	cfg := cli.toConfig()

	if cfg.SampleRate != 8000 || cfg.BlockSize != 512 {
		t.Errorf("SampleRate, BlockSize = %d, %d, want 8000, 512", cfg.SampleRate, cfg.BlockSize)
	}
	if cfg.Timeout != 1500*time.Millisecond {
		t.Errorf("Timeout = %v, want 1.5s", cfg.Timeout)
	}
	if cfg.MinRecTime != 500*time.Millisecond {
		t.Errorf("MinRecTime = %v, want 500ms", cfg.MinRecTime)
	}
	if cfg.MaxRecTime != 30*time.Second {
		t.Errorf("MaxRecTime = %v, want 30s", cfg.MaxRecTime)
	}
	if cfg.Threshold != 42 {
		t.Errorf("Threshold = %v, want 42", cfg.Threshold)
	}
	if !cfg.Quiet {
		t.Error("Quiet = false, want true")
	}
	if cfg.SpoolDir != dir {
		t.Errorf("SpoolDir = %q, want %q", cfg.SpoolDir, dir)
	}
	if cfg.TriggerFile != filepath.Join(dir, "go") {
		t.Errorf("TriggerFile = %q, want %q", cfg.TriggerFile, filepath.Join(dir, "go"))
	}
	if !cfg.HasWebhook() {
		t.Error("HasWebhook() = false, want true")
	}
	if cfg.Email.Recipients != "a@example.com" {
		t.Errorf("Email.Recipients = %q, want %q", cfg.Email.Recipients, "a@example.com")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestParseConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "varecorder.json")
	data, err := json.Marshal(map[string]any{"threshold": 12, "timeout": 3})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := parseArgs(t, "--config", path, "--timeout", "4", "news").toConfig()

	if cfg.Threshold != 12 {
		t.Errorf("Threshold = %v, want 12 from config file", cfg.Threshold)
	}
	if cfg.Timeout != 4*time.Second {
		t.Errorf("Timeout = %v, want 4s from command line", cfg.Timeout)
	}
}

func TestSeconds(t *testing.T) {
	tests := []struct {
		in   float64
		want time.Duration
	}{
		{0, 0},
		{2, 2 * time.Second},
		{0.25, 250 * time.Millisecond},
		{1.5, 1500 * time.Millisecond},
	}

	for _, tt := range tests {
		if got := seconds(tt.in); got != tt.want {
			t.Errorf("seconds(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRunExitCodes(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"invalid flag value", []string{"--sample-rate", "fast", "news"}, exitConfigError},
		{"missing target", []string{"--spool-dir", t.TempDir()}, exitConfigError},
		{"max below min", []string{"--spool-dir", t.TempDir(), "-m", "10", "-M", "5", "news"}, exitConfigError},
		{"target with separator", []string{"--spool-dir", t.TempDir(), "a/b"}, exitConfigError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := run(tt.args); got != tt.want {
				t.Errorf("run(%v) = %d, want %d", tt.args, got, tt.want)
			}
		})
	}
}

func TestBuildGates(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Target = "news"
	cfg.SpoolDir = dir

	if got := buildGates(cfg).Len(); got != 1 {
		t.Fatalf("buildGates(defaults).Len() = %d, want 1", got)
	}

	cfg.ExternalLockFile = filepath.Join(dir, "external.lock")
	cfg.LevelLockFile = filepath.Join(dir, "level.lock")
	cfg.LevelEnableFile = filepath.Join(dir, "level.enable")
	cfg.TriggerFile = filepath.Join(dir, "trigger")
	gates := buildGates(cfg)
	if got := gates.Len(); got != 5 {
		t.Fatalf("Len() = %d, want 5", got)
	}

	status := gates.Evaluate()
	if status.Locked || status.Triggered {
		t.Errorf("Evaluate() Locked, Triggered = %v, %v, want false, false", status.Locked, status.Triggered)
	}
	if status.LevelEnabled {
		t.Error("Evaluate() LevelEnabled = true with enable file absent, want false")
	}

	for _, p := range []string{cfg.GlobalLockPath(), cfg.LevelLockFile, cfg.LevelEnableFile, cfg.TriggerFile} {
		if err := os.WriteFile(p, nil, 0o600); err != nil {
			t.Fatal(err)
		}
	}
	status = gates.Evaluate()
	if !status.Locked || !status.Triggered || !status.LevelEnabled {
		t.Errorf("Evaluate() Locked, Triggered, LevelEnabled = %v, %v, %v, want all true",
			status.Locked, status.Triggered, status.LevelEnabled)
	}
	slices.Sort(status.LockedBy)
	if want := []string{"global_lock", "level_lock"}; !slices.Equal(status.LockedBy, want) {
		t.Errorf("LockedBy = %v, want %v", status.LockedBy, want)
	}
}

func TestBuildGatesInhibitProcess(t *testing.T) {
	cfg := config.Default()
	cfg.Target = "news"
	cfg.SpoolDir = t.TempDir()
	cfg.InhibitProcess = "baresip"

	gates := buildGates(cfg)
	if got := gates.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
}

func TestIsNewerVersion(t *testing.T) {
	tests := []struct {
		latest, current string
		want            bool
	}{
		{"1.2.0", "1.1.0", true},
		{"v1.2.0", "1.2.0", false},
		{"1.10.0", "1.9.0", true},
		{"1.0.0", "1.0.1", false},
		{"2.0.0", "1.99.99", true},
		{" v1.0.1 ", "v1.0.0", true},
	}

	for _, tt := range tests {
		if got := isNewerVersion(tt.latest, tt.current); got != tt.want {
			t.Errorf("isNewerVersion(%q, %q) = %v, want %v", tt.latest, tt.current, got, tt.want)
		}
	}
}

func TestLatestRelease(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr bool
	}{
		{"stable", http.StatusOK, `{"tag_name":"v1.4.0"}`, "1.4.0", false},
		{"prerelease", http.StatusOK, `{"tag_name":"v2.0.0-rc1","prerelease":true}`, "", false},
		{"draft", http.StatusOK, `{"tag_name":"v2.0.0","draft":true}`, "", false},
		{"no releases", http.StatusNotFound, `{}`, "", false},
		{"rate limited", http.StatusForbidden, `{}`, "", true},
		{"bad json", http.StatusOK, `{`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			got, err := latestRelease(context.Background(), srv.URL)
			if (err != nil) != tt.wantErr {
				t.Fatalf("latestRelease() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("latestRelease() = %q, want %q", got, tt.want)
			}
		})
	}
}
