package config

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/oszuidwest/zwfm-varecorder/internal/types"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	c := Default()
	c.Target = "greeting"
	c.SpoolDir = t.TempDir()
	return c
}

func TestDefault(t *testing.T) {
	c := Default()
	if c.SampleRate != 16000 || c.BlockSize != 1024 {
		t.Errorf("Default() rate/block = %d/%d, want 16000/1024", c.SampleRate, c.BlockSize)
	}
	if c.Timeout != 2*time.Second || c.MinRecTime != 2*time.Second || c.MaxRecTime != 60*time.Second {
		t.Errorf("Default() durations = %v/%v/%v, want 2s/2s/1m0s", c.Timeout, c.MinRecTime, c.MaxRecTime)
	}
	if c.Threshold != 30 {
		t.Errorf("Default() threshold = %v, want 30", c.Threshold)
	}
	if filepath.Base(c.SpoolDir) != "playback" {
		t.Errorf("Default() spool dir = %q, want .../playback", c.SpoolDir)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing target", func(c *Config) { c.Target = "" }, "target"},
		{"target with slash", func(c *Config) { c.Target = "a/b" }, "target"},
		{"target with backslash", func(c *Config) { c.Target = `a\b` }, "target"},
		{"target dot dot", func(c *Config) { c.Target = ".." }, "target"},
		{"max below min", func(c *Config) { c.MaxRecTime = time.Second }, "max_rec_time"},
		{"max below timeout", func(c *Config) { c.Timeout = 90 * time.Second }, "max_rec_time"},
		{"max equals min", func(c *Config) { c.MaxRecTime = c.MinRecTime }, ""},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }, "timeout"},
		{"negative threshold", func(c *Config) { c.Threshold = -1 }, "threshold"},
		{"zero threshold", func(c *Config) { c.Threshold = 0 }, ""},
		{"sample rate too low", func(c *Config) { c.SampleRate = 100 }, "sample_rate"},
		{"block size too small", func(c *Config) { c.BlockSize = 1 }, "block_size"},
		{"bad webhook", func(c *Config) { c.WebhookURL = "not a url" }, "webhook_url"},
		{"bad monitor addr", func(c *Config) { c.MonitorAddr = "localhost" }, "monitor_addr"},
		{"monitor port only", func(c *Config) { c.MonitorAddr = ":8080" }, ""},
		{"bad sender", func(c *Config) { c.Email.FromAddress = "nobody" }, "from_address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig(t)
			tt.modify(c)
			err := c.Validate()

			if tt.field == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}

			var verr *types.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() = %v, want *types.ValidationError", err)
			}
			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("Validate() errors = %v, want one for %q", verr.Errors, tt.field)
			}
		})
	}
}

func TestPaths(t *testing.T) {
	c := validConfig(t)
	if got, want := c.OutputPath(), filepath.Join(c.SpoolDir, "greeting.wav"); got != want {
		t.Errorf("OutputPath() = %q, want %q", got, want)
	}
	if got, want := c.GlobalLockPath(), filepath.Join(c.SpoolDir, "playback.lock"); got != want {
		t.Errorf("GlobalLockPath() = %q, want %q", got, want)
	}
	if c.IsSelfTest() {
		t.Error("IsSelfTest() = true, want false")
	}
	c.Target = "test"
	if !c.IsSelfTest() {
		t.Error("IsSelfTest() = false, want true")
	}
}

func TestPrepareSpool(t *testing.T) {
	c := validConfig(t)
	c.SpoolDir = filepath.Join(c.SpoolDir, "nested", "spool")
	if err := c.PrepareSpool(); err != nil {
		t.Fatalf("PrepareSpool() = %v, want nil", err)
	}
}
