// Package config provides the recorder configuration, its defaults and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/oszuidwest/zwfm-varecorder/internal/types"
	"github.com/oszuidwest/zwfm-varecorder/internal/util"
)

// Configuration defaults are used when values are not specified.
const (
	DefaultSampleRate = 16000
	DefaultBlockSize  = 1024
	DefaultTimeout    = 2 * time.Second
	DefaultMinRecTime = 2 * time.Second
	DefaultMaxRecTime = 60 * time.Second
	DefaultThreshold  = 30.0
)

// SelfTestTarget is the target name that switches the recorder into self-test mode.
const SelfTestTarget = "test"

// GlobalLockName is the lock file inside the spool directory that pauses all activity.
const GlobalLockName = "playback.lock"

// validate is the shared validator instance.
var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Use JSON tag names in error messages instead of struct field names
	validate.RegisterTagNameFunc(jsonName)
}

func jsonName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "" || name == "-" {
		return fld.Name
	}
	return name
}

// Config holds the recorder configuration.
type Config struct {
	Target   string `json:"target" validate:"required,excludesall=/\\"`
	SpoolDir string `json:"spool_dir" validate:"required"`

	SampleRate int    `json:"sample_rate" validate:"min=8000,max=192000"`
	BlockSize  int    `json:"block_size" validate:"min=64,max=65536"`
	Device     string `json:"device"`
	InputFile  string `json:"input_file"`

	Timeout    time.Duration `json:"timeout" validate:"gte=0"`
	MinRecTime time.Duration `json:"min_rec_time" validate:"gte=0"`
	MaxRecTime time.Duration `json:"max_rec_time" validate:"gte=0,gtefield=MinRecTime,gtefield=Timeout"`
	Threshold  float64       `json:"threshold" validate:"gte=0"`

	ExternalLockFile string `json:"external_lock_file"`
	LevelEnableFile  string `json:"level_enable_file"`
	LevelLockFile    string `json:"level_lock_file"`
	TriggerFile      string `json:"trigger_file"`
	InhibitProcess   string `json:"inhibit_process" validate:"omitempty,excludesall=/\\"`

	Quiet bool `json:"quiet"`

	EventLog    string            `json:"event_log"`
	MonitorAddr string            `json:"monitor_addr" validate:"omitempty,hostname_port"`
	WebhookURL  string            `json:"webhook_url" validate:"omitempty,url"`
	Email       types.GraphConfig `json:"email"`
}

// Default returns a Config populated with the default values.
func Default() *Config {
	return &Config{
		SpoolDir:   DefaultSpoolDir(),
		SampleRate: DefaultSampleRate,
		BlockSize:  DefaultBlockSize,
		Timeout:    DefaultTimeout,
		MinRecTime: DefaultMinRecTime,
		MaxRecTime: DefaultMaxRecTime,
		Threshold:  DefaultThreshold,
	}
}

// DefaultSpoolDir returns the spool directory shared with the SIP client.
func DefaultSpoolDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".sipclient", "spool", "playback")
}

// Validate checks all configuration fields for correctness.
// It returns a *types.ValidationError listing every offending field.
func (c *Config) Validate() error {
	verr := types.NewValidationError()

	if err := validate.Struct(c); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, e := range validationErrors {
				verr.Add(e.Field(), formatValidationMessage(e), e.Value())
			}
		} else {
			verr.Add("", err.Error(), nil)
		}
	}

	if c.Target == "." || c.Target == ".." {
		verr.Add("target", "must be a plain file name", c.Target)
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

// PrepareSpool creates the spool directory and verifies it is writable.
func (c *Config) PrepareSpool() error {
	if err := os.MkdirAll(c.SpoolDir, 0o755); err != nil {
		return util.WrapError("create spool directory", err)
	}
	return util.CheckPathWritable(c.SpoolDir)
}

// IsSelfTest reports whether the target selects self-test mode.
func (c *Config) IsSelfTest() bool {
	return c.Target == SelfTestTarget
}

// GlobalLockPath returns the path of the spool-wide lock file.
func (c *Config) GlobalLockPath() string {
	return filepath.Join(c.SpoolDir, GlobalLockName)
}

// OutputPath returns the final path of the recording.
func (c *Config) OutputPath() string {
	return filepath.Join(c.SpoolDir, c.Target+".wav")
}

// HasWebhook reports whether webhook notifications are configured.
func (c *Config) HasWebhook() bool {
	return util.IsConfigured(c.WebhookURL)
}

// HasGraph reports whether Microsoft Graph email notifications are configured.
func (c *Config) HasGraph() bool {
	return util.IsConfigured(c.Email.TenantID, c.Email.ClientID, c.Email.ClientSecret, c.Email.FromAddress, c.Email.Recipients)
}

// HasEventLog reports whether an event log file is configured.
func (c *Config) HasEventLog() bool {
	return util.IsConfigured(c.EventLog)
}

// HasMonitor reports whether the monitor server is enabled.
func (c *Config) HasMonitor() bool {
	return util.IsConfigured(c.MonitorAddr)
}

// formatValidationMessage creates a human-readable message from a validator error.
func formatValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", e.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", e.Param())
	case "gtefield":
		return fmt.Sprintf("must be greater than or equal to %s", fieldName(e.Param()))
	case "excludesall":
		return "must not contain path separators"
	case "url":
		return "must be a valid URL"
	case "email":
		return "must be a valid email address"
	case "hostname_port":
		return "must be a host:port address"
	default:
		return fmt.Sprintf("failed validation '%s'", e.Tag())
	}
}

// fieldName maps a Config struct field name to its JSON name.
func fieldName(structField string) string {
	f, ok := reflect.TypeFor[Config]().FieldByName(structField)
	if !ok {
		return structField
	}
	return jsonName(f)
}
