package main

import (
	"time"

	"github.com/alecthomas/kong"
	"github.com/oszuidwest/zwfm-varecorder/internal/config"
	"github.com/oszuidwest/zwfm-varecorder/internal/types"
)

// CLI defines the command-line interface.
type CLI struct {
	Target string `arg:"" optional:"" help:"Recording name, saved as <spool-dir>/<target>.wav. \"test\" runs the self-test."`

	SampleRate int     `short:"r" default:"16000" help:"Capture sample rate in Hz."`
	BlockSize  int     `short:"b" default:"1024" help:"Samples per audio block."`
	Device     string  `short:"d" help:"Input device index or name (default: first input device)."`
	Timeout    float64 `short:"t" default:"2" help:"Seconds of silence that end a level-triggered recording."`
	MinRecTime float64 `short:"m" default:"2" help:"Level-triggered recordings must be longer than this many seconds."`
	MaxRecTime float64 `short:"M" default:"60" help:"Maximum recording length in seconds."`
	Threshold  float64 `short:"l" default:"30" help:"Loudness that starts a recording (0-1000)."`

	SpoolDir         string `type:"path" default:"${spool_dir}" help:"Output directory, also holds playback.lock."`
	ExternalLockFile string `type:"path" help:"Pause while this file exists."`
	LevelEnableFile  string `type:"path" help:"Only start on level while this file exists."`
	LevelLockFile    string `type:"path" help:"Pause while this file exists."`
	TriggerFile      string `type:"path" help:"Record while this file exists."`
	InhibitProcess   string `help:"Pause while a process with this exact name runs."`

	Quiet       bool   `short:"q" help:"Do not print the level line."`
	InputFile   string `type:"existingfile" help:"Replay a mono 16-bit WAV file instead of capturing."`
	ListDevices bool   `help:"List audio devices and exit."`

	EventLog    string `type:"path" help:"Append gate and recording events to this JSON lines file."`
	MonitorAddr string `help:"Serve the read-only monitor on this address (e.g. :8090)."`
	WebhookURL  string `help:"POST recording outcomes to this URL."`

	EmailTenantID     string `help:"Microsoft Graph tenant ID."`
	EmailClientID     string `help:"Microsoft Graph client ID."`
	EmailClientSecret string `env:"VARECORDER_EMAIL_CLIENT_SECRET" help:"Microsoft Graph client secret."`
	EmailFrom         string `help:"Sender mailbox for email notifications."`
	EmailRecipients   string `help:"Comma-separated email recipients."`

	LogLevel    string `enum:"debug,info,warn,error" default:"info" help:"Log level (debug, info, warn, error)."`
	CheckUpdate bool   `help:"Log when a newer release is available."`

	Config  kong.ConfigFlag  `help:"Load flag defaults from a JSON file."`
	Version kong.VersionFlag `short:"v" help:"Show version information and exit."`
}

// newParser creates the kong parser for cli.
func newParser(cli *CLI, options ...kong.Option) (*kong.Kong, error) {
	options = append([]kong.Option{
		kong.Name("varecorder"),
		kong.Description("Voice-activity triggered recorder for the SIP client spool."),
		kong.UsageOnError(),
		kong.Configuration(kong.JSON),
		kong.Vars{
			"version":   versionString(),
			"spool_dir": config.DefaultSpoolDir(),
		},
	}, options...)
	return kong.New(cli, options...)
}

// toConfig converts parsed flags to the recorder configuration.
func (c *CLI) toConfig() *config.Config {
	return &config.Config{
		Target:           c.Target,
		SpoolDir:         c.SpoolDir,
		SampleRate:       c.SampleRate,
		BlockSize:        c.BlockSize,
		Device:           c.Device,
		InputFile:        c.InputFile,
		Timeout:          seconds(c.Timeout),
		MinRecTime:       seconds(c.MinRecTime),
		MaxRecTime:       seconds(c.MaxRecTime),
		Threshold:        c.Threshold,
		ExternalLockFile: c.ExternalLockFile,
		LevelEnableFile:  c.LevelEnableFile,
		LevelLockFile:    c.LevelLockFile,
		TriggerFile:      c.TriggerFile,
		InhibitProcess:   c.InhibitProcess,
		Quiet:            c.Quiet,
		EventLog:         c.EventLog,
		MonitorAddr:      c.MonitorAddr,
		WebhookURL:       c.WebhookURL,
		Email: types.GraphConfig{
			TenantID:     c.EmailTenantID,
			ClientID:     c.EmailClientID,
			ClientSecret: c.EmailClientSecret,
			FromAddress:  c.EmailFrom,
			Recipients:   c.EmailRecipients,
		},
	}
}

// seconds converts fractional seconds to a duration.
func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
