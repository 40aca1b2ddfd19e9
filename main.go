// Package main provides a voice-activity triggered recorder: it listens to an
// audio input and saves whatever is spoken to <spool-dir>/<target>.wav for
// the SIP client to pick up.
//
// Usage:
//
//	varecorder [flags] <target>
//
// Recording starts when the loudness reaches the threshold or while the
// trigger file exists, and pauses while any lock file exists.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/oszuidwest/zwfm-varecorder/internal/audio"
	"github.com/oszuidwest/zwfm-varecorder/internal/util"
)

// Process exit codes.
const (
	exitOK            = 0
	exitConfigError   = 1
	exitDeviceOpen    = 2
	exitDeviceFailure = 3
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run parses args, runs the recorder and returns the process exit code.
func run(args []string) int {
	var cli CLI
	parser, err := newParser(&cli)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitConfigError
	}
	if _, err := parser.Parse(args); err != nil {
		parser.Errorf("%s", err)
		return exitConfigError
	}

	setupLogging(cli.LogLevel)

	if cli.ListDevices {
		return listDevices()
	}

	cfg := cli.toConfig()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		return exitConfigError
	}
	if err := cfg.PrepareSpool(); err != nil {
		slog.Error("spool directory not usable", "path", cfg.SpoolDir, "error", err)
		return exitConfigError
	}

	ctx, stop := signal.NotifyContext(context.Background(), util.ShutdownSignals()...)
	defer stop()

	if cli.CheckUpdate {
		go checkForUpdate(ctx, releaseURL)
	}

	return runRecorder(ctx, cfg)
}

// setupLogging installs a text handler on stderr at the given level.
func setupLogging(level string) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
}

// listDevices prints the audio devices known to the host.
func listDevices() int {
	devices, err := audio.ListDevices()
	if err != nil {
		slog.Error("failed to list audio devices", "error", err)
		return exitDeviceOpen
	}

	for _, d := range devices {
		var caps []string
		if d.MaxInputChannels > 0 {
			caps = append(caps, fmt.Sprintf("%d in", d.MaxInputChannels))
		}
		if d.MaxOutputChannels > 0 {
			caps = append(caps, fmt.Sprintf("%d out", d.MaxOutputChannels))
		}
		fmt.Printf("%3d) %s (%s, %.0f Hz)\n", d.Index, d.Name, strings.Join(caps, ", "), d.DefaultSampleRate)
	}
	return exitOK
}
