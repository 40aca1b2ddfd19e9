package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/oszuidwest/zwfm-varecorder/internal/audio"
	"github.com/oszuidwest/zwfm-varecorder/internal/config"
	"github.com/oszuidwest/zwfm-varecorder/internal/eventlog"
	"github.com/oszuidwest/zwfm-varecorder/internal/gate"
	"github.com/oszuidwest/zwfm-varecorder/internal/monitor"
	"github.com/oszuidwest/zwfm-varecorder/internal/notify"
	"github.com/oszuidwest/zwfm-varecorder/internal/recording"
	"github.com/oszuidwest/zwfm-varecorder/internal/util"
)

const shutdownTimeout = 10 * time.Second

// input is an opened audio source together with its playback side, if any.
type input struct {
	source     audio.Source
	player     audio.Player
	sampleRate int
	close      func() error
}

// openInput opens the replay file or the capture device.
func openInput(cfg *config.Config) (*input, error) {
	if cfg.InputFile != "" {
		src, err := audio.OpenFile(cfg.InputFile, cfg.BlockSize)
		if err != nil {
			return nil, err
		}
		if src.SampleRate() != cfg.SampleRate {
			slog.Info("using sample rate of input file", "file", cfg.InputFile, "sample_rate", src.SampleRate())
		}
		return &input{source: src, sampleRate: src.SampleRate(), close: src.Close}, nil
	}

	dev, err := audio.OpenDevice(audio.CaptureConfig{
		SampleRate: cfg.SampleRate,
		BlockSize:  cfg.BlockSize,
		Device:     cfg.Device,
	})
	if err != nil {
		return nil, err
	}
	return &input{source: dev, player: dev, sampleRate: cfg.SampleRate, close: dev.Close}, nil
}

// buildGates creates the gate set for the configured lock, enable and trigger paths.
func buildGates(cfg *config.Config) *gate.Set {
	gates := gate.NewSet()
	gates.Add(gate.RoleLock, gate.NewPathGate("global_lock", cfg.GlobalLockPath()))
	if cfg.ExternalLockFile != "" {
		gates.Add(gate.RoleLock, gate.NewPathGate("external_lock", cfg.ExternalLockFile))
	}
	if cfg.LevelLockFile != "" {
		gates.Add(gate.RoleLock, gate.NewPathGate("level_lock", cfg.LevelLockFile))
	}
	if cfg.InhibitProcess != "" {
		gates.Add(gate.RoleLock, gate.NewProcessGate("inhibit_process", cfg.InhibitProcess, gate.DefaultProcessInterval, nil))
	}
	if cfg.LevelEnableFile != "" {
		gates.Add(gate.RoleLevelInhibit, gate.NewAbsentGate("level_enable", cfg.LevelEnableFile))
	}
	if cfg.TriggerFile != "" {
		gates.Add(gate.RoleTrigger, gate.NewPathGate("trigger", cfg.TriggerFile))
	}
	return gates
}

// runRecorder wires the collaborators, runs the controller until ctx is done
// and returns the exit code.
func runRecorder(ctx context.Context, cfg *config.Config) int {
	in, err := openInput(cfg)
	if err != nil {
		slog.Error("failed to open audio input", "error", err)
		return exitDeviceOpen
	}
	defer func() {
		if err := in.close(); err != nil {
			slog.Warn("failed to release audio input", "error", err)
		}
	}()

	gates := buildGates(cfg)
	opts := recording.Options{
		Target:      cfg.Target,
		Source:      in.source,
		Gates:       gates,
		Writer:      recording.NewWriter(cfg.SpoolDir, cfg.Target, in.sampleRate, gates),
		Player:      in.player,
		Threshold:   cfg.Threshold,
		Timeout:     cfg.Timeout,
		MinDuration: cfg.MinRecTime,
		MaxDuration: cfg.MaxRecTime,
		SelfTest:    cfg.IsSelfTest(),
	}
	if !cfg.Quiet {
		opts.Status = os.Stdout
	}

	if cfg.HasEventLog() {
		logger, err := eventlog.NewLogger(cfg.EventLog)
		if err != nil {
			slog.Error("failed to open event log", "path", cfg.EventLog, "error", err)
			return exitConfigError
		}
		defer util.SafeCloseFunc(logger, "event log")()
		opts.Listeners = append(opts.Listeners, logger)
	}

	notifier := notify.NewNotifier(cfg.WebhookURL, &cfg.Email)
	if notifier.HasChannels() {
		opts.Listeners = append(opts.Listeners, notifier)
		defer waitNotifications(notifier)
	}

	if cfg.HasMonitor() {
		hub := monitor.NewHub(cfg.Target)
		srv, err := monitor.NewServer(hub, cfg.EventLog).Start(cfg.MonitorAddr)
		if err != nil {
			slog.Error("failed to start monitor", "error", err)
			return exitConfigError
		}
		defer shutdownServer(srv)
		opts.Listeners = append(opts.Listeners, hub)
	}

	controller, err := recording.NewController(opts)
	if err != nil {
		slog.Error("failed to create recorder", "error", err)
		return exitConfigError
	}

	if err := controller.Run(ctx); err != nil {
		slog.Error("audio input failed", "error", err)
		return exitDeviceFailure
	}

	slog.Info("shutting down")
	return exitOK
}

func waitNotifications(n *notify.Notifier) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := n.Wait(ctx); err != nil {
		slog.Warn("pending notifications abandoned", "error", err)
	}
}

func shutdownServer(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("monitor shutdown error", "error", err)
	}
}
