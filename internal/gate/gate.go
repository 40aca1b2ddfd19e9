// Package gate provides named boolean signals that pause or trigger
// recording, and a Set that evaluates them once per audio block.
package gate

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"
)

// Gate is a named boolean signal read from the environment.
type Gate interface {
	Name() string
	Active() bool
}

// PathGate is active while a file exists at the path.
type PathGate struct {
	name string
	path string
}

// NewPathGate creates a gate that is active while path exists.
func NewPathGate(name, path string) *PathGate {
	return &PathGate{name: name, path: path}
}

// Name returns the gate name.
func (g *PathGate) Name() string { return g.name }

// Path returns the watched path.
func (g *PathGate) Path() string { return g.path }

// Active reports whether the file exists.
func (g *PathGate) Active() bool {
	return pathExists(g.path)
}

// AbsentGate is active while no file exists at the path. It models enable
// files: removing the file disables the feature the gate guards.
type AbsentGate struct {
	name string
	path string
}

// NewAbsentGate creates a gate that is active while path does not exist.
func NewAbsentGate(name, path string) *AbsentGate {
	return &AbsentGate{name: name, path: path}
}

// Name returns the gate name.
func (g *AbsentGate) Name() string { return g.name }

// Path returns the watched path.
func (g *AbsentGate) Path() string { return g.path }

// Active reports whether the file is missing.
func (g *AbsentGate) Active() bool {
	return !pathExists(g.path)
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// DefaultProcessInterval limits how often a ProcessGate queries the process table.
const DefaultProcessInterval = 500 * time.Millisecond

// probeTimeout bounds a single process table query.
const probeTimeout = 2 * time.Second

// ProcessProbe reports whether a process with the exact name is running.
type ProcessProbe func(ctx context.Context, name string) (bool, error)

// ProcessGate is active while a process with the given name runs.
// The result is cached for the configured interval. It is safe for concurrent use.
type ProcessGate struct {
	name     string
	process  string
	interval time.Duration
	probe    ProcessProbe
	now      func() time.Time

	mu        sync.Mutex
	lastCheck time.Time
	active    bool
	warned    bool
}

// NewProcessGate creates a gate that is active while process runs.
// A nil probe uses pgrep.
func NewProcessGate(name, process string, interval time.Duration, probe ProcessProbe) *ProcessGate {
	if probe == nil {
		probe = Pgrep
	}
	return &ProcessGate{
		name:     name,
		process:  process,
		interval: interval,
		probe:    probe,
		now:      time.Now,
	}
}

// Name returns the gate name.
func (g *ProcessGate) Name() string { return g.name }

// Active reports whether the process was running at the last check.
// A failing probe counts as inactive and is logged once.
func (g *ProcessGate) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if !g.lastCheck.IsZero() && now.Sub(g.lastCheck) < g.interval {
		return g.active
	}
	g.lastCheck = now

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	running, err := g.probe(ctx, g.process)
	if err != nil {
		if !g.warned {
			slog.Warn("process check failed, treating as not running", "process", g.process, "error", err)
			g.warned = true
		}
		g.active = false
		return false
	}
	g.warned = false
	g.active = running
	return running
}

// Pgrep checks for a process with the exact name using pgrep -x.
func Pgrep(ctx context.Context, name string) (bool, error) {
	err := exec.CommandContext(ctx, "pgrep", "-x", name).Run()
	if err == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return false, nil
	}
	return false, err
}
