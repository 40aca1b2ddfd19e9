package recording

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/oszuidwest/zwfm-varecorder/internal/audio"
	"github.com/oszuidwest/zwfm-varecorder/internal/gate"
	"github.com/oszuidwest/zwfm-varecorder/internal/types"
	"github.com/oszuidwest/zwfm-varecorder/internal/util"
)

// Options configures a Controller.
type Options struct {
	Target string

	Source audio.Source
	Gates  *gate.Set
	Writer Persister
	// Player plays saved recordings in self-test mode. Optional.
	Player audio.Player
	// Status receives the interactive level line. Nil disables it.
	Status io.Writer
	// Now overrides the clock. Defaults to the source clock if it has one,
	// otherwise time.Now.
	Now func() time.Time

	Threshold   float64
	Timeout     time.Duration
	MinDuration time.Duration
	MaxDuration time.Duration
	SelfTest    bool

	Listeners []Listener
}

// Controller runs the voice-activity state machine: it reads blocks from
// the source, evaluates the gates and records sessions to the writer.
// It is not safe for concurrent use; Run owns it until it returns.
type Controller struct {
	opts      Options
	now       func() time.Time
	threshold float64
	state     types.State
}

// NewController validates opts and creates a controller in the idle state.
func NewController(opts Options) (*Controller, error) {
	switch {
	case opts.Source == nil:
		return nil, fmt.Errorf("%w: source", ErrMissingDependency)
	case opts.Gates == nil:
		return nil, fmt.Errorf("%w: gates", ErrMissingDependency)
	case opts.Writer == nil:
		return nil, fmt.Errorf("%w: writer", ErrMissingDependency)
	}

	now := opts.Now
	if now == nil {
		if clock, ok := opts.Source.(audio.Clock); ok {
			now = clock.Now
		} else {
			now = time.Now
		}
	}

	threshold := opts.Threshold
	if opts.SelfTest {
		threshold = 0
	}

	return &Controller{
		opts:      opts,
		now:       now,
		threshold: threshold,
		state:     types.StateIdle,
	}, nil
}

// State returns the current controller state.
func (c *Controller) State() types.State {
	return c.state
}

// Threshold returns the effective loudness threshold.
func (c *Controller) Threshold() float64 {
	return c.threshold
}

// Run polls the source until ctx is cancelled or the source is exhausted,
// both of which return nil. A source error stops the loop and is returned
// wrapped in ErrSourceFailed. A session in progress when ctx is cancelled is
// abandoned without writing.
func (c *Controller) Run(ctx context.Context) error {
	slog.Info("recorder listening",
		"target", c.opts.Target,
		"threshold", c.threshold,
		"timeout", c.opts.Timeout,
		"min", c.opts.MinDuration,
		"max", c.opts.MaxDuration,
		"self_test", c.opts.SelfTest)

	for {
		if ctx.Err() != nil {
			c.endStatusLine()
			return nil
		}

		block, err := c.opts.Source.Read()
		if errors.Is(err, io.EOF) {
			c.endStatusLine()
			slog.Info("audio input ended")
			return nil
		}
		if err != nil {
			c.endStatusLine()
			return fmt.Errorf("%w: %w", ErrSourceFailed, err)
		}
		now := c.now()

		level, err := audio.Loudness(block)
		if err != nil {
			slog.Warn("skipping audio block", "error", err)
			continue
		}

		status := c.opts.Gates.Evaluate()
		c.emitEdges(status.Edges, now)

		if status.Locked {
			c.setState(types.StateGated, now)
			continue
		}
		c.setState(types.StateIdle, now)

		loud := level >= c.threshold

		var trigger types.Trigger
		switch {
		case status.Triggered && loud:
			trigger = types.TriggerCombined
		case status.Triggered:
			trigger = types.TriggerFile
		case loud && status.LevelEnabled && !c.opts.SelfTest:
			trigger = types.TriggerLevel
		}

		if trigger == "" {
			c.showLevel(level)
			c.emit(types.Event{Kind: types.EventLevel, Time: now, State: c.state, Level: level, Threshold: c.threshold})
			continue
		}

		if err := c.record(ctx, trigger, block, level, now); err != nil {
			if errors.Is(err, io.EOF) {
				slog.Info("audio input ended")
				return nil
			}
			return err
		}
	}
}

// record runs one session that started on block. It returns nil once the
// session has been persisted or discarded, io.EOF if the source ended after
// the session was finished, and a wrapped ErrSourceFailed on read errors.
func (c *Controller) record(ctx context.Context, trigger types.Trigger, first []int16, level float64, start time.Time) error {
	s := newSession(trigger, start, c.opts.Timeout)
	s.append(first)

	c.setState(s.state(), start)
	c.endStatusLine()
	slog.Info("recording started", "trigger", trigger, "level", fmt.Sprintf("%.1f", level))
	c.emit(types.Event{Kind: types.EventSessionStarted, Time: start, State: c.state, Trigger: trigger, Level: level, Threshold: c.threshold})

	var sourceErr error
	for s.cause == "" {
		if ctx.Err() != nil {
			c.endStatusLine()
			slog.Info("recording abandoned on shutdown", "trigger", trigger, "elapsed", util.FormatDuration(s.elapsed()))
			c.setState(types.StateIdle, s.end)
			return nil
		}

		block, err := c.opts.Source.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.cause = StopInputEnded
				sourceErr = io.EOF
				break
			}
			c.endStatusLine()
			return fmt.Errorf("%w: %w", ErrSourceFailed, err)
		}
		now := c.now()

		level, err := audio.Loudness(block)
		if err != nil {
			slog.Warn("skipping audio block", "error", err)
			continue
		}

		status := c.opts.Gates.Evaluate()
		c.emitEdges(status.Edges, now)
		s.end = now

		if status.Locked {
			s.cause = types.StopLocked
			break
		}
		if trigger.ByFile() && !status.Triggered {
			s.cause = types.StopTriggerGone
			break
		}

		s.append(block)

		if !trigger.ByFile() {
			if level >= c.threshold {
				s.deadline = now.Add(c.opts.Timeout)
			}
			if now.After(s.deadline) {
				s.cause = types.StopSilence
				break
			}
		}
		if s.elapsed() > c.opts.MaxDuration {
			s.cause = types.StopMaxDuration
			break
		}

		c.showRecording(level, s.elapsed())
		c.emit(types.Event{Kind: types.EventLevel, Time: now, State: c.state, Level: level, Threshold: c.threshold})
	}

	c.endStatusLine()
	c.finish(ctx, s)
	c.setState(types.StateIdle, s.end)
	return sourceErr
}

// finish persists or discards a stopped session.
func (c *Controller) finish(ctx context.Context, s *session) {
	duration := s.duration(c.opts.Timeout)
	base := types.Event{Time: s.end, Trigger: s.trigger, Cause: s.cause, Duration: duration}

	slog.Info("recording stopped",
		"trigger", s.trigger,
		"cause", s.cause,
		"duration", util.FormatDuration(duration))

	if !s.keep(c.opts.Timeout, c.opts.MinDuration) {
		slog.Info("recording too short, discarded",
			"duration", util.FormatDuration(duration),
			"min", util.FormatDuration(c.opts.MinDuration))
		base.Kind = types.EventSessionDiscarded
		c.emit(base)
		return
	}

	path, err := c.opts.Writer.Persist(s.samples, duration)
	switch {
	case errors.Is(err, ErrPersistSkipped):
		base.Kind = types.EventSessionSkipped
		c.emit(base)
		return
	case err != nil:
		slog.Error("failed to save recording", "error", err)
		base.Kind = types.EventSessionFailed
		base.Error = err.Error()
		c.emit(base)
		return
	}

	base.Kind = types.EventSessionSaved
	base.File = path
	c.emit(base)

	if c.opts.SelfTest && c.opts.Player != nil {
		slog.Info("playing back recording", "path", path)
		if err := c.opts.Player.Play(ctx, path); err != nil {
			slog.Warn("playback failed", "path", path, "error", err)
		}
	}
}

func (c *Controller) setState(state types.State, now time.Time) {
	if c.state == state {
		return
	}
	slog.Debug("state changed", "from", c.state, "to", state)
	c.state = state
	c.emit(types.Event{Kind: types.EventStateChanged, Time: now, State: state})
}

func (c *Controller) emitEdges(edges []gate.Edge, now time.Time) {
	for _, edge := range edges {
		kind := types.EventGateReleased
		if edge.Engaged {
			kind = types.EventGateEngaged
		}
		c.emit(types.Event{Kind: kind, Time: now, State: c.state, Gate: edge.Gate, Role: string(edge.Role)})
	}
}

func (c *Controller) emit(e types.Event) {
	e.Target = c.opts.Target
	for _, l := range c.opts.Listeners {
		l.HandleEvent(e)
	}
}

func (c *Controller) showLevel(level float64) {
	if c.opts.Status == nil {
		return
	}
	fmt.Fprintf(c.opts.Status, "\rLevel %4.0f ", level)
}

func (c *Controller) showRecording(level float64, elapsed time.Duration) {
	if c.opts.Status == nil {
		return
	}
	fmt.Fprintf(c.opts.Status, "\rRecording %s  Level %4.0f ", util.FormatDuration(elapsed), level)
}

// endStatusLine moves the cursor past the interactive status line so log
// output starts on a fresh line.
func (c *Controller) endStatusLine() {
	if c.opts.Status == nil {
		return
	}
	fmt.Fprint(c.opts.Status, "\r\033[K")
}
