package recording

import (
	"time"

	"github.com/oszuidwest/zwfm-varecorder/internal/types"
)

// session buffers the audio of one recording from start to stop condition.
type session struct {
	trigger  types.Trigger
	start    time.Time
	end      time.Time
	deadline time.Time // silence deadline, level sessions only
	samples  []int16
	cause    types.StopCause
}

func newSession(trigger types.Trigger, start time.Time, timeout time.Duration) *session {
	return &session{
		trigger:  trigger,
		start:    start,
		end:      start,
		deadline: start.Add(timeout),
	}
}

func (s *session) append(block []int16) {
	s.samples = append(s.samples, block...)
}

// elapsed returns the wall-clock time from start to the last observed block.
func (s *session) elapsed() time.Duration {
	return s.end.Sub(s.start)
}

// duration returns the recorded length. Level sessions end with one timeout
// of trailing silence, which is excluded.
func (s *session) duration(timeout time.Duration) time.Duration {
	d := s.elapsed()
	if !s.trigger.ByFile() {
		d -= timeout
	}
	return d
}

// keep reports whether the session should be persisted.
// File sessions are always kept. Level sessions must exceed min.
func (s *session) keep(timeout, minDuration time.Duration) bool {
	if s.trigger.ByFile() {
		return true
	}
	return s.duration(timeout) > minDuration
}

func (s *session) state() types.State {
	if s.trigger.ByFile() {
		return types.StateRecordingFile
	}
	return types.StateRecordingLevel
}
