// Package recording provides the voice-activity recording controller and the
// atomic WAV writer.
package recording

import (
	"errors"
	"time"

	"github.com/oszuidwest/zwfm-varecorder/internal/types"
)

// Sentinel errors for recording operations.
var (
	// ErrPersistSkipped is returned when a lock is active at the moment of writing.
	ErrPersistSkipped = errors.New("recording not saved: lock active")

	// ErrSourceFailed is returned by Run when the audio source reports an error.
	ErrSourceFailed = errors.New("audio source failed")

	// ErrMissingDependency is returned when a required controller option is nil.
	ErrMissingDependency = errors.New("missing controller dependency")
)

// StopInputEnded ends a session when the audio source is exhausted.
const StopInputEnded types.StopCause = "input_ended"

// Persister stores a finished recording and returns its final path.
type Persister interface {
	Persist(samples []int16, duration time.Duration) (string, error)
}

// Listener receives controller events. HandleEvent runs on the controller
// loop and must not block.
type Listener interface {
	HandleEvent(types.Event)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(types.Event)

// HandleEvent calls f(e).
func (f ListenerFunc) HandleEvent(e types.Event) {
	f(e)
}
