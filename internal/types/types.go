package types

import (
	"time"
)

// State represents the current state of the recording controller.
type State string

const (
	// StateIdle indicates the controller is listening without recording.
	StateIdle State = "idle"
	// StateGated indicates one or more lock gates suppress all activity.
	StateGated State = "gated"
	// StateRecordingLevel indicates a session started by signal level.
	StateRecordingLevel State = "recording_level"
	// StateRecordingFile indicates a session started by the trigger file.
	StateRecordingFile State = "recording_file"
)

// IsRecording reports whether s is one of the recording states.
func (s State) IsRecording() bool {
	return s == StateRecordingLevel || s == StateRecordingFile
}

// Trigger identifies what started a recording session.
type Trigger string

// Supported triggers.
const (
	TriggerLevel    Trigger = "level"    // Loudness at or above threshold
	TriggerFile     Trigger = "file"     // External trigger file present
	TriggerCombined Trigger = "combined" // Trigger file present on a loud block
)

// ByFile reports whether the session follows file-trigger rules.
func (t Trigger) ByFile() bool {
	return t == TriggerFile || t == TriggerCombined
}

// StopCause records why a recording session ended.
type StopCause string

// Stop causes.
const (
	StopSilence     StopCause = "silence_timeout"
	StopMaxDuration StopCause = "max_duration"
	StopTriggerGone StopCause = "trigger_removed"
	StopLocked      StopCause = "locked"
)

// EventKind identifies a controller event.
type EventKind string

// Controller event kinds.
const (
	EventLevel            EventKind = "level"
	EventStateChanged     EventKind = "state_changed"
	EventGateEngaged      EventKind = "gate_engaged"
	EventGateReleased     EventKind = "gate_released"
	EventSessionStarted   EventKind = "session_started"
	EventSessionSaved     EventKind = "session_saved"
	EventSessionSkipped   EventKind = "session_skipped"
	EventSessionDiscarded EventKind = "session_discarded"
	EventSessionFailed    EventKind = "session_failed"
)

// Event is emitted by the controller to registered listeners.
// Only the fields relevant to Kind are set.
type Event struct {
	Kind      EventKind
	Time      time.Time
	Target    string
	State     State
	Level     float64
	Threshold float64
	Gate      string
	Role      string
	Trigger   Trigger
	Cause     StopCause
	Duration  time.Duration
	File      string
	Error     string
}

// IsSessionEnd reports whether the event closes a recording session.
func (e *Event) IsSessionEnd() bool {
	switch e.Kind {
	case EventSessionSaved, EventSessionSkipped, EventSessionDiscarded, EventSessionFailed:
		return true
	}
	return false
}

// GraphConfig contains Microsoft Graph API settings for email notifications.
type GraphConfig struct {
	TenantID     string `json:"tenant_id,omitempty"`                               // Azure AD tenant ID
	ClientID     string `json:"client_id,omitempty"`                               // App registration client ID
	ClientSecret string `json:"client_secret,omitempty"`                           // App registration client secret
	FromAddress  string `json:"from_address,omitempty" validate:"omitempty,email"` // Shared mailbox address (sender)
	Recipients   string `json:"recipients,omitempty"`                              // Comma-separated recipients
}
