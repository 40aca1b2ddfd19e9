// Package eventlog records gate and recording events in a JSON lines file
// and reads them back newest first.
package eventlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oszuidwest/zwfm-varecorder/internal/types"
)

// EventType represents the type of event.
type EventType string

// Gate event types.
const (
	GateEngaged  EventType = "gate_engaged"
	GateReleased EventType = "gate_released"
)

// Recording event types.
const (
	RecordingStarted   EventType = "recording_started"
	RecordingSaved     EventType = "recording_saved"
	RecordingSkipped   EventType = "recording_skipped"
	RecordingDiscarded EventType = "recording_discarded"
	RecordingFailed    EventType = "recording_failed"
)

// eventTypes maps controller events to log entries. Level and state events
// are not logged.
var eventTypes = map[types.EventKind]EventType{
	types.EventGateEngaged:      GateEngaged,
	types.EventGateReleased:     GateReleased,
	types.EventSessionStarted:   RecordingStarted,
	types.EventSessionSaved:     RecordingSaved,
	types.EventSessionSkipped:   RecordingSkipped,
	types.EventSessionDiscarded: RecordingDiscarded,
	types.EventSessionFailed:    RecordingFailed,
}

// Event represents a single log entry with type-specific details.
type Event struct {
	Timestamp time.Time `json:"ts"`
	Type      EventType `json:"type"`
	Target    string    `json:"target,omitempty"`
	Details   any       `json:"details,omitempty"`
}

// GateDetails contains gate-specific event details.
type GateDetails struct {
	Gate string `json:"gate"`
	Role string `json:"role,omitempty"`
}

// RecordingDetails contains recording-specific event details.
type RecordingDetails struct {
	Trigger    string  `json:"trigger"`
	Cause      string  `json:"cause,omitempty"`
	DurationMs int64   `json:"duration_ms,omitempty"`
	Level      float64 `json:"level,omitempty"`
	Threshold  float64 `json:"threshold,omitempty"`
	File       string  `json:"file,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// Logger writes events to a JSON lines file. It is safe for concurrent use.
type Logger struct {
	mu       sync.Mutex
	filePath string
	file     *os.File
	encoder  *json.Encoder
}

// NewLogger creates a new event logger at the specified path.
func NewLogger(filePath string) (*Logger, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	return &Logger{
		filePath: filePath,
		file:     file,
		encoder:  json.NewEncoder(file),
	}, nil
}

// Log writes an event to the log file.
func (l *Logger) Log(event *Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	return l.encoder.Encode(event)
}

// HandleEvent logs gate and recording events from the controller.
func (l *Logger) HandleEvent(e types.Event) {
	entry, ok := Convert(e)
	if !ok {
		return
	}
	if err := l.Log(entry); err != nil {
		slog.Warn("failed to write event log", "path", l.filePath, "error", err)
	}
}

// Convert maps a controller event to a log entry. It reports false for
// events that are not logged.
func Convert(e types.Event) (*Event, bool) {
	t, ok := eventTypes[e.Kind]
	if !ok {
		return nil, false
	}

	entry := &Event{Timestamp: e.Time, Type: t, Target: e.Target}
	if IsGateEvent(t) {
		entry.Details = &GateDetails{Gate: e.Gate, Role: e.Role}
		return entry, true
	}

	entry.Details = &RecordingDetails{
		Trigger:    string(e.Trigger),
		Cause:      string(e.Cause),
		DurationMs: e.Duration.Milliseconds(),
		Level:      e.Level,
		Threshold:  e.Threshold,
		File:       e.File,
		Error:      e.Error,
	}
	return entry, true
}

// Close closes the log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Path returns the path to the log file.
func (l *Logger) Path() string {
	return l.filePath
}

// TypeFilter specifies which event types to include when reading.
type TypeFilter string

// Filter constants for ReadLast.
const (
	FilterAll       TypeFilter = ""
	FilterGate      TypeFilter = "gate"
	FilterRecording TypeFilter = "recording"
)

// Matches reports whether t passes the filter.
func (f TypeFilter) Matches(t EventType) bool {
	switch f {
	case FilterGate:
		return IsGateEvent(t)
	case FilterRecording:
		return IsRecordingEvent(t)
	default:
		return true
	}
}

// MaxReadLimit is the maximum number of events that can be read at once.
const MaxReadLimit = 500

// ReadLast reads events from the log file with pagination support.
// Returns up to n events starting from offset, filtered by type, newest
// first, and whether older matching events exist. n is capped at MaxReadLimit.
func ReadLast(filePath string, n, offset int, filter TypeFilter) ([]Event, bool, error) {
	n = min(n, MaxReadLimit)
	if n <= 0 {
		return []Event{}, false, nil
	}

	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []Event{}, false, nil
		}
		return nil, false, err
	}
	defer file.Close() //nolint:errcheck // Read-only operation, close error not critical

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, false, err
	}

	events := make([]Event, 0, n)
	skipped := 0
	for i := len(lines) - 1; i >= 0; i-- {
		var event Event
		if err := json.Unmarshal([]byte(lines[i]), &event); err != nil {
			continue // Skip malformed lines
		}
		if !filter.Matches(event.Type) {
			continue
		}

		if skipped < offset {
			skipped++
			continue
		}

		if len(events) == n {
			return events, true, nil
		}
		events = append(events, event)
	}

	return events, false, nil
}

// IsGateEvent returns true if the event type is a gate event.
func IsGateEvent(t EventType) bool {
	return t == GateEngaged || t == GateReleased
}

// IsRecordingEvent returns true if the event type is a recording event.
func IsRecordingEvent(t EventType) bool {
	return t == RecordingStarted || t == RecordingSaved || t == RecordingSkipped ||
		t == RecordingDiscarded || t == RecordingFailed
}
