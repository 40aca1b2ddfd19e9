// Package monitor serves a read-only view of the recorder over HTTP: live
// level and state updates on a WebSocket and the event log as JSON.
package monitor

import (
	"sync"
	"time"

	"github.com/oszuidwest/zwfm-varecorder/internal/types"
)

const (
	// levelInterval throttles level frames to 10 per second.
	levelInterval = 100 * time.Millisecond
	// clientBuffer is the number of frames queued per client before frames are dropped.
	clientBuffer = 16
)

// Message is a frame sent to WebSocket clients.
type Message struct {
	Type       string    `json:"type"` // "status", "level" or "event"
	Time       time.Time `json:"ts"`
	Kind       string    `json:"kind,omitempty"`
	State      string    `json:"state,omitempty"`
	Level      float64   `json:"level"`
	Threshold  float64   `json:"threshold"`
	Gate       string    `json:"gate,omitempty"`
	Trigger    string    `json:"trigger,omitempty"`
	Cause      string    `json:"cause,omitempty"`
	DurationMs int64     `json:"duration_ms,omitempty"`
	File       string    `json:"file,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Status is the current recorder snapshot.
type Status struct {
	Type          string   `json:"type"`
	Target        string   `json:"target"`
	State         string   `json:"state"`
	Level         float64  `json:"level"`
	Threshold     float64  `json:"threshold"`
	LastRecording *Message `json:"last_recording,omitempty"`
}

// Hub fans controller events out to connected clients. Slow clients lose
// frames instead of delaying the controller. It is safe for concurrent use.
type Hub struct {
	mu        sync.Mutex
	clients   map[chan any]struct{}
	status    Status
	lastLevel time.Time
}

// NewHub creates a hub for target.
func NewHub(target string) *Hub {
	return &Hub{
		clients: make(map[chan any]struct{}),
		status:  Status{Type: "status", Target: target, State: string(types.StateIdle)},
	}
}

// HandleEvent updates the snapshot and broadcasts the event.
func (h *Hub) HandleEvent(e types.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	msg := toMessage(&e)

	switch e.Kind {
	case types.EventLevel:
		h.status.Level = e.Level
		h.status.Threshold = e.Threshold
		if e.Time.Sub(h.lastLevel) < levelInterval {
			return
		}
		h.lastLevel = e.Time
		msg.Type = "level"
	case types.EventStateChanged:
		h.status.State = string(e.State)
	}

	if e.IsSessionEnd() {
		h.status.LastRecording = msg
	}

	h.broadcastLocked(msg)
}

// Status returns a copy of the current snapshot.
func (h *Hub) Status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// subscribe registers a client and queues the current snapshot for it.
func (h *Hub) subscribe() chan any {
	h.mu.Lock()
	defer h.mu.Unlock()

	send := make(chan any, clientBuffer)
	send <- h.status
	h.clients[send] = struct{}{}
	return send
}

// unsubscribe removes a client and closes its channel.
func (h *Hub) unsubscribe(send chan any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[send]; ok {
		delete(h.clients, send)
		close(send)
	}
}

func (h *Hub) broadcastLocked(msg any) {
	for send := range h.clients {
		select {
		case send <- msg:
		default:
			// client is behind, drop the frame
		}
	}
}

func toMessage(e *types.Event) *Message {
	return &Message{
		Type:       "event",
		Time:       e.Time,
		Kind:       string(e.Kind),
		State:      string(e.State),
		Level:      e.Level,
		Threshold:  e.Threshold,
		Gate:       e.Gate,
		Trigger:    string(e.Trigger),
		Cause:      string(e.Cause),
		DurationMs: e.Duration.Milliseconds(),
		File:       e.File,
		Error:      e.Error,
	}
}
