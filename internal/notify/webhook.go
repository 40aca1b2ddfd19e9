package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/oszuidwest/zwfm-varecorder/internal/types"
	"github.com/oszuidwest/zwfm-varecorder/internal/util"
)

// webhookTimeout bounds a single webhook delivery.
const webhookTimeout = 10 * time.Second

// WebhookPayload represents the data sent to webhook endpoints.
type WebhookPayload struct {
	Event      string `json:"event"`
	Target     string `json:"target"`
	Trigger    string `json:"trigger,omitempty"`
	Cause      string `json:"cause,omitempty"`
	DurationMs int64  `json:"duration_ms,omitempty"`
	File       string `json:"file,omitempty"`
	Error      string `json:"error,omitempty"`
	Host       string `json:"host,omitempty"`
	Timestamp  string `json:"timestamp"`
}

// webhookEvents names the recording outcomes sent to webhooks.
var webhookEvents = map[types.EventKind]string{
	types.EventSessionSaved:   "recording_saved",
	types.EventSessionSkipped: "recording_skipped",
	types.EventSessionFailed:  "recording_failed",
}

// NewWebhookPayload builds the payload for a recording outcome.
func NewWebhookPayload(e *types.Event, host string) *WebhookPayload {
	return &WebhookPayload{
		Event:      webhookEvents[e.Kind],
		Target:     e.Target,
		Trigger:    string(e.Trigger),
		Cause:      string(e.Cause),
		DurationMs: e.Duration.Milliseconds(),
		File:       e.File,
		Error:      e.Error,
		Host:       host,
		Timestamp:  timestampUTC(),
	}
}

// SendWebhook delivers a notification to the webhook endpoint.
// An empty URL is silently skipped.
func SendWebhook(webhookURL string, payload *WebhookPayload) error {
	if !util.IsConfigured(webhookURL) {
		return nil
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return util.WrapError("marshal payload", err)
	}

	client := &http.Client{Timeout: webhookTimeout}
	resp, err := client.Post(webhookURL, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return util.WrapError("send webhook request", err)
	}
	defer util.SafeCloseFunc(resp.Body, "webhook response body")()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}
