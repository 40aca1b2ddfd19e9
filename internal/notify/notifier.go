// Package notify delivers recording outcomes to webhooks and, through
// Microsoft Graph, to email recipients.
package notify

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/oszuidwest/zwfm-varecorder/internal/types"
	"github.com/oszuidwest/zwfm-varecorder/internal/util"
)

// Notifier sends notifications for saved, skipped and failed recordings.
// Deliveries run in their own goroutines so the controller loop never waits
// on the network. It is safe for concurrent use.
type Notifier struct {
	webhookURL string
	graph      *types.GraphConfig
	host       string

	// mu protects graphClient
	mu          sync.Mutex
	graphClient *GraphClient

	wg sync.WaitGroup
}

// NewNotifier creates a notifier. Empty settings disable the channel.
func NewNotifier(webhookURL string, graph *types.GraphConfig) *Notifier {
	host, _ := os.Hostname()
	return &Notifier{
		webhookURL: webhookURL,
		graph:      graph,
		host:       host,
	}
}

// HasChannels reports whether any notification channel is configured.
func (n *Notifier) HasChannels() bool {
	return n.hasWebhook() || n.hasGraph()
}

func (n *Notifier) hasWebhook() bool {
	return util.IsConfigured(n.webhookURL)
}

func (n *Notifier) hasGraph() bool {
	return n.graph != nil && util.IsConfigured(
		n.graph.TenantID, n.graph.ClientID, n.graph.ClientSecret, n.graph.FromAddress, n.graph.Recipients)
}

// HandleEvent sends notifications for recording outcomes. Other events are ignored.
func (n *Notifier) HandleEvent(e types.Event) {
	if _, ok := webhookEvents[e.Kind]; !ok {
		return
	}

	if n.hasWebhook() {
		payload := NewWebhookPayload(&e, n.host)
		n.goSend(func() error { return SendWebhook(n.webhookURL, payload) }, "webhook")
	}
	if n.hasGraph() {
		n.goSend(func() error { return n.sendEmail(&e) }, "email")
	}
}

// Wait blocks until pending deliveries finish or ctx is done.
func (n *Notifier) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *Notifier) goSend(send func() error, notifyType string) {
	n.wg.Go(func() {
		logNotifyResult(send, notifyType)
	})
}

// graphClientOrNew returns the cached Graph client, creating it if needed.
func (n *Notifier) graphClientOrNew() (*GraphClient, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.graphClient != nil {
		return n.graphClient, nil
	}

	client, err := NewGraphClient(n.graph)
	if err != nil {
		return nil, err
	}
	n.graphClient = client
	return client, nil
}

func (n *Notifier) sendEmail(e *types.Event) error {
	client, err := n.graphClientOrNew()
	if err != nil {
		return util.WrapError("create Graph client", err)
	}

	if err := client.SendMail(ParseRecipients(n.graph.Recipients), emailSubject(e), emailBody(e)); err != nil {
		return util.WrapError("send email via Graph", err)
	}
	return nil
}

// logNotifyResult logs the result of a notification attempt.
func logNotifyResult(fn func() error, notifyType string) {
	if err := fn(); err != nil {
		slog.Error("notification failed", "type", notifyType, "error", err)
		return
	}
	slog.Info("notification sent", "type", notifyType)
}
