// Package webhook delivers transition events to configured URLs. Delivery is
// asynchronous and best-effort: a slow or failing endpoint never blocks or
// fails the workflow transition that produced the event.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"messagesearch/internal/domain/models"
	"messagesearch/internal/metrics"
)

const (
	maxAttempts    = 3
	initialBackoff = 500 * time.Millisecond
	requestTimeout = 10 * time.Second
)

// Dispatcher POSTs transition events to each configured URL with bounded
// exponential-backoff retries.
type Dispatcher struct {
	urls    []string
	client  *http.Client
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewDispatcher creates a dispatcher for the given URLs. An empty URL list
// yields a dispatcher that drops every event.
func NewDispatcher(urls []string, m *metrics.Metrics, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		urls:    urls,
		client:  &http.Client{Timeout: requestTimeout},
		metrics: m,
		logger:  logger,
	}
}

// Notify delivers the event to all URLs in the background and returns
// immediately.
func (d *Dispatcher) Notify(event *models.TransitionEvent) {
	if len(d.urls) == 0 {
		return
	}

	body, err := json.Marshal(event)
	if err != nil {
		d.logger.Error("marshal transition event", "error", err)
		return
	}

	for _, url := range d.urls {
		go d.deliver(url, body, event)
	}
}

func (d *Dispatcher) deliver(url string, body []byte, event *models.TransitionEvent) {
	backoff := initialBackoff
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if d.post(url, body) {
			return
		}
		if attempt < maxAttempts {
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	d.logger.Warn("webhook delivery failed",
		"url", url,
		"document_id", event.DocumentID,
		"action", event.Action,
		"attempts", maxAttempts,
	)
}

func (d *Dispatcher) post(url string, body []byte) bool {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		d.logger.Error("build webhook request", "url", url, "error", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.Debug("webhook attempt failed", "url", url, "error", err)
		d.metrics.RecordWebhookDelivery("error")
		return false
	}
	// Drain before closing so the keep-alive connection is reusable.
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		d.metrics.RecordWebhookDelivery("error")
		return false
	}
	d.metrics.RecordWebhookDelivery("success")
	return true
}
