// Package export pushes computed earning cycles to an external webhook so
// dashboards and alerting can consume them without polling the adapter.
package export

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourorg/vault-earnings-ea/internal/model"
)

// WebhookExporter delivers each published cycle to a configured endpoint.
// Deliveries are fire-and-forget: a failed push is logged and dropped, the
// adapter itself keeps serving.
type WebhookExporter struct {
	url        string
	httpClient *http.Client
	mu         sync.Mutex
	pending    []cyclePayload
}

type cyclePayload struct {
	PublishedAt time.Time                      `json:"publishedAt"`
	VaultCount  int                            `json:"vaultCount"`
	Vaults      map[string]model.VaultEarnings `json:"vaults"`
}

// NewWebhookExporter creates an exporter for the given endpoint. An empty
// URL yields a disabled exporter whose Publish is a no-op.
func NewWebhookExporter(url string) *WebhookExporter {
	if url == "" {
		return &WebhookExporter{}
	}
	return &WebhookExporter{
		url: url,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
				IdleConnTimeout: 90 * time.Second,
			},
		},
	}
}

// Enabled reports whether cycles will be delivered anywhere.
func (e *WebhookExporter) Enabled() bool {
	return e.url != ""
}

// Publish queues a cycle and delivers everything pending. Cycles queued
// while the endpoint was unreachable are retried on the next publish. The
// backlog lock is held across delivery so concurrent publishers can neither
// double-deliver a cycle nor trim one that was never sent.
func (e *WebhookExporter) Publish(ctx context.Context, records map[string]model.VaultEarnings) {
	if !e.Enabled() || len(records) == 0 {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.pending = append(e.pending, cyclePayload{
		PublishedAt: time.Now().UTC(),
		VaultCount:  len(records),
		Vaults:      records,
	})
	// Cap the backlog so a long outage cannot grow it without bound.
	if len(e.pending) > 10 {
		e.pending = e.pending[len(e.pending)-10:]
	}

	delivered := 0
	for _, payload := range e.pending {
		if err := e.deliver(ctx, payload); err != nil {
			logrus.WithField("error", err).Warn("Webhook delivery failed, keeping cycle queued")
			break
		}
		delivered++
	}
	e.pending = e.pending[delivered:]
}

func (e *WebhookExporter) deliver(ctx context.Context, payload cyclePayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error encoding cycle: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", e.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error delivering cycle: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	logrus.Debugf("Exported cycle with %d vaults", payload.VaultCount)
	return nil
}
