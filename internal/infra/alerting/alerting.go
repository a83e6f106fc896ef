// Package alerting delivers operator alerts for integration health events.
package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/meetsync/healthwatch/internal/core/domain"
	"github.com/meetsync/healthwatch/internal/metrics"
)

// Level is the alert severity.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Event names for integration health alerts.
const (
	EventIntegrationFailure  = "integration_failure"
	EventIntegrationRecovery = "integration_recovery"
)

// Sender delivers one alert to the alerting collaborator.
type Sender interface {
	Send(ctx context.Context, event string, payload map[string]any, level Level) error
}

// WebhookSender posts alerts as JSON to a configured webhook, retrying
// transient delivery failures with bounded exponential backoff.
type WebhookSender struct {
	url     string
	client  *http.Client
	retries uint64
	log     *slog.Logger
}

// NewWebhookSender creates a webhook alert sender.
func NewWebhookSender(url string, log *slog.Logger) *WebhookSender {
	return &WebhookSender{
		url:     url,
		client:  &http.Client{Timeout: 10 * time.Second},
		retries: 3,
		log:     log,
	}
}

// Send posts the alert. Delivery failures after all retries are returned to
// the caller; the caller decides whether they block anything.
func (s *WebhookSender) Send(ctx context.Context, event string, payload map[string]any, level Level) error {
	body, err := json.Marshal(map[string]any{
		"event":   event,
		"level":   string(level),
		"payload": payload,
		"sent_at": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	backoff := retry.WithMaxRetries(s.retries, retry.NewExponential(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		return s.post(ctx, body)
	})

	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.AlertsSent.WithLabelValues(event, result).Inc()
	return err
}

func (s *WebhookSender) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return retry.RetryableError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return retry.RetryableError(domain.NewStatusError(resp.StatusCode))
	}
	if resp.StatusCode >= 300 {
		return domain.NewStatusError(resp.StatusCode)
	}
	return nil
}

var _ Sender = (*WebhookSender)(nil)
