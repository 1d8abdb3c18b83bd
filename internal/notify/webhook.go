package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/LiventyGestion/Liventy-gestion-sub000/pkg/logging"
)

const webhookUserAgent = "liventy-lead-notifier/0.1"

// WebhookConfig controls how the webhook sender behaves.
type WebhookConfig struct {
	URL        string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// WebhookSender POSTs lead payloads to a configured endpoint.
type WebhookSender struct {
	url        string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewWebhookSender creates a webhook sender. Returns nil when no URL is
// configured; the dispatcher treats a nil sender as channel-disabled.
func NewWebhookSender(cfg WebhookConfig, logger *logging.Logger) *WebhookSender {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &WebhookSender{
		url:        url,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Post sends the payload as JSON and fails on any non-2xx response.
func (s *WebhookSender) Post(ctx context.Context, payload any) error {
	if s == nil {
		return errors.New("notify: webhook sender not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notify: marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", webhookUserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify: webhook post failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("notify: webhook returned status %d", resp.StatusCode)
	}

	s.logger.Info("webhook delivered", "url", s.url, "status", resp.StatusCode)
	return nil
}
