package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultWebhookTimeout = 10 * time.Second

// WebhookSink posts alerts to an HTTP endpoint, typically an in-app
// notification service.
type WebhookSink struct {
	url    string
	client *http.Client
}

func NewWebhookSink(url string, client *http.Client) *WebhookSink {
	if client == nil {
		// http.DefaultClient never times out; an unresponsive endpoint
		// would pin the delivery goroutine forever.
		client = &http.Client{Timeout: defaultWebhookTimeout}
	}
	return &WebhookSink{url: url, client: client}
}

func (s *WebhookSink) Notify(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("notify: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: webhook post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notify: webhook post: unexpected status %d", resp.StatusCode)
	}
	return nil
}
