// Package history fetches the denormalized conversation logs the projector
// consumes. The controller only depends on the Fetcher interface; HTTPFetcher
// is the default collaborator talking to the booking backend's REST API.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"support-sync/internal/model"
)

type Fetcher interface {
	FetchLogs(ctx context.Context, viewerID string) ([]model.ConversationLog, error)
}

type HTTPFetcher struct {
	baseURL string
	bearer  string
	client  *http.Client
}

func NewHTTPFetcher(baseURL, bearer string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{
		baseURL: baseURL,
		bearer:  bearer,
		client:  client,
	}
}

func (f *HTTPFetcher) FetchLogs(ctx context.Context, viewerID string) ([]model.ConversationLog, error) {
	endpoint := fmt.Sprintf("%s/support-tickets/logs?userId=%s", f.baseURL, url.QueryEscape(viewerID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("history: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if f.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+f.bearer)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("history: fetch logs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("history: fetch logs: unexpected status %d", resp.StatusCode)
	}

	var logs []model.ConversationLog
	if err := json.NewDecoder(resp.Body).Decode(&logs); err != nil {
		return nil, fmt.Errorf("history: decode logs: %w", err)
	}
	return logs, nil
}
