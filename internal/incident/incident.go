// Package incident proxies the public DeFi hacks feed so the front-end can
// show recent real-world exploits next to an audit.
package incident

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/contract-auditor/internal/apperror"
	"github.com/sakif/contract-auditor/internal/model"
)

// DefaultFeedURL is DefiLlama's hacks endpoint.
const DefaultFeedURL = "https://api.llama.fi/hacks"

// maxFeedBytes bounds the decoded body. The full feed is a few hundred KB.
const maxFeedBytes = 16 << 20

// feedEntry is one element of the upstream array. The feed carries many more
// fields (date, chain, classification...) which are ignored.
type feedEntry struct {
	Technique *string  `json:"technique"`
	Amount    *float64 `json:"amount"`
	Source    *string  `json:"source"`
}

// Client fetches and reshapes the feed. It holds no state between calls.
type Client struct {
	url    string
	http   *http.Client
	logger *slog.Logger
}

// New creates a Client. An empty feedURL means DefaultFeedURL; a nil
// httpClient gets a 15s timeout.
func New(feedURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if feedURL == "" {
		feedURL = DefaultFeedURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{url: feedURL, http: httpClient, logger: logger}
}

// Recent returns every incident in the feed, in upstream order.
// Any failure (transport, non-2xx, body that is not a JSON array) is an
// apperror.ErrUpstreamFeed.
func (c *Client) Recent(ctx context.Context) ([]model.Incident, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, apperror.UpstreamFeed(fmt.Errorf("incident: building request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("fetching incident feed", slog.String("url", c.url))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperror.UpstreamFeed(fmt.Errorf("incident: fetching feed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperror.UpstreamFeed(fmt.Errorf("incident: unexpected status %d", resp.StatusCode))
	}

	var entries []feedEntry
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxFeedBytes)).Decode(&entries); err != nil {
		return nil, apperror.UpstreamFeed(fmt.Errorf("incident: decoding feed: %w", err))
	}
	// A literal `null` decodes without error into a nil slice.
	if entries == nil {
		return nil, apperror.UpstreamFeed(errors.New("incident: feed is not an array"))
	}

	incidents := make([]model.Incident, 0, len(entries))
	for _, e := range entries {
		incidents = append(incidents, model.Incident{
			Technique: deref(e.Technique),
			Amount:    e.Amount,
			Source:    deref(e.Source),
		})
	}
	return incidents, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
