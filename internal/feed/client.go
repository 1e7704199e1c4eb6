package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultURL is the upstream event feed endpoint.
	DefaultURL = "https://streamtpglobal.com/eventos.json"

	defaultTimeout = 15 * time.Second

	// maxFeedBytes caps the response body; the feed is a few hundred
	// records at most.
	maxFeedBytes = 8 << 20
)

// Client fetches the raw event feed over HTTP.
type Client struct {
	url    string
	http   *http.Client
	logger zerolog.Logger
}

// NewClient creates a feed client for the given endpoint. An empty
// url selects the default upstream.
func NewClient(url string, logger zerolog.Logger) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		url:    url,
		http:   &http.Client{Timeout: defaultTimeout},
		logger: logger,
	}
}

// FetchAll retrieves the current raw event snapshot. Any transport or
// parse failure degrades to an empty slice; the fetch is best-effort,
// single-attempt, and never surfaces an error to callers.
func (c *Client) FetchAll(ctx context.Context) []RawEvent {
	events, err := c.fetch(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Str("url", c.url).Msg("feed fetch failed, continuing with no events")
		return []RawEvent{}
	}
	return events
}

func (c *Client) fetch(ctx context.Context) ([]RawEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("building feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("reading feed body: %w", err)
	}

	var events []RawEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("decoding feed: %w", err)
	}
	return events, nil
}
