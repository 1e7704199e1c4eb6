package providers

import (
	"context"
	"fmt"
	"net/http"
)

// StreamTP deciphers event links directly: the raw link is already a
// streamtp player page, so the decipher is one fetch plus extraction.
type StreamTP struct {
	client *http.Client
}

// NewStreamTP creates the streamtp decipher.
func NewStreamTP(client *http.Client) *StreamTP {
	if client == nil {
		client = NewHTTPClient(0)
	}
	return &StreamTP{client: client}
}

func (p *StreamTP) ID() string          { return "streamtp" }
func (p *StreamTP) DisplayName() string { return "StreamTP" }

// Decipher fetches the link's player page and extracts the playback URL.
func (p *StreamTP) Decipher(ctx context.Context, link string) (string, error) {
	doc, err := fetchDocument(ctx, p.client, link)
	if err != nil {
		return "", err
	}

	playback := extractPlayback(doc)
	if playback == "" {
		return "", fmt.Errorf("no playback url in page %q", link)
	}
	return absolutePlayback(link, playback), nil
}
