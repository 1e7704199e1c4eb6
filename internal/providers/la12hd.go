package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

const la12hdBaseURL = "https://la12hd.com"

// La12HD deciphers by re-homing the link's channel token onto the
// la12hd player and scraping that page.
type La12HD struct {
	client  *http.Client
	baseURL string
}

// NewLa12HD creates the la12hd decipher.
func NewLa12HD(client *http.Client) *La12HD {
	if client == nil {
		client = NewHTTPClient(0)
	}
	return &La12HD{client: client, baseURL: la12hdBaseURL}
}

func (p *La12HD) ID() string          { return "la12hd" }
func (p *La12HD) DisplayName() string { return "La12HD" }

// Decipher builds the la12hd player page for the link's channel and
// extracts the playback URL from it.
func (p *La12HD) Decipher(ctx context.Context, link string) (string, error) {
	stream, err := streamParam(link)
	if err != nil {
		return "", err
	}

	pageURL := fmt.Sprintf("%s/vivo/canales.php?stream=%s", p.baseURL, url.QueryEscape(stream))
	doc, err := fetchDocument(ctx, p.client, pageURL)
	if err != nil {
		return "", err
	}

	playback := extractPlayback(doc)
	if playback == "" {
		return "", fmt.Errorf("no playback url for channel %q", stream)
	}
	return absolutePlayback(pageURL, playback), nil
}
