// Package providers implements the concrete stream deciphers. Each
// provider fetches (or renders) the embed page behind an event link
// and digs the playable URL out of the player bootstrap script.
package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	// UserAgent sent with embed page requests; the player hosts reject
	// obvious non-browser clients.
	UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// DefaultTimeout for a single decipher round trip.
	DefaultTimeout = 20 * time.Second
)

var (
	// playbackURLRe matches the assignment the embed pages use to hand
	// the player its source.
	playbackURLRe = regexp.MustCompile(`playbackURL\s*=\s*["']([^"']+)["']`)

	// playerFileRe matches the jwplayer-style setup some pages use
	// instead of a plain assignment.
	playerFileRe = regexp.MustCompile(`file\s*:\s*["']([^"']+\.m3u8[^"']*)["']`)
)

// NewHTTPClient returns the HTTP client the scrape-based providers
// share. timeout zero selects the default.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// fetchDocument fetches a page and parses it for extraction.
func fetchDocument(ctx context.Context, client *http.Client, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}
	return doc, nil
}

// extractPlayback scans the page's script tags for a playback URL.
func extractPlayback(doc *goquery.Document) string {
	var found string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		if m := playbackURLRe.FindStringSubmatch(text); m != nil {
			found = m[1]
			return false
		}
		if m := playerFileRe.FindStringSubmatch(text); m != nil {
			found = m[1]
			return false
		}
		return true
	})
	return found
}

// streamParam pulls the channel token out of an event link.
func streamParam(link string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("parsing link: %w", err)
	}
	stream := u.Query().Get("stream")
	if stream == "" {
		return "", fmt.Errorf("link %q has no stream parameter", link)
	}
	return stream, nil
}

// absolutePlayback resolves a playback URL found in a page against
// the page it came from, for the few pages that emit relative paths.
func absolutePlayback(pageURL, playback string) string {
	if strings.HasPrefix(playback, "http://") || strings.HasPrefix(playback, "https://") {
		return playback
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return playback
	}
	ref, err := url.Parse(playback)
	if err != nil {
		return playback
	}
	return base.ResolveReference(ref).String()
}
