package providers

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

const (
	envivoBaseURL = "https://1envivo.com"

	// renderTimeout bounds one headless page render.
	renderTimeout = 30 * time.Second
)

// EnVivo deciphers via a headless browser. The 1envivo pages assemble
// their player source in JavaScript, so a plain fetch never sees the
// URL; the page has to render first.
type EnVivo struct {
	baseURL  string
	allocCtx context.Context
	cancel   context.CancelFunc
}

// NewEnVivo creates the 1envivo decipher with its own browser
// allocator. Call Close to release the browser resources.
func NewEnVivo() *EnVivo {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(UserAgent),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &EnVivo{
		baseURL:  envivoBaseURL,
		allocCtx: allocCtx,
		cancel:   cancel,
	}
}

// Close releases the browser allocator.
func (p *EnVivo) Close() {
	if p.cancel != nil {
		p.cancel()
	}
}

func (p *EnVivo) ID() string          { return "1envivo" }
func (p *EnVivo) DisplayName() string { return "1EnVivo" }

// Decipher renders the 1envivo player page for the link's channel and
// extracts the playback URL from the rendered HTML.
func (p *EnVivo) Decipher(ctx context.Context, link string) (string, error) {
	stream, err := streamParam(link)
	if err != nil {
		return "", err
	}
	pageURL := fmt.Sprintf("%s/vivo.php?stream=%s", p.baseURL, url.QueryEscape(stream))

	browserCtx, cancelBrowser := chromedp.NewContext(p.allocCtx)
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, renderTimeout)
	defer cancelTimeout()

	// The browser context descends from the allocator, not from the
	// request; propagate the caller's cancellation by hand.
	stop := context.AfterFunc(ctx, cancelBrowser)
	defer stop()

	var html string
	err = chromedp.Run(browserCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitVisible(`body`, chromedp.ByQuery),
		chromedp.Sleep(1*time.Second), // let the player script run
		chromedp.OuterHTML(`html`, &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("rendering page: %w", err)
	}
	if html == "" {
		return "", fmt.Errorf("empty page for channel %q", stream)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parsing rendered page: %w", err)
	}

	playback := extractPlayback(doc)
	if playback == "" {
		return "", fmt.Errorf("no playback url for channel %q", stream)
	}
	return absolutePlayback(pageURL, playback), nil
}
