// Package images resolves poster and background art for event titles
// by longest-keyword match against a static keyword map loaded at
// startup.
package images

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/fortuna/sportslive/internal/events"
)

const (
	PlaceholderPoster     = "https://via.placeholder.com/200x300?text=No+Poster"
	PlaceholderBackground = "https://via.placeholder.com/1280x720?text=No+Background"

	// defaultPosterKey is the in-map fallback entry consulted before
	// the placeholder constants.
	defaultPosterKey = "default_poster"
)

// Library answers poster and background lookups. It is read-only
// after construction and safe to share across requests.
type Library struct {
	titleImages  map[string]string
	generatorURL string
	logger       zerolog.Logger
}

// Load reads the keyword map from a JSON file ({"keyword": "url", ...}).
// A missing, unparsable, or empty map is an error: the service cannot
// present a catalog without it, so callers treat this as fatal.
func Load(path, generatorURL string, logger zerolog.Logger) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading image map: %w", err)
	}

	var titleImages map[string]string
	if err := json.Unmarshal(data, &titleImages); err != nil {
		return nil, fmt.Errorf("parsing image map %s: %w", path, err)
	}
	if len(titleImages) == 0 {
		return nil, fmt.Errorf("image map %s contains no entries", path)
	}

	return New(titleImages, generatorURL, logger), nil
}

// New builds a Library from an in-memory map.
func New(titleImages map[string]string, generatorURL string, logger zerolog.Logger) *Library {
	if strings.TrimSpace(generatorURL) == "" {
		generatorURL = ""
		logger.Info().Msg("image generator not configured, using static map URLs")
	}
	return &Library{
		titleImages:  titleImages,
		generatorURL: generatorURL,
		logger:       logger,
	}
}

// PosterFor returns the poster URL for a title. When a generator base
// URL is configured and the status classifies to a known phase, the
// base image is wrapped in a generator request that banners the phase
// over it; unknown statuses always get the base image.
func (l *Library) PosterFor(title, rawStatus string) string {
	base := l.bestMatch(title)
	if base == "" {
		return PlaceholderPoster
	}
	if l.generatorURL == "" {
		return base
	}

	var liveText string
	switch events.Classify(rawStatus) {
	case events.StatusLive:
		liveText = "LIVE"
	case events.StatusUpcoming:
		liveText = "UPCOMING"
	case events.StatusFinished:
		liveText = "FINISHED"
	default:
		return base
	}

	return fmt.Sprintf("%s?imageUrl=%s&liveText=%s",
		l.generatorURL, url.QueryEscape(base), url.QueryEscape(liveText))
}

// BackgroundFor returns the background URL for a title. Backgrounds
// never go through the generator.
func (l *Library) BackgroundFor(title string) string {
	base := l.bestMatch(title)
	if base == "" {
		return PlaceholderBackground
	}
	return base
}

// bestMatch finds the longest keyword contained in the title
// (case-insensitive), falling back to the default_poster entry.
func (l *Library) bestMatch(title string) string {
	normalized := strings.ToLower(title)

	longest := ""
	for keyword := range l.titleImages {
		if keyword == defaultPosterKey {
			continue
		}
		if strings.Contains(normalized, strings.ToLower(keyword)) && len(keyword) > len(longest) {
			longest = keyword
		}
	}

	if longest != "" {
		return l.titleImages[longest]
	}
	return l.titleImages[defaultPosterKey]
}
