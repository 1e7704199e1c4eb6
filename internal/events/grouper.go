package events

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/fortuna/sportslive/internal/feed"
)

// EventGroup is the deduplicated, normalized unit exposed to listing,
// detail, and stream resolution. It is a value owned by the
// aggregation pass that produced it and is not mutated afterwards.
type EventGroup struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	NormalizedTime string   `json:"time"`
	Category       string   `json:"category,omitempty"`
	Status         Status   `json:"status"`
	RawStatus      string   `json:"-"`
	Description    string   `json:"description"`
	Poster         string   `json:"poster"`
	Background     string   `json:"background"`
	Links          []string `json:"-"`
}

// FeedSource is the upstream feed boundary.
type FeedSource interface {
	FetchAll(ctx context.Context) []feed.RawEvent
}

// ImageLookup resolves poster and background art for a title.
type ImageLookup interface {
	PosterFor(title, rawStatus string) string
	BackgroundFor(title string) string
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	nonKeyRe     = regexp.MustCompile(`[^a-z0-9_]+`)
	nonAlnumRe   = regexp.MustCompile(`[^a-zA-Z0-9]+`)
)

// CanonicalKey derives the deterministic group id for a raw event: the
// lowercased title with whitespace runs collapsed to underscores and
// all remaining punctuation stripped, joined to the raw time string
// with everything non-alphanumeric removed ("no_time" when the event
// carries no time). Identical (title, time) pairs always map to the
// same key within a process run.
func CanonicalKey(title, rawTime string) string {
	titlePart := strings.ToLower(whitespaceRe.ReplaceAllString(title, "_"))
	titlePart = nonKeyRe.ReplaceAllString(titlePart, "")

	timePart := "no_time"
	if rawTime != "" {
		timePart = nonAlnumRe.ReplaceAllString(rawTime, "")
	}
	return titlePart + "_" + timePart
}

// Aggregator rebuilds the event group collection from a fresh feed
// snapshot on every call. Group ids are stable within one pass; the
// feed may mutate between passes, so callers treat a miss on a
// previously listed id as a routine outcome, not a fault.
type Aggregator struct {
	source     FeedSource
	images     ImageLookup
	normalizer *Normalizer
}

// NewAggregator wires the aggregation pass dependencies.
func NewAggregator(source FeedSource, images ImageLookup, normalizer *Normalizer) *Aggregator {
	return &Aggregator{
		source:     source,
		images:     images,
		normalizer: normalizer,
	}
}

// GroupEvents fetches a snapshot and groups it under the given filters.
func (a *Aggregator) GroupEvents(ctx context.Context, statusFilter StatusFilter, categoryFilter string) []*EventGroup {
	return a.Group(a.source.FetchAll(ctx), statusFilter, categoryFilter)
}

// Group is the pure aggregation pass over one snapshot. Events must
// pass both the status and the category filter. Groups keep encounter
// order; descriptive fields are frozen from the first event of each
// key (a later event sharing the key but differing in status is
// absorbed without updating them), while every passing event appends
// its link.
func (a *Aggregator) Group(raw []feed.RawEvent, statusFilter StatusFilter, categoryFilter string) []*EventGroup {
	byKey := make(map[string]*EventGroup)
	var groups []*EventGroup

	for _, ev := range raw {
		status := Classify(ev.Status)
		if !statusFilter.Admits(status) {
			continue
		}
		if !categoryMatches(categoryFilter, ev.Category) {
			continue
		}

		key := CanonicalKey(ev.Title, ev.Time)
		group, ok := byKey[key]
		if !ok {
			normalized := a.normalizer.Normalize(ev.Time)
			group = &EventGroup{
				ID:             key,
				Title:          ev.Title,
				NormalizedTime: normalized,
				Category:       ev.Category,
				Status:         status,
				RawStatus:      ev.Status,
				Description:    Describe(ev.Title, status, normalized, ev.Status),
				Poster:         a.images.PosterFor(ev.Title, ev.Status),
				Background:     a.images.BackgroundFor(ev.Title),
			}
			byKey[key] = group
			groups = append(groups, group)
		}
		// Links keep encounter order and duplicates: a raw link
		// repeated upstream stays repeated here.
		group.Links = append(group.Links, ev.Link)
	}

	return groups
}

// FindGroup rebuilds the full collection (no filters beyond the known
// statuses) and looks one id up. The second return is false when the
// id no longer resolves against the current snapshot.
func (a *Aggregator) FindGroup(ctx context.Context, id string) (*EventGroup, bool) {
	for _, group := range a.GroupEvents(ctx, FilterAll, "All") {
		if group.ID == id {
			return group, true
		}
	}
	return nil, false
}

// Categories enumerates the distinct category labels present in a
// fresh snapshot, sorted. It is recomputed per call rather than cached
// at startup so the list tracks the feed.
func (a *Aggregator) Categories(ctx context.Context) []string {
	seen := make(map[string]struct{})
	for _, ev := range a.source.FetchAll(ctx) {
		if ev.Category != "" {
			seen[ev.Category] = struct{}{}
		}
	}

	categories := make([]string, 0, len(seen))
	for c := range seen {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	return categories
}

// categoryMatches applies the category selector; "All" (or empty)
// admits everything, otherwise the event needs a case-insensitive
// category match.
func categoryMatches(filter, category string) bool {
	if filter == "" || strings.EqualFold(filter, "All") {
		return true
	}
	return category != "" && strings.EqualFold(filter, category)
}
