// Package resolver fans stream decipher calls out across every
// (link, provider) pair of an event group, isolating per-call failures
// and assembling a deterministically ordered candidate list.
package resolver

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fortuna/sportslive/internal/events"
)

// StreamCandidate is one playable option for an event group. It lives
// for the duration of a single request.
type StreamCandidate struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Outcome records one (link, provider) decipher attempt.
type Outcome struct {
	Provider  string
	LinkIndex int
	Link      string
	URL       string
	Err       error
	Duration  time.Duration
}

// Failed reports whether the attempt produced no candidate.
func (o Outcome) Failed() bool {
	return o.Err != nil || o.URL == ""
}

// Report aggregates the per-call outcomes of one resolution pass. The
// successful subset becomes the primary result; the failures stay
// available for observability without ever surfacing as a
// request-level error.
type Report struct {
	Group    string
	Outcomes []Outcome
}

// Failures returns the outcomes that produced no candidate.
func (r *Report) Failures() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if o.Failed() {
			failed = append(failed, o)
		}
	}
	return failed
}

const defaultWorkers = 4

// Engine executes decipher calls concurrently with bounded
// parallelism. Each call is independent: a failure or timeout in one
// never affects sibling calls.
type Engine struct {
	registry *Registry
	workers  int
	logger   zerolog.Logger
}

// NewEngine creates a resolution engine over the registry. workers
// caps concurrent decipher calls; values below 1 select the default.
func NewEngine(registry *Registry, workers int, logger zerolog.Logger) *Engine {
	if workers < 1 {
		workers = defaultWorkers
	}
	return &Engine{
		registry: registry,
		workers:  workers,
		logger:   logger,
	}
}

// slot is one (link, provider) attempt. Slots are laid out in
// canonical order (link-major, provider-minor) up front so numbering
// never depends on completion order.
type slot struct {
	linkIndex int
	link      string
	provider  Provider
	url       string
	err       error
	duration  time.Duration
}

// Resolve resolves every link of the group against the enabled
// providers (empty set means all registered). Candidates come back in
// canonical order with Option numbers assigned in that order, no
// matter how the concurrent calls interleave. A FINISHED group or one
// without links short-circuits to an empty result before any provider
// is contacted. Cancelling ctx aborts the outstanding calls.
func (e *Engine) Resolve(ctx context.Context, group *events.EventGroup, enabledIDs []string) ([]StreamCandidate, *Report) {
	report := &Report{Group: group.Title}

	if group.Status == events.StatusFinished || len(group.Links) == 0 {
		return nil, report
	}

	providers := e.registry.Enabled(enabledIDs)
	if len(providers) == 0 {
		return nil, report
	}

	slots := make([]slot, 0, len(group.Links)*len(providers))
	for i, link := range group.Links {
		for _, p := range providers {
			slots = append(slots, slot{linkIndex: i, link: link, provider: p})
		}
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	workers := e.workers
	if workers > len(slots) {
		workers = len(slots)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				s := &slots[idx]
				if err := ctx.Err(); err != nil {
					s.err = err
					continue
				}
				start := time.Now()
				s.url, s.err = s.provider.Decipher(ctx, s.link)
				s.duration = time.Since(start)
			}
		}()
	}
	for idx := range slots {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	// All outcomes are in; number the successes in canonical order.
	var candidates []StreamCandidate
	option := 0
	for _, s := range slots {
		report.Outcomes = append(report.Outcomes, Outcome{
			Provider:  s.provider.ID(),
			LinkIndex: s.linkIndex,
			Link:      s.link,
			URL:       s.url,
			Err:       s.err,
			Duration:  s.duration,
		})
		if s.err != nil || s.url == "" {
			if s.err != nil {
				e.logger.Warn().
					Err(s.err).
					Str("provider", s.provider.ID()).
					Str("event", group.Title).
					Int("link", s.linkIndex+1).
					Msg("decipher failed")
			}
			continue
		}
		option++
		candidates = append(candidates, StreamCandidate{
			URL:   s.url,
			Title: fmt.Sprintf("%s (Option %d)\nFrom %s", channelName(s.link), option, s.provider.DisplayName()),
		})
	}

	return candidates, report
}

// channelName derives the display channel from the link's "stream"
// query parameter, underscores replaced with spaces and upper-cased.
func channelName(link string) string {
	name := "Unknown Channel"
	if u, err := url.Parse(link); err == nil {
		if s := u.Query().Get("stream"); s != "" {
			name = s
		}
	}
	return strings.ToUpper(strings.ReplaceAll(name, "_", " "))
}
