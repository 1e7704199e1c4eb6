package resolver

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/sportslive/internal/events"
)

// fakeProvider deciphers deterministically with an optional randomized
// delay, so latency variance can be simulated.
type fakeProvider struct {
	id       string
	name     string
	fail     bool
	delay    time.Duration // fixed per-call delay
	maxDelay time.Duration // randomized per-call delay
}

func (f *fakeProvider) ID() string          { return f.id }
func (f *fakeProvider) DisplayName() string { return f.name }

func (f *fakeProvider) Decipher(ctx context.Context, link string) (string, error) {
	delay := f.delay
	if f.maxDelay > 0 {
		delay = time.Duration(rand.Int63n(int64(f.maxDelay)))
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.fail {
		return "", errors.New("decipher blew up")
	}
	return fmt.Sprintf("https://cdn.example/%s/%s.m3u8", f.id, link), nil
}

func liveGroup(links ...string) *events.EventGroup {
	return &events.EventGroup{
		ID:     "match_a_1000",
		Title:  "Match A",
		Status: events.StatusLive,
		Links:  links,
	}
}

func newTestEngine(t *testing.T, workers int, providers ...Provider) *Engine {
	t.Helper()
	registry, err := NewRegistry(providers...)
	require.NoError(t, err)
	return NewEngine(registry, workers, zerolog.Nop())
}

func TestResolveFinishedShortCircuits(t *testing.T) {
	engine := newTestEngine(t, 2, &fakeProvider{id: "p1", name: "P1"})
	group := liveGroup("https://x.example/p?stream=espn")
	group.Status = events.StatusFinished

	candidates, report := engine.Resolve(context.Background(), group, nil)
	assert.Empty(t, candidates)
	assert.Empty(t, report.Outcomes)
}

func TestResolveNoLinksShortCircuits(t *testing.T) {
	engine := newTestEngine(t, 2, &fakeProvider{id: "p1", name: "P1"})

	candidates, report := engine.Resolve(context.Background(), liveGroup(), nil)
	assert.Empty(t, candidates)
	assert.Empty(t, report.Outcomes)
}

func TestResolveNumberingDeterministicUnderLatencyVariance(t *testing.T) {
	p1 := &fakeProvider{id: "p1", name: "Provider One", maxDelay: 20 * time.Millisecond}
	p2 := &fakeProvider{id: "p2", name: "Provider Two", maxDelay: 20 * time.Millisecond}
	engine := newTestEngine(t, 4, p1, p2)

	group := liveGroup(
		"https://x.example/a?stream=espn",
		"https://x.example/b?stream=fox_sports",
	)

	// Repeated runs with randomized per-call delay must always come
	// back in link-major, provider-minor order, numbered 1-4.
	for run := 0; run < 10; run++ {
		candidates, report := engine.Resolve(context.Background(), group, nil)
		require.Len(t, candidates, 4)
		require.Len(t, report.Outcomes, 4)

		assert.Equal(t, "ESPN (Option 1)\nFrom Provider One", candidates[0].Title)
		assert.Equal(t, "ESPN (Option 2)\nFrom Provider Two", candidates[1].Title)
		assert.Equal(t, "FOX SPORTS (Option 3)\nFrom Provider One", candidates[2].Title)
		assert.Equal(t, "FOX SPORTS (Option 4)\nFrom Provider Two", candidates[3].Title)
	}
}

func TestResolveFailureIsolation(t *testing.T) {
	good := &fakeProvider{id: "good", name: "Good"}
	bad := &fakeProvider{id: "bad", name: "Bad", fail: true}
	engine := newTestEngine(t, 2, bad, good)

	group := liveGroup(
		"https://x.example/a?stream=espn",
		"https://x.example/b?stream=tnt",
	)

	candidates, report := engine.Resolve(context.Background(), group, nil)

	// Two successes from the good provider, numbering continuous.
	require.Len(t, candidates, 2)
	assert.Equal(t, "ESPN (Option 1)\nFrom Good", candidates[0].Title)
	assert.Equal(t, "TNT (Option 2)\nFrom Good", candidates[1].Title)

	// Two recorded diagnostics for the bad one.
	failures := report.Failures()
	require.Len(t, failures, 2)
	for _, f := range failures {
		assert.Equal(t, "bad", f.Provider)
		assert.Error(t, f.Err)
	}
}

func TestResolveEnabledSubset(t *testing.T) {
	p1 := &fakeProvider{id: "p1", name: "P1"}
	p2 := &fakeProvider{id: "p2", name: "P2"}
	engine := newTestEngine(t, 2, p1, p2)
	group := liveGroup("https://x.example/a?stream=espn")

	candidates, _ := engine.Resolve(context.Background(), group, []string{"p2"})
	require.Len(t, candidates, 1)
	assert.Contains(t, candidates[0].Title, "From P2")

	// Unknown ids are ignored; an all-unknown set leaves nothing enabled.
	candidates, _ = engine.Resolve(context.Background(), group, []string{"nope"})
	assert.Empty(t, candidates)
}

func TestResolveEmptyEnabledSetMeansAll(t *testing.T) {
	p1 := &fakeProvider{id: "p1", name: "P1"}
	p2 := &fakeProvider{id: "p2", name: "P2"}
	engine := newTestEngine(t, 2, p1, p2)
	group := liveGroup("https://x.example/a?stream=espn")

	candidates, _ := engine.Resolve(context.Background(), group, nil)
	assert.Len(t, candidates, 2)
}

func TestResolveDuplicateLinksResolvedRedundantly(t *testing.T) {
	p1 := &fakeProvider{id: "p1", name: "P1"}
	engine := newTestEngine(t, 2, p1)
	group := liveGroup(
		"https://x.example/a?stream=espn",
		"https://x.example/a?stream=espn",
	)

	candidates, _ := engine.Resolve(context.Background(), group, nil)
	require.Len(t, candidates, 2)
	assert.Equal(t, "ESPN (Option 1)\nFrom P1", candidates[0].Title)
	assert.Equal(t, "ESPN (Option 2)\nFrom P1", candidates[1].Title)
}

func TestResolveCancellation(t *testing.T) {
	slow := &fakeProvider{id: "slow", name: "Slow", delay: 5 * time.Second}
	engine := newTestEngine(t, 1, slow)
	group := liveGroup(
		"https://x.example/a?stream=espn",
		"https://x.example/b?stream=tnt",
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	candidates, report := engine.Resolve(ctx, group, nil)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Empty(t, candidates)
	assert.Len(t, report.Failures(), 2)
}

func TestChannelName(t *testing.T) {
	assert.Equal(t, "FOX SPORTS", channelName("https://x.example/p?stream=fox_sports"))
	assert.Equal(t, "ESPN", channelName("https://x.example/p?stream=espn"))
	assert.Equal(t, "UNKNOWN CHANNEL", channelName("https://x.example/p"))
	assert.Equal(t, "UNKNOWN CHANNEL", channelName("://not a url"))
}

func TestRegistryValidation(t *testing.T) {
	_, err := NewRegistry()
	assert.Error(t, err)

	_, err = NewRegistry(&fakeProvider{id: "", name: "Anon"})
	assert.Error(t, err)

	_, err = NewRegistry(&fakeProvider{id: "p1", name: "A"}, &fakeProvider{id: "p1", name: "B"})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "duplicate"))
}

func TestRegistryOrderAndEnabled(t *testing.T) {
	p1 := &fakeProvider{id: "p1", name: "P1"}
	p2 := &fakeProvider{id: "p2", name: "P2"}
	p3 := &fakeProvider{id: "p3", name: "P3"}
	registry, err := NewRegistry(p1, p2, p3)
	require.NoError(t, err)

	assert.Equal(t, []string{"p1", "p2", "p3"}, registry.IDs())

	// Enabled keeps registration order regardless of the set's order.
	enabled := registry.Enabled([]string{"p3", "p1"})
	require.Len(t, enabled, 2)
	assert.Equal(t, "p1", enabled[0].ID())
	assert.Equal(t, "p3", enabled[1].ID())
}
