package events

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/sportslive/internal/feed"
)

type staticFeed []feed.RawEvent

func (s staticFeed) FetchAll(ctx context.Context) []feed.RawEvent { return s }

type stubImages struct{}

func (stubImages) PosterFor(title, rawStatus string) string { return "poster:" + title }
func (stubImages) BackgroundFor(title string) string        { return "background:" + title }

func testAggregator(source FeedSource) *Aggregator {
	n := NewNormalizer(0, 0, zerolog.Nop())
	n.now = func() time.Time {
		return time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	}
	return NewAggregator(source, stubImages{}, n)
}

func TestCanonicalKeyDeterminism(t *testing.T) {
	a := CanonicalKey("Boca vs. River!", "10:00")
	b := CanonicalKey("Boca vs. River!", "10:00")
	assert.Equal(t, a, b)
	assert.Equal(t, "boca_vs_river_1000", a)

	assert.NotEqual(t, a, CanonicalKey("Boca vs. River!", "11:00"))
	assert.NotEqual(t, a, CanonicalKey("Racing vs River", "10:00"))
}

func TestCanonicalKeyNoTime(t *testing.T) {
	// Non-ASCII letters are stripped, not transliterated.
	assert.Equal(t, "superclsico_no_time", CanonicalKey("Superclásico", ""))
}

func TestGroupDedupPreservesLinkOrder(t *testing.T) {
	agg := testAggregator(nil)
	raw := []feed.RawEvent{
		{Title: "Boca vs River", Status: "EN VIVO", Time: "10:00", Link: "l1"},
		{Title: "Boca vs River", Status: "EN VIVO", Time: "10:00", Link: "l2"},
		{Title: "Boca vs River", Status: "EN VIVO", Time: "10:00", Link: "l2"},
		{Title: "Boca vs River", Status: "EN VIVO", Time: "10:00", Link: "l3"},
	}

	groups := agg.Group(raw, FilterAll, "All")
	require.Len(t, groups, 1)
	// Order preserved, duplicates kept.
	assert.Equal(t, []string{"l1", "l2", "l2", "l3"}, groups[0].Links)
}

func TestGroupFilterConjunction(t *testing.T) {
	agg := testAggregator(nil)
	raw := []feed.RawEvent{
		{Title: "Match A", Status: "EN VIVO", Category: "Football", Time: "10:00", Link: "a"},
		{Title: "Match B", Status: "EN VIVO", Category: "Tennis", Time: "10:00", Link: "b"},
		{Title: "Match C", Status: "Pronto", Category: "Football", Time: "11:00", Link: "c"},
	}

	groups := agg.Group(raw, FilterLive, "Football")
	require.Len(t, groups, 1)
	assert.Equal(t, "Match A", groups[0].Title)
}

func TestGroupAllExcludesUnknownStatus(t *testing.T) {
	agg := testAggregator(nil)
	raw := []feed.RawEvent{
		{Title: "Match A", Status: "Postponed", Time: "10:00", Link: "a"},
		{Title: "Match B", Status: "EN VIVO", Time: "10:00", Link: "b"},
	}

	groups := agg.Group(raw, FilterAll, "All")
	require.Len(t, groups, 1)
	assert.Equal(t, "Match B", groups[0].Title)
}

func TestGroupFirstOccurrenceWins(t *testing.T) {
	agg := testAggregator(nil)
	raw := []feed.RawEvent{
		{Title: "Match A", Status: "Pronto", Time: "10:00", Link: "a1"},
		{Title: "Match A", Status: "EN VIVO", Time: "10:00", Link: "a2"},
	}

	groups := agg.Group(raw, FilterAll, "All")
	require.Len(t, groups, 1)
	// Descriptive fields frozen from the first event of the key; the
	// later differing status only contributes its link.
	assert.Equal(t, StatusUpcoming, groups[0].Status)
	assert.Equal(t, "Match A. Starts at 10:00.", groups[0].Description)
	assert.Equal(t, []string{"a1", "a2"}, groups[0].Links)
}

func TestGroupPopulatesDerivedFields(t *testing.T) {
	agg := testAggregator(nil)
	raw := []feed.RawEvent{
		{Title: "Match A", Status: "EN VIVO", Category: "Football", Time: "10:00", Link: "a"},
	}

	groups := agg.Group(raw, FilterAll, "All")
	require.Len(t, groups, 1)
	g := groups[0]
	assert.Equal(t, "match_a_1000", g.ID)
	assert.Equal(t, "10:00", g.NormalizedTime)
	assert.Equal(t, "Football", g.Category)
	assert.Equal(t, StatusLive, g.Status)
	assert.Equal(t, "poster:Match A", g.Poster)
	assert.Equal(t, "background:Match A", g.Background)
}

func TestGroupEncounterOrder(t *testing.T) {
	agg := testAggregator(nil)
	raw := []feed.RawEvent{
		{Title: "Zeta", Status: "EN VIVO", Time: "10:00", Link: "z"},
		{Title: "Alpha", Status: "EN VIVO", Time: "10:00", Link: "a"},
	}

	groups := agg.Group(raw, FilterAll, "All")
	require.Len(t, groups, 2)
	assert.Equal(t, "Zeta", groups[0].Title)
	assert.Equal(t, "Alpha", groups[1].Title)
}

func TestFindGroup(t *testing.T) {
	source := staticFeed{
		{Title: "Match A", Status: "EN VIVO", Time: "10:00", Link: "a"},
	}
	agg := testAggregator(source)

	group, ok := agg.FindGroup(context.Background(), "match_a_1000")
	require.True(t, ok)
	assert.Equal(t, "Match A", group.Title)

	_, ok = agg.FindGroup(context.Background(), "gone_1000")
	assert.False(t, ok)
}

func TestCategoriesRecomputedAndSorted(t *testing.T) {
	source := staticFeed{
		{Title: "A", Status: "EN VIVO", Category: "Tennis", Time: "10:00"},
		{Title: "B", Status: "Pronto", Category: "Football", Time: "11:00"},
		{Title: "C", Status: "Postponed", Category: "Football", Time: "12:00"},
		{Title: "D", Status: "EN VIVO", Time: "13:00"},
	}
	agg := testAggregator(source)

	assert.Equal(t, []string{"Football", "Tennis"}, agg.Categories(context.Background()))
}
