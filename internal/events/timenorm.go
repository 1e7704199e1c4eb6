package events

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// NoTimeLabel is displayed when an event carries no time at all.
const NoTimeLabel = "Time not available"

// wallClockRe matches a bare wall-clock reading like "10:00" or "9:30:15".
var wallClockRe = regexp.MustCompile(`^\d{1,2}:\d{2}(:\d{2})?$`)

// dateTimeLayouts are tried in order for time strings that are not
// bare wall-clock readings.
var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	time.RFC1123Z,
	time.RFC1123,
}

// Normalizer converts raw per-event time strings into display strings
// in the destination offset.
type Normalizer struct {
	sourceOffset int // signed hours the upstream assumes for wall-clock readings
	destOffset   int // signed hours applied for display
	now          func() time.Time
	logger       zerolog.Logger
}

// NewNormalizer creates a Normalizer for the given source and
// destination offsets (signed hours).
func NewNormalizer(sourceOffset, destOffset int, logger zerolog.Logger) *Normalizer {
	return &Normalizer{
		sourceOffset: sourceOffset,
		destOffset:   destOffset,
		now:          time.Now,
		logger:       logger,
	}
}

// Normalize returns the event time formatted as 24-hour HH:MM in the
// destination offset, or the raw string verbatim when it cannot be
// parsed. It never fails.
//
// Bare wall-clock readings carry no date, so they are anchored to
// "today" on the UTC calendar before the source offset is applied.
// Near midnight under a nontrivial offset this can select the wrong
// calendar day; the upstream gives nothing to anchor to, so the
// ambiguity is inherent and left visible rather than guessed around.
func (n *Normalizer) Normalize(raw string) string {
	if raw == "" {
		return NoTimeLabel
	}
	instant, ok := n.parse(raw)
	if !ok {
		n.logger.Warn().Str("time", raw).Msg("could not parse event time, showing original string")
		return raw
	}
	return instant.Add(time.Duration(n.destOffset) * time.Hour).UTC().Format("15:04")
}

// parse turns the raw string into a UTC instant.
func (n *Normalizer) parse(raw string) (time.Time, bool) {
	if wallClockRe.MatchString(raw) {
		parts := strings.Split(raw, ":")
		hours, _ := strconv.Atoi(parts[0])
		minutes, _ := strconv.Atoi(parts[1])
		seconds := 0
		if len(parts) == 3 {
			seconds, _ = strconv.Atoi(parts[2])
		}

		today := n.now().UTC()
		wall := time.Date(today.Year(), today.Month(), today.Day(), hours, minutes, seconds, 0, time.UTC)
		// The reading is a source-local clock; shifting it backward by
		// the source offset yields the UTC instant.
		return wall.Add(-time.Duration(n.sourceOffset) * time.Hour), true
	}

	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
