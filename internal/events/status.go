package events

import (
	"fmt"
	"strings"
)

// Status is the classified, user-facing event phase.
type Status int

const (
	StatusUnknown Status = iota
	StatusLive
	StatusUpcoming
	StatusFinished
)

// String returns the display label for the status.
func (s Status) String() string {
	switch s {
	case StatusLive:
		return "LIVE"
	case StatusUpcoming:
		return "UPCOMING"
	case StatusFinished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON emits the display label rather than the numeric value.
func (s Status) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON accepts the display labels produced by MarshalJSON.
func (s *Status) UnmarshalJSON(data []byte) error {
	switch strings.Trim(string(data), `"`) {
	case "LIVE":
		*s = StatusLive
	case "UPCOMING":
		*s = StatusUpcoming
	case "FINISHED":
		*s = StatusFinished
	case "UNKNOWN":
		*s = StatusUnknown
	default:
		return fmt.Errorf("unknown status %s", data)
	}
	return nil
}

// Raw feed phase labels. The upstream publishes them in Spanish.
const (
	rawLive     = "en vivo"
	rawUpcoming = "pronto"
	rawFinished = "finalizado"
)

// Classify maps a raw free-form status string to a Status. Matching is
// case-insensitive; anything unrecognized (including absent) is
// StatusUnknown.
func Classify(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case rawLive:
		return StatusLive
	case rawUpcoming:
		return StatusUpcoming
	case rawFinished:
		return StatusFinished
	default:
		return StatusUnknown
	}
}

// StatusFilter selects which phases a catalog listing admits.
type StatusFilter string

const (
	FilterAll      StatusFilter = "All"
	FilterLive     StatusFilter = "Live"
	FilterUpcoming StatusFilter = "Upcoming"
	FilterFinished StatusFilter = "Finished"
)

// ParseStatusFilter maps a selector string to a StatusFilter,
// defaulting to FilterAll.
func ParseStatusFilter(s string) StatusFilter {
	switch StatusFilter(s) {
	case FilterLive, FilterUpcoming, FilterFinished:
		return StatusFilter(s)
	default:
		return FilterAll
	}
}

// Admits reports whether the filter admits the classified status.
// "All" admits exactly the three known phases: an event with an
// unrecognized upstream status is invisible even under All. That is
// the filter contract, not an accident.
func (f StatusFilter) Admits(s Status) bool {
	switch f {
	case FilterLive:
		return s == StatusLive
	case FilterUpcoming:
		return s == StatusUpcoming
	case FilterFinished:
		return s == StatusFinished
	default:
		return s != StatusUnknown
	}
}

// Describe renders the user-facing description for an event.
func Describe(title string, s Status, normalizedTime, rawStatus string) string {
	switch s {
	case StatusLive:
		return fmt.Sprintf("%s live.", title)
	case StatusUpcoming:
		return fmt.Sprintf("%s. Starts at %s.", title, normalizedTime)
	case StatusFinished:
		return fmt.Sprintf("%s. Finished at %s.", title, normalizedTime)
	default:
		return fmt.Sprintf("%s. Status: %s.", title, strings.ToUpper(rawStatus))
	}
}
