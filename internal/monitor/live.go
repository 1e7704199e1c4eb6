// Package monitor polls the aggregated event set and pushes fresh
// snapshots and status transitions to subscribers.
package monitor

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/fortuna/sportslive/internal/events"
)

// Aggregator supplies the event groups each polling pass inspects.
type Aggregator interface {
	GroupEvents(ctx context.Context, status events.StatusFilter, category string) []*events.EventGroup
}

// Broadcaster receives the serialized live snapshot on every pass.
type Broadcaster interface {
	BroadcastLiveUpdate(payload []byte)
}

// Publisher receives status changes and live snapshots for
// downstream consumers. Optional; a nil publisher disables Redis
// publishing entirely.
type Publisher interface {
	PublishStatusChange(ctx context.Context, change interface{}) error
	PublishLiveSnapshot(ctx context.Context, snapshot interface{}) error
}

// StatusChange records one observed transition between polling passes.
type StatusChange struct {
	EventID   string `json:"eventId"`
	Title     string `json:"title"`
	From      string `json:"from"`
	To        string `json:"to"`
	Timestamp int64  `json:"timestamp"`
}

// Monitor periodically re-aggregates the feed and notifies subscribers.
type Monitor struct {
	aggregator Aggregator
	broadcast  Broadcaster
	publisher  Publisher
	interval   time.Duration
	logger     zerolog.Logger
	lastStatus map[string]events.Status
}

// New creates a monitor. publisher may be nil.
func New(aggregator Aggregator, broadcast Broadcaster, publisher Publisher, interval time.Duration, logger zerolog.Logger) *Monitor {
	return &Monitor{
		aggregator: aggregator,
		broadcast:  broadcast,
		publisher:  publisher,
		interval:   interval,
		logger:     logger,
		lastStatus: make(map[string]events.Status),
	}
}

// Run polls until the context is canceled. The first pass happens
// immediately so clients connected at startup get a snapshot without
// waiting a full interval.
func (m *Monitor) Run(ctx context.Context) {
	m.logger.Info().Dur("interval", m.interval).Msg("live monitor started")

	m.tick(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info().Msg("live monitor stopped")
			return
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

func (m *Monitor) tick(ctx context.Context) {
	groups := m.aggregator.GroupEvents(ctx, events.FilterAll, "All")

	live := make([]*events.EventGroup, 0, len(groups))
	for _, g := range groups {
		if g.Status == events.StatusLive {
			live = append(live, g)
		}
	}

	snapshot := map[string]interface{}{
		"type":      "live_events",
		"events":    live,
		"count":     len(live),
		"timestamp": time.Now().Unix(),
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		m.logger.Error().Err(err).Msg("failed to serialize live snapshot")
		return
	}
	m.broadcast.BroadcastLiveUpdate(payload)

	if m.publisher != nil {
		if err := m.publisher.PublishLiveSnapshot(ctx, snapshot); err != nil {
			m.logger.Warn().Err(err).Msg("failed to publish live snapshot")
		}
	}

	m.publishTransitions(ctx, groups)
}

// publishTransitions diffs group statuses against the previous pass
// and emits one change per transition.
func (m *Monitor) publishTransitions(ctx context.Context, groups []*events.EventGroup) {
	current := make(map[string]events.Status, len(groups))
	for _, g := range groups {
		current[g.ID] = g.Status

		prev, seen := m.lastStatus[g.ID]
		if !seen || prev == g.Status {
			continue
		}

		m.logger.Info().
			Str("event", g.Title).
			Str("from", prev.String()).
			Str("to", g.Status.String()).
			Msg("event status changed")

		if m.publisher == nil {
			continue
		}
		change := StatusChange{
			EventID:   g.ID,
			Title:     g.Title,
			From:      prev.String(),
			To:        g.Status.String(),
			Timestamp: time.Now().Unix(),
		}
		if err := m.publisher.PublishStatusChange(ctx, change); err != nil {
			m.logger.Warn().Err(err).Str("event", g.Title).Msg("failed to publish status change")
		}
	}

	m.lastStatus = current
}
