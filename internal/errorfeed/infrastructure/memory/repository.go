package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	errorfeed "iiot-monitor/internal/errorfeed/domain"
)

// EventRepository keeps error events in memory. Used in sample mode
// and in handler tests.
type EventRepository struct {
	mu     sync.RWMutex
	events map[string]errorfeed.Event
}

// NewEventRepository constructs an empty repository.
func NewEventRepository() *EventRepository {
	return &EventRepository{events: map[string]errorfeed.Event{}}
}

// Put stores events, replacing any with the same id.
func (r *EventRepository) Put(events ...errorfeed.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, event := range events {
		r.events[event.ID] = event
	}
}

// List returns matching events newest first, enriched.
func (r *EventRepository) List(_ context.Context, filter errorfeed.ListFilter) ([]errorfeed.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var events []errorfeed.Event
	for _, event := range r.events {
		if filter.DeviceID != "" && event.DeviceID != filter.DeviceID {
			continue
		}
		if filter.LineID != "" && event.LineID != filter.LineID {
			continue
		}
		if !filter.Since.IsZero() && event.Timestamp.Before(filter.Since) {
			continue
		}
		if !filter.IncludeResolved && event.Resolved {
			continue
		}
		event.Enrich()
		events = append(events, event)
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})
	return events, nil
}

// Resolve marks an unresolved event resolved.
func (r *EventRepository) Resolve(_ context.Context, id string, actionTaken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	event, ok := r.events[id]
	if !ok || event.Resolved {
		return errorfeed.ErrNotFound
	}
	event.Resolved = true
	event.ActionTaken = actionTaken
	r.events[id] = event
	return nil
}

// SampleEvents returns demo error events aligned with the sample fleet.
func SampleEvents(now time.Time) []errorfeed.Event {
	now = now.UTC()
	return []errorfeed.Event{
		{
			ID: "evt-1", DeviceID: "quality-c1", LineID: "line-2",
			ErrorCode: 2, ErrorType: "SensorFailure", Severity: errorfeed.SeverityHigh,
			Timestamp: now.Add(-10 * time.Minute), ErrorCount: 3,
		},
		{
			ID: "evt-2", DeviceID: "conveyor-d1", LineID: "line-2",
			ErrorCode: 5, ErrorType: "PowerFailure", Severity: errorfeed.SeverityCritical,
			Timestamp: now.Add(-3 * time.Hour), ErrorCount: 1,
		},
		{
			ID: "evt-3", DeviceID: "press-b1", LineID: "line-1",
			ErrorCode: 9, ErrorType: "UnknownError", Severity: errorfeed.SeverityLow,
			Timestamp: now.Add(-26 * time.Hour), ErrorCount: 1,
			Resolved: true, ActionTaken: "Manual inspection",
		},
	}
}
