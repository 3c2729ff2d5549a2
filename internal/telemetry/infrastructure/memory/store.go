package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	telemetry "iiot-monitor/internal/telemetry/domain"
)

// Store is an in-memory telemetry store for demo mode and tests. It is
// interchangeable with the Postgres implementation.
type Store struct {
	mu      sync.RWMutex
	records []telemetry.Record
	now     func() time.Time
}

// Option configures the store.
type Option func(*Store)

// WithClock overrides the clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore constructs an empty store.
func NewStore(opts ...Option) *Store {
	store := &Store{now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Put adds records to the store.
func (s *Store) Put(records ...telemetry.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
}

// FleetLatest returns the latest record per device within the recency window.
func (s *Store) FleetLatest(ctx context.Context, recency time.Duration, types []telemetry.DeviceType) ([]telemetry.Record, error) {
	_ = ctx
	since := s.now().Add(-recency)
	wanted := make(map[telemetry.DeviceType]bool, len(types))
	for _, deviceType := range types {
		wanted[deviceType] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]telemetry.Record, 0, len(s.records))
	for _, rec := range s.records {
		if rec.WindowEnd.Before(since) {
			continue
		}
		if !rec.DeviceType.IsValid() {
			continue
		}
		if len(wanted) > 0 && !wanted[rec.DeviceType] {
			continue
		}
		matched = append(matched, rec)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].WindowEnd.After(matched[j].WindowEnd)
	})
	return telemetry.LatestPerDevice(matched), nil
}

// DeviceHistory returns the history for one device within the lookback.
func (s *Store) DeviceHistory(ctx context.Context, deviceID string, lookback time.Duration) (telemetry.History, error) {
	_ = ctx
	since := s.now().Add(-lookback)

	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]telemetry.Record, 0)
	for _, rec := range s.records {
		if rec.DeviceID != deviceID || rec.WindowEnd.Before(since) {
			continue
		}
		matched = append(matched, rec)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].WindowEnd.After(matched[j].WindowEnd)
	})
	return telemetry.NewHistory(matched)
}
