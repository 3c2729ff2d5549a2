package datasource

import (
	"context"
	"errors"
	"time"

	errorfeed "iiot-monitor/internal/errorfeed/domain"
	telemetry "iiot-monitor/internal/telemetry/domain"
)

const (
	defaultRecency  = 14 * 24 * time.Hour
	defaultLookback = 24 * time.Hour
)

// StoreSource is a DataSource served directly from the backing stores,
// used by the in-process view layer to avoid a loopback HTTP hop.
type StoreSource struct {
	store    telemetry.Store
	events   errorfeed.Repository
	recency  time.Duration
	lookback time.Duration
}

// StoreOption configures the source.
type StoreOption func(*StoreSource)

// WithRecency overrides the fleet recency window.
func WithRecency(d time.Duration) StoreOption {
	return func(s *StoreSource) {
		if d > 0 {
			s.recency = d
		}
	}
}

// WithLookback overrides the device history lookback.
func WithLookback(d time.Duration) StoreOption {
	return func(s *StoreSource) {
		if d > 0 {
			s.lookback = d
		}
	}
}

// NewStoreSource constructs a store-backed DataSource.
func NewStoreSource(store telemetry.Store, events errorfeed.Repository, opts ...StoreOption) (*StoreSource, error) {
	if store == nil {
		return nil, errors.New("datasource: nil telemetry store")
	}
	if events == nil {
		return nil, errors.New("datasource: nil error repository")
	}
	source := &StoreSource{
		store:    store,
		events:   events,
		recency:  defaultRecency,
		lookback: defaultLookback,
	}
	for _, opt := range opts {
		opt(source)
	}
	return source, nil
}

func (s *StoreSource) FleetLatest(ctx context.Context) ([]telemetry.Record, error) {
	return s.store.FleetLatest(ctx, s.recency, nil)
}

func (s *StoreSource) DeviceHistory(ctx context.Context, deviceID string) (telemetry.History, error) {
	return s.store.DeviceHistory(ctx, deviceID, s.lookback)
}

func (s *StoreSource) Errors(ctx context.Context, filter errorfeed.ListFilter) ([]errorfeed.Event, error) {
	return s.events.List(ctx, filter)
}
