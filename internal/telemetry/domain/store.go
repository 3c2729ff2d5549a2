package telemetry

import (
	"context"
	"time"
)

// Store is the queryable time-windowed telemetry collection. An empty fleet
// result is valid and distinct from a query failure.
type Store interface {
	// FleetLatest returns the latest record per device among records with
	// WindowEnd inside the trailing recency window, restricted to the given
	// device-type categories (all known types when empty).
	FleetLatest(ctx context.Context, recency time.Duration, types []DeviceType) ([]Record, error)

	// DeviceHistory returns the newest record and the chronological series
	// for one device within the trailing lookback. Zero matching records
	// yield ErrNotFound.
	DeviceHistory(ctx context.Context, deviceID string, lookback time.Duration) (History, error)
}
