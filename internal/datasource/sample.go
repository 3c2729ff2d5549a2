package datasource

import (
	"time"

	errorfeedmem "iiot-monitor/internal/errorfeed/infrastructure/memory"
	telemetrymem "iiot-monitor/internal/telemetry/infrastructure/memory"
)

// NewSampleSource builds a DataSource seeded with the demo fleet and
// its matching error events. The returned stores are also exposed so
// sample mode can serve the write endpoints against the same data.
func NewSampleSource(now func() time.Time) (*StoreSource, *telemetrymem.Store, *errorfeedmem.EventRepository, error) {
	if now == nil {
		now = time.Now
	}
	store := telemetrymem.NewStore(telemetrymem.WithClock(now))
	store.Put(telemetrymem.SampleFleet(now())...)

	events := errorfeedmem.NewEventRepository()
	events.Put(errorfeedmem.SampleEvents(now())...)

	source, err := NewStoreSource(store, events)
	if err != nil {
		return nil, nil, nil, err
	}
	return source, store, events, nil
}
