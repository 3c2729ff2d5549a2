package telemetry

import "errors"

// ErrNotFound signals that a device has no records in the lookback window.
// It is distinct from a store failure: callers render a "device not found"
// state, not an empty chart.
var ErrNotFound = errors.New("telemetry: device not found")
