package telemetry

import "time"

// Status is the coarse device state derived from the latest record.
// It is computed on every read and never persisted.
type Status string

const (
	StatusOnline      Status = "online"
	StatusWarning     Status = "warning"
	StatusError       Status = "error"
	StatusOffline     Status = "offline"
	StatusMaintenance Status = "maintenance"
)

// FreshnessPolicy selects how a record is judged stale. Exactly one policy
// is active at a time; the two are never combined in one evaluation.
type FreshnessPolicy string

const (
	// FreshnessStaleness marks a device offline when the window ended more
	// than StalenessLimit ago. This is the default policy.
	FreshnessStaleness FreshnessPolicy = "staleness"
	// FreshnessAvailability marks a device offline when the window's uptime
	// ratio fell below AvailabilityFloor.
	FreshnessAvailability FreshnessPolicy = "availability"
)

// StatusRules holds the thresholds used by status derivation.
type StatusRules struct {
	Freshness          FreshnessPolicy
	StalenessLimit     time.Duration
	AvailabilityFloor  float64
	WarningTemperature float64
}

// DefaultStatusRules returns the documented default rule set: wall-clock
// staleness of 5 minutes, warning above 80 degrees.
func DefaultStatusRules() StatusRules {
	return StatusRules{
		Freshness:          FreshnessStaleness,
		StalenessLimit:     5 * time.Minute,
		AvailabilityFloor:  0.8,
		WarningTemperature: 80,
	}
}

// Derive maps a record to its status. Evaluation order is a deliberate
// tie-break: error wins over offline, offline over warning.
func (r StatusRules) Derive(rec Record, now time.Time) Status {
	if rec.CurrentErrorCode != 0 {
		return StatusError
	}
	if r.stale(rec, now) {
		return StatusOffline
	}
	if rec.AvgTemperature > r.WarningTemperature {
		return StatusWarning
	}
	return StatusOnline
}

func (r StatusRules) stale(rec Record, now time.Time) bool {
	if r.Freshness == FreshnessAvailability {
		return rec.AvailabilityPercentage < r.AvailabilityFloor
	}
	return now.Sub(rec.WindowEnd) > r.StalenessLimit
}

// DeriveStatus derives a status using the default rules.
func DeriveStatus(rec Record, now time.Time) Status {
	return DefaultStatusRules().Derive(rec, now)
}

// DisplayStatus is the label shown for a record. Derivation never yields
// maintenance; it enters only through the twin desired property
// maintenance_mode, and only for devices that would otherwise read as
// online. Errors and staleness still win.
func (r StatusRules) DisplayStatus(rec Record, now time.Time) Status {
	status := r.Derive(rec, now)
	if rec.MaintenanceMode && status == StatusOnline {
		return StatusMaintenance
	}
	return status
}
