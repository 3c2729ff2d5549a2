package errorfeed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when an error event id does not exist.
var ErrNotFound = errors.New("errorfeed: event not found")

// Severity classifies an error event.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Event is a device error raised by the fleet, enriched with the
// operator-facing alert code and suggested action on read.
type Event struct {
	ID              string    `json:"id"`
	DeviceID        string    `json:"device_id"`
	LineID          string    `json:"line_id"`
	ErrorCode       int       `json:"error_code"`
	ErrorType       string    `json:"error_type"`
	Severity        Severity  `json:"severity"`
	Timestamp       time.Time `json:"timestamp"`
	ErrorCount      int       `json:"error_count"`
	AlertCode       string    `json:"alert_code"`
	SuggestedAction string    `json:"suggested_action"`
	ActionTaken     string    `json:"action_taken,omitempty"`
	Resolved        bool      `json:"resolved"`
}

// Enrich fills the derived alert code and suggested action.
func (e *Event) Enrich() {
	e.AlertCode = fmt.Sprintf("%s-%d", strings.ToUpper(e.ErrorType), e.ErrorCode)
	e.SuggestedAction = SuggestedAction(e.ErrorType)
}

var suggestedActions = map[string]string{
	"EmergencyStop": "Emergency stop activated - Check safety systems",
	"PowerFailure":  "Power failure detected - Restore power supply",
	"SensorFailure": "Sensor malfunction - Replace or recalibrate sensor",
	"UnknownError":  "Unknown error - Inspect device manually",
	"LinePattern":   "Multiple errors detected - Check entire production line",
}

// SuggestedAction maps an error type to the operator playbook entry.
func SuggestedAction(errorType string) string {
	if action, ok := suggestedActions[errorType]; ok {
		return action
	}
	return "Check device status"
}

// ListFilter narrows an error feed query. Zero values mean no filter.
type ListFilter struct {
	DeviceID string
	LineID   string
	Since    time.Time
	// IncludeResolved keeps resolved events in the result.
	IncludeResolved bool
}

// Repository persists error events.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Event, error)
	Resolve(ctx context.Context, id string, actionTaken string) error
}
