// Package datasource abstracts where dashboard data comes from. The
// view layer and table handlers depend only on the DataSource
// interface; whether records arrive from the HTTP API, the backing
// store, or the in-memory sample fleet is an implementation detail.
package datasource

import (
	"context"
	"fmt"
	"math"
	"time"

	errorfeed "iiot-monitor/internal/errorfeed/domain"
	telemetry "iiot-monitor/internal/telemetry/domain"
)

// DataSource provides the three dashboard queries.
type DataSource interface {
	FleetLatest(ctx context.Context) ([]telemetry.Record, error)
	DeviceHistory(ctx context.Context, deviceID string) (telemetry.History, error)
	Errors(ctx context.Context, filter errorfeed.ListFilter) ([]errorfeed.Event, error)
}

// DeviceSummary is the view-friendly form of a telemetry record:
// rounded, unit-suffixed strings ready for table rendering.
type DeviceSummary struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	DeviceType     string           `json:"device_type"`
	LineID         string           `json:"line_id"`
	LineName       string           `json:"line_name"`
	Temperature    string           `json:"temperature"`
	ProductionRate string           `json:"production_rate"`
	Availability   string           `json:"availability"`
	Status         telemetry.Status `json:"status"`
	LastUpdate     time.Time        `json:"last_update"`
	ErrorCode      int              `json:"error_code"`
}

// SummarizeRecord converts a record to its view form, deriving status
// with the given rules.
func SummarizeRecord(rec telemetry.Record, rules telemetry.StatusRules, now time.Time) DeviceSummary {
	return DeviceSummary{
		ID:             rec.DeviceID,
		Name:           rec.DeviceID,
		DeviceType:     string(rec.DeviceType),
		LineID:         rec.LineID,
		LineName:       rec.LineName,
		Temperature:    fmt.Sprintf("%d°C", int(math.Round(rec.AvgTemperature))),
		ProductionRate: fmt.Sprintf("%d units/hr", int(math.Round(rec.AvgProductionRate))),
		Availability:   fmt.Sprintf("%d%%", int(math.Round(rec.AvailabilityPercentage*100))),
		Status:         rules.DisplayStatus(rec, now),
		LastUpdate:     rec.WindowEnd,
		ErrorCode:      rec.CurrentErrorCode,
	}
}

// Summarize converts a fleet snapshot to view form.
func Summarize(records []telemetry.Record, rules telemetry.StatusRules, now time.Time) []DeviceSummary {
	summaries := make([]DeviceSummary, len(records))
	for i, rec := range records {
		summaries[i] = SummarizeRecord(rec, rules, now)
	}
	return summaries
}
