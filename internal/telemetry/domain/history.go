package telemetry

import "time"

// HistoryPoint is one chart sample taken from a record. Availability is
// converted to percent form for rendering.
type HistoryPoint struct {
	Timestamp      time.Time `json:"timestamp"`
	Temperature    float64   `json:"temperature"`
	ProductionRate float64   `json:"production_rate"`
	Availability   float64   `json:"availability"`
}

// History pairs the newest record for a device with its chronological
// series. Historical is always ascending in time regardless of how the
// underlying query sorted.
type History struct {
	Current    Record         `json:"current"`
	Historical []HistoryPoint `json:"historical"`
}

// NewHistory builds a History from records sorted newest-first. The series
// is reversed so chart consumers receive oldest-first ordering. Zero
// records signal ErrNotFound.
func NewHistory(records []Record) (History, error) {
	if len(records) == 0 {
		return History{}, ErrNotFound
	}
	points := make([]HistoryPoint, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		points = append(points, HistoryPoint{
			Timestamp:      rec.WindowEnd,
			Temperature:    rec.AvgTemperature,
			ProductionRate: rec.AvgProductionRate,
			Availability:   rec.AvailabilityPercentage * 100,
		})
	}
	return History{Current: records[0], Historical: points}, nil
}
