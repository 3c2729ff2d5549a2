package kpi

import (
	"context"
	"time"
)

// LineKPI holds one production line's daily OEE components, in percent.
type LineKPI struct {
	LineID       string    `json:"line_id"`
	LineName     string    `json:"line_name"`
	WindowEnd    time.Time `json:"window_end"`
	Availability float64   `json:"availability"`
	Performance  float64   `json:"performance"`
	Quality      float64   `json:"quality"`
	OEE          float64   `json:"oee"`
}

// OEE computes overall equipment effectiveness from percent components.
func OEE(availability, performance, quality float64) float64 {
	return availability * performance * quality / 10000
}

// WithOEE returns a copy with the OEE field computed.
func (k LineKPI) WithOEE() LineKPI {
	k.OEE = OEE(k.Availability, k.Performance, k.Quality)
	return k
}

// Source provides line KPI windows.
type Source interface {
	LineKPIs(ctx context.Context, lineID string, lookback time.Duration) ([]LineKPI, error)
}
