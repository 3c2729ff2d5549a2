package telemetry

import (
	"strings"
	"time"
)

// DeviceType identifies the kind of production device a record describes.
type DeviceType string

const (
	DeviceCompressor     DeviceType = "Compressor"
	DevicePress          DeviceType = "Press"
	DeviceConveyor       DeviceType = "Conveyor"
	DeviceQualityStation DeviceType = "QualityStation"
)

// KnownDeviceTypes returns the device-type categories eligible for fleet queries.
func KnownDeviceTypes() []DeviceType {
	return []DeviceType{DeviceCompressor, DevicePress, DeviceConveyor, DeviceQualityStation}
}

// IsValid reports whether the device type is a known category.
func (t DeviceType) IsValid() bool {
	switch t {
	case DeviceCompressor, DevicePress, DeviceConveyor, DeviceQualityStation:
		return true
	}
	return false
}

// ParseDeviceType resolves a raw filter value to its canonical category,
// folding case so "press" and "Press" name the same type.
func ParseDeviceType(value string) (DeviceType, bool) {
	for _, known := range KnownDeviceTypes() {
		if strings.EqualFold(value, string(known)) {
			return known, true
		}
	}
	return "", false
}

// CompressorMetrics is the type-specific payload for compressors.
type CompressorMetrics struct {
	AvgPressureBar float64 `json:"avg_pressure_bar"`
	MaxPressureBar float64 `json:"max_pressure_bar"`
}

// PressMetrics is the type-specific payload for presses.
type PressMetrics struct {
	AvgCycleTimeSec float64 `json:"avg_cycle_time_sec"`
	StrokeCount     int64   `json:"stroke_count"`
}

// ConveyorMetrics is the type-specific payload for conveyors.
type ConveyorMetrics struct {
	BeltSpeedMPS float64 `json:"belt_speed_mps"`
	Running      bool    `json:"running"`
}

// QualityMetrics is the type-specific payload for quality stations.
type QualityMetrics struct {
	GoodCount int64 `json:"good_count"`
	BadCount  int64 `json:"bad_count"`
}

// Record summarizes one aggregation window for one device. The common base
// is always populated; exactly the payload matching DeviceType is non-nil.
type Record struct {
	DeviceID               string     `json:"device_id"`
	DeviceType             DeviceType `json:"device_type"`
	LineID                 string     `json:"line_id"`
	LineName               string     `json:"line_name"`
	WindowEnd              time.Time  `json:"window_end"`
	AvgTemperature         float64    `json:"avg_temperature"`
	AvgProductionRate      float64    `json:"avg_production_rate"`
	AvailabilityPercentage float64    `json:"availability_percentage"`
	CurrentErrorCode       int        `json:"current_error_code"`

	// MaintenanceMode mirrors the twin desired property of the same name.
	MaintenanceMode bool `json:"maintenance_mode,omitempty"`

	Compressor *CompressorMetrics `json:"compressor,omitempty"`
	Press      *PressMetrics      `json:"press,omitempty"`
	Conveyor   *ConveyorMetrics   `json:"conveyor,omitempty"`
	Quality    *QualityMetrics    `json:"quality,omitempty"`
}
