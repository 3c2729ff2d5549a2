package memory

import (
	"time"

	telemetry "iiot-monitor/internal/telemetry/domain"
)

// SampleFleet returns a demo fleet with one device per interesting status:
// healthy compressors and presses, one hot press, one errored quality
// station, one compressor parked in maintenance mode, and one conveyor
// that stopped reporting. Window ends are placed relative to now so the
// derived statuses stay stable in demo mode.
func SampleFleet(now time.Time) []telemetry.Record {
	now = now.UTC()
	fresh := now.Add(-time.Minute)
	stale := now.Add(-3 * time.Hour)

	return []telemetry.Record{
		{
			DeviceID: "compressor-a1", DeviceType: telemetry.DeviceCompressor,
			LineID: "line-1", LineName: "Assembly Line 1",
			WindowEnd: fresh, AvgTemperature: 72, AvgProductionRate: 60,
			AvailabilityPercentage: 0.96,
			Compressor:             &telemetry.CompressorMetrics{AvgPressureBar: 7.2, MaxPressureBar: 8.1},
		},
		{
			DeviceID: "compressor-a2", DeviceType: telemetry.DeviceCompressor,
			LineID: "line-1", LineName: "Assembly Line 1",
			WindowEnd: fresh, AvgTemperature: 68, AvgProductionRate: 55,
			AvailabilityPercentage: 0.93, MaintenanceMode: true,
			Compressor:             &telemetry.CompressorMetrics{AvgPressureBar: 6.8, MaxPressureBar: 7.5},
		},
		{
			DeviceID: "press-b1", DeviceType: telemetry.DevicePress,
			LineID: "line-1", LineName: "Assembly Line 1",
			WindowEnd: fresh, AvgTemperature: 85, AvgProductionRate: 45,
			AvailabilityPercentage: 0.88,
			Press:                  &telemetry.PressMetrics{AvgCycleTimeSec: 3.4, StrokeCount: 1180},
		},
		{
			DeviceID: "press-b2", DeviceType: telemetry.DevicePress,
			LineID: "line-2", LineName: "Stamping Line 2",
			WindowEnd: fresh, AvgTemperature: 70, AvgProductionRate: 62,
			AvailabilityPercentage: 0.97,
			Press:                  &telemetry.PressMetrics{AvgCycleTimeSec: 2.9, StrokeCount: 1320},
		},
		{
			DeviceID: "quality-c1", DeviceType: telemetry.DeviceQualityStation,
			LineID: "line-2", LineName: "Stamping Line 2",
			WindowEnd: fresh, AvgTemperature: 95, AvgProductionRate: 0,
			AvailabilityPercentage: 0.41, CurrentErrorCode: 2,
			Quality:                &telemetry.QualityMetrics{GoodCount: 410, BadCount: 55},
		},
		{
			DeviceID: "conveyor-d1", DeviceType: telemetry.DeviceConveyor,
			LineID: "line-2", LineName: "Stamping Line 2",
			WindowEnd: stale, AvgTemperature: 25, AvgProductionRate: 0,
			AvailabilityPercentage: 0.0,
			Conveyor:               &telemetry.ConveyorMetrics{BeltSpeedMPS: 0, Running: false},
		},
		{
			DeviceID: "conveyor-d2", DeviceType: telemetry.DeviceConveyor,
			LineID: "line-1", LineName: "Assembly Line 1",
			WindowEnd: fresh, AvgTemperature: 50, AvgProductionRate: 58,
			AvailabilityPercentage: 0.91,
			Conveyor:               &telemetry.ConveyorMetrics{BeltSpeedMPS: 1.4, Running: true},
		},
	}
}
