package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	telemetry "iiot-monitor/internal/telemetry/domain"
)

const defaultTelemetryTable = "telemetry_windows"

// TelemetryQuery is the Postgres implementation of the telemetry store's
// read side.
type TelemetryQuery struct {
	db    *sql.DB
	table string
	now   func() time.Time
}

// QueryOption configures the telemetry query.
type QueryOption func(*TelemetryQuery)

// WithQueryTable overrides the default table name.
func WithQueryTable(table string) QueryOption {
	return func(q *TelemetryQuery) {
		if q != nil && table != "" {
			q.table = table
		}
	}
}

// WithClock overrides the clock, for tests.
func WithClock(now func() time.Time) QueryOption {
	return func(q *TelemetryQuery) {
		if q != nil && now != nil {
			q.now = now
		}
	}
}

// NewTelemetryQuery constructs a query with the default table name.
func NewTelemetryQuery(db *sql.DB, opts ...QueryOption) *TelemetryQuery {
	query := &TelemetryQuery{db: db, table: defaultTelemetryTable, now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(query)
	}
	return query
}

const recordColumns = `
	device_id,
	device_type,
	line_id,
	line_name,
	window_end,
	avg_temperature,
	avg_production_rate,
	availability_percentage,
	current_error_code,
	maintenance_mode,
	avg_pressure_bar,
	max_pressure_bar,
	avg_cycle_time_sec,
	stroke_count,
	belt_speed_mps,
	running,
	good_count,
	bad_count`

// FleetLatest returns the latest record per device inside the recency window.
func (q *TelemetryQuery) FleetLatest(ctx context.Context, recency time.Duration, types []telemetry.DeviceType) ([]telemetry.Record, error) {
	if q == nil || q.db == nil {
		return nil, errors.New("telemetry query: nil db")
	}
	if recency <= 0 {
		return nil, errors.New("telemetry query: recency window required")
	}
	if len(types) == 0 {
		types = telemetry.KnownDeviceTypes()
	}

	since := q.now().Add(-recency)
	placeholders := make([]string, 0, len(types))
	args := []any{since}
	for i, deviceType := range types {
		if !deviceType.IsValid() {
			return nil, fmt.Errorf("telemetry query: unknown device type %q", deviceType)
		}
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+2))
		args = append(args, string(deviceType))
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE window_end >= $1
	AND device_type IN (%s)
ORDER BY window_end DESC`, recordColumns, q.table, strings.Join(placeholders, ", "))

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	return telemetry.LatestPerDevice(records), nil
}

// DeviceHistory returns the newest record and ascending series for a device.
func (q *TelemetryQuery) DeviceHistory(ctx context.Context, deviceID string, lookback time.Duration) (telemetry.History, error) {
	if q == nil || q.db == nil {
		return telemetry.History{}, errors.New("telemetry query: nil db")
	}
	if deviceID == "" {
		return telemetry.History{}, errors.New("telemetry query: device id required")
	}
	if lookback <= 0 {
		return telemetry.History{}, errors.New("telemetry query: lookback required")
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE device_id = $1
	AND window_end >= $2
ORDER BY window_end DESC`, recordColumns, q.table)

	rows, err := q.db.QueryContext(ctx, query, deviceID, q.now().Add(-lookback))
	if err != nil {
		return telemetry.History{}, err
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return telemetry.History{}, err
	}
	return telemetry.NewHistory(records)
}

func scanRecords(rows *sql.Rows) ([]telemetry.Record, error) {
	var records []telemetry.Record
	for rows.Next() {
		var (
			rec          telemetry.Record
			deviceType   string
			maintenance  sql.NullBool
			avgPressure  sql.NullFloat64
			maxPressure  sql.NullFloat64
			avgCycleTime sql.NullFloat64
			strokeCount  sql.NullInt64
			beltSpeed    sql.NullFloat64
			running      sql.NullBool
			goodCount    sql.NullInt64
			badCount     sql.NullInt64
		)
		if err := rows.Scan(
			&rec.DeviceID,
			&deviceType,
			&rec.LineID,
			&rec.LineName,
			&rec.WindowEnd,
			&rec.AvgTemperature,
			&rec.AvgProductionRate,
			&rec.AvailabilityPercentage,
			&rec.CurrentErrorCode,
			&maintenance,
			&avgPressure,
			&maxPressure,
			&avgCycleTime,
			&strokeCount,
			&beltSpeed,
			&running,
			&goodCount,
			&badCount,
		); err != nil {
			return nil, err
		}
		rec.DeviceType = telemetry.DeviceType(deviceType)
		rec.WindowEnd = rec.WindowEnd.UTC()
		rec.MaintenanceMode = maintenance.Bool
		attachPayload(&rec, avgPressure, maxPressure, avgCycleTime, strokeCount, beltSpeed, running, goodCount, badCount)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func attachPayload(rec *telemetry.Record, avgPressure, maxPressure, avgCycleTime sql.NullFloat64, strokeCount sql.NullInt64, beltSpeed sql.NullFloat64, running sql.NullBool, goodCount, badCount sql.NullInt64) {
	switch rec.DeviceType {
	case telemetry.DeviceCompressor:
		rec.Compressor = &telemetry.CompressorMetrics{
			AvgPressureBar: avgPressure.Float64,
			MaxPressureBar: maxPressure.Float64,
		}
	case telemetry.DevicePress:
		rec.Press = &telemetry.PressMetrics{
			AvgCycleTimeSec: avgCycleTime.Float64,
			StrokeCount:     strokeCount.Int64,
		}
	case telemetry.DeviceConveyor:
		rec.Conveyor = &telemetry.ConveyorMetrics{
			BeltSpeedMPS: beltSpeed.Float64,
			Running:      running.Bool,
		}
	case telemetry.DeviceQualityStation:
		rec.Quality = &telemetry.QualityMetrics{
			GoodCount: goodCount.Int64,
			BadCount:  badCount.Int64,
		}
	}
}
