package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	telemetry "iiot-monitor/internal/telemetry/domain"
)

// TelemetryRepository is the Postgres write side for window records. It is
// used by seeding tools and integration tests; the service itself is
// read-only over the store.
type TelemetryRepository struct {
	db    *sql.DB
	table string
}

// RepositoryOption configures the repository.
type RepositoryOption func(*TelemetryRepository)

// WithTable overrides the default table name.
func WithTable(table string) RepositoryOption {
	return func(repo *TelemetryRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewTelemetryRepository constructs a repository with the default table name.
func NewTelemetryRepository(db *sql.DB, opts ...RepositoryOption) *TelemetryRepository {
	repo := &TelemetryRepository{db: db, table: defaultTelemetryTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// InsertRecords upserts window records keyed by (device_id, window_end).
func (r *TelemetryRepository) InsertRecords(ctx context.Context, records []telemetry.Record) error {
	if r == nil || r.db == nil {
		return errors.New("telemetry repo: nil db")
	}
	if len(records) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
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
	bad_count
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18
)
ON CONFLICT (device_id, window_end)
DO UPDATE SET
	avg_temperature = EXCLUDED.avg_temperature,
	avg_production_rate = EXCLUDED.avg_production_rate,
	availability_percentage = EXCLUDED.availability_percentage,
	current_error_code = EXCLUDED.current_error_code`, r.table)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, rec := range records {
		if rec.DeviceID == "" || rec.WindowEnd.IsZero() || !rec.DeviceType.IsValid() {
			_ = tx.Rollback()
			return fmt.Errorf("telemetry repo: invalid record for device %q", rec.DeviceID)
		}
		args := payloadArgs(rec)
		if _, err := stmt.ExecContext(ctx,
			rec.DeviceID,
			string(rec.DeviceType),
			rec.LineID,
			rec.LineName,
			rec.WindowEnd.UTC(),
			rec.AvgTemperature,
			rec.AvgProductionRate,
			rec.AvailabilityPercentage,
			rec.CurrentErrorCode,
			rec.MaintenanceMode,
			args.avgPressure,
			args.maxPressure,
			args.avgCycleTime,
			args.strokeCount,
			args.beltSpeed,
			args.running,
			args.goodCount,
			args.badCount,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

type payloadColumns struct {
	avgPressure  sql.NullFloat64
	maxPressure  sql.NullFloat64
	avgCycleTime sql.NullFloat64
	strokeCount  sql.NullInt64
	beltSpeed    sql.NullFloat64
	running      sql.NullBool
	goodCount    sql.NullInt64
	badCount     sql.NullInt64
}

func payloadArgs(rec telemetry.Record) payloadColumns {
	var cols payloadColumns
	switch {
	case rec.Compressor != nil:
		cols.avgPressure = sql.NullFloat64{Float64: rec.Compressor.AvgPressureBar, Valid: true}
		cols.maxPressure = sql.NullFloat64{Float64: rec.Compressor.MaxPressureBar, Valid: true}
	case rec.Press != nil:
		cols.avgCycleTime = sql.NullFloat64{Float64: rec.Press.AvgCycleTimeSec, Valid: true}
		cols.strokeCount = sql.NullInt64{Int64: rec.Press.StrokeCount, Valid: true}
	case rec.Conveyor != nil:
		cols.beltSpeed = sql.NullFloat64{Float64: rec.Conveyor.BeltSpeedMPS, Valid: true}
		cols.running = sql.NullBool{Bool: rec.Conveyor.Running, Valid: true}
	case rec.Quality != nil:
		cols.goodCount = sql.NullInt64{Int64: rec.Quality.GoodCount, Valid: true}
		cols.badCount = sql.NullInt64{Int64: rec.Quality.BadCount, Valid: true}
	}
	return cols
}
