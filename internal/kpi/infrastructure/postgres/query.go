package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	kpi "iiot-monitor/internal/kpi/domain"
)

const defaultTable = "line_kpis"

// KPIQuery reads daily line KPI windows from Postgres.
type KPIQuery struct {
	db    *sql.DB
	table string
	now   func() time.Time
}

// Option configures the query.
type Option func(*KPIQuery)

// WithTable overrides the backing table name.
func WithTable(table string) Option {
	return func(q *KPIQuery) {
		if table != "" {
			q.table = table
		}
	}
}

// WithClock overrides the clock used for lookback windows.
func WithClock(now func() time.Time) Option {
	return func(q *KPIQuery) {
		if now != nil {
			q.now = now
		}
	}
}

// NewKPIQuery constructs the query.
func NewKPIQuery(db *sql.DB, opts ...Option) (*KPIQuery, error) {
	if db == nil {
		return nil, errors.New("kpi query: nil db")
	}
	query := &KPIQuery{db: db, table: defaultTable, now: time.Now}
	for _, opt := range opts {
		opt(query)
	}
	return query, nil
}

// LineKPIs returns KPI windows newest first, OEE computed on read.
func (q *KPIQuery) LineKPIs(ctx context.Context, lineID string, lookback time.Duration) ([]kpi.LineKPI, error) {
	since := q.now().UTC().Add(-lookback)

	stmt := `SELECT line_id, line_name, window_end, availability_pct, performance_pct, quality_pct
		FROM ` + q.table + ` WHERE window_end >= $1`
	args := []any{since}
	if lineID != "" {
		stmt += " AND line_id = $2"
		args = append(args, lineID)
	}
	stmt += " ORDER BY window_end DESC"

	rows, err := q.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query line kpis: %w", err)
	}
	defer rows.Close()

	var kpis []kpi.LineKPI
	for rows.Next() {
		var record kpi.LineKPI
		if err := rows.Scan(
			&record.LineID,
			&record.LineName,
			&record.WindowEnd,
			&record.Availability,
			&record.Performance,
			&record.Quality,
		); err != nil {
			return nil, fmt.Errorf("scan line kpi: %w", err)
		}
		record.WindowEnd = record.WindowEnd.UTC()
		kpis = append(kpis, record.WithOEE())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate line kpis: %w", err)
	}
	return kpis, nil
}
