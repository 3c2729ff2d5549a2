package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	errorfeed "iiot-monitor/internal/errorfeed/domain"
)

const defaultTable = "error_events"

// EventRepository lists and resolves error events in Postgres.
type EventRepository struct {
	db    *sql.DB
	table string
}

// Option configures the repository.
type Option func(*EventRepository)

// WithTable overrides the backing table name.
func WithTable(table string) Option {
	return func(r *EventRepository) {
		if table != "" {
			r.table = table
		}
	}
}

// NewEventRepository constructs a repository.
func NewEventRepository(db *sql.DB, opts ...Option) (*EventRepository, error) {
	if db == nil {
		return nil, errors.New("error event repository: nil db")
	}
	repo := &EventRepository{db: db, table: defaultTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo, nil
}

// List returns events matching the filter, newest first, enriched with
// the alert code and suggested action.
func (r *EventRepository) List(ctx context.Context, filter errorfeed.ListFilter) ([]errorfeed.Event, error) {
	var (
		conditions []string
		args       []any
	)
	addCondition := func(clause string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}

	if filter.DeviceID != "" {
		addCondition("device_id = $%d", filter.DeviceID)
	}
	if filter.LineID != "" {
		addCondition("line_id = $%d", filter.LineID)
	}
	if !filter.Since.IsZero() {
		addCondition("event_time >= $%d", filter.Since.UTC())
	}
	if !filter.IncludeResolved {
		conditions = append(conditions, "resolved = FALSE")
	}

	query := `SELECT id, device_id, line_id, error_code, error_type, severity,
		event_time, error_count, action_taken, resolved
		FROM ` + r.table
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY event_time DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list error events: %w", err)
	}
	defer rows.Close()

	var events []errorfeed.Event
	for rows.Next() {
		var (
			event       errorfeed.Event
			actionTaken sql.NullString
		)
		if err := rows.Scan(
			&event.ID,
			&event.DeviceID,
			&event.LineID,
			&event.ErrorCode,
			&event.ErrorType,
			&event.Severity,
			&event.Timestamp,
			&event.ErrorCount,
			&actionTaken,
			&event.Resolved,
		); err != nil {
			return nil, fmt.Errorf("scan error event: %w", err)
		}
		event.Timestamp = event.Timestamp.UTC()
		event.ActionTaken = actionTaken.String
		event.Enrich()
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate error events: %w", err)
	}
	return events, nil
}

// Resolve marks an event resolved and records the action taken.
func (r *EventRepository) Resolve(ctx context.Context, id string, actionTaken string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE `+r.table+` SET resolved = TRUE, action_taken = $2, resolved_at = NOW()
		 WHERE id = $1 AND resolved = FALSE`,
		id, actionTaken,
	)
	if err != nil {
		return fmt.Errorf("resolve error event %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("resolve error event %s: %w", id, err)
	}
	if affected == 0 {
		return errorfeed.ErrNotFound
	}
	return nil
}

// InsertEvents seeds events, mainly for integration tests and demo data.
func (r *EventRepository) InsertEvents(ctx context.Context, events ...errorfeed.Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert events: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO `+r.table+` (id, device_id, line_id, error_code, error_type,
			severity, event_time, error_count, action_taken, resolved)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		 ON CONFLICT (id) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("prepare insert events: %w", err)
	}
	defer stmt.Close()

	for _, event := range events {
		if _, err := stmt.ExecContext(ctx,
			event.ID,
			event.DeviceID,
			event.LineID,
			event.ErrorCode,
			event.ErrorType,
			string(event.Severity),
			event.Timestamp.UTC(),
			event.ErrorCount,
			nullableString(event.ActionTaken),
			event.Resolved,
		); err != nil {
			return fmt.Errorf("insert event %s: %w", event.ID, err)
		}
	}
	return tx.Commit()
}

func nullableString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}
