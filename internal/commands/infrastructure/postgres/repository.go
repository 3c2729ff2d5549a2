package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	commands "iiot-monitor/internal/commands/domain"
)

const defaultTable = "device_commands"

// CommandRepository persists command dispatches in Postgres.
type CommandRepository struct {
	db    *sql.DB
	table string
}

// Option configures the repository.
type Option func(*CommandRepository)

// WithTable overrides the backing table name.
func WithTable(table string) Option {
	return func(r *CommandRepository) {
		if table != "" {
			r.table = table
		}
	}
}

// NewCommandRepository constructs a repository.
func NewCommandRepository(db *sql.DB, opts ...Option) (*CommandRepository, error) {
	if db == nil {
		return nil, errors.New("command repository: nil db")
	}
	repo := &CommandRepository{db: db, table: defaultTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo, nil
}

// Create inserts a new command record.
func (r *CommandRepository) Create(ctx context.Context, cmd *commands.Command) error {
	if cmd == nil {
		return errors.New("command repository: nil command")
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO `+r.table+` (command_id, device_id, command_type, payload,
			idempotency_key, status, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		cmd.CommandID,
		cmd.DeviceID,
		cmd.CommandType,
		[]byte(cmd.Payload),
		cmd.IdempotencyKey,
		cmd.Status,
		cmd.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert command %s: %w", cmd.CommandID, err)
	}
	return nil
}

// FindByIdempotencyKey returns a recent command with the key, or nil.
func (r *CommandRepository) FindByIdempotencyKey(ctx context.Context, key string, since time.Time) (*commands.Command, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT command_id, device_id, command_type, payload, idempotency_key,
			status, created_at, sent_at, error
		 FROM `+r.table+` WHERE idempotency_key = $1 AND created_at >= $2
		 ORDER BY created_at DESC LIMIT 1`,
		key, since.UTC(),
	)

	var (
		cmd        commands.Command
		payload    []byte
		sentAt     sql.NullTime
		errMessage sql.NullString
	)
	err := row.Scan(
		&cmd.CommandID,
		&cmd.DeviceID,
		&cmd.CommandType,
		&payload,
		&cmd.IdempotencyKey,
		&cmd.Status,
		&cmd.CreatedAt,
		&sentAt,
		&errMessage,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find command by key: %w", err)
	}
	cmd.Payload = payload
	cmd.CreatedAt = cmd.CreatedAt.UTC()
	if sentAt.Valid {
		cmd.SentAt = sentAt.Time.UTC()
	}
	cmd.Error = errMessage.String
	return &cmd, nil
}

// UpdateStatus records the dispatch outcome.
func (r *CommandRepository) UpdateStatus(ctx context.Context, commandID, status, errMessage string, sentAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE `+r.table+` SET status = $2, error = NULLIF($3, ''), sent_at = $4
		 WHERE command_id = $1`,
		commandID, status, errMessage, nullableTime(sentAt),
	)
	if err != nil {
		return fmt.Errorf("update command %s: %w", commandID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update command %s: %w", commandID, err)
	}
	if affected == 0 {
		return commands.ErrNotFound
	}
	return nil
}

func nullableTime(value time.Time) sql.NullTime {
	return sql.NullTime{Time: value.UTC(), Valid: !value.IsZero()}
}
