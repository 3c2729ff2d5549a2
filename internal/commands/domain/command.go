package commands

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

const (
	StatusCreated = "created"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

const (
	// TypeSetProductionRate adjusts a device's production rate setpoint.
	TypeSetProductionRate = "set_production_rate"
)

// ErrNotFound is returned when a command id does not exist.
var ErrNotFound = errors.New("commands: command not found")

// Command represents a device command dispatch.
type Command struct {
	CommandID      string          `json:"command_id"`
	DeviceID       string          `json:"device_id"`
	CommandType    string          `json:"command_type"`
	Payload        json.RawMessage `json:"payload"`
	IdempotencyKey string          `json:"idempotency_key"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	SentAt         time.Time       `json:"sent_at,omitempty"`
	Error          string          `json:"error,omitempty"`
}

// TwinUpdate is a fire-and-forget desired-property write.
type TwinUpdate struct {
	DeviceID      string    `json:"device_id"`
	PropertyName  string    `json:"property_name"`
	PropertyValue any       `json:"property_value"`
	RequestedAt   time.Time `json:"requested_at"`
}

// Dispatcher delivers commands and twin updates to the fleet.
type Dispatcher interface {
	DispatchCommand(ctx context.Context, cmd Command) error
	DispatchTwinUpdate(ctx context.Context, update TwinUpdate) error
}

// Repository persists command dispatches.
type Repository interface {
	Create(ctx context.Context, cmd *Command) error
	FindByIdempotencyKey(ctx context.Context, key string, since time.Time) (*Command, error)
	UpdateStatus(ctx context.Context, commandID, status, errMessage string, sentAt time.Time) error
}
