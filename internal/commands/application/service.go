package application

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"iiot-monitor/internal/audit"
	"iiot-monitor/internal/auth"
	commands "iiot-monitor/internal/commands/domain"
	"iiot-monitor/internal/observability/metrics"
)

const defaultIdempotencyTTL = 10 * time.Minute

// ErrInvalidRequest wraps request validation failures.
var ErrInvalidRequest = errors.New("commands: invalid request")

// Service issues commands and twin updates to the fleet.
type Service struct {
	repo           commands.Repository
	dispatcher     commands.Dispatcher
	auditor        audit.Logger
	idempotencyTTL time.Duration
	now            func() time.Time
}

// Option configures the service.
type Option func(*Service)

// WithIdempotencyTTL overrides the idempotency window.
func WithIdempotencyTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.idempotencyTTL = ttl
		}
	}
}

// WithClock overrides the clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService constructs a command service.
func NewService(repo commands.Repository, dispatcher commands.Dispatcher, auditor audit.Logger, opts ...Option) (*Service, error) {
	if repo == nil {
		return nil, errors.New("commands: nil repo")
	}
	if dispatcher == nil {
		return nil, errors.New("commands: nil dispatcher")
	}
	if auditor == nil {
		auditor = audit.Nop{}
	}
	service := &Service{
		repo:           repo,
		dispatcher:     dispatcher,
		auditor:        auditor,
		idempotencyTTL: defaultIdempotencyTTL,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// SetProductionRate issues a production-rate command for the device.
// Reissuing an identical request inside the idempotency window returns
// the original command instead of dispatching again.
func (s *Service) SetProductionRate(ctx context.Context, deviceID string, rate float64) (*commands.Command, error) {
	if deviceID == "" {
		return nil, fmt.Errorf("%w: device id required", ErrInvalidRequest)
	}
	if rate < 0 {
		return nil, fmt.Errorf("%w: production rate must not be negative", ErrInvalidRequest)
	}

	payload, _ := json.Marshal(map[string]float64{"production_rate": rate})
	key := buildIdempotencyKey(deviceID, commands.TypeSetProductionRate, payload)

	now := s.now().UTC()
	existing, err := s.repo.FindByIdempotencyKey(ctx, key, now.Add(-s.idempotencyTTL))
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	cmd := &commands.Command{
		CommandID:      "cmd-" + uuid.NewString(),
		DeviceID:       deviceID,
		CommandType:    commands.TypeSetProductionRate,
		Payload:        payload,
		IdempotencyKey: key,
		Status:         commands.StatusCreated,
		CreatedAt:      now,
	}
	if err := s.repo.Create(ctx, cmd); err != nil {
		return nil, err
	}
	metrics.IncCommandIssued()

	if err := s.dispatcher.DispatchCommand(ctx, *cmd); err != nil {
		cmd.Status = commands.StatusFailed
		cmd.Error = err.Error()
		metrics.IncCommandResult(commands.StatusFailed)
		if updateErr := s.repo.UpdateStatus(ctx, cmd.CommandID, cmd.Status, cmd.Error, time.Time{}); updateErr != nil {
			return nil, errors.Join(err, updateErr)
		}
		return cmd, err
	}

	cmd.Status = commands.StatusSent
	cmd.SentAt = s.now().UTC()
	metrics.IncCommandResult(commands.StatusSent)
	if err := s.repo.UpdateStatus(ctx, cmd.CommandID, cmd.Status, "", cmd.SentAt); err != nil {
		return nil, err
	}

	s.logAudit(ctx, "command.issue", cmd.DeviceID, cmd.Payload)
	return cmd, nil
}

// UpdateTwin dispatches a fire-and-forget desired-property update.
func (s *Service) UpdateTwin(ctx context.Context, deviceID, propertyName string, propertyValue any) (*commands.TwinUpdate, error) {
	if deviceID == "" {
		return nil, fmt.Errorf("%w: device id required", ErrInvalidRequest)
	}
	if propertyName == "" {
		return nil, fmt.Errorf("%w: property name required", ErrInvalidRequest)
	}

	update := &commands.TwinUpdate{
		DeviceID:      deviceID,
		PropertyName:  propertyName,
		PropertyValue: propertyValue,
		RequestedAt:   s.now().UTC(),
	}
	if err := s.dispatcher.DispatchTwinUpdate(ctx, *update); err != nil {
		metrics.IncTwinUpdate(metrics.ResultError)
		return nil, err
	}
	metrics.IncTwinUpdate(metrics.ResultSuccess)

	metadata, _ := json.Marshal(map[string]any{
		"property_name":  propertyName,
		"property_value": propertyValue,
	})
	s.logAudit(ctx, "twin.update", deviceID, metadata)
	return update, nil
}

func (s *Service) logAudit(ctx context.Context, action, deviceID string, metadata json.RawMessage) {
	_ = s.auditor.Log(ctx, audit.Entry{
		Actor:        auth.SubjectFromContext(ctx),
		Role:         string(auth.RoleFromContext(ctx)),
		Action:       action,
		ResourceType: "device",
		ResourceID:   deviceID,
		Metadata:     metadata,
	})
}

func buildIdempotencyKey(deviceID, commandType string, payload json.RawMessage) string {
	hash := sha1.Sum([]byte(deviceID + "|" + commandType + "|" + string(payload)))
	return hex.EncodeToString(hash[:])
}
