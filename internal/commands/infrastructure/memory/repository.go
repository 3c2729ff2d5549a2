package memory

import (
	"context"
	"sync"
	"time"

	commands "iiot-monitor/internal/commands/domain"
)

// CommandRepository keeps command dispatches in memory for sample mode
// and service tests.
type CommandRepository struct {
	mu   sync.RWMutex
	cmds []commands.Command
}

// NewCommandRepository constructs an empty repository.
func NewCommandRepository() *CommandRepository {
	return &CommandRepository{}
}

// Create appends a command record.
func (r *CommandRepository) Create(_ context.Context, cmd *commands.Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cmds = append(r.cmds, *cmd)
	return nil
}

// FindByIdempotencyKey returns the newest recent command with the key.
func (r *CommandRepository) FindByIdempotencyKey(_ context.Context, key string, since time.Time) (*commands.Command, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.cmds) - 1; i >= 0; i-- {
		cmd := r.cmds[i]
		if cmd.IdempotencyKey == key && !cmd.CreatedAt.Before(since) {
			return &cmd, nil
		}
	}
	return nil, nil
}

// UpdateStatus records the dispatch outcome.
func (r *CommandRepository) UpdateStatus(_ context.Context, commandID, status, errMessage string, sentAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.cmds {
		if r.cmds[i].CommandID == commandID {
			r.cmds[i].Status = status
			r.cmds[i].Error = errMessage
			r.cmds[i].SentAt = sentAt
			return nil
		}
	}
	return commands.ErrNotFound
}

// All returns a copy of the stored commands, oldest first.
func (r *CommandRepository) All() []commands.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]commands.Command, len(r.cmds))
	copy(out, r.cmds)
	return out
}
