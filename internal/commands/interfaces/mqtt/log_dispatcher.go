package mqtt

import (
	"context"
	"log"

	commands "iiot-monitor/internal/commands/domain"
)

// LogDispatcher writes dispatches to the log instead of a broker.
// Used in sample mode where no broker is configured.
type LogDispatcher struct {
	logger *log.Logger
}

// NewLogDispatcher constructs a logging dispatcher.
func NewLogDispatcher(logger *log.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) DispatchCommand(_ context.Context, cmd commands.Command) error {
	if d.logger != nil {
		d.logger.Printf("dispatch command id=%s device=%s type=%s", cmd.CommandID, cmd.DeviceID, cmd.CommandType)
	}
	return nil
}

func (d *LogDispatcher) DispatchTwinUpdate(_ context.Context, update commands.TwinUpdate) error {
	if d.logger != nil {
		d.logger.Printf("dispatch twin update device=%s property=%s", update.DeviceID, update.PropertyName)
	}
	return nil
}
