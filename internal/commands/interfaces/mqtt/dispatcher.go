package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	pmqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	commands "iiot-monitor/internal/commands/domain"
)

const publishTimeout = 2 * time.Second

// Dispatcher publishes commands and twin updates to the device broker.
// Commands go to devices/{id}/commands, twin updates to
// devices/{id}/twin/desired, both at QoS 1.
type Dispatcher struct {
	client pmqtt.Client
	logger *log.Logger
}

// Config holds broker connection settings.
type Config struct {
	BrokerURL string
	ClientID  string
}

// NewDispatcher connects to the broker and returns a dispatcher.
func NewDispatcher(cfg Config, logger *log.Logger) (*Dispatcher, error) {
	if cfg.BrokerURL == "" {
		return nil, errors.New("mqtt dispatcher: empty broker url")
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "iiot-monitor-" + uuid.NewString()
	}

	opts := pmqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(clientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetOnConnectHandler(func(pmqtt.Client) {
			if logger != nil {
				logger.Printf("mqtt connected broker=%s", cfg.BrokerURL)
			}
		}).
		SetConnectionLostHandler(func(_ pmqtt.Client, err error) {
			if logger != nil {
				logger.Printf("mqtt connection lost: %v", err)
			}
		})

	client := pmqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return &Dispatcher{client: client, logger: logger}, nil
}

// DispatchCommand publishes a command to the device's command topic.
func (d *Dispatcher) DispatchCommand(_ context.Context, cmd commands.Command) error {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal command %s: %w", cmd.CommandID, err)
	}
	return d.publish(fmt.Sprintf("devices/%s/commands", cmd.DeviceID), payload)
}

// DispatchTwinUpdate publishes a desired-property update.
func (d *Dispatcher) DispatchTwinUpdate(_ context.Context, update commands.TwinUpdate) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("marshal twin update for %s: %w", update.DeviceID, err)
	}
	return d.publish(fmt.Sprintf("devices/%s/twin/desired", update.DeviceID), payload)
}

func (d *Dispatcher) publish(topic string, payload []byte) error {
	token := d.client.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timeout after %s", topic, publishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Close disconnects from the broker.
func (d *Dispatcher) Close() {
	if d.client != nil && d.client.IsConnected() {
		d.client.Disconnect(250)
	}
}
