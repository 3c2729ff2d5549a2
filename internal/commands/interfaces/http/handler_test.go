package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	commandsapp "iiot-monitor/internal/commands/application"
	commands "iiot-monitor/internal/commands/domain"
	"iiot-monitor/internal/commands/infrastructure/memory"
)

type recordingDispatcher struct {
	commands []commands.Command
	twins    []commands.TwinUpdate
}

func (d *recordingDispatcher) DispatchCommand(_ context.Context, cmd commands.Command) error {
	d.commands = append(d.commands, cmd)
	return nil
}

func (d *recordingDispatcher) DispatchTwinUpdate(_ context.Context, update commands.TwinUpdate) error {
	d.twins = append(d.twins, update)
	return nil
}

func newTestHandler(t *testing.T) (*Handler, *recordingDispatcher) {
	t.Helper()
	dispatcher := &recordingDispatcher{}
	service, err := commandsapp.NewService(memory.NewCommandRepository(), dispatcher, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	handler, err := NewHandler(service, nil)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	return handler, dispatcher
}

func TestHandler_CommandAccepted(t *testing.T) {
	handler, dispatcher := newTestHandler(t)

	body := bytes.NewReader([]byte(`{"production_rate":65}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/devices/press-1/commands", body))

	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.Code)
	}
	var cmd commands.Command
	if err := json.NewDecoder(resp.Body).Decode(&cmd); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cmd.DeviceID != "press-1" || cmd.Status != commands.StatusSent {
		t.Fatalf("unexpected command %+v", cmd)
	}
	if len(dispatcher.commands) != 1 {
		t.Fatalf("expected 1 dispatch, got %d", len(dispatcher.commands))
	}
}

func TestHandler_CommandMissingRate(t *testing.T) {
	handler, _ := newTestHandler(t)

	body := bytes.NewReader([]byte(`{}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/devices/press-1/commands", body))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestHandler_TwinAccepted(t *testing.T) {
	handler, dispatcher := newTestHandler(t)

	body := bytes.NewReader([]byte(`{"property_name":"target_temperature","property_value":75}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/devices/press-1/twin", body))

	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.Code)
	}
	if len(dispatcher.twins) != 1 || dispatcher.twins[0].PropertyName != "target_temperature" {
		t.Fatalf("unexpected twin dispatches %+v", dispatcher.twins)
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	handler, _ := newTestHandler(t)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/devices/press-1/twin", nil))
	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.Code)
	}
}
