package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	commandsapp "iiot-monitor/internal/commands/application"
)

// Handler serves per-device command and twin routes, mounted under
// /api/devices/{id}/commands and /api/devices/{id}/twin.
type Handler struct {
	service *commandsapp.Service
	logger  *log.Logger
}

// NewHandler constructs a handler.
func NewHandler(service *commandsapp.Service, logger *log.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("commands handler: nil service")
	}
	return &Handler{service: service, logger: logger}, nil
}

// ServeHTTP dispatches the command and twin subroutes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/devices/"), "/")
	if len(parts) != 2 || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	deviceID := parts[0]

	switch parts[1] {
	case "commands":
		h.handleCommand(w, r, deviceID)
	case "twin":
		h.handleTwin(w, r, deviceID)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type commandRequest struct {
	ProductionRate *float64 `json:"production_rate"`
}

func (h *Handler) handleCommand(w http.ResponseWriter, r *http.Request, deviceID string) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProductionRate == nil {
		respondError(w, http.StatusBadRequest, "production_rate is required")
		return
	}

	cmd, err := h.service.SetProductionRate(r.Context(), deviceID, *req.ProductionRate)
	if err != nil {
		if errors.Is(err, commandsapp.ErrInvalidRequest) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logf("command dispatch device=%s: %v", deviceID, err)
		respondError(w, http.StatusBadGateway, "command dispatch failed")
		return
	}
	respondJSON(w, http.StatusAccepted, cmd)
}

type twinRequest struct {
	PropertyName  string `json:"property_name"`
	PropertyValue any    `json:"property_value"`
}

func (h *Handler) handleTwin(w http.ResponseWriter, r *http.Request, deviceID string) {
	var req twinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	update, err := h.service.UpdateTwin(r.Context(), deviceID, req.PropertyName, req.PropertyValue)
	if err != nil {
		if errors.Is(err, commandsapp.ErrInvalidRequest) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logf("twin update device=%s: %v", deviceID, err)
		respondError(w, http.StatusBadGateway, "twin update failed")
		return
	}
	respondJSON(w, http.StatusAccepted, update)
}

func (h *Handler) logf(format string, args ...any) {
	if h.logger != nil {
		h.logger.Printf(format, args...)
	}
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
