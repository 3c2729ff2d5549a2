package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"iiot-monitor/internal/observability/metrics"
	telemetry "iiot-monitor/internal/telemetry/domain"
)

const (
	defaultRecency  = 14 * 24 * time.Hour
	defaultLookback = 24 * time.Hour
)

// Handler serves the fleet snapshot and device detail endpoints.
type Handler struct {
	store    telemetry.Store
	logger   *log.Logger
	recency  time.Duration
	lookback time.Duration
	commands http.Handler
}

// Option configures the handler.
type Option func(*Handler)

// WithRecency overrides the default fleet recency window.
func WithRecency(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.recency = d
		}
	}
}

// WithLookback overrides the default device history lookback.
func WithLookback(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.lookback = d
		}
	}
}

// WithCommandRoutes delegates /api/devices/{id}/twin and
// /api/devices/{id}/commands to the given handler.
func WithCommandRoutes(commands http.Handler) Option {
	return func(h *Handler) {
		h.commands = commands
	}
}

// NewHandler constructs a handler.
func NewHandler(store telemetry.Store, logger *log.Logger, opts ...Option) (*Handler, error) {
	if store == nil {
		return nil, errors.New("devices handler: nil store")
	}
	handler := &Handler{
		store:    store,
		logger:   logger,
		recency:  defaultRecency,
		lookback: defaultLookback,
	}
	for _, opt := range opts {
		opt(handler)
	}
	return handler, nil
}

// ServeHTTP handles /api/devices and subroutes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/devices":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleFleet(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/devices/"):
		path := strings.TrimPrefix(r.URL.Path, "/api/devices/")
		parts := strings.Split(path, "/")
		switch {
		case len(parts) == 1 && parts[0] != "":
			if r.Method != http.MethodGet {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			h.handleDetail(w, r, parts[0])
		case len(parts) == 2 && (parts[1] == "twin" || parts[1] == "commands"):
			if h.commands == nil {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			h.commands.ServeHTTP(w, r)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleFleet(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	recency := h.recency
	if days := r.URL.Query().Get("days"); days != "" {
		parsed, err := strconv.Atoi(days)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		recency = time.Duration(parsed) * 24 * time.Hour
	}

	types, err := parseTypes(r.URL.Query().Get("types"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.store.FleetLatest(r.Context(), recency, types)
	if err != nil {
		h.logf("fleet query error: %v", err)
		metrics.ObserveFleetQuery(metrics.ResultError, time.Since(start))
		respondError(w, http.StatusInternalServerError, "telemetry store unavailable")
		return
	}
	metrics.ObserveFleetQuery(metrics.ResultSuccess, time.Since(start))

	// An empty fleet is a valid result, not an error.
	if records == nil {
		records = []telemetry.Record{}
	}
	respondJSON(w, http.StatusOK, records)
}

func (h *Handler) handleDetail(w http.ResponseWriter, r *http.Request, deviceID string) {
	start := time.Now()

	lookback := h.lookback
	if hours := r.URL.Query().Get("hours"); hours != "" {
		parsed, err := strconv.Atoi(hours)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "hours must be a positive integer")
			return
		}
		lookback = time.Duration(parsed) * time.Hour
	}

	history, err := h.store.DeviceHistory(r.Context(), deviceID, lookback)
	if err != nil {
		if errors.Is(err, telemetry.ErrNotFound) {
			metrics.ObserveDeviceDetail(metrics.ResultNotFound, time.Since(start))
			respondError(w, http.StatusNotFound, "Device not found")
			return
		}
		h.logf("device detail error: device=%s %v", deviceID, err)
		metrics.ObserveDeviceDetail(metrics.ResultError, time.Since(start))
		respondError(w, http.StatusInternalServerError, "telemetry store unavailable")
		return
	}
	metrics.ObserveDeviceDetail(metrics.ResultSuccess, time.Since(start))
	respondJSON(w, http.StatusOK, history)
}

func (h *Handler) logf(format string, args ...any) {
	if h.logger != nil {
		h.logger.Printf(format, args...)
	}
}

func parseTypes(value string) ([]telemetry.DeviceType, error) {
	if value == "" {
		return nil, nil
	}
	var types []telemetry.DeviceType
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		deviceType, ok := telemetry.ParseDeviceType(part)
		if !ok {
			return nil, errors.New("unknown device type: " + part)
		}
		types = append(types, deviceType)
	}
	return types, nil
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
