package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"iiot-monitor/internal/audit"
	"iiot-monitor/internal/auth"
	errorfeed "iiot-monitor/internal/errorfeed/domain"
	"iiot-monitor/internal/observability/metrics"
)

// Handler serves the error feed and resolution endpoint.
type Handler struct {
	repo    errorfeed.Repository
	auditor audit.Logger
	logger  *log.Logger
	now     func() time.Time
}

// Option configures the handler.
type Option func(*Handler)

// WithClock overrides the clock used for days_back windows.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// NewHandler constructs the error feed handler.
func NewHandler(repo errorfeed.Repository, auditor audit.Logger, logger *log.Logger, opts ...Option) (*Handler, error) {
	if repo == nil {
		return nil, errors.New("error feed handler: nil repository")
	}
	if auditor == nil {
		auditor = audit.Nop{}
	}
	handler := &Handler{repo: repo, auditor: auditor, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(handler)
	}
	return handler, nil
}

// ServeHTTP handles /api/errors and /api/errors/{id}/resolve.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/errors":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleList(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/errors/") && strings.HasSuffix(r.URL.Path, "/resolve"):
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/errors/"), "/resolve")
		if id == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.handleResolve(w, r, id)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := errorfeed.ListFilter{
		DeviceID:        query.Get("device_id"),
		LineID:          query.Get("line_id"),
		IncludeResolved: query.Get("include_resolved") == "true",
	}
	if daysBack := query.Get("days_back"); daysBack != "" {
		parsed, err := strconv.Atoi(daysBack)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "days_back must be a positive integer")
			return
		}
		filter.Since = h.now().UTC().Add(-time.Duration(parsed) * 24 * time.Hour)
	}

	events, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logf("list error events: %v", err)
		metrics.IncErrorFeedQuery(metrics.ResultError)
		respondError(w, http.StatusInternalServerError, "error feed unavailable")
		return
	}
	metrics.IncErrorFeedQuery(metrics.ResultSuccess)
	if events == nil {
		events = []errorfeed.Event{}
	}
	respondJSON(w, http.StatusOK, events)
}

type resolveRequest struct {
	ActionTaken string `json:"action_taken"`
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request, id string) {
	var req resolveRequest
	if r.Body != nil {
		// An empty body is allowed; action_taken is optional.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if err := h.repo.Resolve(r.Context(), id, req.ActionTaken); err != nil {
		if errors.Is(err, errorfeed.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Error event not found")
			return
		}
		h.logf("resolve error event %s: %v", id, err)
		respondError(w, http.StatusInternalServerError, "error feed unavailable")
		return
	}

	metadata, _ := json.Marshal(map[string]string{"action_taken": req.ActionTaken})
	if err := h.auditor.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       "error.resolve",
		ResourceType: "error_event",
		ResourceID:   id,
		Metadata:     metadata,
		IP:           r.RemoteAddr,
		UserAgent:    r.UserAgent(),
	}); err != nil {
		h.logf("audit error resolve %s: %v", id, err)
	}

	w.WriteHeader(http.StatusNoContent)
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
