package view

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"iiot-monitor/internal/datasource"
	errorfeed "iiot-monitor/internal/errorfeed/domain"
	"iiot-monitor/internal/observability/metrics"
	"iiot-monitor/internal/tableview"
	telemetry "iiot-monitor/internal/telemetry/domain"
)

// Handler renders server-side table pages and the dashboard summary.
type Handler struct {
	source datasource.DataSource
	rules  telemetry.StatusRules
	poller *Poller
	logger *log.Logger
	now    func() time.Time
}

// Option configures the handler.
type Option func(*Handler)

// WithPoller serves device views from the poller's snapshot when one
// is available instead of querying the source on every request.
func WithPoller(poller *Poller) Option {
	return func(h *Handler) {
		h.poller = poller
	}
}

// WithClock overrides the clock used for status derivation.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// NewHandler constructs the view handler.
func NewHandler(source datasource.DataSource, rules telemetry.StatusRules, logger *log.Logger, opts ...Option) (*Handler, error) {
	if source == nil {
		return nil, errors.New("view handler: nil source")
	}
	handler := &Handler{
		source: source,
		rules:  rules,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(handler)
	}
	return handler, nil
}

// ServeHTTP handles /api/view/devices, /api/view/errors and
// /api/view/dashboard.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	switch r.URL.Path {
	case "/api/view/devices":
		h.handleDevices(w, r)
	case "/api/view/errors":
		h.handleErrors(w, r)
	case "/api/view/dashboard":
		h.handleDashboard(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func deviceColumns() []tableview.Column[datasource.DeviceSummary] {
	return []tableview.Column[datasource.DeviceSummary]{
		{Header: "Device", Accessor: func(d datasource.DeviceSummary) string { return d.Name }},
		{Header: "Type", Accessor: func(d datasource.DeviceSummary) string { return d.DeviceType }},
		{Header: "Line", Accessor: func(d datasource.DeviceSummary) string { return d.LineName }},
		{Header: "Status", Accessor: func(d datasource.DeviceSummary) string { return string(d.Status) }},
		{Header: "Temperature", Accessor: func(d datasource.DeviceSummary) string { return d.Temperature }},
		{Header: "Production Rate", Accessor: func(d datasource.DeviceSummary) string { return d.ProductionRate }},
		{Header: "Availability", Accessor: func(d datasource.DeviceSummary) string { return d.Availability }},
	}
}

func errorColumns() []tableview.Column[errorfeed.Event] {
	return []tableview.Column[errorfeed.Event]{
		{Header: "Device", Accessor: func(e errorfeed.Event) string { return e.DeviceID }},
		{Header: "Line", Accessor: func(e errorfeed.Event) string { return e.LineID }},
		{Header: "Alert Code", Accessor: func(e errorfeed.Event) string { return e.AlertCode }},
		{Header: "Severity", Accessor: func(e errorfeed.Event) string { return string(e.Severity) }},
		{Header: "Timestamp", Accessor: func(e errorfeed.Event) string { return e.Timestamp.Format(time.RFC3339) }},
		{Header: "Suggested Action", Accessor: func(e errorfeed.Event) string { return e.SuggestedAction }},
	}
}

func (h *Handler) handleDevices(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.deviceSummaries(r)
	if err != nil {
		h.logf("device view: %v", err)
		respondError(w, http.StatusInternalServerError, "data source unavailable")
		return
	}

	table, err := tableview.New(deviceColumns(), summaries)
	if err != nil {
		h.logf("device view table: %v", err)
		respondError(w, http.StatusInternalServerError, "view unavailable")
		return
	}
	if err := applyTableParams(table, r); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	metrics.IncTableRender("devices")
	respondJSON(w, http.StatusOK, table.Snapshot())
}

func (h *Handler) handleErrors(w http.ResponseWriter, r *http.Request) {
	filter, err := parseErrorFilter(r, h.now)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	events, err := h.source.Errors(r.Context(), filter)
	if err != nil {
		h.logf("error view: %v", err)
		respondError(w, http.StatusInternalServerError, "data source unavailable")
		return
	}

	table, err := tableview.New(errorColumns(), events)
	if err != nil {
		h.logf("error view table: %v", err)
		respondError(w, http.StatusInternalServerError, "view unavailable")
		return
	}
	if err := applyTableParams(table, r); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	metrics.IncTableRender("errors")
	respondJSON(w, http.StatusOK, table.Snapshot())
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.deviceSummaries(r)
	if err != nil {
		h.logf("dashboard view: %v", err)
		respondError(w, http.StatusInternalServerError, "data source unavailable")
		return
	}
	metrics.IncTableRender("dashboard")
	respondJSON(w, http.StatusOK, BuildDashboardSummary(summaries))
}

func (h *Handler) deviceSummaries(r *http.Request) ([]datasource.DeviceSummary, error) {
	if h.poller != nil {
		if records, _, ok := h.poller.Snapshot(); ok {
			return datasource.Summarize(records, h.rules, h.now().UTC()), nil
		}
	}
	records, err := h.source.FleetLatest(r.Context())
	if err != nil {
		return nil, err
	}
	return datasource.Summarize(records, h.rules, h.now().UTC()), nil
}

// parseErrorFilter accepts the same query parameters as the error feed
// endpoint so the two error surfaces stay interchangeable.
func parseErrorFilter(r *http.Request, now func() time.Time) (errorfeed.ListFilter, error) {
	query := r.URL.Query()
	filter := errorfeed.ListFilter{
		DeviceID:        query.Get("device_id"),
		LineID:          query.Get("line_id"),
		IncludeResolved: query.Get("include_resolved") == "true",
	}
	if daysBack := query.Get("days_back"); daysBack != "" {
		parsed, err := strconv.Atoi(daysBack)
		if err != nil || parsed <= 0 {
			return filter, errors.New("days_back must be a positive integer")
		}
		filter.Since = now().UTC().Add(-time.Duration(parsed) * 24 * time.Hour)
	}
	return filter, nil
}

// applyTableParams maps search/page/page_size query parameters onto a
// table. Page is applied last so it lands on the filtered result.
func applyTableParams[T any](table *tableview.Table[T], r *http.Request) error {
	query := r.URL.Query()
	if term := query.Get("search"); term != "" {
		table.SetSearchTerm(term)
	}
	if raw := query.Get("page_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size <= 0 {
			return errors.New("page_size must be a positive integer")
		}
		table.SetPageSize(size)
	}
	if raw := query.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return errors.New("page must be an integer")
		}
		table.GoToPage(page)
	}
	return nil
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
