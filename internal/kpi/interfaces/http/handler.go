package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	kpi "iiot-monitor/internal/kpi/domain"
	"iiot-monitor/internal/observability/metrics"
)

const defaultLookback = 30 * 24 * time.Hour

// Handler serves line KPI queries and report exports.
type Handler struct {
	source kpi.Source
	logger *log.Logger
}

// NewHandler constructs the handler.
func NewHandler(source kpi.Source, logger *log.Logger) (*Handler, error) {
	if source == nil {
		return nil, errors.New("kpi handler: nil source")
	}
	return &Handler{source: source, logger: logger}, nil
}

// ServeHTTP handles /api/kpis and /api/exports/kpis.*.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	switch r.URL.Path {
	case "/api/kpis":
		h.handleList(w, r)
	case "/api/exports/kpis.pdf":
		h.handleExport(w, r, "pdf")
	case "/api/exports/kpis.xlsx":
		h.handleExport(w, r, "xlsx")
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) query(r *http.Request) ([]kpi.LineKPI, error) {
	lookback := defaultLookback
	if daysBack := r.URL.Query().Get("days_back"); daysBack != "" {
		parsed, err := strconv.Atoi(daysBack)
		if err != nil || parsed <= 0 {
			return nil, errBadDaysBack
		}
		lookback = time.Duration(parsed) * 24 * time.Hour
	}
	return h.source.LineKPIs(r.Context(), r.URL.Query().Get("line_id"), lookback)
}

var errBadDaysBack = errors.New("days_back must be a positive integer")

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	kpis, err := h.query(r)
	if err != nil {
		if errors.Is(err, errBadDaysBack) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logf("list kpis: %v", err)
		respondError(w, http.StatusInternalServerError, "kpi source unavailable")
		return
	}
	if kpis == nil {
		kpis = []kpi.LineKPI{}
	}
	respondJSON(w, http.StatusOK, kpis)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request, format string) {
	start := time.Now()
	kpis, err := h.query(r)
	if err != nil {
		if errors.Is(err, errBadDaysBack) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logf("kpi %s export: %v", format, err)
		metrics.ObserveExport(format, metrics.ResultError, time.Since(start))
		respondError(w, http.StatusInternalServerError, "kpi source unavailable")
		return
	}

	var payload []byte
	switch format {
	case "pdf":
		payload, err = BuildKPIReportPDF(kpis)
	case "xlsx":
		payload, err = BuildKPIReportXLSX(kpis)
	}
	if err != nil {
		h.logf("kpi %s build: %v", format, err)
		metrics.ObserveExport(format, metrics.ResultError, time.Since(start))
		respondError(w, http.StatusInternalServerError, "export build failed")
		return
	}

	switch format {
	case "pdf":
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="kpis.pdf"`)
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="kpis.xlsx"`)
	}
	_, _ = w.Write(payload)
	metrics.ObserveExport(format, metrics.ResultSuccess, time.Since(start))
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
