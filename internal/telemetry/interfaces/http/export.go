package http

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"iiot-monitor/internal/observability/metrics"
	telemetry "iiot-monitor/internal/telemetry/domain"
)

// ExportHandler serves the fleet snapshot as CSV or XLSX downloads.
type ExportHandler struct {
	store   telemetry.Store
	rules   telemetry.StatusRules
	logger  *log.Logger
	recency time.Duration
	now     func() time.Time
}

// NewExportHandler constructs the export handler.
func NewExportHandler(store telemetry.Store, rules telemetry.StatusRules, logger *log.Logger, opts ...ExportOption) (*ExportHandler, error) {
	if store == nil {
		return nil, fmt.Errorf("export handler: nil store")
	}
	handler := &ExportHandler{
		store:   store,
		rules:   rules,
		logger:  logger,
		recency: defaultRecency,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(handler)
	}
	return handler, nil
}

// ExportOption configures the export handler.
type ExportOption func(*ExportHandler)

// WithExportRecency overrides the fleet recency window for exports.
func WithExportRecency(d time.Duration) ExportOption {
	return func(h *ExportHandler) {
		if d > 0 {
			h.recency = d
		}
	}
}

// WithExportClock overrides the clock used for status derivation.
func WithExportClock(now func() time.Time) ExportOption {
	return func(h *ExportHandler) {
		if now != nil {
			h.now = now
		}
	}
}

// ServeHTTP handles /api/exports/devices.csv and /api/exports/devices.xlsx.
func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	switch r.URL.Path {
	case "/api/exports/devices.csv":
		h.exportCSV(w, r)
	case "/api/exports/devices.xlsx":
		h.exportXLSX(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *ExportHandler) exportCSV(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	records, err := h.store.FleetLatest(r.Context(), h.recency, nil)
	if err != nil {
		h.logError("devices csv export", err)
		metrics.ObserveExport("csv", metrics.ResultError, time.Since(start))
		respondError(w, http.StatusInternalServerError, "telemetry store unavailable")
		return
	}

	now := h.now().UTC()
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="devices.csv"`)
	writer := csv.NewWriter(w)
	_ = writer.Write([]string{
		"device_id",
		"device_type",
		"line_id",
		"line_name",
		"status",
		"window_end",
		"avg_temperature",
		"avg_production_rate",
		"availability_percentage",
		"current_error_code",
	})
	for _, rec := range records {
		_ = writer.Write([]string{
			rec.DeviceID,
			string(rec.DeviceType),
			rec.LineID,
			rec.LineName,
			string(h.rules.DisplayStatus(rec, now)),
			rec.WindowEnd.UTC().Format(time.RFC3339),
			formatFloat(rec.AvgTemperature),
			formatFloat(rec.AvgProductionRate),
			formatFloat(rec.AvailabilityPercentage * 100),
			strconv.Itoa(rec.CurrentErrorCode),
		})
	}
	writer.Flush()
	metrics.ObserveExport("csv", metrics.ResultSuccess, time.Since(start))
}

func (h *ExportHandler) exportXLSX(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	records, err := h.store.FleetLatest(r.Context(), h.recency, nil)
	if err != nil {
		h.logError("devices xlsx export", err)
		metrics.ObserveExport("xlsx", metrics.ResultError, time.Since(start))
		respondError(w, http.StatusInternalServerError, "telemetry store unavailable")
		return
	}

	payload, err := BuildFleetXLSX(records, h.rules, h.now().UTC())
	if err != nil {
		h.logError("devices xlsx build", err)
		metrics.ObserveExport("xlsx", metrics.ResultError, time.Since(start))
		respondError(w, http.StatusInternalServerError, "export build failed")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="devices.xlsx"`)
	_, _ = w.Write(payload)
	metrics.ObserveExport("xlsx", metrics.ResultSuccess, time.Since(start))
}

// BuildFleetXLSX renders the fleet snapshot as a single-sheet workbook.
func BuildFleetXLSX(records []telemetry.Record, rules telemetry.StatusRules, now time.Time) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "devices"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{
		"Device", "Type", "Line", "Status", "Window End",
		"Avg Temperature (C)", "Production Rate (units/hr)", "Availability (%)", "Error Code",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, header)
	}

	for i, rec := range records {
		row := i + 2
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), rec.DeviceID)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), string(rec.DeviceType))
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), rec.LineName)
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), string(rules.DisplayStatus(rec, now)))
		_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), rec.WindowEnd.UTC().Format(time.RFC3339))
		_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", row), rec.AvgTemperature)
		_ = f.SetCellValue(sheet, fmt.Sprintf("G%d", row), rec.AvgProductionRate)
		_ = f.SetCellValue(sheet, fmt.Sprintf("H%d", row), rec.AvailabilityPercentage*100)
		_ = f.SetCellValue(sheet, fmt.Sprintf("I%d", row), rec.CurrentErrorCode)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (h *ExportHandler) logError(op string, err error) {
	if h.logger != nil {
		h.logger.Printf("%s failed: %v", op, err)
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
