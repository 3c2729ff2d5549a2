package view

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"iiot-monitor/internal/datasource"
	errorfeed "iiot-monitor/internal/errorfeed/domain"
	"iiot-monitor/internal/tableview"
	telemetry "iiot-monitor/internal/telemetry/domain"
)

var testNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	source, _, _, err := datasource.NewSampleSource(func() time.Time { return testNow })
	if err != nil {
		t.Fatalf("NewSampleSource: %v", err)
	}
	handler, err := NewHandler(source, telemetry.DefaultStatusRules(), nil,
		WithClock(func() time.Time { return testNow }))
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	return handler
}

func TestHandler_DeviceTablePage(t *testing.T) {
	handler := newTestHandler(t)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/view/devices?page_size=3&page=2", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var snapshot tableview.Snapshot[datasource.DeviceSummary]
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snapshot.TotalRows != 7 || snapshot.TotalPages != 3 || snapshot.Page != 2 {
		t.Fatalf("unexpected snapshot shape %+v", snapshot)
	}
	if len(snapshot.Rows) != 3 {
		t.Fatalf("expected 3 rows on page 2, got %d", len(snapshot.Rows))
	}
}

func TestHandler_DeviceTableSearch(t *testing.T) {
	handler := newTestHandler(t)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/view/devices?search=stamping", nil))

	var snapshot tableview.Snapshot[datasource.DeviceSummary]
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snapshot.TotalRows != 3 {
		t.Fatalf("expected 3 stamping-line devices, got %d", snapshot.TotalRows)
	}
	for _, row := range snapshot.Rows {
		if row.LineName != "Stamping Line 2" {
			t.Fatalf("unexpected row %+v", row)
		}
	}
}

func TestHandler_ErrorTableHasSuggestedActions(t *testing.T) {
	handler := newTestHandler(t)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/view/errors", nil))

	var snapshot tableview.Snapshot[errorfeed.Event]
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snapshot.TotalRows != 2 {
		t.Fatalf("expected 2 events, got %d", snapshot.TotalRows)
	}
	if snapshot.Rows[0].SuggestedAction == "" {
		t.Fatalf("expected enriched suggested action, got %+v", snapshot.Rows[0])
	}
}

func TestHandler_ErrorTableFilterParams(t *testing.T) {
	handler := newTestHandler(t)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/view/errors?device_id=quality-c1", nil))

	var snapshot tableview.Snapshot[errorfeed.Event]
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snapshot.TotalRows != 1 || snapshot.Rows[0].DeviceID != "quality-c1" {
		t.Fatalf("expected only quality-c1 events, got %+v", snapshot.Rows)
	}

	// include_resolved widens the window the same way /api/errors does;
	// the resolved event is 26h old, so a 1-day window still hides it.
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/view/errors?days_back=1&include_resolved=true", nil))
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snapshot.TotalRows != 2 {
		t.Fatalf("expected 2 events within a day, got %d", snapshot.TotalRows)
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/view/errors?days_back=0", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid days_back, got %d", resp.Code)
	}
}

func TestHandler_Dashboard(t *testing.T) {
	handler := newTestHandler(t)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/view/dashboard", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var summary DashboardSummary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if summary.DeviceCount != 7 {
		t.Fatalf("expected 7 devices, got %d", summary.DeviceCount)
	}
	// Sample fleet: quality-c1 error, press-b1 warning.
	if summary.ActiveAlerts != 2 {
		t.Fatalf("expected 2 active alerts, got %d", summary.ActiveAlerts)
	}
	if len(summary.Alerts) != 2 {
		t.Fatalf("expected 2 alert rows, got %d", len(summary.Alerts))
	}
	for _, alert := range summary.Alerts {
		if alert.Status == telemetry.StatusError && alert.SuggestedAction != "Check device immediately" {
			t.Fatalf("unexpected action %q", alert.SuggestedAction)
		}
		if alert.Status == telemetry.StatusWarning && alert.SuggestedAction != "Monitor temperature" {
			t.Fatalf("unexpected action %q", alert.SuggestedAction)
		}
	}
}

type countingSource struct {
	datasource.DataSource
	calls int
}

func (s *countingSource) FleetLatest(ctx context.Context) ([]telemetry.Record, error) {
	s.calls++
	return s.DataSource.FleetLatest(ctx)
}

func TestHandler_UsesPollerSnapshot(t *testing.T) {
	inner, _, _, err := datasource.NewSampleSource(func() time.Time { return testNow })
	if err != nil {
		t.Fatalf("NewSampleSource: %v", err)
	}
	source := &countingSource{DataSource: inner}

	poller, err := NewPoller(source, nil)
	if err != nil {
		t.Fatalf("NewPoller: %v", err)
	}
	if err := poller.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	callsAfterPoll := source.calls

	handler, err := NewHandler(source, telemetry.DefaultStatusRules(), nil,
		WithPoller(poller), WithClock(func() time.Time { return testNow }))
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/view/devices", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if source.calls != callsAfterPoll {
		t.Fatalf("expected snapshot reuse, source queried %d extra times", source.calls-callsAfterPoll)
	}
}

func TestPoller_LastWriteWins(t *testing.T) {
	inner, store, _, err := datasource.NewSampleSource(func() time.Time { return testNow })
	if err != nil {
		t.Fatalf("NewSampleSource: %v", err)
	}
	poller, err := NewPoller(inner, nil)
	if err != nil {
		t.Fatalf("NewPoller: %v", err)
	}

	if err := poller.RunOnce(context.Background()); err != nil {
		t.Fatalf("first poll: %v", err)
	}
	first, _, ok := poller.Snapshot()
	if !ok || len(first) != 7 {
		t.Fatalf("unexpected first snapshot %d ok=%v", len(first), ok)
	}

	store.Put(telemetry.Record{
		DeviceID: "press-b9", DeviceType: telemetry.DevicePress, WindowEnd: testNow.Add(-time.Minute),
	})
	if err := poller.RunOnce(context.Background()); err != nil {
		t.Fatalf("second poll: %v", err)
	}
	second, _, _ := poller.Snapshot()
	if len(second) != 8 {
		t.Fatalf("expected refreshed snapshot with 8 devices, got %d", len(second))
	}
}

func TestBuildDashboardSummary_Averages(t *testing.T) {
	devices := []datasource.DeviceSummary{
		{ProductionRate: "60 units/hr", Temperature: "70°C", Status: telemetry.StatusOnline},
		{ProductionRate: "40 units/hr", Temperature: "90°C", Status: telemetry.StatusWarning},
	}
	summary := BuildDashboardSummary(devices)
	if summary.AvgProductionRate != 50 {
		t.Fatalf("expected 50, got %d", summary.AvgProductionRate)
	}
	if summary.AvgTemperature != 80 {
		t.Fatalf("expected 80, got %d", summary.AvgTemperature)
	}
	if summary.ActiveAlerts != 1 || len(summary.Alerts) != 1 {
		t.Fatalf("unexpected alerts %+v", summary)
	}
}

func TestBuildDashboardSummary_Empty(t *testing.T) {
	summary := BuildDashboardSummary(nil)
	if summary.AvgProductionRate != 0 || summary.AvgTemperature != 0 || summary.ActiveAlerts != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

var errSourceDown = errors.New("source down")

type failingSource struct{}

func (failingSource) FleetLatest(context.Context) ([]telemetry.Record, error) {
	return nil, errSourceDown
}

func (failingSource) DeviceHistory(context.Context, string) (telemetry.History, error) {
	return telemetry.History{}, errSourceDown
}

func (failingSource) Errors(context.Context, errorfeed.ListFilter) ([]errorfeed.Event, error) {
	return nil, errSourceDown
}

func TestHandler_SourceFailureIs500(t *testing.T) {
	handler, err := NewHandler(failingSource{}, telemetry.DefaultStatusRules(), nil)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}

	for _, path := range []string{"/api/view/devices", "/api/view/errors", "/api/view/dashboard"} {
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500 for %s, got %d", path, resp.Code)
		}
	}
}
