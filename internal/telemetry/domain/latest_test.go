package telemetry

import (
	"testing"
	"time"
)

func TestLatestPerDevice_OneRecordPerDevice(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	records := []Record{
		{DeviceID: "a", WindowEnd: base},
		{DeviceID: "b", WindowEnd: base.Add(-time.Minute)},
		{DeviceID: "a", WindowEnd: base.Add(-time.Hour)},
		{DeviceID: "b", WindowEnd: base.Add(-2 * time.Hour)},
		{DeviceID: "a", WindowEnd: base.Add(-3 * time.Hour)},
	}

	result := LatestPerDevice(records)
	if len(result) != 2 {
		t.Fatalf("expected 2 records, got %d", len(result))
	}
	seen := map[string]bool{}
	for _, rec := range result {
		if seen[rec.DeviceID] {
			t.Fatalf("duplicate device id %s", rec.DeviceID)
		}
		seen[rec.DeviceID] = true
	}
	if !result[0].WindowEnd.Equal(base) {
		t.Fatalf("expected newest record for a, got %s", result[0].WindowEnd)
	}
}

func TestLatestPerDevice_NewerErrorFreeRecordWins(t *testing.T) {
	now := time.Now().UTC()
	records := []Record{
		{DeviceID: "a", WindowEnd: now, CurrentErrorCode: 0, AvgTemperature: 60, AvailabilityPercentage: 0.95},
		{DeviceID: "a", WindowEnd: now.Add(-time.Hour), CurrentErrorCode: 2},
	}

	result := LatestPerDevice(records)
	if len(result) != 1 {
		t.Fatalf("expected 1 record, got %d", len(result))
	}
	if result[0].CurrentErrorCode != 0 {
		t.Fatalf("expected the newer record, got error code %d", result[0].CurrentErrorCode)
	}
	if got := DeriveStatus(result[0], now); got != StatusOnline {
		t.Fatalf("expected online, got %s", got)
	}
}

func TestLatestPerDevice_TieKeepsFirstSeen(t *testing.T) {
	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	records := []Record{
		{DeviceID: "a", WindowEnd: ts, AvgTemperature: 1},
		{DeviceID: "a", WindowEnd: ts, AvgTemperature: 2},
	}

	result := LatestPerDevice(records)
	if len(result) != 1 {
		t.Fatalf("expected 1 record, got %d", len(result))
	}
	if result[0].AvgTemperature != 1 {
		t.Fatalf("expected first-seen record on tie, got temperature %v", result[0].AvgTemperature)
	}
}

func TestLatestPerDevice_Empty(t *testing.T) {
	if result := LatestPerDevice(nil); result != nil {
		t.Fatalf("expected nil, got %v", result)
	}
}
