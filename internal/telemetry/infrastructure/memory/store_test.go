package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	telemetry "iiot-monitor/internal/telemetry/domain"
)

func TestStore_FleetLatestFiltersAndReduces(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store := NewStore(WithClock(func() time.Time { return now }))
	store.Put(
		telemetry.Record{DeviceID: "a", DeviceType: telemetry.DevicePress, WindowEnd: now.Add(-time.Hour)},
		telemetry.Record{DeviceID: "a", DeviceType: telemetry.DevicePress, WindowEnd: now.Add(-time.Minute)},
		telemetry.Record{DeviceID: "b", DeviceType: telemetry.DeviceConveyor, WindowEnd: now.Add(-time.Minute)},
		telemetry.Record{DeviceID: "old", DeviceType: telemetry.DevicePress, WindowEnd: now.Add(-30 * 24 * time.Hour)},
	)

	result, err := store.FleetLatest(context.Background(), 14*24*time.Hour, []telemetry.DeviceType{telemetry.DevicePress})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("expected 1 record, got %d", len(result))
	}
	if result[0].DeviceID != "a" || !result[0].WindowEnd.Equal(now.Add(-time.Minute)) {
		t.Fatalf("expected newest record for a, got %+v", result[0])
	}
}

func TestStore_DeviceHistoryNotFound(t *testing.T) {
	store := NewStore()
	_, err := store.DeviceHistory(context.Background(), "ghost", 24*time.Hour)
	if !errors.Is(err, telemetry.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSampleFleet_Statuses(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store := NewStore(WithClock(func() time.Time { return now }))
	store.Put(SampleFleet(now)...)

	result, err := store.FleetLatest(context.Background(), 14*24*time.Hour, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 7 {
		t.Fatalf("expected 7 devices, got %d", len(result))
	}

	statuses := map[string]telemetry.Status{}
	for _, rec := range result {
		statuses[rec.DeviceID] = telemetry.DeriveStatus(rec, now)
	}
	if statuses["quality-c1"] != telemetry.StatusError {
		t.Fatalf("expected quality-c1 error, got %s", statuses["quality-c1"])
	}
	if statuses["press-b1"] != telemetry.StatusWarning {
		t.Fatalf("expected press-b1 warning, got %s", statuses["press-b1"])
	}
	if statuses["conveyor-d1"] != telemetry.StatusOffline {
		t.Fatalf("expected conveyor-d1 offline, got %s", statuses["conveyor-d1"])
	}
	if statuses["compressor-a1"] != telemetry.StatusOnline {
		t.Fatalf("expected compressor-a1 online, got %s", statuses["compressor-a1"])
	}

	// compressor-a2 derives online but displays as maintenance via its
	// twin-mirrored flag.
	if statuses["compressor-a2"] != telemetry.StatusOnline {
		t.Fatalf("expected compressor-a2 to derive online, got %s", statuses["compressor-a2"])
	}
	for _, rec := range result {
		if rec.DeviceID != "compressor-a2" {
			continue
		}
		if got := telemetry.DefaultStatusRules().DisplayStatus(rec, now); got != telemetry.StatusMaintenance {
			t.Fatalf("expected compressor-a2 to display maintenance, got %s", got)
		}
	}
}
