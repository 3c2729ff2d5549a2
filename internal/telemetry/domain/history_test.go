package telemetry

import (
	"errors"
	"testing"
	"time"
)

func TestNewHistory_AscendingWithCurrentNewest(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	records := []Record{
		{DeviceID: "a", WindowEnd: base, AvgTemperature: 70, AvailabilityPercentage: 0.9},
		{DeviceID: "a", WindowEnd: base.Add(-time.Hour), AvgTemperature: 68, AvailabilityPercentage: 0.85},
		{DeviceID: "a", WindowEnd: base.Add(-2 * time.Hour), AvgTemperature: 65, AvailabilityPercentage: 0.8},
	}

	history, err := NewHistory(records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !history.Current.WindowEnd.Equal(base) {
		t.Fatalf("expected current at %s, got %s", base, history.Current.WindowEnd)
	}
	if len(history.Historical) != 3 {
		t.Fatalf("expected 3 points, got %d", len(history.Historical))
	}
	for i := 1; i < len(history.Historical); i++ {
		if history.Historical[i].Timestamp.Before(history.Historical[i-1].Timestamp) {
			t.Fatalf("historical not ascending at %d", i)
		}
	}
	last := history.Historical[len(history.Historical)-1]
	if !last.Timestamp.Equal(history.Current.WindowEnd) {
		t.Fatalf("expected last point to match current, got %s", last.Timestamp)
	}
	if last.Availability != 90 {
		t.Fatalf("expected availability in percent form, got %v", last.Availability)
	}
}

func TestNewHistory_EmptyIsNotFound(t *testing.T) {
	_, err := NewHistory(nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
