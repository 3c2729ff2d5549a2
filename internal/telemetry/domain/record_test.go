package telemetry

import "testing"

func TestParseDeviceType_FoldsCase(t *testing.T) {
	cases := map[string]DeviceType{
		"Press":          DevicePress,
		"press":          DevicePress,
		"PRESS":          DevicePress,
		"qualitystation": DeviceQualityStation,
		"Conveyor":       DeviceConveyor,
	}
	for raw, want := range cases {
		got, ok := ParseDeviceType(raw)
		if !ok || got != want {
			t.Fatalf("ParseDeviceType(%q) = %q, %v; want %q", raw, got, ok, want)
		}
	}

	if _, ok := ParseDeviceType("toaster"); ok {
		t.Fatal("expected unknown type to be rejected")
	}
	if _, ok := ParseDeviceType(""); ok {
		t.Fatal("expected empty type to be rejected")
	}
}
