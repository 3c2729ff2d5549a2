package view

import (
	"math"
	"strconv"
	"strings"

	"iiot-monitor/internal/datasource"
	telemetry "iiot-monitor/internal/telemetry/domain"
)

// AlertRow is one entry of the dashboard's recent-alert table.
type AlertRow struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	AlertCode       string           `json:"alert_code"`
	Temperature     string           `json:"temperature"`
	Status          telemetry.Status `json:"status"`
	SuggestedAction string           `json:"suggested_action"`
}

// DashboardSummary aggregates the fleet for the dashboard header.
type DashboardSummary struct {
	AvgProductionRate int        `json:"avg_production_rate"`
	AvgTemperature    int        `json:"avg_temperature"`
	ActiveAlerts      int        `json:"active_alerts"`
	DeviceCount       int        `json:"device_count"`
	Alerts            []AlertRow `json:"alerts"`
}

const maxAlertRows = 5

// BuildDashboardSummary computes fleet averages and the top alert rows
// from view summaries. Averages parse the unit-suffixed strings so the
// summary reflects exactly what the tables display.
func BuildDashboardSummary(devices []datasource.DeviceSummary) DashboardSummary {
	summary := DashboardSummary{DeviceCount: len(devices), Alerts: []AlertRow{}}
	if len(devices) == 0 {
		return summary
	}

	var totalProduction, totalTemperature int
	for _, device := range devices {
		totalProduction += parseLeadingInt(device.ProductionRate)
		totalTemperature += parseLeadingInt(device.Temperature)

		if device.Status != telemetry.StatusError && device.Status != telemetry.StatusWarning {
			continue
		}
		summary.ActiveAlerts++
		if len(summary.Alerts) >= maxAlertRows {
			continue
		}
		action := "Monitor temperature"
		alertCode := "N/A"
		if device.Status == telemetry.StatusError {
			action = "Check device immediately"
			if device.ErrorCode != 0 {
				alertCode = strconv.Itoa(device.ErrorCode)
			}
		}
		summary.Alerts = append(summary.Alerts, AlertRow{
			ID:              device.ID,
			Name:            device.Name,
			AlertCode:       alertCode,
			Temperature:     device.Temperature,
			Status:          device.Status,
			SuggestedAction: action,
		})
	}

	summary.AvgProductionRate = int(math.Round(float64(totalProduction) / float64(len(devices))))
	summary.AvgTemperature = int(math.Round(float64(totalTemperature) / float64(len(devices))))
	return summary
}

// parseLeadingInt reads the integer prefix of a unit-suffixed value
// like "72°C" or "60 units/hr". Unparseable values count as zero.
func parseLeadingInt(value string) int {
	value = strings.TrimSpace(value)
	end := 0
	for end < len(value) && (value[end] == '-' && end == 0 || value[end] >= '0' && value[end] <= '9') {
		end++
	}
	if end == 0 {
		return 0
	}
	parsed, err := strconv.Atoi(value[:end])
	if err != nil {
		return 0
	}
	return parsed
}
