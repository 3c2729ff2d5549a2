// Package monitoring holds the tunable thresholds and windows of the
// dashboard: the freshness policy, status thresholds, query windows
// and the poll interval. Values come from an optional yaml file with
// env fallbacks.
package monitoring

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	telemetry "iiot-monitor/internal/telemetry/domain"
)

// Config defines monitoring configuration.
type Config struct {
	// Freshness is "staleness" (default) or "availability". Exactly
	// one policy is active at a time.
	Freshness           string  `yaml:"freshness"`
	StalenessMinutes    int     `yaml:"staleness_minutes"`
	AvailabilityFloor   float64 `yaml:"availability_floor"`
	WarningTemperature  float64 `yaml:"warning_temperature"`
	RecencyDays         int     `yaml:"recency_days"`
	LookbackHours       int     `yaml:"lookback_hours"`
	PollIntervalSeconds int     `yaml:"poll_interval_seconds"`
}

// LoadConfig loads monitoring config from yaml or env. The yaml file
// named by MONITORING_CONFIG wins over env values.
func LoadConfig() (Config, error) {
	cfg := Config{
		Freshness:           getenvDefault("MONITORING_FRESHNESS", string(telemetry.FreshnessStaleness)),
		StalenessMinutes:    getenvIntDefault("MONITORING_STALENESS_MINUTES", 5),
		AvailabilityFloor:   getenvFloatDefault("MONITORING_AVAILABILITY_FLOOR", 0.8),
		WarningTemperature:  getenvFloatDefault("MONITORING_WARNING_TEMPERATURE", 80),
		RecencyDays:         getenvIntDefault("MONITORING_RECENCY_DAYS", 14),
		LookbackHours:       getenvIntDefault("MONITORING_LOOKBACK_HOURS", 24),
		PollIntervalSeconds: getenvIntDefault("MONITORING_POLL_INTERVAL_SECONDS", 30),
	}

	if path := os.Getenv("MONITORING_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch telemetry.FreshnessPolicy(c.Freshness) {
	case telemetry.FreshnessStaleness, telemetry.FreshnessAvailability:
	default:
		return fmt.Errorf("monitoring: unknown freshness policy %q", c.Freshness)
	}
	if c.StalenessMinutes <= 0 {
		return errors.New("monitoring: staleness_minutes must be positive")
	}
	if c.AvailabilityFloor <= 0 || c.AvailabilityFloor > 1 {
		return errors.New("monitoring: availability_floor must be in (0, 1]")
	}
	if c.RecencyDays <= 0 || c.LookbackHours <= 0 {
		return errors.New("monitoring: query windows must be positive")
	}
	if c.PollIntervalSeconds <= 0 {
		return errors.New("monitoring: poll_interval_seconds must be positive")
	}
	return nil
}

// StatusRules converts the config to derivation rules.
func (c Config) StatusRules() telemetry.StatusRules {
	return telemetry.StatusRules{
		Freshness:          telemetry.FreshnessPolicy(c.Freshness),
		StalenessLimit:     time.Duration(c.StalenessMinutes) * time.Minute,
		AvailabilityFloor:  c.AvailabilityFloor,
		WarningTemperature: c.WarningTemperature,
	}
}

// Recency returns the fleet query window.
func (c Config) Recency() time.Duration {
	return time.Duration(c.RecencyDays) * 24 * time.Hour
}

// Lookback returns the device history window.
func (c Config) Lookback() time.Duration {
	return time.Duration(c.LookbackHours) * time.Hour
}

// PollInterval returns the fleet poll interval.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvFloatDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
