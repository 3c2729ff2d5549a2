package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	errorfeed "iiot-monitor/internal/errorfeed/domain"
	telemetry "iiot-monitor/internal/telemetry/domain"
)

const (
	devBaseURL  = "http://localhost:8080"
	prodEnvFlag = "true"
)

// APIClient is a DataSource backed by the monitoring HTTP API.
type APIClient struct {
	baseURL string
	client  *http.Client
}

// ResolveBaseURL picks the API origin: the production URL when the
// production flag is set, the local development origin otherwise.
func ResolveBaseURL(production string, prodURL string) string {
	if production == prodEnvFlag && prodURL != "" {
		return prodURL
	}
	return devBaseURL
}

// NewAPIClient constructs a client for the given origin.
func NewAPIClient(baseURL string) (*APIClient, error) {
	if baseURL == "" {
		return nil, errors.New("datasource: empty base url")
	}
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// FleetLatest fetches the latest-per-device fleet snapshot.
func (c *APIClient) FleetLatest(ctx context.Context) ([]telemetry.Record, error) {
	var records []telemetry.Record
	if err := c.getJSON(ctx, "/api/devices", &records); err != nil {
		return nil, err
	}
	return records, nil
}

// DeviceHistory fetches one device's current record and 24h history.
func (c *APIClient) DeviceHistory(ctx context.Context, deviceID string) (telemetry.History, error) {
	var history telemetry.History
	path := "/api/devices/" + url.PathEscape(deviceID)
	if err := c.getJSON(ctx, path, &history); err != nil {
		return telemetry.History{}, err
	}
	return history, nil
}

// Errors fetches error events matching the filter.
func (c *APIClient) Errors(ctx context.Context, filter errorfeed.ListFilter) ([]errorfeed.Event, error) {
	query := url.Values{}
	if filter.DeviceID != "" {
		query.Set("device_id", filter.DeviceID)
	}
	if filter.LineID != "" {
		query.Set("line_id", filter.LineID)
	}
	if filter.IncludeResolved {
		query.Set("include_resolved", "true")
	}
	path := "/api/errors"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var events []errorfeed.Event
	if err := c.getJSON(ctx, path, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *APIClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("datasource: %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return telemetry.ErrNotFound
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("datasource: %s: http %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
