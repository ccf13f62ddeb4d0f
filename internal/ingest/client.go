// Package ingest polls the upstream road-sensor API for the configured
// stations and publishes each reading to the ingestion topic.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SensorValue is one measurement as reported by the upstream API.
type SensorValue struct {
	ID              int        `json:"id"`
	StationID       int        `json:"stationId"`
	Name            string     `json:"name"`
	Unit            string     `json:"unit"`
	Value           *float64   `json:"value,omitempty"`
	MeasuredTime    time.Time  `json:"measuredTime"`
	TimeWindowStart *time.Time `json:"timeWindowStart,omitempty"`
}

type stationData struct {
	ID           int           `json:"id"`
	SensorValues []SensorValue `json:"sensorValues"`
}

type APIClient struct {
	baseURL string
	client  *http.Client
}

func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// StationSensorValues fetches the latest sensor values of one station.
func (c *APIClient) StationSensorValues(ctx context.Context, stationID int) ([]SensorValue, error) {
	url := fmt.Sprintf("%s/stations/%d/sensors", c.baseURL, stationID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch station %d: %w", stationID, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch station %d: expected status 200 but got %d", stationID, resp.StatusCode)
	}

	var data stationData
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode station %d response: %w", stationID, err)
	}
	return data.SensorValues, nil
}
