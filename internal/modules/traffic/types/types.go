package types

import (
	"fmt"
	"time"
)

// SensorRecord is one measurement emitted by one sensor at one station at
// one moment, as stored in the sensor_records table. Timestamps are ISO-8601
// UTC strings so that the composite key sorts chronologically as text.
type SensorRecord struct {
	StationID       int      `json:"stationId"`
	SensorName      string   `json:"sensorName"`
	Unit            string   `json:"unit"`
	Value           *float64 `json:"value,omitempty"`
	MeasuredTime    string   `json:"measuredTime"`
	TimeWindowStart *string  `json:"timeWindowStart,omitempty"`
}

// CompositeKey is the store sort key: "{stationId}#{measuredTime}#{sensorName}".
// Re-ingesting the same reading hits the same key, so upserts stay idempotent,
// and range scans over the key are time-ordered per station.
func (r SensorRecord) CompositeKey() string {
	return fmt.Sprintf("%d#%s#%s", r.StationID, r.MeasuredTime, r.SensorName)
}

// Timestamp returns the timestamp that drives hour bucketing: the start of
// the measurement window when present, else the measured time.
func (r SensorRecord) Timestamp() string {
	if r.TimeWindowStart != nil && *r.TimeWindowStart != "" {
		return *r.TimeWindowStart
	}
	return r.MeasuredTime
}

// Reading is the MQTT ingestion payload published by the poller and consumed
// by the server's subscriber.
type Reading struct {
	StationID       int        `json:"station_id"`
	SensorName      string     `json:"sensor_name"`
	Unit            string     `json:"unit"`
	Value           *float64   `json:"value,omitempty"`
	MeasuredTime    time.Time  `json:"measured_time"`
	TimeWindowStart *time.Time `json:"time_window_start,omitempty"`
}

// Record converts a reading into its stored form.
func (m Reading) Record() SensorRecord {
	rec := SensorRecord{
		StationID:    m.StationID,
		SensorName:   m.SensorName,
		Unit:         m.Unit,
		Value:        m.Value,
		MeasuredTime: m.MeasuredTime.UTC().Format(time.RFC3339),
	}
	if m.TimeWindowStart != nil {
		s := m.TimeWindowStart.UTC().Format(time.RFC3339)
		rec.TimeWindowStart = &s
	}
	return rec
}

// Period is the calendar date window an aggregate covers.
type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// HourlyAverage is one entry of the overall hourly series: average vehicle
// count and average speed for one local hour.
type HourlyAverage struct {
	Hour         int     `json:"hour"`
	TrafficCount int     `json:"trafficCount"`
	AvgSpeed     float64 `json:"avgSpeed"`
}

// HourValue is one entry of a per-sensor hourly series.
type HourValue struct {
	Hour  int     `json:"hour"`
	Value float64 `json:"value"`
}

// SensorSeries is a per-sensor-name 24-entry hourly average series.
type SensorSeries struct {
	Name       string      `json:"name"`
	Unit       string      `json:"unit"`
	HourlyData []HourValue `json:"hourlyData"`
}

// AggregateResult is the engine's output: constructed once per request and
// never mutated after return.
type AggregateResult struct {
	StationID      int             `json:"stationId"`
	Period         Period          `json:"period"`
	HourlyAverages []HourlyAverage `json:"hourlyAverages"`
	SensorData     []SensorSeries  `json:"sensorData"`
}
