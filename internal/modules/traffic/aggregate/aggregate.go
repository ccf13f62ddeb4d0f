// Package aggregate groups sensor records by local hour and produces the
// monthly hourly summary served by the API.
package aggregate

import (
	"log/slog"
	"math"

	"roadpulse-server/internal/modules/traffic/classify"
	"roadpulse-server/internal/modules/traffic/localtime"
	"roadpulse-server/internal/modules/traffic/types"
)

type bucket struct {
	sum   float64
	count int
}

// Result holds per-sensor and overall hour buckets. The overall traffic and
// speed buckets keep independent counters: an hour may have count data points
// but no speed data points, and each average divides only by its own count.
type Result struct {
	perSensor map[string]*[24]bucket
	units     map[string]string
	included  map[string]bool
	order     []string

	traffic [24]bucket
	speed   [24]bucket
}

// Hourly buckets every record by sensor name and local hour. Records with a
// missing or zero value contribute nothing; a record whose timestamp cannot
// be parsed is skipped rather than failing the whole aggregation.
func Hourly(records []types.SensorRecord, resolver *localtime.Resolver) Result {
	res := Result{
		perSensor: make(map[string]*[24]bucket),
		units:     make(map[string]string),
		included:  make(map[string]bool),
	}

	for _, rec := range records {
		buckets, ok := res.perSensor[rec.SensorName]
		if !ok {
			// All 24 hours pre-created at zero so hours with no data still
			// appear as 0 in the output.
			buckets = new([24]bucket)
			res.perSensor[rec.SensorName] = buckets
			res.units[rec.SensorName] = rec.Unit
			res.order = append(res.order, rec.SensorName)
		}

		category := classify.Classify(rec.SensorName, rec.Unit)
		if category != classify.Other {
			res.included[rec.SensorName] = true
		}

		if rec.Value == nil || *rec.Value == 0 {
			continue
		}

		hour, err := resolver.LocalHour(rec.Timestamp())
		if err != nil {
			slog.Debug("skipping record with unparseable timestamp",
				"sensor", rec.SensorName,
				"error", err,
			)
			continue
		}

		buckets[hour].sum += *rec.Value
		buckets[hour].count++

		switch category {
		case classify.TrafficCount:
			res.traffic[hour].sum += *rec.Value
			res.traffic[hour].count++
		case classify.AverageSpeed:
			res.speed[hour].sum += *rec.Value
			res.speed[hour].count++
		}
	}

	return res
}

// Assemble shapes a Result into the response contract. Zero-count hours
// always yield 0, never NaN.
func Assemble(stationID int, period types.Period, res Result) types.AggregateResult {
	out := types.AggregateResult{
		StationID:      stationID,
		Period:         period,
		HourlyAverages: make([]types.HourlyAverage, 24),
		SensorData:     []types.SensorSeries{},
	}

	for h := 0; h < 24; h++ {
		out.HourlyAverages[h] = types.HourlyAverage{
			Hour:         h,
			TrafficCount: roundInt(res.traffic[h]),
			AvgSpeed:     round1(res.speed[h]),
		}
	}

	for _, name := range res.order {
		if !res.included[name] {
			continue
		}
		buckets := res.perSensor[name]
		series := types.SensorSeries{
			Name:       name,
			Unit:       res.units[name],
			HourlyData: make([]types.HourValue, 24),
		}
		for h := 0; h < 24; h++ {
			series.HourlyData[h] = types.HourValue{Hour: h, Value: round1(buckets[h])}
		}
		out.SensorData = append(out.SensorData, series)
	}

	return out
}

func round1(b bucket) float64 {
	if b.count == 0 {
		return 0
	}
	return math.Round(b.sum/float64(b.count)*10) / 10
}

func roundInt(b bucket) int {
	if b.count == 0 {
		return 0
	}
	return int(math.Round(b.sum / float64(b.count)))
}
